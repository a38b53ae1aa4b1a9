package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/domain/repository"
	"github.com/site-assessment/internal/pkg/metrics"
	"github.com/uber/h3-go/v4"
	"go.uber.org/zap"
)

// CellKey строит ключ кеша: <kind>:<res>:<h3 cell>[:<params>...]
func CellKey(kind string, lat, lon float64, resolution int, params ...string) (string, error) {
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lon}, resolution)
	if err != nil {
		return "", fmt.Errorf("h3 cell for %f,%f: %w", lat, lon, err)
	}

	parts := append([]string{kind, fmt.Sprintf("%d", resolution), cell.String()}, params...)
	return strings.Join(parts, ":"), nil
}

// geoCache - общая логика чтения/записи JSON по ключу ячейки H3
type geoCache struct {
	name       string
	cache      repository.CacheRepository
	ttl        time.Duration
	resolution int
	metrics    *metrics.Provider
	logger     *zap.Logger
}

// lookup возвращает true, если значение найдено и распаковано в out.
// Ошибки кеша логируются и трактуются как промах.
func (g *geoCache) lookup(ctx context.Context, key string, out interface{}) bool {
	data, err := g.cache.Get(ctx, key)
	if err != nil {
		g.metrics.ObserveCacheLookup(g.name, metrics.CacheError)
		g.logger.Warn("Geodata cache read failed", zap.String("cache", g.name), zap.Error(err))
		return false
	}
	if data == nil {
		g.metrics.ObserveCacheLookup(g.name, metrics.CacheMiss)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		g.metrics.ObserveCacheLookup(g.name, metrics.CacheError)
		g.logger.Warn("Geodata cache entry is corrupted", zap.String("key", key), zap.Error(err))
		return false
	}

	g.metrics.ObserveCacheLookup(g.name, metrics.CacheHit)
	return true
}

func (g *geoCache) store(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		g.logger.Warn("Failed to marshal geodata cache entry", zap.String("key", key), zap.Error(err))
		return
	}
	if err := g.cache.Set(ctx, key, data, g.ttl); err != nil {
		g.logger.Warn("Geodata cache write failed", zap.String("cache", g.name), zap.Error(err))
	}
}

// PlacesCache кеширует результаты Nearby Search по ячейке H3, типу и радиусу
type PlacesCache struct {
	geoCache
	next repository.PlacesRepository
}

func NewPlacesCache(
	next repository.PlacesRepository,
	cache repository.CacheRepository,
	ttl time.Duration,
	resolution int,
	m *metrics.Provider,
	logger *zap.Logger,
) *PlacesCache {
	return &PlacesCache{
		geoCache: geoCache{name: "places", cache: cache, ttl: ttl, resolution: resolution, metrics: m, logger: logger},
		next:     next,
	}
}

func (c *PlacesCache) NearbySearch(ctx context.Context, lat, lon float64, placeType string, radiusM int) ([]domain.Place, error) {
	key, err := CellKey("places", lat, lon, c.resolution, placeType, fmt.Sprintf("%d", radiusM))
	if err != nil {
		return c.next.NearbySearch(ctx, lat, lon, placeType, radiusM)
	}

	var cached []domain.Place
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	places, err := c.next.NearbySearch(ctx, lat, lon, placeType, radiusM)
	if err != nil {
		return nil, err
	}
	if places == nil {
		places = []domain.Place{}
	}

	c.store(ctx, key, places)
	return places, nil
}

// ElevationCache кеширует высоту по ячейке H3
type ElevationCache struct {
	geoCache
	next repository.ElevationRepository
}

func NewElevationCache(
	next repository.ElevationRepository,
	cache repository.CacheRepository,
	ttl time.Duration,
	resolution int,
	m *metrics.Provider,
	logger *zap.Logger,
) *ElevationCache {
	return &ElevationCache{
		geoCache: geoCache{name: "elevation", cache: cache, ttl: ttl, resolution: resolution, metrics: m, logger: logger},
		next:     next,
	}
}

func (c *ElevationCache) Elevation(ctx context.Context, lat, lon float64) (*float64, error) {
	key, err := CellKey("elevation", lat, lon, c.resolution)
	if err != nil {
		return c.next.Elevation(ctx, lat, lon)
	}

	var cached *float64
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	elevation, err := c.next.Elevation(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, elevation)
	return elevation, nil
}
