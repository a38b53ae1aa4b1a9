package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/site-assessment/internal/config"
	"github.com/site-assessment/internal/domain"
	"go.uber.org/zap"
)

// Статусы ответа Places/Elevation, не являющиеся ошибкой
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// Client - клиент веб-сервисов Google Maps (Places Nearby Search, Roads, Elevation).
// Реализует repository.PlacesRepository, repository.RoadsRepository и repository.ElevationRepository.
type Client struct {
	httpClient   *http.Client
	apiKey       string
	placesURL    string
	roadsURL     string
	elevationURL string
	logger       *zap.Logger
}

// NewClient создает новый клиент Google Maps
func NewClient(cfg *config.GoogleConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		apiKey:       cfg.APIKey,
		placesURL:    cfg.PlacesURL,
		roadsURL:     cfg.RoadsURL,
		elevationURL: cfg.ElevationURL,
		logger:       logger,
	}
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type placesResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Results      []struct {
		PlaceID  string   `json:"place_id"`
		Name     string   `json:"name"`
		Types    []string `json:"types"`
		Geometry struct {
			Location latLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type roadsResponse struct {
	SnappedPoints []struct {
		Location struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"location"`
		PlaceID string `json:"placeId"`
	} `json:"snappedPoints"`
}

type elevationResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Results      []struct {
		Elevation float64 `json:"elevation"`
		Location  latLng  `json:"location"`
	} `json:"results"`
}

// NearbySearch возвращает объекты заданного типа в радиусе radiusM метров.
// Возвращается только первая страница результатов.
func (c *Client) NearbySearch(ctx context.Context, lat, lon float64, placeType string, radiusM int) ([]domain.Place, error) {
	params := url.Values{}
	params.Set("location", formatLatLon(lat, lon))
	params.Set("radius", fmt.Sprintf("%d", radiusM))
	params.Set("type", placeType)
	params.Set("key", c.apiKey)

	var resp placesResponse
	if err := c.getJSON(ctx, c.placesURL, params, &resp); err != nil {
		return nil, err
	}

	if resp.Status != statusOK && resp.Status != statusZeroResults {
		return nil, fmt.Errorf("places API returned status %s: %s", resp.Status, resp.ErrorMessage)
	}

	places := make([]domain.Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		places = append(places, domain.Place{
			PlaceID: r.PlaceID,
			Name:    r.Name,
			Lat:     r.Geometry.Location.Lat,
			Lon:     r.Geometry.Location.Lng,
			Types:   r.Types,
		})
	}

	c.logger.Debug("Places nearby search completed",
		zap.String("type", placeType),
		zap.Int("radius_m", radiusM),
		zap.Int("results", len(places)))

	return places, nil
}

// NearestRoad возвращает первую точку, привязанную к дороге; nil, если дорога не найдена
func (c *Client) NearestRoad(ctx context.Context, lat, lon float64) (*domain.SnappedPoint, error) {
	params := url.Values{}
	params.Set("points", formatLatLon(lat, lon))
	params.Set("key", c.apiKey)

	var resp roadsResponse
	if err := c.getJSON(ctx, c.roadsURL, params, &resp); err != nil {
		return nil, err
	}

	if len(resp.SnappedPoints) == 0 {
		return nil, nil
	}

	first := resp.SnappedPoints[0]
	return &domain.SnappedPoint{
		Lat:     first.Location.Latitude,
		Lon:     first.Location.Longitude,
		PlaceID: first.PlaceID,
	}, nil
}

// Elevation возвращает высоту первой точки ответа; nil, если результатов нет
func (c *Client) Elevation(ctx context.Context, lat, lon float64) (*float64, error) {
	params := url.Values{}
	params.Set("locations", formatLatLon(lat, lon))
	params.Set("key", c.apiKey)

	var resp elevationResponse
	if err := c.getJSON(ctx, c.elevationURL, params, &resp); err != nil {
		return nil, err
	}

	if resp.Status != statusOK && resp.Status != statusZeroResults {
		return nil, fmt.Errorf("elevation API returned status %s: %s", resp.Status, resp.ErrorMessage)
	}

	if len(resp.Results) == 0 {
		return nil, nil
	}

	elevation := resp.Results[0].Elevation
	return &elevation, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", redactURL(err, endpoint))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Debug("Google API returned error",
			zap.String("endpoint", endpoint),
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("google API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// redactURL убирает query (с ключом API) из текста *url.Error
func redactURL(err error, endpoint string) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		uerr.URL = endpoint
	}
	return err
}

func formatLatLon(lat, lon float64) string {
	return fmt.Sprintf("%f,%f", lat, lon)
}
