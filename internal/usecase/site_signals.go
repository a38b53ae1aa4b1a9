package usecase

import (
	"context"

	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/domain/repository"
	"github.com/site-assessment/internal/pkg/metrics"
	"github.com/site-assessment/internal/pkg/utils"
	"go.uber.org/zap"
)

// Источники внешних вызовов для метрик
const (
	SourcePlaces     = "google_places"
	SourceRoads      = "google_roads"
	SourceElevation  = "google_elevation"
	SourceAirQuality = "open_meteo"
	SourcePopulation = "population_raster"
)

// Сигналы, для которых считаются подстановки значений по умолчанию
const (
	SignalRoad       = "road"
	SignalElevation  = "elevation"
	SignalPopulation = "population"
	SignalSeismic    = "seismic"
	SignalAirQuality = "air_quality"
	SignalProtection = "protection"
)

// SignalSources - источники данных для SiteSignals; слои могут отсутствовать
type SignalSources struct {
	Places     repository.PlacesRepository
	Roads      repository.RoadsRepository
	Elevation  repository.ElevationRepository
	AirQuality repository.AirQualityRepository
	Population repository.PopulationLayer
	Seismic    repository.SeismicLayer
}

// SiteSignals получает показатели точки. Ни один метод не возвращает ошибку:
// при сбое источника подставляется значение по умолчанию.
type SiteSignals struct {
	src     SignalSources
	metrics *metrics.Provider
	logger  *zap.Logger
}

func NewSiteSignals(src SignalSources, m *metrics.Provider, logger *zap.Logger) *SiteSignals {
	return &SiteSignals{
		src:     src,
		metrics: m,
		logger:  logger,
	}
}

// Layers сообщает, какие статические слои загружены
func (s *SiteSignals) Layers() map[string]bool {
	return map[string]bool{
		"population": s.src.Population != nil,
		"seismic":    s.src.Seismic != nil,
	}
}

func (s *SiteSignals) fallback(signal string, pt domain.Coordinate, err error) {
	s.metrics.IncFallback(signal)
	if err != nil {
		s.logger.Warn("Signal unavailable, using default",
			zap.String("signal", signal),
			zap.Float64("lat", pt.Lat),
			zap.Float64("lon", pt.Lon),
			zap.Error(err),
		)
	}
}

func (s *SiteSignals) nearby(ctx context.Context, pt domain.Coordinate, placeType string, radiusM int) ([]domain.Place, error) {
	if s.src.Places == nil {
		return nil, errSourceMissing
	}
	places, err := s.src.Places.NearbySearch(ctx, pt.Lat, pt.Lon, placeType, radiusM)
	s.metrics.ObserveExternalCall(SourcePlaces, err)
	return places, err
}

// NearbyPlaceDistances возвращает расстояния (км) до объектов типа placeType в радиусе radiusM.
// При ошибке - пустой список.
func (s *SiteSignals) NearbyPlaceDistances(ctx context.Context, pt domain.Coordinate, placeType string, radiusM int) []float64 {
	places, err := s.nearby(ctx, pt, placeType, radiusM)
	if err != nil {
		s.fallback(placeType, pt, err)
		return []float64{}
	}

	dists := make([]float64, 0, len(places))
	for _, p := range places {
		dists = append(dists, utils.HaversineDistance(pt.Lat, pt.Lon, p.Lat, p.Lon))
	}
	return dists
}

// NearestRoadDistance возвращает расстояние (м) до ближайшей дороги; nil, если данных нет
func (s *SiteSignals) NearestRoadDistance(ctx context.Context, pt domain.Coordinate) *float64 {
	if s.src.Roads == nil {
		s.fallback(SignalRoad, pt, errSourceMissing)
		return nil
	}

	snapped, err := s.src.Roads.NearestRoad(ctx, pt.Lat, pt.Lon)
	s.metrics.ObserveExternalCall(SourceRoads, err)
	if err != nil || snapped == nil {
		s.fallback(SignalRoad, pt, err)
		return nil
	}

	meters := utils.HaversineDistance(pt.Lat, pt.Lon, snapped.Lat, snapped.Lon) * 1000
	return &meters
}

// Elevation возвращает высоту (м); nil, если данных нет
func (s *SiteSignals) Elevation(ctx context.Context, pt domain.Coordinate) *float64 {
	if s.src.Elevation == nil {
		s.fallback(SignalElevation, pt, errSourceMissing)
		return nil
	}

	elevation, err := s.src.Elevation.Elevation(ctx, pt.Lat, pt.Lon)
	s.metrics.ObserveExternalCall(SourceElevation, err)
	if err != nil || elevation == nil {
		s.fallback(SignalElevation, pt, err)
		return nil
	}
	return elevation
}

// PopulationDensity возвращает значение растра; 0 вне охвата, для nodata и неположительных значений
func (s *SiteSignals) PopulationDensity(pt domain.Coordinate) float64 {
	if s.src.Population == nil {
		s.fallback(SignalPopulation, pt, nil)
		return 0
	}

	value, ok, err := s.src.Population.Sample(pt.Lat, pt.Lon)
	s.metrics.ObserveExternalCall(SourcePopulation, err)
	if err != nil {
		s.fallback(SignalPopulation, pt, err)
		return 0
	}
	if !ok || value <= 0 {
		return 0
	}
	return value
}

// SeismicZone возвращает метку сейсмической зоны или "Unknown"
func (s *SiteSignals) SeismicZone(pt domain.Coordinate) string {
	if s.src.Seismic == nil {
		s.fallback(SignalSeismic, pt, nil)
		return domain.UnknownSeismicZone
	}

	zone, ok := s.src.Seismic.ZoneAt(pt.Lat, pt.Lon)
	if !ok || zone == "" {
		return domain.UnknownSeismicZone
	}
	return zone
}

// AirPollutionScore переводит последний почасовой US AQI в балл; 200 при отсутствии данных
func (s *SiteSignals) AirPollutionScore(ctx context.Context, pt domain.Coordinate) int {
	if s.src.AirQuality == nil {
		s.fallback(SignalAirQuality, pt, errSourceMissing)
		return domain.DefaultAirQualityScore
	}

	aqi, err := s.src.AirQuality.LatestUSAQI(ctx, pt.Lat, pt.Lon)
	s.metrics.ObserveExternalCall(SourceAirQuality, err)
	if err != nil || aqi == nil {
		s.fallback(SignalAirQuality, pt, err)
		return domain.DefaultAirQualityScore
	}
	return ScoreAQI(*aqi)
}

// ScoreAQI - шкала баллов по US AQI
func ScoreAQI(aqi float64) int {
	switch {
	case aqi <= 50:
		return 100
	case aqi <= 100:
		return 80
	case aqi <= 150:
		return 60
	case aqi <= 200:
		return 40
	case aqi <= 300:
		return 20
	default:
		return 0
	}
}

// ProtectionCounts - число объектов каждого типа вокруг точки
type ProtectionCounts struct {
	Parks, Roads, Localities, TrainStations, BusStations, Airports int
}

// ProtectionScore считает балл защищённости по шести поискам мест; 50 при любом сбое
func (s *SiteSignals) ProtectionScore(ctx context.Context, pt domain.Coordinate, radiusM int) int {
	count := func(placeType string) (int, error) {
		places, err := s.nearby(ctx, pt, placeType, radiusM)
		return len(places), err
	}

	var (
		c   ProtectionCounts
		err error
	)
	targets := []struct {
		placeType string
		dst       *int
	}{
		{domain.PlaceTypePark, &c.Parks},
		{domain.PlaceTypeRoad, &c.Roads},
		{domain.PlaceTypeLocality, &c.Localities},
		{domain.PlaceTypeTrainStation, &c.TrainStations},
		{domain.PlaceTypeBusStation, &c.BusStations},
		{domain.PlaceTypeAirport, &c.Airports},
	}
	for _, t := range targets {
		if *t.dst, err = count(t.placeType); err != nil {
			s.fallback(SignalProtection, pt, err)
			return domain.DefaultProtectionScore
		}
	}

	return ComputeProtectionScore(c)
}

// ComputeProtectionScore: 100 минус штрафы за дороги, застройку и транспорт плюс бонус за парки, в пределах 0..100
func ComputeProtectionScore(c ProtectionCounts) int {
	veg := float64(c.Parks) / 5
	if veg > 1 {
		veg = 1
	}

	score := 100
	score -= min(c.Roads*5, 30)
	score -= min(c.Localities*10, 30)
	score -= min(c.TrainStations*5, 10)
	score -= min(c.BusStations*5, 10)
	score -= min(c.Airports*5, 10)
	score += int(veg * 20)

	return max(0, min(100, score))
}
