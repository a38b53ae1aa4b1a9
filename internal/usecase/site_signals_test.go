package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/pkg/metrics"
	"github.com/site-assessment/internal/pkg/utils"
	"github.com/site-assessment/internal/usecase"
)

var center = domain.Coordinate{Lat: 12.9716, Lon: 77.5946}

func scrapeMetrics(m *metrics.Provider) string {
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}

func TestScoreAQI(t *testing.T) {
	tests := []struct {
		aqi  float64
		want int
	}{
		{0, 100},
		{50, 100},
		{50.5, 80},
		{100, 80},
		{150, 60},
		{200, 40},
		{300, 20},
		{301, 0},
		{500, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, usecase.ScoreAQI(tt.aqi), "aqi=%v", tt.aqi)
	}
}

func TestComputeProtectionScore(t *testing.T) {
	tests := []struct {
		name   string
		counts usecase.ProtectionCounts
		want   int
	}{
		{"nothing around", usecase.ProtectionCounts{}, 100},
		{"vegetation bonus is clamped to 100", usecase.ProtectionCounts{Parks: 20}, 100},
		{
			"mixed penalties",
			usecase.ProtectionCounts{Parks: 2, Roads: 10, Localities: 1, TrainStations: 1, BusStations: 3},
			53,
		},
		{
			"all penalties capped",
			usecase.ProtectionCounts{Roads: 20, Localities: 20, TrainStations: 20, BusStations: 20, Airports: 20},
			10,
		},
		{"veg index truncates", usecase.ProtectionCounts{Parks: 1, Localities: 5}, 74},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, usecase.ComputeProtectionScore(tt.counts))
		})
	}
}

func TestSiteSignals_AirPollutionScore(t *testing.T) {
	ctx := context.Background()

	t.Run("band from last value", func(t *testing.T) {
		air := &MockAirQualityRepository{}
		air.On("LatestUSAQI", ctx, center.Lat, center.Lon).Return(floatPtr(75), nil)

		s := usecase.NewSiteSignals(usecase.SignalSources{AirQuality: air}, nil, zap.NewNop())
		assert.Equal(t, 80, s.AirPollutionScore(ctx, center))
	})

	t.Run("null value", func(t *testing.T) {
		air := &MockAirQualityRepository{}
		air.On("LatestUSAQI", ctx, center.Lat, center.Lon).Return(nil, nil)

		s := usecase.NewSiteSignals(usecase.SignalSources{AirQuality: air}, nil, zap.NewNop())
		assert.Equal(t, 200, s.AirPollutionScore(ctx, center))
	})

	t.Run("service error", func(t *testing.T) {
		air := &MockAirQualityRepository{}
		air.On("LatestUSAQI", ctx, center.Lat, center.Lon).Return(nil, errors.New("timeout"))

		m := metrics.New("test")
		s := usecase.NewSiteSignals(usecase.SignalSources{AirQuality: air}, m, zap.NewNop())
		assert.Equal(t, 200, s.AirPollutionScore(ctx, center))
	})
}

func TestSiteSignals_ProtectionScore(t *testing.T) {
	ctx := context.Background()

	t.Run("counts every category", func(t *testing.T) {
		places := &MockPlacesRepository{}
		places.On("NearbySearch", ctx, center.Lat, center.Lon, domain.PlaceTypePark, 5000).
			Return(make([]domain.Place, 5), nil)
		places.On("NearbySearch", ctx, center.Lat, center.Lon, domain.PlaceTypeRoad, 5000).
			Return(make([]domain.Place, 2), nil)
		places.On("NearbySearch", ctx, center.Lat, center.Lon, domain.PlaceTypeLocality, 5000).
			Return(make([]domain.Place, 1), nil)
		places.On("NearbySearch", ctx, center.Lat, center.Lon, domain.PlaceTypeTrainStation, 5000).
			Return([]domain.Place{}, nil)
		places.On("NearbySearch", ctx, center.Lat, center.Lon, domain.PlaceTypeBusStation, 5000).
			Return(make([]domain.Place, 1), nil)
		places.On("NearbySearch", ctx, center.Lat, center.Lon, domain.PlaceTypeAirport, 5000).
			Return([]domain.Place{}, nil)

		s := usecase.NewSiteSignals(usecase.SignalSources{Places: places}, nil, zap.NewNop())

		// 100 - 10 - 10 - 5 + 20
		assert.Equal(t, 95, s.ProtectionScore(ctx, center, 5000))
		places.AssertNumberOfCalls(t, "NearbySearch", 6)
	})

	t.Run("any failure gives default", func(t *testing.T) {
		places := &MockPlacesRepository{}
		places.On("NearbySearch", ctx, center.Lat, center.Lon, domain.PlaceTypePark, 5000).
			Return([]domain.Place{}, nil)
		places.On("NearbySearch", ctx, center.Lat, center.Lon, domain.PlaceTypeRoad, 5000).
			Return([]domain.Place{}, nil)
		places.On("NearbySearch", ctx, center.Lat, center.Lon, domain.PlaceTypeLocality, 5000).
			Return(nil, errors.New("REQUEST_DENIED"))

		s := usecase.NewSiteSignals(usecase.SignalSources{Places: places}, nil, zap.NewNop())
		assert.Equal(t, 50, s.ProtectionScore(ctx, center, 5000))
		places.AssertNumberOfCalls(t, "NearbySearch", 3)
	})

	t.Run("no places source", func(t *testing.T) {
		s := usecase.NewSiteSignals(usecase.SignalSources{}, nil, zap.NewNop())
		assert.Equal(t, 50, s.ProtectionScore(ctx, center, 5000))
	})
}

func TestSiteSignals_NearbyPlaceDistances(t *testing.T) {
	ctx := context.Background()

	places := &MockPlacesRepository{}
	places.On("NearbySearch", ctx, center.Lat, center.Lon, domain.PlaceTypeHospital, 5000).
		Return([]domain.Place{{Lat: 12.9816, Lon: 77.5946}, {Lat: center.Lat, Lon: center.Lon}}, nil)
	places.On("NearbySearch", ctx, center.Lat, center.Lon, domain.PlaceTypePark, 5000).
		Return(nil, errors.New("boom"))

	s := usecase.NewSiteSignals(usecase.SignalSources{Places: places}, nil, zap.NewNop())

	dists := s.NearbyPlaceDistances(ctx, center, domain.PlaceTypeHospital, 5000)
	assert.Len(t, dists, 2)
	assert.InDelta(t, utils.HaversineDistance(center.Lat, center.Lon, 12.9816, 77.5946), dists[0], 1e-9)
	assert.Equal(t, 0.0, dists[1])

	failed := s.NearbyPlaceDistances(ctx, center, domain.PlaceTypePark, 5000)
	assert.NotNil(t, failed)
	assert.Empty(t, failed)
}

func TestSiteSignals_NearestRoadDistance(t *testing.T) {
	ctx := context.Background()

	roads := &MockRoadsRepository{}
	roads.On("NearestRoad", ctx, center.Lat, center.Lon).
		Return(&domain.SnappedPoint{Lat: 12.9717, Lon: 77.5946}, nil).Once()
	roads.On("NearestRoad", ctx, center.Lat, center.Lon).Return(nil, nil).Once()
	roads.On("NearestRoad", ctx, center.Lat, center.Lon).Return(nil, errors.New("denied")).Once()

	s := usecase.NewSiteSignals(usecase.SignalSources{Roads: roads}, nil, zap.NewNop())

	d := s.NearestRoadDistance(ctx, center)
	if assert.NotNil(t, d) {
		assert.InDelta(t, 11.12, *d, 0.01)
	}
	assert.Nil(t, s.NearestRoadDistance(ctx, center))
	assert.Nil(t, s.NearestRoadDistance(ctx, center))
	roads.AssertExpectations(t)
}

func TestSiteSignals_Elevation(t *testing.T) {
	ctx := context.Background()

	elev := &MockElevationRepository{}
	elev.On("Elevation", ctx, center.Lat, center.Lon).Return(floatPtr(920.4), nil).Once()
	elev.On("Elevation", ctx, center.Lat, center.Lon).Return(nil, errors.New("denied")).Once()

	s := usecase.NewSiteSignals(usecase.SignalSources{Elevation: elev}, nil, zap.NewNop())

	e := s.Elevation(ctx, center)
	if assert.NotNil(t, e) {
		assert.Equal(t, 920.4, *e)
	}
	assert.Nil(t, s.Elevation(ctx, center))
}

func TestSiteSignals_PopulationDensity(t *testing.T) {
	layer := &MockPopulationLayer{}
	layer.On("Sample", 1.0, 1.0).Return(1234.5, true, nil)
	layer.On("Sample", 2.0, 2.0).Return(-9999.0, true, nil)
	layer.On("Sample", 3.0, 3.0).Return(0.0, false, nil)
	layer.On("Sample", 4.0, 4.0).Return(0.0, false, errors.New("corrupt block"))

	m := metrics.New("test")
	s := usecase.NewSiteSignals(usecase.SignalSources{Population: layer}, m, zap.NewNop())

	assert.Equal(t, 1234.5, s.PopulationDensity(domain.Coordinate{Lat: 1, Lon: 1}))
	assert.Equal(t, 0.0, s.PopulationDensity(domain.Coordinate{Lat: 2, Lon: 2}))
	assert.Equal(t, 0.0, s.PopulationDensity(domain.Coordinate{Lat: 3, Lon: 3}))
	assert.Equal(t, 0.0, s.PopulationDensity(domain.Coordinate{Lat: 4, Lon: 4}))

	exposition := scrapeMetrics(m)
	assert.Contains(t, exposition, `site_external_calls_total{outcome="ok",service="test",source="population_raster"} 3`)
	assert.Contains(t, exposition, `site_external_calls_total{outcome="error",service="test",source="population_raster"} 1`)

	absent := usecase.NewSiteSignals(usecase.SignalSources{}, nil, zap.NewNop())
	assert.Equal(t, 0.0, absent.PopulationDensity(center))
}

func TestSiteSignals_SeismicZone(t *testing.T) {
	layer := &MockSeismicLayer{}
	layer.On("ZoneAt", 1.0, 1.0).Return("Zone III", true)
	layer.On("ZoneAt", 2.0, 2.0).Return("", false)
	layer.On("ZoneAt", 3.0, 3.0).Return("", true)

	s := usecase.NewSiteSignals(usecase.SignalSources{Seismic: layer}, nil, zap.NewNop())

	assert.Equal(t, "Zone III", s.SeismicZone(domain.Coordinate{Lat: 1, Lon: 1}))
	assert.Equal(t, "Unknown", s.SeismicZone(domain.Coordinate{Lat: 2, Lon: 2}))
	assert.Equal(t, "Unknown", s.SeismicZone(domain.Coordinate{Lat: 3, Lon: 3}))

	absent := usecase.NewSiteSignals(usecase.SignalSources{}, nil, zap.NewNop())
	assert.Equal(t, "Unknown", absent.SeismicZone(center))
	assert.Equal(t, map[string]bool{"population": false, "seismic": false}, absent.Layers())
}
