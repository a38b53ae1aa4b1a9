package usecase_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/site-assessment/internal/domain"
)

// MockPlacesRepository is a mock of PlacesRepository
type MockPlacesRepository struct {
	mock.Mock
}

func (m *MockPlacesRepository) NearbySearch(ctx context.Context, lat, lon float64, placeType string, radiusM int) ([]domain.Place, error) {
	args := m.Called(ctx, lat, lon, placeType, radiusM)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Place), args.Error(1)
}

// MockRoadsRepository is a mock of RoadsRepository
type MockRoadsRepository struct {
	mock.Mock
}

func (m *MockRoadsRepository) NearestRoad(ctx context.Context, lat, lon float64) (*domain.SnappedPoint, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SnappedPoint), args.Error(1)
}

// MockElevationRepository is a mock of ElevationRepository
type MockElevationRepository struct {
	mock.Mock
}

func (m *MockElevationRepository) Elevation(ctx context.Context, lat, lon float64) (*float64, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

// MockAirQualityRepository is a mock of AirQualityRepository
type MockAirQualityRepository struct {
	mock.Mock
}

func (m *MockAirQualityRepository) LatestUSAQI(ctx context.Context, lat, lon float64) (*float64, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*float64), args.Error(1)
}

// MockPopulationLayer is a mock of PopulationLayer
type MockPopulationLayer struct {
	mock.Mock
}

func (m *MockPopulationLayer) Sample(lat, lon float64) (float64, bool, error) {
	args := m.Called(lat, lon)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

// MockSeismicLayer is a mock of SeismicLayer
type MockSeismicLayer struct {
	mock.Mock
}

func (m *MockSeismicLayer) ZoneAt(lat, lon float64) (string, bool) {
	args := m.Called(lat, lon)
	return args.String(0), args.Bool(1)
}

// MockResultExporter is a mock of ResultExporter
type MockResultExporter struct {
	mock.Mock
}

func (m *MockResultExporter) Name() string {
	return "mock"
}

func (m *MockResultExporter) Export(records []domain.AssessmentRecord) error {
	args := m.Called(records)
	return args.Error(0)
}

// MockAssessmentRepository is a mock of AssessmentRepository
type MockAssessmentRepository struct {
	mock.Mock
}

func (m *MockAssessmentRepository) Save(ctx context.Context, run *domain.AssessmentRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockAssessmentRepository) GetByRunID(ctx context.Context, runID uuid.UUID) (*domain.AssessmentRun, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssessmentRun), args.Error(1)
}

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, count int) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	args := m.Called(ctx, stream, group, messageID)
	return args.Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	args := m.Called(ctx, stream, group)
	return args.Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	args := m.Called(ctx, stream, data)
	return args.Error(0)
}

func floatPtr(v float64) *float64 {
	return &v
}
