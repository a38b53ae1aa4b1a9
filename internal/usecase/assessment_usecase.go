package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/site-assessment/internal/config"
	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/domain/repository"
	"github.com/site-assessment/internal/pkg/errors"
	"github.com/site-assessment/internal/pkg/metrics"
	"github.com/site-assessment/internal/pkg/utils"
	"go.uber.org/zap"
)

// Источник запуска оценки (метка метрик)
const (
	OriginHTTP   = "http"
	OriginWorker = "worker"
	OriginCLI    = "cli"
)

// AssessmentSinks - необязательные получатели результатов; nil отключает приёмник
type AssessmentSinks struct {
	Exporters []repository.ResultExporter
	Store     repository.AssessmentRepository
	Streams   repository.StreamPublisher
}

type AssessmentUseCase struct {
	signals *SiteSignals
	cfg     config.AssessmentConfig
	sinks   AssessmentSinks
	origin  string
	metrics *metrics.Provider
	logger  *zap.Logger
	now     func() time.Time
}

func NewAssessmentUseCase(
	signals *SiteSignals,
	cfg config.AssessmentConfig,
	sinks AssessmentSinks,
	origin string,
	m *metrics.Provider,
	logger *zap.Logger,
) *AssessmentUseCase {
	return &AssessmentUseCase{
		signals: signals,
		cfg:     cfg,
		sinks:   sinks,
		origin:  origin,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Assess оценивает центр и 8 точек вокруг него. Ошибку возвращают проверка координат и отмена ctx;
// сбои источников и приёмников результатов заменяются значениями по умолчанию и логируются.
// Отменённая оценка никуда не сохраняется.
func (uc *AssessmentUseCase) Assess(ctx context.Context, center domain.Coordinate) (*domain.AssessmentRun, error) {
	if math.IsNaN(center.Lat) || math.IsNaN(center.Lon) || !utils.ValidateCoordinates(center.Lat, center.Lon) {
		return nil, errors.ErrInvalidCoordinates
	}

	start := time.Now()
	run := &domain.AssessmentRun{
		ID:        uuid.New(),
		Center:    domain.Coordinate{Lat: utils.Round(center.Lat, 4), Lon: utils.Round(center.Lon, 4)},
		CreatedAt: uc.now().UTC(),
	}

	points := utils.SamplePoints(center, uc.cfg.OffsetKm)
	run.Records = make([]domain.AssessmentRecord, 0, len(points))
	for _, pt := range points {
		run.Records = append(run.Records, uc.assessPoint(ctx, pt))
	}

	if err := ctx.Err(); err != nil {
		uc.logger.Warn("Assessment cancelled",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", errors.ErrAssessmentCancelled, err)
	}

	uc.metrics.ObserveAssessment(uc.origin, time.Since(start))
	uc.logger.Info("Assessment completed",
		zap.String("run_id", run.ID.String()),
		zap.Float64("lat", run.Center.Lat),
		zap.Float64("lon", run.Center.Lon),
		zap.Duration("duration", time.Since(start)),
	)

	uc.persist(ctx, run)

	return run, nil
}

// assessPoint опрашивает источники в фиксированном порядке
func (uc *AssessmentUseCase) assessPoint(ctx context.Context, pt domain.SamplePoint) domain.AssessmentRecord {
	c := pt.Coordinate

	hospitals := uc.signals.NearbyPlaceDistances(ctx, c, domain.PlaceTypeHospital, uc.cfg.HospitalRadiusM)
	transport := append(
		uc.signals.NearbyPlaceDistances(ctx, c, domain.PlaceTypeBusStation, uc.cfg.TransportRadiusM),
		uc.signals.NearbyPlaceDistances(ctx, c, domain.PlaceTypeTrainStation, uc.cfg.TransportRadiusM)...,
	)

	var road, elevation float64
	if d := uc.signals.NearestRoadDistance(ctx, c); d != nil {
		road = *d
	}
	if e := uc.signals.Elevation(ctx, c); e != nil {
		elevation = *e
	}

	population := uc.signals.PopulationDensity(c)
	seismic := uc.signals.SeismicZone(c)
	air := uc.signals.AirPollutionScore(ctx, c)
	protection := uc.signals.ProtectionScore(ctx, c, uc.cfg.ProtectionRadiusM)

	return domain.AssessmentRecord{
		ID:              pt.Index,
		Lat:             c.Lat,
		Lon:             c.Lon,
		TotalHospitalKm: utils.Round(sum(hospitals), 2),
		NearestRoadM:    utils.Round(road, 2),
		AvgTransportKm:  utils.Round(mean(transport), 2),
		ElevationM:      utils.Round(elevation, 2),
		PopDensity:      utils.Round(population, 2),
		ProtectionScore: protection,
		AirQuality:      air,
		SeismicZone:     seismic,
	}
}

// persist передаёт результат во все настроенные приёмники; ошибки только логируются
func (uc *AssessmentUseCase) persist(ctx context.Context, run *domain.AssessmentRun) {
	for _, exp := range uc.sinks.Exporters {
		if err := exp.Export(run.Records); err != nil {
			uc.logger.Error("Failed to export results",
				zap.String("format", exp.Name()),
				zap.String("run_id", run.ID.String()),
				zap.Error(err),
			)
			continue
		}
		uc.logger.Info("Analysis data saved", zap.String("format", exp.Name()))
	}

	if uc.sinks.Store != nil {
		if err := uc.sinks.Store.Save(ctx, run); err != nil {
			uc.logger.Error("Failed to store assessment run", zap.String("run_id", run.ID.String()), zap.Error(err))
		}
	}

	if uc.sinks.Streams != nil {
		event := domain.AssessmentDoneEvent{
			RequestID: run.ID,
			RunID:     &run.ID,
			Center:    &run.Center,
			Records:   run.Records,
		}
		if err := uc.sinks.Streams.PublishToStream(ctx, domain.StreamAssessmentDone, event); err != nil {
			uc.logger.Warn("Failed to publish assessment event", zap.String("run_id", run.ID.String()), zap.Error(err))
		}
	}
}

// GetRun возвращает сохранённый запуск
func (uc *AssessmentUseCase) GetRun(ctx context.Context, runID uuid.UUID) (*domain.AssessmentRun, error) {
	if uc.sinks.Store == nil {
		return nil, errors.ErrStoreDisabled
	}

	run, err := uc.sinks.Store.GetByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, errors.ErrAssessmentNotFound
	}
	return run, nil
}

// Layers - состояние статических слоёв
func (uc *AssessmentUseCase) Layers() map[string]bool {
	return uc.signals.Layers()
}

// StoreEnabled сообщает, подключено ли хранилище запусков
func (uc *AssessmentUseCase) StoreEnabled() bool {
	return uc.sinks.Store != nil
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return sum(values) / float64(len(values))
}
