// Package bootstrap собирает зависимости оценки из конфигурации: клиенты API,
// статические слои, кеш, хранилище и приёмники результатов. Используется api, worker и cli.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/site-assessment/internal/config"
	"github.com/site-assessment/internal/domain/repository"
	"github.com/site-assessment/internal/geodata"
	"github.com/site-assessment/internal/infrastructure/google"
	"github.com/site-assessment/internal/infrastructure/openmeteo"
	"github.com/site-assessment/internal/pkg/metrics"
	"github.com/site-assessment/internal/repository/cache"
	"github.com/site-assessment/internal/repository/export"
	"github.com/site-assessment/internal/repository/postgres"
	redisRepo "github.com/site-assessment/internal/repository/redis"
	"github.com/site-assessment/internal/usecase"
	"go.uber.org/zap"
)

// MetricsService - значение метки service
const MetricsService = "site-assessment"

// Options - что подключать помимо обязательных источников
type Options struct {
	// Origin - метка источника запусков (http, worker, cli)
	Origin string
	// PublishDone публикует AssessmentDoneEvent после каждого запуска
	PublishDone bool
	// ExtraExporters добавляются к экспортам из конфигурации
	ExtraExporters []repository.ResultExporter
	// SkipConfiguredExporters отключает файловые экспорты из конфигурации
	SkipConfiguredExporters bool
}

// App - собранные зависимости
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Provider
	Redis      *cache.Redis
	DB         *postgres.DB
	Streams    repository.StreamRepository
	Population *geodata.Raster
	Seismic    *geodata.SeismicLayer
	UseCase    *usecase.AssessmentUseCase

	closers []func() error
}

// New подключает внешние зависимости. Ошибка возвращается, только если включённые
// в конфигурации Redis или PostgreSQL недоступны; отсутствие слоёв лишь логируется.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts Options) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  log,
		Metrics: metrics.New(MetricsService),
	}

	if err := app.connect(ctx); err != nil {
		app.Close()
		return nil, err
	}

	app.loadLayers()
	app.UseCase = app.buildUseCase(opts)

	return app, nil
}

func (a *App) connect(ctx context.Context) error {
	if a.Config.Redis.Enabled {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		r, err := cache.NewRedis(pingCtx, &a.Config.Redis, a.Logger)
		cancel()
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		a.Redis = r
		a.closers = append(a.closers, r.Close)
		a.Streams = redisRepo.NewStreamRepository(r.Client(), a.Config.Worker.StreamReadTimeout, a.Logger)
	}

	if a.Config.Database.Enabled {
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		db, err := postgres.New(connectCtx, &a.Config.Database, a.Logger)
		cancel()
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)

		schemaCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := postgres.EnsureSchema(schemaCtx, db); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}

	return nil
}

func (a *App) loadLayers() {
	geo := a.Config.GeoData

	population, err := geodata.LoadPopulationLayer(geo.PopulationTIFF, geo.RasterBlockCache, a.Logger)
	if err != nil {
		a.Logger.Error("Population raster unavailable", zap.String("path", geo.PopulationTIFF), zap.Error(err))
	} else {
		a.Population = population
		a.closers = append(a.closers, population.Close)
	}

	seismic, err := geodata.LoadSeismicLayer(geo.SeismicZip, geo.SeismicDir, geo.SeismicZoneField, a.Logger)
	if err != nil {
		a.Logger.Error("Seismic layer unavailable", zap.String("zip", geo.SeismicZip), zap.Error(err))
	} else {
		a.Seismic = seismic
	}
}

func (a *App) buildUseCase(opts Options) *usecase.AssessmentUseCase {
	googleClient := google.NewClient(&a.Config.Google, a.Logger)
	if a.Config.Google.APIKey == "" {
		a.Logger.Warn("GOOGLE_API_KEY is not set, Google lookups will fall back to defaults")
	}

	src := usecase.SignalSources{
		Places:     googleClient,
		Roads:      googleClient,
		Elevation:  googleClient,
		AirQuality: openmeteo.NewClient(&a.Config.AirQuality, a.Logger),
	}

	if a.Redis != nil {
		cacheRepo := cache.NewCacheRepository(a.Redis, cache.DefaultNamespace)
		src.Places = cache.NewPlacesCache(googleClient, cacheRepo, a.Config.Cache.TTL, a.Config.Cache.H3Resolution, a.Metrics, a.Logger)
		src.Elevation = cache.NewElevationCache(googleClient, cacheRepo, a.Config.Cache.TTL, a.Config.Cache.H3Resolution, a.Metrics, a.Logger)
	}

	// только загруженные слои: nil-указатель в интерфейсе не равен nil
	if a.Population != nil {
		src.Population = a.Population
	}
	if a.Seismic != nil {
		src.Seismic = a.Seismic
	}

	sinks := usecase.AssessmentSinks{}
	if !opts.SkipConfiguredExporters {
		if path := a.Config.Assessment.ResultsCSVPath; path != "" {
			sinks.Exporters = append(sinks.Exporters, export.NewCSVExporter(path))
		}
		if path := a.Config.Assessment.ResultsXLSXPath; path != "" {
			sinks.Exporters = append(sinks.Exporters, export.NewXLSXExporter(path))
		}
		if path := a.Config.Assessment.ResultsGeoJSON; path != "" {
			sinks.Exporters = append(sinks.Exporters, export.NewGeoJSONExporter(path))
		}
	}
	sinks.Exporters = append(sinks.Exporters, opts.ExtraExporters...)

	if a.DB != nil {
		sinks.Store = postgres.NewAssessmentRepository(a.DB)
	}
	if opts.PublishDone && a.Streams != nil {
		sinks.Streams = a.Streams
	}

	signals := usecase.NewSiteSignals(src, a.Metrics, a.Logger)
	return usecase.NewAssessmentUseCase(signals, a.Config.Assessment, sinks, opts.Origin, a.Metrics, a.Logger)
}

// Close освобождает ресурсы в обратном порядке
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Error("Failed to close resource", zap.Error(err))
		}
	}
	a.closers = nil
}
