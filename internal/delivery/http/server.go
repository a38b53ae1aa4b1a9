package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/site-assessment/internal/config"
	"github.com/site-assessment/internal/delivery/http/handler"
	"github.com/site-assessment/internal/delivery/http/middleware"
	"github.com/site-assessment/internal/pkg/metrics"
	"github.com/site-assessment/internal/pkg/utils"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"
)

// StaticDir - каталог с index.html
const StaticDir = "./static"

// Server - HTTP сервер на основе Fiber
type Server struct {
	app     *fiber.App
	config  *config.Config
	logger  *zap.Logger
	metrics *metrics.Provider

	// Handlers
	assessmentHandler *handler.AssessmentHandler
	healthHandler     *handler.HealthHandler
}

// NewServer - создание нового HTTP сервера
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	m *metrics.Provider,
	assessmentHandler *handler.AssessmentHandler,
	healthHandler *handler.HealthHandler,
) *Server {
	// Оценка делает до ~100 последовательных внешних запросов
	app := fiber.New(fiber.Config{
		AppName:      "Site Assessment Service",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:               app,
		config:            cfg,
		logger:            logger,
		metrics:           m,
		assessmentHandler: assessmentHandler,
		healthHandler:     healthHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	if s.metrics != nil && s.config.Metrics.Enabled {
		s.app.Get(s.config.Metrics.Path, adaptor.HTTPHandler(s.metrics.Handler()))
	}

	// Совместимый маршрут: массив записей в ответе
	s.app.Post("/analyze-location", s.assessmentHandler.AnalyzeLocation)

	api := s.app.Group("/api/v1")
	api.Get("/health", s.healthHandler.Health)

	api.Post("/assessments", s.assessmentHandler.CreateAssessment)
	api.Get("/assessments/latest/results.csv", s.assessmentHandler.DownloadResults)
	api.Get("/assessments/:id", s.assessmentHandler.GetAssessment)

	// Страница с формой (index.html)
	s.app.Static("/", StaticDir)
}

// App возвращает fiber-приложение (для тестов)
func (s *Server) App() *fiber.App {
	return s.app
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - ошибки, не обработанные в хендлерах (404, паники, прочее)
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		logger.Error("HTTP Error",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return utils.SendError(c, err)
	}
}
