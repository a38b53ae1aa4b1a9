package main

// @title Site Assessment API
// @version 1.0.0
// @description Сервис оценки площадки: для центра и 8 точек на расстоянии 2 км собирает
// @description доступность больниц и транспорта, удалённость от дороги, высоту, плотность населения,
// @description сейсмическую зону, качество воздуха и индекс защищённости.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/site-assessment/docs"
	"github.com/site-assessment/internal/bootstrap"
	"github.com/site-assessment/internal/config"
	httpDelivery "github.com/site-assessment/internal/delivery/http"
	"github.com/site-assessment/internal/delivery/http/handler"
	"github.com/site-assessment/internal/pkg/logger"
	"github.com/site-assessment/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Site Assessment API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("db_enabled", cfg.Database.Enabled),
	)

	// 3. Dependencies
	initCtx, cancelInit := context.WithTimeout(context.Background(), time.Minute)
	app, err := bootstrap.New(initCtx, cfg, log, bootstrap.Options{
		Origin:      usecase.OriginHTTP,
		PublishDone: true,
	})
	cancelInit()
	if err != nil {
		log.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer app.Close()

	// 4. Handlers and server
	assessmentHandler := handler.NewAssessmentHandler(app.UseCase, cfg.Assessment.ResultsCSVPath, log)
	var checks []handler.DependencyCheck
	if app.Redis != nil {
		checks = append(checks, handler.DependencyCheck{Name: "redis", Ping: app.Redis.Health})
	}
	if app.DB != nil {
		checks = append(checks, handler.DependencyCheck{Name: "postgres", Ping: app.DB.Health})
	}
	healthHandler := handler.NewHealthHandler(app.UseCase, checks...)

	server := httpDelivery.NewServer(cfg, log, app.Metrics, assessmentHandler, healthHandler)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.Any("layers", app.UseCase.Layers()),
	)

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
