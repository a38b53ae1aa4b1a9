package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/site-assessment/internal/bootstrap"
	"github.com/site-assessment/internal/config"
	"github.com/site-assessment/internal/pkg/logger"
	"github.com/site-assessment/internal/usecase"
	"github.com/site-assessment/internal/worker"
	"github.com/site-assessment/internal/worker/assessment"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "worker")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Site Assessment Worker",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Duration("stream_read_timeout", cfg.Worker.StreamReadTimeout))

	if !cfg.Redis.Enabled {
		log.Fatal("Worker requires Redis, set REDIS_ENABLED=true")
	}

	// 3. Dependencies; событие done публикует сам воркер
	initCtx, cancelInit := context.WithTimeout(context.Background(), time.Minute)
	app, err := bootstrap.New(initCtx, cfg, log, bootstrap.Options{Origin: usecase.OriginWorker})
	cancelInit()
	if err != nil {
		log.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer app.Close()

	// 4. Workers
	assessmentWorker := assessment.NewAssessmentWorker(
		app.Streams,
		app.UseCase,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.ClaimMinIdle,
		log,
	)

	workerManager := worker.NewWorkerManager(log, worker.DefaultShutdownTimeout)
	workerManager.Register(assessmentWorker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// текущие оценки дорабатывают с живым ctx
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}
	cancel()

	log.Info("Worker shutdown complete")
}
