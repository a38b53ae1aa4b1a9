package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownTimeout - сколько Stop ждёт завершения текущих оценок
const DefaultShutdownTimeout = 30 * time.Second

// WorkerManager запускает зарегистрированные воркеры и останавливает их с таймаутом
type WorkerManager struct {
	workers         []Worker
	shutdownTimeout time.Duration
	logger          *zap.Logger
	wg              sync.WaitGroup
	mu              sync.Mutex
	started         bool
}

// NewWorkerManager создает менеджер; timeout <= 0 означает DefaultShutdownTimeout
func NewWorkerManager(logger *zap.Logger, shutdownTimeout time.Duration) *WorkerManager {
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultShutdownTimeout
	}
	return &WorkerManager{
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

func (m *WorkerManager) Register(w Worker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.workers = append(m.workers, w)
	m.logger.Info("Worker registered", zap.String("name", w.Name()))
}

func (m *WorkerManager) snapshot() []Worker {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Worker(nil), m.workers...)
}

// Start запускает каждый воркер в своей горутине
func (m *WorkerManager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return errors.New("workers already started")
	}
	m.started = true
	m.mu.Unlock()

	workers := m.snapshot()
	if len(workers) == 0 {
		return errors.New("no workers registered")
	}

	m.logger.Info("Starting workers", zap.Int("count", len(workers)))

	for _, w := range workers {
		m.wg.Add(1)
		go func(w Worker) {
			defer m.wg.Done()

			err := w.Start(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				m.logger.Error("Worker failed", zap.String("name", w.Name()), zap.Error(err))
				return
			}
			m.logger.Info("Worker exited", zap.String("name", w.Name()))
		}(w)
	}

	return nil
}

// Stop сигнализирует всем воркерам и ждёт их не дольше shutdownTimeout
func (m *WorkerManager) Stop() error {
	workers := m.snapshot()
	m.logger.Info("Stopping workers", zap.Int("count", len(workers)))

	for _, w := range workers {
		if err := w.Stop(); err != nil {
			m.logger.Error("Failed to stop worker", zap.String("name", w.Name()), zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(m.shutdownTimeout)
	defer timer.Stop()

	select {
	case <-done:
		m.logger.Info("All workers stopped gracefully")
		return nil
	case <-timer.C:
		m.logger.Warn("Workers shutdown timed out", zap.Duration("timeout", m.shutdownTimeout))
		return fmt.Errorf("workers shutdown timed out after %v", m.shutdownTimeout)
	}
}
