package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Worker - фоновый обработчик стрима
type Worker interface {
	// Start блокируется до остановки воркера или отмены ctx
	Start(ctx context.Context) error

	// Stop сигнализирует воркеру завершиться; повторный вызов безопасен
	Stop() error

	Name() string
}

// BaseWorker - общая часть воркеров: имя, consumer group и сигнал остановки
type BaseWorker struct {
	name          string
	consumerGroup string
	logger        *zap.Logger
	stopChan      chan struct{}
	stopOnce      sync.Once
}

func NewBaseWorker(name, consumerGroup string, logger *zap.Logger) *BaseWorker {
	return &BaseWorker{
		name:          name,
		consumerGroup: consumerGroup,
		logger:        logger.With(zap.String("worker", name)),
		stopChan:      make(chan struct{}),
	}
}

func (w *BaseWorker) Name() string {
	return w.name
}

func (w *BaseWorker) Stop() error {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping worker")
		close(w.stopChan)
	})
	return nil
}

// IsStopped проверяет, был ли вызван Stop
func (w *BaseWorker) IsStopped() bool {
	select {
	case <-w.stopChan:
		return true
	default:
		return false
	}
}

// StopChan закрывается при вызове Stop
func (w *BaseWorker) StopChan() <-chan struct{} {
	return w.stopChan
}

func (w *BaseWorker) ConsumerGroup() string {
	return w.consumerGroup
}

func (w *BaseWorker) Logger() *zap.Logger {
	return w.logger
}
