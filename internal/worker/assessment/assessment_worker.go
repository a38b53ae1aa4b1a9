package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/domain/repository"
	apperrors "github.com/site-assessment/internal/pkg/errors"
	"github.com/site-assessment/internal/worker"
	"go.uber.org/zap"
)

const (
	maxBatchSize    = 4
	claimCursorDone = "0-0"
	emptyQueueSleep = 100 * time.Millisecond
	errorSleep      = time.Second
)

// Assessor - запуск оценки площадки
type Assessor interface {
	Assess(ctx context.Context, center domain.Coordinate) (*domain.AssessmentRun, error)
}

// AssessmentWorker обрабатывает запросы на оценку из stream:assessment:request
type AssessmentWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	assessor     Assessor
	consumerName string
	claimMinIdle time.Duration
	lastClaim    time.Time
}

// NewAssessmentWorker создает новый AssessmentWorker.
// claimMinIdle - через сколько неподтверждённое сообщение другого consumer забирается на повтор.
func NewAssessmentWorker(
	streamRepo repository.StreamRepository,
	assessor Assessor,
	consumerGroup string,
	claimMinIdle time.Duration,
	logger *zap.Logger,
) *AssessmentWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	return &AssessmentWorker{
		BaseWorker:   worker.NewBaseWorker("site-assessment", consumerGroup, logger),
		streamRepo:   streamRepo,
		assessor:     assessor,
		consumerName: consumerName,
		claimMinIdle: claimMinIdle,
	}
}

// Start запускает воркер
func (w *AssessmentWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting AssessmentWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("max_batch_size", maxBatchSize),
		zap.Duration("claim_min_idle", w.claimMinIdle))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamAssessmentRequest, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	w.reclaimPending(ctx)

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		default:
			if time.Since(w.lastClaim) >= w.claimMinIdle {
				w.reclaimPending(ctx)
			}

			processed, err := w.processBatch(ctx)
			if err != nil {
				logger.Error("Failed to process batch", zap.Error(err))
				w.pause(ctx, errorSleep)
				continue
			}

			if processed == 0 {
				w.pause(ctx, emptyQueueSleep)
			}
		}
	}
}

// pause ждёт d или остановки воркера
func (w *AssessmentWorker) pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-w.StopChan():
	case <-ctx.Done():
	}
}

// reclaimPending обрабатывает сообщения группы, оставшиеся без подтверждения
// (воркер упал или остановился посреди пачки)
func (w *AssessmentWorker) reclaimPending(ctx context.Context) {
	w.lastClaim = time.Now()
	start := claimCursorDone

	for {
		messages, next, err := w.streamRepo.ClaimPending(
			ctx,
			domain.StreamAssessmentRequest,
			w.ConsumerGroup(),
			w.consumerName,
			start,
			w.claimMinIdle,
			maxBatchSize,
		)
		if err != nil {
			w.Logger().Warn("Failed to claim pending messages", zap.Error(err))
			return
		}

		for _, msg := range messages {
			if w.IsStopped() || ctx.Err() != nil {
				return
			}
			w.handleMessage(ctx, msg)
		}

		if next == "" || next == claimCursorDone {
			return
		}
		start = next
	}
}

// processBatch читает и обрабатывает пачку сообщений; возвращает их количество
func (w *AssessmentWorker) processBatch(ctx context.Context) (int, error) {
	messages, err := w.streamRepo.ConsumeBatch(
		ctx,
		domain.StreamAssessmentRequest,
		w.ConsumerGroup(),
		w.consumerName,
		maxBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}

	for _, msg := range messages {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		w.handleMessage(ctx, msg)
	}

	return len(messages), nil
}

// handleMessage оценивает одно событие, публикует результат и подтверждает сообщение.
// Битые сообщения тоже подтверждаются.
func (w *AssessmentWorker) handleMessage(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger().With(zap.String("message_id", msg.ID))

	done := w.process(ctx, msg)
	if done.Error != "" {
		logger.Warn("Assessment request failed",
			zap.String("request_id", done.RequestID.String()),
			zap.String("error", done.Error))
	}

	if err := w.streamRepo.PublishToStream(ctx, domain.StreamAssessmentDone, done); err != nil {
		logger.Error("Failed to publish done event",
			zap.String("request_id", done.RequestID.String()),
			zap.Error(err))
	}

	if err := w.streamRepo.AckMessage(ctx, domain.StreamAssessmentRequest, w.ConsumerGroup(), msg.ID); err != nil {
		logger.Error("Failed to ack message", zap.Error(err))
	}
}

func (w *AssessmentWorker) process(ctx context.Context, msg domain.StreamMessage) domain.AssessmentDoneEvent {
	event, err := parseMessage(msg)
	if err != nil {
		return domain.AssessmentDoneEvent{RequestID: event.RequestID, Error: err.Error()}
	}

	run, err := w.assessor.Assess(ctx, domain.Coordinate{Lat: *event.Lat, Lon: *event.Lon})
	if err != nil {
		code := apperrors.CodeOf(err)
		if code == "" {
			code = err.Error()
		}
		return domain.AssessmentDoneEvent{RequestID: event.RequestID, Error: code}
	}

	return domain.AssessmentDoneEvent{
		RequestID: event.RequestID,
		RunID:     &run.ID,
		Center:    &run.Center,
		Records:   run.Records,
	}
}

// parseMessage разбирает JSON из поля data; RequestID заполняется, даже если координат нет
func parseMessage(msg domain.StreamMessage) (domain.AssessmentRequestEvent, error) {
	var event domain.AssessmentRequestEvent
	if msg.Data == "" {
		return event, errors.New("missing 'data' field")
	}
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Lat == nil || event.Lon == nil {
		return event, errors.New("lat and lon are required")
	}
	return event, nil
}
