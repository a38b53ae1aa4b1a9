package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/domain/repository"
	"go.uber.org/zap"
)

// defaultReadBlock - сколько XREADGROUP ждет новых сообщений
const defaultReadBlock = time.Second

type streamRepository struct {
	client    *redis.Client
	readBlock time.Duration
	logger    *zap.Logger
}

// NewStreamRepository создает новый экземпляр StreamRepository.
// readBlock ограничивает ожидание в ConsumeBatch; 0 - значение по умолчанию.
func NewStreamRepository(client *redis.Client, readBlock time.Duration, logger *zap.Logger) repository.StreamRepository {
	if readBlock <= 0 {
		readBlock = defaultReadBlock
	}
	return &streamRepository{
		client:    client,
		readBlock: readBlock,
		logger:    logger,
	}
}

// CreateConsumerGroup создаёт consumer group для стрима (MKSTREAM создаст стрим при необходимости).
// Группа читает стрим с начала: запросы, опубликованные до первого запуска воркера, не теряются.
func (r *streamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	err := r.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	if err != nil {
		if strings.HasPrefix(err.Error(), "BUSYGROUP") {
			r.logger.Debug("Consumer group already exists",
				zap.String("stream", stream),
				zap.String("group", group))
			return nil
		}
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	r.logger.Info("Consumer group created",
		zap.String("stream", stream),
		zap.String("group", group))
	return nil
}

// ConsumeBatch читает до count новых сообщений группы, ожидая не дольше readBlock.
// Пустой результат без ошибки означает, что сообщений нет.
func (r *streamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, count int) ([]domain.StreamMessage, error) {
	result, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, ">"},
		Count:    int64(count),
		Block:    r.readBlock,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read from stream %s: %w", stream, err)
	}

	var messages []domain.StreamMessage
	for _, s := range result {
		messages = append(messages, r.toMessages(stream, s.Messages)...)
	}

	return messages, nil
}

// ClaimPending переназначает consumer зависшие сообщения группы (XAUTOCLAIM)
func (r *streamRepository) ClaimPending(ctx context.Context, stream, group, consumer, start string, minIdle time.Duration, count int) ([]domain.StreamMessage, string, error) {
	msgs, next, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   stream,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    start,
		Count:    int64(count),
	}).Result()
	if err != nil {
		return nil, "", fmt.Errorf("failed to claim pending messages from %s: %w", stream, err)
	}

	if len(msgs) > 0 {
		r.logger.Info("Claimed pending messages",
			zap.String("stream", stream),
			zap.String("consumer", consumer),
			zap.Int("count", len(msgs)))
	}

	return r.toMessages(stream, msgs), next, nil
}

func (r *streamRepository) toMessages(stream string, msgs []redis.XMessage) []domain.StreamMessage {
	messages := make([]domain.StreamMessage, 0, len(msgs))
	for _, msg := range msgs {
		data, ok := msg.Values["data"].(string)
		if !ok {
			r.logger.Warn("Message does not contain 'data' field",
				zap.String("stream", stream),
				zap.String("message_id", msg.ID))
		}
		messages = append(messages, domain.StreamMessage{ID: msg.ID, Data: data})
	}
	return messages
}

// AckMessage подтверждает обработку сообщения
func (r *streamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	if err := r.client.XAck(ctx, stream, group, messageID).Err(); err != nil {
		return fmt.Errorf("failed to acknowledge message %s: %w", messageID, err)
	}

	r.logger.Debug("Message acknowledged", zap.String("message_id", messageID))
	return nil
}

// PublishToStream сериализует data в JSON и публикует в поле "data"
func (r *streamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{
			"data": string(jsonData),
		},
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}

	r.logger.Debug("Message published to stream",
		zap.String("stream", stream),
		zap.String("message_id", id))
	return nil
}
