package repository

import (
	"context"
	"time"

	"github.com/site-assessment/internal/domain"
)

// StreamPublisher публикует события (JSON в поле data)
type StreamPublisher interface {
	PublishToStream(ctx context.Context, stream string, data interface{}) error
}

// StreamConsumer читает стрим в составе consumer group
type StreamConsumer interface {
	// CreateConsumerGroup создаёт группу и стрим; существующая группа не ошибка
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// ConsumeBatch читает до count новых сообщений, блокируясь не дольше таймаута чтения
	ConsumeBatch(ctx context.Context, stream, group, consumer string, count int) ([]domain.StreamMessage, error)

	// ClaimPending забирает на consumer сообщения группы, которые не подтверждены дольше minIdle,
	// начиная с id start. Возвращает курсор следующего вызова; "0-0" - просмотрены все.
	ClaimPending(ctx context.Context, stream, group, consumer, start string, minIdle time.Duration, count int) ([]domain.StreamMessage, string, error)

	AckMessage(ctx context.Context, stream, group, messageID string) error
}

// StreamRepository - Redis Streams целиком (воркер читает и публикует)
type StreamRepository interface {
	StreamPublisher
	StreamConsumer
}
