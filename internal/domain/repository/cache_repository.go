package repository

import (
	"context"
	"time"
)

// CacheRepository - байтовое хранилище ответов внешних API с TTL.
// Ключи строит вызывающая сторона (ячейка H3 + параметры запроса).
type CacheRepository interface {
	// Get возвращает nil без ошибки при промахе
	Get(ctx context.Context, key string) ([]byte, error)

	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
