package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/site-assessment/internal/domain/repository"
	"go.uber.org/zap"
)

// DefaultNamespace - префикс ключей кеша сервиса
const DefaultNamespace = "site"

type cacheRepository struct {
	client    *redis.Client
	namespace string
	logger    *zap.Logger
}

// NewCacheRepository создает кеш поверх Redis; все ключи получают префикс namespace
func NewCacheRepository(redis *Redis, namespace string) repository.CacheRepository {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &cacheRepository{
		client:    redis.Client(),
		namespace: namespace,
		logger:    redis.logger,
	}
}

func (r *cacheRepository) key(key string) string {
	return r.namespace + ":" + key
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Warn("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, r.key(key), value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}
