package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/site-assessment/internal/config"
	"go.uber.org/zap"
)

// Redis - общее подключение для кеша ответов API и стримов оценок
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis подключается и проверяет соединение PING в пределах ctx
func NewRedis(ctx context.Context, cfg *config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis %s: %w", cfg.Addr(), err)
	}

	logger.Info("Redis connected", zap.String("addr", cfg.Addr()), zap.Int("db", cfg.DB))

	return WrapClient(client, logger), nil
}

// WrapClient оборачивает готовый клиент (тесты, miniredis)
func WrapClient(client *redis.Client, logger *zap.Logger) *Redis {
	return &Redis{client: client, logger: logger}
}

func (r *Redis) Close() error {
	r.logger.Info("Closing Redis connection")
	return r.client.Close()
}

// Health - проверка для /api/v1/health
func (r *Redis) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Client() *redis.Client {
	return r.client
}
