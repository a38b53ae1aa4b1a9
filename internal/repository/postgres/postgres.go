package postgres

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/site-assessment/internal/config"
	"go.uber.org/zap"
)

// DB - пул соединений хранилища оценок
type DB struct {
	*sqlx.DB
	logger *zap.Logger
}

// New открывает пул через драйвер pgx и ждёт ответа БД не дольше ctx
func New(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.DBName, err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	logger.Info("PostgreSQL connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.DBName),
		zap.Int("max_conns", cfg.MaxConns),
	)

	return Wrap(db, logger), nil
}

// Wrap оборачивает готовое соединение (тесты, внешние пулы)
func Wrap(db *sqlx.DB, logger *zap.Logger) *DB {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DB{DB: db, logger: logger}
}

func (db *DB) Close() error {
	db.logger.Info("Closing PostgreSQL connection")
	return db.DB.Close()
}

// Health - проверка для /api/v1/health
func (db *DB) Health(ctx context.Context) error {
	return db.PingContext(ctx)
}
