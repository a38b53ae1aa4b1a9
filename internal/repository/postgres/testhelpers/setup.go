package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// TestDB - подключение к тестовой базе
type TestDB struct {
	DB     *sqlx.DB
	Logger *zap.Logger
}

// SetupTestDB подключается к тестовой базе из TEST_DB_*.
// Если база или PostGIS недоступны, тест пропускается.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5433"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "site_assessment_test"),
		getEnv("TEST_DB_SSLMODE", "disable"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "pgx", connStr)
	if err != nil {
		t.Skipf("test database unavailable: %v", err)
	}

	var version string
	if err := db.GetContext(ctx, &version, "SELECT PostGIS_Version()"); err != nil {
		db.Close()
		t.Skipf("PostGIS not available: %v", err)
	}
	t.Logf("PostGIS version: %s", version)

	return &TestDB{
		DB:     db,
		Logger: zap.NewNop(),
	}
}

// Close закрывает соединение
func (tdb *TestDB) Close() {
	if tdb.DB != nil {
		tdb.DB.Close()
	}
}

// Cleanup очищает таблицы оценки
func (tdb *TestDB) Cleanup(ctx context.Context) error {
	_, err := tdb.DB.ExecContext(ctx, "TRUNCATE TABLE site_assessments")
	return err
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
