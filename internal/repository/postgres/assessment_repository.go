package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/site-assessment/internal/domain"
	"github.com/site-assessment/internal/domain/repository"
	"github.com/site-assessment/internal/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"
)

const srid = 4326

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS site_assessments (
		run_id            UUID             NOT NULL,
		point_id          SMALLINT         NOT NULL,
		center_lat        DOUBLE PRECISION NOT NULL,
		center_lon        DOUBLE PRECISION NOT NULL,
		lat               DOUBLE PRECISION NOT NULL,
		lon               DOUBLE PRECISION NOT NULL,
		total_hospital_km DOUBLE PRECISION NOT NULL,
		nearest_road_m    DOUBLE PRECISION NOT NULL,
		avg_transport_km  DOUBLE PRECISION NOT NULL,
		elevation_m       DOUBLE PRECISION NOT NULL,
		pop_density       DOUBLE PRECISION NOT NULL,
		protection_score  INTEGER          NOT NULL,
		air_quality       INTEGER          NOT NULL,
		seismic_zone      TEXT             NOT NULL,
		geom              geometry(Point, 4326) NOT NULL,
		created_at        TIMESTAMPTZ      NOT NULL DEFAULT now(),
		PRIMARY KEY (run_id, point_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_site_assessments_geom ON site_assessments USING GIST (geom)`,
	`CREATE INDEX IF NOT EXISTS idx_site_assessments_created_at ON site_assessments (created_at DESC)`,
}

type assessmentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewAssessmentRepository создаёт хранилище результатов оценки
func NewAssessmentRepository(db *DB) repository.AssessmentRepository {
	return &assessmentRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

// EnsureSchema создаёт таблицу site_assessments и индексы, если их нет
func EnsureSchema(ctx context.Context, db *DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// encodePoint кодирует точку в EWKB с SRID 4326
func encodePoint(lat, lon float64) ([]byte, error) {
	pt := geom.NewPointFlat(geom.XY, []float64{lon, lat}).SetSRID(srid)
	data, err := ewkb.Marshal(pt, ewkb.NDR)
	if err != nil {
		return nil, fmt.Errorf("failed to encode point: %w", err)
	}
	return data, nil
}

func (r *assessmentRepository) Save(ctx context.Context, run *domain.AssessmentRun) error {
	query := `
		INSERT INTO site_assessments (
			run_id, point_id, center_lat, center_lon, lat, lon,
			total_hospital_km, nearest_road_m, avg_transport_km, elevation_m,
			pop_density, protection_score, air_quality, seismic_zone, geom, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			ST_GeomFromEWKB($15), $16
		)
		ON CONFLICT (run_id, point_id) DO NOTHING
	`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return errors.ErrDatabaseError
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		r.logger.Error("Failed to prepare insert", zap.Error(err))
		return errors.ErrDatabaseError
	}
	defer stmt.Close()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	for _, rec := range run.Records {
		point, err := encodePoint(rec.Lat, rec.Lon)
		if err != nil {
			return err
		}

		_, err = stmt.ExecContext(ctx,
			run.ID, rec.ID, run.Center.Lat, run.Center.Lon, rec.Lat, rec.Lon,
			rec.TotalHospitalKm, rec.NearestRoadM, rec.AvgTransportKm, rec.ElevationM,
			rec.PopDensity, rec.ProtectionScore, rec.AirQuality, rec.SeismicZone,
			point, createdAt,
		)
		if err != nil {
			r.logger.Error("Failed to insert assessment record",
				zap.String("run_id", run.ID.String()),
				zap.Int("point_id", rec.ID),
				zap.Error(err),
			)
			return errors.ErrDatabaseError
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit assessment run", zap.String("run_id", run.ID.String()), zap.Error(err))
		return errors.ErrDatabaseError
	}

	r.logger.Debug("Assessment run saved",
		zap.String("run_id", run.ID.String()),
		zap.Int("records", len(run.Records)),
	)
	return nil
}

type assessmentRow struct {
	RunID     uuid.UUID `db:"run_id"`
	CenterLat float64   `db:"center_lat"`
	CenterLon float64   `db:"center_lon"`
	CreatedAt time.Time `db:"created_at"`
	domain.AssessmentRecord
}

func (r *assessmentRepository) GetByRunID(ctx context.Context, runID uuid.UUID) (*domain.AssessmentRun, error) {
	query := `
		SELECT
			run_id, point_id, center_lat, center_lon, lat, lon,
			total_hospital_km, nearest_road_m, avg_transport_km, elevation_m,
			pop_density, protection_score, air_quality, seismic_zone, created_at
		FROM site_assessments
		WHERE run_id = $1
		ORDER BY point_id
	`

	var rows []assessmentRow
	if err := r.db.SelectContext(ctx, &rows, query, runID); err != nil {
		r.logger.Error("Failed to get assessment run", zap.String("run_id", runID.String()), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}
	if len(rows) == 0 {
		return nil, nil
	}

	run := &domain.AssessmentRun{
		ID:        rows[0].RunID,
		Center:    domain.Coordinate{Lat: rows[0].CenterLat, Lon: rows[0].CenterLon},
		CreatedAt: rows[0].CreatedAt,
		Records:   make([]domain.AssessmentRecord, 0, len(rows)),
	}
	for _, row := range rows {
		run.Records = append(run.Records, row.AssessmentRecord)
	}

	return run, nil
}
