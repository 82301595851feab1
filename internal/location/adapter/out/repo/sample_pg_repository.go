package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phgsc/field-service-management-sub000/internal/location/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

const sampleColumns = `
	id, engineer_id, latitude, longitude,
	accuracy_meters, speed_kmh, heading_degrees,
	recorded_at, received_at`

// SamplePgRepository is the PostgreSQL implementation of the location ledger.
type SamplePgRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewSamplePgRepository creates the repository.
func NewSamplePgRepository(pool *pgxpool.Pool, log *logger.Logger) *SamplePgRepository {
	return &SamplePgRepository{
		pool: pool,
		log:  log,
	}
}

// Insert appends the sample. Replayed ids from the offline queue hit the
// primary key and are dropped silently.
func (r *SamplePgRepository) Insert(ctx context.Context, s *domain.Sample) (bool, error) {
	query := `
		INSERT INTO location_samples (` + sampleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`
	tag, err := r.pool.Exec(ctx, query,
		s.ID,
		s.EngineerID,
		s.Latitude,
		s.Longitude,
		s.AccuracyMeters,
		s.SpeedKmh,
		s.HeadingDegrees,
		s.RecordedAt,
		s.ReceivedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return false, domain.ErrEngineerNotFound
		}
		r.log.Error(logger.Entry{
			Action:  "db_insert_sample_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return false, fmt.Errorf("insert sample: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindLatest returns the most recent sample by recorded time.
func (r *SamplePgRepository) FindLatest(ctx context.Context, engineerID string) (*domain.Sample, error) {
	query := `
		SELECT ` + sampleColumns + `
		FROM location_samples
		WHERE engineer_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1
	`
	s, err := scanSample(r.pool.QueryRow(ctx, query, engineerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSampleNotFound
		}
		return nil, fmt.Errorf("query latest sample: %w", err)
	}
	return s, nil
}

// ListRange returns samples recorded in [from, to], ascending.
func (r *SamplePgRepository) ListRange(ctx context.Context, engineerID string, from, to time.Time) ([]*domain.Sample, error) {
	query := `
		SELECT ` + sampleColumns + `
		FROM location_samples
		WHERE engineer_id = $1 AND recorded_at BETWEEN $2 AND $3
		ORDER BY recorded_at
	`
	rows, err := r.pool.Query(ctx, query, engineerID, from, to)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_list_samples_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []*domain.Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSample(row rowScanner) (*domain.Sample, error) {
	s := &domain.Sample{}
	err := row.Scan(
		&s.ID, &s.EngineerID, &s.Latitude, &s.Longitude,
		&s.AccuracyMeters, &s.SpeedKmh, &s.HeadingDegrees,
		&s.RecordedAt, &s.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}
