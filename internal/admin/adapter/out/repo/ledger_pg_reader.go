package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

// LedgerPgReader reads track points from the location ledger for travel
// reports.
type LedgerPgReader struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewLedgerPgReader creates the reader.
func NewLedgerPgReader(pool *pgxpool.Pool, log *logger.Logger) *LedgerPgReader {
	return &LedgerPgReader{
		pool: pool,
		log:  log,
	}
}

// ListRange returns the engineer's track points in [from, to), ordered by
// recorded time.
func (r *LedgerPgReader) ListRange(ctx context.Context, engineerID string, from, to time.Time) ([]domain.TrackPoint, error) {
	query := `
		SELECT latitude, longitude, recorded_at
		FROM location_samples
		WHERE engineer_id = $1 AND recorded_at >= $2 AND recorded_at < $3
		ORDER BY recorded_at
	`
	rows, err := r.pool.Query(ctx, query, engineerID, from, to)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_list_track_points_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("list track points: %w", err)
	}
	defer rows.Close()

	var points []domain.TrackPoint
	for rows.Next() {
		var p domain.TrackPoint
		if err := rows.Scan(&p.Latitude, &p.Longitude, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan track point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate track points: %w", err)
	}
	return points, nil
}
