package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

// VisitPgReader reads visit aggregates for the dispatch screens straight
// from the visit tables. It never writes; the visit service owns mutations.
type VisitPgReader struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewVisitPgReader creates the reader.
func NewVisitPgReader(pool *pgxpool.Pool, log *logger.Logger) *VisitPgReader {
	return &VisitPgReader{
		pool: pool,
		log:  log,
	}
}

// CountByStatus returns the number of visits in each status.
func (r *VisitPgReader) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM visits GROUP BY status`)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_count_visits_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("count visits: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status counts: %w", err)
	}
	return counts, nil
}

// ListBlocked returns every blocked visit, oldest block first.
func (r *VisitPgReader) ListBlocked(ctx context.Context) ([]domain.BlockedVisit, error) {
	query := `
		SELECT id, job_id, engineer_id, COALESCE(block_reason, ''), blocked_since
		FROM visits
		WHERE status = 'BLOCKED' AND blocked_since IS NOT NULL
		ORDER BY blocked_since
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_list_blocked_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("list blocked visits: %w", err)
	}
	defer rows.Close()

	var blocked []domain.BlockedVisit
	for rows.Next() {
		var b domain.BlockedVisit
		if err := rows.Scan(&b.VisitID, &b.JobID, &b.EngineerID, &b.Reason, &b.Since); err != nil {
			return nil, fmt.Errorf("scan blocked visit: %w", err)
		}
		blocked = append(blocked, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocked visits: %w", err)
	}
	return blocked, nil
}

// ListVisitWindows returns the phase windows of started visits overlapping
// [from, to] for one engineer, earliest first.
func (r *VisitPgReader) ListVisitWindows(ctx context.Context, engineerID string, from, to time.Time) ([]domain.VisitWindows, error) {
	query := `
		SELECT id, job_id, engineer_id, status,
		       journey_started_at, journey_ended_at,
		       service_started_at, service_ended_at
		FROM visits
		WHERE engineer_id = $1
		  AND started_at IS NOT NULL
		  AND started_at <= $3
		  AND (ended_at IS NULL OR ended_at >= $2)
		ORDER BY started_at
	`
	rows, err := r.pool.Query(ctx, query, engineerID, from, to)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_list_visit_windows_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("list visit windows: %w", err)
	}
	defer rows.Close()

	var windows []domain.VisitWindows
	for rows.Next() {
		var w domain.VisitWindows
		err := rows.Scan(
			&w.VisitID, &w.JobID, &w.EngineerID, &w.Status,
			&w.JourneyStartedAt, &w.JourneyEndedAt,
			&w.ServiceStartedAt, &w.ServiceEndedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan visit window: %w", err)
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visit windows: %w", err)
	}
	return windows, nil
}
