package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phgsc/field-service-management-sub000/internal/admin/domain"
	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
)

const entryColumns = `
	id, engineer_id, entry_type, title,
	starts_at, ends_at, created_by, created_at`

// SchedulePgRepository is the PostgreSQL implementation of the schedule
// entry store.
type SchedulePgRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewSchedulePgRepository creates the repository.
func NewSchedulePgRepository(pool *pgxpool.Pool, log *logger.Logger) *SchedulePgRepository {
	return &SchedulePgRepository{
		pool: pool,
		log:  log,
	}
}

// Create inserts the entry.
func (r *SchedulePgRepository) Create(ctx context.Context, entry *domain.ScheduleEntry) error {
	query := `
		INSERT INTO schedule_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		entry.ID,
		entry.EngineerID,
		entry.EntryType,
		entry.Title,
		entry.StartsAt,
		entry.EndsAt,
		entry.CreatedBy,
		entry.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return domain.ErrEngineerNotFound
		}
		r.log.Error(logger.Entry{
			Action:  "db_insert_entry_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return fmt.Errorf("insert schedule entry: %w", err)
	}
	return nil
}

// ListRange returns entries overlapping [from, to] for one engineer,
// earliest first.
func (r *SchedulePgRepository) ListRange(ctx context.Context, engineerID string, from, to time.Time) ([]*domain.ScheduleEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM schedule_entries
		WHERE engineer_id = $1 AND starts_at <= $3 AND ends_at >= $2
		ORDER BY starts_at
	`
	rows, err := r.pool.Query(ctx, query, engineerID, from, to)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_list_entries_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ScheduleEntry
	for rows.Next() {
		e := &domain.ScheduleEntry{}
		err := rows.Scan(
			&e.ID, &e.EngineerID, &e.EntryType, &e.Title,
			&e.StartsAt, &e.EndsAt, &e.CreatedBy, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan schedule entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate schedule entries: %w", err)
	}
	return entries, nil
}
