package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phgsc/field-service-management-sub000/internal/shared/logger"
	"github.com/phgsc/field-service-management-sub000/internal/visit/application/ports/out"
	"github.com/phgsc/field-service-management-sub000/internal/visit/domain"
)

const visitColumns = `
	id, job_id, engineer_id, status, started_at, ended_at,
	journey_started_at, journey_ended_at, journey_resumed_at, journey_total_minutes,
	service_started_at, service_ended_at, service_resumed_at, service_total_minutes,
	paused_from, blocked_since, block_reason, latitude, longitude,
	created_at, updated_at`

// VisitPgRepository is the PostgreSQL implementation of out.VisitRepository.
type VisitPgRepository struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewVisitPgRepository creates the repository.
func NewVisitPgRepository(pool *pgxpool.Pool, log *logger.Logger) *VisitPgRepository {
	return &VisitPgRepository{
		pool: pool,
		log:  log,
	}
}

// Create inserts the visit and its opening transition in one transaction.
// A per-engineer advisory lock serializes the active-visit check against
// concurrent start-journey calls; the partial unique index backstops it.
func (r *VisitPgRepository) Create(ctx context.Context, visit *domain.Visit, tr *domain.Transition) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, visit.EngineerID); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}

	busy, err := hasActiveVisit(ctx, tx, visit.EngineerID, "")
	if err != nil {
		return err
	}
	if busy {
		return &domain.ConflictError{Reason: "engineer already has an active visit"}
	}

	query := `
		INSERT INTO visits (` + visitColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	if _, err := tx.Exec(ctx, query, visitArgs(visit)...); err != nil {
		return r.mapWriteError(err, visit.ID, "db_create_visit_failed")
	}

	if err := insertTransition(ctx, tx, tr); err != nil {
		return r.mapWriteError(err, visit.ID, "db_record_transition_failed")
	}

	return tx.Commit(ctx)
}

// FindByID returns the visit with its collaborators.
func (r *VisitPgRepository) FindByID(ctx context.Context, visitID string) (*domain.Visit, error) {
	query := `SELECT ` + visitColumns + ` FROM visits WHERE id = $1`

	visit, err := scanVisit(r.pool.QueryRow(ctx, query, visitID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVisitNotFound
		}
		r.log.Error(logger.Entry{
			Action:  "db_find_visit_failed",
			Message: err.Error(),
			VisitID: visitID,
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("query visit by id: %w", err)
	}

	if err := r.attachCollaborators(ctx, []*domain.Visit{visit}); err != nil {
		return nil, err
	}
	return visit, nil
}

// FindByRequestID resolves a recorded idempotency key to its visit.
func (r *VisitPgRepository) FindByRequestID(ctx context.Context, requestID string) (*domain.Visit, error) {
	query := `
		SELECT ` + prefixedVisitColumns("v") + `
		FROM visits v
		JOIN visit_transitions t ON t.visit_id = v.id
		WHERE t.request_id = $1
	`

	visit, err := scanVisit(r.pool.QueryRow(ctx, query, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrVisitNotFound
		}
		return nil, fmt.Errorf("query visit by request id: %w", err)
	}

	if err := r.attachCollaborators(ctx, []*domain.Visit{visit}); err != nil {
		return nil, err
	}
	return visit, nil
}

// UpdateStatus writes the full record conditionally on the expected source
// status and records the transition in the same transaction. A transition
// landing in an active status re-runs the active-visit check under the
// owner's advisory lock: a resume or unblock must not put an engineer who
// collaborates elsewhere onto a second active visit, and the partial unique
// index only covers owned rows.
func (r *VisitPgRepository) UpdateStatus(ctx context.Context, visit *domain.Visit, from domain.Status, tr *domain.Transition) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if visit.Status.Active() {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, visit.EngineerID); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
		busy, err := hasActiveVisit(ctx, tx, visit.EngineerID, visit.ID)
		if err != nil {
			return err
		}
		if busy {
			return &domain.ConflictError{Reason: "engineer already has an active visit"}
		}
	}

	query := `
		UPDATE visits SET
			engineer_id = $2, status = $3, started_at = $4, ended_at = $5,
			journey_started_at = $6, journey_ended_at = $7, journey_resumed_at = $8, journey_total_minutes = $9,
			service_started_at = $10, service_ended_at = $11, service_resumed_at = $12, service_total_minutes = $13,
			paused_from = $14, blocked_since = $15, block_reason = $16,
			latitude = $17, longitude = $18, updated_at = $19
		WHERE id = $1 AND status = $20
	`
	tag, err := tx.Exec(ctx, query,
		visit.ID,
		visit.EngineerID,
		string(visit.Status),
		visit.StartedAt,
		visit.EndedAt,
		visit.Journey.StartedAt,
		visit.Journey.EndedAt,
		visit.Journey.ResumedAt,
		visit.Journey.TotalMinutes,
		visit.Service.StartedAt,
		visit.Service.EndedAt,
		visit.Service.ResumedAt,
		visit.Service.TotalMinutes,
		nullIfEmpty(string(visit.PausedFrom)),
		blockedSince(visit),
		blockReason(visit),
		nullIfEmpty(visit.Latitude),
		nullIfEmpty(visit.Longitude),
		visit.UpdatedAt,
		string(from),
	)
	if err != nil {
		return r.mapWriteError(err, visit.ID, "db_update_visit_failed")
	}

	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM visits WHERE id = $1)`, visit.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check visit exists: %w", err)
		}
		if !exists {
			return domain.ErrVisitNotFound
		}
		return out.ErrStaleStatus
	}

	if err := insertTransition(ctx, tx, tr); err != nil {
		return r.mapWriteError(err, visit.ID, "db_record_transition_failed")
	}

	return tx.Commit(ctx)
}

// UpdateEngineer persists a reassignment without touching the status.
// Retargeting an active visit re-runs the active-visit check under the new
// engineer's advisory lock, ignoring this visit so handing it to one of its
// own collaborators stays legal.
func (r *VisitPgRepository) UpdateEngineer(ctx context.Context, visit *domain.Visit, tr *domain.Transition) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if visit.Status.Active() {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, visit.EngineerID); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}
		busy, err := hasActiveVisit(ctx, tx, visit.EngineerID, visit.ID)
		if err != nil {
			return err
		}
		if busy {
			return &domain.ConflictError{Reason: "engineer already has an active visit"}
		}
	}

	tag, err := tx.Exec(ctx,
		`UPDATE visits SET engineer_id = $2, updated_at = $3 WHERE id = $1`,
		visit.ID, visit.EngineerID, visit.UpdatedAt)
	if err != nil {
		return r.mapWriteError(err, visit.ID, "db_reassign_visit_failed")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrVisitNotFound
	}

	if err := insertTransition(ctx, tx, tr); err != nil {
		return r.mapWriteError(err, visit.ID, "db_record_transition_failed")
	}

	return tx.Commit(ctx)
}

// AddCollaborator attaches an engineer inside a transaction holding the
// joining engineer's advisory lock, so the busy check and the insert cannot
// interleave with a concurrent start-journey.
func (r *VisitPgRepository) AddCollaborator(ctx context.Context, visitID string, c domain.Collaborator, tr *domain.Transition) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, c.EngineerID); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}

	busy, err := hasActiveVisit(ctx, tx, c.EngineerID, visitID)
	if err != nil {
		return err
	}
	if busy {
		return &domain.ConflictError{Reason: "engineer already has an active visit"}
	}

	query := `
		INSERT INTO visit_collaborators (visit_id, engineer_id, note, joined_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, query, visitID, c.EngineerID, c.Note, c.JoinedAt); err != nil {
		return r.mapWriteError(err, visitID, "db_add_collaborator_failed")
	}

	if err := insertTransition(ctx, tx, tr); err != nil {
		return r.mapWriteError(err, visitID, "db_record_transition_failed")
	}

	return tx.Commit(ctx)
}

// HasActiveVisit reports whether the engineer owns or collaborates on an
// active visit other than excludeVisitID.
func (r *VisitPgRepository) HasActiveVisit(ctx context.Context, engineerID, excludeVisitID string) (bool, error) {
	return hasActiveVisit(ctx, r.pool, engineerID, excludeVisitID)
}

// ListForEngineer returns the engineer's own visits plus collaborations.
func (r *VisitPgRepository) ListForEngineer(ctx context.Context, engineerID string) ([]*domain.Visit, error) {
	query := `
		SELECT DISTINCT ` + prefixedVisitColumns("v") + `
		FROM visits v
		LEFT JOIN visit_collaborators c ON c.visit_id = v.id
		WHERE v.engineer_id = $1 OR c.engineer_id = $1
		ORDER BY v.created_at DESC
	`
	return r.queryVisits(ctx, query, engineerID)
}

// ListAll returns every visit, optionally filtered to one engineer.
func (r *VisitPgRepository) ListAll(ctx context.Context, engineerID string) ([]*domain.Visit, error) {
	if engineerID != "" {
		query := `SELECT ` + visitColumns + ` FROM visits WHERE engineer_id = $1 ORDER BY created_at DESC`
		return r.queryVisits(ctx, query, engineerID)
	}
	query := `SELECT ` + visitColumns + ` FROM visits ORDER BY created_at DESC`
	return r.queryVisits(ctx, query)
}

func (r *VisitPgRepository) queryVisits(ctx context.Context, query string, args ...any) ([]*domain.Visit, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error(logger.Entry{
			Action:  "db_list_visits_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return nil, fmt.Errorf("query visits: %w", err)
	}
	defer rows.Close()

	var visits []*domain.Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visits: %w", err)
	}

	if err := r.attachCollaborators(ctx, visits); err != nil {
		return nil, err
	}
	return visits, nil
}

// attachCollaborators loads the collaborator sets for the given visits in
// one query.
func (r *VisitPgRepository) attachCollaborators(ctx context.Context, visits []*domain.Visit) error {
	if len(visits) == 0 {
		return nil
	}

	ids := make([]string, 0, len(visits))
	byID := make(map[string]*domain.Visit, len(visits))
	for _, v := range visits {
		ids = append(ids, v.ID)
		byID[v.ID] = v
	}

	query := `
		SELECT visit_id, engineer_id, note, joined_at
		FROM visit_collaborators
		WHERE visit_id = ANY($1::uuid[])
		ORDER BY joined_at
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("query collaborators: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			visitID string
			c       domain.Collaborator
		)
		if err := rows.Scan(&visitID, &c.EngineerID, &c.Note, &c.JoinedAt); err != nil {
			return fmt.Errorf("scan collaborator: %w", err)
		}
		if v, ok := byID[visitID]; ok {
			v.Collaborators = append(v.Collaborators, c)
		}
	}
	return rows.Err()
}

// mapWriteError translates constraint violations into domain outcomes.
func (r *VisitPgRepository) mapWriteError(err error, visitID, action string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" && pgErr.ConstraintName == "one_active_visit_per_engineer":
			return &domain.ConflictError{Reason: "engineer already has an active visit"}
		case pgErr.Code == "23505" && pgErr.ConstraintName == "visit_transitions_request_id_key":
			return out.ErrDuplicateRequest
		case pgErr.Code == "23505" && pgErr.ConstraintName == "visit_collaborators_pkey":
			return &domain.ConflictError{Reason: "engineer already collaborates on this visit"}
		case pgErr.Code == "23503" && pgErr.ConstraintName == "visit_collaborators_visit_id_fkey":
			return domain.ErrVisitNotFound
		case pgErr.Code == "23503":
			return domain.ErrEngineerNotFound
		}
	}
	r.log.Error(logger.Entry{
		Action:  action,
		Message: err.Error(),
		VisitID: visitID,
		Error:   &logger.ErrObj{Msg: err.Error()},
	})
	return fmt.Errorf("visit write: %w", err)
}

type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func hasActiveVisit(ctx context.Context, q pgxQuerier, engineerID, excludeVisitID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM visits v
			WHERE v.status IN ('ON_ROUTE', 'IN_SERVICE')
			  AND v.id::text <> $2
			  AND (v.engineer_id = $1 OR EXISTS (
				SELECT 1 FROM visit_collaborators c
				WHERE c.visit_id = v.id AND c.engineer_id = $1
			  ))
		)
	`
	var busy bool
	if err := q.QueryRow(ctx, query, engineerID, excludeVisitID).Scan(&busy); err != nil {
		return false, fmt.Errorf("check active visit: %w", err)
	}
	return busy, nil
}

func insertTransition(ctx context.Context, tx pgx.Tx, tr *domain.Transition) error {
	query := `
		INSERT INTO visit_transitions (
			visit_id, request_id, action, from_status, to_status,
			actor_id, new_engineer_id, detail, occurred_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.Exec(ctx, query,
		tr.VisitID,
		nullIfEmpty(tr.RequestID),
		tr.Action,
		string(tr.FromStatus),
		string(tr.ToStatus),
		tr.ActorID,
		nullIfEmpty(tr.NewEngineerID),
		nullIfEmpty(tr.Detail),
		tr.OccurredAt,
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisit(row rowScanner) (*domain.Visit, error) {
	v := &domain.Visit{}
	var (
		status                            string
		pausedFrom, blockReason, lat, lng *string
		since                             *time.Time
	)
	err := row.Scan(
		&v.ID, &v.JobID, &v.EngineerID, &status, &v.StartedAt, &v.EndedAt,
		&v.Journey.StartedAt, &v.Journey.EndedAt, &v.Journey.ResumedAt, &v.Journey.TotalMinutes,
		&v.Service.StartedAt, &v.Service.EndedAt, &v.Service.ResumedAt, &v.Service.TotalMinutes,
		&pausedFrom, &since, &blockReason, &lat, &lng,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Status = domain.Status(status)
	if pausedFrom != nil {
		v.PausedFrom = domain.Status(*pausedFrom)
	}
	if since != nil {
		reason := ""
		if blockReason != nil {
			reason = *blockReason
		}
		v.Block = &domain.BlockInfo{Reason: reason, Since: *since}
	}
	if lat != nil {
		v.Latitude = *lat
	}
	if lng != nil {
		v.Longitude = *lng
	}
	return v, nil
}

func visitArgs(v *domain.Visit) []any {
	return []any{
		v.ID,
		v.JobID,
		v.EngineerID,
		string(v.Status),
		v.StartedAt,
		v.EndedAt,
		v.Journey.StartedAt,
		v.Journey.EndedAt,
		v.Journey.ResumedAt,
		v.Journey.TotalMinutes,
		v.Service.StartedAt,
		v.Service.EndedAt,
		v.Service.ResumedAt,
		v.Service.TotalMinutes,
		nullIfEmpty(string(v.PausedFrom)),
		blockedSince(v),
		blockReason(v),
		nullIfEmpty(v.Latitude),
		nullIfEmpty(v.Longitude),
		v.CreatedAt,
		v.UpdatedAt,
	}
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func blockedSince(v *domain.Visit) *time.Time {
	if v.Block == nil {
		return nil
	}
	return &v.Block.Since
}

func blockReason(v *domain.Visit) *string {
	if v.Block == nil {
		return nil
	}
	return &v.Block.Reason
}

func prefixedVisitColumns(alias string) string {
	return `
	` + alias + `.id, ` + alias + `.job_id, ` + alias + `.engineer_id, ` + alias + `.status, ` + alias + `.started_at, ` + alias + `.ended_at,
	` + alias + `.journey_started_at, ` + alias + `.journey_ended_at, ` + alias + `.journey_resumed_at, ` + alias + `.journey_total_minutes,
	` + alias + `.service_started_at, ` + alias + `.service_ended_at, ` + alias + `.service_resumed_at, ` + alias + `.service_total_minutes,
	` + alias + `.paused_from, ` + alias + `.blocked_since, ` + alias + `.block_reason, ` + alias + `.latitude, ` + alias + `.longitude,
	` + alias + `.created_at, ` + alias + `.updated_at`
}
