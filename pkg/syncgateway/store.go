package syncgateway

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite-backed FIFO holding ops made while offline. WAL mode
// keeps enqueues cheap while the replay loop reads.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the queue database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open queue db: %w", err)
	}
	// one writer at a time keeps sqlite happy
	db.SetMaxOpenConns(1)

	schema := `
		CREATE TABLE IF NOT EXISTS ops (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			request_id TEXT NOT NULL UNIQUE,
			method     TEXT NOT NULL,
			path       TEXT NOT NULL,
			body       BLOB,
			queued_at  TIMESTAMP NOT NULL,
			attempts   INTEGER NOT NULL DEFAULT 0
		)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ops table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Enqueue appends the op and assigns its seq. A request id already in the
// queue is kept once; the duplicate is dropped.
func (s *Store) Enqueue(ctx context.Context, op *Op) error {
	if op.QueuedAt.IsZero() {
		op.QueuedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO ops (request_id, method, path, body, queued_at, attempts)
		VALUES (?, ?, ?, ?, ?, 0)`,
		op.RequestID, op.Method, op.Path, op.Body, op.QueuedAt,
	)
	if err != nil {
		return fmt.Errorf("enqueue op: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		if seq, err := res.LastInsertId(); err == nil {
			op.Seq = seq
		}
	}
	return nil
}

// NextBatch returns up to n ops in seq order.
func (s *Store) NextBatch(ctx context.Context, n int) ([]*Op, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, request_id, method, path, body, queued_at, attempts
		FROM ops
		ORDER BY seq
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	defer rows.Close()

	var ops []*Op
	for rows.Next() {
		op := &Op{}
		if err := rows.Scan(&op.Seq, &op.RequestID, &op.Method, &op.Path, &op.Body, &op.QueuedAt, &op.Attempts); err != nil {
			return nil, fmt.Errorf("scan op: %w", err)
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ops: %w", err)
	}
	return ops, nil
}

// Delete removes a delivered or rejected op.
func (s *Store) Delete(ctx context.Context, seq int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM ops WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("delete op: %w", err)
	}
	return nil
}

// MarkAttempt bumps the attempt counter after a failed delivery.
func (s *Store) MarkAttempt(ctx context.Context, seq int64) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE ops SET attempts = attempts + 1 WHERE seq = ?`, seq); err != nil {
		return fmt.Errorf("mark attempt: %w", err)
	}
	return nil
}

// Len reports how many ops are waiting.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM ops`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ops: %w", err)
	}
	return n, nil
}
