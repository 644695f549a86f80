package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRecorder writes events to the audit_events table.
type PostgresRecorder struct {
	db *sqlx.DB
}

// NewPostgresRecorder wraps an open connection pool.
func NewPostgresRecorder(db *sqlx.DB) *PostgresRecorder {
	return &PostgresRecorder{db: db}
}

// Record inserts ev.
func (r *PostgresRecorder) Record(ctx context.Context, ev Event) error {
	const q = `INSERT INTO audit_events (kind, user_id, chat_id, subject, options)
VALUES ($1, $2, $3, $4, $5)`
	options := ev.Options
	if options == nil {
		options = []string{}
	}
	if _, err := r.db.ExecContext(ctx, q, string(ev.Kind), ev.UserID, ev.ChatID, ev.Subject, pq.Array(options)); err != nil {
		return fmt.Errorf("audit: insert %s: %w", ev.Kind, err)
	}
	return nil
}

// Row is a stored event as read back by operators.
type Row struct {
	ID        int64          `db:"id"`
	Kind      string         `db:"kind"`
	UserID    int64          `db:"user_id"`
	ChatID    int64          `db:"chat_id"`
	Subject   string         `db:"subject"`
	Options   pq.StringArray `db:"options"`
	CreatedAt time.Time      `db:"created_at"`
}

// Recent returns the latest events, newest first.
func (r *PostgresRecorder) Recent(ctx context.Context, limit int) ([]Row, error) {
	const q = `SELECT id, kind, user_id, chat_id, subject, options, created_at
FROM audit_events ORDER BY id DESC LIMIT $1`
	var rows []Row
	if err := r.db.SelectContext(ctx, &rows, q, limit); err != nil {
		return nil, fmt.Errorf("audit: recent: %w", err)
	}
	return rows, nil
}
