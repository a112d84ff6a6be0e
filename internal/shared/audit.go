package shared

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuthEvent represents a record stored in auth_events.
type AuthEvent struct {
	EventID    string
	UserID     int64
	Email      string
	Action     string
	IP         string
	OccurredAt time.Time
}

// AuditLogger writes records into auth_events.
type AuditLogger struct {
	pool *pgxpool.Pool
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool) *AuditLogger {
	return &AuditLogger{pool: pool}
}

// Record persists the event.
func (l *AuditLogger) Record(ctx context.Context, ev AuthEvent) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if ev.EventID == "" || ev.Action == "" {
		return errors.New("auth event requires event_id/action")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	_, err := l.pool.Exec(ctx,
		`INSERT INTO auth_events (event_id, user_id, email, action, ip, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (event_id) DO NOTHING`,
		ev.EventID, ev.UserID, ev.Email, ev.Action, ev.IP, ev.OccurredAt)
	return err
}

// Purge deletes events older than the retention window and reports the count.
func (l *AuditLogger) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	if l == nil || l.pool == nil {
		return 0, errors.New("audit logger not initialised")
	}
	tag, err := l.pool.Exec(ctx, `DELETE FROM auth_events WHERE occurred_at < NOW() - $1::interval`, retention.String())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
