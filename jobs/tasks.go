// Package jobs contains the asynq task definitions and the worker that
// processes them: asynchronous auth event persistence and audit retention.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/gatekit/authgate/internal/shared"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuthEvent is the task type for recording auth events.
	TaskTypeAuthEvent = "auth:event"
	// TaskTypeAuditPurge is the task type for audit retention cleanup.
	TaskTypeAuditPurge = "audit:purge"
)

// AuthEventPayload mirrors shared.AuthEvent on the wire.
type AuthEventPayload struct {
	EventID    string    `json:"event_id"`
	UserID     int64     `json:"user_id"`
	Email      string    `json:"email"`
	Action     string    `json:"action"`
	IP         string    `json:"ip"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewAuthEventTask constructs an asynq task from the payload.
func NewAuthEventTask(payload AuthEventPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuthEvent, data, asynq.Queue(QueueDefault)), nil
}

// NewAuditPurgeTask constructs the retention cleanup task.
func NewAuditPurgeTask() *asynq.Task {
	return asynq.NewTask(TaskTypeAuditPurge, nil, asynq.Queue(QueueDefault))
}

// EventSink persists auth events; shared.AuditLogger satisfies it.
type EventSink interface {
	Record(ctx context.Context, ev shared.AuthEvent) error
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

// Handlers processes the gateway's background tasks.
type Handlers struct {
	sink      EventSink
	retention time.Duration
	logger    *slog.Logger
}

// NewHandlers constructs task handlers around the event sink.
func NewHandlers(sink EventSink, retention time.Duration, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	return &Handlers{sink: sink, retention: retention, logger: logger}
}

// HandleAuthEvent persists one auth event. A malformed payload is
// dropped rather than retried.
func (h *Handlers) HandleAuthEvent(ctx context.Context, t *asynq.Task) error {
	var payload AuthEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Warn("auth event payload unreadable", slog.Any("error", err))
		return asynq.SkipRetry
	}
	return h.sink.Record(ctx, shared.AuthEvent{
		EventID:    payload.EventID,
		UserID:     payload.UserID,
		Email:      payload.Email,
		Action:     payload.Action,
		IP:         payload.IP,
		OccurredAt: payload.OccurredAt,
	})
}

// HandleAuditPurge applies the retention window to stored events.
func (h *Handlers) HandleAuditPurge(ctx context.Context, t *asynq.Task) error {
	purged, err := h.sink.Purge(ctx, h.retention)
	if err != nil {
		return err
	}
	h.logger.Info("audit purge complete", slog.Int64("purged", purged))
	return nil
}
