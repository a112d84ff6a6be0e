package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/gatekit/authgate/internal/shared"
)

// Enqueuer pushes auth events onto the queue. It satisfies the auth
// service's EventRecorder seam.
type Enqueuer struct {
	client *asynq.Client
}

// NewEnqueuer wraps an asynq client.
func NewEnqueuer(client *asynq.Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// RecordAuthEvent enqueues the event for asynchronous persistence.
func (e *Enqueuer) RecordAuthEvent(ctx context.Context, ev shared.AuthEvent) error {
	task, err := NewAuthEventTask(AuthEventPayload{
		EventID:    ev.EventID,
		UserID:     ev.UserID,
		Email:      ev.Email,
		Action:     ev.Action,
		IP:         ev.IP,
		OccurredAt: ev.OccurredAt,
	})
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task)
	return err
}
