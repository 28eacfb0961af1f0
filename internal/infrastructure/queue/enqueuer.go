package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"library-backend/internal/shared"
)

// TaskEnqueuer is the part of *asynq.Client the enqueuer uses
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Enqueuer turns ledger side effects into background tasks
type Enqueuer struct {
	client TaskEnqueuer
}

func NewEnqueuer(client TaskEnqueuer) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueAvailabilitySync schedules a cache refresh for one title.
// Bursts on the same title within a second collapse into one task.
func (e *Enqueuer) EnqueueAvailabilitySync(ctx context.Context, titleID uuid.UUID, source string) error {
	payload, err := json.Marshal(shared.AvailabilitySyncPayload{TitleID: titleID, Source: source})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	task := asynq.NewTask(shared.TypeAvailabilitySync, payload)
	_, err = e.client.EnqueueContext(ctx, task,
		asynq.Queue(shared.QueueLedger),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
		asynq.Unique(time.Second),
	)
	if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
		return fmt.Errorf("enqueue availability sync: %w", err)
	}
	return nil
}

// EnqueueReconcile runs the drift check now instead of waiting for the cron
func (e *Enqueuer) EnqueueReconcile(ctx context.Context, limit int) error {
	payload, err := json.Marshal(shared.ReconcilePayload{Limit: limit})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	_, err = e.client.EnqueueContext(ctx, asynq.NewTask(shared.TypeReconcileInventory, payload),
		asynq.Queue(shared.QueueMaintenance),
		asynq.MaxRetry(1),
	)
	if err != nil {
		return fmt.Errorf("enqueue reconcile: %w", err)
	}
	return nil
}
