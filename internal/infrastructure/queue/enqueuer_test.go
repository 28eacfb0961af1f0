package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-backend/internal/shared"
)

type recordingClient struct {
	tasks []*asynq.Task
	err   error
}

func (r *recordingClient) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func Test_Enqueuer_AvailabilitySync(t *testing.T) {
	client := &recordingClient{}
	e := NewEnqueuer(client)
	id := uuid.New()

	require.NoError(t, e.EnqueueAvailabilitySync(context.Background(), id, "borrow"))
	require.Len(t, client.tasks, 1)
	assert.Equal(t, shared.TypeAvailabilitySync, client.tasks[0].Type())

	var payload shared.AvailabilitySyncPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &payload))
	assert.Equal(t, id, payload.TitleID)
	assert.Equal(t, "borrow", payload.Source)
}

func Test_Enqueuer_DuplicateIsNotAnError(t *testing.T) {
	e := NewEnqueuer(&recordingClient{err: asynq.ErrDuplicateTask})
	assert.NoError(t, e.EnqueueAvailabilitySync(context.Background(), uuid.New(), "return"))

	e = NewEnqueuer(&recordingClient{err: errors.New("redis down")})
	assert.ErrorContains(t, e.EnqueueAvailabilitySync(context.Background(), uuid.New(), "return"), "redis down")
	assert.Error(t, e.EnqueueReconcile(context.Background(), 10))
}
