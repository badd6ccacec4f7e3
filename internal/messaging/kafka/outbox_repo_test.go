package kafka

import (
	"context"
	"testing"
	"time"

	"go-leavedesk/internal/shared/connection"
	"go-leavedesk/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutboxRepository_Lifecycle(t *testing.T) {
	ctx := contextutil.WithRequestID(context.Background(), "req-42")
	db, err := connection.OpenSQLite("file:outbox_"+uuid.NewString()+"?mode=memory&cache=shared", time.Second)
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&OutboxEvent{}))

	clock := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	repo := &outboxRepository{db: db, now: func() time.Time { return clock }}

	evt, err := NewOutboxEvent(ctx, "leave", uuid.NewString(), "leave_created", "hr.leave.lifecycle.v1", map[string]int{"total_days": 3})
	require.NoError(t, err)
	assert.Equal(t, "req-42", evt.RequestID)
	require.NoError(t, repo.Create(ctx, evt))

	pending, err := repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.JSONEq(t, `{"total_days":3}`, string(pending[0].Payload))

	require.NoError(t, repo.MarkFailed(ctx, evt.ID, "broker down"))

	pending, err = repo.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "failed event waits for its backoff")

	clock = clock.Add(16 * time.Second)
	pending, err = repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].RetryCount)
	assert.Equal(t, OutboxStatusFailed, pending[0].Status)

	require.NoError(t, repo.MarkSent(ctx, evt.ID))
	pending, err = repo.ListPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestValidateOutboxEvent(t *testing.T) {
	valid := OutboxEvent{ID: "1", Topic: "t", Payload: []byte("{}"), Status: OutboxStatusPending}
	assert.NoError(t, ValidateOutboxEvent(valid))

	missingTopic := valid
	missingTopic.Topic = ""
	assert.Error(t, ValidateOutboxEvent(missingTopic))

	badStatus := valid
	badStatus.Status = "lost"
	assert.Error(t, ValidateOutboxEvent(badStatus))
}
