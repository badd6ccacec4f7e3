package consumer_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	balanceerrors "go-leavedesk/internal/balance/errors"
	"go-leavedesk/internal/events"
	"go-leavedesk/internal/messaging/kafka/consumer"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafkago.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	r.mu.Lock()
	if len(r.queue) == 0 {
		r.mu.Unlock()
		r.cancel()
		<-ctx.Done()
		return kafkago.Message{}, ctx.Err()
	}
	msg := r.queue[0]
	r.queue = r.queue[1:]
	r.mu.Unlock()
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

type fakeHandler struct {
	results map[string]error
	seen    []string
}

func (h *fakeHandler) HandleEmployeeLifecycle(_ context.Context, evt events.EmployeeLifecycleEvent) error {
	h.seen = append(h.seen, evt.EmployeeID)
	return h.results[evt.EmployeeID]
}

func message(t *testing.T, offset int64, evt events.EmployeeLifecycleEvent) kafkago.Message {
	t.Helper()
	body, err := json.Marshal(evt)
	assert.NoError(t, err)
	return kafkago.Message{Offset: offset, Value: body}
}

func TestConsumeEmployeeLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		cancel: cancel,
		queue: []kafkago.Message{
			message(t, 1, events.EmployeeLifecycleEvent{EventType: events.EmployeeCreated, EmployeeID: "ok"}),
			{Offset: 2, Value: []byte("not json")},
			message(t, 3, events.EmployeeLifecycleEvent{EventType: events.EmployeeCreated, EmployeeID: "unknown"}),
			message(t, 4, events.EmployeeLifecycleEvent{EventType: events.EmployeeProfileChanged, EmployeeID: "db-down"}),
		},
	}
	handler := &fakeHandler{results: map[string]error{
		"unknown": balanceerrors.ErrEmployeeNotFound,
		"db-down": errors.New("connection refused"),
	}}

	consumer.ConsumeEmployeeLifecycle(ctx, reader, handler, zap.NewNop())

	assert.Equal(t, []string{"ok", "unknown", "db-down"}, handler.seen)
	assert.Equal(t, []int64{1, 2, 3}, reader.committed, "infrastructure failures stay uncommitted")
}
