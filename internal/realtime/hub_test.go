package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubReconnectAndOrdering(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := uuid.New().String()

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventGenerationJobUpdated, Data: map[string]any{"seq": 1}})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventTopicContentGenerated, Data: map[string]any{"seq": 2}})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventGenerationJobUpdated {
		t.Fatalf("first event: got=%s", got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventTopicContentGenerated {
		t.Fatalf("second event: got=%s", got.Event)
	}

	hub.CloseClient(clientA)
	select {
	case _, ok := <-clientA.Outbound:
		if ok {
			t.Fatalf("clientA outbound should be closed after disconnect")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for clientA channel close")
	}

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventUserNameChanged})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventUserNameChanged {
		t.Fatalf("reconnect event: got=%s", got.Event)
	}
}

type failingBus struct{ published int }

func (b *failingBus) Publish(context.Context, SSEMessage) error {
	b.published++
	return context.DeadlineExceeded
}
func (b *failingBus) StartForwarder(context.Context, func(SSEMessage)) error { return nil }
func (b *failingBus) Close() error                                          { return nil }

func TestEmitterFallsBackToLocalHub(t *testing.T) {
	log := mustTestLogger(t)
	hub := NewSSEHub(log)
	userID := uuid.New()
	client := hub.NewSSEClient(userID)
	hub.AddChannel(client, UserChannel(userID))

	bus := &failingBus{}
	NewEmitter(log, hub, bus).EmitToUser(context.Background(), userID, SSEEventTopicContentGenerated, map[string]any{"ok": true})

	if bus.published != 1 {
		t.Fatalf("expected one publish attempt, got %d", bus.published)
	}
	if got := recvMessage(t, client.Outbound, time.Second); got.Event != SSEEventTopicContentGenerated {
		t.Fatalf("unexpected event %s", got.Event)
	}
}
