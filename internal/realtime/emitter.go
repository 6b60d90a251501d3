package realtime

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/studypath-backend/internal/platform/logger"
)

// Emitter delivers user events. With a Bus every instance's forwarder
// broadcasts locally, otherwise the local hub is used directly.
type Emitter interface {
	EmitToUser(ctx context.Context, userID uuid.UUID, event SSEEvent, data any)
}

type emitter struct {
	log *logger.Logger
	hub *SSEHub
	bus Bus
}

func NewEmitter(log *logger.Logger, hub *SSEHub, bus Bus) Emitter {
	return &emitter{log: log.With("service", "SSEEmitter"), hub: hub, bus: bus}
}

func (e *emitter) EmitToUser(ctx context.Context, userID uuid.UUID, event SSEEvent, data any) {
	if userID == uuid.Nil {
		return
	}
	msg := SSEMessage{Channel: UserChannel(userID), Event: event, Data: data}
	if e.bus != nil {
		err := e.bus.Publish(ctx, msg)
		if err == nil {
			return
		}
		e.log.Warn("SSE bus publish failed; delivering locally", "event", event, "error", err)
	}
	if e.hub != nil {
		e.hub.Broadcast(msg)
	}
}

// NopEmitter drops every event.
type NopEmitter struct{}

func (NopEmitter) EmitToUser(context.Context, uuid.UUID, SSEEvent, any) {}
