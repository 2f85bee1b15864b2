package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newEvent := func(t *testing.T) *TaskRequestEvent {
		t.Helper()
		event, err := NewTaskRequestEvent("audit_snapshot", map[string]string{"date": "2026-08-30"})
		require.NoError(t, err)
		return event
	}

	t.Run("no handlers registered", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		err := emitter.EmitEvent(context.Background(), newEvent(t))
		assert.NoError(t, err)
	})

	t.Run("all handlers receive the event", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		first := &recordingHandler{}
		second := &recordingHandler{}
		emitter.RegisterHandler(first)
		emitter.RegisterHandler(second)

		event := newEvent(t)
		require.NoError(t, emitter.EmitEvent(context.Background(), event))

		assert.Equal(t, 1, first.handledCount)
		assert.Equal(t, 1, second.handledCount)
		assert.Equal(t, event, first.lastEvent)
		assert.Equal(t, event, second.lastEvent)
	})

	t.Run("failing handler does not block the rest", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		failing := &recordingHandler{err: errors.New("handler error")}
		healthy := &recordingHandler{}
		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(healthy)

		err := emitter.EmitEvent(context.Background(), newEvent(t))
		assert.Error(t, err)
		assert.Equal(t, "handler error", err.Error())

		assert.Equal(t, 1, failing.handledCount)
		assert.Equal(t, 1, healthy.handledCount)
	})
}
