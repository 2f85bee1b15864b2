package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vedhika/samsara-api/internal/events"
)

// stubSnapshotFactory stands in for AuditSnapshotTaskFactory.
type stubSnapshotFactory struct {
	createFn func(day time.Time) (Task, error)
	called   bool
	lastDay  time.Time
}

func (f *stubSnapshotFactory) CreateTask(day time.Time) (Task, error) {
	f.called = true
	f.lastDay = day
	return f.createFn(day)
}

// stubSubmitter stands in for the task runner's Submit.
type stubSubmitter struct {
	submitFn func(ctx context.Context, t Task) error
	called   bool
	lastTask Task
}

func (s *stubSubmitter) Submit(ctx context.Context, t Task) error {
	s.called = true
	s.lastTask = t
	return s.submitFn(ctx, t)
}

func TestTaskFactoryEventHandler_HandleEvent(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("successfully handle audit snapshot event", func(t *testing.T) {
		snapshotTask := newSnapshotStubTask("2026-08-30")

		factory := &stubSnapshotFactory{
			createFn: func(day time.Time) (Task, error) {
				return snapshotTask, nil
			},
		}
		runner := &stubSubmitter{
			submitFn: func(ctx context.Context, t Task) error {
				return nil
			},
		}

		handler := NewTaskFactoryEventHandler(factory, runner, logger)

		payload := map[string]string{"date": "2026-08-30"}
		event, err := events.NewTaskRequestEvent(TaskTypeAuditSnapshot, payload)
		require.NoError(t, err)

		err = handler.HandleEvent(context.Background(), event)
		assert.NoError(t, err)

		assert.True(t, factory.called)
		assert.Equal(t, "2026-08-30", factory.lastDay.Format("2006-01-02"))
		assert.True(t, runner.called)
		assert.Same(t, snapshotTask, runner.lastTask)
	})

	t.Run("ignore unsupported event type", func(t *testing.T) {
		factory := &stubSnapshotFactory{
			createFn: func(day time.Time) (Task, error) {
				t.Fail()
				return nil, nil
			},
		}
		runner := &stubSubmitter{
			submitFn: func(ctx context.Context, _ Task) error {
				t.Fail()
				return nil
			},
		}

		handler := NewTaskFactoryEventHandler(factory, runner, logger)

		event, err := events.NewTaskRequestEvent("unsupported_type", map[string]string{"key": "value"})
		require.NoError(t, err)

		err = handler.HandleEvent(context.Background(), event)
		assert.NoError(t, err)

		assert.False(t, factory.called)
		assert.False(t, runner.called)
	})

	t.Run("handle invalid snapshot date", func(t *testing.T) {
		factory := &stubSnapshotFactory{
			createFn: func(day time.Time) (Task, error) {
				t.Fail()
				return nil, nil
			},
		}
		runner := &stubSubmitter{
			submitFn: func(ctx context.Context, _ Task) error {
				t.Fail()
				return nil
			},
		}

		handler := NewTaskFactoryEventHandler(factory, runner, logger)

		payload := map[string]string{"date": "yesterday"}
		event, err := events.NewTaskRequestEvent(TaskTypeAuditSnapshot, payload)
		require.NoError(t, err)

		err = handler.HandleEvent(context.Background(), event)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid snapshot date")

		assert.False(t, factory.called)
		assert.False(t, runner.called)
	})

	t.Run("handle task creation failure", func(t *testing.T) {
		expectedErr := errors.New("task creation failed")

		factory := &stubSnapshotFactory{
			createFn: func(day time.Time) (Task, error) {
				return nil, expectedErr
			},
		}
		runner := &stubSubmitter{
			submitFn: func(ctx context.Context, _ Task) error {
				t.Fail()
				return nil
			},
		}

		handler := NewTaskFactoryEventHandler(factory, runner, logger)

		payload := map[string]string{"date": "2026-08-30"}
		event, err := events.NewTaskRequestEvent(TaskTypeAuditSnapshot, payload)
		require.NoError(t, err)

		err = handler.HandleEvent(context.Background(), event)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create task")

		assert.True(t, factory.called)
		assert.False(t, runner.called)
	})

	t.Run("handle task submission failure", func(t *testing.T) {
		expectedErr := errors.New("task submission failed")
		snapshotTask := newSnapshotStubTask("2026-08-30")

		factory := &stubSnapshotFactory{
			createFn: func(day time.Time) (Task, error) {
				return snapshotTask, nil
			},
		}
		runner := &stubSubmitter{
			submitFn: func(ctx context.Context, t Task) error {
				return expectedErr
			},
		}

		handler := NewTaskFactoryEventHandler(factory, runner, logger)

		payload := map[string]string{"date": "2026-08-30"}
		event, err := events.NewTaskRequestEvent(TaskTypeAuditSnapshot, payload)
		require.NoError(t, err)

		err = handler.HandleEvent(context.Background(), event)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to submit task")

		assert.True(t, factory.called)
		assert.True(t, runner.called)
		assert.Same(t, snapshotTask, runner.lastTask)
	})
}
