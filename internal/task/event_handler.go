package task

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vedhika/samsara-api/internal/events"
)

// snapshotTaskFactory builds an executable task for a given UTC day.
// Satisfied by *AuditSnapshotTaskFactory.
type snapshotTaskFactory interface {
	CreateTask(day time.Time) (Task, error)
}

// taskSubmitter persists and enqueues a task. Satisfied by *TaskRunner.
type taskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler turns task request events into persisted,
// queued tasks. It is registered on the event emitter at startup so
// the scheduler and services can request background work without
// depending on the task runner directly.
type TaskFactoryEventHandler struct {
	taskFactory snapshotTaskFactory
	taskRunner  taskSubmitter
	logger      *slog.Logger
}

// NewTaskFactoryEventHandler creates a handler that builds tasks with
// factory and submits them to runner.
func NewTaskFactoryEventHandler(
	factory snapshotTaskFactory,
	runner taskSubmitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		taskFactory: factory,
		taskRunner:  runner,
		logger:      logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent extracts the snapshot day from the event payload, creates
// the task, and submits it to the runner.
func (h *TaskFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	if event.Type != TaskTypeAuditSnapshot {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload struct {
		Date string `json:"date"`
	}
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload",
			"error", err,
			"event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	day, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		h.logger.Error("invalid snapshot date",
			"error", err,
			"date", payload.Date,
			"event_id", event.ID)
		return fmt.Errorf("invalid snapshot date: %w", err)
	}

	t, err := h.taskFactory.CreateTask(day)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"date", payload.Date,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.taskRunner.Submit(ctx, t); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", t.ID(),
			"date", payload.Date,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted",
		"task_id", t.ID(),
		"date", payload.Date,
		"event_id", event.ID)
	return nil
}

var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
