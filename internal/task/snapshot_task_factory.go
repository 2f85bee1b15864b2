package task

import (
	"log/slog"
	"time"
)

// AuditSnapshotTaskFactory creates AuditSnapshotTask instances
type AuditSnapshotTaskFactory struct {
	builder SnapshotBuilder
	logger  *slog.Logger
}

// NewAuditSnapshotTaskFactory creates a new factory for AuditSnapshotTasks
func NewAuditSnapshotTaskFactory(
	builder SnapshotBuilder,
	logger *slog.Logger,
) *AuditSnapshotTaskFactory {
	return &AuditSnapshotTaskFactory{
		builder: builder,
		logger:  logger.With("component", "audit_snapshot_task_factory"),
	}
}

// CreateTask creates a new AuditSnapshotTask for the specified UTC day
func (f *AuditSnapshotTaskFactory) CreateTask(day time.Time) (Task, error) {
	task, err := NewAuditSnapshotTask(day, f.builder, f.logger)
	if err != nil {
		return nil, err
	}
	return task, nil
}
