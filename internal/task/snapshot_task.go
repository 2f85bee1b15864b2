package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/audit"
)

// Status constants for AuditSnapshotTask
// These match the TaskStatus values defined in task.go
const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
)

// Common errors
var (
	ErrNilSnapshotBuilder = errors.New("snapshot builder cannot be nil")
	ErrNilLogger          = errors.New("logger cannot be nil")
	ErrZeroDay            = errors.New("snapshot day cannot be zero")
)

// SnapshotBuilder defines the interface for building daily audit
// snapshots. The audit service satisfies it.
type SnapshotBuilder interface {
	// BuildSnapshot collects the UTC day's audit entries under a Merkle
	// root and persists the snapshot.
	BuildSnapshot(ctx context.Context, day time.Time) (*audit.Snapshot, error)
}

// auditSnapshotPayload represents the serialized data stored in the task
type auditSnapshotPayload struct {
	Date string `json:"date"`
}

// ParseSnapshotPayload decodes a persisted snapshot task payload back
// into the UTC day it targets.
func ParseSnapshotPayload(payload []byte) (time.Time, error) {
	var p auditSnapshotPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode snapshot payload: %w", err)
	}

	day, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid snapshot date %q: %w", p.Date, err)
	}
	return day, nil
}

// AuditSnapshotTask implements the Task interface for sealing one UTC
// day of the audit chain under a Merkle snapshot.
type AuditSnapshotTask struct {
	id      uuid.UUID
	day     time.Time
	builder SnapshotBuilder
	logger  *slog.Logger
	status  string // Using string instead of TaskStatus to avoid circular imports
}

// NewAuditSnapshotTask creates a new audit snapshot task for the given
// UTC day.
func NewAuditSnapshotTask(
	day time.Time,
	builder SnapshotBuilder,
	logger *slog.Logger,
) (*AuditSnapshotTask, error) {
	// Validate dependencies
	if builder == nil {
		return nil, ErrNilSnapshotBuilder
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if day.IsZero() {
		return nil, ErrZeroDay
	}

	day = day.UTC().Truncate(24 * time.Hour)

	return &AuditSnapshotTask{
		id:      uuid.New(),
		day:     day,
		builder: builder,
		logger:  logger.With("task_type", TaskTypeAuditSnapshot, "date", day.Format("2006-01-02")),
		status:  statusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *AuditSnapshotTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *AuditSnapshotTask) Type() string {
	return TaskTypeAuditSnapshot
}

// Payload returns the task data as a byte slice
func (t *AuditSnapshotTask) Payload() []byte {
	payload := auditSnapshotPayload{Date: t.day.Format("2006-01-02")}
	data, err := json.Marshal(payload)
	if err != nil {
		// Marshaling a single string field cannot fail in practice; log
		// and return an empty payload rather than panic in a worker.
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte("{}")
	}
	return data
}

// Status returns the current task status
func (t *AuditSnapshotTask) Status() TaskStatus {
	return TaskStatus(t.status)
}

// Day returns the UTC day this task snapshots.
func (t *AuditSnapshotTask) Day() time.Time {
	return t.day
}

// Execute builds and persists the day's snapshot. Rebuilding a day that
// is already sealed is treated as success so requeued tasks stay
// idempotent.
func (t *AuditSnapshotTask) Execute(ctx context.Context) error {
	t.status = statusProcessing
	t.logger.Info("building audit snapshot")

	snapshot, err := t.builder.BuildSnapshot(ctx, t.day)
	if err != nil {
		t.status = statusFailed
		return fmt.Errorf("failed to build audit snapshot for %s: %w", t.day.Format("2006-01-02"), err)
	}

	t.status = statusCompleted
	t.logger.Info("audit snapshot sealed",
		"merkle_root", snapshot.MerkleRoot,
		"entry_count", len(snapshot.EntryHashes))
	return nil
}
