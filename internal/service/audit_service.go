package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vedhika/samsara-api/internal/audit"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/store"
)

// AuditServiceError is a custom error type for audit service errors.
type AuditServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for AuditServiceError.
func (e *AuditServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("audit service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("audit service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *AuditServiceError) Unwrap() error {
	return e.Err
}

// NewAuditServiceError creates a new AuditServiceError.
func NewAuditServiceError(operation, message string, err error) *AuditServiceError {
	return &AuditServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// AuditRecorder is the write side of the audit trail as consumed by the
// other services. Recording is a secondary effect everywhere: callers
// surface a failure as an auxiliary outcome, never as a failure of the
// primary mutation.
type AuditRecorder interface {
	RecordEvent(ctx context.Context, eventType, actorID string, payload map[string]any) (*audit.Entry, error)
}

// AuditService provides audit trail operations
type AuditService interface {
	AuditRecorder

	// BuildSnapshot collects the given UTC day's entries under a Merkle
	// root and persists the snapshot.
	BuildSnapshot(ctx context.Context, day time.Time) (*audit.Snapshot, error)

	// VerifyEntry recomputes the stored hash of the entry at the given
	// chain index and reports whether it matches.
	VerifyEntry(ctx context.Context, index int64) (bool, *audit.Entry, error)

	// VerifySnapshot recomputes the Merkle root and hash of the snapshot
	// for a YYYY-MM-DD date and reports whether they match.
	VerifySnapshot(ctx context.Context, date string) (bool, *audit.Snapshot, error)

	// VerifyDay re-verifies the full chain segment for a UTC day,
	// including the prev-hash links between entries.
	VerifyDay(ctx context.Context, day time.Time) (bool, error)
}

// auditServiceImpl implements the AuditService interface
type auditServiceImpl struct {
	auditStore store.AuditStore
	logger     *slog.Logger
}

// NewAuditService creates a new AuditService.
// It returns an error if any of the required dependencies are nil.
func NewAuditService(auditStore store.AuditStore, logger *slog.Logger) (AuditService, error) {
	if auditStore == nil {
		return nil, domain.NewValidationError("auditStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &auditServiceImpl{
		auditStore: auditStore,
		logger:     logger.With(slog.String("component", "audit_service")),
	}, nil
}

// RecordEvent implements AuditRecorder.RecordEvent
func (s *auditServiceImpl) RecordEvent(
	ctx context.Context,
	eventType, actorID string,
	payload map[string]any,
) (*audit.Entry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	entry, err := s.auditStore.Append(ctx, audit.NewEntry(eventType, actorID, payload))
	if err != nil {
		return nil, NewAuditServiceError("record_event", "failed to append entry", err)
	}

	log.Debug("audit event recorded",
		slog.Int64("index", entry.Index),
		slog.String("event_type", eventType))
	return entry, nil
}

// BuildSnapshot implements AuditService.BuildSnapshot
func (s *auditServiceImpl) BuildSnapshot(ctx context.Context, day time.Time) (*audit.Snapshot, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	entries, err := s.auditStore.ListByDay(ctx, day)
	if err != nil {
		return nil, NewAuditServiceError("build_snapshot", "failed to list day's entries", err)
	}

	snapshot, err := audit.BuildDailySnapshot(day, entries, time.Now().UTC())
	if err != nil {
		return nil, NewAuditServiceError("build_snapshot", "failed to build snapshot", err)
	}

	if err := s.auditStore.SaveSnapshot(ctx, snapshot); err != nil {
		return nil, NewAuditServiceError("build_snapshot", "failed to save snapshot", err)
	}

	log.Info("daily audit snapshot built",
		slog.String("date", snapshot.Date),
		slog.Int("entries", snapshot.EntryCount),
		slog.String("merkle_root", snapshot.MerkleRoot))
	return snapshot, nil
}

// VerifyEntry implements AuditService.VerifyEntry
// Verification failures are reported, never repaired.
func (s *auditServiceImpl) VerifyEntry(ctx context.Context, index int64) (bool, *audit.Entry, error) {
	entry, err := s.auditStore.GetByIndex(ctx, index)
	if err != nil {
		return false, nil, NewAuditServiceError("verify_entry", "failed to load entry", err)
	}

	ok, err := audit.VerifyEntry(entry)
	if err != nil {
		return false, entry, NewAuditServiceError("verify_entry", "failed to recompute hash", err)
	}
	if !ok {
		s.logger.Warn("audit entry failed verification", slog.Int64("index", index))
	}
	return ok, entry, nil
}

// VerifySnapshot implements AuditService.VerifySnapshot
func (s *auditServiceImpl) VerifySnapshot(ctx context.Context, date string) (bool, *audit.Snapshot, error) {
	snapshot, err := s.auditStore.GetSnapshot(ctx, date)
	if err != nil {
		return false, nil, NewAuditServiceError("verify_snapshot", "failed to load snapshot", err)
	}

	ok, err := audit.VerifySnapshot(snapshot)
	if err != nil {
		return false, snapshot, NewAuditServiceError("verify_snapshot", "failed to recompute hashes", err)
	}
	if !ok {
		s.logger.Warn("audit snapshot failed verification", slog.String("date", date))
	}
	return ok, snapshot, nil
}

// VerifyDay implements AuditService.VerifyDay
func (s *auditServiceImpl) VerifyDay(ctx context.Context, day time.Time) (bool, error) {
	entries, err := s.auditStore.ListByDay(ctx, day)
	if err != nil {
		return false, NewAuditServiceError("verify_day", "failed to list day's entries", err)
	}
	if len(entries) == 0 {
		return true, nil
	}

	ok, err := audit.VerifyChain(entries, entries[0].PrevHash)
	if err != nil {
		return false, NewAuditServiceError("verify_day", "failed to verify chain", err)
	}
	return ok, nil
}
