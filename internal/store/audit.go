package store

import (
	"context"
	"time"

	"github.com/vedhika/samsara-api/internal/audit"
)

// AuditStore defines the interface for the hash-chained audit trail.
// Entries and snapshots are append-only; nothing here mutates a written
// record.
type AuditStore interface {
	// Append enhances the entry with its chain position (index and
	// previous hash read inside the same transaction) and persists it.
	// The enhanced entry is returned for the caller's audit of the audit.
	Append(ctx context.Context, entry *audit.Entry) (*audit.Entry, error)

	// Latest returns the newest chain entry, or ErrNotFound on an empty
	// chain.
	Latest(ctx context.Context) (*audit.Entry, error)

	// GetByIndex retrieves one entry by chain position.
	// Returns ErrNotFound if no entry holds that index.
	GetByIndex(ctx context.Context, index int64) (*audit.Entry, error)

	// ListByDay returns the entries whose timestamps fall inside the given
	// UTC day, in timestamp order.
	ListByDay(ctx context.Context, day time.Time) ([]*audit.Entry, error)

	// SaveSnapshot persists a daily snapshot.
	// Returns ErrDuplicate if a snapshot for that date already exists.
	SaveSnapshot(ctx context.Context, snapshot *audit.Snapshot) error

	// GetSnapshot retrieves the snapshot for a YYYY-MM-DD date.
	// Returns ErrSnapshotNotFound if none exists.
	GetSnapshot(ctx context.Context, date string) (*audit.Snapshot, error)
}
