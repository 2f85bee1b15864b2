package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/domain"
)

// TransactionStore defines the interface for the append-only transaction
// log. Records are never updated after creation.
type TransactionStore interface {
	// Create appends a transaction record.
	Create(ctx context.Context, txn *domain.Transaction) error

	// ListByActor returns the actor's most recent transactions, newest
	// first, capped at limit (or all when limit <= 0).
	ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]*domain.Transaction, error)

	// CountSince returns the number of transactions recorded at or after
	// the given moment, across all actors. Backs system statistics.
	CountSince(ctx context.Context, since time.Time) (int64, error)
}
