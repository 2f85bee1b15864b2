package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/domain"
)

// DebtStore defines the interface for debt relationship persistence.
type DebtStore interface {
	// Create saves a new debt relationship.
	Create(ctx context.Context, debt *domain.DebtRelationship) error

	// GetByID retrieves a relationship by its unique ID.
	// Returns ErrDebtNotFound if the relationship does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.DebtRelationship, error)

	// Update persists repayment progress and status changes.
	Update(ctx context.Context, debt *domain.DebtRelationship) error

	// Transfer atomically marks the original relationship transferred and
	// creates its successor. Both writes happen in one transaction so a
	// debt can never be active in two places.
	Transfer(ctx context.Context, original, successor *domain.DebtRelationship) error

	// ListByDebtor returns relationships where the actor owes, optionally
	// filtered by status.
	ListByDebtor(
		ctx context.Context,
		debtorID uuid.UUID,
		status *domain.DebtStatus,
	) ([]*domain.DebtRelationship, error)

	// ListByReceiver returns relationships where the actor is owed,
	// optionally filtered by status.
	ListByReceiver(
		ctx context.Context,
		receiverID uuid.UUID,
		status *domain.DebtStatus,
	) ([]*domain.DebtRelationship, error)

	// WithTx returns a DebtStore bound to the provided transaction.
	WithTx(tx *sql.Tx) DebtStore
}
