package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/domain"
)

// PlanStore defines the interface for atonement plan persistence.
type PlanStore interface {
	// Create saves a new plan together with its parallel appeal record.
	Create(ctx context.Context, plan *domain.AtonementPlan, appeal *domain.Appeal) error

	// GetByID retrieves a plan by its unique ID.
	// Returns ErrPlanNotFound if the plan does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AtonementPlan, error)

	// Update persists the plan's progress, proofs and status after a proof
	// submission. Plan updates are single-document and need no multi-step
	// transaction.
	Update(ctx context.Context, plan *domain.AtonementPlan) error

	// ListByActor returns the actor's plans, optionally filtered by status.
	ListByActor(
		ctx context.Context,
		actorID uuid.UUID,
		status *domain.PlanStatus,
	) ([]*domain.AtonementPlan, error)

	// DiscardPending removes the actor's open plans at rebirth and returns
	// how many were discarded.
	DiscardPending(ctx context.Context, actorID uuid.UUID) (int64, error)
}
