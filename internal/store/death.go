package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/domain"
)

// DeathStore defines the interface for lifecycle event persistence.
// Death events are immutable once written; only the rebirth-applied marker
// is set afterwards, exactly once.
type DeathStore interface {
	// Create persists a death event. Written only after the governance
	// collaborator authorized the transition.
	Create(ctx context.Context, event *domain.DeathEvent) error

	// LatestByActor returns the actor's most recent death event.
	// Returns ErrDeathEventNotFound if the actor has never died.
	LatestByActor(ctx context.Context, actorID uuid.UUID) (*domain.DeathEvent, error)

	// MarkRebirthApplied records that the separate rebirth call consumed
	// the event's carryover. Returns ErrUpdateFailed if the event was
	// already consumed.
	MarkRebirthApplied(ctx context.Context, eventID uuid.UUID, at time.Time) error
}
