package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/domain"
)

// ActorStore defines the interface for actor ledger persistence.
//
// Balance mutations are expressed as atomic field increments at this
// boundary, never read-modify-write, so concurrent actions against the same
// actor cannot lose updates. Only decay and rebirth replace balances
// wholesale, and decay is guarded by a compare-and-swap on the last-decay
// timestamp.
type ActorStore interface {
	// Create saves a new actor record.
	// Returns ErrDuplicate if the actor already exists.
	Create(ctx context.Context, actor *domain.Actor) error

	// GetByID retrieves an actor with balances normalized into the tagged
	// Balance variant. Returns ErrActorNotFound if the actor does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Actor, error)

	// AdjustBalance atomically increments the named token balance by delta
	// (negative to decrement), clamped at zero, and returns the new amount.
	// tier is empty for simple tokens. The token row is created on first
	// credit. Returns ErrActorNotFound if the actor does not exist.
	AdjustBalance(
		ctx context.Context,
		actorID uuid.UUID,
		token domain.TokenName,
		tier domain.Severity,
		delta float64,
	) (float64, error)

	// Redeem atomically decrements a simple token balance by amount only
	// when the full amount is available, returning the remaining balance.
	// Returns domain.ErrInsufficientBalance when it is not; the balance is
	// never clamped silently.
	Redeem(
		ctx context.Context,
		actorID uuid.UUID,
		token domain.TokenName,
		amount float64,
	) (float64, error)

	// PersistDecay writes the aged balances and advances the last-decay
	// timestamp from prevDecayAt to decayedAt in one transaction. The
	// timestamp write is a compare-and-swap: if another writer advanced it
	// first, ErrStaleDecay is returned and nothing is written.
	PersistDecay(
		ctx context.Context,
		actorID uuid.UUID,
		balances map[domain.TokenName]domain.Balance,
		prevDecayAt, decayedAt time.Time,
	) error

	// ReplaceBalances overwrites the actor's entire balance set. Used by
	// the rebirth reset only.
	ReplaceBalances(
		ctx context.Context,
		actorID uuid.UUID,
		balances map[domain.TokenName]domain.Balance,
		meta map[domain.TokenName]domain.TokenMeta,
	) error

	// UpdateRole stores the freshly resolved role.
	UpdateRole(ctx context.Context, actorID uuid.UUID, role domain.Role) error

	// ReplaceInfractions overwrites the rolling infraction history after
	// the progressive punishment pass recorded and pruned it.
	ReplaceInfractions(ctx context.Context, actorID uuid.UUID, history []time.Time) error

	// AdjustDestiny atomically increments the destiny counter.
	AdjustDestiny(ctx context.Context, actorID uuid.UUID, delta float64) error

	// ResetDestiny zeroes the destiny counter at rebirth.
	ResetDestiny(ctx context.Context, actorID uuid.UUID) error

	// IncrementRebirth bumps the rebirth count.
	IncrementRebirth(ctx context.Context, actorID uuid.UUID) error

	// Retire marks the actor superseded under the new-actor rebirth policy.
	Retire(ctx context.Context, actorID uuid.UUID, at time.Time) error

	// Count returns the number of non-retired actors.
	Count(ctx context.Context) (int64, error)

	// WithTx returns an ActorStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ActorStore
}
