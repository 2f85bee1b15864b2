package domain

import (
	"time"

	"github.com/google/uuid"
)

// Actor is a participant with a ledger record. The actor document is owned
// exclusively by the ledger store and mutated only through core operations;
// balance changes elsewhere in the system are expressed as atomic increments
// at the store boundary, never read-modify-write.
type Actor struct {
	ID uuid.UUID `json:"id"`

	// Role is the current authoritative role, a pure function of the merit
	// score. It is stored denormalized so reads do not recompute it.
	Role Role `json:"role"`

	// Balances maps token name to its (simple or tiered) balance.
	Balances map[TokenName]Balance `json:"balances"`

	// TokenMeta carries per-token created/updated timestamps; expiry is
	// measured against CreatedAt.
	TokenMeta map[TokenName]TokenMeta `json:"token_meta"`

	// LastDecayAt is the moment decay was last applied. Decay runs lazily
	// before any read or mutation of balances.
	LastDecayAt time.Time `json:"last_decay_at"`

	// InfractionHistory holds timestamps of cheat infractions inside the
	// rolling reset window; entries older than the window are pruned.
	InfractionHistory []time.Time `json:"infraction_history"`

	// DestinyCounter accumulates from life events and gates the death
	// threshold check.
	DestinyCounter float64 `json:"destiny_counter"`

	// RebirthCount is how many lifecycle resets this actor has been through.
	RebirthCount int `json:"rebirth_count"`

	// RetiredAt is set when a rebirth under the new-actor policy superseded
	// this record; retired actors accept no further operations.
	RetiredAt *time.Time `json:"retired_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewActor creates an actor at the base role with empty balances.
func NewActor(id uuid.UUID) (*Actor, error) {
	if id == uuid.Nil {
		return nil, NewValidationError("id", "cannot be empty", ErrInvalidID)
	}

	now := time.Now().UTC()
	return &Actor{
		ID:          id,
		Role:        RoleLearner,
		Balances:    make(map[TokenName]Balance),
		TokenMeta:   make(map[TokenName]TokenMeta),
		LastDecayAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Balance returns the balance for the named token, or a zero simple
// balance when the actor has never held it.
func (a *Actor) Balance(token TokenName) Balance {
	if bal, ok := a.Balances[token]; ok {
		return bal
	}
	return SimpleBalance(0)
}

// InfractionsSince counts infractions recorded at or after cutoff.
func (a *Actor) InfractionsSince(cutoff time.Time) int {
	count := 0
	for _, ts := range a.InfractionHistory {
		if !ts.Before(cutoff) {
			count++
		}
	}
	return count
}

// PruneInfractions drops history entries older than cutoff and returns the
// number retained.
func (a *Actor) PruneInfractions(cutoff time.Time) int {
	kept := a.InfractionHistory[:0]
	for _, ts := range a.InfractionHistory {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	a.InfractionHistory = kept
	return len(kept)
}

// Clone returns a deep copy of the actor. The advisor and lifecycle engine
// work on clones so simulations never leak into the authoritative record.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	clone := *a
	clone.Balances = make(map[TokenName]Balance, len(a.Balances))
	for token, bal := range a.Balances {
		clone.Balances[token] = bal.Clone()
	}
	clone.TokenMeta = make(map[TokenName]TokenMeta, len(a.TokenMeta))
	for token, meta := range a.TokenMeta {
		clone.TokenMeta[token] = meta
	}
	clone.InfractionHistory = append([]time.Time(nil), a.InfractionHistory...)
	return &clone
}
