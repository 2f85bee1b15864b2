package domain

import "time"

// BalanceKind distinguishes the two shapes a token balance can take.
type BalanceKind string

const (
	// BalanceSimple is a flat non-negative amount.
	BalanceSimple BalanceKind = "simple"

	// BalanceTiered is a severity-keyed map of non-negative amounts.
	BalanceTiered BalanceKind = "tiered"
)

// Balance is the tagged variant for a token balance. A balance is either
// Simple (Amount is meaningful, Tiers is nil) or Tiered (Tiers is
// meaningful, Amount is ignored). The shape is normalized once at the
// storage boundary; call sites never re-detect it.
type Balance struct {
	Kind   BalanceKind
	Amount float64
	Tiers  map[Severity]float64
}

// SimpleBalance constructs a flat balance.
func SimpleBalance(amount float64) Balance {
	return Balance{Kind: BalanceSimple, Amount: amount}
}

// TieredBalance constructs a severity-keyed balance. The map is copied so
// callers cannot alias internal state.
func TieredBalance(tiers map[Severity]float64) Balance {
	copied := make(map[Severity]float64, len(tiers))
	for sev, amt := range tiers {
		copied[sev] = amt
	}
	return Balance{Kind: BalanceTiered, Tiers: copied}
}

// Total returns the flat amount for simple balances, or the sum across
// tiers for tiered balances.
func (b Balance) Total() float64 {
	if b.Kind == BalanceTiered {
		var sum float64
		for _, amt := range b.Tiers {
			sum += amt
		}
		return sum
	}
	return b.Amount
}

// Tier returns the amount held at the given severity. Returns 0 for simple
// balances or unknown tiers.
func (b Balance) Tier(sev Severity) float64 {
	if b.Kind != BalanceTiered {
		return 0
	}
	return b.Tiers[sev]
}

// Scale returns a copy of the balance with every amount multiplied by
// factor. Used by the decay engine; factor is expected in [0, 1].
func (b Balance) Scale(factor float64) Balance {
	if b.Kind == BalanceTiered {
		scaled := make(map[Severity]float64, len(b.Tiers))
		for sev, amt := range b.Tiers {
			scaled[sev] = amt * factor
		}
		return Balance{Kind: BalanceTiered, Tiers: scaled}
	}
	return Balance{Kind: BalanceSimple, Amount: b.Amount * factor}
}

// Zeroed returns a copy of the balance with every amount set to zero,
// preserving the shape.
func (b Balance) Zeroed() Balance {
	if b.Kind == BalanceTiered {
		zeroed := make(map[Severity]float64, len(b.Tiers))
		for sev := range b.Tiers {
			zeroed[sev] = 0
		}
		return Balance{Kind: BalanceTiered, Tiers: zeroed}
	}
	return Balance{Kind: BalanceSimple, Amount: 0}
}

// IsZero reports whether every amount in the balance is zero.
func (b Balance) IsZero() bool {
	return b.Total() == 0
}

// Clone returns a deep copy of the balance.
func (b Balance) Clone() Balance {
	if b.Kind == BalanceTiered {
		return TieredBalance(b.Tiers)
	}
	return b
}

// TokenMeta tracks per-token bookkeeping on an actor: when the token was
// first credited (expiry is measured from here) and when it last changed.
type TokenMeta struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}
