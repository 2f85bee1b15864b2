package karma

import (
	"math"
	"time"

	"github.com/vedhika/samsara-api/internal/domain"
)

// BalanceAdjustment describes one balance change produced by decay or
// expiry, so callers can log or audit what aging did.
type BalanceAdjustment struct {
	Token   domain.TokenName
	Before  float64
	After   float64
	Expired bool
}

// ApplyDecayAndExpiry ages the actor's balances in place and advances
// LastDecayAt to now. It must run before any read or mutation of balances
// so staleness never leaks into the merit or role computation.
//
// For elapsed (possibly fractional) days d since LastDecayAt, every token
// with decay rate r decays as balance * (1-r)^d, which makes decay
// compounding-idempotent: aging a days then b days equals aging a+b days at
// once. A token whose age since creation exceeds its expiry duration is
// zeroed outright. Negative elapsed time from clock skew is a no-op; it
// never produces negative balances.
func ApplyDecayAndExpiry(actor *domain.Actor, now time.Time, params *Params) []BalanceAdjustment {
	if actor.TokenMeta == nil {
		actor.TokenMeta = make(map[domain.TokenName]domain.TokenMeta)
	}

	elapsed := now.Sub(actor.LastDecayAt)
	if elapsed < 0 {
		elapsed = 0
	}
	days := elapsed.Hours() / 24

	var adjustments []BalanceAdjustment

	for token, bal := range actor.Balances {
		desc, ok := params.Tokens[token]
		if !ok {
			continue
		}

		before := bal.Total()
		meta := actor.TokenMeta[token]

		switch {
		case desc.Expiry > 0 && !meta.CreatedAt.IsZero() && now.Sub(meta.CreatedAt) > desc.Expiry:
			actor.Balances[token] = bal.Zeroed()
			adjustments = append(adjustments, BalanceAdjustment{
				Token:   token,
				Before:  before,
				After:   0,
				Expired: true,
			})
		case desc.DailyDecayRate > 0 && days > 0 && before > 0:
			factor := math.Pow(1-desc.DailyDecayRate, days)
			actor.Balances[token] = bal.Scale(factor)
			adjustments = append(adjustments, BalanceAdjustment{
				Token:  token,
				Before: before,
				After:  actor.Balances[token].Total(),
			})
		default:
			continue
		}

		meta.UpdatedAt = now
		actor.TokenMeta[token] = meta
	}

	actor.LastDecayAt = now
	actor.UpdatedAt = now
	return adjustments
}
