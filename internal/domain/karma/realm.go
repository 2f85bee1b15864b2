package karma

import (
	"github.com/vedhika/samsara-api/internal/domain"
)

// NetKarma computes the actor's net karma: merit-weighted positive tokens
// minus tier-weighted tiered negative tokens.
func NetKarma(actor *domain.Actor, params *Params) float64 {
	net := MeritScore(actor, params)

	for token, desc := range params.Tokens {
		if !desc.Tiered {
			continue
		}
		bal := actor.Balance(token)
		for sev, mult := range desc.TierMultipliers {
			net -= mult * bal.Tier(sev)
		}
	}
	return net
}

// RealmFor maps a net-karma value into exactly one of the four bands. The
// bands are half-open and gap-free: (-inf, b0) is the lowest realm, then
// [b0, b1), [b1, b2), and [b2, +inf) ascending, so every finite value lands
// in exactly one realm.
func RealmFor(netKarma float64, params *Params) domain.Realm {
	b := params.RealmBoundaries
	switch {
	case netKarma < b[0]:
		return domain.RealmSequence[0]
	case netKarma < b[1]:
		return domain.RealmSequence[1]
	case netKarma < b[2]:
		return domain.RealmSequence[2]
	default:
		return domain.RealmSequence[3]
	}
}

// CheckDestinyThreshold compares the actor's destiny counter against the
// configured threshold and returns the boolean outcome with its inputs.
func CheckDestinyThreshold(actor *domain.Actor, params *Params) domain.ThresholdDiagnostics {
	return domain.ThresholdDiagnostics{
		Reached:   actor.DestinyCounter >= params.DestinyThreshold,
		Current:   actor.DestinyCounter,
		Threshold: params.DestinyThreshold,
	}
}

// BuildCarryover computes the rebirth seed for an actor's next life: 10% of
// positive net karma as a positive seed, or 30% of the magnitude of
// negative net karma as a negative seed landing in the tiered harm pool.
// Net karma above the bonus threshold elevates the starting role.
func BuildCarryover(actor *domain.Actor, params *Params) domain.RebirthCarryover {
	net := NetKarma(actor, params)

	carryover := domain.RebirthCarryover{StartingRole: domain.RoleSequence[0]}
	if net >= 0 {
		carryover.SeedToken = domain.TokenDharma
		carryover.SeedAmount = params.PositiveCarryoverRatio * net
	} else {
		carryover.SeedToken = domain.TokenPaap
		carryover.SeedAmount = params.NegativeCarryoverRatio * -net
		carryover.SeedTier = domain.SeverityMedium
	}

	if net > params.RebirthBonusThreshold {
		carryover.StartingRole = params.RebirthBonusRole
	}
	return carryover
}
