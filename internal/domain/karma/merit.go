package karma

import (
	"github.com/vedhika/samsara-api/internal/domain"
)

// MeritScore computes the weighted sum of the actor's selected token
// balances. Tokens without a merit weight do not contribute.
func MeritScore(actor *domain.Actor, params *Params) float64 {
	var score float64
	for token, weight := range params.MeritWeights {
		score += weight * actor.Balance(token).Total()
	}
	return score
}

// ResolveRole returns the highest role whose threshold the score meets.
// This is the sole authoritative source of role assignment: it is a pure,
// monotonic nondecreasing function of the merit score, independent of the
// Q-learning advisor.
func ResolveRole(score float64, params *Params) domain.Role {
	role := params.RoleThresholds[0].Role
	for _, threshold := range params.RoleThresholds {
		if score >= threshold.Min {
			role = threshold.Role
		}
	}
	return role
}
