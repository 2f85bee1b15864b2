package karma

import (
	"time"

	"github.com/vedhika/samsara-api/internal/domain"
)

// ClassifyAction returns the severity class of a harmful action, or false
// when the action carries no severity.
func ClassifyAction(action domain.Action, params *Params) (domain.Severity, bool) {
	sev, ok := params.SeverityByAction[action]
	return sev, ok
}

// RewardFor resolves the static reward-table entry for an action. The
// cheat action has no static entry; resolve it through
// ProgressivePunishment instead.
func RewardFor(action domain.Action, params *Params) (Reward, bool) {
	reward, ok := params.Rewards[action]
	return reward, ok
}

// PunishmentOutcome is the result of resolving a cheat action through the
// progressive punishment ladder.
type PunishmentOutcome struct {
	Level          PunishmentLevel
	CheatsInPeriod int
}

// ProgressivePunishment resolves the punishment for a cheat: count prior
// infractions inside the reset window, let k = count+1, and apply ladder
// level min(k, maxLevel) or the repeat-offender entry beyond the ladder.
// The new infraction is recorded in the actor's rolling history and entries
// older than the window are pruned; the caller persists both.
func ProgressivePunishment(actor *domain.Actor, now time.Time, params *Params) PunishmentOutcome {
	cutoff := now.Add(-params.InfractionWindow)
	k := actor.InfractionsSince(cutoff) + 1

	var level PunishmentLevel
	if k <= len(params.PunishmentLevels) {
		level = params.PunishmentLevels[k-1]
	} else {
		level = params.RepeatOffender
	}

	actor.InfractionHistory = append(actor.InfractionHistory, now)
	actor.PruneInfractions(cutoff)

	return PunishmentOutcome{Level: level, CheatsInPeriod: k}
}
