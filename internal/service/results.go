package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/domain"
)

// AuxiliaryOutcome reports one secondary effect of an operation. Secondary
// failures never fail the primary mutation; they surface here instead.
type AuxiliaryOutcome struct {
	// Effect names the secondary effect, e.g. "transaction_log",
	// "debt_creation", "audit", "advisor", "leaderboard".
	Effect string `json:"effect"`

	// OK is false when the effect failed.
	OK bool `json:"ok"`

	// Error carries the failure detail when OK is false.
	Error string `json:"error,omitempty"`
}

// RewardInfo describes the balance delta a logged action produced.
type RewardInfo struct {
	Token  domain.TokenName   `json:"token"`
	Amount float64            `json:"amount"`
	Intent domain.IntentClass `json:"intent"`

	// Punishment labels the progressive punishment level, set only for
	// cheat actions.
	Punishment string `json:"punishment,omitempty"`

	// CheatsInPeriod is the infraction count inside the rolling window
	// including this one, set only for cheat actions.
	CheatsInPeriod int `json:"cheats_in_period,omitempty"`
}

// PaapInfo describes the tiered harm accrued by a harmful action.
type PaapInfo struct {
	Severity domain.Severity `json:"severity"`
	Accrued  float64         `json:"accrued"`
	Total    float64         `json:"total"`
}

// LogActionResult is the primary outcome of logging an action.
type LogActionResult struct {
	ActorID uuid.UUID     `json:"actor_id"`
	Action  domain.Action `json:"action"`

	// CurrentRole is the authoritative role after merit re-resolution.
	CurrentRole domain.Role `json:"current_role"`

	// PredictedNextRole is the advisor's merit-simulated prediction. It is
	// advisory only and empty when the advisor update failed.
	PredictedNextRole domain.Role `json:"predicted_next_role,omitempty"`

	MeritScore float64    `json:"merit_score"`
	Reward     RewardInfo `json:"reward"`

	// Paap is set when the action carried a severity class.
	Paap *PaapInfo `json:"paap,omitempty"`

	// Debt is set when a harmful action against another actor created an
	// obligation.
	Debt *domain.DebtRelationship `json:"debt,omitempty"`

	// Auxiliary lists the secondary effects and their outcomes.
	Auxiliary []AuxiliaryOutcome `json:"auxiliary,omitempty"`
}

// RedeemResult reports the balance left after a redemption.
type RedeemResult struct {
	ActorID   uuid.UUID        `json:"actor_id"`
	Token     domain.TokenName `json:"token"`
	Redeemed  float64          `json:"redeemed"`
	Remaining float64          `json:"remaining"`
}

// BalanceView is the read-only balance surface for one actor, with decay
// freshly applied.
type BalanceView struct {
	ActorID    uuid.UUID                           `json:"actor_id"`
	Role       domain.Role                         `json:"role"`
	Balances   map[domain.TokenName]domain.Balance `json:"balances"`
	MeritScore float64                             `json:"merit_score"`
	AsOf       time.Time                           `json:"as_of"`
}

// UserStats aggregates one actor's ledger standing.
type UserStats struct {
	ActorID        uuid.UUID             `json:"actor_id"`
	Role           domain.Role           `json:"role"`
	MeritScore     float64               `json:"merit_score"`
	NetKarma       float64               `json:"net_karma"`
	Realm          domain.Realm          `json:"realm"`
	DestinyCounter float64               `json:"destiny_counter"`
	RebirthCount   int                   `json:"rebirth_count"`
	CheatsInPeriod int                   `json:"cheats_in_period"`
	ActiveDebts    int                   `json:"active_debts"`
	PendingPlans   int                   `json:"pending_plans"`
	Transactions   []*domain.Transaction `json:"recent_transactions"`
}

// SystemStats aggregates platform-wide ledger activity.
type SystemStats struct {
	Actors            int64     `json:"actors"`
	TransactionsToday int64     `json:"transactions_today"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// DeathOutcome is the result of a death transition attempt.
type DeathOutcome struct {
	// Authorized is false when governance denied the event; nothing was
	// mutated in that case.
	Authorized bool `json:"authorized"`

	Diagnostics domain.ThresholdDiagnostics `json:"diagnostics"`
	Event       *domain.DeathEvent          `json:"event,omitempty"`
	Auxiliary   []AuxiliaryOutcome          `json:"auxiliary,omitempty"`
}

// RebirthOutcome is the result of applying a rebirth.
type RebirthOutcome struct {
	// ActorID is the reborn actor: the original under reset-in-place, a
	// fresh actor under the new-actor policy.
	ActorID uuid.UUID `json:"actor_id"`

	// PreviousActorID is set under the new-actor policy.
	PreviousActorID *uuid.UUID `json:"previous_actor_id,omitempty"`

	Carryover      domain.RebirthCarryover `json:"carryover"`
	StartingRole   domain.Role             `json:"starting_role"`
	DiscardedPlans int64                   `json:"discarded_plans"`
	Auxiliary      []AuxiliaryOutcome      `json:"auxiliary,omitempty"`
}
