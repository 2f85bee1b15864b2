// Package karma implements the algorithmic core of the ledger: token decay
// and expiry, action classification and rewards, progressive punishment,
// merit scoring and role resolution, and the lifecycle realm and carryover
// computations. Everything here is pure; persistence and side effects live
// in the service layer.
package karma

import (
	"time"

	"github.com/vedhika/samsara-api/internal/domain"
)

// TokenDescriptor is the static configuration for one token. Descriptors
// are immutable at runtime.
type TokenDescriptor struct {
	Name domain.TokenName

	// DailyDecayRate r decays a balance as balance * (1-r)^days.
	DailyDecayRate float64

	// Expiry zeroes the balance once the token's age since creation
	// exceeds it. Zero means the token never expires.
	Expiry time.Duration

	// Tiered marks severity-keyed balances.
	Tiered bool

	// TierMultipliers weight each severity tier when the token enters the
	// net-karma computation. Only set for tiered tokens.
	TierMultipliers map[domain.Severity]float64
}

// Reward is one static reward-table entry: the token credited (or debited,
// for negative amounts) when an action is logged.
type Reward struct {
	Token  domain.TokenName
	Amount float64
}

// PunishmentLevel is one step in the progressive punishment ladder for
// repeated cheating.
type PunishmentLevel struct {
	Label  string
	Token  domain.TokenName
	Amount float64
}

// RoleThreshold binds a role to the minimum merit score that earns it.
type RoleThreshold struct {
	Role domain.Role
	Min  float64
}

// Params defines all configurable parameters for the karmic ledger
// algorithms. Build it with NewDefaultParams; treat the result as
// immutable.
type Params struct {
	// Tokens holds the descriptor for every known token.
	Tokens map[domain.TokenName]TokenDescriptor

	// Rewards is the static action -> reward table. The cheat action is
	// deliberately absent: its punishment is resolved progressively.
	Rewards map[domain.Action]Reward

	// SeverityByAction classifies harmful actions; actions absent from the
	// table carry no severity.
	SeverityByAction map[domain.Action]domain.Severity

	// PaapAccrual is the tiered harm credited for a harmful action at each
	// severity.
	PaapAccrual map[domain.Severity]float64

	// PunishmentLevels index the progressive punishment ladder; the k-th
	// cheat inside the reset window applies level min(k, len). Offenders
	// beyond the ladder get RepeatOffender.
	PunishmentLevels []PunishmentLevel
	RepeatOffender   PunishmentLevel

	// InfractionWindow is the rolling window for counting cheat
	// infractions; older entries are pruned.
	InfractionWindow time.Duration

	// MeritWeights select and weight the tokens that make up the merit
	// score. Tokens absent from the map do not contribute.
	MeritWeights map[domain.TokenName]float64

	// RoleThresholds are ordered ascending by Min; a score resolves to the
	// highest role whose threshold it meets.
	RoleThresholds []RoleThreshold

	// AtonementRequirements is the requirement vector per severity class.
	AtonementRequirements map[domain.Severity]map[domain.RemedyType]float64

	// RestorativeReward is the amount removed from the negative-token pool
	// when a plan of the given severity completes.
	RestorativeReward map[domain.Severity]float64

	// DebtMultipliers scale a debt's raw amount into its principal.
	DebtMultipliers map[domain.Severity]float64

	// RealmBoundaries are the three interior band edges, ascending. They
	// cut the real line into four half-open bands: (-inf, b0) then
	// [b0, b1), [b1, b2), [b2, +inf).
	RealmBoundaries [3]float64

	// DestinyThreshold gates the death event.
	DestinyThreshold float64

	// DestinyPerHarm is the destiny-counter accrual per harmful action at
	// each severity.
	DestinyPerHarm map[domain.Severity]float64

	// Carryover ratios: a rebirth seeds 10% of positive net karma or 30%
	// of the magnitude of negative net karma.
	PositiveCarryoverRatio float64
	NegativeCarryoverRatio float64

	// RebirthBonusThreshold elevates the starting role of the next life
	// when net karma exceeds it.
	RebirthBonusThreshold float64
	RebirthBonusRole      domain.Role

	// Q-learning advisor hyperparameters.
	AdvisorAlpha float64
	AdvisorGamma float64

	// AdvisorPositiveAction is the representative positive action index
	// reused when atonement completion feeds reinforcement back into the
	// advisor.
	AdvisorPositiveAction domain.Action
}

// NewDefaultParams creates a Params instance with the production defaults.
func NewDefaultParams() *Params {
	return &Params{
		Tokens: map[domain.TokenName]TokenDescriptor{
			domain.TokenDharma: {
				Name:           domain.TokenDharma,
				DailyDecayRate: 0.01,
			},
			domain.TokenSeva: {
				Name:           domain.TokenSeva,
				DailyDecayRate: 0.02,
				Expiry:         180 * 24 * time.Hour,
			},
			domain.TokenPunya: {
				Name:           domain.TokenPunya,
				DailyDecayRate: 0.005,
			},
			domain.TokenPaap: {
				Name:           domain.TokenPaap,
				DailyDecayRate: 0.005,
				Tiered:         true,
				TierMultipliers: map[domain.Severity]float64{
					domain.SeverityMinor:  1.0,
					domain.SeverityMedium: 2.5,
					domain.SeverityMajor:  5.0,
				},
			},
		},

		Rewards: map[domain.Action]Reward{
			domain.ActionCompletingLessons:       {Token: domain.TokenDharma, Amount: 10},
			domain.ActionHelpingPeers:            {Token: domain.TokenSeva, Amount: 15},
			domain.ActionTeachingSession:         {Token: domain.TokenDharma, Amount: 25},
			domain.ActionDonation:                {Token: domain.TokenPunya, Amount: 20},
			domain.ActionCommunityService:        {Token: domain.TokenSeva, Amount: 12},
			domain.ActionDisruptingClass:         {Token: domain.TokenDharma, Amount: -5},
			domain.ActionSpreadingMisinformation: {Token: domain.TokenDharma, Amount: -15},
			domain.ActionPlagiarism:              {Token: domain.TokenDharma, Amount: -15},
			domain.ActionHarassment:              {Token: domain.TokenDharma, Amount: -30},
		},

		SeverityByAction: map[domain.Action]domain.Severity{
			domain.ActionDisruptingClass:         domain.SeverityMinor,
			domain.ActionSpreadingMisinformation: domain.SeverityMedium,
			domain.ActionPlagiarism:              domain.SeverityMedium,
			domain.ActionHarassment:              domain.SeverityMajor,
			domain.ActionCheat:                   domain.SeverityMedium,
		},

		PaapAccrual: map[domain.Severity]float64{
			domain.SeverityMinor:  5,
			domain.SeverityMedium: 15,
			domain.SeverityMajor:  30,
		},

		PunishmentLevels: []PunishmentLevel{
			{Label: "first_warning", Token: domain.TokenDharma, Amount: -10},
			{Label: "second_strike", Token: domain.TokenDharma, Amount: -25},
			{Label: "final_warning", Token: domain.TokenDharma, Amount: -50},
		},
		RepeatOffender:   PunishmentLevel{Label: "repeat_offender", Token: domain.TokenDharma, Amount: -100},
		InfractionWindow: 30 * 24 * time.Hour,

		MeritWeights: map[domain.TokenName]float64{
			domain.TokenDharma: 1.0,
			domain.TokenSeva:   0.8,
			domain.TokenPunya:  0.5,
		},

		RoleThresholds: []RoleThreshold{
			{Role: domain.RoleLearner, Min: 0},
			{Role: domain.RoleVolunteer, Min: 50},
			{Role: domain.RoleMentor, Min: 200},
			{Role: domain.RoleGuardian, Min: 500},
			{Role: domain.RoleSage, Min: 1000},
		},

		AtonementRequirements: map[domain.Severity]map[domain.RemedyType]float64{
			domain.SeverityMinor: {
				domain.RemedyLessons: 2,
				domain.RemedyService: 1,
			},
			domain.SeverityMedium: {
				domain.RemedyLessons:   4,
				domain.RemedyService:   3,
				domain.RemedyMentoring: 1,
			},
			domain.SeverityMajor: {
				domain.RemedyLessons:   6,
				domain.RemedyService:   5,
				domain.RemedyDonation:  50,
				domain.RemedyMentoring: 2,
			},
		},

		RestorativeReward: map[domain.Severity]float64{
			domain.SeverityMinor:  3,
			domain.SeverityMedium: 8,
			domain.SeverityMajor:  15,
		},

		DebtMultipliers: map[domain.Severity]float64{
			domain.SeverityMinor:  1.5,
			domain.SeverityMedium: 2.5,
			domain.SeverityMajor:  4.0,
		},

		RealmBoundaries: [3]float64{-100, 100, 500},

		DestinyThreshold: 100,
		DestinyPerHarm: map[domain.Severity]float64{
			domain.SeverityMinor:  2,
			domain.SeverityMedium: 5,
			domain.SeverityMajor:  10,
		},

		PositiveCarryoverRatio: 0.10,
		NegativeCarryoverRatio: 0.30,
		RebirthBonusThreshold:  200,
		RebirthBonusRole:       domain.RoleVolunteer,

		AdvisorAlpha:          0.1,
		AdvisorGamma:          0.9,
		AdvisorPositiveAction: domain.ActionCommunityService,
	}
}
