package domain

import (
	"time"

	"github.com/google/uuid"
)

// Realm is one of four outcome bands assigned at a lifecycle-ending event
// based on net karma. The bands partition the real line: half-open,
// gap-free, lowest unbounded below and highest unbounded above.
type Realm string

const (
	RealmNaraka Realm = "naraka"
	RealmBhumi  Realm = "bhumi"
	RealmSvarga Realm = "svarga"
	RealmMoksha Realm = "moksha"
)

// RealmSequence lists the realms from lowest to highest band.
var RealmSequence = []Realm{RealmNaraka, RealmBhumi, RealmSvarga, RealmMoksha}

// RebirthCarryover seeds a reset ledger after a lifecycle-ending event.
type RebirthCarryover struct {
	// SeedToken receives the seed amount: the positive token for positive
	// net karma, the tiered negative token otherwise.
	SeedToken TokenName `json:"seed_token"`

	// SeedAmount is 10% of positive net karma, or 30% of the magnitude of
	// negative net karma.
	SeedAmount float64 `json:"seed_amount"`

	// SeedTier is set when the seed lands in a tiered balance.
	SeedTier Severity `json:"seed_tier,omitempty"`

	// StartingRole is the role the next life begins at: elevated above the
	// base role when net karma exceeded the bonus threshold.
	StartingRole Role `json:"starting_role"`
}

// DeathEvent is the immutable record of one lifecycle transition. It is
// created exactly once per transition, only after the governance
// collaborator explicitly authorized it.
type DeathEvent struct {
	ID        uuid.UUID        `json:"id"`
	ActorID   uuid.UUID        `json:"actor_id"`
	Realm     Realm            `json:"realm"`
	NetKarma  float64          `json:"net_karma"`
	Carryover RebirthCarryover `json:"carryover"`

	// BalancesSnapshot preserves the ledger as it stood at death.
	BalancesSnapshot map[TokenName]Balance `json:"balances_snapshot"`

	// RebirthAppliedAt is set when the separate rebirth call consumed the
	// carryover; nil while the event is still pending rebirth.
	RebirthAppliedAt *time.Time `json:"rebirth_applied_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// NewDeathEvent snapshots the actor's ledger into an immutable record.
func NewDeathEvent(actor *Actor, realm Realm, netKarma float64, carryover RebirthCarryover) *DeathEvent {
	snapshot := make(map[TokenName]Balance, len(actor.Balances))
	for token, bal := range actor.Balances {
		snapshot[token] = bal.Clone()
	}

	return &DeathEvent{
		ID:               uuid.New(),
		ActorID:          actor.ID,
		Realm:            realm,
		NetKarma:         netKarma,
		Carryover:        carryover,
		BalancesSnapshot: snapshot,
		CreatedAt:        time.Now().UTC(),
	}
}

// ThresholdDiagnostics explains a death-threshold check: the boolean
// outcome plus the values behind it.
type ThresholdDiagnostics struct {
	Reached   bool    `json:"reached"`
	Current   float64 `json:"current"`
	Threshold float64 `json:"threshold"`
}
