package domain

import (
	"time"

	"github.com/google/uuid"
)

// RemedyType names a category of remedial work inside an atonement plan.
type RemedyType string

const (
	// RemedyLessons requires completing extra lessons.
	RemedyLessons RemedyType = "lessons"

	// RemedyService requires hours of community service.
	RemedyService RemedyType = "service"

	// RemedyDonation requires a financial donation and is the one remedy
	// tied to external attestation: proofs must carry a transaction
	// reference.
	RemedyDonation RemedyType = "donation"

	// RemedyMentoring requires mentoring sessions with affected peers.
	RemedyMentoring RemedyType = "mentoring"
)

// IsValid reports whether the remedy type is known.
func (r RemedyType) IsValid() bool {
	switch r {
	case RemedyLessons, RemedyService, RemedyDonation, RemedyMentoring:
		return true
	default:
		return false
	}
}

// RequiresAttestation reports whether proofs for this remedy must carry an
// external transaction reference.
func (r RemedyType) RequiresAttestation() bool {
	return r == RemedyDonation
}

// PlanStatus is the atonement plan state. pending -> completed is the only
// transition; completed is terminal.
type PlanStatus string

const (
	PlanPending   PlanStatus = "pending"
	PlanCompleted PlanStatus = "completed"
)

// AtonementProof records one proof submission against a plan. Non-financial
// remedies are auto-verified on submission.
type AtonementProof struct {
	Remedy      RemedyType `json:"remedy"`
	Amount      float64    `json:"amount"`
	Text        string     `json:"text,omitempty"`
	TxRef       string     `json:"tx_ref,omitempty"`
	Verified    bool       `json:"verified"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// AtonementPlan is the remedial-task state machine created when a harmful
// action is penalized or appealed. It completes when every requirement
// dimension's progress meets its target.
type AtonementPlan struct {
	ID           uuid.UUID              `json:"id"`
	ActorID      uuid.UUID              `json:"actor_id"`
	OriginAction Action                 `json:"origin_action"`
	Severity     Severity               `json:"severity"`
	Requirements map[RemedyType]float64 `json:"requirements"`
	Progress     map[RemedyType]float64 `json:"progress"`
	Proofs       []AtonementProof       `json:"proofs"`
	Status       PlanStatus             `json:"status"`
	CreatedAt    time.Time              `json:"created_at"`
	CompletedAt  *time.Time             `json:"completed_at,omitempty"`
}

// NewAtonementPlan creates a pending plan with zero progress on every
// requirement dimension.
func NewAtonementPlan(
	actorID uuid.UUID,
	origin Action,
	severity Severity,
	requirements map[RemedyType]float64,
) (*AtonementPlan, error) {
	if actorID == uuid.Nil {
		return nil, NewValidationError("actor_id", "cannot be empty", ErrInvalidID)
	}
	if !origin.IsValid() {
		return nil, NewValidationError("origin_action", "is not a known action", ErrInvalidAction)
	}
	if !severity.IsValid() {
		return nil, NewValidationError("severity", "must be minor, medium or major", ErrInvalidSeverity)
	}
	if len(requirements) == 0 {
		return nil, NewValidationError("requirements", "cannot be empty", ErrValidation)
	}

	reqs := make(map[RemedyType]float64, len(requirements))
	progress := make(map[RemedyType]float64, len(requirements))
	for remedy, target := range requirements {
		if !remedy.IsValid() {
			return nil, NewValidationError("requirements", "contains unknown remedy type", ErrUnknownRemedy)
		}
		if target <= 0 {
			return nil, NewValidationError("requirements", "targets must be positive", ErrInvalidAmount)
		}
		reqs[remedy] = target
		progress[remedy] = 0
	}

	return &AtonementPlan{
		ID:           uuid.New(),
		ActorID:      actorID,
		OriginAction: origin,
		Severity:     severity,
		Requirements: reqs,
		Progress:     progress,
		Status:       PlanPending,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// RecordProof validates and applies one proof submission. Unknown remedy
// types and remedies outside the plan's requirement vector are rejected, as
// are attestation-bound remedies without a transaction reference.
func (p *AtonementPlan) RecordProof(remedy RemedyType, amount float64, text, txRef string) error {
	if !remedy.IsValid() {
		return NewValidationError("remedy", "is not a known remedy type", ErrUnknownRemedy)
	}
	if _, ok := p.Requirements[remedy]; !ok {
		return NewValidationError("remedy", "is not part of this plan", ErrUnknownRemedy)
	}
	if amount <= 0 {
		return NewValidationError("amount", "must be positive", ErrInvalidAmount)
	}
	if remedy.RequiresAttestation() && txRef == "" {
		return NewValidationError("tx_ref", "is required for financial remedies", ErrValidation)
	}

	p.Proofs = append(p.Proofs, AtonementProof{
		Remedy:      remedy,
		Amount:      amount,
		Text:        text,
		TxRef:       txRef,
		Verified:    !remedy.RequiresAttestation() || txRef != "",
		SubmittedAt: time.Now().UTC(),
	})
	p.Progress[remedy] += amount
	return nil
}

// IsSatisfied reports whether every requirement dimension's progress has
// reached its target. Partial progress never satisfies a plan.
func (p *AtonementPlan) IsSatisfied() bool {
	for remedy, target := range p.Requirements {
		if p.Progress[remedy] < target {
			return false
		}
	}
	return true
}

// MarkCompleted transitions the plan to completed. Idempotent: re-marking
// an already-completed plan reports false and changes nothing.
func (p *AtonementPlan) MarkCompleted(now time.Time) bool {
	if p.Status == PlanCompleted {
		return false
	}
	p.Status = PlanCompleted
	ts := now.UTC()
	p.CompletedAt = &ts
	return true
}

// Appeal is the parallel record created alongside each atonement plan so
// the review trail survives independently of plan mutations.
type Appeal struct {
	ID        uuid.UUID `json:"id"`
	PlanID    uuid.UUID `json:"plan_id"`
	ActorID   uuid.UUID `json:"actor_id"`
	Action    Action    `json:"action"`
	Severity  Severity  `json:"severity"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewAppeal creates the appeal record for a plan.
func NewAppeal(plan *AtonementPlan, reason string) *Appeal {
	return &Appeal{
		ID:        uuid.New(),
		PlanID:    plan.ID,
		ActorID:   plan.ActorID,
		Action:    plan.OriginAction,
		Severity:  plan.Severity,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
}
