package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/advisor"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/domain/karma"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/store"
)

// AtonementServiceError is a custom error type for atonement service errors.
type AtonementServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for AtonementServiceError.
func (e *AtonementServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("atonement service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("atonement service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *AtonementServiceError) Unwrap() error {
	return e.Err
}

// NewAtonementServiceError creates a new AtonementServiceError.
func NewAtonementServiceError(operation, message string, err error) *AtonementServiceError {
	return &AtonementServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// PlanReinforcer is the advisory hook fired when a plan completes.
type PlanReinforcer interface {
	Reinforce(ctx context.Context, actor *domain.Actor, reward float64) (advisor.Observation, error)
}

// SubmitProofResult reports the plan state after one proof submission.
type SubmitProofResult struct {
	Plan *domain.AtonementPlan `json:"plan"`

	// Completed is true only on the submission that satisfied the plan;
	// resubmitting against a completed plan reports false.
	Completed bool `json:"completed"`

	// Restored is the amount removed from the harm pool on completion.
	Restored float64 `json:"restored,omitempty"`

	Auxiliary []AuxiliaryOutcome `json:"auxiliary,omitempty"`
}

// AtonementService manages remedial plans for harmful actions.
type AtonementService interface {
	// CreatePlan opens a pending plan (plus its appeal record) for a
	// penalized harmful action, with the requirement vector scaled by the
	// action's severity class.
	CreatePlan(ctx context.Context, actorID uuid.UUID, origin domain.Action, reason string) (*domain.AtonementPlan, error)

	// SubmitProof records one proof against a pending plan and, when every
	// requirement dimension is satisfied, completes the plan and restores
	// part of the harm balance.
	SubmitProof(
		ctx context.Context,
		planID uuid.UUID,
		remedy domain.RemedyType,
		amount float64,
		text, txRef string,
	) (*SubmitProofResult, error)

	// ListPlans returns the actor's plans, optionally filtered by status.
	ListPlans(ctx context.Context, actorID uuid.UUID, status *domain.PlanStatus) ([]*domain.AtonementPlan, error)
}

// atonementServiceImpl implements the AtonementService interface
type atonementServiceImpl struct {
	planStore  store.PlanStore
	actorStore store.ActorStore
	reinforcer PlanReinforcer
	auditor    AuditRecorder
	params     *karma.Params
	logger     *slog.Logger
}

// NewAtonementService creates a new AtonementService.
// It returns an error if any of the required dependencies are nil.
func NewAtonementService(
	planStore store.PlanStore,
	actorStore store.ActorStore,
	reinforcer PlanReinforcer,
	auditor AuditRecorder,
	params *karma.Params,
	logger *slog.Logger,
) (AtonementService, error) {
	if planStore == nil {
		return nil, domain.NewValidationError("planStore", "cannot be nil", domain.ErrValidation)
	}
	if actorStore == nil {
		return nil, domain.NewValidationError("actorStore", "cannot be nil", domain.ErrValidation)
	}
	if params == nil {
		params = karma.NewDefaultParams()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &atonementServiceImpl{
		planStore:  planStore,
		actorStore: actorStore,
		reinforcer: reinforcer,
		auditor:    auditor,
		params:     params,
		logger:     logger.With(slog.String("component", "atonement_service")),
	}, nil
}

// CreatePlan implements AtonementService.CreatePlan
func (s *atonementServiceImpl) CreatePlan(
	ctx context.Context,
	actorID uuid.UUID,
	origin domain.Action,
	reason string,
) (*domain.AtonementPlan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	severity, harmful := karma.ClassifyAction(origin, s.params)
	if !harmful {
		return nil, domain.NewValidationError("origin_action", "is not a harmful action", domain.ErrInvalidAction)
	}

	actor, err := s.actorStore.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.RetiredAt != nil {
		return nil, fmt.Errorf("%w: %s", ErrActorRetired, actorID)
	}

	requirements := s.params.AtonementRequirements[severity]
	plan, err := domain.NewAtonementPlan(actorID, origin, severity, requirements)
	if err != nil {
		return nil, NewAtonementServiceError("create_plan", "failed to build plan", err)
	}
	appeal := domain.NewAppeal(plan, reason)

	if err := s.planStore.Create(ctx, plan, appeal); err != nil {
		return nil, NewAtonementServiceError("create_plan", "failed to persist plan", err)
	}

	s.record(ctx, "atonement_plan_created", actorID, map[string]any{
		"plan_id":       plan.ID.String(),
		"origin_action": string(origin),
		"severity":      string(severity),
	})

	log.Info("atonement plan created",
		slog.String("actor_id", actorID.String()),
		slog.String("plan_id", plan.ID.String()),
		slog.String("severity", string(severity)))
	return plan, nil
}

// SubmitProof implements AtonementService.SubmitProof
func (s *atonementServiceImpl) SubmitProof(
	ctx context.Context,
	planID uuid.UUID,
	remedy domain.RemedyType,
	amount float64,
	text, txRef string,
) (*SubmitProofResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	plan, err := s.planStore.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}

	// Proofs against a completed plan are accepted and ignored rather than
	// rejected, so retried submissions stay harmless.
	if plan.Status == domain.PlanCompleted {
		return &SubmitProofResult{Plan: plan, Completed: false}, nil
	}

	if err := plan.RecordProof(remedy, amount, text, txRef); err != nil {
		return nil, err
	}

	result := &SubmitProofResult{Plan: plan}
	if plan.IsSatisfied() && plan.MarkCompleted(time.Now()) {
		result.Completed = true
		result.Restored = s.params.RestorativeReward[plan.Severity]
	}

	if err := s.planStore.Update(ctx, plan); err != nil {
		return nil, NewAtonementServiceError("submit_proof", "failed to persist progress", err)
	}

	if result.Completed {
		s.applyCompletion(ctx, plan, result)
		log.Info("atonement plan completed",
			slog.String("actor_id", plan.ActorID.String()),
			slog.String("plan_id", plan.ID.String()),
			slog.Float64("restored", result.Restored))
	}

	return result, nil
}

// ListPlans implements AtonementService.ListPlans
func (s *atonementServiceImpl) ListPlans(
	ctx context.Context,
	actorID uuid.UUID,
	status *domain.PlanStatus,
) ([]*domain.AtonementPlan, error) {
	plans, err := s.planStore.ListByActor(ctx, actorID, status)
	if err != nil {
		return nil, NewAtonementServiceError("list_plans", "failed to list plans", err)
	}
	return plans, nil
}

// applyCompletion runs the completion side effects: restorative balance
// relief, the positive advisory signal, and the audit record. Persisting the
// completed status already succeeded, so none of these are fatal.
func (s *atonementServiceImpl) applyCompletion(
	ctx context.Context,
	plan *domain.AtonementPlan,
	result *SubmitProofResult,
) {
	if _, err := s.actorStore.AdjustBalance(ctx, plan.ActorID, domain.TokenPaap, plan.Severity, -result.Restored); err != nil {
		result.Auxiliary = append(result.Auxiliary, failedOutcome("restoration", err))
	} else {
		result.Auxiliary = append(result.Auxiliary, AuxiliaryOutcome{Effect: "restoration", OK: true})
	}

	if s.reinforcer != nil {
		actor, err := s.actorStore.GetByID(ctx, plan.ActorID)
		if err == nil {
			_, err = s.reinforcer.Reinforce(ctx, actor, result.Restored)
		}
		if err != nil {
			result.Auxiliary = append(result.Auxiliary, failedOutcome("advisor", err))
		} else {
			result.Auxiliary = append(result.Auxiliary, AuxiliaryOutcome{Effect: "advisor", OK: true})
		}
	}

	s.record(ctx, "atonement_plan_completed", plan.ActorID, map[string]any{
		"plan_id":  plan.ID.String(),
		"severity": string(plan.Severity),
		"restored": result.Restored,
	})
}

func (s *atonementServiceImpl) record(ctx context.Context, eventType string, actorID uuid.UUID, payload map[string]any) {
	if s.auditor == nil {
		return
	}
	if _, err := s.auditor.RecordEvent(ctx, eventType, actorID.String(), payload); err != nil {
		s.logger.Warn("audit record failed",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType))
	}
}
