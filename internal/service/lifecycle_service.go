package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/config"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/domain/karma"
	"github.com/vedhika/samsara-api/internal/platform/governance"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/store"
)

// LifecycleServiceError is a custom error type for lifecycle service errors.
type LifecycleServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for LifecycleServiceError.
func (e *LifecycleServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lifecycle service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("lifecycle service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *LifecycleServiceError) Unwrap() error {
	return e.Err
}

// NewLifecycleServiceError creates a new LifecycleServiceError.
func NewLifecycleServiceError(operation, message string, err error) *LifecycleServiceError {
	return &LifecycleServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// RankRemover drops a retired actor from the merit ranking cache.
type RankRemover interface {
	Remove(ctx context.Context, actorID uuid.UUID) error
}

// LifecycleService manages death and rebirth transitions.
//
// Death is the one operation gated on an external authority: the event
// descriptor is prepared first, submitted for authorization, and persisted
// only on approval. Denial and transport failure both leave the ledger
// untouched; they differ only in how they are reported.
type LifecycleService interface {
	// CheckThreshold reports whether the actor's destiny counter has
	// crossed the death threshold, without side effects.
	CheckThreshold(ctx context.Context, actorID uuid.UUID) (domain.ThresholdDiagnostics, error)

	// ProcessDeath attempts the death transition. Returns
	// ErrThresholdNotReached when the destiny counter is below the
	// threshold, and an unauthorized outcome with no mutation when
	// governance denies the event.
	ProcessDeath(ctx context.Context, actorID uuid.UUID) (*DeathOutcome, error)

	// ProcessRebirth consumes the actor's pending death event and applies
	// the configured rebirth policy. Returns ErrRebirthNotPending when no
	// unconsumed death event exists.
	ProcessRebirth(ctx context.Context, actorID uuid.UUID) (*RebirthOutcome, error)
}

// lifecycleServiceImpl implements the LifecycleService interface
type lifecycleServiceImpl struct {
	db          *sql.DB
	actorStore  store.ActorStore
	deathStore  store.DeathStore
	planStore   store.PlanStore
	authorizer  governance.Authorizer
	auditor     AuditRecorder
	leaderboard RankRemover
	policy      config.RebirthPolicy
	params      *karma.Params
	logger      *slog.Logger
}

// LifecycleServiceDeps bundles the dependencies for NewLifecycleService.
// Auditor and Leaderboard are optional.
type LifecycleServiceDeps struct {
	DB          *sql.DB
	ActorStore  store.ActorStore
	DeathStore  store.DeathStore
	PlanStore   store.PlanStore
	Authorizer  governance.Authorizer
	Auditor     AuditRecorder
	Leaderboard RankRemover
	Policy      config.RebirthPolicy
	Params      *karma.Params
	Logger      *slog.Logger
}

// NewLifecycleService creates a new LifecycleService.
// It returns an error if any of the required dependencies are nil.
func NewLifecycleService(deps LifecycleServiceDeps) (LifecycleService, error) {
	if deps.DB == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if deps.ActorStore == nil {
		return nil, domain.NewValidationError("actorStore", "cannot be nil", domain.ErrValidation)
	}
	if deps.DeathStore == nil {
		return nil, domain.NewValidationError("deathStore", "cannot be nil", domain.ErrValidation)
	}
	if deps.PlanStore == nil {
		return nil, domain.NewValidationError("planStore", "cannot be nil", domain.ErrValidation)
	}
	if deps.Authorizer == nil {
		return nil, domain.NewValidationError("authorizer", "cannot be nil", domain.ErrValidation)
	}
	if deps.Policy == "" {
		deps.Policy = config.RebirthResetInPlace
	}
	if deps.Params == nil {
		deps.Params = karma.NewDefaultParams()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &lifecycleServiceImpl{
		db:          deps.DB,
		actorStore:  deps.ActorStore,
		deathStore:  deps.DeathStore,
		planStore:   deps.PlanStore,
		authorizer:  deps.Authorizer,
		auditor:     deps.Auditor,
		leaderboard: deps.Leaderboard,
		policy:      deps.Policy,
		params:      deps.Params,
		logger:      deps.Logger.With(slog.String("component", "lifecycle_service")),
	}, nil
}

// CheckThreshold implements LifecycleService.CheckThreshold
func (s *lifecycleServiceImpl) CheckThreshold(ctx context.Context, actorID uuid.UUID) (domain.ThresholdDiagnostics, error) {
	actor, err := s.actorStore.GetByID(ctx, actorID)
	if err != nil {
		return domain.ThresholdDiagnostics{}, err
	}
	return karma.CheckDestinyThreshold(actor, s.params), nil
}

// ProcessDeath implements LifecycleService.ProcessDeath
func (s *lifecycleServiceImpl) ProcessDeath(ctx context.Context, actorID uuid.UUID) (*DeathOutcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Prepare: decay first so the snapshot and carryover read current
	// values, then build the event without persisting anything.
	actor, err := refreshActor(ctx, s.db, s.actorStore, s.params, actorID)
	if err != nil {
		return nil, err
	}

	diag := karma.CheckDestinyThreshold(actor, s.params)
	if !diag.Reached {
		return nil, fmt.Errorf("%w: destiny %.1f below %.1f",
			ErrThresholdNotReached, diag.Current, diag.Threshold)
	}

	net := karma.NetKarma(actor, s.params)
	realm := karma.RealmFor(net, s.params)
	carryover := karma.BuildCarryover(actor, s.params)
	event := domain.NewDeathEvent(actor, realm, net, carryover)

	// Authorize: the external authority decides before anything commits.
	authorized, err := s.authorizer.Authorize(ctx, governance.EventDescriptor{
		EventType: "death",
		ActorID:   actor.ID,
		Realm:     string(realm),
		NetKarma:  net,
		Destiny:   diag.Current,
		Threshold: diag.Threshold,
	})
	if err != nil {
		return nil, NewLifecycleServiceError("process_death", "governance call failed", err)
	}
	if !authorized {
		log.Info("death denied by governance",
			slog.String("actor_id", actor.ID.String()),
			slog.String("realm", string(realm)))
		s.record(ctx, "death_denied", actor.ID, map[string]any{
			"realm":     string(realm),
			"net_karma": net,
		})
		return &DeathOutcome{Authorized: false, Diagnostics: diag}, nil
	}

	// Commit: the immutable event is written only now.
	if err := s.deathStore.Create(ctx, event); err != nil {
		return nil, NewLifecycleServiceError("process_death", "failed to persist death event", err)
	}

	outcome := &DeathOutcome{Authorized: true, Diagnostics: diag, Event: event}
	s.recordWithOutcome(ctx, outcome, "death_committed", actor.ID, map[string]any{
		"event_id":  event.ID.String(),
		"realm":     string(realm),
		"net_karma": net,
	})

	log.Info("death committed",
		slog.String("actor_id", actor.ID.String()),
		slog.String("event_id", event.ID.String()),
		slog.String("realm", string(realm)),
		slog.Float64("net_karma", net))
	return outcome, nil
}

// ProcessRebirth implements LifecycleService.ProcessRebirth
func (s *lifecycleServiceImpl) ProcessRebirth(ctx context.Context, actorID uuid.UUID) (*RebirthOutcome, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := s.deathStore.LatestByActor(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrDeathEventNotFound) {
			return nil, fmt.Errorf("%w: actor %s has no death event", ErrRebirthNotPending, actorID)
		}
		return nil, NewLifecycleServiceError("process_rebirth", "failed to load death event", err)
	}
	if event.RebirthAppliedAt != nil {
		return nil, fmt.Errorf("%w: death event %s already consumed", ErrRebirthNotPending, event.ID)
	}

	now := time.Now().UTC()

	// Consuming the event first makes the rebirth single-shot: a second
	// caller loses the compare-and-swap and gets ErrRebirthNotPending.
	if err := s.deathStore.MarkRebirthApplied(ctx, event.ID, now); err != nil {
		if errors.Is(err, store.ErrUpdateFailed) {
			return nil, fmt.Errorf("%w: death event %s already consumed", ErrRebirthNotPending, event.ID)
		}
		return nil, NewLifecycleServiceError("process_rebirth", "failed to consume death event", err)
	}

	var outcome *RebirthOutcome
	switch s.policy {
	case config.RebirthNewActor:
		outcome, err = s.rebirthNewActor(ctx, actorID, event, now)
	default:
		outcome, err = s.rebirthInPlace(ctx, actorID, event, now)
	}
	if err != nil {
		return nil, err
	}

	s.recordRebirth(ctx, outcome, event)
	log.Info("rebirth applied",
		slog.String("actor_id", outcome.ActorID.String()),
		slog.String("event_id", event.ID.String()),
		slog.String("policy", string(s.policy)),
		slog.String("starting_role", string(outcome.StartingRole)))
	return outcome, nil
}

// rebirthInPlace resets the existing actor: seeded balances, zeroed destiny,
// base-or-bonus role, cleared infractions, discarded pending plans.
func (s *lifecycleServiceImpl) rebirthInPlace(
	ctx context.Context,
	actorID uuid.UUID,
	event *domain.DeathEvent,
	now time.Time,
) (*RebirthOutcome, error) {
	carryover := event.Carryover
	balances, meta := seedBalances(carryover, now)

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		actors := s.actorStore.WithTx(tx)
		if err := actors.ReplaceBalances(ctx, actorID, balances, meta); err != nil {
			return err
		}
		if err := actors.ResetDestiny(ctx, actorID); err != nil {
			return err
		}
		if err := actors.IncrementRebirth(ctx, actorID); err != nil {
			return err
		}
		if err := actors.UpdateRole(ctx, actorID, carryover.StartingRole); err != nil {
			return err
		}
		return actors.ReplaceInfractions(ctx, actorID, nil)
	})
	if err != nil {
		return nil, NewLifecycleServiceError("process_rebirth", "failed to reset actor", err)
	}

	outcome := &RebirthOutcome{
		ActorID:      actorID,
		Carryover:    carryover,
		StartingRole: carryover.StartingRole,
	}

	discarded, err := s.planStore.DiscardPending(ctx, actorID)
	if err != nil {
		outcome.Auxiliary = append(outcome.Auxiliary, failedOutcome("discard_plans", err))
	} else {
		outcome.DiscardedPlans = discarded
	}
	return outcome, nil
}

// rebirthNewActor retires the old record and creates a fresh actor seeded
// with the carryover.
func (s *lifecycleServiceImpl) rebirthNewActor(
	ctx context.Context,
	actorID uuid.UUID,
	event *domain.DeathEvent,
	now time.Time,
) (*RebirthOutcome, error) {
	carryover := event.Carryover

	successor, err := domain.NewActor(uuid.New())
	if err != nil {
		return nil, NewLifecycleServiceError("process_rebirth", "failed to build successor", err)
	}
	successor.Role = carryover.StartingRole
	successor.Balances, successor.TokenMeta = seedBalances(carryover, now)

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		actors := s.actorStore.WithTx(tx)
		if err := actors.Retire(ctx, actorID, now); err != nil {
			return err
		}
		return actors.Create(ctx, successor)
	})
	if err != nil {
		return nil, NewLifecycleServiceError("process_rebirth", "failed to create successor", err)
	}

	previous := actorID
	outcome := &RebirthOutcome{
		ActorID:         successor.ID,
		PreviousActorID: &previous,
		Carryover:       carryover,
		StartingRole:    carryover.StartingRole,
	}

	discarded, err := s.planStore.DiscardPending(ctx, actorID)
	if err != nil {
		outcome.Auxiliary = append(outcome.Auxiliary, failedOutcome("discard_plans", err))
	} else {
		outcome.DiscardedPlans = discarded
	}

	if s.leaderboard != nil {
		if err := s.leaderboard.Remove(ctx, actorID); err != nil {
			outcome.Auxiliary = append(outcome.Auxiliary, failedOutcome("leaderboard", err))
		}
	}
	return outcome, nil
}

// seedBalances builds the reborn ledger from a carryover: exactly one token
// holds the seed amount, everything else starts empty.
func seedBalances(
	carryover domain.RebirthCarryover,
	now time.Time,
) (map[domain.TokenName]domain.Balance, map[domain.TokenName]domain.TokenMeta) {
	balances := make(map[domain.TokenName]domain.Balance)
	meta := make(map[domain.TokenName]domain.TokenMeta)
	if carryover.SeedAmount <= 0 {
		return balances, meta
	}

	if carryover.SeedTier != "" {
		balances[carryover.SeedToken] = domain.TieredBalance(map[domain.Severity]float64{
			carryover.SeedTier: carryover.SeedAmount,
		})
	} else {
		balances[carryover.SeedToken] = domain.SimpleBalance(carryover.SeedAmount)
	}
	meta[carryover.SeedToken] = domain.TokenMeta{CreatedAt: now, UpdatedAt: now}
	return balances, meta
}

func (s *lifecycleServiceImpl) recordRebirth(ctx context.Context, outcome *RebirthOutcome, event *domain.DeathEvent) {
	payload := map[string]any{
		"event_id":        event.ID.String(),
		"starting_role":   string(outcome.StartingRole),
		"seed_token":      string(outcome.Carryover.SeedToken),
		"seed_amount":     outcome.Carryover.SeedAmount,
		"discarded_plans": outcome.DiscardedPlans,
	}
	if outcome.PreviousActorID != nil {
		payload["previous_actor_id"] = outcome.PreviousActorID.String()
	}
	s.recordOutcomeAux(ctx, &outcome.Auxiliary, "rebirth_applied", outcome.ActorID, payload)
}

func (s *lifecycleServiceImpl) record(ctx context.Context, eventType string, actorID uuid.UUID, payload map[string]any) {
	if s.auditor == nil {
		return
	}
	if _, err := s.auditor.RecordEvent(ctx, eventType, actorID.String(), payload); err != nil {
		s.logger.Warn("audit record failed",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType))
	}
}

func (s *lifecycleServiceImpl) recordWithOutcome(
	ctx context.Context,
	outcome *DeathOutcome,
	eventType string,
	actorID uuid.UUID,
	payload map[string]any,
) {
	s.recordOutcomeAux(ctx, &outcome.Auxiliary, eventType, actorID, payload)
}

func (s *lifecycleServiceImpl) recordOutcomeAux(
	ctx context.Context,
	aux *[]AuxiliaryOutcome,
	eventType string,
	actorID uuid.UUID,
	payload map[string]any,
) {
	if s.auditor == nil {
		return
	}
	if _, err := s.auditor.RecordEvent(ctx, eventType, actorID.String(), payload); err != nil {
		s.logger.Warn("audit record failed",
			slog.String("error", err.Error()),
			slog.String("event_type", eventType))
		*aux = append(*aux, failedOutcome("audit", err))
		return
	}
	*aux = append(*aux, AuxiliaryOutcome{Effect: "audit", OK: true})
}
