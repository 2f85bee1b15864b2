package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/advisor"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/domain/karma"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/store"
)

// KarmaServiceError is a custom error type for karma service errors.
type KarmaServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for KarmaServiceError.
func (e *KarmaServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("karma service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("karma service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *KarmaServiceError) Unwrap() error {
	return e.Err
}

// NewKarmaServiceError creates a new KarmaServiceError.
func NewKarmaServiceError(operation, message string, err error) *KarmaServiceError {
	return &KarmaServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// RoleAdvisor is the advisory side-channel as consumed by this service.
// Its output never decides the actor's actual role.
type RoleAdvisor interface {
	Observe(
		ctx context.Context,
		actor *domain.Actor,
		currentRole domain.Role,
		action domain.Action,
		reward float64,
	) (advisor.Observation, error)
}

// MeritLeaderboard is the optional merit ranking cache. A nil implementation
// disables it; failures are never fatal.
type MeritLeaderboard interface {
	UpdateScore(ctx context.Context, actorID uuid.UUID, score float64) error
}

// LogActionParams bundles the inputs for LogAction.
type LogActionParams struct {
	ActorID uuid.UUID
	Action  domain.Action

	// Role is the caller's view of the actor's current role, used as the
	// advisor's state index.
	Role domain.Role

	Note string

	// AffectedActorID identifies the actor harmed by the action; harmful
	// actions against a named actor create a debt relationship.
	AffectedActorID *uuid.UUID
}

// KarmaService provides the core ledger operations
type KarmaService interface {
	// CreateActor registers a fresh actor at the base role.
	CreateActor(ctx context.Context) (*domain.Actor, error)

	// LogAction runs the full action pipeline: decay, classification and
	// reward (or progressive punishment), atomic balance increments, merit
	// and role re-resolution, the advisory side-channel, and the non-fatal
	// secondary effects.
	LogAction(ctx context.Context, params LogActionParams) (*LogActionResult, error)

	// Redeem spends amount of a simple token, rejecting the call when the
	// balance cannot cover it.
	Redeem(ctx context.Context, actorID uuid.UUID, token domain.TokenName, amount float64) (*RedeemResult, error)

	// ViewBalance returns the actor's balances with decay freshly applied.
	ViewBalance(ctx context.Context, actorID uuid.UUID) (*BalanceView, error)

	// UserStats aggregates one actor's ledger standing.
	UserStats(ctx context.Context, actorID uuid.UUID) (*UserStats, error)

	// SystemStats aggregates platform-wide activity.
	SystemStats(ctx context.Context) (*SystemStats, error)
}

// karmaServiceImpl implements the KarmaService interface
type karmaServiceImpl struct {
	db          *sql.DB
	actorStore  store.ActorStore
	txnStore    store.TransactionStore
	debtStore   store.DebtStore
	planStore   store.PlanStore
	roleAdvisor RoleAdvisor
	auditor     AuditRecorder
	leaderboard MeritLeaderboard
	params      *karma.Params
	logger      *slog.Logger
}

// KarmaServiceDeps bundles the dependencies for NewKarmaService.
// RoleAdvisor, Auditor and Leaderboard are optional; the corresponding
// side effects are skipped when nil.
type KarmaServiceDeps struct {
	DB          *sql.DB
	ActorStore  store.ActorStore
	TxnStore    store.TransactionStore
	DebtStore   store.DebtStore
	PlanStore   store.PlanStore
	RoleAdvisor RoleAdvisor
	Auditor     AuditRecorder
	Leaderboard MeritLeaderboard
	Params      *karma.Params
	Logger      *slog.Logger
}

// NewKarmaService creates a new KarmaService.
// It returns an error if any of the required dependencies are nil.
func NewKarmaService(deps KarmaServiceDeps) (KarmaService, error) {
	if deps.DB == nil {
		return nil, domain.NewValidationError("db", "cannot be nil", domain.ErrValidation)
	}
	if deps.ActorStore == nil {
		return nil, domain.NewValidationError("actorStore", "cannot be nil", domain.ErrValidation)
	}
	if deps.TxnStore == nil {
		return nil, domain.NewValidationError("txnStore", "cannot be nil", domain.ErrValidation)
	}
	if deps.DebtStore == nil {
		return nil, domain.NewValidationError("debtStore", "cannot be nil", domain.ErrValidation)
	}
	if deps.PlanStore == nil {
		return nil, domain.NewValidationError("planStore", "cannot be nil", domain.ErrValidation)
	}
	if deps.Params == nil {
		deps.Params = karma.NewDefaultParams()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	return &karmaServiceImpl{
		db:          deps.DB,
		actorStore:  deps.ActorStore,
		txnStore:    deps.TxnStore,
		debtStore:   deps.DebtStore,
		planStore:   deps.PlanStore,
		roleAdvisor: deps.RoleAdvisor,
		auditor:     deps.Auditor,
		leaderboard: deps.Leaderboard,
		params:      deps.Params,
		logger:      deps.Logger.With(slog.String("component", "karma_service")),
	}, nil
}

// CreateActor implements KarmaService.CreateActor
func (s *karmaServiceImpl) CreateActor(ctx context.Context) (*domain.Actor, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	actor, err := domain.NewActor(uuid.New())
	if err != nil {
		return nil, NewKarmaServiceError("create_actor", "failed to build actor", err)
	}
	if err := s.actorStore.Create(ctx, actor); err != nil {
		return nil, NewKarmaServiceError("create_actor", "failed to persist actor", err)
	}

	s.recordAudit(ctx, nil, "actor_created", actor.ID, map[string]any{
		"role": string(actor.Role),
	})

	log.Info("actor created", slog.String("actor_id", actor.ID.String()))
	return actor, nil
}

// LogAction implements KarmaService.LogAction
func (s *karmaServiceImpl) LogAction(ctx context.Context, params LogActionParams) (*LogActionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Enum validation happens before any mutation.
	if !params.Action.IsValid() {
		return nil, domain.NewValidationError("action", "is not a known action", domain.ErrInvalidAction)
	}
	if !params.Role.IsValid() {
		return nil, domain.NewValidationError("role", "is not a known role", domain.ErrInvalidRole)
	}

	actor, err := s.loadFreshActor(ctx, params.ActorID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	result := &LogActionResult{
		ActorID: actor.ID,
		Action:  params.Action,
	}

	// Classification: cheat resolves through the progressive punishment
	// ladder, everything else through the static reward table.
	var reward RewardInfo
	if params.Action == domain.ActionCheat {
		outcome := karma.ProgressivePunishment(actor, now, s.params)
		reward = RewardInfo{
			Token:          outcome.Level.Token,
			Amount:         outcome.Level.Amount,
			Intent:         domain.IntentPenalty,
			Punishment:     outcome.Level.Label,
			CheatsInPeriod: outcome.CheatsInPeriod,
		}
		if err := s.actorStore.ReplaceInfractions(ctx, actor.ID, actor.InfractionHistory); err != nil {
			return nil, NewKarmaServiceError("log_action", "failed to record infraction", err)
		}
	} else {
		entry, ok := karma.RewardFor(params.Action, s.params)
		if !ok {
			return nil, domain.NewValidationError("action", "has no reward mapping", domain.ErrInvalidAction)
		}
		intent := domain.IntentReward
		if entry.Amount < 0 {
			intent = domain.IntentPenalty
		}
		reward = RewardInfo{Token: entry.Token, Amount: entry.Amount, Intent: intent}
	}
	result.Reward = reward

	// Primary economic mutation: a single atomic increment.
	if _, err := s.actorStore.AdjustBalance(ctx, actor.ID, reward.Token, "", reward.Amount); err != nil {
		return nil, NewKarmaServiceError("log_action", "failed to apply balance delta", err)
	}

	// Harmful actions also accrue tiered harm.
	severity, harmful := karma.ClassifyAction(params.Action, s.params)
	if harmful {
		accrued := s.params.PaapAccrual[severity]
		total, err := s.actorStore.AdjustBalance(ctx, actor.ID, domain.TokenPaap, severity, accrued)
		if err != nil {
			return nil, NewKarmaServiceError("log_action", "failed to accrue harm", err)
		}
		result.Paap = &PaapInfo{Severity: severity, Accrued: accrued, Total: total}

		if err := s.actorStore.AdjustDestiny(ctx, actor.ID, s.params.DestinyPerHarm[severity]); err != nil {
			result.Auxiliary = append(result.Auxiliary, failedOutcome("destiny", err))
		} else {
			result.Auxiliary = append(result.Auxiliary, AuxiliaryOutcome{Effect: "destiny", OK: true})
		}
	}

	// Role re-resolution reads the freshest state after the increments;
	// under concurrent actions this is eventually consistent, by contract.
	fresh, err := s.actorStore.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, NewKarmaServiceError("log_action", "failed to reload actor", err)
	}
	result.MeritScore = karma.MeritScore(fresh, s.params)
	result.CurrentRole = karma.ResolveRole(result.MeritScore, s.params)
	if result.CurrentRole != fresh.Role {
		if err := s.actorStore.UpdateRole(ctx, fresh.ID, result.CurrentRole); err != nil {
			result.Auxiliary = append(result.Auxiliary, failedOutcome("role_update", err))
		} else {
			log.Info("role changed",
				slog.String("actor_id", fresh.ID.String()),
				slog.String("from", string(fresh.Role)),
				slog.String("to", string(result.CurrentRole)))
		}
	}

	// Advisory side-channel: predicted next role comes from the merit
	// simulation inside Observe, never from the value table's argmax.
	if s.roleAdvisor != nil {
		obs, err := s.roleAdvisor.Observe(ctx, fresh, params.Role, params.Action, reward.Amount)
		if err != nil {
			result.Auxiliary = append(result.Auxiliary, failedOutcome("advisor", err))
		} else {
			result.PredictedNextRole = obs.PredictedNextRole
			result.Auxiliary = append(result.Auxiliary, AuxiliaryOutcome{Effect: "advisor", OK: true})
		}
	}

	// Secondary effects below are non-fatal: the economic mutation already
	// happened and its result is returned regardless.
	s.logTransaction(ctx, result, params, reward)

	if harmful && params.AffectedActorID != nil {
		s.createHarmDebt(ctx, result, params, severity, reward)
	}

	s.recordAudit(ctx, result, "action_logged", actor.ID, map[string]any{
		"action":      string(params.Action),
		"token":       string(reward.Token),
		"amount":      reward.Amount,
		"merit_score": result.MeritScore,
		"role":        string(result.CurrentRole),
	})

	if s.leaderboard != nil {
		if err := s.leaderboard.UpdateScore(ctx, actor.ID, result.MeritScore); err != nil {
			result.Auxiliary = append(result.Auxiliary, failedOutcome("leaderboard", err))
		} else {
			result.Auxiliary = append(result.Auxiliary, AuxiliaryOutcome{Effect: "leaderboard", OK: true})
		}
	}

	return result, nil
}

// Redeem implements KarmaService.Redeem
func (s *karmaServiceImpl) Redeem(
	ctx context.Context,
	actorID uuid.UUID,
	token domain.TokenName,
	amount float64,
) (*RedeemResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	desc, ok := s.params.Tokens[token]
	if !ok || desc.Tiered {
		return nil, domain.NewValidationError("token", "is not a redeemable token", domain.ErrUnknownToken)
	}
	if amount <= 0 {
		return nil, domain.NewValidationError("amount", "must be positive", domain.ErrInvalidAmount)
	}

	if _, err := s.loadFreshActor(ctx, actorID); err != nil {
		return nil, err
	}

	remaining, err := s.actorStore.Redeem(ctx, actorID, token, amount)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientBalance) {
			return nil, err
		}
		return nil, NewKarmaServiceError("redeem", "failed to redeem tokens", err)
	}

	s.recordAudit(ctx, nil, "tokens_redeemed", actorID, map[string]any{
		"token":     string(token),
		"amount":    amount,
		"remaining": remaining,
	})

	log.Info("tokens redeemed",
		slog.String("actor_id", actorID.String()),
		slog.String("token", string(token)),
		slog.Float64("amount", amount))
	return &RedeemResult{
		ActorID:   actorID,
		Token:     token,
		Redeemed:  amount,
		Remaining: remaining,
	}, nil
}

// ViewBalance implements KarmaService.ViewBalance
func (s *karmaServiceImpl) ViewBalance(ctx context.Context, actorID uuid.UUID) (*BalanceView, error) {
	actor, err := s.loadFreshActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	return &BalanceView{
		ActorID:    actor.ID,
		Role:       actor.Role,
		Balances:   actor.Balances,
		MeritScore: karma.MeritScore(actor, s.params),
		AsOf:       actor.LastDecayAt,
	}, nil
}

// UserStats implements KarmaService.UserStats
func (s *karmaServiceImpl) UserStats(ctx context.Context, actorID uuid.UUID) (*UserStats, error) {
	actor, err := s.loadFreshActor(ctx, actorID)
	if err != nil {
		return nil, err
	}

	merit := karma.MeritScore(actor, s.params)
	net := karma.NetKarma(actor, s.params)

	stats := &UserStats{
		ActorID:        actor.ID,
		Role:           actor.Role,
		MeritScore:     merit,
		NetKarma:       net,
		Realm:          karma.RealmFor(net, s.params),
		DestinyCounter: actor.DestinyCounter,
		RebirthCount:   actor.RebirthCount,
		CheatsInPeriod: actor.InfractionsSince(time.Now().UTC().Add(-s.params.InfractionWindow)),
	}

	active := domain.DebtActive
	debts, err := s.debtStore.ListByDebtor(ctx, actorID, &active)
	if err != nil {
		return nil, NewKarmaServiceError("user_stats", "failed to list debts", err)
	}
	stats.ActiveDebts = len(debts)

	pending := domain.PlanPending
	plans, err := s.planStore.ListByActor(ctx, actorID, &pending)
	if err != nil {
		return nil, NewKarmaServiceError("user_stats", "failed to list plans", err)
	}
	stats.PendingPlans = len(plans)

	txns, err := s.txnStore.ListByActor(ctx, actorID, 10)
	if err != nil {
		return nil, NewKarmaServiceError("user_stats", "failed to list transactions", err)
	}
	stats.Transactions = txns

	return stats, nil
}

// SystemStats implements KarmaService.SystemStats
func (s *karmaServiceImpl) SystemStats(ctx context.Context) (*SystemStats, error) {
	actors, err := s.actorStore.Count(ctx)
	if err != nil {
		return nil, NewKarmaServiceError("system_stats", "failed to count actors", err)
	}

	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today, err := s.txnStore.CountSince(ctx, midnight)
	if err != nil {
		return nil, NewKarmaServiceError("system_stats", "failed to count transactions", err)
	}

	return &SystemStats{
		Actors:            actors,
		TransactionsToday: today,
		GeneratedAt:       now,
	}, nil
}

// loadFreshActor retrieves the actor, rejects retired records, and applies
// lazy decay so no stale balance leaks into any later computation.
func (s *karmaServiceImpl) loadFreshActor(ctx context.Context, actorID uuid.UUID) (*domain.Actor, error) {
	return refreshActor(ctx, s.db, s.actorStore, s.params, actorID)
}

// refreshActor is the shared decay-on-read step: it retrieves the actor,
// rejects retired records, ages the balances in memory, and persists the
// result under the last-decay compare-and-swap.
func refreshActor(
	ctx context.Context,
	db *sql.DB,
	actors store.ActorStore,
	params *karma.Params,
	actorID uuid.UUID,
) (*domain.Actor, error) {
	actor, err := actors.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.RetiredAt != nil {
		return nil, fmt.Errorf("%w: %s", ErrActorRetired, actorID)
	}

	prev := actor.LastDecayAt
	now := time.Now().UTC()
	adjustments := karma.ApplyDecayAndExpiry(actor, now, params)
	if len(adjustments) == 0 {
		return actor, nil
	}

	err = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		return actors.WithTx(tx).PersistDecay(ctx, actor.ID, actor.Balances, prev, actor.LastDecayAt)
	})
	if err != nil {
		if errors.Is(err, store.ErrStaleDecay) {
			// A concurrent caller already aged the balances; theirs won.
			return actors.GetByID(ctx, actorID)
		}
		return nil, fmt.Errorf("failed to persist decay: %w", err)
	}
	return actor, nil
}

func (s *karmaServiceImpl) logTransaction(
	ctx context.Context,
	result *LogActionResult,
	params LogActionParams,
	reward RewardInfo,
) {
	txn, err := domain.NewTransaction(domain.NewTransactionParams{
		ActorID:    params.ActorID,
		Action:     params.Action,
		Token:      reward.Token,
		Amount:     reward.Amount,
		Intent:     reward.Intent,
		Punishment: reward.Punishment,
		Note:       params.Note,
	})
	if err == nil {
		err = s.txnStore.Create(ctx, txn)
	}
	if err != nil {
		result.Auxiliary = append(result.Auxiliary, failedOutcome("transaction_log", err))
		return
	}
	result.Auxiliary = append(result.Auxiliary, AuxiliaryOutcome{Effect: "transaction_log", OK: true})
}

func (s *karmaServiceImpl) createHarmDebt(
	ctx context.Context,
	result *LogActionResult,
	params LogActionParams,
	severity domain.Severity,
	reward RewardInfo,
) {
	principal := math.Abs(reward.Amount) * s.params.DebtMultipliers[severity]
	debt, err := domain.NewDebtRelationship(domain.NewDebtParams{
		DebtorID:    params.ActorID,
		ReceiverID:  *params.AffectedActorID,
		Action:      params.Action,
		Severity:    severity,
		Principal:   principal,
		Description: params.Note,
	})
	if err == nil {
		err = s.debtStore.Create(ctx, debt)
	}
	if err != nil {
		result.Auxiliary = append(result.Auxiliary, failedOutcome("debt_creation", err))
		return
	}
	result.Debt = debt
	result.Auxiliary = append(result.Auxiliary, AuxiliaryOutcome{Effect: "debt_creation", OK: true})
}

// recordAudit appends an audit entry as a best-effort secondary effect.
// When result is nil the failure is only logged.
func (s *karmaServiceImpl) recordAudit(
	ctx context.Context,
	result *LogActionResult,
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
		if result != nil {
			result.Auxiliary = append(result.Auxiliary, failedOutcome("audit", err))
		}
		return
	}
	if result != nil {
		result.Auxiliary = append(result.Auxiliary, AuxiliaryOutcome{Effect: "audit", OK: true})
	}
}

func failedOutcome(effect string, err error) AuxiliaryOutcome {
	return AuxiliaryOutcome{Effect: effect, OK: false, Error: err.Error()}
}
