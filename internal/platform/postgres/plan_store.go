package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/store"
)

// PostgresPlanStore implements the store.PlanStore interface
// using a PostgreSQL database as the storage backend. Requirement,
// progress and proof vectors are stored as JSONB documents since they are
// always read and written whole.
type PostgresPlanStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresPlanStore creates a new PostgreSQL implementation of the PlanStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresPlanStore(db store.DBTX, logger *slog.Logger) *PostgresPlanStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresPlanStore{
		db:     db,
		logger: logger.With(slog.String("component", "plan_store")),
	}
}

// Ensure PostgresPlanStore implements store.PlanStore interface
var _ store.PlanStore = (*PostgresPlanStore)(nil)

// Create implements store.PlanStore.Create
// It saves the plan and its parallel appeal record.
// Returns store.ErrInvalidEntity if the actor does not exist.
func (s *PostgresPlanStore) Create(
	ctx context.Context,
	plan *domain.AtonementPlan,
	appeal *domain.Appeal,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	requirements, progress, proofs, err := marshalPlanVectors(plan)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO atonement_plans (
			id, actor_id, origin_action, severity, requirements, progress,
			proofs, status, created_at, completed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		plan.ID,
		plan.ActorID,
		plan.OriginAction,
		plan.Severity,
		requirements,
		progress,
		proofs,
		plan.Status,
		plan.CreatedAt,
		plan.CompletedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during plan creation",
				slog.String("plan_id", plan.ID.String()),
				slog.String("actor_id", plan.ActorID.String()))
			return fmt.Errorf("%w: actor with ID %s not found",
				store.ErrInvalidEntity, plan.ActorID)
		}
		log.Error("failed to create atonement plan",
			slog.String("error", err.Error()),
			slog.String("plan_id", plan.ID.String()))
		return MapError(err)
	}

	if appeal != nil {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO appeals (id, plan_id, actor_id, action, severity, reason, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, appeal.ID, appeal.PlanID, appeal.ActorID, appeal.Action, appeal.Severity, appeal.Reason, appeal.CreatedAt)
		if err != nil {
			log.Error("failed to create appeal record",
				slog.String("error", err.Error()),
				slog.String("plan_id", plan.ID.String()))
			return MapError(err)
		}
	}

	log.Info("atonement plan created",
		slog.String("plan_id", plan.ID.String()),
		slog.String("actor_id", plan.ActorID.String()),
		slog.String("severity", string(plan.Severity)))
	return nil
}

// GetByID implements store.PlanStore.GetByID
// Returns store.ErrPlanNotFound if the plan does not exist.
func (s *PostgresPlanStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AtonementPlan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, actor_id, origin_action, severity, requirements, progress,
		       proofs, status, created_at, completed_at
		FROM atonement_plans
		WHERE id = $1
	`

	plan, err := scanPlan(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("atonement plan not found", slog.String("plan_id", id.String()))
			return nil, store.ErrPlanNotFound
		}
		log.Error("failed to get atonement plan",
			slog.String("error", err.Error()),
			slog.String("plan_id", id.String()))
		return nil, err
	}
	return plan, nil
}

// Update implements store.PlanStore.Update
// Returns store.ErrPlanNotFound if the plan does not exist.
func (s *PostgresPlanStore) Update(ctx context.Context, plan *domain.AtonementPlan) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	requirements, progress, proofs, err := marshalPlanVectors(plan)
	if err != nil {
		return err
	}

	query := `
		UPDATE atonement_plans
		SET requirements = $2, progress = $3, proofs = $4, status = $5, completed_at = $6
		WHERE id = $1
	`
	result, err := s.db.ExecContext(
		ctx, query, plan.ID, requirements, progress, proofs, plan.Status, plan.CompletedAt,
	)
	if err != nil {
		log.Error("failed to update atonement plan",
			slog.String("error", err.Error()),
			slog.String("plan_id", plan.ID.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, "atonement plan"); err != nil {
		return store.ErrPlanNotFound
	}

	log.Debug("atonement plan updated",
		slog.String("plan_id", plan.ID.String()),
		slog.String("status", string(plan.Status)))
	return nil
}

// ListByActor implements store.PlanStore.ListByActor
func (s *PostgresPlanStore) ListByActor(
	ctx context.Context,
	actorID uuid.UUID,
	status *domain.PlanStatus,
) ([]*domain.AtonementPlan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, actor_id, origin_action, severity, requirements, progress,
		       proofs, status, created_at, completed_at
		FROM atonement_plans
		WHERE actor_id = $1
	`
	args := []any{actorID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query atonement plans",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	plans := []*domain.AtonementPlan{}
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			log.Error("failed to scan plan row", slog.String("error", err.Error()))
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return plans, nil
}

// DiscardPending implements store.PlanStore.DiscardPending
func (s *PostgresPlanStore) DiscardPending(ctx context.Context, actorID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM atonement_plans WHERE actor_id = $1 AND status = $2
	`, actorID, domain.PlanPending)
	if err != nil {
		log.Error("failed to discard pending plans",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()))
		return 0, MapError(err)
	}

	discarded, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if discarded > 0 {
		log.Info("pending atonement plans discarded",
			slog.String("actor_id", actorID.String()),
			slog.Int64("count", discarded))
	}
	return discarded, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*domain.AtonementPlan, error) {
	var (
		plan                           domain.AtonementPlan
		action, severity, status       string
		requirements, progress, proofs []byte
		completedAt                    sql.NullTime
	)
	err := row.Scan(
		&plan.ID,
		&plan.ActorID,
		&action,
		&severity,
		&requirements,
		&progress,
		&proofs,
		&status,
		&plan.CreatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	plan.OriginAction = domain.Action(action)
	plan.Severity = domain.Severity(severity)
	plan.Status = domain.PlanStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		plan.CompletedAt = &t
	}

	if err := json.Unmarshal(requirements, &plan.Requirements); err != nil {
		return nil, fmt.Errorf("failed to unmarshal requirements: %w", err)
	}
	if err := json.Unmarshal(progress, &plan.Progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}
	if err := json.Unmarshal(proofs, &plan.Proofs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal proofs: %w", err)
	}

	return &plan, nil
}

func marshalPlanVectors(plan *domain.AtonementPlan) (requirements, progress, proofs []byte, err error) {
	if requirements, err = json.Marshal(plan.Requirements); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal requirements: %w", err)
	}
	if progress, err = json.Marshal(plan.Progress); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal progress: %w", err)
	}
	list := plan.Proofs
	if list == nil {
		list = []domain.AtonementProof{}
	}
	if proofs, err = json.Marshal(list); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to marshal proofs: %w", err)
	}
	return requirements, progress, proofs, nil
}
