package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/store"
)

// simpleTier is the tier column value for non-tiered token rows.
const simpleTier = ""

// PostgresActorStore implements the store.ActorStore interface
// using a PostgreSQL database as the storage backend. Balances live in
// actor_balances rows, one row per (token, tier), so balance mutations can
// be single-statement atomic increments.
type PostgresActorStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresActorStore creates a new PostgreSQL implementation of the ActorStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresActorStore(db store.DBTX, logger *slog.Logger) *PostgresActorStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresActorStore{
		db:     db,
		logger: logger.With(slog.String("component", "actor_store")),
	}
}

// Ensure PostgresActorStore implements store.ActorStore interface
var _ store.ActorStore = (*PostgresActorStore)(nil)

// WithTx implements store.ActorStore.WithTx
func (s *PostgresActorStore) WithTx(tx *sql.Tx) store.ActorStore {
	return &PostgresActorStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ActorStore.Create
// It saves a new actor record plus any seed balance rows.
// Returns store.ErrDuplicate if an actor with the same ID already exists.
func (s *PostgresActorStore) Create(ctx context.Context, actor *domain.Actor) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	history, err := json.Marshal(actor.InfractionHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal infraction history: %w", err)
	}

	query := `
		INSERT INTO actors (
			id, role, last_decay_at, infraction_history, destiny_counter,
			rebirth_count, retired_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		actor.ID,
		actor.Role,
		actor.LastDecayAt,
		history,
		actor.DestinyCounter,
		actor.RebirthCount,
		actor.RetiredAt,
		actor.CreatedAt,
		actor.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("duplicate actor during create",
				slog.String("actor_id", actor.ID.String()))
			return fmt.Errorf("%w: actor %s", store.ErrDuplicate, actor.ID)
		}
		log.Error("failed to create actor",
			slog.String("error", err.Error()),
			slog.String("actor_id", actor.ID.String()))
		return MapError(err)
	}

	for token, bal := range actor.Balances {
		meta := actor.TokenMeta[token]
		if meta.CreatedAt.IsZero() {
			meta = domain.TokenMeta{CreatedAt: actor.CreatedAt, UpdatedAt: actor.CreatedAt}
		}
		if err := s.insertBalanceRows(ctx, actor.ID, token, bal, meta); err != nil {
			log.Error("failed to create actor balance rows",
				slog.String("error", err.Error()),
				slog.String("actor_id", actor.ID.String()),
				slog.String("token", string(token)))
			return err
		}
	}

	log.Info("actor created successfully",
		slog.String("actor_id", actor.ID.String()),
		slog.String("role", string(actor.Role)))
	return nil
}

// GetByID implements store.ActorStore.GetByID
// It retrieves an actor and assembles its balance rows back into the
// tagged Balance variants.
// Returns store.ErrActorNotFound if the actor does not exist.
func (s *PostgresActorStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Actor, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, role, last_decay_at, infraction_history, destiny_counter,
		       rebirth_count, retired_at, created_at, updated_at
		FROM actors
		WHERE id = $1
	`

	var (
		actor     domain.Actor
		role      string
		history   []byte
		retiredAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&actor.ID,
		&role,
		&actor.LastDecayAt,
		&history,
		&actor.DestinyCounter,
		&actor.RebirthCount,
		&retiredAt,
		&actor.CreatedAt,
		&actor.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("actor not found", slog.String("actor_id", id.String()))
			return nil, store.ErrActorNotFound
		}
		log.Error("failed to get actor by ID",
			slog.String("error", err.Error()),
			slog.String("actor_id", id.String()))
		return nil, MapError(err)
	}

	actor.Role = domain.Role(role)
	if retiredAt.Valid {
		t := retiredAt.Time
		actor.RetiredAt = &t
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &actor.InfractionHistory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal infraction history: %w", err)
		}
	}

	balances, meta, err := s.loadBalances(ctx, id)
	if err != nil {
		log.Error("failed to load actor balances",
			slog.String("error", err.Error()),
			slog.String("actor_id", id.String()))
		return nil, err
	}
	actor.Balances = balances
	actor.TokenMeta = meta

	return &actor, nil
}

// AdjustBalance implements store.ActorStore.AdjustBalance
// The increment is a single upsert statement clamped at zero, so concurrent
// callers cannot lose updates.
// Returns store.ErrActorNotFound if the actor does not exist.
func (s *PostgresActorStore) AdjustBalance(
	ctx context.Context,
	actorID uuid.UUID,
	token domain.TokenName,
	tier domain.Severity,
	delta float64,
) (float64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	query := `
		INSERT INTO actor_balances (actor_id, token, tier, amount, created_at, updated_at)
		VALUES ($1, $2, $3, GREATEST($4, 0), $5, $5)
		ON CONFLICT (actor_id, token, tier)
		DO UPDATE SET amount = GREATEST(actor_balances.amount + $4, 0), updated_at = $5
		RETURNING amount
	`

	var newAmount float64
	err := s.db.QueryRowContext(ctx, query, actorID, token, string(tier), delta, now).
		Scan(&newAmount)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return 0, store.ErrActorNotFound
		}
		log.Error("failed to adjust balance",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()),
			slog.String("token", string(token)),
			slog.Float64("delta", delta))
		return 0, MapError(err)
	}

	log.Debug("balance adjusted",
		slog.String("actor_id", actorID.String()),
		slog.String("token", string(token)),
		slog.String("tier", string(tier)),
		slog.Float64("delta", delta),
		slog.Float64("amount", newAmount))
	return newAmount, nil
}

// Redeem implements store.ActorStore.Redeem
// The decrement only fires when the full amount is available; the guard is
// part of the UPDATE's WHERE clause so the check and the decrement are one
// atomic statement.
// Returns domain.ErrInsufficientBalance when the balance cannot cover the
// amount, store.ErrActorNotFound when the actor does not exist.
func (s *PostgresActorStore) Redeem(
	ctx context.Context,
	actorID uuid.UUID,
	token domain.TokenName,
	amount float64,
) (float64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := time.Now().UTC()

	query := `
		UPDATE actor_balances
		SET amount = amount - $4, updated_at = $5
		WHERE actor_id = $1 AND token = $2 AND tier = $3 AND amount >= $4
		RETURNING amount
	`

	var remaining float64
	err := s.db.QueryRowContext(ctx, query, actorID, token, simpleTier, amount, now).
		Scan(&remaining)
	if err == nil {
		log.Info("tokens redeemed",
			slog.String("actor_id", actorID.String()),
			slog.String("token", string(token)),
			slog.Float64("amount", amount),
			slog.Float64("remaining", remaining))
		return remaining, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Error("failed to redeem tokens",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()),
			slog.String("token", string(token)))
		return 0, MapError(err)
	}

	// No row matched: either the actor is unknown or the balance is short.
	var exists bool
	checkErr := s.db.QueryRowContext(
		ctx, `SELECT EXISTS (SELECT 1 FROM actors WHERE id = $1)`, actorID,
	).Scan(&exists)
	if checkErr != nil {
		return 0, MapError(checkErr)
	}
	if !exists {
		return 0, store.ErrActorNotFound
	}

	log.Debug("redeem rejected for insufficient balance",
		slog.String("actor_id", actorID.String()),
		slog.String("token", string(token)),
		slog.Float64("amount", amount))
	return 0, domain.ErrInsufficientBalance
}

// PersistDecay implements store.ActorStore.PersistDecay
// The last-decay advance is a compare-and-swap: the UPDATE only matches
// when last_decay_at still holds prevDecayAt, so a concurrent decay pass
// surfaces as store.ErrStaleDecay instead of double application. Callers
// should run this inside a transaction via WithTx so the timestamp and the
// balance writes land together.
func (s *PostgresActorStore) PersistDecay(
	ctx context.Context,
	actorID uuid.UUID,
	balances map[domain.TokenName]domain.Balance,
	prevDecayAt, decayedAt time.Time,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE actors
		SET last_decay_at = $2, updated_at = $3
		WHERE id = $1 AND last_decay_at = $4
	`, actorID, decayedAt, decayedAt, prevDecayAt)
	if err != nil {
		log.Error("failed to advance decay timestamp",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists bool
		if checkErr := s.db.QueryRowContext(
			ctx, `SELECT EXISTS (SELECT 1 FROM actors WHERE id = $1)`, actorID,
		).Scan(&exists); checkErr != nil {
			return MapError(checkErr)
		}
		if !exists {
			return store.ErrActorNotFound
		}
		log.Debug("decay timestamp advanced by a concurrent writer",
			slog.String("actor_id", actorID.String()))
		return store.ErrStaleDecay
	}

	if err := s.writeBalanceAmounts(ctx, actorID, balances, decayedAt); err != nil {
		log.Error("failed to persist decayed balances",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()))
		return err
	}

	log.Debug("decay persisted",
		slog.String("actor_id", actorID.String()),
		slog.Time("decayed_at", decayedAt))
	return nil
}

// ReplaceBalances implements store.ActorStore.ReplaceBalances
// It drops every balance row and writes the new set. Used by the rebirth
// reset only.
func (s *PostgresActorStore) ReplaceBalances(
	ctx context.Context,
	actorID uuid.UUID,
	balances map[domain.TokenName]domain.Balance,
	meta map[domain.TokenName]domain.TokenMeta,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if _, err := s.db.ExecContext(
		ctx, `DELETE FROM actor_balances WHERE actor_id = $1`, actorID,
	); err != nil {
		log.Error("failed to clear balance rows",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()))
		return MapError(err)
	}

	for token, bal := range balances {
		m := meta[token]
		if m.CreatedAt.IsZero() {
			now := time.Now().UTC()
			m = domain.TokenMeta{CreatedAt: now, UpdatedAt: now}
		}
		if err := s.insertBalanceRows(ctx, actorID, token, bal, m); err != nil {
			log.Error("failed to write replacement balance rows",
				slog.String("error", err.Error()),
				slog.String("actor_id", actorID.String()),
				slog.String("token", string(token)))
			return err
		}
	}

	log.Info("balances replaced",
		slog.String("actor_id", actorID.String()),
		slog.Int("tokens", len(balances)))
	return nil
}

// UpdateRole implements store.ActorStore.UpdateRole
func (s *PostgresActorStore) UpdateRole(ctx context.Context, actorID uuid.UUID, role domain.Role) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE actors SET role = $2, updated_at = $3 WHERE id = $1
	`, actorID, role, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, "actor")
}

// ReplaceInfractions implements store.ActorStore.ReplaceInfractions
func (s *PostgresActorStore) ReplaceInfractions(
	ctx context.Context,
	actorID uuid.UUID,
	history []time.Time,
) error {
	payload, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal infraction history: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE actors SET infraction_history = $2, updated_at = $3 WHERE id = $1
	`, actorID, payload, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, "actor")
}

// AdjustDestiny implements store.ActorStore.AdjustDestiny
func (s *PostgresActorStore) AdjustDestiny(ctx context.Context, actorID uuid.UUID, delta float64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE actors
		SET destiny_counter = destiny_counter + $2, updated_at = $3
		WHERE id = $1
	`, actorID, delta, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, "actor")
}

// ResetDestiny implements store.ActorStore.ResetDestiny
func (s *PostgresActorStore) ResetDestiny(ctx context.Context, actorID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE actors SET destiny_counter = 0, updated_at = $2 WHERE id = $1
	`, actorID, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, "actor")
}

// IncrementRebirth implements store.ActorStore.IncrementRebirth
func (s *PostgresActorStore) IncrementRebirth(ctx context.Context, actorID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE actors SET rebirth_count = rebirth_count + 1, updated_at = $2 WHERE id = $1
	`, actorID, time.Now().UTC())
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, "actor")
}

// Retire implements store.ActorStore.Retire
func (s *PostgresActorStore) Retire(ctx context.Context, actorID uuid.UUID, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE actors SET retired_at = $2, updated_at = $2 WHERE id = $1 AND retired_at IS NULL
	`, actorID, at)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, "actor")
}

// Count implements store.ActorStore.Count
func (s *PostgresActorStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM actors WHERE retired_at IS NULL`,
	).Scan(&count)
	if err != nil {
		return 0, MapError(err)
	}
	return count, nil
}

// loadBalances reads the actor's balance rows and folds them back into
// Balance variants plus per-token metadata. Rows sharing a token with a
// non-empty tier fold into one tiered balance.
func (s *PostgresActorStore) loadBalances(
	ctx context.Context,
	actorID uuid.UUID,
) (map[domain.TokenName]domain.Balance, map[domain.TokenName]domain.TokenMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, tier, amount, created_at, updated_at
		FROM actor_balances
		WHERE actor_id = $1
		ORDER BY token, tier
	`, actorID)
	if err != nil {
		return nil, nil, MapError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.Error("failed to close rows", slog.String("error", closeErr.Error()))
		}
	}()

	balances := make(map[domain.TokenName]domain.Balance)
	meta := make(map[domain.TokenName]domain.TokenMeta)

	for rows.Next() {
		var (
			token, tier          string
			amount               float64
			createdAt, updatedAt time.Time
		)
		if err := rows.Scan(&token, &tier, &amount, &createdAt, &updatedAt); err != nil {
			return nil, nil, fmt.Errorf("failed to scan balance row: %w", err)
		}

		name := domain.TokenName(token)
		if tier == simpleTier {
			balances[name] = domain.SimpleBalance(amount)
		} else {
			bal, ok := balances[name]
			if !ok {
				bal = domain.TieredBalance(nil)
			}
			bal.Tiers[domain.Severity(tier)] = amount
			balances[name] = bal
		}

		m, ok := meta[name]
		if !ok || createdAt.Before(m.CreatedAt) {
			m.CreatedAt = createdAt
		}
		if updatedAt.After(m.UpdatedAt) {
			m.UpdatedAt = updatedAt
		}
		meta[name] = m
	}
	if err := rows.Err(); err != nil {
		return nil, nil, MapError(err)
	}

	return balances, meta, nil
}

// insertBalanceRows writes the rows for one token: a single row for a
// simple balance, one row per severity for a tiered one.
func (s *PostgresActorStore) insertBalanceRows(
	ctx context.Context,
	actorID uuid.UUID,
	token domain.TokenName,
	bal domain.Balance,
	meta domain.TokenMeta,
) error {
	query := `
		INSERT INTO actor_balances (actor_id, token, tier, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	if bal.Kind == domain.BalanceTiered {
		for tier, amount := range bal.Tiers {
			if _, err := s.db.ExecContext(
				ctx, query, actorID, token, string(tier), amount, meta.CreatedAt, meta.UpdatedAt,
			); err != nil {
				return MapError(err)
			}
		}
		return nil
	}

	_, err := s.db.ExecContext(
		ctx, query, actorID, token, simpleTier, bal.Amount, meta.CreatedAt, meta.UpdatedAt,
	)
	return MapError(err)
}

// writeBalanceAmounts upserts the decayed amounts without touching the
// rows' created_at, which anchors expiry.
func (s *PostgresActorStore) writeBalanceAmounts(
	ctx context.Context,
	actorID uuid.UUID,
	balances map[domain.TokenName]domain.Balance,
	at time.Time,
) error {
	query := `
		INSERT INTO actor_balances (actor_id, token, tier, amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (actor_id, token, tier)
		DO UPDATE SET amount = $4, updated_at = $5
	`

	for token, bal := range balances {
		if bal.Kind == domain.BalanceTiered {
			for tier, amount := range bal.Tiers {
				if _, err := s.db.ExecContext(
					ctx, query, actorID, token, string(tier), amount, at,
				); err != nil {
					return MapError(err)
				}
			}
			continue
		}
		if _, err := s.db.ExecContext(
			ctx, query, actorID, token, simpleTier, bal.Amount, at,
		); err != nil {
			return MapError(err)
		}
	}
	return nil
}
