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

// PostgresDeathStore implements the store.DeathStore interface
// using a PostgreSQL database as the storage backend. Death events are
// written once; only the rebirth-applied marker changes afterwards.
type PostgresDeathStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeathStore creates a new PostgreSQL implementation of the DeathStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDeathStore(db store.DBTX, logger *slog.Logger) *PostgresDeathStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDeathStore{
		db:     db,
		logger: logger.With(slog.String("component", "death_store")),
	}
}

// Ensure PostgresDeathStore implements store.DeathStore interface
var _ store.DeathStore = (*PostgresDeathStore)(nil)

// Create implements store.DeathStore.Create
func (s *PostgresDeathStore) Create(ctx context.Context, event *domain.DeathEvent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	carryover, err := json.Marshal(event.Carryover)
	if err != nil {
		return fmt.Errorf("failed to marshal carryover: %w", err)
	}
	snapshot, err := json.Marshal(event.BalancesSnapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal balances snapshot: %w", err)
	}

	query := `
		INSERT INTO death_events (
			id, actor_id, realm, net_karma, carryover, balances_snapshot,
			rebirth_applied_at, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		event.ID,
		event.ActorID,
		event.Realm,
		event.NetKarma,
		carryover,
		snapshot,
		event.RebirthAppliedAt,
		event.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create death event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()),
			slog.String("actor_id", event.ActorID.String()))
		return MapError(err)
	}

	log.Info("death event recorded",
		slog.String("event_id", event.ID.String()),
		slog.String("actor_id", event.ActorID.String()),
		slog.String("realm", string(event.Realm)),
		slog.Float64("net_karma", event.NetKarma))
	return nil
}

// LatestByActor implements store.DeathStore.LatestByActor
// Returns store.ErrDeathEventNotFound if the actor has never died.
func (s *PostgresDeathStore) LatestByActor(ctx context.Context, actorID uuid.UUID) (*domain.DeathEvent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, actor_id, realm, net_karma, carryover, balances_snapshot,
		       rebirth_applied_at, created_at
		FROM death_events
		WHERE actor_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		event            domain.DeathEvent
		realm            string
		carryover        []byte
		snapshot         []byte
		rebirthAppliedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, actorID).Scan(
		&event.ID,
		&event.ActorID,
		&realm,
		&event.NetKarma,
		&carryover,
		&snapshot,
		&rebirthAppliedAt,
		&event.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no death event for actor", slog.String("actor_id", actorID.String()))
			return nil, store.ErrDeathEventNotFound
		}
		log.Error("failed to get latest death event",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()))
		return nil, MapError(err)
	}

	event.Realm = domain.Realm(realm)
	if rebirthAppliedAt.Valid {
		t := rebirthAppliedAt.Time
		event.RebirthAppliedAt = &t
	}
	if err := json.Unmarshal(carryover, &event.Carryover); err != nil {
		return nil, fmt.Errorf("failed to unmarshal carryover: %w", err)
	}
	if err := json.Unmarshal(snapshot, &event.BalancesSnapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal balances snapshot: %w", err)
	}

	return &event, nil
}

// MarkRebirthApplied implements store.DeathStore.MarkRebirthApplied
// The guard on rebirth_applied_at makes consumption exactly-once; a second
// attempt returns store.ErrUpdateFailed.
func (s *PostgresDeathStore) MarkRebirthApplied(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE death_events
		SET rebirth_applied_at = $2
		WHERE id = $1 AND rebirth_applied_at IS NULL
	`, eventID, at)
	if err != nil {
		log.Error("failed to mark rebirth applied",
			slog.String("error", err.Error()),
			slog.String("event_id", eventID.String()))
		return MapError(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		log.Warn("death event missing or already consumed",
			slog.String("event_id", eventID.String()))
		return fmt.Errorf("%w: death event %s already consumed or missing",
			store.ErrUpdateFailed, eventID)
	}

	log.Info("rebirth carryover consumed",
		slog.String("event_id", eventID.String()))
	return nil
}
