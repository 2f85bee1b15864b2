// Package rediscache holds the optional Redis-backed merit leaderboard.
// The cache is best effort: ledger operations never fail because the
// leaderboard could not be updated.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// keyMeritLeaderboard is the sorted set mapping actor ID to merit score.
const keyMeritLeaderboard = "samsara:leaderboard:merit"

// ErrNotRanked is returned when an actor has no leaderboard entry.
var ErrNotRanked = errors.New("actor not in leaderboard")

// RankedActor is one leaderboard position.
type RankedActor struct {
	ActorID    uuid.UUID `json:"actor_id"`
	MeritScore float64   `json:"merit_score"`
	Rank       int64     `json:"rank"`
}

// Leaderboard ranks actors by merit score in a Redis sorted set, giving
// O(log N) updates and rank lookups.
type Leaderboard struct {
	client *redis.Client
	logger *slog.Logger
}

// NewLeaderboard creates a Leaderboard from a redis URL
// (redis://host:port/db). If logger is nil, a default logger will be used.
func NewLeaderboard(url string, logger *slog.Logger) (*Leaderboard, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Leaderboard{
		client: redis.NewClient(opts),
		logger: logger.With(slog.String("component", "leaderboard_cache")),
	}, nil
}

// UpdateScore records the actor's freshest merit score.
func (l *Leaderboard) UpdateScore(ctx context.Context, actorID uuid.UUID, score float64) error {
	err := l.client.ZAdd(ctx, keyMeritLeaderboard, redis.Z{
		Score:  score,
		Member: actorID.String(),
	}).Err()
	if err != nil {
		l.logger.Warn("failed to update leaderboard score",
			slog.String("error", err.Error()),
			slog.String("actor_id", actorID.String()))
		return err
	}
	return nil
}

// Top returns the highest-scoring actors, best first.
func (l *Leaderboard) Top(ctx context.Context, count int) ([]RankedActor, error) {
	if count <= 0 {
		count = 10
	}

	members, err := l.client.ZRevRangeWithScores(ctx, keyMeritLeaderboard, 0, int64(count-1)).Result()
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedActor, 0, len(members))
	for i, member := range members {
		id, ok := member.Member.(string)
		if !ok {
			continue
		}
		actorID, err := uuid.Parse(id)
		if err != nil {
			l.logger.Warn("skipping malformed leaderboard member",
				slog.String("member", id))
			continue
		}
		ranked = append(ranked, RankedActor{
			ActorID:    actorID,
			MeritScore: member.Score,
			Rank:       int64(i) + 1,
		})
	}
	return ranked, nil
}

// Rank returns the actor's 1-based position.
// Returns ErrNotRanked when the actor has no entry.
func (l *Leaderboard) Rank(ctx context.Context, actorID uuid.UUID) (int64, error) {
	rank, err := l.client.ZRevRank(ctx, keyMeritLeaderboard, actorID.String()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrNotRanked
		}
		return 0, err
	}
	return rank + 1, nil
}

// Remove drops the actor from the leaderboard, used when a rebirth retires
// the record.
func (l *Leaderboard) Remove(ctx context.Context, actorID uuid.UUID) error {
	return l.client.ZRem(ctx, keyMeritLeaderboard, actorID.String()).Err()
}

// Close releases the underlying client.
func (l *Leaderboard) Close() error {
	return l.client.Close()
}
