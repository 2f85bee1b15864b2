// Package advisor maintains a Q-learning value table over the role and
// action spaces and answers advisory "predicted next role" and best-policy
// queries. It reads ledger state but never writes it; role changes are
// always decided by merit resolution, not by this table.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/domain/karma"
	"github.com/vedhika/samsara-api/internal/store"
)

// Advisor owns the shared Q-table. All updates funnel through its mutex,
// which serializes the read-update-persist cycle across concurrent actions.
type Advisor struct {
	mu     sync.Mutex
	store  store.QTableStore
	params *karma.Params
	logger *slog.Logger

	values [][]float64
}

// Observation is the advisory output produced for a single logged action.
type Observation struct {
	// PredictedNextRole is resolved from the actor's updated balances,
	// not from the value table.
	PredictedNextRole domain.Role

	// QValue is the updated value for the (state, action) pair.
	QValue float64
}

// New creates an Advisor, restoring the persisted table when one exists.
// A missing table or a table whose shape no longer matches the role and
// action spaces starts from zeros instead of failing.
func New(ctx context.Context, qstore store.QTableStore, params *karma.Params, logger *slog.Logger) (*Advisor, error) {
	if qstore == nil {
		return nil, errors.New("qtable store cannot be nil")
	}
	if params == nil {
		params = karma.NewDefaultParams()
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &Advisor{
		store:  qstore,
		params: params,
		logger: logger.With(slog.String("component", "advisor")),
	}

	states := len(domain.RoleSequence)
	actions := len(domain.ActionSequence)

	table, err := qstore.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		a.values = zeroTable(states, actions)
	case err != nil:
		return nil, fmt.Errorf("failed to load q-table: %w", err)
	case table.States != states || table.Actions != actions || len(table.Values) != states:
		a.logger.Warn("q-table shape mismatch, resetting to zeros",
			slog.Int("stored_states", table.States),
			slog.Int("stored_actions", table.Actions),
			slog.Int("want_states", states),
			slog.Int("want_actions", actions))
		a.values = zeroTable(states, actions)
	default:
		a.values = table.Values
	}

	return a, nil
}

// Observe applies one Q-learning update for an action taken from
// currentRole and returns the advisory observation. The actor's balances
// must already reflect the action's reward or penalty; the hypothetical
// next state is the role its fresh merit score resolves to.
//
//	Q[s,a] += alpha * (reward + gamma*max(Q[next]) - Q[s,a])
//
// The whole table is persisted after the update.
func (a *Advisor) Observe(ctx context.Context, actor *domain.Actor, currentRole domain.Role, action domain.Action, reward float64) (Observation, error) {
	s := currentRole.Index()
	if s < 0 {
		return Observation{}, fmt.Errorf("%w: %q", domain.ErrInvalidRole, currentRole)
	}
	act := action.Index()
	if act < 0 {
		return Observation{}, fmt.Errorf("%w: %q", domain.ErrInvalidAction, action)
	}

	nextRole := karma.ResolveRole(karma.MeritScore(actor, a.params), a.params)
	next := nextRole.Index()

	a.mu.Lock()
	defer a.mu.Unlock()

	current := a.values[s][act]
	a.values[s][act] = current + a.params.AdvisorAlpha*(reward+a.params.AdvisorGamma*maxOf(a.values[next])-current)

	if err := a.persistLocked(ctx); err != nil {
		return Observation{}, err
	}

	return Observation{PredictedNextRole: nextRole, QValue: a.values[s][act]}, nil
}

// Reinforce feeds a positive update into the table for the configured
// representative positive action, used when an atonement plan completes.
func (a *Advisor) Reinforce(ctx context.Context, actor *domain.Actor, reward float64) (Observation, error) {
	return a.Observe(ctx, actor, actor.Role, a.params.AdvisorPositiveAction, reward)
}

// BestAction returns the highest-valued action for a role, with its value.
// Ties resolve to the earliest action in the enumeration. This is a pure
// policy query and carries no authority over actual role assignment.
func (a *Advisor) BestAction(role domain.Role) (domain.Action, float64, error) {
	s := role.Index()
	if s < 0 {
		return "", 0, fmt.Errorf("%w: %q", domain.ErrInvalidRole, role)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	best := 0
	for i, v := range a.values[s] {
		if v > a.values[s][best] {
			best = i
		}
	}
	return domain.ActionSequence[best], a.values[s][best], nil
}

// Snapshot returns a copy of the current table for read-only inspection.
func (a *Advisor) Snapshot() [][]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([][]float64, len(a.values))
	for i, row := range a.values {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func (a *Advisor) persistLocked(ctx context.Context) error {
	table := &store.QTable{
		States:    len(domain.RoleSequence),
		Actions:   len(domain.ActionSequence),
		Values:    a.values,
		UpdatedAt: time.Now().UTC(),
	}
	if err := a.store.Replace(ctx, table); err != nil {
		return fmt.Errorf("failed to persist q-table: %w", err)
	}
	return nil
}

func zeroTable(states, actions int) [][]float64 {
	values := make([][]float64, states)
	for i := range values {
		values[i] = make([]float64, actions)
	}
	return values
}

func maxOf(row []float64) float64 {
	best := row[0]
	for _, v := range row[1:] {
		if v > best {
			best = v
		}
	}
	return best
}
