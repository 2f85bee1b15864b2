package karma

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vedhika/samsara-api/internal/domain"
)

func TestResolveRoleMonotonic(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	scores := []float64{-500, -1, 0, 1, 49.999, 50, 120, 199.99, 200, 499, 500, 999, 1000, 1e6}
	prev := -1
	for _, score := range scores {
		role := ResolveRole(score, params)
		idx := role.Index()
		assert.GreaterOrEqual(t, idx, prev,
			"role must be nondecreasing in merit score, got %s at %f", role, score)
		prev = idx
	}
}

func TestResolveRoleThresholds(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		score    float64
		expected domain.Role
	}{
		{score: -10, expected: domain.RoleLearner},
		{score: 0, expected: domain.RoleLearner},
		{score: 49, expected: domain.RoleLearner},
		{score: 50, expected: domain.RoleVolunteer},
		{score: 199, expected: domain.RoleVolunteer},
		{score: 200, expected: domain.RoleMentor},
		{score: 500, expected: domain.RoleGuardian},
		{score: 1000, expected: domain.RoleSage},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, ResolveRole(tc.score, params), "score %f", tc.score)
	}
}

// Four completing_lessons entries leave a fresh actor at 40 merit and the
// learner role; the fifth reaches 50 and promotes to volunteer.
func TestLessonScenarioPromotesAtFifty(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	actor := newTestActor(t)

	reward, ok := RewardFor(domain.ActionCompletingLessons, params)
	assert.True(t, ok)
	assert.Equal(t, domain.TokenDharma, reward.Token)
	assert.Equal(t, 10.0, reward.Amount)

	for i := 0; i < 4; i++ {
		actor.Balances[domain.TokenDharma] = domain.SimpleBalance(
			actor.Balance(domain.TokenDharma).Total() + reward.Amount)
	}
	assert.Equal(t, 40.0, MeritScore(actor, params))
	assert.Equal(t, domain.RoleLearner, ResolveRole(MeritScore(actor, params), params))

	actor.Balances[domain.TokenDharma] = domain.SimpleBalance(
		actor.Balance(domain.TokenDharma).Total() + reward.Amount)
	assert.Equal(t, 50.0, MeritScore(actor, params))
	assert.Equal(t, domain.RoleVolunteer, ResolveRole(MeritScore(actor, params), params))
}

func TestMeritScoreWeightsSelectedTokens(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	actor := newTestActor(t)

	actor.Balances[domain.TokenDharma] = domain.SimpleBalance(100)
	actor.Balances[domain.TokenSeva] = domain.SimpleBalance(50)
	actor.Balances[domain.TokenPunya] = domain.SimpleBalance(20)
	actor.Balances[domain.TokenPaap] = domain.TieredBalance(map[domain.Severity]float64{
		domain.SeverityMajor: 1000, // excluded from merit by design
	})

	expected := 1.0*100 + 0.8*50 + 0.5*20
	assert.InDelta(t, expected, MeritScore(actor, params), 1e-9)
}

func TestProgressivePunishmentLadder(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	actor := newTestActor(t)

	// Three cheats inside the window walk the ladder and report the count.
	expectedLabels := []string{"first_warning", "second_strike", "final_warning"}
	for i, label := range expectedLabels {
		outcome := ProgressivePunishment(actor, now.Add(time.Duration(i)*time.Hour), params)
		assert.Equal(t, label, outcome.Level.Label)
		assert.Equal(t, i+1, outcome.CheatsInPeriod)
	}

	// A fourth falls off the ladder onto the repeat-offender entry.
	outcome := ProgressivePunishment(actor, now.Add(4*time.Hour), params)
	assert.Equal(t, "repeat_offender", outcome.Level.Label)
	assert.Equal(t, 4, outcome.CheatsInPeriod)
}

func TestProgressivePunishmentWindowExcludesOldInfractions(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	actor := newTestActor(t)
	actor.InfractionHistory = []time.Time{
		now.Add(-params.InfractionWindow - time.Hour), // outside the window
		now.Add(-time.Hour),                           // inside
	}

	outcome := ProgressivePunishment(actor, now, params)

	assert.Equal(t, 2, outcome.CheatsInPeriod)
	assert.Equal(t, "second_strike", outcome.Level.Label)
	assert.Len(t, actor.InfractionHistory, 2, "stale entry pruned, new entry recorded")
}

func TestClassifyAction(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	sev, ok := ClassifyAction(domain.ActionHarassment, params)
	assert.True(t, ok)
	assert.Equal(t, domain.SeverityMajor, sev)

	_, ok = ClassifyAction(domain.ActionCompletingLessons, params)
	assert.False(t, ok, "positive actions carry no severity")
}

func TestRewardForHasNoCheatEntry(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	_, ok := RewardFor(domain.ActionCheat, params)
	assert.False(t, ok, "cheat resolves through progressive punishment, not the static table")
}
