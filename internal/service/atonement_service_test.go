package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/store"
)

func newTestAtonementService(
	t *testing.T,
	plans *fakePlanStore,
	actors *fakeActorStore,
	adv *fakeAdvisor,
) (AtonementService, *fakeAuditRecorder) {
	t.Helper()

	auditor := &fakeAuditRecorder{}
	var reinforcer PlanReinforcer
	if adv != nil {
		reinforcer = adv
	}
	svc, err := NewAtonementService(plans, actors, reinforcer, auditor, nil, nil)
	require.NoError(t, err)
	return svc, auditor
}

func TestNewAtonementServiceValidation(t *testing.T) {
	t.Parallel()

	_, err := NewAtonementService(nil, newFakeActorStore(), nil, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "planStore")

	_, err = NewAtonementService(newFakePlanStore(), nil, nil, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actorStore")
}

func TestCreatePlanScalesRequirementsBySeverity(t *testing.T) {
	t.Parallel()

	actor := testActor(t)
	plans := newFakePlanStore()
	svc, auditor := newTestAtonementService(t, plans, newFakeActorStore(actor), nil)

	plan, err := svc.CreatePlan(context.Background(), actor.ID, domain.ActionHarassment, "appealing the penalty")
	require.NoError(t, err)

	assert.Equal(t, domain.SeverityMajor, plan.Severity)
	assert.Equal(t, domain.PlanPending, plan.Status)
	assert.Equal(t, 6.0, plan.Requirements[domain.RemedyLessons])
	assert.Equal(t, 50.0, plan.Requirements[domain.RemedyDonation])

	// The appeal record rides along with the plan.
	require.Len(t, plans.appeals, 1)
	assert.Equal(t, plan.ID, plans.appeals[0].PlanID)
	assert.Equal(t, "appealing the penalty", plans.appeals[0].Reason)

	assert.Contains(t, auditor.events, "atonement_plan_created")
}

func TestCreatePlanRejectsNonHarmfulAction(t *testing.T) {
	t.Parallel()

	actor := testActor(t)
	svc, _ := newTestAtonementService(t, newFakePlanStore(), newFakeActorStore(actor), nil)

	_, err := svc.CreatePlan(context.Background(), actor.ID, domain.ActionHelpingPeers, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAction)
}

func TestCreatePlanUnknownActor(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAtonementService(t, newFakePlanStore(), newFakeActorStore(), nil)
	_, err := svc.CreatePlan(context.Background(), uuid.New(), domain.ActionPlagiarism, "")
	assert.ErrorIs(t, err, store.ErrActorNotFound)
}

func TestSubmitProofPartialProgress(t *testing.T) {
	t.Parallel()

	actor := testActor(t)
	plan, err := domain.NewAtonementPlan(actor.ID, domain.ActionDisruptingClass, domain.SeverityMinor,
		map[domain.RemedyType]float64{domain.RemedyLessons: 2, domain.RemedyService: 1})
	require.NoError(t, err)

	plans := newFakePlanStore(plan)
	svc, _ := newTestAtonementService(t, plans, newFakeActorStore(actor), nil)

	result, err := svc.SubmitProof(context.Background(), plan.ID, domain.RemedyLessons, 1, "lesson one", "")
	require.NoError(t, err)

	assert.False(t, result.Completed)
	assert.Equal(t, domain.PlanPending, result.Plan.Status)
	assert.Equal(t, 1.0, result.Plan.Progress[domain.RemedyLessons])
	require.Len(t, result.Plan.Proofs, 1)
	assert.True(t, result.Plan.Proofs[0].Verified)
}

func TestSubmitProofCompletesPlanAndRestores(t *testing.T) {
	t.Parallel()

	actor := testActor(t)
	actor.Balances[domain.TokenPaap] = domain.TieredBalance(map[domain.Severity]float64{
		domain.SeverityMinor: 20,
	})

	plan, err := domain.NewAtonementPlan(actor.ID, domain.ActionDisruptingClass, domain.SeverityMinor,
		map[domain.RemedyType]float64{domain.RemedyLessons: 1})
	require.NoError(t, err)

	actors := newFakeActorStore(actor)
	adv := &fakeAdvisor{}
	svc, auditor := newTestAtonementService(t, newFakePlanStore(plan), actors, adv)

	result, err := svc.SubmitProof(context.Background(), plan.ID, domain.RemedyLessons, 1, "done", "")
	require.NoError(t, err)

	assert.True(t, result.Completed)
	assert.Equal(t, domain.PlanCompleted, result.Plan.Status)
	require.NotNil(t, result.Plan.CompletedAt)
	assert.Equal(t, 3.0, result.Restored)

	// Minor-tier harm dropped by the restorative amount.
	stored := actors.actors[actor.ID]
	assert.Equal(t, 17.0, stored.Balances[domain.TokenPaap].Tier(domain.SeverityMinor))

	// Completion feeds the positive advisory signal.
	assert.Equal(t, []float64{3.0}, adv.reinforced)
	assert.Contains(t, auditor.events, "atonement_plan_completed")
}

func TestSubmitProofIdempotentAfterCompletion(t *testing.T) {
	t.Parallel()

	actor := testActor(t)
	plan, err := domain.NewAtonementPlan(actor.ID, domain.ActionDisruptingClass, domain.SeverityMinor,
		map[domain.RemedyType]float64{domain.RemedyLessons: 1})
	require.NoError(t, err)

	actors := newFakeActorStore(actor)
	svc, _ := newTestAtonementService(t, newFakePlanStore(plan), actors, nil)

	first, err := svc.SubmitProof(context.Background(), plan.ID, domain.RemedyLessons, 1, "", "")
	require.NoError(t, err)
	require.True(t, first.Completed)

	again, err := svc.SubmitProof(context.Background(), plan.ID, domain.RemedyLessons, 1, "", "")
	require.NoError(t, err)
	assert.False(t, again.Completed)
	assert.Zero(t, again.Restored)
	assert.Len(t, again.Plan.Proofs, 1)
}

func TestSubmitProofValidation(t *testing.T) {
	t.Parallel()

	actor := testActor(t)
	plan, err := domain.NewAtonementPlan(actor.ID, domain.ActionHarassment, domain.SeverityMajor,
		map[domain.RemedyType]float64{domain.RemedyDonation: 50, domain.RemedyLessons: 6})
	require.NoError(t, err)

	svc, _ := newTestAtonementService(t, newFakePlanStore(plan), newFakeActorStore(actor), nil)

	// Donations require an external transaction reference.
	_, err = svc.SubmitProof(context.Background(), plan.ID, domain.RemedyDonation, 50, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Remedies outside the requirement vector are rejected.
	_, err = svc.SubmitProof(context.Background(), plan.ID, domain.RemedyMentoring, 1, "", "")
	assert.ErrorIs(t, err, domain.ErrUnknownRemedy)

	_, err = svc.SubmitProof(context.Background(), plan.ID, domain.RemedyLessons, 0, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.SubmitProof(context.Background(), uuid.New(), domain.RemedyLessons, 1, "", "")
	assert.ErrorIs(t, err, store.ErrPlanNotFound)
}

func TestListPlansFiltersByStatus(t *testing.T) {
	t.Parallel()

	actor := testActor(t)
	pending, err := domain.NewAtonementPlan(actor.ID, domain.ActionPlagiarism, domain.SeverityMedium,
		map[domain.RemedyType]float64{domain.RemedyLessons: 4})
	require.NoError(t, err)

	completed, err := domain.NewAtonementPlan(actor.ID, domain.ActionDisruptingClass, domain.SeverityMinor,
		map[domain.RemedyType]float64{domain.RemedyLessons: 2})
	require.NoError(t, err)
	completed.Status = domain.PlanCompleted

	svc, _ := newTestAtonementService(t, newFakePlanStore(pending, completed), newFakeActorStore(actor), nil)

	all, err := svc.ListPlans(context.Background(), actor.ID, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	status := domain.PlanPending
	open, err := svc.ListPlans(context.Background(), actor.ID, &status)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, pending.ID, open[0].ID)
}
