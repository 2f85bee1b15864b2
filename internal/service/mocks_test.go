package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/advisor"
	"github.com/vedhika/samsara-api/internal/audit"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/platform/governance"
	"github.com/vedhika/samsara-api/internal/store"
)

// fakeActorStore is an in-memory store.ActorStore. Error fields inject
// failures per method; zero value behaves like an empty database.
type fakeActorStore struct {
	mu     sync.Mutex
	actors map[uuid.UUID]*domain.Actor

	getErr         error
	adjustErr      error
	redeemErr      error
	roleErr        error
	infractionsErr error
	destinyErr     error

	roleUpdates      []domain.Role
	infractionWrites int
	replacedBalances int
	retired          []uuid.UUID
}

func newFakeActorStore(actors ...*domain.Actor) *fakeActorStore {
	s := &fakeActorStore{actors: make(map[uuid.UUID]*domain.Actor)}
	for _, a := range actors {
		s.actors[a.ID] = a
	}
	return s
}

func (s *fakeActorStore) Create(ctx context.Context, actor *domain.Actor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors[actor.ID]; ok {
		return store.ErrDuplicate
	}
	s.actors[actor.ID] = actor
	return nil
}

func (s *fakeActorStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	actor, ok := s.actors[id]
	if !ok {
		return nil, store.ErrActorNotFound
	}
	return actor.Clone(), nil
}

func (s *fakeActorStore) AdjustBalance(
	ctx context.Context,
	actorID uuid.UUID,
	token domain.TokenName,
	tier domain.Severity,
	delta float64,
) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.adjustErr != nil {
		return 0, s.adjustErr
	}
	actor, ok := s.actors[actorID]
	if !ok {
		return 0, store.ErrActorNotFound
	}

	if tier != "" {
		bal := actor.Balances[token]
		if bal.Kind != domain.BalanceTiered {
			bal = domain.TieredBalance(nil)
		}
		next := bal.Tiers[tier] + delta
		if next < 0 {
			next = 0
		}
		bal.Tiers[tier] = next
		actor.Balances[token] = bal
		return next, nil
	}

	next := actor.Balances[token].Amount + delta
	if next < 0 {
		next = 0
	}
	actor.Balances[token] = domain.SimpleBalance(next)
	return next, nil
}

func (s *fakeActorStore) Redeem(
	ctx context.Context,
	actorID uuid.UUID,
	token domain.TokenName,
	amount float64,
) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redeemErr != nil {
		return 0, s.redeemErr
	}
	actor, ok := s.actors[actorID]
	if !ok {
		return 0, store.ErrActorNotFound
	}
	bal := actor.Balances[token]
	if bal.Amount < amount {
		return 0, domain.ErrInsufficientBalance
	}
	actor.Balances[token] = domain.SimpleBalance(bal.Amount - amount)
	return bal.Amount - amount, nil
}

func (s *fakeActorStore) PersistDecay(
	ctx context.Context,
	actorID uuid.UUID,
	balances map[domain.TokenName]domain.Balance,
	prevDecayAt, decayedAt time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.actors[actorID]
	if !ok {
		return store.ErrActorNotFound
	}
	if !actor.LastDecayAt.Equal(prevDecayAt) {
		return store.ErrStaleDecay
	}
	actor.Balances = balances
	actor.LastDecayAt = decayedAt
	return nil
}

func (s *fakeActorStore) ReplaceBalances(
	ctx context.Context,
	actorID uuid.UUID,
	balances map[domain.TokenName]domain.Balance,
	meta map[domain.TokenName]domain.TokenMeta,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.actors[actorID]
	if !ok {
		return store.ErrActorNotFound
	}
	actor.Balances = balances
	actor.TokenMeta = meta
	s.replacedBalances++
	return nil
}

func (s *fakeActorStore) UpdateRole(ctx context.Context, actorID uuid.UUID, role domain.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roleErr != nil {
		return s.roleErr
	}
	actor, ok := s.actors[actorID]
	if !ok {
		return store.ErrActorNotFound
	}
	actor.Role = role
	s.roleUpdates = append(s.roleUpdates, role)
	return nil
}

func (s *fakeActorStore) ReplaceInfractions(ctx context.Context, actorID uuid.UUID, history []time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.infractionsErr != nil {
		return s.infractionsErr
	}
	actor, ok := s.actors[actorID]
	if !ok {
		return store.ErrActorNotFound
	}
	actor.InfractionHistory = history
	s.infractionWrites++
	return nil
}

func (s *fakeActorStore) AdjustDestiny(ctx context.Context, actorID uuid.UUID, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destinyErr != nil {
		return s.destinyErr
	}
	actor, ok := s.actors[actorID]
	if !ok {
		return store.ErrActorNotFound
	}
	actor.DestinyCounter += delta
	return nil
}

func (s *fakeActorStore) ResetDestiny(ctx context.Context, actorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.actors[actorID]
	if !ok {
		return store.ErrActorNotFound
	}
	actor.DestinyCounter = 0
	return nil
}

func (s *fakeActorStore) IncrementRebirth(ctx context.Context, actorID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.actors[actorID]
	if !ok {
		return store.ErrActorNotFound
	}
	actor.RebirthCount++
	return nil
}

func (s *fakeActorStore) Retire(ctx context.Context, actorID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	actor, ok := s.actors[actorID]
	if !ok {
		return store.ErrActorNotFound
	}
	actor.RetiredAt = &at
	s.retired = append(s.retired, actorID)
	return nil
}

func (s *fakeActorStore) Count(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, actor := range s.actors {
		if actor.RetiredAt == nil {
			n++
		}
	}
	return n, nil
}

func (s *fakeActorStore) WithTx(tx *sql.Tx) store.ActorStore { return s }

// fakeTxnStore collects created transactions.
type fakeTxnStore struct {
	created   []*domain.Transaction
	createErr error
	listed    []*domain.Transaction
	count     int64
}

func (s *fakeTxnStore) Create(ctx context.Context, txn *domain.Transaction) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = append(s.created, txn)
	return nil
}

func (s *fakeTxnStore) ListByActor(ctx context.Context, actorID uuid.UUID, limit int) ([]*domain.Transaction, error) {
	return s.listed, nil
}

func (s *fakeTxnStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return s.count, nil
}

// fakeDebtStore is an in-memory store.DebtStore.
type fakeDebtStore struct {
	debts     map[uuid.UUID]*domain.DebtRelationship
	createErr error
	listErr   error
}

func newFakeDebtStore(debts ...*domain.DebtRelationship) *fakeDebtStore {
	s := &fakeDebtStore{debts: make(map[uuid.UUID]*domain.DebtRelationship)}
	for _, d := range debts {
		s.debts[d.ID] = d
	}
	return s
}

func (s *fakeDebtStore) Create(ctx context.Context, debt *domain.DebtRelationship) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.debts[debt.ID] = debt
	return nil
}

func (s *fakeDebtStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.DebtRelationship, error) {
	debt, ok := s.debts[id]
	if !ok {
		return nil, store.ErrDebtNotFound
	}
	return debt, nil
}

func (s *fakeDebtStore) Update(ctx context.Context, debt *domain.DebtRelationship) error {
	if _, ok := s.debts[debt.ID]; !ok {
		return store.ErrDebtNotFound
	}
	s.debts[debt.ID] = debt
	return nil
}

func (s *fakeDebtStore) Transfer(ctx context.Context, original, successor *domain.DebtRelationship) error {
	s.debts[original.ID] = original
	s.debts[successor.ID] = successor
	return nil
}

func (s *fakeDebtStore) ListByDebtor(
	ctx context.Context,
	debtorID uuid.UUID,
	status *domain.DebtStatus,
) ([]*domain.DebtRelationship, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*domain.DebtRelationship
	for _, d := range s.debts {
		if d.DebtorID == debtorID && (status == nil || d.Status == *status) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeDebtStore) ListByReceiver(
	ctx context.Context,
	receiverID uuid.UUID,
	status *domain.DebtStatus,
) ([]*domain.DebtRelationship, error) {
	var out []*domain.DebtRelationship
	for _, d := range s.debts {
		if d.ReceiverID == receiverID && (status == nil || d.Status == *status) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeDebtStore) WithTx(tx *sql.Tx) store.DebtStore { return s }

// fakePlanStore is an in-memory store.PlanStore.
type fakePlanStore struct {
	plans      map[uuid.UUID]*domain.AtonementPlan
	appeals    []*domain.Appeal
	createErr  error
	updateErr  error
	discardErr error
}

func newFakePlanStore(plans ...*domain.AtonementPlan) *fakePlanStore {
	s := &fakePlanStore{plans: make(map[uuid.UUID]*domain.AtonementPlan)}
	for _, p := range plans {
		s.plans[p.ID] = p
	}
	return s
}

func (s *fakePlanStore) Create(ctx context.Context, plan *domain.AtonementPlan, appeal *domain.Appeal) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.plans[plan.ID] = plan
	s.appeals = append(s.appeals, appeal)
	return nil
}

func (s *fakePlanStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.AtonementPlan, error) {
	plan, ok := s.plans[id]
	if !ok {
		return nil, store.ErrPlanNotFound
	}
	return plan, nil
}

func (s *fakePlanStore) Update(ctx context.Context, plan *domain.AtonementPlan) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.plans[plan.ID] = plan
	return nil
}

func (s *fakePlanStore) ListByActor(
	ctx context.Context,
	actorID uuid.UUID,
	status *domain.PlanStatus,
) ([]*domain.AtonementPlan, error) {
	var out []*domain.AtonementPlan
	for _, p := range s.plans {
		if p.ActorID == actorID && (status == nil || p.Status == *status) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakePlanStore) DiscardPending(ctx context.Context, actorID uuid.UUID) (int64, error) {
	if s.discardErr != nil {
		return 0, s.discardErr
	}
	var n int64
	for id, p := range s.plans {
		if p.ActorID == actorID && p.Status == domain.PlanPending {
			delete(s.plans, id)
			n++
		}
	}
	return n, nil
}

// fakeDeathStore is an in-memory store.DeathStore.
type fakeDeathStore struct {
	events    map[uuid.UUID]*domain.DeathEvent // keyed by actor
	createErr error
}

func newFakeDeathStore(events ...*domain.DeathEvent) *fakeDeathStore {
	s := &fakeDeathStore{events: make(map[uuid.UUID]*domain.DeathEvent)}
	for _, e := range events {
		s.events[e.ActorID] = e
	}
	return s
}

func (s *fakeDeathStore) Create(ctx context.Context, event *domain.DeathEvent) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.events[event.ActorID] = event
	return nil
}

func (s *fakeDeathStore) LatestByActor(ctx context.Context, actorID uuid.UUID) (*domain.DeathEvent, error) {
	event, ok := s.events[actorID]
	if !ok {
		return nil, store.ErrDeathEventNotFound
	}
	return event, nil
}

func (s *fakeDeathStore) MarkRebirthApplied(ctx context.Context, eventID uuid.UUID, at time.Time) error {
	for _, e := range s.events {
		if e.ID == eventID {
			if e.RebirthAppliedAt != nil {
				return store.ErrUpdateFailed
			}
			e.RebirthAppliedAt = &at
			return nil
		}
	}
	return store.ErrUpdateFailed
}

// fakeAuditRecorder records events in order.
type fakeAuditRecorder struct {
	events    []string
	recordErr error
}

func (r *fakeAuditRecorder) RecordEvent(
	ctx context.Context,
	eventType, actorID string,
	payload map[string]any,
) (*audit.Entry, error) {
	if r.recordErr != nil {
		return nil, r.recordErr
	}
	r.events = append(r.events, eventType)
	return audit.NewEntry(eventType, actorID, payload), nil
}

// fakeAdvisor is a canned RoleAdvisor / PlanReinforcer.
type fakeAdvisor struct {
	observation advisor.Observation
	observeErr  error

	observed   []domain.Action
	reinforced []float64
}

func (a *fakeAdvisor) Observe(
	ctx context.Context,
	actor *domain.Actor,
	currentRole domain.Role,
	action domain.Action,
	reward float64,
) (advisor.Observation, error) {
	if a.observeErr != nil {
		return advisor.Observation{}, a.observeErr
	}
	a.observed = append(a.observed, action)
	return a.observation, nil
}

func (a *fakeAdvisor) Reinforce(ctx context.Context, actor *domain.Actor, reward float64) (advisor.Observation, error) {
	if a.observeErr != nil {
		return advisor.Observation{}, a.observeErr
	}
	a.reinforced = append(a.reinforced, reward)
	return a.observation, nil
}

// fakeAuthorizer is a canned governance.Authorizer capturing the descriptor.
type fakeAuthorizer struct {
	authorized bool
	err        error
	events     []governance.EventDescriptor
}

func (a *fakeAuthorizer) Authorize(ctx context.Context, event governance.EventDescriptor) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	a.events = append(a.events, event)
	return a.authorized, nil
}

// fakeLeaderboard records score updates and removals.
type fakeLeaderboard struct {
	scores    map[uuid.UUID]float64
	removed   []uuid.UUID
	updateErr error
}

func newFakeLeaderboard() *fakeLeaderboard {
	return &fakeLeaderboard{scores: make(map[uuid.UUID]float64)}
}

func (l *fakeLeaderboard) UpdateScore(ctx context.Context, actorID uuid.UUID, score float64) error {
	if l.updateErr != nil {
		return l.updateErr
	}
	l.scores[actorID] = score
	return nil
}

func (l *fakeLeaderboard) Remove(ctx context.Context, actorID uuid.UUID) error {
	l.removed = append(l.removed, actorID)
	return nil
}

// fakeAuditStore is an in-memory store.AuditStore for audit service tests.
type fakeAuditStore struct {
	entries   []*audit.Entry
	snapshots map[string]*audit.Snapshot
	appendErr error
}

func newFakeAuditStore() *fakeAuditStore {
	return &fakeAuditStore{snapshots: make(map[string]*audit.Snapshot)}
}

func (s *fakeAuditStore) Append(ctx context.Context, entry *audit.Entry) (*audit.Entry, error) {
	if s.appendErr != nil {
		return nil, s.appendErr
	}
	index := int64(0)
	prev := audit.GenesisHash
	if n := len(s.entries); n > 0 {
		index = s.entries[n-1].Index + 1
		prev = s.entries[n-1].Hash
	}
	if err := audit.Enhance(entry, index, prev, time.Now().UTC()); err != nil {
		return nil, err
	}
	s.entries = append(s.entries, entry)
	return entry, nil
}

func (s *fakeAuditStore) Latest(ctx context.Context) (*audit.Entry, error) {
	if len(s.entries) == 0 {
		return nil, store.ErrNotFound
	}
	return s.entries[len(s.entries)-1], nil
}

func (s *fakeAuditStore) GetByIndex(ctx context.Context, index int64) (*audit.Entry, error) {
	for _, e := range s.entries {
		if e.Index == index {
			return e, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *fakeAuditStore) ListByDay(ctx context.Context, day time.Time) ([]*audit.Entry, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	var out []*audit.Entry
	for _, e := range s.entries {
		if !e.Timestamp.Before(start) && e.Timestamp.Before(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeAuditStore) SaveSnapshot(ctx context.Context, snapshot *audit.Snapshot) error {
	if _, ok := s.snapshots[snapshot.Date]; ok {
		return store.ErrDuplicate
	}
	s.snapshots[snapshot.Date] = snapshot
	return nil
}

func (s *fakeAuditStore) GetSnapshot(ctx context.Context, date string) (*audit.Snapshot, error) {
	snapshot, ok := s.snapshots[date]
	if !ok {
		return nil, store.ErrSnapshotNotFound
	}
	return snapshot, nil
}
