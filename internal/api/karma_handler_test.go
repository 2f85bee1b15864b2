package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/service"
	"github.com/vedhika/samsara-api/internal/store"
)

// mockKarmaService is a mock implementation of the KarmaService interface
type mockKarmaService struct {
	createActorFn func(ctx context.Context) (*domain.Actor, error)
	logActionFn   func(ctx context.Context, params service.LogActionParams) (*service.LogActionResult, error)
	redeemFn      func(ctx context.Context, actorID uuid.UUID, token domain.TokenName, amount float64) (*service.RedeemResult, error)
	viewBalanceFn func(ctx context.Context, actorID uuid.UUID) (*service.BalanceView, error)
	userStatsFn   func(ctx context.Context, actorID uuid.UUID) (*service.UserStats, error)
	systemStatsFn func(ctx context.Context) (*service.SystemStats, error)
}

func (m *mockKarmaService) CreateActor(ctx context.Context) (*domain.Actor, error) {
	return m.createActorFn(ctx)
}

func (m *mockKarmaService) LogAction(
	ctx context.Context,
	params service.LogActionParams,
) (*service.LogActionResult, error) {
	return m.logActionFn(ctx, params)
}

func (m *mockKarmaService) Redeem(
	ctx context.Context,
	actorID uuid.UUID,
	token domain.TokenName,
	amount float64,
) (*service.RedeemResult, error) {
	return m.redeemFn(ctx, actorID, token, amount)
}

func (m *mockKarmaService) ViewBalance(ctx context.Context, actorID uuid.UUID) (*service.BalanceView, error) {
	return m.viewBalanceFn(ctx, actorID)
}

func (m *mockKarmaService) UserStats(ctx context.Context, actorID uuid.UUID) (*service.UserStats, error) {
	return m.userStatsFn(ctx, actorID)
}

func (m *mockKarmaService) SystemStats(ctx context.Context) (*service.SystemStats, error) {
	return m.systemStatsFn(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// withPathParam attaches a chi route parameter to the request context so
// handlers can be invoked without a full router.
func withPathParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestLogAction(t *testing.T) {
	actorID := uuid.New()

	tests := []struct {
		name           string
		actorParam     string
		body           string
		serviceResult  *service.LogActionResult
		serviceError   error
		expectedStatus int
	}{
		{
			name:       "Success",
			actorParam: actorID.String(),
			body:       `{"action":"helping_peers","role":"learner"}`,
			serviceResult: &service.LogActionResult{
				ActorID:     actorID,
				Action:      domain.ActionHelpingPeers,
				CurrentRole: domain.RoleLearner,
				MeritScore:  12,
				Reward: service.RewardInfo{
					Token:  domain.TokenSeva,
					Amount: 15,
					Intent: domain.IntentReward,
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Malformed JSON",
			actorParam:     actorID.String(),
			body:           `{"action":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing Action",
			actorParam:     actorID.String(),
			body:           `{"role":"learner"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Malformed Actor ID",
			actorParam:     "not-a-uuid",
			body:           `{"action":"helping_peers","role":"learner"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown Action",
			actorParam:     actorID.String(),
			body:           `{"action":"time_travel","role":"learner"}`,
			serviceError:   domain.ErrInvalidAction,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Unknown Actor",
			actorParam:     actorID.String(),
			body:           `{"action":"helping_peers","role":"learner"}`,
			serviceError:   store.ErrActorNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Retired Actor",
			actorParam:     actorID.String(),
			body:           `{"action":"helping_peers","role":"learner"}`,
			serviceError:   service.ErrActorRetired,
			expectedStatus: http.StatusGone,
		},
		{
			name:           "Service Failure",
			actorParam:     actorID.String(),
			body:           `{"action":"helping_peers","role":"learner"}`,
			serviceError:   errors.New("database error"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &mockKarmaService{
				logActionFn: func(ctx context.Context, params service.LogActionParams) (*service.LogActionResult, error) {
					return tc.serviceResult, tc.serviceError
				},
			}
			handler := NewKarmaHandler(mockService, testLogger())

			req := httptest.NewRequest("POST", "/actors/"+tc.actorParam+"/actions", bytes.NewBufferString(tc.body))
			req = withPathParam(req, "actorID", tc.actorParam)
			rr := httptest.NewRecorder()

			handler.LogAction(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tc.expectedStatus)
			}

			if tc.expectedStatus == http.StatusOK {
				var result service.LogActionResult
				if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
					t.Fatalf("failed to decode response body: %v", err)
				}
				if result.ActorID != actorID {
					t.Errorf("wrong actor ID in response: got %v want %v", result.ActorID, actorID)
				}
				if result.Reward.Amount != 15 {
					t.Errorf("wrong reward amount: got %v want 15", result.Reward.Amount)
				}
			}
		})
	}
}

func TestLogActionPassesAffectedActor(t *testing.T) {
	actorID := uuid.New()
	affectedID := uuid.New()

	var captured service.LogActionParams
	mockService := &mockKarmaService{
		logActionFn: func(ctx context.Context, params service.LogActionParams) (*service.LogActionResult, error) {
			captured = params
			return &service.LogActionResult{ActorID: actorID}, nil
		},
	}
	handler := NewKarmaHandler(mockService, testLogger())

	body := `{"action":"plagiarism","role":"learner","affected_actor_id":"` + affectedID.String() + `"}`
	req := httptest.NewRequest("POST", "/actors/"+actorID.String()+"/actions", bytes.NewBufferString(body))
	req = withPathParam(req, "actorID", actorID.String())
	rr := httptest.NewRecorder()

	handler.LogAction(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	if captured.AffectedActorID == nil || *captured.AffectedActorID != affectedID {
		t.Errorf("affected actor not forwarded: got %v want %v", captured.AffectedActorID, affectedID)
	}
}

func TestRedeem(t *testing.T) {
	actorID := uuid.New()

	tests := []struct {
		name           string
		body           string
		serviceResult  *service.RedeemResult
		serviceError   error
		expectedStatus int
	}{
		{
			name: "Success",
			body: `{"token":"punya","amount":10}`,
			serviceResult: &service.RedeemResult{
				ActorID:   actorID,
				Token:     domain.TokenPunya,
				Redeemed:  10,
				Remaining: 5,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Non-Positive Amount",
			body:           `{"token":"punya","amount":-3}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Insufficient Balance",
			body:           `{"token":"punya","amount":10}`,
			serviceError:   domain.ErrInsufficientBalance,
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Unknown Token",
			body:           `{"token":"gold","amount":10}`,
			serviceError:   domain.ErrUnknownToken,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &mockKarmaService{
				redeemFn: func(ctx context.Context, id uuid.UUID, token domain.TokenName, amount float64) (*service.RedeemResult, error) {
					return tc.serviceResult, tc.serviceError
				},
			}
			handler := NewKarmaHandler(mockService, testLogger())

			req := httptest.NewRequest("POST", "/actors/"+actorID.String()+"/redeem", bytes.NewBufferString(tc.body))
			req = withPathParam(req, "actorID", actorID.String())
			rr := httptest.NewRecorder()

			handler.Redeem(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tc.expectedStatus)
			}

			if tc.expectedStatus == http.StatusOK {
				var result service.RedeemResult
				if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
					t.Fatalf("failed to decode response body: %v", err)
				}
				if result.Remaining != 5 {
					t.Errorf("wrong remaining balance: got %v want 5", result.Remaining)
				}
			}
		})
	}
}

func TestGetBalance(t *testing.T) {
	actorID := uuid.New()

	mockService := &mockKarmaService{
		viewBalanceFn: func(ctx context.Context, id uuid.UUID) (*service.BalanceView, error) {
			if id != actorID {
				t.Errorf("wrong actor ID passed to service: got %v want %v", id, actorID)
			}
			return &service.BalanceView{
				ActorID:    actorID,
				Role:       domain.RoleVolunteer,
				MeritScore: 62,
			}, nil
		},
	}
	handler := NewKarmaHandler(mockService, testLogger())

	req := httptest.NewRequest("GET", "/actors/"+actorID.String()+"/balance", nil)
	req = withPathParam(req, "actorID", actorID.String())
	rr := httptest.NewRecorder()

	handler.GetBalance(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	var view service.BalanceView
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if view.Role != domain.RoleVolunteer {
		t.Errorf("wrong role: got %v want %v", view.Role, domain.RoleVolunteer)
	}
	if view.MeritScore != 62 {
		t.Errorf("wrong merit score: got %v want 62", view.MeritScore)
	}
}

func TestGetUserStats(t *testing.T) {
	actorID := uuid.New()

	tests := []struct {
		name           string
		serviceResult  *service.UserStats
		serviceError   error
		expectedStatus int
	}{
		{
			name: "Success",
			serviceResult: &service.UserStats{
				ActorID: actorID,
				Role:    domain.RoleLearner,
				Realm:   domain.RealmBhumi,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Unknown Actor",
			serviceError:   store.ErrActorNotFound,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mockService := &mockKarmaService{
				userStatsFn: func(ctx context.Context, id uuid.UUID) (*service.UserStats, error) {
					return tc.serviceResult, tc.serviceError
				},
			}
			handler := NewKarmaHandler(mockService, testLogger())

			req := httptest.NewRequest("GET", "/actors/"+actorID.String()+"/stats", nil)
			req = withPathParam(req, "actorID", actorID.String())
			rr := httptest.NewRecorder()

			handler.GetUserStats(rr, req)

			if rr.Code != tc.expectedStatus {
				t.Errorf("handler returned wrong status code: got %v want %v", rr.Code, tc.expectedStatus)
			}
		})
	}
}

func TestGetSystemStats(t *testing.T) {
	mockService := &mockKarmaService{
		systemStatsFn: func(ctx context.Context) (*service.SystemStats, error) {
			return &service.SystemStats{Actors: 42, TransactionsToday: 7}, nil
		},
	}
	handler := NewKarmaHandler(mockService, testLogger())

	req := httptest.NewRequest("GET", "/stats", nil)
	rr := httptest.NewRecorder()

	handler.GetSystemStats(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusOK)
	}
	var stats service.SystemStats
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if stats.Actors != 42 {
		t.Errorf("wrong actor count: got %v want 42", stats.Actors)
	}
}

func TestCreateActorHandler(t *testing.T) {
	created := &domain.Actor{ID: uuid.New(), Role: domain.RoleLearner}

	mockService := &mockKarmaService{
		createActorFn: func(ctx context.Context) (*domain.Actor, error) {
			return created, nil
		},
	}
	handler := NewKarmaHandler(mockService, testLogger())

	req := httptest.NewRequest("POST", "/actors", nil)
	rr := httptest.NewRecorder()

	handler.CreateActor(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("handler returned wrong status code: got %v want %v", rr.Code, http.StatusCreated)
	}
	var actor domain.Actor
	if err := json.NewDecoder(rr.Body).Decode(&actor); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if actor.ID != created.ID {
		t.Errorf("wrong actor ID: got %v want %v", actor.ID, created.ID)
	}
}

func TestNewKarmaHandlerPanicsOnNilLogger(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic with nil logger, got none")
		}
	}()
	NewKarmaHandler(&mockKarmaService{}, nil)
}
