package api

import (
	"log/slog"
	"net/http"

	"github.com/vedhika/samsara-api/internal/api/shared"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/service"
)

// AtonementHandler handles atonement plan HTTP requests
type AtonementHandler struct {
	atonementService service.AtonementService
	logger           *slog.Logger
}

// NewAtonementHandler creates a new AtonementHandler
func NewAtonementHandler(atonementService service.AtonementService, logger *slog.Logger) *AtonementHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AtonementHandler")
	}

	return &AtonementHandler{
		atonementService: atonementService,
		logger:           logger.With(slog.String("component", "atonement_handler")),
	}
}

// CreatePlan handles POST /actors/{actorID}/atonement-plans requests
func (h *AtonementHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actorID, err := getPathUUID(r, "actorID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req CreatePlanRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	plan, err := h.atonementService.CreatePlan(r.Context(), actorID, domain.Action(req.OriginAction), req.Reason)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("atonement plan created",
		slog.String("actor_id", actorID.String()),
		slog.String("plan_id", plan.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, plan)
}

// SubmitProof handles POST /atonement-plans/{planID}/proofs requests
func (h *AtonementHandler) SubmitProof(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	planID, err := getPathUUID(r, "planID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req SubmitProofRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.atonementService.SubmitProof(
		r.Context(),
		planID,
		domain.RemedyType(req.Remedy),
		req.Amount,
		req.Text,
		req.TxRef,
	)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("atonement proof submitted",
		slog.String("plan_id", planID.String()),
		slog.Bool("completed", result.Completed))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// ListPlans handles GET /actors/{actorID}/atonement-plans requests.
// An optional status query parameter filters by plan status.
func (h *AtonementHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	actorID, err := getPathUUID(r, "actorID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var status *domain.PlanStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.PlanStatus(raw)
		if s != domain.PlanPending && s != domain.PlanCompleted {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid status filter")
			return
		}
		status = &s
	}

	plans, err := h.atonementService.ListPlans(r.Context(), actorID, status)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if plans == nil {
		plans = []*domain.AtonementPlan{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, plans)
}
