package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/vedhika/samsara-api/internal/api/shared"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/service"
)

// DebtHandler handles debt relationship HTTP requests
type DebtHandler struct {
	debtService service.DebtService
	logger      *slog.Logger
}

// NewDebtHandler creates a new DebtHandler
func NewDebtHandler(debtService service.DebtService, logger *slog.Logger) *DebtHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DebtHandler")
	}

	return &DebtHandler{
		debtService: debtService,
		logger:      logger.With(slog.String("component", "debt_handler")),
	}
}

// CreateDebt handles POST /debts requests
func (h *DebtHandler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateDebtRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	debtorID, err := uuid.Parse(req.DebtorID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid debtor_id")
		return
	}
	receiverID, err := uuid.Parse(req.ReceiverID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid receiver_id")
		return
	}

	debt, err := h.debtService.CreateDebt(r.Context(), service.CreateDebtParams{
		DebtorID:    debtorID,
		ReceiverID:  receiverID,
		Action:      domain.Action(req.Action),
		Severity:    domain.Severity(req.Severity),
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("debt created", slog.String("debt_id", debt.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, debt)
}

// RepayDebt handles POST /debts/{debtID}/repayments requests
func (h *DebtHandler) RepayDebt(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	debtID, err := getPathUUID(r, "debtID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req RepayDebtRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	debt, err := h.debtService.Repay(r.Context(), debtID, req.Amount)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("debt repayment applied",
		slog.String("debt_id", debtID.String()),
		slog.Float64("remaining", debt.Remaining))
	shared.RespondWithJSON(w, r, http.StatusOK, debt)
}

// TransferDebt handles POST /debts/{debtID}/transfer requests
func (h *DebtHandler) TransferDebt(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	debtID, err := getPathUUID(r, "debtID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req TransferDebtRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	newDebtorID, err := uuid.Parse(req.NewDebtorID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid new_debtor_id")
		return
	}

	successor, err := h.debtService.Transfer(r.Context(), debtID, newDebtorID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("debt transferred",
		slog.String("debt_id", debtID.String()),
		slog.String("successor_id", successor.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, successor)
}

// ListDebts handles GET /actors/{actorID}/debts requests
func (h *DebtHandler) ListDebts(w http.ResponseWriter, r *http.Request) {
	h.listRelationships(w, r, h.debtService.ListDebts)
}

// ListCredits handles GET /actors/{actorID}/credits requests
func (h *DebtHandler) ListCredits(w http.ResponseWriter, r *http.Request) {
	h.listRelationships(w, r, h.debtService.ListCredits)
}

func (h *DebtHandler) listRelationships(
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, actorID uuid.UUID, status *domain.DebtStatus) ([]*domain.DebtRelationship, error),
) {
	actorID, err := getPathUUID(r, "actorID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var status *domain.DebtStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.DebtStatus(raw)
		if !s.IsValid() {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid status filter")
			return
		}
		status = &s
	}

	debts, err := list(r.Context(), actorID, status)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if debts == nil {
		debts = []*domain.DebtRelationship{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, debts)
}
