// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/vedhika/samsara-api/internal/api/shared"
	"github.com/vedhika/samsara-api/internal/domain"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/service"
)

// KarmaHandler handles ledger-related HTTP requests
type KarmaHandler struct {
	karmaService service.KarmaService
	logger       *slog.Logger
}

// NewKarmaHandler creates a new KarmaHandler
func NewKarmaHandler(karmaService service.KarmaService, logger *slog.Logger) *KarmaHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for KarmaHandler")
	}

	return &KarmaHandler{
		karmaService: karmaService,
		logger:       logger.With(slog.String("component", "karma_handler")),
	}
}

// CreateActor handles POST /actors requests
func (h *KarmaHandler) CreateActor(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, err := h.karmaService.CreateActor(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create actor")
		return
	}

	log.Debug("actor created", slog.String("actor_id", actor.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, actor)
}

// LogAction handles POST /actors/{actorID}/actions requests
// It runs the full action pipeline and returns the primary result together
// with the auxiliary outcomes.
func (h *KarmaHandler) LogAction(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actorID, err := getPathUUID(r, "actorID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req LogActionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	affected, err := parseOptionalUUID(req.AffectedActorID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	result, err := h.karmaService.LogAction(r.Context(), service.LogActionParams{
		ActorID:         actorID,
		Action:          domain.Action(req.Action),
		Role:            domain.Role(req.Role),
		Note:            req.Note,
		AffectedActorID: affected,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("action logged",
		slog.String("actor_id", actorID.String()),
		slog.String("action", req.Action))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// Redeem handles POST /actors/{actorID}/redeem requests
func (h *KarmaHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actorID, err := getPathUUID(r, "actorID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req RedeemRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	result, err := h.karmaService.Redeem(r.Context(), actorID, domain.TokenName(req.Token), req.Amount)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Debug("tokens redeemed",
		slog.String("actor_id", actorID.String()),
		slog.String("token", req.Token))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// GetBalance handles GET /actors/{actorID}/balance requests
func (h *KarmaHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	actorID, err := getPathUUID(r, "actorID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	view, err := h.karmaService.ViewBalance(r.Context(), actorID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// GetUserStats handles GET /actors/{actorID}/stats requests
func (h *KarmaHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	actorID, err := getPathUUID(r, "actorID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	stats, err := h.karmaService.UserStats(r.Context(), actorID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}

// GetSystemStats handles GET /stats requests
func (h *KarmaHandler) GetSystemStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.karmaService.SystemStats(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to compute system stats")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
