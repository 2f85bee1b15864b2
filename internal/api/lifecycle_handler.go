package api

import (
	"log/slog"
	"net/http"

	"github.com/vedhika/samsara-api/internal/api/shared"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/service"
)

// LifecycleHandler handles death and rebirth HTTP requests
type LifecycleHandler struct {
	lifecycleService service.LifecycleService
	logger           *slog.Logger
}

// NewLifecycleHandler creates a new LifecycleHandler
func NewLifecycleHandler(lifecycleService service.LifecycleService, logger *slog.Logger) *LifecycleHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for LifecycleHandler")
	}

	return &LifecycleHandler{
		lifecycleService: lifecycleService,
		logger:           logger.With(slog.String("component", "lifecycle_handler")),
	}
}

// CheckThreshold handles GET /actors/{actorID}/death-threshold requests
func (h *LifecycleHandler) CheckThreshold(w http.ResponseWriter, r *http.Request) {
	actorID, err := getPathUUID(r, "actorID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	diag, err := h.lifecycleService.CheckThreshold(r.Context(), actorID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, diag)
}

// ProcessDeath handles POST /actors/{actorID}/death requests.
// A governance denial is a 403 with the outcome body; nothing was mutated.
func (h *LifecycleHandler) ProcessDeath(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actorID, err := getPathUUID(r, "actorID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	outcome, err := h.lifecycleService.ProcessDeath(r.Context(), actorID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if !outcome.Authorized {
		log.Info("death denied by governance", slog.String("actor_id", actorID.String()))
		shared.RespondWithJSON(w, r, http.StatusForbidden, outcome)
		return
	}

	log.Info("death committed", slog.String("actor_id", actorID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, outcome)
}

// ProcessRebirth handles POST /actors/{actorID}/rebirth requests
func (h *LifecycleHandler) ProcessRebirth(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actorID, err := getPathUUID(r, "actorID")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	outcome, err := h.lifecycleService.ProcessRebirth(r.Context(), actorID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("rebirth applied",
		slog.String("actor_id", actorID.String()),
		slog.String("reborn_actor_id", outcome.ActorID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, outcome)
}
