package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vedhika/samsara-api/internal/api/shared"
	"github.com/vedhika/samsara-api/internal/platform/logger"
	"github.com/vedhika/samsara-api/internal/service"
)

// AuditHandler handles audit verification HTTP requests
type AuditHandler struct {
	auditService service.AuditService
	logger       *slog.Logger
}

// NewAuditHandler creates a new AuditHandler
func NewAuditHandler(auditService service.AuditService, logger *slog.Logger) *AuditHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuditHandler")
	}

	return &AuditHandler{
		auditService: auditService,
		logger:       logger.With(slog.String("component", "audit_handler")),
	}
}

// VerifyEntry handles GET /audit/entries/{index}/verify requests
func (h *AuditHandler) VerifyEntry(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || index < 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid entry index")
		return
	}

	valid, entry, err := h.auditService.VerifyEntry(r.Context(), index)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"valid": valid,
		"entry": entry,
	})
}

// VerifySnapshot handles GET /audit/snapshots/{date}/verify requests
func (h *AuditHandler) VerifySnapshot(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	valid, snapshot, err := h.auditService.VerifySnapshot(r.Context(), date)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"valid":    valid,
		"snapshot": snapshot,
	})
}

// VerifyDay handles GET /audit/days/{date}/verify requests
func (h *AuditHandler) VerifyDay(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "date")
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
		return
	}

	valid, err := h.auditService.VerifyDay(r.Context(), day)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"date":  raw,
		"valid": valid,
	})
}

// BuildSnapshot handles POST /audit/snapshots requests. With no date in
// the body it snapshots the previous UTC day.
func (h *AuditHandler) BuildSnapshot(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	day := time.Now().UTC().AddDate(0, 0, -1)
	var req BuildSnapshotRequest
	if err := shared.DecodeJSON(r, &req); err == nil && req.Date != "" {
		parsed, parseErr := time.Parse("2006-01-02", req.Date)
		if parseErr != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid date, expected YYYY-MM-DD")
			return
		}
		day = parsed
	}

	snapshot, err := h.auditService.BuildSnapshot(r.Context(), day)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("audit snapshot built", slog.String("date", snapshot.Date))
	shared.RespondWithJSON(w, r, http.StatusCreated, snapshot)
}
