package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vedhika/samsara-api/internal/api"
	apiMiddleware "github.com/vedhika/samsara-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
// It accepts the application dependencies to create handlers and register routes.
// Returns the configured router.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware) // Add trace IDs for improved error handling

	// Create API handlers using the application's services
	karmaHandler := api.NewKarmaHandler(app.karmaService, app.logger)
	atonementHandler := api.NewAtonementHandler(app.atonementService, app.logger)
	debtHandler := api.NewDebtHandler(app.debtService, app.logger)
	lifecycleHandler := api.NewLifecycleHandler(app.lifecycleService, app.logger)
	auditHandler := api.NewAuditHandler(app.auditService, app.logger)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		// Actor ledger endpoints
		r.Post("/actors", karmaHandler.CreateActor)
		r.Post("/actors/{actorID}/actions", karmaHandler.LogAction)
		r.Post("/actors/{actorID}/redeem", karmaHandler.Redeem)
		r.Get("/actors/{actorID}/balance", karmaHandler.GetBalance)
		r.Get("/actors/{actorID}/stats", karmaHandler.GetUserStats)
		r.Get("/stats", karmaHandler.GetSystemStats)

		// Atonement endpoints
		r.Post("/actors/{actorID}/atonement-plans", atonementHandler.CreatePlan)
		r.Get("/actors/{actorID}/atonement-plans", atonementHandler.ListPlans)
		r.Post("/atonement-plans/{planID}/proofs", atonementHandler.SubmitProof)

		// Debt endpoints
		r.Post("/debts", debtHandler.CreateDebt)
		r.Post("/debts/{debtID}/repayments", debtHandler.RepayDebt)
		r.Post("/debts/{debtID}/transfer", debtHandler.TransferDebt)
		r.Get("/actors/{actorID}/debts", debtHandler.ListDebts)
		r.Get("/actors/{actorID}/credits", debtHandler.ListCredits)

		// Lifecycle endpoints
		r.Get("/actors/{actorID}/death-threshold", lifecycleHandler.CheckThreshold)
		r.Post("/actors/{actorID}/death", lifecycleHandler.ProcessDeath)
		r.Post("/actors/{actorID}/rebirth", lifecycleHandler.ProcessRebirth)

		// Audit verification endpoints
		r.Get("/audit/entries/{index}/verify", auditHandler.VerifyEntry)
		r.Get("/audit/snapshots/{date}/verify", auditHandler.VerifySnapshot)
		r.Get("/audit/days/{date}/verify", auditHandler.VerifyDay)
		r.Post("/audit/snapshots", auditHandler.BuildSnapshot)
	})

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
