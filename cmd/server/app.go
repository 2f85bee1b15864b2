package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/vedhika/samsara-api/internal/advisor"
	"github.com/vedhika/samsara-api/internal/config"
	"github.com/vedhika/samsara-api/internal/domain/karma"
	"github.com/vedhika/samsara-api/internal/events"
	"github.com/vedhika/samsara-api/internal/platform/governance"
	"github.com/vedhika/samsara-api/internal/platform/postgres"
	"github.com/vedhika/samsara-api/internal/platform/rediscache"
	"github.com/vedhika/samsara-api/internal/service"
	"github.com/vedhika/samsara-api/internal/store"
	"github.com/vedhika/samsara-api/internal/task"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	actorStore  store.ActorStore
	txnStore    store.TransactionStore
	debtStore   store.DebtStore
	planStore   store.PlanStore
	deathStore  store.DeathStore
	auditStore  store.AuditStore
	qtableStore store.QTableStore
	taskStore   *postgres.PostgresTaskStore

	// Domain parameters shared by every service
	params *karma.Params

	// Service interfaces
	karmaService     service.KarmaService
	atonementService service.AtonementService
	debtService      service.DebtService
	lifecycleService service.LifecycleService
	auditService     service.AuditService

	// Advisory role model
	advisor *advisor.Advisor

	// Optional merit leaderboard; nil when no cache is configured
	leaderboard *rediscache.Leaderboard

	// Event system
	eventEmitter events.EventEmitter

	// Task handling
	taskRunner *task.TaskRunner
	scheduler  *task.SnapshotScheduler
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
		params: karma.NewDefaultParams(),
	}

	// Initialize stores
	app.actorStore = postgres.NewPostgresActorStore(db, logger)
	app.txnStore = postgres.NewPostgresTransactionStore(db, logger)
	app.debtStore = postgres.NewPostgresDebtStore(db, logger)
	app.planStore = postgres.NewPostgresPlanStore(db, logger)
	app.deathStore = postgres.NewPostgresDeathStore(db, logger)
	app.auditStore = postgres.NewPostgresAuditStore(db, logger)
	app.qtableStore = postgres.NewPostgresQTableStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db)

	// Initialize the audit trail first so every other service can record
	// through it.
	var err error
	app.auditService, err = service.NewAuditService(app.auditStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit service: %w", err)
	}

	// Load the advisory Q-table (starts from zeros on first boot)
	app.advisor, err = advisor.New(ctx, app.qtableStore, app.params, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize role advisor: %w", err)
	}

	// Optional redis-backed merit leaderboard
	if cfg.Cache.RedisURL != "" {
		app.leaderboard, err = rediscache.NewLeaderboard(cfg.Cache.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to leaderboard cache: %w", err)
		}
		logger.Info("Merit leaderboard cache connected")
	}

	// Governance authorizer for irreversible lifecycle events
	authorizer := governance.NewClient(
		cfg.Governance.URL,
		time.Duration(cfg.Governance.TimeoutSeconds)*time.Second,
		logger,
	)

	// Initialize karma service
	karmaDeps := service.KarmaServiceDeps{
		DB:          db,
		ActorStore:  app.actorStore,
		TxnStore:    app.txnStore,
		DebtStore:   app.debtStore,
		PlanStore:   app.planStore,
		RoleAdvisor: app.advisor,
		Auditor:     app.auditService,
		Params:      app.params,
		Logger:      logger,
	}
	if app.leaderboard != nil {
		karmaDeps.Leaderboard = app.leaderboard
	}
	app.karmaService, err = service.NewKarmaService(karmaDeps)
	if err != nil {
		return nil, fmt.Errorf("failed to create karma service: %w", err)
	}

	// Initialize atonement service
	app.atonementService, err = service.NewAtonementService(
		app.planStore,
		app.actorStore,
		app.advisor,
		app.auditService,
		app.params,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create atonement service: %w", err)
	}

	// Initialize debt service
	app.debtService, err = service.NewDebtService(
		db,
		app.debtStore,
		app.auditService,
		app.params,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create debt service: %w", err)
	}

	// Initialize lifecycle service
	lifecycleDeps := service.LifecycleServiceDeps{
		DB:         db,
		ActorStore: app.actorStore,
		DeathStore: app.deathStore,
		PlanStore:  app.planStore,
		Authorizer: authorizer,
		Auditor:    app.auditService,
		Policy:     cfg.Lifecycle.RebirthPolicy,
		Params:     app.params,
		Logger:     logger,
	}
	if app.leaderboard != nil {
		lifecycleDeps.Leaderboard = app.leaderboard
	}
	app.lifecycleService, err = service.NewLifecycleService(lifecycleDeps)
	if err != nil {
		return nil, fmt.Errorf("failed to create lifecycle service: %w", err)
	}

	// Initialize event emitter
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	// Recovered snapshot tasks need rebuilding into executable form
	snapshotFactory := task.NewAuditSnapshotTaskFactory(app.auditService, logger)
	app.taskStore.SetHydrator(snapshotTaskHydrator(snapshotFactory))

	// Initialize task runner
	app.taskRunner, err = setupTaskRunner(app)
	if err != nil {
		return nil, fmt.Errorf("failed to setup task runner: %w", err)
	}

	// Create and register the task factory event handler
	taskFactoryHandler := task.NewTaskFactoryEventHandler(
		snapshotFactory,
		app.taskRunner,
		logger,
	)
	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(taskFactoryHandler)
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register task handler")
	}

	// Schedule the daily snapshot that seals the audit chain
	app.scheduler = task.NewSnapshotScheduler(app.eventEmitter, time.Minute, logger)
	app.scheduler.Start()

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// setupTaskRunner initializes and starts the background task processor.
// It uses the application struct to access required dependencies.
func setupTaskRunner(app *application) (*task.TaskRunner, error) {
	taskRunner := task.NewTaskRunner(app.taskStore, task.TaskRunnerConfig{
		QueueSize:    app.config.Task.QueueSize,
		WorkerCount:  app.config.Task.WorkerCount,
		StuckTaskAge: time.Duration(app.config.Task.StuckTaskAgeMinutes) * time.Minute,
	}, app.logger)

	if err := taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	return taskRunner, nil
}

// snapshotTaskHydrator rebuilds an executable snapshot task from a
// persisted row.
func snapshotTaskHydrator(factory *task.AuditSnapshotTaskFactory) postgres.TaskHydrator {
	return func(taskType string, payload []byte) (task.Task, error) {
		if taskType != task.TaskTypeAuditSnapshot {
			return nil, fmt.Errorf("unknown task type %q", taskType)
		}

		day, err := task.ParseSnapshotPayload(payload)
		if err != nil {
			return nil, err
		}
		return factory.CreateTask(day)
	}
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop the snapshot scheduler before the runner so no new work arrives
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	// Stop task runner
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	// Close leaderboard connection
	if app.leaderboard != nil {
		if err := app.leaderboard.Close(); err != nil {
			app.logger.Error("Error closing leaderboard connection", "error", err)
		}
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
