package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TaskRunnerConfig holds configuration for the task runner.
type TaskRunnerConfig struct {
	// WorkerCount is how many workers execute tasks concurrently.
	WorkerCount int

	// QueueSize bounds the in-memory task queue.
	QueueSize int

	// StuckTaskAge is how long a task may sit in the processing state
	// before the monitor resets it back to pending.
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval is how often the monitor scans for stuck
	// tasks. Zero defaults to five minutes.
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults.
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskRunner executes background tasks on a worker pool fed by a bounded
// queue. Tasks persist to the store before queueing, so work submitted
// just before a crash is recovered and re-run on the next start.
type TaskRunner struct {
	store      TaskStore
	queue      *TaskQueue
	pool       *WorkerPool
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)
}

// NewTaskRunner creates a runner ready to Start.
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	r := &TaskRunner{
		store:      store,
		queue:      NewTaskQueue(config.QueueSize, logger),
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger,
		errHandler: func(task Task, err error) {
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}

	r.pool = NewWorkerPool(
		r.queue,
		WorkerPoolConfig{WorkerCount: config.WorkerCount},
		r.processTask,
		logger,
	)

	return r
}

// SetErrorHandler replaces the default log-only handler for failed tasks.
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// Submit persists the task and queues it for execution. The persisted row
// is what makes the task survive a crash between Submit and execution.
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	if err := r.queue.Enqueue(task); err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Start recovers unfinished tasks from the store and launches the worker
// pool and the stuck-task monitor.
func (r *TaskRunner) Start() error {
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	r.pool.Start()

	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop shuts down the monitor and workers, waiting for in-flight tasks,
// then closes the queue against further submissions.
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.pool.Stop()
	r.wg.Wait()
	r.queue.Close()
}

// Recover requeues tasks left pending or processing by a previous run.
// Processing tasks are reset to pending first; a task interrupted mid-run
// simply executes again.
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	pendingTasks, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Age zero fetches every processing task, however recent.
	processingTasks, err := r.store.GetProcessingTasks(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pendingTasks),
		"processing_count", len(processingTasks))

	for _, task := range pendingTasks {
		r.requeue(task)
	}

	for _, task := range processingTasks {
		if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
			continue
		}
		r.requeue(task)
	}

	return nil
}

// requeue places a recovered task back on the queue, logging rather than
// failing startup when the queue is full.
func (r *TaskRunner) requeue(task Task) {
	if err := r.queue.Enqueue(task); err != nil {
		r.logger.Error("failed to requeue task",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"error", err)
	}
}

// processTask runs one task, recording the status transition around it.
func (r *TaskRunner) processTask(task Task, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		logger.Error("failed to update task status to processing", "error", err)
		return
	}

	logger.Info("processing task")

	if err := task.Execute(ctx); err != nil {
		logger.Error("task execution failed", "error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update task status to failed", "error", updateErr)
		}
		r.errHandler(task, err)
		return
	}

	logger.Info("task completed successfully")
	if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
		logger.Error("failed to update task status to completed", "error", updateErr)
	}
}

// stuckTaskMonitor resets tasks stuck in the processing state, typically
// after a worker died without updating the row.
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			ctx := context.Background()

			stuckTasks, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}

			if len(stuckTasks) == 0 {
				continue
			}

			r.logger.Info("found stuck tasks", "count", len(stuckTasks))

			for _, task := range stuckTasks {
				if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending,
					"Reset after being stuck in processing state"); err != nil {
					r.logger.Error("failed to reset stuck task status",
						"task_id", task.ID(),
						"task_type", task.Type(),
						"error", err)
					continue
				}
				r.requeue(task)
			}
		}
	}
}
