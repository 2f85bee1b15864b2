package task

import (
	"context"
	"log/slog"
	"sync"
)

// TaskProcessor is invoked by a worker for each task pulled off the queue.
type TaskProcessor func(task Task, workerID int)

// WorkerPoolConfig holds configuration options for the worker pool.
type WorkerPoolConfig struct {
	// WorkerCount is how many concurrent workers to start. Zero or
	// negative falls back to 1.
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{WorkerCount: 2}
}

// WorkerPool runs a fixed set of workers that consume tasks from a queue
// and hand each one to the configured processor.
type WorkerPool struct {
	taskQueue   TaskQueueReader
	workerCount int
	process     TaskProcessor
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *slog.Logger
}

// NewWorkerPool creates a pool reading from taskQueue. Workers start on
// the first call to Start.
func NewWorkerPool(
	taskQueue TaskQueueReader,
	config WorkerPoolConfig,
	process TaskProcessor,
	logger *slog.Logger,
) *WorkerPool {
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue:   taskQueue,
		workerCount: workerCount,
		process:     process,
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger,
	}
}

// Start launches the worker goroutines.
func (p *WorkerPool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop cancels the workers and waits for in-flight tasks to finish.
// Buffered tasks not yet picked up stay on the queue.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-p.taskQueue.GetChannel():
			if !ok {
				p.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}
			p.process(task, id)
		}
	}
}
