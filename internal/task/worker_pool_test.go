package task

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPoolProcessesQueuedTasks(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(10, queueTestLogger())

	var mu sync.Mutex
	processed := make(map[uuid.UUID]int)
	done := make(chan struct{}, 10)

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 3}, func(task Task, workerID int) {
		mu.Lock()
		processed[task.ID()] = workerID
		mu.Unlock()
		done <- struct{}{}
	}, queueTestLogger())

	tasks := make([]*stubTask, 0, 5)
	for i := 0; i < 5; i++ {
		task := newSnapshotStubTask("2026-08-30")
		tasks = append(tasks, task)
		require.NoError(t, queue.Enqueue(task))
	}

	pool.Start()

	for i := 0; i < 5; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for workers")
		}
	}

	pool.Stop()

	mu.Lock()
	defer mu.Unlock()
	for _, task := range tasks {
		_, ok := processed[task.ID()]
		assert.True(t, ok, "task %s should have been processed", task.ID())
	}
}

func TestWorkerPoolStopWaitsForInFlightTask(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(1, queueTestLogger())

	started := make(chan struct{})
	finished := make(chan struct{})

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, func(task Task, workerID int) {
		close(started)
		time.Sleep(100 * time.Millisecond)
		close(finished)
	}, queueTestLogger())

	require.NoError(t, queue.Enqueue(newSnapshotStubTask("2026-08-30")))
	pool.Start()

	<-started
	pool.Stop()

	select {
	case <-finished:
	default:
		t.Fatal("Stop returned before the in-flight task finished")
	}
}

func TestWorkerPoolStopsOnQueueClose(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(1, queueTestLogger())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 2}, func(task Task, workerID int) {}, queueTestLogger())

	pool.Start()
	queue.Close()

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("workers did not exit after queue close")
	}
}

func TestNewWorkerPoolDefaultsInvalidWorkerCount(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(1, queueTestLogger())
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 0}, func(task Task, workerID int) {}, queueTestLogger())

	assert.Equal(t, 1, pool.workerCount)
}
