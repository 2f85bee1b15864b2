package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// stubTask implements Task with an overridable execute function.
type stubTask struct {
	id        uuid.UUID
	taskType  string
	payload   []byte
	status    TaskStatus
	executeFn func(ctx context.Context) error
}

func newStubTask(taskType string, payload []byte) *stubTask {
	return &stubTask{
		id:        uuid.New(),
		taskType:  taskType,
		payload:   payload,
		status:    TaskStatusPending,
		executeFn: func(ctx context.Context) error { return nil },
	}
}

// newSnapshotStubTask builds a stub shaped like an audit snapshot request.
func newSnapshotStubTask(date string) *stubTask {
	payload, _ := json.Marshal(map[string]string{"date": date})
	return newStubTask(TaskTypeAuditSnapshot, payload)
}

func (t *stubTask) ID() uuid.UUID                    { return t.id }
func (t *stubTask) Type() string                     { return t.taskType }
func (t *stubTask) Payload() []byte                  { return t.payload }
func (t *stubTask) Status() TaskStatus               { return t.status }
func (t *stubTask) Execute(ctx context.Context) error { return t.executeFn(ctx) }

// stubTaskStore is an in-memory TaskStore that tracks status transition
// times so stuck-task behavior can be exercised.
type stubTaskStore struct {
	mu          sync.RWMutex
	tasks       map[uuid.UUID]*stubTask
	statusTimes map[uuid.UUID]time.Time
	saveFn      func(ctx context.Context, task Task) error
}

func newStubTaskStore() *stubTaskStore {
	return &stubTaskStore{
		tasks:       make(map[uuid.UUID]*stubTask),
		statusTimes: make(map[uuid.UUID]time.Time),
	}
}

func (s *stubTaskStore) SaveTask(ctx context.Context, task Task) error {
	if s.saveFn != nil {
		return s.saveFn(ctx, task)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stub, ok := task.(*stubTask)
	if !ok {
		stub = newStubTask(task.Type(), task.Payload())
		stub.id = task.ID()
		stub.status = task.Status()
	}
	s.tasks[task.ID()] = stub
	s.statusTimes[task.ID()] = time.Now()
	return nil
}

func (s *stubTaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status TaskStatus,
	errorMsg string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return nil
	}
	task.status = status
	s.statusTimes[taskID] = time.Now()
	return nil
}

func (s *stubTaskStore) GetPendingTasks(ctx context.Context) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []Task
	for _, task := range s.tasks {
		if task.status == TaskStatusPending {
			pending = append(pending, task)
		}
	}
	return pending, nil
}

func (s *stubTaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var processing []Task
	for _, task := range s.tasks {
		if task.status != TaskStatusProcessing {
			continue
		}
		statusTime, known := s.statusTimes[task.id]
		if olderThan == 0 || (known && now.Sub(statusTime) > olderThan) {
			processing = append(processing, task)
		}
	}
	return processing, nil
}

func (s *stubTaskStore) WithTx(tx *sql.Tx) TaskStore { return s }

// setStatus places a task directly into the given state, bypassing the
// normal transition path.
func (s *stubTaskStore) setStatus(taskID uuid.UUID, status TaskStatus, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task, ok := s.tasks[taskID]; ok {
		task.status = status
		s.statusTimes[taskID] = at
	}
}

func (s *stubTaskStore) taskStatus(taskID uuid.UUID) TaskStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if task, ok := s.tasks[taskID]; ok {
		return task.status
	}
	return ""
}

var (
	_ Task      = (*stubTask)(nil)
	_ TaskStore = (*stubTaskStore)(nil)
)
