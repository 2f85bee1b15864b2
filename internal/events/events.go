package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskRequestEvent asks the task subsystem to create a background task.
// Publishers describe the work by type and JSON payload so they never
// import the task package directly.
type TaskRequestEvent struct {
	// ID uniquely identifies this request.
	ID uuid.UUID `json:"id"`

	// Type names the kind of task to create, e.g. the daily audit
	// snapshot seal.
	Type string `json:"type"`

	// Payload carries the task-specific parameters as raw JSON.
	Payload json.RawMessage `json:"payload"`

	// CreatedAt records when the request was published.
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the payload into v.
func (e *TaskRequestEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskRequestEvent builds a request for the given task type, marshaling
// payload to JSON.
func NewTaskRequestEvent(eventType string, payload interface{}) (*TaskRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// EventHandler consumes task request events. A handler that does not
// recognize an event's type should ignore it and return nil.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter publishes task request events to registered handlers.
type EventEmitter interface {
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
