package events

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/shared/id"
)

// Type identifies the category of an agent event. The set is closed:
// anything outside it fails validation at construction time.
type Type string

const (
	TypeSpawned          Type = "spawned"
	TypeActivated        Type = "activated"
	TypeOperationAllowed Type = "operation_allowed"
	TypeOperationDenied  Type = "operation_denied"
	TypeBudgetUpdated    Type = "budget_updated"
	TypeTaskStarted      Type = "task_started"
	TypeTaskCompleted    Type = "task_completed"
	TypeTaskFailed       Type = "task_failed"
)

var validTypes = map[Type]bool{
	TypeSpawned:          true,
	TypeActivated:        true,
	TypeOperationAllowed: true,
	TypeOperationDenied:  true,
	TypeBudgetUpdated:    true,
	TypeTaskStarted:      true,
	TypeTaskCompleted:    true,
	TypeTaskFailed:       true,
}

// Valid reports whether t is one of the known event types.
func (t Type) Valid() bool {
	return validTypes[t]
}

// Types returns all known event types.
func Types() []Type {
	return []Type{
		TypeSpawned,
		TypeActivated,
		TypeOperationAllowed,
		TypeOperationDenied,
		TypeBudgetUpdated,
		TypeTaskStarted,
		TypeTaskCompleted,
		TypeTaskFailed,
	}
}

// Status is the outcome recorded on an event.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusDenied  Status = "denied"
)

// AgentEvent is one observation of an agent operation. Instances are built
// through the typed constructors in builders.go and are immutable afterwards:
// the pipeline moves them into batches but never mutates them.
type AgentEvent struct {
	Type      Type           `json:"event_type"`
	EventID   string         `json:"event_id"`
	Timestamp time.Time      `json:"timestamp"`
	AgentID   string         `json:"agent_id"`
	AgentName string         `json:"agent_name"`
	AgentRole string         `json:"agent_role"`
	Operation string         `json:"operation"`
	Status    Status         `json:"status"`
	TraceID   string         `json:"trace_id,omitempty"`
	SpanID    string         `json:"span_id,omitempty"`
	Metadata  map[string]any `json:"metadata"`
}

// Batch is a bounded, ordered group of events drained from the pipeline
// buffer for one delivery attempt. Event order equals arrival order.
type Batch struct {
	BatchID   string       `json:"batch_id"`
	Events    []AgentEvent `json:"events"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewBatch wraps events in a batch with a fresh ULID-based id.
func NewBatch(evs []AgentEvent) *Batch {
	return &Batch{
		BatchID:   id.NewBatchID().String(),
		Events:    evs,
		CreatedAt: time.Now().UTC(),
	}
}

// Len returns the number of events in the batch.
func (b *Batch) Len() int {
	return len(b.Events)
}

// ValidationError reports malformed or incomplete event construction input.
// It fails synchronously at the call site; no partial event ever reaches
// the pipeline buffer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid agent event: field %q %s", e.Field, e.Reason)
}

func missing(field string) error {
	return &ValidationError{Field: field, Reason: "is required"}
}
