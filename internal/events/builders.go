package events

import (
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/shared/id"
)

// Identity names the agent an event belongs to. AgentID is required; name
// and role are recommended but may be empty.
type Identity struct {
	AgentID   string
	AgentName string
	AgentRole string
}

// Trace optionally tags an event with the active trace and span so the
// dashboard can join events onto spans. Zero value means untraced.
type Trace struct {
	TraceID string
	SpanID  string
}

// SpawnedPayload describes a new agent instance entering the system.
type SpawnedPayload struct {
	Identity
	Trace
	ParentAgentID string
	Capabilities  []string
}

// NewSpawned builds a spawned event.
func NewSpawned(p SpawnedPayload) (AgentEvent, error) {
	if p.Capabilities == nil {
		p.Capabilities = []string{}
	}
	return build(TypeSpawned, p.Identity, p.Trace, "spawn", StatusSuccess, map[string]any{
		"parent_agent_id": p.ParentAgentID,
		"capabilities":    p.Capabilities,
	})
}

// ActivatedPayload describes an agent transitioning from idle to active.
type ActivatedPayload struct {
	Identity
	Trace
	TaskID string
}

// NewActivated builds an activated event.
func NewActivated(p ActivatedPayload) (AgentEvent, error) {
	return build(TypeActivated, p.Identity, p.Trace, "activate", StatusSuccess, map[string]any{
		"task_id": p.TaskID,
	})
}

// OperationPayload describes a permission decision on an agent operation.
type OperationPayload struct {
	Identity
	Trace
	Operation string // required: the operation the agent attempted
	Rule      string // policy rule that matched, if any
	Reason    string // human-readable decision reason
}

// NewOperationAllowed builds an operation_allowed event.
func NewOperationAllowed(p OperationPayload) (AgentEvent, error) {
	if p.Operation == "" {
		return AgentEvent{}, missing("operation")
	}
	return build(TypeOperationAllowed, p.Identity, p.Trace, p.Operation, StatusSuccess, map[string]any{
		"rule":   p.Rule,
		"reason": p.Reason,
	})
}

// NewOperationDenied builds an operation_denied event.
func NewOperationDenied(p OperationPayload) (AgentEvent, error) {
	if p.Operation == "" {
		return AgentEvent{}, missing("operation")
	}
	return build(TypeOperationDenied, p.Identity, p.Trace, p.Operation, StatusDenied, map[string]any{
		"rule":   p.Rule,
		"reason": p.Reason,
	})
}

// BudgetPayload describes a budget deduction applied to an agent.
type BudgetPayload struct {
	Identity
	Trace
	Deducted  float64
	Remaining float64
	Currency  string // defaults to "usd"
}

// NewBudgetUpdated builds a budget_updated event.
func NewBudgetUpdated(p BudgetPayload) (AgentEvent, error) {
	if p.Currency == "" {
		p.Currency = "usd"
	}
	return build(TypeBudgetUpdated, p.Identity, p.Trace, "budget_deduct", StatusSuccess, map[string]any{
		"deducted":  p.Deducted,
		"remaining": p.Remaining,
		"currency":  p.Currency,
	})
}

// TaskStartedPayload describes the beginning of a task assignment.
type TaskStartedPayload struct {
	Identity
	Trace
	TaskID      string // required
	Description string
}

// NewTaskStarted builds a task_started event.
func NewTaskStarted(p TaskStartedPayload) (AgentEvent, error) {
	if p.TaskID == "" {
		return AgentEvent{}, missing("task_id")
	}
	return build(TypeTaskStarted, p.Identity, p.Trace, "task:"+p.TaskID, StatusSuccess, map[string]any{
		"task_id":     p.TaskID,
		"description": p.Description,
	})
}

// TaskResultPayload describes task completion or failure.
type TaskResultPayload struct {
	Identity
	Trace
	TaskID   string // required
	Duration time.Duration
	Error    string // failure reason; empty for completion
	Outputs  []string
}

// NewTaskCompleted builds a task_completed event.
func NewTaskCompleted(p TaskResultPayload) (AgentEvent, error) {
	if p.TaskID == "" {
		return AgentEvent{}, missing("task_id")
	}
	if p.Outputs == nil {
		p.Outputs = []string{}
	}
	return build(TypeTaskCompleted, p.Identity, p.Trace, "task:"+p.TaskID, StatusSuccess, map[string]any{
		"task_id":     p.TaskID,
		"duration_ms": p.Duration.Milliseconds(),
		"outputs":     p.Outputs,
	})
}

// NewTaskFailed builds a task_failed event.
func NewTaskFailed(p TaskResultPayload) (AgentEvent, error) {
	if p.TaskID == "" {
		return AgentEvent{}, missing("task_id")
	}
	return build(TypeTaskFailed, p.Identity, p.Trace, "task:"+p.TaskID, StatusFailure, map[string]any{
		"task_id":     p.TaskID,
		"duration_ms": p.Duration.Milliseconds(),
		"error":       p.Error,
	})
}

// New builds an event of an arbitrary known type from a generic payload.
// The typed constructors above are preferred; this exists for replaying
// events parsed back from the fallback log or other stored form.
func New(t Type, ident Identity, tr Trace, operation string, status Status, metadata map[string]any) (AgentEvent, error) {
	return build(t, ident, tr, operation, status, metadata)
}

func build(t Type, ident Identity, tr Trace, operation string, status Status, metadata map[string]any) (AgentEvent, error) {
	if !t.Valid() {
		return AgentEvent{}, &ValidationError{Field: "event_type", Reason: "is not a known type"}
	}
	if ident.AgentID == "" {
		return AgentEvent{}, missing("agent_id")
	}
	if operation == "" {
		return AgentEvent{}, missing("operation")
	}
	switch status {
	case StatusSuccess, StatusFailure, StatusDenied:
	default:
		return AgentEvent{}, &ValidationError{Field: "status", Reason: "is not a known status"}
	}
	if metadata == nil {
		metadata = map[string]any{}
	}

	return AgentEvent{
		Type:      t,
		EventID:   id.NewEventID(),
		Timestamp: time.Now().UTC(),
		AgentID:   ident.AgentID,
		AgentName: ident.AgentName,
		AgentRole: ident.AgentRole,
		Operation: operation,
		Status:    status,
		TraceID:   tr.TraceID,
		SpanID:    tr.SpanID,
		Metadata:  metadata,
	}, nil
}
