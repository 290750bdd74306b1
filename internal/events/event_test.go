package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agentIdent() Identity {
	return Identity{AgentID: "agent_01", AgentName: "refactor-bot", AgentRole: "worker"}
}

func TestConstructorsProduceWellFormedEvents(t *testing.T) {
	tests := []struct {
		name       string
		construct  func() (AgentEvent, error)
		wantType   Type
		wantStatus Status
	}{
		{
			name: "spawned",
			construct: func() (AgentEvent, error) {
				return NewSpawned(SpawnedPayload{Identity: agentIdent()})
			},
			wantType:   TypeSpawned,
			wantStatus: StatusSuccess,
		},
		{
			name: "activated",
			construct: func() (AgentEvent, error) {
				return NewActivated(ActivatedPayload{Identity: agentIdent(), TaskID: "T123"})
			},
			wantType:   TypeActivated,
			wantStatus: StatusSuccess,
		},
		{
			name: "operation allowed",
			construct: func() (AgentEvent, error) {
				return NewOperationAllowed(OperationPayload{Identity: agentIdent(), Operation: "fs.write"})
			},
			wantType:   TypeOperationAllowed,
			wantStatus: StatusSuccess,
		},
		{
			name: "operation denied",
			construct: func() (AgentEvent, error) {
				return NewOperationDenied(OperationPayload{Identity: agentIdent(), Operation: "net.dial", Rule: "no-egress"})
			},
			wantType:   TypeOperationDenied,
			wantStatus: StatusDenied,
		},
		{
			name: "budget updated",
			construct: func() (AgentEvent, error) {
				return NewBudgetUpdated(BudgetPayload{Identity: agentIdent(), Deducted: 0.25, Remaining: 4.75})
			},
			wantType:   TypeBudgetUpdated,
			wantStatus: StatusSuccess,
		},
		{
			name: "task started",
			construct: func() (AgentEvent, error) {
				return NewTaskStarted(TaskStartedPayload{Identity: agentIdent(), TaskID: "T123"})
			},
			wantType:   TypeTaskStarted,
			wantStatus: StatusSuccess,
		},
		{
			name: "task completed",
			construct: func() (AgentEvent, error) {
				return NewTaskCompleted(TaskResultPayload{Identity: agentIdent(), TaskID: "T123", Duration: 3 * time.Second})
			},
			wantType:   TypeTaskCompleted,
			wantStatus: StatusSuccess,
		},
		{
			name: "task failed",
			construct: func() (AgentEvent, error) {
				return NewTaskFailed(TaskResultPayload{Identity: agentIdent(), TaskID: "T123", Error: "compile error"})
			},
			wantType:   TypeTaskFailed,
			wantStatus: StatusFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := tt.construct()
			require.NoError(t, err)

			assert.Equal(t, tt.wantType, ev.Type)
			assert.Equal(t, tt.wantStatus, ev.Status)
			assert.NotEmpty(t, ev.EventID)
			assert.Len(t, ev.EventID, 36)
			assert.False(t, ev.Timestamp.IsZero())
			assert.True(t, ev.Type.Valid())
			assert.NotNil(t, ev.Metadata, "metadata must default to an empty map")
		})
	}
}

func TestMissingRequiredFieldsFailValidation(t *testing.T) {
	tests := []struct {
		name      string
		construct func() (AgentEvent, error)
		wantField string
	}{
		{
			name: "spawned without agent id",
			construct: func() (AgentEvent, error) {
				return NewSpawned(SpawnedPayload{})
			},
			wantField: "agent_id",
		},
		{
			name: "operation allowed without operation",
			construct: func() (AgentEvent, error) {
				return NewOperationAllowed(OperationPayload{Identity: agentIdent()})
			},
			wantField: "operation",
		},
		{
			name: "task started without task id",
			construct: func() (AgentEvent, error) {
				return NewTaskStarted(TaskStartedPayload{Identity: agentIdent()})
			},
			wantField: "task_id",
		},
		{
			name: "task failed without task id",
			construct: func() (AgentEvent, error) {
				return NewTaskFailed(TaskResultPayload{Identity: agentIdent()})
			},
			wantField: "task_id",
		},
		{
			name: "unknown type",
			construct: func() (AgentEvent, error) {
				return New("teleported", agentIdent(), Trace{}, "op", StatusSuccess, nil)
			},
			wantField: "event_type",
		},
		{
			name: "unknown status",
			construct: func() (AgentEvent, error) {
				return New(TypeSpawned, agentIdent(), Trace{}, "op", Status("maybe"), nil)
			},
			wantField: "status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.construct()
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestOptionalFieldsDefaultToZeroValues(t *testing.T) {
	ev, err := NewSpawned(SpawnedPayload{Identity: agentIdent()})
	require.NoError(t, err)
	assert.Equal(t, []string{}, ev.Metadata["capabilities"], "nil capabilities defaults to empty slice")

	done, err := NewTaskCompleted(TaskResultPayload{Identity: agentIdent(), TaskID: "T9"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), done.Metadata["duration_ms"])
	assert.Equal(t, []string{}, done.Metadata["outputs"])
}

func TestTraceTagging(t *testing.T) {
	tr := Trace{TraceID: "0af7651916cd43dd8448eb211c80319c", SpanID: "b7ad6b7169203331"}
	ev, err := NewTaskStarted(TaskStartedPayload{Identity: agentIdent(), Trace: tr, TaskID: "T1"})
	require.NoError(t, err)
	assert.Equal(t, tr.TraceID, ev.TraceID)
	assert.Equal(t, tr.SpanID, ev.SpanID)
}

func TestTypeEnumIsClosed(t *testing.T) {
	for _, typ := range Types() {
		assert.True(t, typ.Valid())
	}
	assert.False(t, Type("rebooted").Valid())
	assert.False(t, Type("").Valid())
}

func TestBatchPreservesOrder(t *testing.T) {
	var evs []AgentEvent
	for i := 0; i < 5; i++ {
		ev, err := NewActivated(ActivatedPayload{Identity: agentIdent(), TaskID: "T"})
		require.NoError(t, err)
		evs = append(evs, ev)
	}

	batch := NewBatch(evs)
	require.Equal(t, 5, batch.Len())
	assert.NotEmpty(t, batch.BatchID)
	for i := range evs {
		assert.Equal(t, evs[i].EventID, batch.Events[i].EventID)
	}
}
