package collector

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/GriffinCanCode/AgentObserve/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storedEvent(t *testing.T, n int) events.AgentEvent {
	t.Helper()
	ev, err := events.NewActivated(events.ActivatedPayload{
		Identity: events.Identity{AgentID: "agent_03"},
		TaskID:   fmt.Sprintf("task-%d", n),
	})
	require.NoError(t, err)
	return ev
}

func TestStoreDeduplicatesByEventID(t *testing.T) {
	s := NewStore(10)
	ev := storedEvent(t, 0)

	assert.True(t, s.Add(ev))
	assert.False(t, s.Add(ev))
	assert.Equal(t, 1, s.Len())
}

func TestStoreEvictsOldestAndReopensDedupeWindow(t *testing.T) {
	s := NewStore(3)
	evs := make([]events.AgentEvent, 4)
	for i := range evs {
		evs[i] = storedEvent(t, i)
		require.True(t, s.Add(evs[i]))
	}

	assert.Equal(t, 3, s.Len())

	// The evicted event left the dedupe window and is accepted again.
	assert.True(t, s.Add(evs[0]))
	// A retained one is still a duplicate.
	assert.False(t, s.Add(evs[3]))
}

func TestStoreRecentReturnsNewestInOrder(t *testing.T) {
	s := NewStore(10)
	for i := 0; i < 5; i++ {
		require.True(t, s.Add(storedEvent(t, i)))
	}

	recent := s.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "task-3", recent[0].Metadata["task_id"])
	assert.Equal(t, "task-4", recent[1].Metadata["task_id"])

	all := s.Recent(0)
	assert.Len(t, all, 5)
}

func TestStoreSpanRetention(t *testing.T) {
	s := NewStore(3)
	spans := make([]json.RawMessage, 5)
	for i := range spans {
		spans[i] = json.RawMessage(fmt.Sprintf(`{"name":"span-%d"}`, i))
	}
	s.AddSpans(spans)

	recent := s.RecentSpans(0)
	require.Len(t, recent, 3)
	assert.JSONEq(t, `{"name":"span-2"}`, string(recent[0]))
	assert.JSONEq(t, `{"name":"span-4"}`, string(recent[2]))
}
