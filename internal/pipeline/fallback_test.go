package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBatch(t *testing.T, n int) *events.Batch {
	t.Helper()
	evs := make([]events.AgentEvent, 0, n)
	for i := 0; i < n; i++ {
		ev, err := events.NewOperationDenied(events.OperationPayload{
			Identity:  events.Identity{AgentID: "agent_02", AgentRole: "reviewer"},
			Operation: fmt.Sprintf("file.write:%d", i),
			Rule:      "deny-outside-workspace",
		})
		require.NoError(t, err)
		evs = append(evs, ev)
	}
	return events.NewBatch(evs)
}

func TestFallbackLogCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	_, err := NewFallbackLog(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestFallbackPathIsDaily(t *testing.T) {
	l, err := NewFallbackLog(t.TempDir())
	require.NoError(t, err)

	day := time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC+5", 5*3600))
	path := l.Path(day)
	// The day is resolved in UTC, not the local zone of the timestamp.
	assert.True(t, strings.HasSuffix(path, "visibility-2026-03-09.log"), path)
}

func TestFallbackAppendAndRead(t *testing.T) {
	l, err := NewFallbackLog(t.TempDir())
	require.NoError(t, err)

	batch := testBatch(t, 3)
	require.NoError(t, l.Append(batch))

	records, err := l.Read(time.Now())
	require.NoError(t, err)
	require.Len(t, records, 3)

	for i, rec := range records {
		assert.Equal(t, batch.Events[i].EventID, rec.EventID)
		assert.Equal(t, batch.Events[i].Operation, rec.Operation)
		assert.Equal(t, events.StatusDenied, rec.Status)
		assert.Equal(t, batch.BatchID, rec.BatchID)
	}
}

func TestFallbackAppendAccumulatesBatches(t *testing.T) {
	l, err := NewFallbackLog(t.TempDir())
	require.NoError(t, err)

	first := testBatch(t, 2)
	second := testBatch(t, 1)
	require.NoError(t, l.Append(first))
	require.NoError(t, l.Append(second))

	records, err := l.Read(time.Now())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, first.BatchID, records[0].BatchID)
	assert.Equal(t, first.BatchID, records[1].BatchID)
	assert.Equal(t, second.BatchID, records[2].BatchID)
}

func TestFallbackReadMissingDay(t *testing.T) {
	l, err := NewFallbackLog(t.TempDir())
	require.NoError(t, err)

	records, err := l.Read(time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFallbackAppendMissingDirFails(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	l, err := NewFallbackLog(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	err = l.Append(testBatch(t, 1))
	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Path, "visibility-")
}
