package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixedIDs(t *testing.T) {
	batch := NewBatchID()
	agent := NewAgentID()

	assert.True(t, strings.HasPrefix(batch.String(), "batch_"))
	assert.True(t, strings.HasPrefix(agent.String(), "agent_"))

	assert.True(t, IsValidULID(strings.TrimPrefix(batch.String(), "batch_")))
	assert.True(t, IsValidULID(strings.TrimPrefix(agent.String(), "agent_")))
}

func TestEventID(t *testing.T) {
	ev := NewEventID()
	require.NotEmpty(t, ev)
	assert.True(t, IsValidUUID(ev))
	assert.Len(t, ev, 36)
}

func TestHexIDs(t *testing.T) {
	tests := []struct {
		name  string
		gen   func() string
		bytes int
	}{
		{"trace", NewTraceID, TraceBytes},
		{"span", NewSpanID, SpanBytes},
		{"short", NewShortID, ShortBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.gen()
			assert.Len(t, got, 2*tt.bytes)
			assert.True(t, IsHex(got, tt.bytes))
		})
	}
}

func TestHexUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		tid := NewTraceID()
		require.False(t, seen[tid], "duplicate trace id generated")
		seen[tid] = true
	}
}

func TestIsHex(t *testing.T) {
	assert.True(t, IsHex("0af7651916cd43dd8448eb211c80319c", 16))
	assert.False(t, IsHex("0af7651916cd43dd8448eb211c80319", 16))  // short
	assert.False(t, IsHex("0AF7651916CD43DD8448EB211C80319C", 16)) // uppercase
	assert.False(t, IsHex("zzf7651916cd43dd8448eb211c80319c", 16)) // non-hex
}

func TestDeterministicEntropy(t *testing.T) {
	gen := NewGeneratorWithEntropy(strings.NewReader(strings.Repeat("\x42", 64)))
	assert.Equal(t, "424242424242", gen.GenerateHex(ShortBytes))
}
