// Package id provides centralized ID generation for the observability core.
//
// Two families of identifiers coexist:
//   - ULIDs for batch and agent identifiers: lexicographically sortable,
//     prefixed for readability in logs (batch_*, agent_*)
//   - Random hex for trace, span, and correlation identifiers: fixed-width
//     lowercase hex compatible with W3C traceparent encoding
//
// Event identifiers are RFC 4122 UUIDs (google/uuid) because the collector
// uses them as idempotency keys and expects the canonical 36-char form.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// BatchID identifies one delivery batch
type BatchID string

// AgentID identifies an agent instance
type AgentID string

const (
	BatchPrefix = "batch"
	AgentPrefix = "agent"
)

// Hex identifier widths, in bytes. Trace and span widths follow the W3C
// trace-context field sizes; Short is a 48-bit human-scannable form.
const (
	TraceBytes = 16
	SpanBytes  = 8
	ShortBytes = 6
)

// Generator generates ULIDs and random hex identifiers
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source
// Useful for testing with deterministic entropy
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// GenerateULID creates a new ULID
func (g *Generator) GenerateULID() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateULID().String())
}

// GenerateHex creates a random lowercase hex string of n bytes (2n chars)
func (g *Generator) GenerateHex(n int) string {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	buf := make([]byte, n)
	if _, err := io.ReadFull(g.entropy, buf); err != nil {
		// crypto/rand never fails on supported platforms; a custom entropy
		// source that runs dry is a programmer error
		panic(fmt.Sprintf("id: entropy exhausted: %v", err))
	}
	return hex.EncodeToString(buf)
}

// NewBatchID generates a new batch ID
func NewBatchID() BatchID {
	return BatchID(Default().GenerateWithPrefix(BatchPrefix))
}

// NewAgentID generates a new agent ID
func NewAgentID() AgentID {
	return AgentID(Default().GenerateWithPrefix(AgentPrefix))
}

// NewEventID generates a new event UUID
func NewEventID() string {
	return uuid.NewString()
}

// NewTraceID generates a 128-bit trace identifier (32 hex chars)
func NewTraceID() string {
	return Default().GenerateHex(TraceBytes)
}

// NewSpanID generates a 64-bit span identifier (16 hex chars)
func NewSpanID() string {
	return Default().GenerateHex(SpanBytes)
}

// NewShortID generates a 48-bit identifier (12 hex chars)
func NewShortID() string {
	return Default().GenerateHex(ShortBytes)
}

func (id BatchID) String() string { return string(id) }
func (id AgentID) String() string { return string(id) }

// IsValidULID checks if an unprefixed ID string is a valid ULID
func IsValidULID(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// IsValidUUID checks if an ID string is a valid UUID
func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// IsHex reports whether s is exactly 2n lowercase hex characters
func IsHex(s string, n int) bool {
	if len(s) != 2*n {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
