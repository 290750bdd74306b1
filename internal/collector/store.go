package collector

import (
	"encoding/json"
	"sync"

	"github.com/GriffinCanCode/AgentObserve/internal/events"
)

// DefaultRetention is how many recent events and spans the store keeps.
const DefaultRetention = 1000

// Store is the collector's bounded in-memory telemetry window. It enforces
// event-id idempotency: a replayed event already inside the retention window
// is reported as a duplicate and not stored again. The dedupe window equals
// the retention window; replays older than that are accepted again, which is
// the accepted cost of bounded memory.
type Store struct {
	mu     sync.Mutex
	max    int
	seen   map[string]struct{}
	recent []events.AgentEvent
	spans  []json.RawMessage
}

// NewStore creates a store retaining at most max events and spans.
func NewStore(max int) *Store {
	if max <= 0 {
		max = DefaultRetention
	}
	return &Store{
		max:  max,
		seen: make(map[string]struct{}, max),
	}
}

// Add stores one event. It returns false for a duplicate event id.
func (s *Store) Add(ev events.AgentEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[ev.EventID]; dup {
		return false
	}
	s.seen[ev.EventID] = struct{}{}
	s.recent = append(s.recent, ev)
	if len(s.recent) > s.max {
		delete(s.seen, s.recent[0].EventID)
		s.recent = s.recent[1:]
	}
	return true
}

// Recent returns up to limit of the newest events, oldest first.
func (s *Store) Recent(limit int) []events.AgentEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.recent)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]events.AgentEvent, limit)
	copy(out, s.recent[n-limit:])
	return out
}

// Len returns the number of retained events.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recent)
}

// AddSpans retains exported spans as opaque JSON documents.
func (s *Store) AddSpans(spans []json.RawMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = append(s.spans, spans...)
	if over := len(s.spans) - s.max; over > 0 {
		s.spans = s.spans[over:]
	}
}

// RecentSpans returns up to limit of the newest spans, oldest first.
func (s *Store) RecentSpans(limit int) []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.spans)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]json.RawMessage, limit)
	copy(out, s.spans[n-limit:])
	return out
}
