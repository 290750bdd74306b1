package tracing

import (
	"fmt"
	"runtime/debug"
	"sync"
	"time"
)

// StatusCode is the span outcome.
type StatusCode int

const (
	StatusUnset StatusCode = iota
	StatusOK
	StatusError
)

// String returns the canonical name of the status code.
func (c StatusCode) String() string {
	switch c {
	case StatusOK:
		return "ok"
	case StatusError:
		return "error"
	default:
		return "unset"
	}
}

// MarshalJSON encodes the code by name rather than ordinal.
func (c StatusCode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON decodes a status code by name.
func (c *StatusCode) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"ok"`:
		*c = StatusOK
	case `"error"`:
		*c = StatusError
	case `"unset"`:
		*c = StatusUnset
	default:
		return fmt.Errorf("tracing: unknown status code %s", data)
	}
	return nil
}

// Status pairs a code with an optional message.
type Status struct {
	Code    StatusCode `json:"code"`
	Message string     `json:"message,omitempty"`
}

// Kind describes the span's position in a request flow.
type Kind string

const (
	KindInternal Kind = "internal"
	KindServer   Kind = "server"
	KindClient   Kind = "client"
	KindProducer Kind = "producer"
	KindConsumer Kind = "consumer"
)

// SpanEvent is a timestamped annotation within a span.
type SpanEvent struct {
	Name       string         `json:"name"`
	Timestamp  time.Time      `json:"timestamp"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Span is one timed unit of work within a trace. The trace id is fixed at
// creation and shared by the whole span tree. Mutators are safe for
// concurrent use and become no-ops once the span has ended; after End the
// exporter owns the span and no caller may touch it.
type Span struct {
	TraceID      string         `json:"trace_id"`
	SpanID       string         `json:"span_id"`
	ParentSpanID string         `json:"parent_span_id,omitempty"`
	Name         string         `json:"name"`
	Kind         Kind           `json:"kind"`
	Service      string         `json:"service,omitempty"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      time.Time      `json:"end_time,omitzero"`
	Status       Status         `json:"status"`
	Attributes   map[string]any `json:"attributes,omitempty"`
	Events       []SpanEvent    `json:"events,omitempty"`

	mu    sync.Mutex
	ended bool
}

// SetAttribute sets a single scalar attribute.
func (s *Span) SetAttribute(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	if s.Attributes == nil {
		s.Attributes = make(map[string]any)
	}
	s.Attributes[key] = value
}

// SetAttributes sets several attributes at once.
func (s *Span) SetAttributes(attrs map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	if s.Attributes == nil {
		s.Attributes = make(map[string]any, len(attrs))
	}
	for k, v := range attrs {
		s.Attributes[k] = v
	}
}

// AddEvent appends a timestamped annotation.
func (s *Span) AddEvent(name string, attrs map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.Events = append(s.Events, SpanEvent{
		Name:       name,
		Timestamp:  time.Now().UTC(),
		Attributes: attrs,
	})
}

// SetStatus records the span outcome.
func (s *Span) SetStatus(code StatusCode, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.Status = Status{Code: code, Message: message}
}

// RecordException adds an "exception" event carrying the error type, message,
// and stack trace, and forces the span status to error.
func (s *Span) RecordException(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.Events = append(s.Events, SpanEvent{
		Name:      "exception",
		Timestamp: time.Now().UTC(),
		Attributes: map[string]any{
			"exception.type":       fmt.Sprintf("%T", err),
			"exception.message":    err.Error(),
			"exception.stacktrace": string(debug.Stack()),
		},
	})
	s.Status = Status{Code: StatusError, Message: err.Error()}
}

// Duration returns the span duration, or elapsed time so far if unended.
func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Ended reports whether the span has been frozen.
func (s *Span) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// finalize freezes the span, defaulting an unset status to ok. Setting the
// end time twice is impossible: the second call is a no-op.
func (s *Span) finalize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	if s.Status.Code == StatusUnset {
		s.Status.Code = StatusOK
	}
	s.EndTime = time.Now().UTC()
	s.ended = true
	return true
}
