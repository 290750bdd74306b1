package tracing

import (
	"context"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentObserve/internal/shared/id"
	"go.uber.org/zap"
)

// Context keys for trace propagation
type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// spanBuffer is the capacity of the collector channel feeding the exporter.
const spanBuffer = 1000

// SpanOption customizes a span at creation.
type SpanOption func(*Span)

// WithKind sets the span kind.
func WithKind(k Kind) SpanOption {
	return func(s *Span) { s.Kind = k }
}

// WithAttributes sets initial attributes.
func WithAttributes(attrs map[string]any) SpanOption {
	return func(s *Span) {
		if s.Attributes == nil {
			s.Attributes = make(map[string]any, len(attrs))
		}
		for k, v := range attrs {
			s.Attributes[k] = v
		}
	}
}

// Tracer creates spans and routes ended spans to an exporter through a
// buffered collector goroutine, keeping End non-blocking on the caller path.
type Tracer struct {
	service  string
	exporter Exporter
	logger   *logging.Logger
	spans    chan *Span
	done     chan struct{}
}

// New creates a tracer and starts its span collector.
func New(service string, exporter Exporter, logger *logging.Logger) *Tracer {
	if logger == nil {
		logger = logging.NewNop()
	}
	t := &Tracer{
		service:  service,
		exporter: exporter,
		logger:   logger.Component("tracing"),
		spans:    make(chan *Span, spanBuffer),
		done:     make(chan struct{}),
	}

	go t.collect()

	return t
}

// StartSpan creates a span, inheriting trace identity from ctx when present
// and minting a fresh trace otherwise. The returned context carries the new
// span's identity for child spans and event tagging.
func (t *Tracer) StartSpan(ctx context.Context, name string, opts ...SpanOption) (*Span, context.Context) {
	traceID, _ := ctx.Value(traceIDKey).(string)
	if traceID == "" {
		traceID = id.NewTraceID()
	}
	parentID, _ := ctx.Value(spanIDKey).(string)

	span := &Span{
		TraceID:      traceID,
		SpanID:       id.NewSpanID(),
		ParentSpanID: parentID,
		Name:         name,
		Kind:         KindInternal,
		Service:      t.service,
		StartTime:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(span)
	}

	newCtx := context.WithValue(ctx, traceIDKey, traceID)
	newCtx = context.WithValue(newCtx, spanIDKey, span.SpanID)

	return span, newCtx
}

// StartChildSpan creates a span under an explicit parent, copying its trace
// id. Used when no context plumbing connects the two call sites.
func (t *Tracer) StartChildSpan(parent *Span, name string, opts ...SpanOption) *Span {
	span := &Span{
		TraceID:      parent.TraceID,
		SpanID:       id.NewSpanID(),
		ParentSpanID: parent.SpanID,
		Name:         name,
		Kind:         KindInternal,
		Service:      t.service,
		StartTime:    time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(span)
	}
	return span
}

// End freezes the span (unset status becomes ok) and hands it to the
// exporter. Ending a span twice is a no-op. If the collector buffer is full
// the span is dropped with a warning rather than blocking the caller.
func (t *Tracer) End(span *Span) {
	if !span.finalize() {
		return
	}

	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", span.TraceID),
			zap.String("span_id", span.SpanID),
		)
	}
}

// Shutdown stops accepting spans, drains the collector, and shuts down the
// exporter. No span already handed to End is lost.
func (t *Tracer) Shutdown(ctx context.Context) error {
	close(t.spans)
	select {
	case <-t.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return t.exporter.Shutdown(ctx)
}

func (t *Tracer) collect() {
	defer close(t.done)
	for span := range t.spans {
		if err := t.exporter.Export(span); err != nil {
			t.logger.Warn("span export failed",
				zap.String("trace_id", span.TraceID),
				zap.String("span_id", span.SpanID),
				zap.Error(err),
			)
		}
	}
}

// ContextWithTrace returns a context carrying an explicit trace and span
// identity, typically obtained from Extract or a correlation id.
func ContextWithTrace(ctx context.Context, traceID, spanID string) context.Context {
	if traceID != "" {
		ctx = context.WithValue(ctx, traceIDKey, traceID)
	}
	if spanID != "" {
		ctx = context.WithValue(ctx, spanIDKey, spanID)
	}
	return ctx
}

// TraceIDFromContext retrieves the trace ID from context, or "".
func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey).(string)
	return traceID
}

// SpanIDFromContext retrieves the active span ID from context, or "".
func SpanIDFromContext(ctx context.Context) string {
	spanID, _ := ctx.Value(spanIDKey).(string)
	return spanID
}
