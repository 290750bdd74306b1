package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/GriffinCanCode/AgentObserve/internal/shared/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceparentRoundTrip(t *testing.T) {
	tracer, _ := newTestTracer(t)
	span, _ := tracer.StartSpan(context.Background(), "outbound")

	header := http.Header{}
	Inject(span, header)

	traceID, spanID, flags, ok := Extract(header)
	require.True(t, ok)
	assert.Equal(t, span.TraceID, traceID)
	assert.Equal(t, span.SpanID, spanID)
	assert.Equal(t, FlagSampled, flags)
}

func TestFormatTraceparent(t *testing.T) {
	got := FormatTraceparent("0af7651916cd43dd8448eb211c80319c", "b7ad6b7169203331", 0x01)
	assert.Equal(t, "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01", got)
}

func TestParseTraceparentRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"too few fields", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331"},
		{"short trace id", "00-0af7651916cd43dd8448eb211c80319-b7ad6b7169203331-01"},
		{"uppercase hex", "00-0AF7651916CD43DD8448EB211C80319C-b7ad6b7169203331-01"},
		{"all-zero trace id", "00-00000000000000000000000000000000-b7ad6b7169203331-01"},
		{"all-zero span id", "00-0af7651916cd43dd8448eb211c80319c-0000000000000000-01"},
		{"forbidden version", "ff-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-01"},
		{"bad flags", "00-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-xx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, ok := ParseTraceparent(tt.value)
			assert.False(t, ok)
		})
	}
}

func TestParseTraceparentLenientVersion(t *testing.T) {
	// Unknown future versions still parse (only "ff" is forbidden).
	traceID, spanID, _, ok := ParseTraceparent("01-0af7651916cd43dd8448eb211c80319c-b7ad6b7169203331-00")
	require.True(t, ok)
	assert.Equal(t, "0af7651916cd43dd8448eb211c80319c", traceID)
	assert.Equal(t, "b7ad6b7169203331", spanID)
}

func TestInjectContext(t *testing.T) {
	header := http.Header{}

	// No trace in context: header untouched.
	InjectContext(context.Background(), header)
	assert.Empty(t, header.Get(TraceparentHeader))

	traceID := id.NewTraceID()
	spanID := id.NewSpanID()
	ctx := ContextWithTrace(context.Background(), traceID, spanID)
	InjectContext(ctx, header)

	gotTrace, gotSpan, _, ok := Extract(header)
	require.True(t, ok)
	assert.Equal(t, traceID, gotTrace)
	assert.Equal(t, spanID, gotSpan)
}
