package tracing

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/GriffinCanCode/AgentObserve/internal/shared/id"
)

// TraceparentHeader is the W3C trace-context header name.
const TraceparentHeader = "traceparent"

// traceparent field values per the W3C trace-context level 1 spec.
const (
	traceparentVersion = "00"
	// FlagSampled marks the trace as recorded.
	FlagSampled byte = 0x01
)

// Inject writes the span's identity into headers as a traceparent value
// "00-<traceId>-<spanId>-<flags>", enabling trace continuity when the
// operation crosses into the external backend.
func Inject(span *Span, header http.Header) {
	header.Set(TraceparentHeader, FormatTraceparent(span.TraceID, span.SpanID, FlagSampled))
}

// InjectContext writes the context's active trace identity into headers.
// No-op when the context carries no trace.
func InjectContext(ctx context.Context, header http.Header) {
	traceID := TraceIDFromContext(ctx)
	spanID := SpanIDFromContext(ctx)
	if traceID == "" || spanID == "" {
		return
	}
	header.Set(TraceparentHeader, FormatTraceparent(traceID, spanID, FlagSampled))
}

// FormatTraceparent encodes a traceparent value.
func FormatTraceparent(traceID, spanID string, flags byte) string {
	return fmt.Sprintf("%s-%s-%s-%02x", traceparentVersion, traceID, spanID, flags)
}

// Extract parses an inbound traceparent header. Returns the remote trace and
// parent span ids with ok=true on a well-formed header; a missing or
// malformed header yields ok=false and the caller starts a fresh root trace.
func Extract(header http.Header) (traceID, spanID string, flags byte, ok bool) {
	return ParseTraceparent(header.Get(TraceparentHeader))
}

// ParseTraceparent validates and splits a traceparent value.
func ParseTraceparent(value string) (traceID, spanID string, flags byte, ok bool) {
	if value == "" {
		return "", "", 0, false
	}

	parts := strings.Split(value, "-")
	if len(parts) != 4 {
		return "", "", 0, false
	}

	version, traceID, spanID, flagsHex := parts[0], parts[1], parts[2], parts[3]
	// "ff" is the only forbidden version; unknown versions parse leniently.
	if len(version) != 2 || !id.IsHex(version, 1) || version == "ff" {
		return "", "", 0, false
	}
	if !id.IsHex(traceID, id.TraceBytes) || traceID == strings.Repeat("0", 2*id.TraceBytes) {
		return "", "", 0, false
	}
	if !id.IsHex(spanID, id.SpanBytes) || spanID == strings.Repeat("0", 2*id.SpanBytes) {
		return "", "", 0, false
	}
	if !id.IsHex(flagsHex, 1) {
		return "", "", 0, false
	}

	var f byte
	if _, err := fmt.Sscanf(flagsHex, "%02x", &f); err != nil {
		return "", "", 0, false
	}
	return traceID, spanID, f, true
}
