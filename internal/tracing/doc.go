/*
Package tracing provides span lifecycle management and pluggable export for
agent operations.

It follows OpenTelemetry concepts with a minimal implementation tailored to
the platform's needs: spans carry attributes, timestamped events, and a
status; trace identity propagates through context.Context within a process
and through W3C traceparent headers across process boundaries.

Spans move through CREATED -> MUTATING -> ENDED -> EXPORTED. Before End a
span belongs to the call site that created it; End freezes it (an unset
status defaults to ok) and hands ownership to the exporter via a buffered
collector, so ending a span never blocks on I/O.

One exporter is active per process, selected by configuration: console
(structured zap line per span), file (append-only JSON lines, one file per
day), or HTTP (single-span or batched POST to a collector).

	exporter := tracing.NewConsoleExporter(logger)
	tracer := tracing.New("agent-observe", exporter, logger)

	span, ctx := tracer.StartSpan(ctx, "task.execute")
	span.SetAttribute("task_id", "T123")
	defer tracer.End(span)
*/
package tracing
