// Package collector is the reference ingest backend for the pipeline and
// tracer: an HTTP server accepting event batches and span exports, holding a
// bounded in-memory window of recent telemetry, and streaming accepted
// events to dashboard viewers over WebSocket.
//
// Ingestion is idempotent by event id, which is what lets the pipeline
// replay fallback batches without double counting.
package collector
