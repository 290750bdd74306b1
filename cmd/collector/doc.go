// Package main is the entry point for the agent-observe collector.
//
// The collector is the ingest backend for the event pipeline and span
// exporters: it accepts event batches and span exports over HTTP, keeps a
// bounded window of recent telemetry, and streams accepted events to
// dashboard viewers over WebSocket.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Production mode
//	./collector -port 8799
//
//	# Development mode (colored logs, debug level)
//	./collector -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
