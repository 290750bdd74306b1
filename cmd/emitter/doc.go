// Package main is a demo emitter that drives the full telemetry path: it
// simulates a small fleet of coding agents working through tasks, tracing
// each task as a span tree and publishing lifecycle events through the
// pipeline to a running collector.
//
// Usage:
//
//	# Against a local collector
//	./emitter -agents 3 -tasks 5
//
//	# Pointing elsewhere
//	./emitter -endpoint http://collector:8799/events/ingest
package main
