// Package monitoring exposes Prometheus metrics for the pipeline, tracer,
// and reference collector.
//
// Metrics complement, not replace, pipeline.Stats: Stats is the cheap
// process-local snapshot the library API returns; these are the scrapeable
// series the collector serves at /metrics.
package monitoring
