package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the observability core.
type Metrics struct {
	// Pipeline metrics
	EventsIngested  *prometheus.CounterVec
	EventsDropped   prometheus.Counter
	BatchesFlushed  prometheus.Counter
	BatchesFallback prometheus.Counter
	RetryAttempts   prometheus.Counter
	BufferSize      prometheus.Gauge
	FlushDuration   prometheus.Histogram

	// Tracing metrics
	SpansEnded    *prometheus.CounterVec
	SpansDropped  prometheus.Counter
	ExportLatency prometheus.Histogram

	// Collector metrics
	IngestRequests *prometheus.CounterVec
	IngestEvents   prometheus.Counter
	DuplicateDrops prometheus.Counter
	WSConnections  prometheus.Gauge
	WSBroadcasts   prometheus.Counter
}

// New creates metrics registered against the given registerer. Pass
// prometheus.DefaultRegisterer for production; a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsIngested: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "observe_pipeline_events_total",
				Help: "Total number of events accepted by the pipeline",
			},
			[]string{"event_type"},
		),
		EventsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "observe_pipeline_events_dropped_total",
				Help: "Events dropped due to buffer overflow",
			},
		),
		BatchesFlushed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "observe_pipeline_batches_flushed_total",
				Help: "Batches successfully delivered to the collector",
			},
		),
		BatchesFallback: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "observe_pipeline_batches_fallback_total",
				Help: "Batches written to the durable fallback log after retry exhaustion",
			},
		),
		RetryAttempts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "observe_pipeline_retry_attempts_total",
				Help: "Delivery retry attempts",
			},
		),
		BufferSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "observe_pipeline_buffer_size",
				Help: "Events currently buffered awaiting flush",
			},
		),
		FlushDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "observe_pipeline_flush_duration_seconds",
				Help:    "Flush duration including retries",
				Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 2.5, 5, 10},
			},
		),

		SpansEnded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "observe_spans_ended_total",
				Help: "Spans ended, by status",
			},
			[]string{"status"},
		),
		SpansDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "observe_spans_dropped_total",
				Help: "Spans dropped because the collector buffer was full",
			},
		),
		ExportLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "observe_span_export_duration_seconds",
				Help:    "Span export duration",
				Buckets: []float64{.0001, .001, .01, .1, 1},
			},
		),

		IngestRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "observe_collector_ingest_requests_total",
				Help: "Ingest requests received by the collector",
			},
			[]string{"status"},
		),
		IngestEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "observe_collector_events_total",
				Help: "Events accepted by the collector",
			},
		),
		DuplicateDrops: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "observe_collector_duplicates_total",
				Help: "Events discarded as duplicates by event id",
			},
		),
		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "observe_collector_ws_connections",
				Help: "Connected dashboard viewers",
			},
		),
		WSBroadcasts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "observe_collector_ws_broadcasts_total",
				Help: "Batches broadcast to dashboard viewers",
			},
		),
	}
}

// NewDefault creates metrics on the default Prometheus registry.
func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer)
}
