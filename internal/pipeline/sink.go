package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/events"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/resilience"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
)

// Sink is the injected delivery abstraction decoupling the pipeline from the
// concrete collector backend. Send returns nil only when the whole batch was
// accepted; partial delivery is never reported as success.
type Sink interface {
	Send(ctx context.Context, batch *events.Batch) error
}

// DeliveryError reports a sink transport or HTTP failure. It is recovered
// locally through the retry ladder and never raised back to the event
// producer.
type DeliveryError struct {
	StatusCode int // 0 for transport-level failures
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("batch delivery failed: collector returned %d", e.StatusCode)
	}
	return fmt.Sprintf("batch delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// HTTPSinkConfig configures the collector-facing HTTP sink.
type HTTPSinkConfig struct {
	Endpoint string
	Source   string        // X-Event-Source header value
	Timeout  time.Duration // per-request timeout; 10s when zero
}

// HTTPSink posts batches to the collector ingest endpoint. A circuit breaker
// guards the endpoint so a sustained outage fails fast instead of holding
// each batch through a full send timeout. Transport-level retries stay off:
// the pipeline owns the retry ladder.
type HTTPSink struct {
	cfg     HTTPSinkConfig
	client  *resty.Client
	breaker *resilience.Breaker
}

// NewHTTPSink creates an HTTP sink.
func NewHTTPSink(cfg HTTPSinkConfig) *HTTPSink {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Source == "" {
		cfg.Source = "agent-observe"
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.Logger = nil

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "AgentObserve-Pipeline/1.0")

	breaker := resilience.New("event-sink", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 8
		},
	})

	return &HTTPSink{cfg: cfg, client: client, breaker: breaker}
}

// Send posts one batch. Success is any 2xx status.
func (s *HTTPSink) Send(ctx context.Context, batch *events.Batch) error {
	return s.breaker.Do(func() error {
		resp, err := s.client.R().
			SetContext(ctx).
			SetHeader("X-Event-Source", s.cfg.Source).
			SetHeader("X-Event-Count", fmt.Sprintf("%d", batch.Len())).
			SetBody(map[string]any{
				"events":    batch.Events,
				"batch_id":  batch.BatchID,
				"timestamp": batch.CreatedAt.Format(time.RFC3339Nano),
			}).
			Post(s.cfg.Endpoint)
		if err != nil {
			return &DeliveryError{Err: err}
		}
		if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
			return &DeliveryError{StatusCode: resp.StatusCode()}
		}
		return nil
	})
}
