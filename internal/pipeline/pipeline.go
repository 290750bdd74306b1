package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/events"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/resilience"
	"go.uber.org/zap"
)

// ErrClosed is returned by Ingest and Flush after Shutdown.
var ErrClosed = errors.New("pipeline: closed")

// Config tunes the buffering, batching, and retry behavior.
type Config struct {
	// Capacity is the buffer length that triggers an immediate flush.
	Capacity int
	// FlushInterval is the wall-clock flush trigger. The timer re-arms
	// after every flush regardless of what triggered it.
	FlushInterval time.Duration
	// MaxBuffer bounds the buffer between flushes. On overflow the oldest
	// event is dropped and counted; the producer is never blocked.
	MaxBuffer int
	// Retry is the delivery retry ladder applied per batch.
	Retry resilience.RetryPolicy
	// SendTimeout bounds each individual delivery attempt.
	SendTimeout time.Duration
}

// DefaultConfig returns the standard pipeline tuning.
func DefaultConfig() Config {
	return Config{
		Capacity:      100,
		FlushInterval: 100 * time.Millisecond,
		MaxBuffer:     10000,
		Retry:         resilience.DefaultRetryPolicy(),
		SendTimeout:   10 * time.Second,
	}
}

// Options carries the pipeline's collaborators.
type Options struct {
	Sink     Sink
	Fallback *FallbackLog
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics // optional
}

type flushRequest struct {
	ctx context.Context
	ack chan struct{}
}

// Pipeline validates, buffers, batches, and reliably delivers agent events
// to a collector sink, degrading to a durable local fallback log when the
// retry ladder is exhausted. Ingestion never blocks on network I/O and no
// delivery failure is ever surfaced to the producer; failures are visible
// through Stats and logs only.
//
// A single worker goroutine owns flushing, so exactly one flush is in
// flight at any time; events arriving mid-flight accumulate into the next
// buffer generation. Within a batch, event order equals arrival order.
// Across batches ordering is best effort: a batch that degrades to the
// fallback log reaches the collector later than batches delivered after it,
// which is why the collector must treat event ids as idempotency keys.
type Pipeline struct {
	cfg      Config
	sink     Sink
	fallback *FallbackLog
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	mu     sync.Mutex
	buffer []events.AgentEvent
	closed bool

	kick       chan struct{}
	flushReq   chan flushRequest
	shutdownCh chan context.Context
	done       chan struct{}

	deliverCtx    context.Context
	deliverCancel context.CancelFunc

	stats counters
}

// New creates a pipeline and starts its flush worker.
func New(cfg Config, opts Options) (*Pipeline, error) {
	if opts.Sink == nil {
		return nil, errors.New("pipeline: sink is required")
	}
	if opts.Fallback == nil {
		return nil, errors.New("pipeline: fallback log is required")
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 100 * time.Millisecond
	}
	if cfg.MaxBuffer < cfg.Capacity {
		cfg.MaxBuffer = 10000
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		cfg:           cfg,
		sink:          opts.Sink,
		fallback:      opts.Fallback,
		logger:        opts.Logger.Component("pipeline"),
		metrics:       opts.Metrics,
		kick:          make(chan struct{}, 1),
		flushReq:      make(chan flushRequest),
		shutdownCh:    make(chan context.Context),
		done:          make(chan struct{}),
		deliverCtx:    ctx,
		deliverCancel: cancel,
	}

	go p.worker()

	return p, nil
}

// Ingest validates and buffers one event. It returns a ValidationError for
// malformed events (which never enter the buffer) and ErrClosed after
// shutdown; delivery failures are never reported here.
func (p *Pipeline) Ingest(ev events.AgentEvent) error {
	if err := validate(ev); err != nil {
		p.stats.validationErrors.Add(1)
		return err
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if len(p.buffer) >= p.cfg.MaxBuffer {
		// Drop-oldest: the newest observation is worth more than the
		// oldest one the collector has been unable to take.
		copy(p.buffer, p.buffer[1:])
		p.buffer = p.buffer[:len(p.buffer)-1]
		p.stats.droppedEvents.Add(1)
		if p.metrics != nil {
			p.metrics.EventsDropped.Inc()
		}
	}
	p.buffer = append(p.buffer, ev)
	n := len(p.buffer)
	p.mu.Unlock()

	p.stats.totalEvents.Add(1)
	if p.metrics != nil {
		p.metrics.EventsIngested.WithLabelValues(string(ev.Type)).Inc()
		p.metrics.BufferSize.Set(float64(n))
	}

	if n >= p.cfg.Capacity {
		select {
		case p.kick <- struct{}{}:
		default:
		}
	}
	return nil
}

// Flush forces a synchronous flush of the current buffer.
func (p *Pipeline) Flush(ctx context.Context) error {
	req := flushRequest{ctx: ctx, ack: make(chan struct{})}
	select {
	case p.flushReq <- req:
	case <-p.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-req.ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops ingestion, aborts any in-flight delivery attempt (the
// affected batch degrades to the fallback log rather than being lost),
// performs one final flush of everything still buffered, and stops the
// interval timer. No event present in the buffer at shutdown time is lost.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.closed = true
	p.mu.Unlock()

	p.deliverCancel()

	select {
	case p.shutdownCh <- ctx:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns a snapshot of the running totals.
func (p *Pipeline) Stats() Stats {
	return p.stats.snapshot()
}

// BufferLen returns the number of events awaiting flush.
func (p *Pipeline) BufferLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffer)
}

func (p *Pipeline) worker() {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.kick:
			p.flushOnce(p.deliverCtx)
			ticker.Reset(p.cfg.FlushInterval)
		case <-ticker.C:
			p.flushOnce(p.deliverCtx)
			ticker.Reset(p.cfg.FlushInterval)
		case req := <-p.flushReq:
			p.flushOnce(req.ctx)
			ticker.Reset(p.cfg.FlushInterval)
			close(req.ack)
		case sctx := <-p.shutdownCh:
			p.flushOnce(sctx)
			return
		}
	}
}

// flushOnce drains the entire current buffer into one batch and delivers
// it. A fresh buffer accepts newly-arriving events immediately; no event is
// ever visible to two batches.
func (p *Pipeline) flushOnce(ctx context.Context) {
	p.mu.Lock()
	if len(p.buffer) == 0 {
		p.mu.Unlock()
		return
	}
	drained := p.buffer
	p.buffer = nil
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.BufferSize.Set(0)
	}

	batch := events.NewBatch(drained)
	start := time.Now()
	err := p.deliver(ctx, batch)
	if p.metrics != nil {
		p.metrics.FlushDuration.Observe(time.Since(start).Seconds())
	}

	if err == nil {
		p.stats.flushedBatches.Add(1)
		p.stats.markFlush(time.Now())
		if p.metrics != nil {
			p.metrics.BatchesFlushed.Inc()
		}
		p.logger.Debug("batch delivered",
			zap.String("batch_id", batch.BatchID),
			zap.Int("events", batch.Len()),
		)
		return
	}

	p.logger.Warn("batch delivery exhausted retries, writing to fallback log",
		zap.String("batch_id", batch.BatchID),
		zap.Int("events", batch.Len()),
		zap.Error(err),
	)

	if ferr := p.fallback.Append(batch); ferr != nil {
		// Both the collector and the local disk refused the batch; the
		// events are gone and the counter must say so.
		p.stats.droppedEvents.Add(uint64(batch.Len()))
		if p.metrics != nil {
			p.metrics.EventsDropped.Add(float64(batch.Len()))
		}
		p.logger.Error("fallback write failed, events lost",
			zap.String("batch_id", batch.BatchID),
			zap.Int("events", batch.Len()),
			zap.Error(ferr),
		)
	} else {
		p.stats.fallbackBatches.Add(1)
		if p.metrics != nil {
			p.metrics.BatchesFallback.Inc()
		}
	}
	p.stats.markFlush(time.Now())
}

// deliver runs the retry ladder for one batch. The batch is retried
// atomically; partial delivery is never attempted.
func (p *Pipeline) deliver(ctx context.Context, batch *events.Batch) error {
	attempt := 0
	return p.cfg.Retry.Do(ctx, func() error {
		attempt++
		if attempt > 1 {
			p.stats.retryAttempts.Add(1)
			if p.metrics != nil {
				p.metrics.RetryAttempts.Inc()
			}
		}
		actx, cancel := context.WithTimeout(ctx, p.cfg.SendTimeout)
		defer cancel()
		return p.sink.Send(actx, batch)
	})
}

func validate(ev events.AgentEvent) error {
	switch {
	case !ev.Type.Valid():
		return &events.ValidationError{Field: "event_type", Reason: "is not a known type"}
	case ev.EventID == "":
		return &events.ValidationError{Field: "event_id", Reason: "is required"}
	case ev.AgentID == "":
		return &events.ValidationError{Field: "agent_id", Reason: "is required"}
	case ev.Timestamp.IsZero():
		return &events.ValidationError{Field: "timestamp", Reason: "is required"}
	default:
		return nil
	}
}
