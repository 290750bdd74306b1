package pipeline

import (
	"sync"
	"sync/atomic"
	"time"
)

// Stats is a snapshot of the pipeline's process-lifetime counters. Counters
// are monotonic and reset only on restart. DroppedEvents counts events
// actually lost (buffer overflow or failed fallback writes); events that
// reached the fallback log were persisted, not dropped.
type Stats struct {
	TotalEvents      uint64    `json:"total_events"`
	FlushedBatches   uint64    `json:"flushed_batches"`
	FallbackBatches  uint64    `json:"fallback_batches"`
	DroppedEvents    uint64    `json:"dropped_events"`
	RetryAttempts    uint64    `json:"retry_attempts"`
	ValidationErrors uint64    `json:"validation_errors"`
	LastFlushAt      time.Time `json:"last_flush_at"`
}

// counters is the internal mutable form behind Stats.
type counters struct {
	totalEvents      atomic.Uint64
	flushedBatches   atomic.Uint64
	fallbackBatches  atomic.Uint64
	droppedEvents    atomic.Uint64
	retryAttempts    atomic.Uint64
	validationErrors atomic.Uint64

	mu          sync.Mutex
	lastFlushAt time.Time
}

func (c *counters) markFlush(t time.Time) {
	c.mu.Lock()
	c.lastFlushAt = t
	c.mu.Unlock()
}

func (c *counters) snapshot() Stats {
	c.mu.Lock()
	last := c.lastFlushAt
	c.mu.Unlock()

	return Stats{
		TotalEvents:      c.totalEvents.Load(),
		FlushedBatches:   c.flushedBatches.Load(),
		FallbackBatches:  c.fallbackBatches.Load(),
		DroppedEvents:    c.droppedEvents.Load(),
		RetryAttempts:    c.retryAttempts.Load(),
		ValidationErrors: c.validationErrors.Load(),
		LastFlushAt:      last,
	}
}
