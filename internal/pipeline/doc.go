// Package pipeline buffers agent events and delivers them in batches to a
// collector sink with retries and a durable local fallback.
//
// Producers call Ingest, which validates and buffers without ever touching
// the network. A single worker flushes the buffer when it reaches Capacity
// or when FlushInterval elapses, whichever comes first, and the timer
// re-arms after every flush. A batch that exhausts its retry ladder is
// appended to a per-day fallback log instead of being dropped; combined
// with idempotent ingestion on the collector side this yields at-least-once
// delivery for every event that was ever buffered.
package pipeline
