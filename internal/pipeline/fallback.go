package pipeline

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/events"
)

// PersistenceError reports a fallback-log or store write failure. It is
// logged and swallowed by the pipeline, which keeps operating with reduced
// durability rather than halting.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed for %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// FallbackRecord is one fallback-log line: the event verbatim plus the
// metadata of the batch it travelled in. Embedding keeps the JSON flat so a
// parsed record reproduces the original event field for field.
type FallbackRecord struct {
	events.AgentEvent
	BatchID        string    `json:"batch_id"`
	BatchCreatedAt time.Time `json:"batch_created_at"`
}

// FallbackLog is the durable local destination for batches that exhausted
// their retries: one file per calendar day, one JSON object per line, in
// original batch order. Together with the collector treating event ids as
// idempotency keys this gives the pipeline its at-least-once guarantee.
type FallbackLog struct {
	dir string
	mu  sync.Mutex
}

// NewFallbackLog creates a fallback log rooted at dir, creating it as needed.
func NewFallbackLog(dir string) (*FallbackLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &PersistenceError{Path: dir, Err: err}
	}
	return &FallbackLog{dir: dir}, nil
}

// Path returns the log file path for the given day.
func (l *FallbackLog) Path(day time.Time) string {
	return filepath.Join(l.dir, fmt.Sprintf("visibility-%s.log", day.UTC().Format("2006-01-02")))
}

// Append writes every event of the batch, unmodified and in order, to
// today's log file.
func (l *FallbackLog) Append(batch *events.Batch) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.Path(time.Now())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, ev := range batch.Events {
		rec := FallbackRecord{
			AgentEvent:     ev,
			BatchID:        batch.BatchID,
			BatchCreatedAt: batch.CreatedAt,
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return &PersistenceError{Path: path, Err: err}
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return &PersistenceError{Path: path, Err: err}
		}
	}
	if err := w.Flush(); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	return nil
}

// Read parses back all records for the given day. Used by replay tooling
// and tests; a missing file yields an empty slice.
func (l *FallbackLog) Read(day time.Time) ([]FallbackRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := l.Path(day)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &PersistenceError{Path: path, Err: err}
	}
	defer f.Close()

	var records []FallbackRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var rec FallbackRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, &PersistenceError{Path: path, Err: err}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, &PersistenceError{Path: path, Err: err}
	}
	return records, nil
}
