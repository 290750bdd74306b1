package tracing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/logging"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
)

// Exporter turns ended spans into persisted or transmitted records.
// Implementations must tolerate concurrent Export calls from the tracer's
// collector goroutine only (single caller).
type Exporter interface {
	Export(span *Span) error
	Shutdown(ctx context.Context) error
}

// ConsoleExporter writes one structured log line per span.
type ConsoleExporter struct {
	logger *logging.Logger
}

// NewConsoleExporter creates a console exporter.
func NewConsoleExporter(logger *logging.Logger) *ConsoleExporter {
	if logger == nil {
		logger = logging.NewDefault()
	}
	return &ConsoleExporter{logger: logger.Component("trace-export")}
}

// Export logs the span.
func (e *ConsoleExporter) Export(span *Span) error {
	fields := []zap.Field{
		zap.String("trace_id", span.TraceID),
		zap.String("span_id", span.SpanID),
		zap.String("name", span.Name),
		zap.String("kind", string(span.Kind)),
		zap.Duration("duration", span.Duration()),
		zap.String("status", span.Status.Code.String()),
	}
	if span.ParentSpanID != "" {
		fields = append(fields, zap.String("parent_span_id", span.ParentSpanID))
	}
	if len(span.Attributes) > 0 {
		fields = append(fields, zap.Any("attributes", span.Attributes))
	}

	if span.Status.Code == StatusError {
		fields = append(fields, zap.String("error", span.Status.Message))
		e.logger.Error("span ended", fields...)
	} else {
		e.logger.Info("span ended", fields...)
	}
	return nil
}

// Shutdown flushes the underlying logger.
func (e *ConsoleExporter) Shutdown(context.Context) error {
	_ = e.logger.Sync()
	return nil
}

// FileExporter appends spans as JSON lines to a per-day file under dir.
type FileExporter struct {
	dir string

	mu   sync.Mutex
	day  string
	file *os.File
}

// NewFileExporter creates a file exporter, creating dir as needed.
func NewFileExporter(dir string) (*FileExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tracing: create export dir: %w", err)
	}
	return &FileExporter{dir: dir}, nil
}

// Export appends one JSON line for the span.
func (e *FileExporter) Export(span *Span) error {
	data, err := json.Marshal(span)
	if err != nil {
		return fmt.Errorf("tracing: marshal span: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	day := time.Now().UTC().Format("2006-01-02")
	if e.file == nil || e.day != day {
		if e.file != nil {
			e.file.Close()
		}
		path := filepath.Join(e.dir, fmt.Sprintf("traces-%s.log", day))
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("tracing: open export file: %w", err)
		}
		e.file = f
		e.day = day
	}

	if _, err := e.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("tracing: write span: %w", err)
	}
	return nil
}

// Shutdown closes the current file.
func (e *FileExporter) Shutdown(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.file != nil {
		err := e.file.Close()
		e.file = nil
		return err
	}
	return nil
}

// HTTPExporterConfig configures the HTTP span exporter.
type HTTPExporterConfig struct {
	Endpoint      string
	Timeout       time.Duration // per-request timeout; 10s when zero
	BatchSize     int           // 0 or 1 posts each span individually
	BatchInterval time.Duration // flush interval when batching; 2s when zero
}

// HTTPExporter posts spans to a collector endpoint, either one POST per span
// or batched with its own size/interval trigger. The batch state is
// deliberately independent from the event pipeline's: span export and event
// delivery fail and recover separately.
type HTTPExporter struct {
	cfg    HTTPExporterConfig
	client *resty.Client
	logger *logging.Logger

	mu     sync.Mutex
	buffer []*Span
	timer  *time.Ticker
	stop   chan struct{}
	done   chan struct{}
}

// NewHTTPExporter creates an HTTP exporter. The client rides a retryablehttp
// transport for transport-level retries of individual POSTs.
func NewHTTPExporter(cfg HTTPExporterConfig, logger *logging.Logger) *HTTPExporter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BatchInterval <= 0 {
		cfg.BatchInterval = 2 * time.Second
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = nil

	client := resty.NewWithClient(retryClient.StandardClient()).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "AgentObserve-Tracer/1.0")

	e := &HTTPExporter{
		cfg:    cfg,
		client: client,
		logger: logger.Component("trace-export"),
	}

	if cfg.BatchSize > 1 {
		e.timer = time.NewTicker(cfg.BatchInterval)
		e.stop = make(chan struct{})
		e.done = make(chan struct{})
		go e.flushLoop()
	}

	return e
}

// Export submits the span, buffering when batching is enabled.
func (e *HTTPExporter) Export(span *Span) error {
	if e.cfg.BatchSize <= 1 {
		return e.post([]*Span{span})
	}

	e.mu.Lock()
	e.buffer = append(e.buffer, span)
	full := len(e.buffer) >= e.cfg.BatchSize
	e.mu.Unlock()

	if full {
		e.flush()
	}
	return nil
}

// Shutdown flushes any buffered spans and stops the batch timer.
func (e *HTTPExporter) Shutdown(context.Context) error {
	if e.timer != nil {
		close(e.stop)
		<-e.done
		e.timer.Stop()
	}
	e.flush()
	return nil
}

func (e *HTTPExporter) flushLoop() {
	defer close(e.done)
	for {
		select {
		case <-e.timer.C:
			e.flush()
		case <-e.stop:
			return
		}
	}
}

func (e *HTTPExporter) flush() {
	e.mu.Lock()
	batch := e.buffer
	e.buffer = nil
	e.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	if err := e.post(batch); err != nil {
		e.logger.Warn("span batch export failed", zap.Int("spans", len(batch)), zap.Error(err))
	}
}

func (e *HTTPExporter) post(spans []*Span) error {
	body := map[string]any{
		"spans":     spans,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	}

	resp, err := e.client.R().
		SetHeader("X-Span-Count", fmt.Sprintf("%d", len(spans))).
		SetBody(body).
		Post(e.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("tracing: export POST: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return fmt.Errorf("tracing: collector returned %s", resp.Status())
	}
	return nil
}
