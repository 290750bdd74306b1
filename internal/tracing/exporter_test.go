package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func endedSpan(t *testing.T, tracer *Tracer, exp *captureExporter, name string) *Span {
	t.Helper()
	span, _ := tracer.StartSpan(context.Background(), name)
	span.SetAttribute("task_id", "T1")
	tracer.End(span)
	return exp.wait(t)
}

func TestConsoleExporter(t *testing.T) {
	exp := NewConsoleExporter(logging.NewNop())
	tracer, capture := newTestTracer(t)

	span := endedSpan(t, tracer, capture, "op")
	require.NoError(t, exp.Export(span))
	require.NoError(t, exp.Shutdown(context.Background()))
}

func TestFileExporterWritesJSONLines(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "traces")
	exp, err := NewFileExporter(dir)
	require.NoError(t, err)

	tracer, capture := newTestTracer(t)
	want := endedSpan(t, tracer, capture, "task.execute")

	require.NoError(t, exp.Export(want))
	require.NoError(t, exp.Shutdown(context.Background()))

	path := filepath.Join(dir, "traces-"+time.Now().UTC().Format("2006-01-02")+".log")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())

	var got Span
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &got))
	assert.Equal(t, want.TraceID, got.TraceID)
	assert.Equal(t, want.SpanID, got.SpanID)
	assert.Equal(t, "task.execute", got.Name)
	assert.Equal(t, StatusOK, got.Status.Code)
	assert.Equal(t, "T1", got.Attributes["task_id"])

	assert.False(t, scanner.Scan(), "exactly one line per span")
}

func TestFileExporterCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deeply", "nested", "traces")
	_, err := NewFileExporter(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestHTTPExporterSingleSpan(t *testing.T) {
	var received atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Spans []Span `json:"spans"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		received.Add(int64(len(body.Spans)))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	exp := NewHTTPExporter(HTTPExporterConfig{Endpoint: srv.URL}, logging.NewNop())
	tracer, capture := newTestTracer(t)

	require.NoError(t, exp.Export(endedSpan(t, tracer, capture, "op")))
	require.NoError(t, exp.Shutdown(context.Background()))
	assert.Equal(t, int64(1), received.Load())
}

func TestHTTPExporterBatchesBySize(t *testing.T) {
	batches := make(chan int, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Spans []Span `json:"spans"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		batches <- len(body.Spans)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	exp := NewHTTPExporter(HTTPExporterConfig{
		Endpoint:      srv.URL,
		BatchSize:     3,
		BatchInterval: time.Hour, // size trigger only
	}, logging.NewNop())
	tracer, capture := newTestTracer(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, exp.Export(endedSpan(t, tracer, capture, "op")))
	}

	select {
	case n := <-batches:
		assert.Equal(t, 3, n)
	case <-time.After(2 * time.Second):
		t.Fatal("batch never posted")
	}

	require.NoError(t, exp.Shutdown(context.Background()))
}

func TestHTTPExporterFlushesOnShutdown(t *testing.T) {
	batches := make(chan int, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Spans []Span `json:"spans"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		batches <- len(body.Spans)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exp := NewHTTPExporter(HTTPExporterConfig{
		Endpoint:      srv.URL,
		BatchSize:     100,
		BatchInterval: time.Hour,
	}, logging.NewNop())
	tracer, capture := newTestTracer(t)

	require.NoError(t, exp.Export(endedSpan(t, tracer, capture, "op")))
	require.NoError(t, exp.Shutdown(context.Background()))

	select {
	case n := <-batches:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("buffered span lost at shutdown")
	}
}

func TestHTTPExporterNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	exp := NewHTTPExporter(HTTPExporterConfig{Endpoint: srv.URL}, logging.NewNop())
	tracer, capture := newTestTracer(t)

	err := exp.Export(endedSpan(t, tracer, capture, "op"))
	assert.Error(t, err)
}
