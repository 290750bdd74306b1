package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/correlation"
	"github.com/GriffinCanCode/AgentObserve/internal/events"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentObserve/internal/pipeline"
	"github.com/GriffinCanCode/AgentObserve/internal/shared/id"
	"github.com/GriffinCanCode/AgentObserve/internal/tracing"
)

func main() {
	agents := flag.Int("agents", 3, "Number of simulated agents")
	tasks := flag.Int("tasks", 5, "Tasks per agent")
	endpoint := flag.String("endpoint", "", "Event ingest endpoint (overrides PIPELINE_ENDPOINT)")
	dev := flag.Bool("dev", true, "Development mode: colored logs, debug level")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *endpoint != "" {
		cfg.Pipeline.Endpoint = *endpoint
	}

	var logger *logging.Logger
	if *dev {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}
	defer logger.Sync()

	store, err := correlation.NewFileStore(cfg.Correlation.StorePath)
	if err != nil {
		log.Fatalf("Failed to open correlation store: %v", err)
	}
	corr := correlation.NewManager(correlation.Options{
		TTL:    cfg.Correlation.TTL,
		Prefix: cfg.Correlation.IDPrefix,
		Store:  store,
		Logger: logger,
	})
	corr.StartFlusher(cfg.Correlation.FlushInterval)
	defer corr.Close()

	tracer := tracing.New(cfg.Tracing.ServiceName, tracing.NewHTTPExporter(tracing.HTTPExporterConfig{
		Endpoint:      cfg.Tracing.Endpoint,
		BatchSize:     cfg.Tracing.BatchSize,
		BatchInterval: cfg.Tracing.BatchInterval,
	}, logger), logger)

	fallback, err := pipeline.NewFallbackLog(cfg.Pipeline.FallbackDir)
	if err != nil {
		log.Fatalf("Failed to open fallback log: %v", err)
	}
	sink := pipeline.NewHTTPSink(pipeline.HTTPSinkConfig{
		Endpoint: cfg.Pipeline.Endpoint,
		Source:   cfg.Pipeline.Source,
		Timeout:  cfg.Pipeline.SendTimeout,
	})
	pipe, err := pipeline.New(pipeline.Config{
		Capacity:      cfg.Pipeline.Capacity,
		FlushInterval: cfg.Pipeline.FlushInterval,
		MaxBuffer:     cfg.Pipeline.MaxBuffer,
		Retry: resilience.RetryPolicy{
			MaxRetries: cfg.Pipeline.MaxRetries,
			BaseDelay:  cfg.Pipeline.RetryBaseDelay,
			Multiplier: 2,
		},
		SendTimeout: cfg.Pipeline.SendTimeout,
	}, pipeline.Options{Sink: sink, Fallback: fallback, Logger: logger})
	if err != nil {
		log.Fatalf("Failed to create pipeline: %v", err)
	}

	for a := 0; a < *agents; a++ {
		runAgent(pipe, tracer, corr, a, *tasks)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := pipe.Shutdown(ctx); err != nil {
		log.Printf("Pipeline shutdown: %v", err)
	}
	if err := tracer.Shutdown(ctx); err != nil {
		log.Printf("Tracer shutdown: %v", err)
	}

	stats := pipe.Stats()
	fmt.Printf("emitted %d events: %d batches delivered, %d to fallback, %d dropped\n",
		stats.TotalEvents, stats.FlushedBatches, stats.FallbackBatches, stats.DroppedEvents)
}

// runAgent simulates one agent's session: spawn, then a run of tasks, each
// traced as a root span with child spans for the permission check and the
// work itself.
func runAgent(pipe *pipeline.Pipeline, tracer *tracing.Tracer, corr *correlation.Manager, n, tasks int) {
	agentID := id.NewAgentID().String()
	ident := events.Identity{
		AgentID:   agentID,
		AgentName: fmt.Sprintf("worker-%d", n),
		AgentRole: "coder",
	}

	sessionID := corr.GetOrCreate("session:"+agentID, correlation.FormatPrefixed)

	emit(pipe, events.NewSpawned(events.SpawnedPayload{
		Identity:     ident,
		Capabilities: []string{"file.read", "file.write", "shell.exec"},
	}))

	remaining := 10.0
	for i := 0; i < tasks; i++ {
		taskID := fmt.Sprintf("%s-task-%d", sessionID, i)

		span, ctx := tracer.StartSpan(context.Background(), "task.run")
		span.SetAttributes(map[string]any{
			"agent.id": agentID,
			"task.id":  taskID,
		})
		tr := events.Trace{
			TraceID: tracing.TraceIDFromContext(ctx),
			SpanID:  tracing.SpanIDFromContext(ctx),
		}

		emit(pipe, events.NewActivated(events.ActivatedPayload{Identity: ident, Trace: tr, TaskID: taskID}))
		emit(pipe, events.NewTaskStarted(events.TaskStartedPayload{
			Identity:    ident,
			Trace:       tr,
			TaskID:      taskID,
			Description: "apply review feedback",
		}))

		check := tracer.StartChildSpan(span, "policy.check")
		denied := rand.Intn(10) == 0
		if denied {
			check.SetStatus(tracing.StatusError, "blocked by policy")
			emit(pipe, events.NewOperationDenied(events.OperationPayload{
				Identity: ident, Trace: tr,
				Operation: "shell.exec",
				Rule:      "no-network-install",
				Reason:    "package installs require approval",
			}))
		} else {
			emit(pipe, events.NewOperationAllowed(events.OperationPayload{
				Identity: ident, Trace: tr,
				Operation: "file.write",
				Rule:      "workspace-only",
			}))
		}
		tracer.End(check)

		work := tracer.StartChildSpan(span, "task.work")
		elapsed := time.Duration(20+rand.Intn(80)) * time.Millisecond
		time.Sleep(elapsed)
		tracer.End(work)

		cost := 0.01 + rand.Float64()*0.05
		remaining -= cost
		emit(pipe, events.NewBudgetUpdated(events.BudgetPayload{
			Identity: ident, Trace: tr,
			Deducted:  cost,
			Remaining: remaining,
		}))

		if denied {
			emit(pipe, events.NewTaskFailed(events.TaskResultPayload{
				Identity: ident, Trace: tr,
				TaskID:   taskID,
				Duration: elapsed,
				Error:    "operation denied by policy",
			}))
			span.SetStatus(tracing.StatusError, "task failed")
		} else {
			emit(pipe, events.NewTaskCompleted(events.TaskResultPayload{
				Identity: ident, Trace: tr,
				TaskID:   taskID,
				Duration: elapsed,
				Outputs:  []string{"patch.diff"},
			}))
		}
		tracer.End(span)
	}
}

func emit(pipe *pipeline.Pipeline, ev events.AgentEvent, err error) {
	if err != nil {
		log.Printf("Skipping malformed event: %v", err)
		return
	}
	if err := pipe.Ingest(ev); err != nil {
		log.Printf("Ingest failed: %v", err)
	}
}
