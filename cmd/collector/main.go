package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/AgentObserve/internal/collector"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentObserve/internal/infrastructure/monitoring"
)

func main() {
	port := flag.String("port", "", "Collector port (overrides COLLECTOR_PORT)")
	dev := flag.Bool("dev", false, "Development mode: colored logs, debug level")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *port != "" {
		cfg.Collector.Port = *port
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		logger = logging.NewDefault()
	}

	srv := collector.New(cfg, collector.Options{
		Logger:  logger,
		Metrics: monitoring.NewDefault(),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		log.Fatalf("Collector error: %v", err)
	}
}
