package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Correlation CorrelationConfig
	Tracing     TracingConfig
	Pipeline    PipelineConfig
	Collector   CollectorConfig
	Logging     LogConfig
	RateLimit   RateLimitConfig
}

// CorrelationConfig holds correlation id manager configuration.
type CorrelationConfig struct {
	TTL           time.Duration `envconfig:"CORRELATION_TTL" default:"24h"`
	StorePath     string        `envconfig:"CORRELATION_STORE" default:".observe/correlation.json"`
	FlushInterval time.Duration `envconfig:"CORRELATION_FLUSH_INTERVAL" default:"5s"`
	IDPrefix      string        `envconfig:"CORRELATION_ID_PREFIX" default:"agent"`
}

// TracingConfig holds tracer and span exporter configuration.
type TracingConfig struct {
	ServiceName   string        `envconfig:"TRACE_SERVICE" default:"agent-observe"`
	Exporter      string        `envconfig:"TRACE_EXPORTER" default:"console"` // console, file, http
	FileDir       string        `envconfig:"TRACE_FILE_DIR" default:".observe/traces"`
	Endpoint      string        `envconfig:"TRACE_ENDPOINT" default:"http://localhost:8799/traces/ingest"`
	BatchSize     int           `envconfig:"TRACE_BATCH_SIZE" default:"50"`
	BatchInterval time.Duration `envconfig:"TRACE_BATCH_INTERVAL" default:"2s"`
}

// PipelineConfig holds event pipeline configuration.
type PipelineConfig struct {
	Capacity       int           `envconfig:"PIPELINE_CAPACITY" default:"100"`
	FlushInterval  time.Duration `envconfig:"PIPELINE_FLUSH_INTERVAL" default:"100ms"`
	MaxBuffer      int           `envconfig:"PIPELINE_MAX_BUFFER" default:"10000"`
	MaxRetries     int           `envconfig:"PIPELINE_MAX_RETRIES" default:"3"`
	RetryBaseDelay time.Duration `envconfig:"PIPELINE_RETRY_BASE_DELAY" default:"1s"`
	Endpoint       string        `envconfig:"PIPELINE_ENDPOINT" default:"http://localhost:8799/events/ingest"`
	Source         string        `envconfig:"PIPELINE_SOURCE" default:"agent-observe"`
	FallbackDir    string        `envconfig:"PIPELINE_FALLBACK_DIR" default:".observe/logs"`
	SendTimeout    time.Duration `envconfig:"PIPELINE_SEND_TIMEOUT" default:"10s"`
}

// CollectorConfig holds the reference collector's HTTP server configuration.
type CollectorConfig struct {
	Port string `envconfig:"COLLECTOR_PORT" default:"8799"`
	Host string `envconfig:"COLLECTOR_HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration for the collector.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Correlation: CorrelationConfig{
			TTL:           24 * time.Hour,
			StorePath:     ".observe/correlation.json",
			FlushInterval: 5 * time.Second,
			IDPrefix:      "agent",
		},
		Tracing: TracingConfig{
			ServiceName:   "agent-observe",
			Exporter:      "console",
			FileDir:       ".observe/traces",
			Endpoint:      "http://localhost:8799/traces/ingest",
			BatchSize:     50,
			BatchInterval: 2 * time.Second,
		},
		Pipeline: PipelineConfig{
			Capacity:       100,
			FlushInterval:  100 * time.Millisecond,
			MaxBuffer:      10000,
			MaxRetries:     3,
			RetryBaseDelay: time.Second,
			Endpoint:       "http://localhost:8799/events/ingest",
			Source:         "agent-observe",
			FallbackDir:    ".observe/logs",
			SendTimeout:    10 * time.Second,
		},
		Collector: CollectorConfig{
			Port: "8799",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
