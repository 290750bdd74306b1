// Package config provides environment-based configuration.
//
// All settings come from environment variables with sensible defaults,
// processed via kelseyhightower/envconfig. Durations accept Go syntax
// ("100ms", "24h").
package config
