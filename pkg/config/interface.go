package config

import "time"

// Environment defines the interface for environment variable access
type Environment interface {
	Lookup(key string) (string, bool)
	GetString(key string) string
	GetBool(key string) bool
	GetDuration(key string) time.Duration
}

// Environment variables that override file settings
const (
	EnvDebounce       = "LINETAIL_DEBOUNCE"
	EnvStep           = "LINETAIL_STEP"
	EnvTimeout        = "LINETAIL_TIMEOUT"
	EnvBackend        = "LINETAIL_BACKEND"
	EnvLogLevel       = "LINETAIL_LOG_LEVEL"
	EnvLogJSON        = "LINETAIL_LOG_JSON"
	EnvMetricsAddr    = "LINETAIL_METRICS_ADDR"
	EnvYieldOnTimeout = "LINETAIL_YIELD_ON_TIMEOUT"
)
