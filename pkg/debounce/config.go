package debounce

import (
	"time"

	"github.com/butter-bot-machines/linetail/pkg/errors"
)

// Default poll parameters
const (
	DefaultDebounce = 1600 * time.Millisecond
	DefaultStep     = 50 * time.Millisecond
	DefaultTimeout  = 5 * time.Second
)

// Config controls one Poll call.
//
// Debounce caps how long a batch keeps coalescing once data was first seen.
// Step is the polling interval; it bounds both growth detection and
// cancellation latency. Timeout is the idle limit before the first line,
// zero meaning wait forever.
type Config struct {
	Debounce time.Duration `yaml:"debounce"`
	Step     time.Duration `yaml:"step"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the default poll parameters
func DefaultConfig() Config {
	return Config{
		Debounce: DefaultDebounce,
		Step:     DefaultStep,
		Timeout:  DefaultTimeout,
	}
}

// Validate checks the parameters
func (c Config) Validate() error {
	if c.Step <= 0 {
		return errors.ConfigError.New("step must be positive, got %s", c.Step)
	}
	if c.Debounce < 0 {
		return errors.ConfigError.New("debounce must not be negative, got %s", c.Debounce)
	}
	if c.Timeout < 0 {
		return errors.ConfigError.New("timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}
