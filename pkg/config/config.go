// Package config loads linetail settings from YAML with environment
// overrides.
package config

import (
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/butter-bot-machines/linetail/pkg/debounce"
	"github.com/butter-bot-machines/linetail/pkg/errors"
	"github.com/butter-bot-machines/linetail/pkg/logging"
	"github.com/butter-bot-machines/linetail/pkg/watcher"
)

// Config represents the root configuration structure
type Config struct {
	Files   []string        `yaml:"files,omitempty"`
	Backend string          `yaml:"backend"`
	Poll    debounce.Config `yaml:"poll"`
	Follow  FollowConfig    `yaml:"follow"`
	Log     LogConfig       `yaml:"log"`
	Metrics MetricsConfig   `yaml:"metrics"`
}

// FollowConfig controls the follow loop
type FollowConfig struct {
	YieldOnTimeout bool `yaml:"yield_on_timeout"`
	RaiseInterrupt bool `yaml:"raise_interrupt"`
}

// LogConfig controls logging output
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// MetricsConfig controls the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	return &Config{
		Backend: watcher.BackendFSNotify,
		Poll:    debounce.DefaultConfig(),
		Follow:  FollowConfig{RaiseInterrupt: true},
		Log:     LogConfig{Level: "info"},
	}
}

// ParseConfig parses YAML on top of the defaults. Durations are Go duration
// strings such as "1600ms".
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.ConfigError.Wrap(err, "failed to parse config")
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errors.ConfigError.Wrap(err, "failed to marshal config")
	}
	return data, nil
}

// ApplyEnv overrides settings from env. Malformed values are rejected
// rather than ignored.
func (c *Config) ApplyEnv(env Environment) error {
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{EnvDebounce, &c.Poll.Debounce},
		{EnvStep, &c.Poll.Step},
		{EnvTimeout, &c.Poll.Timeout},
	}
	for _, d := range durations {
		raw, ok := env.Lookup(d.key)
		if !ok || raw == "" {
			continue
		}
		v, err := time.ParseDuration(raw)
		if err != nil {
			return errors.ConfigError.Wrap(err, "invalid %s", d.key).WithContext("value", raw)
		}
		*d.dst = v
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{EnvLogJSON, &c.Log.JSON},
		{EnvYieldOnTimeout, &c.Follow.YieldOnTimeout},
	}
	for _, b := range bools {
		raw, ok := env.Lookup(b.key)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.ConfigError.Wrap(err, "invalid %s", b.key).WithContext("value", raw)
		}
		*b.dst = v
	}

	if v := env.GetString(EnvBackend); v != "" {
		c.Backend = v
	}
	if v := env.GetString(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := env.GetString(EnvMetricsAddr); v != "" {
		c.Metrics.Addr = v
	}
	return nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	switch c.Backend {
	case watcher.BackendFSNotify, watcher.BackendTail:
	default:
		return errors.ConfigError.New("unknown backend %q", c.Backend)
	}
	if err := c.Poll.Validate(); err != nil {
		return err
	}
	// the same names the logger is later built from
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}
