package config

import (
	"os"
	"sync"

	"github.com/butter-bot-machines/linetail/pkg/errors"
)

// Manager handles configuration loading and management
type Manager struct {
	mu     sync.RWMutex
	config *Config
	path   string
	env    Environment
}

// NewManager creates a manager for the file at path. An empty path means
// defaults plus environment only.
func NewManager(path string, env Environment) *Manager {
	return &Manager{
		config: DefaultConfig(),
		path:   path,
		env:    env,
	}
}

// Load reads the file, applies environment overrides and validates
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	config := DefaultConfig()
	if m.path != "" {
		data, err := os.ReadFile(m.path)
		if err != nil {
			return errors.ConfigError.Wrap(err, "failed to read config file").WithContext("path", m.path)
		}
		config, err = ParseConfig(data)
		if err != nil {
			return err
		}
	}

	if m.env != nil {
		if err := config.ApplyEnv(m.env); err != nil {
			return err
		}
	}
	if err := config.Validate(); err != nil {
		return err
	}

	m.config = config
	return nil
}

// Get returns the current configuration
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Path returns the config file path
func (m *Manager) Path() string {
	return m.path
}
