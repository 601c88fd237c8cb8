package env

import (
	"os"
	"strconv"
	"time"
)

// Environment implements config.Environment for accessing environment variables
type Environment struct {
	lookup func(string) (string, bool)
}

// New creates a new environment accessor backed by the process environment
func New() *Environment {
	return &Environment{lookup: os.LookupEnv}
}

// FromMap creates an accessor over a fixed set of variables
func FromMap(vars map[string]string) *Environment {
	return &Environment{lookup: func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}}
}

// Lookup returns the variable and whether it is set
func (e *Environment) Lookup(key string) (string, bool) {
	return e.lookup(key)
}

// GetString returns an environment variable as a string
func (e *Environment) GetString(key string) string {
	v, _ := e.lookup(key)
	return v
}

// GetBool returns an environment variable as a boolean
func (e *Environment) GetBool(key string) bool {
	return e.GetBoolWithDefault(key, false)
}

// GetDuration returns an environment variable as a duration
func (e *Environment) GetDuration(key string) time.Duration {
	return e.GetDurationWithDefault(key, 0)
}

// GetBoolWithDefault returns an environment variable as a boolean with a default value
func (e *Environment) GetBoolWithDefault(key string, defaultValue bool) bool {
	str := e.GetString(key)
	if str == "" {
		return defaultValue
	}

	val, err := strconv.ParseBool(str)
	if err != nil {
		return defaultValue
	}
	return val
}

// GetDurationWithDefault returns an environment variable as a duration with a default value
func (e *Environment) GetDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	str := e.GetString(key)
	if str == "" {
		return defaultValue
	}

	val, err := time.ParseDuration(str)
	if err != nil {
		return defaultValue
	}
	return val
}

// Has returns true if an environment variable is set
func (e *Environment) Has(key string) bool {
	_, exists := e.lookup(key)
	return exists
}
