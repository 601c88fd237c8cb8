package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCreation(t *testing.T) {
	err := New(ConfigError, "invalid step %dms", 0)
	require.NotNil(t, err)
	assert.Equal(t, ConfigError, err.Type())
	assert.Equal(t, "invalid step 0ms", err.Error())
	assert.NotEmpty(t, err.Stack().Frames(), "stack trace not captured")

	// Test nil handling
	assert.Nil(t, Wrap(nil, "wrapper"))
	assert.Nil(t, WatchError.Wrap(nil, "wrapper"))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	wrapped := WatchError.Wrap(cause, "failed to watch %s", "/var/log/app.log")

	assert.Equal(t, "failed to watch /var/log/app.log: permission denied", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, cause))
	assert.Equal(t, cause, wrapped.Cause())
	assert.True(t, IsType(wrapped, WatchError))
	assert.False(t, IsType(wrapped, ReadError))
}

func TestWrapInheritsType(t *testing.T) {
	inner := ReadError.New("line sequence ended")
	outer := Wrap(inner, "read line")

	assert.Equal(t, ReadError, GetType(outer))
	assert.Equal(t, "read line", GetMessage(outer))

	// Typed errors stay visible through fmt wrapping.
	viaFmt := fmt.Errorf("poll: %w", outer)
	assert.True(t, IsType(viaFmt, ReadError))
	assert.NotNil(t, AsError(viaFmt))
}

func TestErrorContext(t *testing.T) {
	err := New(WatchError, "watch failed").
		WithContext("path", "/tmp/a.log").
		WithContext("backend", "fsnotify")

	assert.Equal(t, "/tmp/a.log", err.Context()["path"])
	assert.Equal(t, "watch failed [backend=fsnotify, path=/tmp/a.log]", err.Error())

	plain := WithContext(fmt.Errorf("plain"), "k", "v")
	assert.Equal(t, "plain", plain.Error())
	assert.Nil(t, GetContext(plain))
}

func TestFormatWithStack(t *testing.T) {
	err := New(CollectorError, "collector stopped")

	out := fmt.Sprintf("%+v", err)
	assert.True(t, strings.HasPrefix(out, "CollectorError: collector stopped\n"))
	assert.Contains(t, out, "errors_test.go")
	assert.Equal(t, "collector stopped", fmt.Sprintf("%v", err))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	a := reg.Register("A", 1)
	b := reg.Register("B", 2)

	again := reg.Register("A", 10)
	assert.Equal(t, a, again, "re-registering returns the existing type")

	got, ok := reg.Get("B")
	require.True(t, ok)
	assert.Equal(t, b, got)

	_, ok = reg.Get("missing")
	assert.False(t, ok)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "A", list[0].Name())
	assert.Equal(t, 2, list[1].Code())
}

func TestAggregate(t *testing.T) {
	var agg Aggregate
	assert.NoError(t, agg.Err())
	assert.False(t, agg.HasErrors())

	first := stderrors.New("first")
	agg.Add(nil)
	agg.Add(first)
	assert.Equal(t, first, agg.Err())

	second := WatchError.New("second")
	agg.Add(second)
	err := agg.Err()
	require.Error(t, err)
	assert.Len(t, agg.Errors(), 2)
	assert.Equal(t, "2 errors occurred:\n[1] first\n[2] second", err.Error())
	assert.ErrorIs(t, err, first)
}
