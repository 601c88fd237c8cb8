package errors

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
)

// Global registry for error types
var (
	globalRegistry = NewRegistry()

	// WatchError is raised when a file cannot be registered or the watch
	// mechanism fails irrecoverably.
	WatchError = globalRegistry.Register("WatchError", 1)
	// ReadError is raised when the line sequence ends unexpectedly.
	ReadError = globalRegistry.Register("ReadError", 2)
	// ConfigError is raised for invalid configuration.
	ConfigError = globalRegistry.Register("ConfigError", 3)
	// CollectorError marks the terminal failure of a background collector.
	CollectorError = globalRegistry.Register("CollectorError", 4)
	UnknownError   = globalRegistry.Register("UnknownError", 5)
)

// New creates a new error with type and message
func New(errType ErrorType, msg string, args ...interface{}) Error {
	t, ok := errType.(*errorType)
	if !ok {
		t = UnknownError.(*errorType)
	}
	return &concreteError{
		errType: t,
		message: fmt.Sprintf(msg, args...),
		stack:   captureStackTrace(2),
		context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with additional context. The wrapped error
// keeps the type of err when err is already typed.
func Wrap(err error, msg string, args ...interface{}) Error {
	if err == nil {
		return nil
	}
	t := UnknownError.(*errorType)
	if typed, ok := GetType(err).(*errorType); ok {
		t = typed
	}
	return wrap(t, err, fmt.Sprintf(msg, args...), 3)
}

// NewRegistry creates a new error type registry
func NewRegistry() Registry {
	return &registry{
		types: make(map[string]*errorType),
	}
}

type errorType struct {
	name string
	code int
}

func (t *errorType) Name() string {
	return t.name
}

func (t *errorType) Code() int {
	return t.code
}

func (t *errorType) New(msg string, args ...interface{}) Error {
	return &concreteError{
		errType: t,
		message: fmt.Sprintf(msg, args...),
		stack:   captureStackTrace(2),
		context: make(map[string]interface{}),
	}
}

func (t *errorType) Wrap(err error, msg string, args ...interface{}) Error {
	if err == nil {
		return nil
	}
	return wrap(t, err, fmt.Sprintf(msg, args...), 3)
}

func wrap(t *errorType, err error, msg string, skip int) Error {
	return &concreteError{
		errType: t,
		message: msg,
		cause:   err,
		stack:   captureStackTrace(skip),
		context: make(map[string]interface{}),
	}
}

type concreteError struct {
	errType *errorType
	message string
	cause   error
	stack   StackTrace
	context map[string]interface{}
}

func (e *concreteError) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(e.message)
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}

	if len(e.context) > 0 {
		keys := make([]string, 0, len(e.context))
		for k := range e.context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.context[k])
		}
		b.WriteString("]")
	}

	return b.String()
}

func (e *concreteError) Format(f fmt.State, c rune) {
	if e == nil {
		return
	}

	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "%s: %s\n", e.errType.name, e.Error())
		fmt.Fprintf(f, "Stack trace:\n%s", e.stack.String())
		return
	}
	fmt.Fprint(f, e.Error())
}

func (e *concreteError) WithContext(key string, value interface{}) Error {
	if e == nil {
		return nil
	}
	e.context[key] = value
	return e
}

func (e *concreteError) Type() ErrorType {
	return e.errType
}

func (e *concreteError) Stack() StackTrace {
	return e.stack
}

func (e *concreteError) Context() map[string]interface{} {
	return e.context
}

func (e *concreteError) Cause() error {
	return e.cause
}

func (e *concreteError) Unwrap() error {
	return e.cause
}

type stackFrame struct {
	file     string
	line     int
	function string
}

func (f *stackFrame) File() string {
	return f.file
}

func (f *stackFrame) Line() int {
	return f.line
}

func (f *stackFrame) Function() string {
	return f.function
}

func (f *stackFrame) String() string {
	return fmt.Sprintf("%s:%d %s", f.file, f.line, f.function)
}

type stackTrace struct {
	frames []Frame
}

func (st *stackTrace) Frames() []Frame {
	return st.frames
}

func (st *stackTrace) String() string {
	var b strings.Builder
	for _, frame := range st.frames {
		fmt.Fprintf(&b, "  %s\n", frame.String())
	}
	return b.String()
}

func captureStackTrace(skip int) StackTrace {
	var frames []Frame
	for i := skip; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			break
		}

		shortFile := file
		if idx := strings.LastIndex(file, "/"); idx >= 0 {
			shortFile = file[idx+1:]
		}

		frames = append(frames, &stackFrame{
			file:     shortFile,
			line:     line,
			function: fn.Name(),
		})

		// Limit stack depth
		if len(frames) >= 32 {
			break
		}
	}
	return &stackTrace{frames: frames}
}

type registry struct {
	types map[string]*errorType
	mu    sync.RWMutex
}

func (r *registry) Register(name string, code int) ErrorType {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.types[name]; ok {
		return t
	}
	t := &errorType{
		name: name,
		code: code,
	}
	r.types[name] = t
	return t
}

func (r *registry) Get(name string) (ErrorType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[name]
	return t, ok
}

func (r *registry) List() []ErrorType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]ErrorType, 0, len(r.types))
	for _, t := range r.types {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return types[i].Code() < types[j].Code()
	})
	return types
}
