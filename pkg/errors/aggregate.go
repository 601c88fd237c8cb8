package errors

import (
	"fmt"
	"strings"
)

// Aggregate collects multiple errors. The zero value is ready to use.
type Aggregate struct {
	errs []error
}

// Add records err if it is non-nil
func (a *Aggregate) Add(err error) {
	if err != nil {
		a.errs = append(a.errs, err)
	}
}

// HasErrors returns true if there are any errors
func (a *Aggregate) HasErrors() bool {
	return len(a.errs) > 0
}

// Errors returns the recorded errors
func (a *Aggregate) Errors() []error {
	return a.errs
}

// Err returns nil when empty, the single error when there is one, and the
// aggregate otherwise.
func (a *Aggregate) Err() error {
	switch len(a.errs) {
	case 0:
		return nil
	case 1:
		return a.errs[0]
	default:
		return a
	}
}

func (a *Aggregate) Error() string {
	if !a.HasErrors() {
		return ""
	}
	if len(a.errs) == 1 {
		return a.errs[0].Error()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d errors occurred:\n", len(a.errs))
	for i, err := range a.errs {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%d] %v", i+1, err)
	}
	return b.String()
}

// Unwrap exposes the recorded errors to errors.Is and errors.As
func (a *Aggregate) Unwrap() []error {
	return a.errs
}
