package errors

import stderrors "errors"

// AsError finds the first typed error in err's chain
func AsError(err error) Error {
	if err == nil {
		return nil
	}
	var ce *concreteError
	if stderrors.As(err, &ce) {
		return ce
	}
	return nil
}

// GetType returns the error type if available
func GetType(err error) ErrorType {
	if e := AsError(err); e != nil {
		return e.Type()
	}
	return nil
}

// IsType reports whether any error in err's chain has the given type
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		if ce, ok := err.(*concreteError); ok && ErrorType(ce.errType) == errType {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// GetMessage returns the error message without cause or context
func GetMessage(err error) string {
	if e := AsError(err); e != nil {
		return e.(*concreteError).message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// GetContext returns the error context if available
func GetContext(err error) map[string]interface{} {
	if e := AsError(err); e != nil {
		return e.Context()
	}
	return nil
}

// WithContext adds context to an error
func WithContext(err error, key string, value interface{}) error {
	if e := AsError(err); e != nil {
		return e.WithContext(key, value)
	}
	return err
}
