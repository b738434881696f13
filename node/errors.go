package node

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid node configuration: missing or malformed
// keys, unresolvable credential ids, wrong credential category, out-of-range
// numeric values. Config errors are detected before any side effect occurs
// and are recoverable by correcting the configuration.
type ConfigError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a ConfigError with a formatted message.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// WrapConfigError creates a ConfigError wrapping err.
func WrapConfigError(err error, format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...), Err: err}
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// RuntimeError reports a failure during node execution: connection failure,
// query failure, inference timeout, script failure. Runtime errors carry
// diagnostic context but never secret credential values.
type RuntimeError struct {
	Message string
	Err     error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *RuntimeError) Unwrap() error { return e.Err }

// NewRuntimeError creates a RuntimeError with a formatted message.
func NewRuntimeError(format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}

// WrapRuntimeError creates a RuntimeError wrapping err.
func WrapRuntimeError(err error, format string, args ...any) *RuntimeError {
	return &RuntimeError{Message: fmt.Sprintf(format, args...), Err: err}
}

// IsRuntimeError reports whether err is (or wraps) a RuntimeError.
func IsRuntimeError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re)
}
