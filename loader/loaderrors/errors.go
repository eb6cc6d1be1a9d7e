// Package loaderrors defines the error taxonomy of the loader packages.
//
// Configuration errors fail fast at construction time and are never retried.
// Exhaustion (core.ErrEndOfStream) is the normal end-of-pass signal, not an
// error. Source underflow is fatal: a cycled source that yields nothing can
// never satisfy its item-count bound.
package loaderrors

import (
	"errors"
	"fmt"

	"github.com/lguimbarda/min-loader/loader/core"
)

var (
	// ErrConfiguration is matched by every ConfigurationError.
	ErrConfiguration = errors.New("misconfiguration")

	// ErrSourceUnderflow indicates that a cycled source produced no item
	// right after being restarted.
	ErrSourceUnderflow = errors.New("source underflow")
)

// ConfigurationError reports an invalid argument or setting.
type ConfigurationError struct {
	// Field names the offending argument or setting
	Field string

	// Value is the rejected value, if any
	Value any

	// Reason is a human-readable description
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: invalid %s %v: %s", ErrConfiguration, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: invalid %s: %s", ErrConfiguration, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) hold for every ConfigurationError.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Configuration creates a ConfigurationError.
func Configuration(field string, value any, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}

// UnderflowError reports the leaf whose source came back empty on restart.
type UnderflowError struct {
	Leaf string
}

func (e *UnderflowError) Error() string {
	if e.Leaf == "" {
		return fmt.Sprintf("%s: source is empty", ErrSourceUnderflow)
	}
	return fmt.Sprintf("%s: leaf %s is empty", ErrSourceUnderflow, e.Leaf)
}

func (e *UnderflowError) Unwrap() error {
	return ErrSourceUnderflow
}

// IsConfiguration checks if an error is a configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsUnderflow checks if an error is a source underflow error.
func IsUnderflow(err error) bool {
	return errors.Is(err, ErrSourceUnderflow)
}

// IsExhausted checks if err is the normal end-of-pass signal.
func IsExhausted(err error) bool {
	return errors.Is(err, core.ErrEndOfStream)
}
