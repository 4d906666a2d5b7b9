// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrConfigInvalid   = errors.New("invalid configuration")
	ErrMalformedEvent  = errors.New("malformed event")
	ErrSinkUnavailable = errors.New("sink unavailable")
	ErrPipelineStopped = errors.New("pipeline stopped")
	ErrNotStarted      = errors.New("pipeline not started")
	ErrSourceExhausted = errors.New("event source exhausted")
	ErrDatabaseError   = errors.New("database error")
)

// ValidationError represents an event that failed ingress validation.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrMalformedEvent
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// SinkError represents a failure to publish a record to an output sink.
type SinkError struct {
	Sink      string
	Operation string
	Err       error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink error [%s] %s: %v", e.Sink, e.Operation, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// NewSinkError creates a new SinkError.
func NewSinkError(sink, operation string, err error) *SinkError {
	return &SinkError{
		Sink:      sink,
		Operation: operation,
		Err:       err,
	}
}

// ConfigError represents an invalid configuration value detected at startup.
type ConfigError struct {
	Key     string
	Value   interface{}
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s (%v): %s", e.Key, e.Value, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfigInvalid
}

// NewConfigError creates a new ConfigError.
func NewConfigError(key string, value interface{}, message string) *ConfigError {
	return &ConfigError{
		Key:     key,
		Value:   value,
		Message: message,
	}
}

// SourceError represents a failure while reading the event stream.
type SourceError struct {
	Source  string
	Message string
	Err     error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source error [%s]: %s: %v", e.Source, e.Message, e.Err)
	}
	return fmt.Sprintf("source error [%s]: %s", e.Source, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// NewSourceError creates a new SourceError.
func NewSourceError(source, message string, err error) *SourceError {
	return &SourceError{
		Source:  source,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
