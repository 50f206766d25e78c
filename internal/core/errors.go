// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data errors. ErrDataLoad is fatal and raised before any computation.
	ErrDataLoad          = &Error{Code: "DATA_LOAD_FAILED", Message: "panel could not be loaded"}
	ErrBenchmarkNotFound = &Error{Code: "BENCHMARK_NOT_FOUND", Message: "benchmark column missing from prices"}

	// Config errors. ErrConfigInvalid is fatal and raised before signal generation.
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Per-date anomalies. Never returned from a run; reported as warnings.
	ErrEmptyUniverse = &Error{Code: "EMPTY_UNIVERSE", Message: "rebalance date produced no usable basket"}

	// API errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid api key"}
	ErrNotFound     = &Error{Code: "NOT_FOUND", Message: "resource not found"}
)

// IsDataLoadError reports whether err is a fatal data error.
func IsDataLoadError(err error) bool {
	return errors.Is(err, ErrDataLoad) || errors.Is(err, ErrBenchmarkNotFound)
}
