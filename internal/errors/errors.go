// Package errors provides unified error handling with structured error codes.
package errors

import "fmt"

// ErrorCode identifies a failure class. The taxonomy drives propagation:
// configuration errors are fatal at startup, transient transport errors are
// retried then degraded, interaction races are logged and ignored.
type ErrorCode string

const (
	CodeUnknown  ErrorCode = "unknown"
	CodeInternal ErrorCode = "internal"

	// Configuration: fatal before any session exists.
	CodeConfigMissing ErrorCode = "config_missing"
	CodeConfigInvalid ErrorCode = "config_invalid"

	// Transient transport: bounded retry, then degrade-to-stop.
	CodeUnavailable    ErrorCode = "unavailable"
	CodeTimeout        ErrorCode = "timeout"
	CodeRateLimited    ErrorCode = "rate_limited"
	CodeDecisionFailed ErrorCode = "decision_failed"
	CodeStreamFailed   ErrorCode = "stream_failed"

	// Capture component.
	CodeCaptureFailed ErrorCode = "capture_failed"
	CodeStopBlocked   ErrorCode = "stop_blocked"

	// Interaction races: detected, logged, never surfaced.
	CodeDuplicateIntent ErrorCode = "duplicate_intent"
	CodeStaleCompletion ErrorCode = "stale_completion"
	CodeShortTurn       ErrorCode = "short_turn"

	// Persistence.
	CodeStoreFailed ErrorCode = "store_failed"
)

// AppError is the base error type with structured error code and metadata.
type AppError struct {
	Code     ErrorCode
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// IsRetryable returns true if the error is potentially retryable.
func IsRetryable(err error) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	switch appErr.Code {
	case CodeUnavailable, CodeTimeout, CodeRateLimited:
		return true
	default:
		return false
	}
}

// IsFatal returns true if the error must halt startup rather than degrade.
func IsFatal(err error) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	switch appErr.Code {
	case CodeConfigMissing, CodeConfigInvalid:
		return true
	default:
		return false
	}
}
