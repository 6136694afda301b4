package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified client error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// InvalidArgument reports an argument that cannot be used, naming the parameter.
func InvalidArgument(param, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("%s %s", param, reason),
		Details: map[string]any{"param": param},
	}
}

// EncodeFailed reports an option value that could not be JSON-encoded.
func EncodeFailed(key string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeEncodeFailed,
		Message: fmt.Sprintf("cannot encode option %q", key),
		Details: map[string]any{"key": key},
		Cause:   cause,
	}
}

// DecodeFailed reports a gateway reply that could not be decoded.
func DecodeFailed(operation string, cause error) *AppError {
	return &AppError{
		Code:    ErrCodeDecodeFailed,
		Message: fmt.Sprintf("cannot decode %s reply", operation),
		Details: map[string]any{"operation": operation},
		Cause:   cause,
	}
}

// NotOK reports a gateway reply carrying ok = 0.
func NotOK(message string) *AppError {
	if message == "" {
		message = "gateway reported failure"
	}
	return &AppError{Code: ErrCodeNotOK, Message: message}
}

// InvalidConfig reports a configuration problem.
func InvalidConfig(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message}
}

// ConnectionFailed creates an error for a gateway that could not be reached.
func ConnectionFailed(target string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeConnectionFailed, Message: fmt.Sprintf("unable to reach %s", target),
		Retryable: true, Details: map[string]any{"target": target}, Cause: cause,
	}
}

// Timeout creates an error for an operation that ran out of time.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "the request took too long",
		Retryable: true, Details: map[string]any{"operation": operation},
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
