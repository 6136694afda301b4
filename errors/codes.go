package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Argument and encoding errors, raised before any request is sent.
const (
	// ErrCodeInvalidArgument indicates a caller-supplied argument is unusable,
	// such as a callback that cannot be invoked.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeEncodeFailed indicates an option value could not be serialized.
	ErrCodeEncodeFailed ErrorCode = "ENCODE_FAILED"
	// ErrCodeInvalidConfig indicates the client configuration is invalid.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

// Gateway errors
const (
	// ErrCodeNotOK indicates the gateway answered with ok = 0.
	ErrCodeNotOK ErrorCode = "NOT_OK"
	// ErrCodeDecodeFailed indicates the gateway reply was not the expected JSON.
	ErrCodeDecodeFailed ErrorCode = "DECODE_FAILED"
)

// Connection/Availability errors (retryable)
const (
	// ErrCodeConnectionFailed indicates the gateway could not be reached.
	ErrCodeConnectionFailed ErrorCode = "CONNECTION_FAILED"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeConnectionFailed: true,
	ErrCodeTimeout:          true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// The client itself never retries; the flag is advice for callers.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
