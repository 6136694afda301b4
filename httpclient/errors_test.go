package httpclient

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCode_String(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrCodeTimeout, "timeout"},
		{ErrCodeConnection, "connection"},
		{ErrCodeAuth, "auth"},
		{ErrCodeNotFound, "not_found"},
		{ErrCodeRateLimit, "rate_limit"},
		{ErrCodeValidation, "validation"},
		{ErrCodeServer, "server"},
		{ErrCodeRejected, "rejected"},
		{ErrorCode(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("ErrorCode(%d).String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestError_Error(t *testing.T) {
	e := ClassifyStatusCode(404, nil)
	want := "httpclient: not_found (HTTP 404): HTTP 404 Not Found"
	if got := e.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	e2 := &Error{Code: ErrCodeConnection, Message: "connection refused"}
	want2 := "httpclient: connection: connection refused"
	if got := e2.Error(); got != want2 {
		t.Errorf("got %q, want %q", got, want2)
	}
}

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		status    int
		code      ErrorCode
		retryable bool
	}{
		{401, ErrCodeAuth, false},
		{403, ErrCodeAuth, false},
		{404, ErrCodeNotFound, false},
		{429, ErrCodeRateLimit, true},
		{400, ErrCodeValidation, false},
		{500, ErrCodeServer, true},
		{503, ErrCodeServer, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("HTTP_%d", tt.status), func(t *testing.T) {
			e := ClassifyStatusCode(tt.status, []byte("body"))
			if e == nil {
				t.Fatal("expected error")
			}
			if e.Code != tt.code {
				t.Errorf("code = %s, want %s", e.Code, tt.code)
			}
			if e.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", e.Retryable, tt.retryable)
			}
			if string(e.Body) != "body" {
				t.Errorf("body not preserved: %q", e.Body)
			}
		})
	}
	if ClassifyStatusCode(200, nil) != nil {
		t.Error("expected nil for 200")
	}
}

func TestErrorPredicates(t *testing.T) {
	inner := errors.New("dial tcp: connection refused")
	wrapped := fmt.Errorf("find: %w", NewConnectionError(inner))

	if !IsConnection(wrapped) {
		t.Error("expected IsConnection through wrapping")
	}
	if !errors.Is(wrapped, inner) {
		t.Error("expected cause to be reachable")
	}
	if !IsRetryable(wrapped) {
		t.Error("connection errors are retryable")
	}
	if IsTimeout(wrapped) || IsAuth(wrapped) || IsNotFound(wrapped) || IsServerError(wrapped) {
		t.Error("unexpected predicate match")
	}
	if !IsRejected(NewRejectedError(errors.New("full"))) {
		t.Error("expected IsRejected")
	}
	if !IsTimeout(NewTimeoutError(errors.New("deadline"))) {
		t.Error("expected IsTimeout")
	}
	if IsRetryable(NewValidationError("bad")) {
		t.Error("validation errors are not retryable")
	}
}
