package httpclient

// Form is an already-encoded application/x-www-form-urlencoded body.
// The adapter sends it byte for byte.
type Form string

// Request describes an outbound gateway request.
type Request struct {
	// Method is the HTTP method.
	Method string
	// Path is appended to BaseURL. A full URL is used as-is.
	Path string
	// RawQuery is an already-encoded query string, without the leading '?'.
	RawQuery string
	// Headers override the configured defaults.
	Headers map[string]string
	// Body accepts Form, []byte, string, io.Reader, or any value that will
	// be JSON-encoded.
	Body any
	// Auth overrides the configured auth for this request.
	Auth *AuthConfig
}

// Response is the result of an HTTP request.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
	// RequestID is the X-Request-ID sent with the request.
	RequestID string
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}
