package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/net/http2"

	"github.com/kbukum/sleepy/logger"
	"github.com/kbukum/sleepy/resilience"
)

// HeaderRequestID carries the per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

const contentTypeForm = "application/x-www-form-urlencoded"

// Adapter sends requests to a single gateway.
type Adapter struct {
	httpClient *http.Client
	config     Config
	bulkhead   *resilience.Bulkhead
	limiter    *resilience.RateLimiter
	log        *logger.Logger
}

// Option customizes an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger used for request logging.
func WithLogger(l *logger.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(a *Adapter) { a.httpClient.Transport = rt }
}

// New creates a new adapter with the given configuration.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()

	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}
	if cfg.HTTP2 {
		if err := http2.ConfigureTransport(transport); err != nil {
			return nil, fmt.Errorf("httpclient: configure http2: %w", err)
		}
	}

	a := &Adapter{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		config: cfg,
		log:    logger.WithComponent("httpclient"),
	}

	if cfg.MaxInFlight > 0 {
		a.bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "gateway",
			MaxConcurrent: cfg.MaxInFlight,
			MaxWait:       cfg.MaxInFlightWait,
			OnReject: func(name string, err error) {
				a.log.Warn("request rejected", logger.Fields("limiter", name, logger.FieldError, err.Error()))
			},
		})
	}
	if cfg.RateLimit > 0 {
		a.limiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:  "gateway",
			Rate:  cfg.RateLimit,
			Burst: cfg.RateBurst,
		})
	}

	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Do sends req and returns the complete response. A non-2xx reply returns
// both the response and a classified *Error.
func (a *Adapter) Do(ctx context.Context, req Request) (*Response, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, NewRejectedError(err)
		}
	}
	if a.bulkhead == nil {
		return a.send(ctx, req)
	}

	var resp *Response
	var sendErr error
	err := a.bulkhead.Execute(ctx, func() error {
		resp, sendErr = a.send(ctx, req)
		return nil
	})
	if err != nil {
		return nil, NewRejectedError(err)
	}
	return resp, sendErr
}

// BaseURL returns the configured gateway root.
func (a *Adapter) BaseURL() string {
	return a.config.BaseURL
}

// InFlight returns how many requests currently hold a slot. It is 0 when
// MaxInFlight is unset.
func (a *Adapter) InFlight() int {
	if a.bulkhead == nil {
		return 0
	}
	return a.bulkhead.InUse()
}

// Close releases idle connections.
func (a *Adapter) Close(_ context.Context) error {
	a.httpClient.CloseIdleConnections()
	return nil
}

func (a *Adapter) send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := a.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	requestID := httpReq.Header.Get(HeaderRequestID)
	start := time.Now()

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		var classified *Error
		if ctx.Err() != nil {
			classified = NewTimeoutError(err)
		} else {
			classified = NewConnectionError(err)
		}
		a.log.WithContext(ctx).Warn("request failed", logger.MergeWithDuration(logger.Fields(
			logger.FieldMethod, req.Method,
			logger.FieldPath, req.Path,
			logger.FieldRequestID, requestID,
			logger.FieldError, classified.Error(),
		), time.Since(start)))
		return nil, classified
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
		RequestID:  requestID,
	}

	a.log.WithContext(ctx).Debug("request completed", logger.MergeWithDuration(logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldPath, req.Path,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldRequestID, requestID,
	), time.Since(start)))

	if classErr := ClassifyStatusCode(resp.StatusCode, body); classErr != nil {
		return result, classErr
	}
	return result, nil
}

// escapeQuery percent-encodes the bytes a request-target cannot carry:
// space, control characters, '#', and non-ASCII. Everything else,
// including '&', '=' and existing escapes, is kept as given.
func escapeQuery(q string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(q); i++ {
		c := q[i]
		if c > ' ' && c < 0x7f && c != '#' {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func (a *Adapter) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := req.Path
	if a.config.BaseURL != "" && !strings.HasPrefix(req.Path, "http://") && !strings.HasPrefix(req.Path, "https://") {
		target = strings.TrimRight(a.config.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	}
	if req.RawQuery != "" {
		target += "?" + escapeQuery(req.RawQuery)
	}

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	httpReq.Header.Set("User-Agent", a.config.UserAgent)
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if httpReq.Header.Get(HeaderRequestID) == "" {
		httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	}

	auth := a.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))
	return httpReq, nil
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case Form:
		return strings.NewReader(string(v)), contentTypeForm, nil
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}
