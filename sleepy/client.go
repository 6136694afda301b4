package sleepy

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/sleepy/errors"
	"github.com/kbukum/sleepy/httpclient"
	"github.com/kbukum/sleepy/logger"
	"github.com/kbukum/sleepy/observability"
	"github.com/kbukum/sleepy/validation"
)

const (
	// DefaultGatewayURL is where Sleepy.Mongoose listens out of the box.
	DefaultGatewayURL = "http://localhost:27080"
	// DefaultHost and DefaultPort make up DefaultServer.
	DefaultHost = "localhost"
	DefaultPort = 27017
)

// DefaultServer is the database address used when none is configured.
var DefaultServer = fmt.Sprintf("%s:%d", DefaultHost, DefaultPort)

const meterName = "github.com/kbukum/sleepy"

// Config configures a Client.
type Config struct {
	// Gateway configures the HTTP transport. BaseURL defaults to DefaultGatewayURL.
	Gateway httpclient.Config `yaml:"gateway" mapstructure:"gateway"`
	// Server is the database host:port sent on connect. Defaults to DefaultServer.
	Server string `yaml:"server" mapstructure:"server" validate:"required,hostname_port"`
	// ConnectionName names the connection made by Component.Start.
	ConnectionName string `yaml:"connection_name" mapstructure:"connection_name"`
	// AutoConnect makes Component.Start issue a connect.
	AutoConnect bool `yaml:"auto_connect" mapstructure:"auto_connect"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Gateway.BaseURL == "" {
		c.Gateway.BaseURL = DefaultGatewayURL
	}
	if c.Server == "" {
		c.Server = DefaultServer
	}
	c.Gateway.ApplyDefaults()
}

// Client issues operations against one gateway for one database server.
// It is safe for concurrent use.
type Client struct {
	transport *httpclient.Adapter
	server    string
	log       *logger.Logger
	metrics   *observability.ClientMetrics
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	log        *logger.Logger
	metrics    *observability.ClientMetrics
	httpOpts   []httpclient.Option
	hasMetrics bool
}

// WithLogger sets the client and transport logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records operations on m instead of the global meter.
// A nil m disables metrics.
func WithMetrics(m *observability.ClientMetrics) Option {
	return func(o *options) {
		o.metrics = m
		o.hasMetrics = true
	}
}

// WithHTTPOptions passes options through to the transport.
func WithHTTPOptions(opts ...httpclient.Option) Option {
	return func(o *options) { o.httpOpts = append(o.httpOpts, opts...) }
}

// New creates a client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := validation.Validate(&cfg); err != nil {
		return nil, err
	}

	o := options{log: logger.WithComponent("sleepy")}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasMetrics {
		m, err := observability.NewClientMetrics(observability.Meter(meterName))
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}

	httpOpts := append([]httpclient.Option{httpclient.WithLogger(o.log)}, o.httpOpts...)
	transport, err := httpclient.New(cfg.Gateway, httpOpts...)
	if err != nil {
		return nil, errors.InvalidConfig(err.Error()).WithCause(err)
	}

	return &Client{
		transport: transport,
		server:    cfg.Server,
		log:       o.log,
		metrics:   o.metrics,
	}, nil
}

// Server returns the database address this client connects to.
func (c *Client) Server() string { return c.server }

// Gateway returns the gateway base URL.
func (c *Client) Gateway() string { return c.transport.BaseURL() }

// WithServer returns a client for another database server sharing the
// same transport.
func (c *Client) WithServer(addr string) *Client {
	if addr == "" {
		addr = DefaultServer
	}
	clone := *c
	clone.server = addr
	return &clone
}

// Close releases idle connections.
func (c *Client) Close(ctx context.Context) error {
	return c.transport.Close(ctx)
}

// Connect asks the gateway to connect to the client's server.
// name is sent only when non-empty.
func (c *Client) Connect(ctx context.Context, name string) (*Status, error) {
	var res Status
	decoded, err := c.call(ctx, http.MethodPost, "", "", "_connect", c.ConnectParams(name), &res)
	return pick(&res, decoded, err)
}

// ConnectParams returns the _connect arguments for name.
func (c *Client) ConnectParams(name string) *Params {
	p := NewParams("server", c.server)
	if name != "" {
		p.Set("name", name)
	}
	return p
}

// Hello checks that the gateway is up.
func (c *Client) Hello(ctx context.Context) (*Status, error) {
	var res Status
	decoded, err := c.call(ctx, http.MethodGet, "", "", "_hello", nil, &res)
	return pick(&res, decoded, err)
}

// Find queries a collection. opts may be nil.
func (c *Client) Find(ctx context.Context, db, coll string, opts *FindOptions) (*CursorResult, error) {
	var res CursorResult
	decoded, err := c.call(ctx, http.MethodGet, db, coll, "_find", opts.Params(), &res)
	return pick(&res, decoded, err)
}

// More fetches the next batch of a cursor.
func (c *Client) More(ctx context.Context, db, coll string, opts MoreOptions) (*CursorResult, error) {
	var res CursorResult
	decoded, err := c.call(ctx, http.MethodGet, db, coll, "_more", opts.Params(), &res)
	return pick(&res, decoded, err)
}

// Remove deletes documents. opts may be nil.
func (c *Client) Remove(ctx context.Context, db, coll string, opts *RemoveOptions) (*Status, error) {
	var res Status
	decoded, err := c.call(ctx, http.MethodPost, db, coll, "_remove", opts.Params(), &res)
	return pick(&res, decoded, err)
}

// Update modifies documents matching opts.Criteria.
func (c *Client) Update(ctx context.Context, db, coll string, opts UpdateOptions) (*Status, error) {
	var res Status
	decoded, err := c.call(ctx, http.MethodPost, db, coll, "_update", opts.Params(), &res)
	return pick(&res, decoded, err)
}

// Insert adds documents.
func (c *Client) Insert(ctx context.Context, db, coll string, opts InsertOptions) (*Status, error) {
	var res Status
	decoded, err := c.call(ctx, http.MethodPost, db, coll, "_insert", opts.Params(), &res)
	return pick(&res, decoded, err)
}

// Command runs a database command. An empty db targets /_cmd.
func (c *Client) Command(ctx context.Context, db string, obj any) (*CommandResult, error) {
	var res CommandResult
	decoded, err := c.call(ctx, http.MethodPost, db, "", "_cmd", NewParams("obj", obj), &res)
	return pick(&res, decoded, err)
}

// Call sends any gateway operation and decodes the JSON reply into out.
// GET requests carry params in the query string; other methods send them
// as a form body. out may be nil.
func (c *Client) Call(ctx context.Context, method, db, coll, op string, params *Params, out any) error {
	_, err := c.call(ctx, method, db, coll, op, params, out)
	return err
}

// call returns whether out was filled from a JSON reply, which can be true
// alongside a transport error for non-2xx replies.
func (c *Client) call(ctx context.Context, method, db, coll, op string, params *Params, out any) (bool, error) {
	encoded, err := params.Encode()
	if err != nil {
		return false, err
	}

	path := buildPath(db, coll, op)
	ctx, span := observability.StartSpan(ctx, "sleepy."+strings.TrimPrefix(op, "_"), trace.WithAttributes(
		attribute.String(observability.AttrDBName, db),
		attribute.String(observability.AttrDBCollection, coll),
		attribute.String(observability.AttrDBOperation, op),
		attribute.String(observability.AttrServer, c.server),
	))
	defer span.End()

	req := httpclient.Request{Method: method, Path: path}
	if method == http.MethodGet {
		req.RawQuery = encoded
	} else {
		req.Body = httpclient.Form(encoded)
	}

	start := time.Now()
	c.metrics.RecordStart(ctx)
	resp, err := c.transport.Do(ctx, req)

	decoded := false
	if resp != nil && out != nil {
		if decErr := json.Unmarshal(resp.Body, out); decErr == nil {
			decoded = true
		} else if err == nil {
			err = errors.DecodeFailed(op, decErr).WithDetail("body", truncate(resp.Body, 256))
		}
	}

	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case decoded && !replyOK(out):
		status = "not_ok"
	}
	elapsed := time.Since(start)
	c.metrics.RecordEnd(ctx, op, status, elapsed)
	span.SetAttributes(attribute.String(observability.AttrStatus, status))

	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldOperation, op,
		logger.FieldDB, db,
		logger.FieldCollection, coll,
		logger.FieldMethod, method,
	), elapsed)
	if resp != nil {
		fields[logger.FieldRequestID] = resp.RequestID
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		fields[logger.FieldError] = err.Error()
		c.log.WithContext(ctx).Warn("operation failed", fields)
		if errors.IsAppError(err) {
			return decoded, err
		}
		return decoded, fmt.Errorf("sleepy: %s %s: %w", method, path, err)
	}

	c.log.WithContext(ctx).Debug("operation completed", fields)
	return decoded, nil
}

// buildPath joins escaped db and collection segments with op.
func buildPath(db, coll, op string) string {
	var b strings.Builder
	if db != "" {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(db))
	}
	if coll != "" {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(coll))
	}
	b.WriteByte('/')
	b.WriteString(op)
	return b.String()
}

type okReporter interface{ IsOK() bool }

func replyOK(out any) bool {
	r, ok := out.(okReporter)
	return !ok || r.IsOK()
}

func pick[T any](v *T, decoded bool, err error) (*T, error) {
	if !decoded {
		return nil, err
	}
	return v, err
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
