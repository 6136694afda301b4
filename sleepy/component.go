package sleepy

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/sleepy/component"
	"github.com/kbukum/sleepy/errors"
)

// Component manages a Client's lifecycle.
type Component struct {
	cfg    Config
	opts   []Option
	mu     sync.RWMutex
	client *Client
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
)

// NewComponent creates a component that builds its client on Start.
func NewComponent(cfg Config, opts ...Option) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, opts: opts}
}

// Name implements component.Component.
func (c *Component) Name() string { return "sleepy" }

// Start builds the client and connects when AutoConnect is set.
func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.opts...)
	if err != nil {
		return err
	}
	if c.cfg.AutoConnect {
		st, err := client.Connect(ctx, c.cfg.ConnectionName)
		if err == nil {
			err = st.Err()
		}
		if err != nil {
			_ = client.Close(ctx)
			return errors.ConnectionFailed(c.cfg.Server, err)
		}
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	return nil
}

// Stop releases idle connections.
func (c *Component) Stop(ctx context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Close(ctx)
}

// Health calls hello on the gateway.
func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name()}
	client := c.Client()
	if client == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
		return h
	}
	st, err := client.Hello(ctx)
	switch {
	case err != nil:
		h.Status = component.StatusUnhealthy
		h.Message = err.Error()
	case !st.IsOK():
		h.Status = component.StatusDegraded
		h.Message = st.Err().Error()
	default:
		h.Status = component.StatusHealthy
		h.Message = st.Msg
	}
	return h
}

// Describe implements component.Describable.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Sleepy.Mongoose",
		Type:    "gateway",
		Details: fmt.Sprintf("%s server=%s", c.cfg.Gateway.BaseURL, c.cfg.Server),
	}
}

// Client returns the started client, or nil before Start.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}
