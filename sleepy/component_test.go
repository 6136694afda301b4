package sleepy

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/kbukum/sleepy/component"
	"github.com/kbukum/sleepy/errors"
	"github.com/kbukum/sleepy/httpclient"
	"github.com/kbukum/sleepy/logger"
	"github.com/kbukum/sleepy/sleepy/sleepytest"
)

func newTestComponent(url string, autoConnect bool) *Component {
	return NewComponent(Config{
		Gateway:        httpclient.Config{BaseURL: url},
		AutoConnect:    autoConnect,
		ConnectionName: "app",
	}, WithLogger(logger.Nop()), WithMetrics(nil))
}

func TestComponentAutoConnect(t *testing.T) {
	srv := sleepytest.NewServer(t)
	c := newTestComponent(srv.URL, true)

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() { _ = c.Stop(context.Background()) }()

	conns := srv.Connections()
	if len(conns) != 1 || conns[0].Server != "localhost:27017" || conns[0].Name != "app" {
		t.Errorf("unexpected connections %+v", conns)
	}
	if c.Client() == nil {
		t.Error("expected a client after Start")
	}
}

func TestComponentNoAutoConnect(t *testing.T) {
	srv := sleepytest.NewServer(t)
	c := newTestComponent(srv.URL, false)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if n := len(srv.Requests()); n != 0 {
		t.Errorf("expected no requests without AutoConnect, got %d", n)
	}
}

func TestComponentConnectFailure(t *testing.T) {
	srv := sleepytest.NewServer(t)
	srv.Fail("_connect", http.StatusOK, "couldn't connect")
	c := newTestComponent(srv.URL, true)

	err := c.Start(context.Background())
	if !errors.HasCode(err, errors.ErrCodeConnectionFailed) {
		t.Fatalf("expected CONNECTION_FAILED, got %v", err)
	}
	if c.Client() != nil {
		t.Error("client should not be kept after a failed start")
	}
}

func TestComponentHealth(t *testing.T) {
	srv := sleepytest.NewServer(t)
	c := newTestComponent(srv.URL, false)
	ctx := context.Background()

	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}

	_ = c.Start(ctx)
	if h := c.Health(ctx); h.Status != component.StatusHealthy || h.Message != sleepytest.HelloMessage {
		t.Errorf("expected healthy, got %+v", h)
	}

	srv.Fail("_hello", http.StatusOK, "maintenance")
	if h := c.Health(ctx); h.Status != component.StatusDegraded || !strings.Contains(h.Message, "maintenance") {
		t.Errorf("expected degraded, got %+v", h)
	}

	srv.Fail("_hello", http.StatusServiceUnavailable, "down")
	if h := c.Health(ctx); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy, got %+v", h)
	}

	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if c.Client() != nil {
		t.Error("expected no client after Stop")
	}
}

func TestComponentInRegistry(t *testing.T) {
	srv := sleepytest.NewServer(t)
	r := component.NewRegistry()
	if err := r.Register(newTestComponent(srv.URL, true)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	ctx := context.Background()
	if err := r.StartAll(ctx); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if got := component.Overall(r.HealthAll(ctx)); got != component.StatusHealthy {
		t.Errorf("expected healthy registry, got %s", got)
	}
	descs := r.Describe()
	if len(descs) != 1 || descs[0].Type != "gateway" || !strings.Contains(descs[0].Details, srv.URL) {
		t.Errorf("unexpected descriptions %+v", descs)
	}
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
}
