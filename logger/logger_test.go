package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func newJSONLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: level, Format: FormatJSON}, "sleepy", &buf)
	return l, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, line)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevelFallsBackToInfo(t *testing.T) {
	l, buf := newJSONLogger("invalid-level")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("debug should be filtered at info level, got %q", buf.String())
	}
	l.Info("shown")
	if buf.Len() == 0 {
		t.Error("expected info line")
	}
}

func TestFieldsAndComponent(t *testing.T) {
	l, buf := newJSONLogger("debug")
	l.WithComponent("client").Debug("request sent", Fields(FieldOperation, "_find", FieldDB, "test"))

	m := decodeLine(t, buf)
	if m[FieldComponent] != "client" {
		t.Errorf("expected component=client, got %v", m[FieldComponent])
	}
	if m[FieldOperation] != "_find" {
		t.Errorf("expected operation=_find, got %v", m[FieldOperation])
	}
	if m["service"] != "sleepy" {
		t.Errorf("expected service=sleepy, got %v", m["service"])
	}
	if m["message"] != "request sent" {
		t.Errorf("unexpected message %v", m["message"])
	}
}

func TestWithError(t *testing.T) {
	l, buf := newJSONLogger("info")
	l.WithError(errors.New("boom")).Warn("failed")
	m := decodeLine(t, buf)
	if m["error"] != "boom" {
		t.Errorf("expected error=boom, got %v", m["error"])
	}
}

func TestWithContext_NoSpan(t *testing.T) {
	l, _ := newJSONLogger("info")
	if got := l.WithContext(context.Background()); got != l {
		t.Error("expected the same logger when no span is active")
	}
}

func TestWithContext_Span(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	l, buf := newJSONLogger("info")
	l.WithContext(ctx).Info("traced")
	m := decodeLine(t, buf)
	if m[FieldTraceID] != span.SpanContext().TraceID().String() {
		t.Errorf("expected trace id %s, got %v", span.SpanContext().TraceID(), m[FieldTraceID])
	}
	if _, ok := m[FieldSpanID]; !ok {
		t.Error("expected span_id field")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected stderr default output, got %q", cfg.Output)
	}
	bad := Config{Level: "loud", Format: FormatJSON}
	if err := bad.Validate(); err == nil {
		t.Error("expected invalid level to fail")
	}
	bad = Config{Level: "info", Format: "xml"}
	if err := bad.Validate(); err == nil {
		t.Error("expected invalid format to fail")
	}
}

func TestFieldsOddArgs(t *testing.T) {
	m := Fields("a", 1, "b")
	if len(m) != 1 || m["a"] != 1 {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestNop(t *testing.T) {
	Nop().Error("nothing happens")
}
