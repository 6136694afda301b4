package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/sleepy/logger"
)

// InitMeter initializes the OpenTelemetry meter provider and installs it globally.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.MetricInterval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// ClientMetrics holds the instruments recorded for gateway operations.
type ClientMetrics struct {
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	operationActive   metric.Int64UpDownCounter
	errorTotal        metric.Int64Counter
}

// NewClientMetrics creates metric instruments on the given meter.
func NewClientMetrics(meter metric.Meter) (*ClientMetrics, error) {
	operationTotal, err := meter.Int64Counter("sleepy.operation.total",
		metric.WithDescription("Total number of gateway operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sleepy.operation.total counter: %w", err)
	}

	operationDuration, err := meter.Float64Histogram("sleepy.operation.duration",
		metric.WithDescription("Duration of gateway operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sleepy.operation.duration histogram: %w", err)
	}

	operationActive, err := meter.Int64UpDownCounter("sleepy.operation.active",
		metric.WithDescription("Number of gateway operations in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sleepy.operation.active counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("sleepy.error.total",
		metric.WithDescription("Total transport and decode errors by operation"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sleepy.error.total counter: %w", err)
	}

	return &ClientMetrics{
		operationTotal:    operationTotal,
		operationDuration: operationDuration,
		operationActive:   operationActive,
		errorTotal:        errorTotal,
	}, nil
}

// RecordStart increments the in-flight count.
func (m *ClientMetrics) RecordStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.operationActive.Add(ctx, 1)
}

// RecordEnd decrements the in-flight count and records the finished operation.
// status is "ok", "not_ok" or "error".
func (m *ClientMetrics) RecordEnd(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationActive.Add(ctx, -1)
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrDBOperation, operation),
		attribute.String(AttrStatus, status),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrDBOperation, operation),
	))
	if status == "error" {
		m.errorTotal.Add(ctx, 1, metric.WithAttributes(
			attribute.String(AttrDBOperation, operation),
		))
	}
}
