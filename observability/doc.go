// Package observability wires OpenTelemetry tracing and metrics for the
// sleepy client.
//
// Tracing and metrics are off unless Setup is called with an enabled
// Config; until then the global no-op providers make every span and
// instrument free.
//
//	shutdown, err := observability.Setup(ctx, observability.Config{
//	    Enabled:     true,
//	    ServiceName: "sleepy",
//	    Endpoint:    "localhost:4318",
//	})
//	defer shutdown(context.Background())
//
//	ctx, span := observability.StartSpan(ctx, "sleepy.find")
//	defer span.End()
package observability
