// Package tracing wires OpenTelemetry into the API server.
//
// Init installs an SDK tracer provider and the W3C trace-context propagator;
// Middleware opens one server span per request and echoes the trace ID in
// the X-Trace-Id response header so that access logs and client reports can
// be correlated.
//
//	shutdown := tracing.Init()
//	defer shutdown(context.Background())
//
//	ctx, span := tracing.Tracer().Start(ctx, "period.resolve")
//	defer span.End()
package tracing
