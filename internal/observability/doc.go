// Package observability groups the structured logging, Prometheus metrics
// and OpenTelemetry tracing used by the API server and the ingestion worker.
//
// Subpackages:
//   - logging: slog logger construction and context propagation
//   - metrics: Prometheus collectors and recorders
//   - tracing: OpenTelemetry tracer setup and HTTP middleware
package observability
