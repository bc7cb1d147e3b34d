// Package observability groups the site's logging, metrics and tracing helpers.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus business metrics (revalidation, list and detail outcomes)
//   - tracing: OpenTelemetry tracing middleware and tracer access
package observability
