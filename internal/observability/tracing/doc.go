// Package tracing provides OpenTelemetry tracing integration.
//
// The HTTP Middleware opens a server span per request and the Notion client
// opens a client span per API call, so a slow page render can be attributed
// to the upstream call that caused it. No exporter is configured by default;
// spans go to whatever global TracerProvider the process installs.
//
// Example usage:
//
//	handler := tracing.Middleware(mux)
//
//	func loadEntries(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "load-entries")
//	    defer span.End()
//	}
package tracing
