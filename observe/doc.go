// Package observe provides observability primitives for health probes.
//
// It is a pure instrumentation library: structured logging backed by zap,
// OpenTelemetry tracing and metrics for probe executions and refresh cycles,
// and exporter setup. The health scheduler consumes it through Middleware.
package observe
