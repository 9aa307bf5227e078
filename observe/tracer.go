package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ProbeMeta describes a health probe for telemetry purposes.
type ProbeMeta struct {
	Name    string        // Health key the probe writes (required)
	Timeout time.Duration // Configured execution budget
}

// SpanName returns the deterministic span name for this probe.
// Format: health.probe.<name>
func (m ProbeMeta) SpanName() string {
	return "health.probe." + m.Name
}

// RefreshSpanName is the span name used for one refresh cycle.
const RefreshSpanName = "health.refresh"

// Tracer wraps OpenTelemetry tracing with probe-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for one probe execution.
	StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span)

	// StartRefresh starts the span covering a whole refresh cycle.
	StartRefresh(ctx context.Context, probes int) (context.Context, trace.Span)

	// EndSpan ends the span, recording the outcome and any error.
	EndSpan(span trace.Span, outcome Outcome, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	if t == nil {
		return newNoopTracer()
	}
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("probe.name", meta.Name),
	}
	if meta.Timeout > 0 {
		attrs = append(attrs, attribute.Int64("probe.timeout_ms", meta.Timeout.Milliseconds()))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) StartRefresh(ctx context.Context, probes int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, RefreshSpanName,
		trace.WithAttributes(attribute.Int("refresh.probes", probes)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, outcome Outcome, err error) {
	if outcome != "" {
		span.SetAttributes(attribute.String("probe.outcome", string(outcome)))
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{noop: tracenoop.NewTracerProvider().Tracer("noop")}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) StartRefresh(ctx context.Context, probes int) (context.Context, trace.Span) {
	return t.noop.Start(ctx, RefreshSpanName)
}

func (t *noopTracer) EndSpan(span trace.Span, outcome Outcome, err error) {
	span.End()
}
