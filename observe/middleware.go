package observe

import (
	"context"
	"time"
)

// ExecuteFunc is the signature for guarded probe executions.
type ExecuteFunc func(ctx context.Context, probe ProbeMeta) (any, error)

// Middleware wraps probe execution with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Errors: errors from the wrapped function are recorded and returned unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger}
}

// NopMiddleware returns a Middleware that records nothing.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// Logger returns the middleware's logger.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Wrap wraps an ExecuteFunc with tracing, metrics and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, probe ProbeMeta) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, probe)
		start := time.Now()

		result, err := fn(ctx, probe)

		duration := time.Since(start)
		outcome := ClassifyOutcome(err)

		m.tracer.EndSpan(span, outcome, err)
		m.metrics.RecordProbe(ctx, probe, duration, outcome)

		fields := []Field{
			{Key: "probe", Value: probe.Name},
			{Key: "outcome", Value: string(outcome)},
			{Key: "duration_ms", Value: duration.Milliseconds()},
		}
		switch outcome {
		case OutcomeOK:
			m.logger.Debug(ctx, "health probe completed", fields...)
		case OutcomeTimeout:
			fields = append(fields, Field{Key: "timeout_ms", Value: probe.Timeout.Milliseconds()})
			m.logger.Warn(ctx, "health probe timed out", fields...)
		case OutcomeSkipped:
			m.logger.Warn(ctx, "health probe still running from an earlier refresh", fields...)
		default:
			fields = append(fields, Field{Key: "error", Value: err})
			m.logger.Warn(ctx, "health probe failed", fields...)
		}

		return result, err
	}
}

// Refresh runs fn inside a refresh-cycle span and records its duration.
func (m *Middleware) Refresh(ctx context.Context, probes int, fn func(ctx context.Context)) {
	ctx, span := m.tracer.StartRefresh(ctx, probes)
	start := time.Now()

	fn(ctx)

	duration := time.Since(start)
	m.tracer.EndSpan(span, "", nil)
	m.metrics.RecordRefresh(ctx, probes, duration)
	m.logger.Debug(ctx, "health refresh completed",
		Field{Key: "probes", Value: probes},
		Field{Key: "duration_ms", Value: duration.Milliseconds()},
	)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
