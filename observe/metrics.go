package observe

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/healthstatus/resilience"
)

// Outcome classifies how a probe execution ended.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeTimeout  Outcome = "timeout"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"  // previous execution still running
	OutcomeRejected Outcome = "rejected" // circuit breaker open
)

// ClassifyOutcome maps a probe execution error onto an Outcome.
func ClassifyOutcome(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, resilience.ErrTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return OutcomeTimeout
	case errors.Is(err, resilience.ErrBulkheadFull):
		return OutcomeSkipped
	case errors.Is(err, resilience.ErrCircuitOpen):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}

// Metrics records probe and refresh metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordProbe records one probe execution.
	RecordProbe(ctx context.Context, meta ProbeMeta, duration time.Duration, outcome Outcome)

	// RecordRefresh records one completed refresh cycle.
	RecordRefresh(ctx context.Context, probes int, duration time.Duration)
}

type metricsImpl struct {
	probeCount    metric.Int64Counter
	probeDuration metric.Float64Histogram
	refreshCount  metric.Int64Counter
	refreshDur    metric.Float64Histogram
}

// NewMetrics creates Metrics backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	if meter == nil {
		return noopMetrics{}, nil
	}

	probeCount, err := meter.Int64Counter(
		"health.probe.total",
		metric.WithDescription("Total number of health probe executions by outcome"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	probeDuration, err := meter.Float64Histogram(
		"health.probe.duration_ms",
		metric.WithDescription("Health probe execution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	refreshCount, err := meter.Int64Counter(
		"health.refresh.total",
		metric.WithDescription("Total number of completed refresh cycles"),
		metric.WithUnit("{cycle}"),
	)
	if err != nil {
		return nil, err
	}

	refreshDur, err := meter.Float64Histogram(
		"health.refresh.duration_ms",
		metric.WithDescription("Refresh cycle duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		probeCount:    probeCount,
		probeDuration: probeDuration,
		refreshCount:  refreshCount,
		refreshDur:    refreshDur,
	}, nil
}

func (m *metricsImpl) RecordProbe(ctx context.Context, meta ProbeMeta, duration time.Duration, outcome Outcome) {
	opt := metric.WithAttributes(
		attribute.String("probe.name", meta.Name),
		attribute.String("probe.outcome", string(outcome)),
	)

	m.probeCount.Add(ctx, 1, opt)
	m.probeDuration.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

func (m *metricsImpl) RecordRefresh(ctx context.Context, probes int, duration time.Duration) {
	opt := metric.WithAttributes(attribute.Int("refresh.probes", probes))

	m.refreshCount.Add(ctx, 1, opt)
	m.refreshDur.Record(ctx, float64(duration.Microseconds())/1000, opt)
}

type noopMetrics struct{}

func (noopMetrics) RecordProbe(context.Context, ProbeMeta, time.Duration, Outcome) {}
func (noopMetrics) RecordRefresh(context.Context, int, time.Duration)              {}
