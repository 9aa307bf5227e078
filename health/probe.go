package health

import (
	"context"
	"time"

	"github.com/jonwraymond/healthstatus/observe"
	"github.com/jonwraymond/healthstatus/resilience"
)

// Probe defaults.
const (
	// DefaultProbeTimeout bounds a probe registered without WithTimeout.
	DefaultProbeTimeout = time.Second

	// DefaultFallback is recorded for a probe that does not finish in time.
	DefaultFallback = "-timeout-"

	// FailedValue is recorded for a probe that fails without a message.
	FailedValue = "failed"
)

// ProbeFunc computes the value of one health fact. It must honour ctx
// cancellation; a probe that does not is abandoned after its timeout and is
// not started again until it returns.
type ProbeFunc func(ctx context.Context) (any, error)

// ProbeOption configures a probe at registration.
type ProbeOption func(*probeOptions)

type probeOptions struct {
	timeout     time.Duration
	fallback    any
	hasFallback bool
	breaker     *resilience.CircuitBreakerConfig
}

// WithTimeout sets how long a single run may take.
func WithTimeout(d time.Duration) ProbeOption {
	return func(o *probeOptions) {
		o.timeout = d
	}
}

// WithFallback sets the value recorded when the probe times out or is still
// running from an earlier refresh.
func WithFallback(v any) ProbeOption {
	return func(o *probeOptions) {
		o.fallback = v
		o.hasFallback = true
	}
}

// WithCircuitBreaker stops calling a probe after repeated failures until the
// breaker's reset timeout has passed.
func WithCircuitBreaker(cfg resilience.CircuitBreakerConfig) ProbeOption {
	return func(o *probeOptions) {
		o.breaker = &cfg
	}
}

// probe is a registered ProbeFunc with its guards.
type probe struct {
	name     string
	fn       ProbeFunc
	fallback any

	timeout  *resilience.Timeout
	inflight *resilience.Bulkhead
	breaker  *resilience.CircuitBreaker

	exec observe.ExecuteFunc
}

func newProbe(name string, fn ProbeFunc, defaults probeOptions, mw *observe.Middleware, opts []ProbeOption) *probe {
	o := defaults
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout <= 0 {
		o.timeout = defaults.timeout
	}

	p := &probe{
		name:     name,
		fn:       fn,
		fallback: o.fallback,
		timeout:  resilience.NewTimeout(resilience.TimeoutConfig{Timeout: o.timeout}),
		inflight: resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 1}),
	}
	if o.breaker != nil {
		p.breaker = resilience.NewCircuitBreaker(*o.breaker)
	}
	p.exec = mw.Wrap(p.execute)
	return p
}

func (p *probe) meta() observe.ProbeMeta {
	return observe.ProbeMeta{Name: p.name, Timeout: p.timeout.Config().Timeout}
}

// run executes the probe once and maps the outcome to the recorded value.
func (p *probe) run(ctx context.Context) any {
	v, err := p.exec(ctx, p.meta())
	return p.resolve(v, err)
}

// execute acquires the probe's single slot, then calls fn through the
// breaker and the timeout. The slot is released by the goroutine running fn,
// so an abandoned run keeps it until fn actually returns.
func (p *probe) execute(ctx context.Context, _ observe.ProbeMeta) (any, error) {
	if err := p.inflight.Acquire(ctx); err != nil {
		return nil, err
	}

	call := func(ctx context.Context) (any, error) {
		return resilience.Call(ctx, p.timeout, func(ctx context.Context) (any, error) {
			defer p.inflight.Release()
			return p.fn(ctx)
		})
	}
	if p.breaker == nil {
		return call(ctx)
	}

	var (
		value any
		ran   bool
	)
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		ran = true
		var err error
		value, err = call(ctx)
		return err
	})
	if !ran {
		p.inflight.Release()
	}
	return value, err
}

func (p *probe) resolve(v any, err error) any {
	switch observe.ClassifyOutcome(err) {
	case observe.OutcomeOK:
		return v
	case observe.OutcomeTimeout, observe.OutcomeSkipped:
		return p.fallback
	default:
		return failureValue(err)
	}
}

// failureValue is the short description recorded for a failed run.
func failureValue(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return FailedValue
}
