package health

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonwraymond/healthstatus/observe"
	"github.com/jonwraymond/healthstatus/resilience"
)

func testProbe(fn ProbeFunc, opts ...ProbeOption) *probe {
	defaults := probeOptions{timeout: DefaultProbeTimeout, fallback: DefaultFallback}
	return newProbe("test", fn, defaults, observe.NopMiddleware(), opts)
}

func TestNewProbe_Defaults(t *testing.T) {
	p := testProbe(func(context.Context) (any, error) { return nil, nil })

	if got := p.meta().Timeout; got != DefaultProbeTimeout {
		t.Errorf("Timeout = %v, want %v", got, DefaultProbeTimeout)
	}
	if p.fallback != DefaultFallback {
		t.Errorf("fallback = %v, want %v", p.fallback, DefaultFallback)
	}
	if p.breaker != nil {
		t.Error("breaker should be nil without WithCircuitBreaker")
	}
}

func TestNewProbe_Options(t *testing.T) {
	p := testProbe(func(context.Context) (any, error) { return nil, nil },
		WithTimeout(50*time.Millisecond),
		WithFallback(-1),
		WithCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 2}),
	)

	if got := p.meta().Timeout; got != 50*time.Millisecond {
		t.Errorf("Timeout = %v, want 50ms", got)
	}
	if p.fallback != -1 {
		t.Errorf("fallback = %v, want -1", p.fallback)
	}
	if p.breaker == nil {
		t.Error("breaker should be set")
	}
}

func TestNewProbe_NonPositiveTimeoutUsesDefault(t *testing.T) {
	p := testProbe(func(context.Context) (any, error) { return nil, nil }, WithTimeout(-time.Second))

	if got := p.meta().Timeout; got != DefaultProbeTimeout {
		t.Errorf("Timeout = %v, want %v", got, DefaultProbeTimeout)
	}
}

func TestProbe_Run(t *testing.T) {
	tests := []struct {
		name string
		fn   ProbeFunc
		want any
	}{
		{
			name: "value",
			fn:   func(context.Context) (any, error) { return 42, nil },
			want: 42,
		},
		{
			name: "error message",
			fn:   func(context.Context) (any, error) { return nil, errors.New("db down") },
			want: "db down",
		},
		{
			name: "empty error message",
			fn:   func(context.Context) (any, error) { return nil, errors.New("") },
			want: FailedValue,
		},
		{
			name: "wrapped error",
			fn: func(context.Context) (any, error) {
				return nil, fmt.Errorf("query: %w", errors.New("refused"))
			},
			want: "query: refused",
		},
		{
			name: "panic",
			fn:   func(context.Context) (any, error) { panic("boom") },
			want: "panic: boom",
		},
		{
			name: "own deadline",
			fn: func(context.Context) (any, error) {
				return nil, context.DeadlineExceeded
			},
			want: DefaultFallback,
		},
		{
			name: "timeout",
			fn: func(ctx context.Context) (any, error) {
				<-ctx.Done()
				return "late", nil
			},
			want: DefaultFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testProbe(tt.fn, WithTimeout(20*time.Millisecond))
			if got := p.run(context.Background()); got != tt.want {
				t.Errorf("run() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestProbe_ReleasesSlotAfterEachRun(t *testing.T) {
	p := testProbe(func(context.Context) (any, error) { return "ok", nil })

	for i := range 3 {
		if got := p.run(context.Background()); got != "ok" {
			t.Fatalf("run %d = %v, want ok", i, got)
		}
	}
	if m := p.inflight.Metrics(); m.Active != 0 || m.Rejected != 0 {
		t.Errorf("bulkhead metrics = %+v, want idle with no rejections", m)
	}
}

func TestProbe_CircuitOpenReleasesSlot(t *testing.T) {
	calls := 0
	p := testProbe(func(context.Context) (any, error) {
		calls++
		return nil, errors.New("down")
	}, WithCircuitBreaker(resilience.CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour}))

	p.run(context.Background())
	got := p.run(context.Background())

	if got != resilience.ErrCircuitOpen.Error() {
		t.Errorf("run() = %v, want %q", got, resilience.ErrCircuitOpen.Error())
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if m := p.inflight.Metrics(); m.Active != 0 {
		t.Errorf("Active = %d, want 0 after rejected run", m.Active)
	}
}
