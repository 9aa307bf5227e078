package health

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/healthstatus/observe"
)

// DefaultInterval is the cache interval of the lazy policy and the refresh
// period of the periodic policy.
const DefaultInterval = time.Second

// Policy selects when refresh cycles run.
type Policy int

const (
	// PolicyLazy refreshes on read when the cached snapshot is stale.
	PolicyLazy Policy = iota

	// PolicyPeriodic refreshes from a background loop; reads never compute.
	PolicyPeriodic
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case PolicyLazy:
		return "lazy"
	case PolicyPeriodic:
		return "periodic"
	default:
		return "unknown"
	}
}

// ParsePolicy parses "lazy" or "periodic".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lazy":
		return PolicyLazy, nil
	case "periodic":
		return PolicyPeriodic, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// SchedulerConfig configures a Scheduler.
type SchedulerConfig struct {
	// Policy selects lazy or periodic refresh.
	// Default: PolicyLazy
	Policy Policy

	// Interval is the cache interval (lazy) or refresh period (periodic).
	// Default: 1 second
	Interval time.Duration

	// DefaultTimeout applies to probes registered without WithTimeout.
	// Default: 1 second
	DefaultTimeout time.Duration

	// DefaultFallback applies to probes registered without WithFallback.
	// Default: "-timeout-"
	DefaultFallback any

	// Middleware instruments probe runs and refresh cycles.
	// Default: logging only, through Logger
	Middleware *observe.Middleware

	// Logger receives scheduler events. When nil, the middleware's logger
	// is used.
	Logger observe.Logger
}

// Scheduler owns the registered probes, decides when they run and merges
// their results into a Registry.
//
// Contract:
//   - Concurrency: all methods are safe for concurrent use.
//   - Refresh cycles never overlap; concurrent triggers share one cycle.
//   - Errors: probe failures become values, never returned errors.
type Scheduler struct {
	config   SchedulerConfig
	registry *Registry
	mw       *observe.Middleware
	logger   observe.Logger

	mu     sync.RWMutex
	probes map[string]*probe

	flight singleflight.Group

	// ctx scopes refresh cycles; Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	lifecycle sync.Mutex
	started   bool
	stopped   bool
	done      chan struct{}
}

// NewScheduler creates a scheduler writing to registry. A nil registry is
// replaced by a new one.
func NewScheduler(registry *Registry, config SchedulerConfig) *Scheduler {
	if registry == nil {
		registry = NewRegistry()
	}
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = DefaultProbeTimeout
	}
	if config.DefaultFallback == nil {
		config.DefaultFallback = DefaultFallback
	}
	if config.Middleware == nil {
		config.Middleware = observe.NewMiddleware(nil, nil, config.Logger)
	}
	if config.Logger == nil {
		config.Logger = config.Middleware.Logger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config:   config,
		registry: registry,
		mw:       config.Middleware,
		logger:   config.Logger,
		probes:   make(map[string]*probe),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Registry returns the registry the scheduler writes to.
func (s *Scheduler) Registry() *Registry {
	return s.registry
}

// Policy returns the configured policy.
func (s *Scheduler) Policy() Policy {
	return s.config.Policy
}

// Register adds a probe whose result is stored under name. Registering an
// existing name replaces the earlier probe and logs a warning.
func (s *Scheduler) Register(name string, fn ProbeFunc, opts ...ProbeOption) error {
	if name == "" || IsReserved(name) {
		return fmt.Errorf("%w: %q", ErrInvalidProbeName, name)
	}
	if fn == nil {
		return ErrNilProbe
	}

	defaults := probeOptions{
		timeout:  s.config.DefaultTimeout,
		fallback: s.config.DefaultFallback,
	}
	p := newProbe(name, fn, defaults, s.mw, opts)

	s.mu.Lock()
	_, replaced := s.probes[name]
	s.probes[name] = p
	s.mu.Unlock()

	if replaced {
		s.logger.Warn(context.Background(),
			fmt.Sprintf("health probe %q was already registered and will be replaced", name),
			observe.Field{Key: "probe", Value: name},
		)
	}
	return nil
}

// Probes returns the registered probe names in sorted order.
func (s *Scheduler) Probes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.probes))
}

// Update writes a fact directly to the registry.
func (s *Scheduler) Update(key string, value any) {
	s.registry.Update(key, value)
}

// Reset returns the registry to its just-started state. Registered probes
// are kept.
func (s *Scheduler) Reset() {
	s.registry.Reset()
}

// Snapshot returns the current snapshot. Under PolicyLazy a stale snapshot
// is refreshed first; if ctx ends before the refresh does, the previous
// snapshot is returned and the refresh completes in the background.
func (s *Scheduler) Snapshot(ctx context.Context) *Snapshot {
	snap := s.registry.Snapshot()
	if s.config.Policy == PolicyPeriodic || !s.stale(snap) {
		return snap
	}
	return s.Refresh(ctx)
}

func (s *Scheduler) stale(snap *Snapshot) bool {
	if snap.Invalidated() {
		return true
	}
	return s.registry.now().Sub(snap.RefreshedAt()) > s.config.Interval
}

// Refresh runs a refresh cycle and returns the snapshot it published.
// A cycle already in flight is joined rather than duplicated. After Stop,
// Refresh returns the last snapshot without running probes.
func (s *Scheduler) Refresh(ctx context.Context) *Snapshot {
	if s.ctx.Err() != nil {
		return s.registry.Snapshot()
	}

	ch := s.flight.DoChan("refresh", func() (any, error) {
		return s.runCycle(), nil
	})

	select {
	case res := <-ch:
		return res.Val.(*Snapshot)
	case <-ctx.Done():
		return s.registry.Snapshot()
	}
}

// runCycle runs every probe concurrently, waits for each to settle and
// merges all results at once.
func (s *Scheduler) runCycle() *Snapshot {
	s.mu.RLock()
	probes := slices.Collect(maps.Values(s.probes))
	s.mu.RUnlock()

	values := make([]any, len(probes))
	s.mw.Refresh(s.ctx, len(probes), func(ctx context.Context) {
		var g errgroup.Group
		for i, p := range probes {
			g.Go(func() error {
				values[i] = p.run(ctx)
				return nil
			})
		}
		_ = g.Wait()
	})

	results := make(map[string]any, len(probes))
	for i, p := range probes {
		results[p.name] = values[i]
	}
	return s.registry.merge(results)
}

// Start starts the background refresh loop under PolicyPeriodic. The first
// cycle runs immediately. Under PolicyLazy Start only marks the scheduler
// as started.
func (s *Scheduler) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}
	if s.started {
		return ErrSchedulerStarted
	}
	s.started = true

	if s.config.Policy != PolicyPeriodic {
		return nil
	}

	s.done = make(chan struct{})
	go s.loop(ctx)

	s.logger.Info(ctx, "health scheduler started",
		observe.Field{Key: "policy", Value: s.config.Policy.String()},
		observe.Field{Key: "interval", Value: s.config.Interval.String()},
	)
	return nil
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.Refresh(ctx)
		}
	}
}

// Stop cancels in-flight probes and waits for the background loop to exit.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.lifecycle.Lock()
	if s.stopped {
		s.lifecycle.Unlock()
		return
	}
	s.stopped = true
	done := s.done
	s.lifecycle.Unlock()

	s.cancel()
	if done != nil {
		<-done
	}
	s.logger.Info(context.Background(), "health scheduler stopped")
}
