// Package health provides a process-wide health status registry and the
// scheduler that keeps it fresh.
//
// A Registry holds named health facts. Some are written directly by
// application code through Update; others are computed by probes registered
// with a Scheduler. Readers always get a Snapshot: an immutable, key-sorted
// view in which every value belongs to the same refresh pass.
//
// # Reserved Keys
//
// Every snapshot contains two keys:
//
//   - applicationStartedAt: when the registry was created or last reset
//   - healthTimestamp: when the last refresh completed; it never moves
//     backwards
//
// # Probes
//
// A probe is a ProbeFunc that returns the value for its key. Probes of one
// refresh run concurrently, each under its own timeout:
//
//   - success: the returned value is recorded
//   - timeout: the fallback value (default "-timeout-") is recorded and the
//     probe's context is cancelled; a late result is discarded
//   - error or panic: a short description of the failure is recorded
//   - still running from an earlier refresh: the fallback is recorded and
//     no second copy is started
//
// A failing or slow probe never affects the other probes of the refresh.
//
// # Policies
//
// PolicyLazy refreshes on read when the cached snapshot is older than the
// interval. Concurrent stale readers share one refresh.
//
// PolicyPeriodic refreshes from a background loop started with Start; reads
// are a single atomic load.
//
// # Basic Usage
//
//	sched := health.NewScheduler(health.NewRegistry(), health.SchedulerConfig{
//	    Policy:   health.PolicyPeriodic,
//	    Interval: time.Second,
//	})
//	_ = sched.Register("queueDepth", func(ctx context.Context) (any, error) {
//	    return queue.Len(ctx)
//	}, health.WithTimeout(200*time.Millisecond))
//
//	if err := sched.Start(ctx); err != nil {
//	    return err
//	}
//	defer sched.Stop()
//
//	sched.Update("version", buildVersion)
//
// # HTTP Endpoints
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, sched)
//
// GET /health serves the snapshot as JSON. Time values are written as
// ISO-8601 zoned timestamps, see FormatTimestamp.
package health
