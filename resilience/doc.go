// Package resilience provides the execution guards used to run health probes.
//
// Probes are user code: they may be slow, hang, fail or panic. The patterns
// here keep that contained.
//
//   - Timeout: runs an operation on its own goroutine with a deadline and
//     returns ErrTimeout when it elapses. Call is the value-returning form.
//     Panics are recovered and returned as *PanicError.
//
//   - Bulkhead: limits concurrent executions. With MaxConcurrent 1 it
//     guarantees that an operation abandoned after a timeout is never
//     started a second time while the first copy is still running.
//
//   - Circuit Breaker: stops calling an operation after repeated failures
//     and lets a single trial through once ResetTimeout has passed.
//
// # Usage
//
//	inflight := resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: 1})
//	timeout := resilience.NewTimeout(resilience.TimeoutConfig{Timeout: time.Second})
//
//	if err := inflight.Acquire(ctx); err != nil {
//	    return err // still running from last time
//	}
//	v, err := resilience.Call(ctx, timeout, func(ctx context.Context) (int, error) {
//	    defer inflight.Release()
//	    return queueDepth(ctx)
//	})
package resilience
