package resilience

import (
	"context"
	"sync/atomic"
)

// BulkheadConfig configures the bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the maximum number of operations holding a slot.
	// Default: 1
	MaxConcurrent int
}

// Bulkhead caps how many copies of an operation may run at once. It never
// waits: a caller that finds every slot taken is refused.
//
// Slots are released by the operation itself, not by its caller, so an
// operation abandoned after a timeout keeps holding its slot until it really
// returns.
type Bulkhead struct {
	max   int64
	slots chan struct{}

	active    atomic.Int64
	maxActive atomic.Int64
	rejected  atomic.Int64
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 1
	}
	return &Bulkhead{
		max:   int64(config.MaxConcurrent),
		slots: make(chan struct{}, config.MaxConcurrent),
	}
}

// Acquire takes a slot. It returns ctx.Err() if ctx is already done and
// ErrBulkheadFull if every slot is held.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case b.slots <- struct{}{}:
	default:
		b.rejected.Add(1)
		return ErrBulkheadFull
	}

	n := b.active.Add(1)
	for {
		peak := b.maxActive.Load()
		if n <= peak || b.maxActive.CompareAndSwap(peak, n) {
			break
		}
	}
	return nil
}

// Release returns a slot taken by Acquire. Releasing an idle bulkhead is a
// no-op.
func (b *Bulkhead) Release() {
	select {
	case <-b.slots:
		b.active.Add(-1)
	default:
	}
}

// Metrics returns current bulkhead metrics.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	active := b.active.Load()
	return BulkheadMetrics{
		Active:        active,
		MaxActive:     b.maxActive.Load(),
		Available:     b.max - active,
		MaxConcurrent: b.max,
		Rejected:      b.rejected.Load(),
	}
}

// BulkheadMetrics contains bulkhead statistics.
type BulkheadMetrics struct {
	Active        int64
	MaxActive     int64
	Available     int64
	MaxConcurrent int64
	Rejected      int64
}
