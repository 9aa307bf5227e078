package health

import (
	"sync"
	"sync/atomic"
	"time"
)

// Reserved keys present in every snapshot.
const (
	// StartedAtKey holds the time the registry was created or last reset.
	StartedAtKey = "applicationStartedAt"

	// TimestampKey holds the time of the last completed refresh.
	TimestampKey = "healthTimestamp"
)

// IsReserved reports whether key is one of the registry's reserved keys.
func IsReserved(key string) bool {
	return key == StartedAtKey || key == TimestampKey
}

// Registry holds the current health facts. Writes go to a live map guarded
// by a mutex; readers get the last published Snapshot through an atomic
// pointer and never block on writers.
//
// Registry is safe for concurrent use.
type Registry struct {
	now func() time.Time

	mu        sync.RWMutex
	values    map[string]any
	startedAt time.Time
	lastStamp time.Time
	gen       uint64

	current atomic.Pointer[Snapshot]
}

// NewRegistry creates a registry holding only the reserved keys.
func NewRegistry() *Registry {
	return newRegistryWithClock(time.Now)
}

func newRegistryWithClock(now func() time.Time) *Registry {
	r := &Registry{now: now}
	r.mu.Lock()
	r.resetLocked()
	r.mu.Unlock()
	return r
}

// Update inserts or overwrites key. Empty and reserved keys are ignored;
// the reserved keys are maintained by the registry itself.
//
// The value is visible through Live immediately and through Snapshot after
// the next refresh.
func (r *Registry) Update(key string, value any) {
	if key == "" || IsReserved(key) {
		return
	}
	r.mu.Lock()
	r.values[key] = value
	r.mu.Unlock()
}

// Reset discards every entry, reinstates the reserved keys with the current
// time and publishes a two-key snapshot marked invalidated.
//
// A refresh cycle already in flight may merge its results after Reset
// returns; those values then reappear in the next snapshot.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetLocked()
}

func (r *Registry) resetLocked() {
	now := r.stampLocked()
	r.startedAt = now
	r.values = map[string]any{
		StartedAtKey: now,
		TimestampKey: now,
	}
	r.publishLocked(now, true)
}

// Snapshot returns the last published snapshot. It never computes.
func (r *Registry) Snapshot() *Snapshot {
	return r.current.Load()
}

// Live returns a snapshot of the live values as they are right now,
// including direct updates not yet published by a refresh.
func (r *Registry) Live() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return newSnapshot(r.values, r.lastStamp, r.gen, false)
}

// StartedAt returns the time of creation or of the last Reset.
func (r *Registry) StartedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.startedAt
}

// merge applies one refresh cycle's results, stamps TimestampKey and
// publishes the resulting snapshot, all under a single lock.
func (r *Registry) merge(results map[string]any) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range results {
		if k == "" || IsReserved(k) {
			continue
		}
		r.values[k] = v
	}
	stamp := r.stampLocked()
	r.values[TimestampKey] = stamp
	return r.publishLocked(stamp, false)
}

// stampLocked returns the current time, clamped so it never precedes the
// previous stamp.
func (r *Registry) stampLocked() time.Time {
	now := r.now()
	if now.Before(r.lastStamp) {
		now = r.lastStamp
	}
	r.lastStamp = now
	return now
}

func (r *Registry) publishLocked(stamp time.Time, invalidated bool) *Snapshot {
	r.gen++
	s := newSnapshot(r.values, stamp, r.gen, invalidated)
	r.current.Store(s)
	return s
}
