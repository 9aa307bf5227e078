package health

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func BenchmarkScheduler_SnapshotCached(b *testing.B) {
	s := NewScheduler(NewRegistry(), SchedulerConfig{Interval: time.Hour})
	defer s.Stop()
	_ = s.Register("value", func(context.Context) (any, error) { return 1, nil })
	ctx := context.Background()
	s.Snapshot(ctx)

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = s.Snapshot(ctx)
		}
	})
}

func BenchmarkScheduler_Refresh(b *testing.B) {
	s := NewScheduler(NewRegistry(), SchedulerConfig{})
	defer s.Stop()
	for _, name := range []string{"a", "b", "c", "d"} {
		_ = s.Register(name, func(context.Context) (any, error) { return name, nil })
	}
	ctx := context.Background()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = s.Refresh(ctx)
	}
}

func BenchmarkSnapshot_MarshalJSON(b *testing.B) {
	r := NewRegistry()
	for _, k := range []string{"pageHits", "pipeline", "instanceId", "memory"} {
		r.Update(k, k)
	}
	snap := r.merge(nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = json.Marshal(snap)
	}
}
