package health

import (
	"context"
	"runtime"
	"testing"
)

func TestNewMemoryChecker(t *testing.T) {
	checker := NewMemoryChecker(MemoryCheckerConfig{})

	if checker.config.WarningThreshold != 0.8 {
		t.Errorf("WarningThreshold = %v, want 0.8", checker.config.WarningThreshold)
	}
	if checker.config.CriticalThreshold != 0.95 {
		t.Errorf("CriticalThreshold = %v, want 0.95", checker.config.CriticalThreshold)
	}
}

func TestNewMemoryChecker_InvalidThresholds(t *testing.T) {
	checker := NewMemoryChecker(MemoryCheckerConfig{WarningThreshold: 1.5})
	if checker.config.WarningThreshold != 0.8 {
		t.Errorf("invalid warning should default to 0.8, got %v", checker.config.WarningThreshold)
	}

	checker = NewMemoryChecker(MemoryCheckerConfig{
		WarningThreshold:  0.9,
		CriticalThreshold: 0.7,
	})
	if checker.config.CriticalThreshold <= checker.config.WarningThreshold {
		t.Error("critical threshold should be adjusted above the warning threshold")
	}
}

func TestMemoryChecker_Thresholds(t *testing.T) {
	tests := []struct {
		name  string
		alloc uint64
		want  Status
	}{
		{"normal", 100, StatusHealthy},
		{"high", 850, StatusDegraded},
		{"critical", 990, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewMemoryChecker(MemoryCheckerConfig{MaxAlloc: 1000})
			checker.readMem = func(s *runtime.MemStats) { s.Alloc = tt.alloc }

			result := checker.Check(context.Background())
			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", result.Status, tt.want, result.Message)
			}
			if _, ok := result.Details["usage_percent"]; !ok {
				t.Error("Details missing usage_percent")
			}
		})
	}
}

func TestMemoryChecker_Check(t *testing.T) {
	checker := NewMemoryChecker(MemoryCheckerConfig{})

	result := checker.Check(context.Background())
	if checker.Name() != "memory" {
		t.Errorf("Name() = %v, want memory", checker.Name())
	}
	for _, key := range []string{"alloc_mb", "num_gc", "goroutines"} {
		if _, ok := result.Details[key]; !ok {
			t.Errorf("Details missing key: %s", key)
		}
	}
}

func TestMemoryChecker_CancelledContext(t *testing.T) {
	checker := NewMemoryChecker(MemoryCheckerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := checker.Check(ctx); got.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want unhealthy", got.Status)
	}
}
