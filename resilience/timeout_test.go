package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewTimeout(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{})

	if timeout.config.Timeout != time.Second {
		t.Errorf("Timeout = %v, want 1s", timeout.config.Timeout)
	}
}

func TestCall_Error(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: time.Second})

	testErr := errors.New("test error")
	_, err := Call(context.Background(), timeout, func(ctx context.Context) (int, error) {
		return 0, testErr
	})

	if !errors.Is(err, testErr) {
		t.Errorf("Call() error = %v, want %v", err, testErr)
	}
}

func TestCall_Timeout(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: 10 * time.Millisecond})

	start := time.Now()
	_, err := Call(context.Background(), timeout, func(ctx context.Context) (int, error) {
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Call() error = %v, want ErrTimeout", err)
	}
	if elapsed := time.Since(start); elapsed > 150*time.Millisecond {
		t.Errorf("Call() returned after %v, want close to 10ms", elapsed)
	}
}

func TestCall_ParentCancelled(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())

	_, err := Call(ctx, timeout, func(ctx context.Context) (int, error) {
		cancel()
		<-ctx.Done()
		return 0, ctx.Err()
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Call() error = %v, want context.Canceled", err)
	}
}

func TestCall_OperationSeesCancelledContext(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: 50 * time.Millisecond})

	ctxDoneCh := make(chan bool, 1)
	_, err := Call(context.Background(), timeout, func(ctx context.Context) (int, error) {
		select {
		case <-ctx.Done():
			ctxDoneCh <- true
			return 0, ctx.Err()
		case <-time.After(time.Second):
			ctxDoneCh <- false
			return 1, nil
		}
	})

	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Call() error = %v, want ErrTimeout", err)
	}

	select {
	case ctxDone := <-ctxDoneCh:
		if !ctxDone {
			t.Error("Context was not cancelled")
		}
	case <-time.After(500 * time.Millisecond):
		t.Error("Operation goroutine did not complete")
	}
}

func TestCall_ReturnsValue(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: time.Second})

	v, err := Call(context.Background(), timeout, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if v != 42 {
		t.Errorf("Call() = %d, want 42", v)
	}
}

func TestCall_TimeoutDropsLateValue(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: 10 * time.Millisecond})

	finished := make(chan struct{})
	v, err := Call(context.Background(), timeout, func(ctx context.Context) (string, error) {
		defer close(finished)
		time.Sleep(50 * time.Millisecond)
		return "late", nil
	})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Call() error = %v, want ErrTimeout", err)
	}
	if v != "" {
		t.Errorf("Call() = %q, want zero value", v)
	}

	// The abandoned goroutine must still be able to finish without blocking.
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("abandoned operation never finished")
	}
}

func TestCall_RecoversPanic(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: time.Second})

	_, err := Call(context.Background(), timeout, func(ctx context.Context) (any, error) {
		panic("operation exploded")
	})

	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("Call() error = %v, want *PanicError", err)
	}
	if pe.Value != "operation exploded" {
		t.Errorf("PanicError.Value = %v, want %q", pe.Value, "operation exploded")
	}
}

func TestTimeout_Config(t *testing.T) {
	timeout := NewTimeout(TimeoutConfig{Timeout: 5 * time.Second})

	if timeout.Config().Timeout != 5*time.Second {
		t.Errorf("Config().Timeout = %v, want 5s", timeout.Config().Timeout)
	}
}
