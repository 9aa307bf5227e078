package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation.
	// Default: 1 second
	Timeout time.Duration
}

// Timeout wraps operations with a timeout.
//
// The operation runs in its own goroutine on a context that is cancelled when
// the timeout elapses. A result produced after that point is sent to a
// buffered channel nobody reads and is dropped with it.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = time.Second
	}

	return &Timeout{config: config}
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

type outcome[T any] struct {
	value T
	err   error
}

// Call runs op under t and returns its value. On timeout it returns the zero
// value and ErrTimeout; a panic inside op is returned as a *PanicError.
func Call[T any](ctx context.Context, t *Timeout, op func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan outcome[T], 1)

	go func() {
		var out outcome[T]
		defer func() {
			if r := recover(); r != nil {
				out = outcome[T]{err: &PanicError{Value: r}}
			}
			done <- out
		}()
		out.value, out.err = op(ctx)
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}
