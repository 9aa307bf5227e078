package health

import (
	"context"
	"time"
)

// Status represents the health status of a component.
type Status int

const (
	// StatusHealthy indicates the component is functioning normally.
	StatusHealthy Status = iota
	// StatusDegraded indicates the component is functioning but with issues.
	StatusDegraded
	// StatusUnhealthy indicates the component is not functioning properly.
	StatusUnhealthy
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Result is the outcome of a Checker.
type Result struct {
	Status  Status
	Message string
	Details map[string]any
	Error   error
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return Result{Status: StatusHealthy, Message: message}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{Status: StatusDegraded, Message: message}
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return Result{Status: StatusUnhealthy, Message: message, Error: err}
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// Checker reports a structured status for one component.
type Checker interface {
	// Name is the key the checker's result is stored under.
	Name() string

	// Check performs the health check.
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check performs the health check.
func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}

// CheckResponse is the value a checker probe records.
type CheckResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration string         `json:"duration,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// CheckerProbe adapts c to a ProbeFunc. An unhealthy result is recorded as
// a value, not as a probe failure, so its details stay visible.
func CheckerProbe(c Checker) ProbeFunc {
	return func(ctx context.Context) (any, error) {
		start := time.Now()
		result := c.Check(ctx)

		resp := CheckResponse{
			Status:   result.Status.String(),
			Message:  result.Message,
			Duration: time.Since(start).String(),
			Details:  result.Details,
		}
		if result.Error != nil {
			resp.Error = result.Error.Error()
		}
		return resp, nil
	}
}

// RegisterChecker registers c as a probe under c.Name().
func (s *Scheduler) RegisterChecker(c Checker, opts ...ProbeOption) error {
	return s.Register(c.Name(), CheckerProbe(c), opts...)
}
