package health

import "errors"

var (
	// ErrInvalidProbeName indicates an empty or reserved probe name.
	ErrInvalidProbeName = errors.New("health: invalid probe name")

	// ErrNilProbe indicates a nil probe function.
	ErrNilProbe = errors.New("health: probe func is nil")

	// ErrSchedulerStarted indicates Start was called twice.
	ErrSchedulerStarted = errors.New("health: scheduler already started")

	// ErrSchedulerStopped indicates the scheduler was stopped.
	ErrSchedulerStopped = errors.New("health: scheduler stopped")

	// ErrUnknownPolicy indicates an unrecognised staleness policy name.
	ErrUnknownPolicy = errors.New("health: unknown policy")

	// ErrCheckFailed indicates a checker reported an unhealthy status.
	ErrCheckFailed = errors.New("health: check failed")
)
