package kernel

import (
	"errors"
	"fmt"
)

// Standard kernel errors. These are programming errors, never recovered
// from, only propagated up to terminate a run.
var (
	// ErrEmptyEventList is returned by EventList.Pop on an empty list.
	ErrEmptyEventList = errors.New("kernel: pop from empty event list")

	// ErrEventInPast is returned, wrapped in a ScheduleError, by
	// Timeline.Schedule (and Timeline.Run) for an event whose time is before
	// the Timeline's current time. EventList.Push itself does not check.
	ErrEventInPast = errors.New("kernel: cannot schedule event in the past")

	// ErrAlreadyRunning is returned by Timeline.Run if called re-entrantly or
	// on a timeline that is already running.
	ErrAlreadyRunning = errors.New("kernel: timeline is already running")

	// ErrDuplicateEntityName is returned by Timeline.Register when an entity
	// name collides with one already registered.
	ErrDuplicateEntityName = errors.New("kernel: duplicate entity name")
)

// ScheduleError wraps a scheduling failure with the offending event's owner,
// following the pattern (used by eventloop's TypeError/RangeError/
// TimeoutError) of an error struct with a Cause and an Unwrap method so
// errors.Is/errors.As keep working through the wrapper.
type ScheduleError struct {
	Entity string
	Cause  error
}

func (e *ScheduleError) Error() string {
	return fmt.Sprintf("kernel: schedule failed for entity %q: %v", e.Entity, e.Cause)
}

func (e *ScheduleError) Unwrap() error {
	return e.Cause
}
