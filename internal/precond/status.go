package precond

import "fmt"

// State enumerates the lifecycle states of a precondition.
type State int8

const (
	// StateUnknown means the precondition has never produced a result.
	StateUnknown State = iota
	// StateRunning marks an evaluation in progress. It is engine-internal
	// and never a legal return value from a check function.
	StateRunning
	// StateSatisfied means the last evaluation succeeded.
	StateSatisfied
	// StateFailed means the last evaluation failed or was short-circuited
	// by an unsatisfied dependency.
	StateFailed
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateRunning:
		return "running"
	case StateSatisfied:
		return "satisfied"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int8(s))
	}
}

// Status is the result of a precondition evaluation. It is a plain value
// type; the zero value is the Unknown status.
type Status struct {
	state State
	data  any
	err   error
}

// Unknown returns the status of a never-evaluated precondition.
func Unknown() Status {
	return Status{state: StateUnknown}
}

// Running returns the ephemeral in-progress marker status.
func Running() Status {
	return Status{state: StateRunning}
}

// Satisfied returns a satisfied status carrying optional auxiliary data.
func Satisfied(data any) Status {
	return Status{state: StateSatisfied, data: data}
}

// Failed returns a failed status declared by a check itself, carrying
// optional auxiliary data. Callers can tell it apart from an engine-made
// failure because Err is nil.
func Failed(data any) Status {
	return Status{state: StateFailed, data: data}
}

// FailedErr returns a failed status caused by an error: a timeout, a
// recovered panic, or a contract violation.
func FailedErr(err error) Status {
	return Status{state: StateFailed, err: err}
}

// State returns the discriminant of the status.
func (s Status) State() State { return s.state }

// Data returns the auxiliary data attached by the check, if any.
func (s Status) Data() any { return s.data }

// Err returns the error that caused a failure, or nil when the check
// declared the failure itself (or the status is not failed at all).
func (s Status) Err() error { return s.err }

// IsSatisfied reports whether the status is Satisfied.
func (s Status) IsSatisfied() bool { return s.state == StateSatisfied }

// IsFailed reports whether the status is Failed.
func (s Status) IsFailed() bool { return s.state == StateFailed }

// IsUnknown reports whether the status is Unknown.
func (s Status) IsUnknown() bool { return s.state == StateUnknown }

// IsRunning reports whether the status is the in-progress marker.
func (s Status) IsRunning() bool { return s.state == StateRunning }

// IsNotSatisfied reports whether the status is anything but Satisfied.
// It covers Unknown, Running and Failed.
func (s Status) IsNotSatisfied() bool { return s.state != StateSatisfied }

// String renders the status for logs and error messages.
func (s Status) String() string {
	if s.err != nil {
		return fmt.Sprintf("%s: %v", s.state, s.err)
	}
	if s.data != nil {
		return fmt.Sprintf("%s (%v)", s.state, s.data)
	}
	return s.state.String()
}
