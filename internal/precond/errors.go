package precond

import "errors"

// Registration errors. These are fatal at registration time and surfaced
// synchronously to the caller; they are never converted into a Status.
var (
	// ErrDuplicateID is returned when an id is registered twice.
	ErrDuplicateID = errors.New("precondition id already registered")
	// ErrUnknownDependency is returned when a dependency references an id
	// that has not been registered yet. Dependencies must be registered
	// before their dependents, which keeps the graph acyclic by construction.
	ErrUnknownDependency = errors.New("dependency not registered")
	// ErrSelfDependency is returned when a node lists itself as a dependency.
	ErrSelfDependency = errors.New("precondition cannot depend on itself")
	// ErrNilCheck is returned when no check function is supplied.
	ErrNilCheck = errors.New("check function is nil")
)

// ErrUnknownID is returned by lookups and evaluate-by-id for ids that were
// never registered.
var ErrUnknownID = errors.New("unknown precondition id")

// Evaluation errors. These never escape as returned errors; they are carried
// inside a Failed status so callers can tell "the check said no" apart from
// "the check crashed".
var (
	// ErrCheckTimeout marks a check that did not resolve within its timeout.
	ErrCheckTimeout = errors.New("check timed out")
	// ErrCheckPanic marks a check or initializer that panicked.
	ErrCheckPanic = errors.New("check panicked")
	// ErrBadCheckResult marks a check that returned an engine-internal
	// status (Unknown or Running), which violates the check contract.
	ErrBadCheckResult = errors.New("check returned an engine-internal status")
)
