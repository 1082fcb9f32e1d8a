package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"
)

// DepKind mirrors the engine's dependency semantics at the configuration
// level.
type DepKind string

const (
	// DepTight re-resolves each sweep and propagates later failures.
	DepTight DepKind = "tight"
	// DepLazy re-resolves each sweep without eager propagation.
	DepLazy DepKind = "lazy"
	// DepOnce stops resolving once the target has been satisfied once.
	DepOnce DepKind = "once"
)

// DepRef is a declared dependency on another precondition.
type DepRef struct {
	Target string
	Kind   DepKind
}

// Check is one declared precondition instance. Aggregates carry an empty
// Type and no Arguments.
type Check struct {
	// Type names the registered check handler, e.g. "http". Empty for
	// aggregates.
	Type string
	// Name is the instance name; the precondition id is "type.name" (or
	// just the name for aggregates).
	Name string
	// Arguments is the raw arguments block, decoded into the handler's
	// input struct at registration time. Nil when the block is absent.
	Arguments hcl.Body

	Deps []DepRef

	Timeout      time.Duration
	SatisfiedTTL time.Duration
	FailedTTL    time.Duration
}

// Aggregate reports whether the declaration is a dependency-only aggregate.
func (c *Check) Aggregate() bool { return c.Type == "" }

// ID returns the precondition id the declaration registers under.
func (c *Check) ID() string {
	if c.Aggregate() {
		return c.Name
	}
	return c.Type + "." + c.Name
}

// Suite is the unified model of all loaded declarations. Checks are ordered
// so that dependencies appear before their dependents, ready for
// registration.
type Suite struct {
	Checks []*Check
}
