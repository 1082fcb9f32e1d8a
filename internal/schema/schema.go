// Package schema holds the raw HCL block structures of a precondition suite
// file, decoded verbatim before translation into the config model.
package schema

import "github.com/hashicorp/hcl/v2"

// CheckArgs represents the content of the 'arguments' block within a
// precondition.
type CheckArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// Precondition represents a `precondition` block: a runnable instance of a
// registered check type.
type Precondition struct {
	CheckType string     `hcl:"check_type,label"`
	Name      string     `hcl:"instance_name,label"`
	Arguments *CheckArgs `hcl:"arguments,block"`

	// Dependency lists by resolution kind. Targets reference other
	// declarations by id ("check_type.instance_name" or aggregate name).
	Requires     []string `hcl:"requires,optional"`
	RequiresLazy []string `hcl:"requires_lazy,optional"`
	RequiresOnce []string `hcl:"requires_once,optional"`

	// Durations as strings ("500ms", "30s"); the TTLs also accept
	// "forever".
	Timeout      string `hcl:"timeout,optional"`
	SatisfiedTTL string `hcl:"satisfied_ttl,optional"`
	FailedTTL    string `hcl:"failed_ttl,optional"`
}

// Aggregate represents an `aggregate` block: a precondition with no check of
// its own whose status is entirely dependency-driven.
type Aggregate struct {
	Name string `hcl:"name,label"`

	Requires     []string `hcl:"requires,optional"`
	RequiresLazy []string `hcl:"requires_lazy,optional"`
	RequiresOnce []string `hcl:"requires_once,optional"`
}

// SuiteConfig represents the top-level structure of a suite file.
type SuiteConfig struct {
	Preconditions []*Precondition `hcl:"precondition,block"`
	Aggregates    []*Aggregate    `hcl:"aggregate,block"`
	Body          hcl.Body        `hcl:",remain"`
}
