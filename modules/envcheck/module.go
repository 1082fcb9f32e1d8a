// Package envcheck provides the 'env' check: required environment variables
// are present (and optionally non-empty).
package envcheck

import (
	"context"
	"os"

	"github.com/vk/preflight/internal/precond"
	"github.com/vk/preflight/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'env' check.
type Input struct {
	// Vars lists the required environment variable names.
	Vars []string `hcl:"vars"`
	// AllowEmpty accepts variables that are set but empty.
	AllowEmpty bool `hcl:"allow_empty,optional"`
}

// Check reports Satisfied when every required variable is present.
func Check(ctx context.Context, input any) precond.Status {
	in := input.(*Input)

	var missing []string
	for _, name := range in.Vars {
		val, ok := os.LookupEnv(name)
		if !ok || (!in.AllowEmpty && val == "") {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return precond.Failed(map[string]any{"missing": missing})
	}
	return precond.Satisfied(nil)
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCheck("env", &registry.RegisteredCheck{
		NewInput: func() any { return new(Input) },
		Check:    Check,
	})
}
