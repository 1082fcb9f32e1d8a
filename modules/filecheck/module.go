// Package filecheck provides the 'file' check: a path exists, optionally as
// a directory or with a minimum size.
package filecheck

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/preflight/internal/precond"
	"github.com/vk/preflight/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'file' check.
type Input struct {
	Path string `hcl:"path"`
	// Dir requires the path to be a directory.
	Dir bool `hcl:"dir,optional"`
	// MinBytes requires a regular file of at least this size.
	MinBytes int64 `hcl:"min_bytes,optional"`
}

// Check reports Satisfied when the path matches the declared expectations.
func Check(ctx context.Context, input any) precond.Status {
	in := input.(*Input)

	info, err := os.Stat(in.Path)
	if err != nil {
		return precond.FailedErr(err)
	}
	if in.Dir != info.IsDir() {
		if in.Dir {
			return precond.Failed(fmt.Sprintf("%s is not a directory", in.Path))
		}
		return precond.Failed(fmt.Sprintf("%s is a directory", in.Path))
	}
	if !info.IsDir() && info.Size() < in.MinBytes {
		return precond.Failed(fmt.Sprintf("%s is %d bytes, want at least %d", in.Path, info.Size(), in.MinBytes))
	}
	return precond.Satisfied(map[string]any{"size": info.Size()})
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCheck("file", &registry.RegisteredCheck{
		NewInput: func() any { return new(Input) },
		Check:    Check,
	})
}
