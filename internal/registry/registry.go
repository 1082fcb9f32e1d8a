package registry

import (
	"context"
	"fmt"

	"github.com/vk/preflight/internal/precond"
)

// Module is the interface that all check modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// RegisteredCheck binds a check type to its Go implementation.
type RegisteredCheck struct {
	// NewInput returns a fresh input struct the declaration's arguments
	// block is decoded into. Nil means the check takes no arguments.
	NewInput func() any
	// Check evaluates the precondition for the decoded input. It must
	// return a Satisfied or Failed status.
	Check func(ctx context.Context, input any) precond.Status
	// Init, when non-nil, becomes the node's one-time initializer.
	Init func(ctx context.Context, input any) error
}

// Registry holds all registered check handlers for a single application
// instance.
type Registry struct {
	checks map[string]*RegisteredCheck
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{checks: make(map[string]*RegisteredCheck)}
}

// RegisterCheck stores a handler under its check type name. Registering the
// same name twice is a programmer error and panics.
func (r *Registry) RegisterCheck(checkType string, c *RegisteredCheck) {
	if _, exists := r.checks[checkType]; exists {
		panic(fmt.Sprintf("check type %q registered twice", checkType))
	}
	if c == nil || c.Check == nil {
		panic(fmt.Sprintf("check type %q registered without a check function", checkType))
	}
	r.checks[checkType] = c
}

// Lookup returns the handler registered for a check type.
func (r *Registry) Lookup(checkType string) (*RegisteredCheck, bool) {
	c, ok := r.checks[checkType]
	return c, ok
}

// Types returns the number of registered check types.
func (r *Registry) Types() int {
	return len(r.checks)
}
