// Package tcpcheck provides the 'tcp' check: a TCP endpoint accepts
// connections.
package tcpcheck

import (
	"context"
	"net"

	"github.com/vk/preflight/internal/ctxlog"
	"github.com/vk/preflight/internal/precond"
	"github.com/vk/preflight/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'tcp' check.
type Input struct {
	// Address is the host:port to dial.
	Address string `hcl:"address"`
}

// Check dials the address once; the connection is closed immediately.
func Check(ctx context.Context, input any) precond.Status {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx).With("check", "tcp", "address", in.Address)

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", in.Address)
	if err != nil {
		logger.Debug("Dial failed.", "error", err)
		return precond.FailedErr(err)
	}
	defer conn.Close()

	logger.Debug("Dial succeeded.")
	return precond.Satisfied(map[string]any{"remote": conn.RemoteAddr().String()})
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCheck("tcp", &registry.RegisteredCheck{
		NewInput: func() any { return new(Input) },
		Check:    Check,
	})
}
