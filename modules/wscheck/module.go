// Package wscheck provides the 'websocket' check: a websocket endpoint
// completes the opening handshake.
package wscheck

import (
	"context"
	"crypto/tls"

	"github.com/gorilla/websocket"

	"github.com/vk/preflight/internal/ctxlog"
	"github.com/vk/preflight/internal/precond"
	"github.com/vk/preflight/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'websocket' check.
type Input struct {
	// URL is the ws:// or wss:// endpoint to dial.
	URL string `hcl:"url"`
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `hcl:"insecure_skip_verify,optional"`
}

// Check dials the endpoint and closes the connection right after the
// handshake.
func Check(ctx context.Context, input any) precond.Status {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx).With("check", "websocket", "url", in.URL)

	dialer := websocket.Dialer{}
	if in.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	conn, resp, err := dialer.DialContext(ctx, in.URL, nil)
	if err != nil {
		logger.Debug("Handshake failed.", "error", err)
		return precond.FailedErr(err)
	}
	defer conn.Close()
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	logger.Debug("Handshake succeeded.")
	return precond.Satisfied(nil)
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCheck("websocket", &registry.RegisteredCheck{
		NewInput: func() any { return new(Input) },
		Check:    Check,
	})
}
