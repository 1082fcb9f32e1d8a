// Package socketiocheck provides the 'socketio' check: a socket.io endpoint
// accepts a connection on the given namespace.
package socketiocheck

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"

	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"

	"github.com/vk/preflight/internal/ctxlog"
	"github.com/vk/preflight/internal/precond"
	"github.com/vk/preflight/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'socketio' check.
type Input struct {
	URL       string `hcl:"url"`
	Namespace string `hcl:"namespace,optional"`
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `hcl:"insecure_skip_verify,optional"`
}

// Check connects to the endpoint and disconnects as soon as the namespace
// handshake completes. The engine's timeout bounds the whole attempt via
// ctx.
func Check(ctx context.Context, input any) precond.Status {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx).With("check", "socketio", "url", in.URL)

	parsedURL, err := url.Parse(in.URL)
	if err != nil {
		return precond.FailedErr(fmt.Errorf("failed to parse URL: %w", err))
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if in.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	type result struct {
		sid string
		err error
	}
	done := make(chan result, 1)

	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(in.Namespace, opts)
	defer func() {
		logger.Debug("Disconnecting socket client")
		io.Disconnect()
	}()

	io.On(types.EventName("connect"), func(...any) {
		done <- result{sid: string(io.Id())}
	})
	io.On(types.EventName("connect_error"), func(errs ...any) {
		if len(errs) > 0 {
			if err, ok := errs[0].(error); ok {
				done <- result{err: err}
				return
			}
		}
		done <- result{err: fmt.Errorf("connect_error")}
	})

	io.Connect()

	select {
	case <-ctx.Done():
		return precond.FailedErr(fmt.Errorf("waiting for connection: %w", ctx.Err()))
	case res := <-done:
		if res.err != nil {
			logger.Debug("Connection failed.", "error", res.err)
			return precond.FailedErr(res.err)
		}
		logger.Debug("Connected.", "sid", res.sid)
		return precond.Satisfied(map[string]any{"sid": res.sid})
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCheck("socketio", &registry.RegisteredCheck{
		NewInput: func() any { return new(Input) },
		Check:    Check,
	})
}
