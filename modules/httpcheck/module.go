// Package httpcheck provides the 'http' check: an HTTP endpoint responds
// with an acceptable status code.
package httpcheck

import (
	"context"
	"crypto/tls"
	"fmt"

	resty "resty.dev/v3"

	"github.com/vk/preflight/internal/ctxlog"
	"github.com/vk/preflight/internal/precond"
	"github.com/vk/preflight/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the arguments for the 'http' check.
type Input struct {
	URL string `hcl:"url"`
	// ExpectStatus pins the exact status code; zero accepts any 2xx/3xx.
	ExpectStatus int `hcl:"expect_status,optional"`
	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool `hcl:"insecure_skip_verify,optional"`

	// client is built once by Init and reused across evaluations.
	client *resty.Client
}

// Init builds the shared HTTP client. It runs once per precondition.
func Init(ctx context.Context, input any) error {
	in := input.(*Input)
	client := resty.New()
	if in.InsecureSkipVerify {
		ctxlog.FromContext(ctx).Warn("Skipping TLS certificate verification", "url", in.URL)
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	in.client = client
	return nil
}

// Check performs a single GET against the configured URL.
func Check(ctx context.Context, input any) precond.Status {
	in := input.(*Input)
	logger := ctxlog.FromContext(ctx).With("check", "http", "url", in.URL)

	res, err := in.client.R().SetContext(ctx).Get(in.URL)
	if err != nil {
		logger.Debug("Request failed.", "error", err)
		return precond.FailedErr(err)
	}

	code := res.StatusCode()
	logger.Debug("Request finished.", "status_code", code)
	switch {
	case in.ExpectStatus != 0 && code != in.ExpectStatus:
		return precond.Failed(fmt.Sprintf("got status %d, want %d", code, in.ExpectStatus))
	case in.ExpectStatus == 0 && code >= 400:
		return precond.Failed(fmt.Sprintf("got status %d", code))
	}
	return precond.Satisfied(map[string]any{"status_code": code})
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterCheck("http", &registry.RegisteredCheck{
		NewInput: func() any { return new(Input) },
		Check:    Check,
		Init:     Init,
	})
}
