package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/preflight/internal/ctxlog"
	"github.com/vk/preflight/internal/precond"
	"github.com/vk/preflight/internal/render"
)

// ErrUnsatisfied is returned by Run when the final sweep leaves at least one
// precondition unsatisfied.
var ErrUnsatisfied = fmt.Errorf("preconditions unsatisfied")

// Run executes the main application logic based on the provided
// configuration: one sweep (or a single check), an optional watch loop, and
// the optional status server.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if cfg.StatusPort > 0 {
		a.startStatusServer(cfg.StatusPort)
	}

	if cfg.CheckID != "" {
		return a.runOne(ctx, precond.ID(cfg.CheckID))
	}

	a.logger.Info("🚀 Starting evaluation sweep...", "node_count", len(a.repo.All()))
	a.repo.EvaluateAll(ctx)
	unsatisfied := render.Summary(a.outW, a.repo.All())
	a.logger.Info("🏁 Sweep finished.", "unsatisfied", unsatisfied)

	if cfg.WatchInterval > 0 {
		return a.watch(ctx, cfg.WatchInterval)
	}

	if unsatisfied > 0 {
		return fmt.Errorf("%w: %d of %d", ErrUnsatisfied, unsatisfied, len(a.repo.All()))
	}
	return nil
}

// runOne evaluates a single precondition and renders its result.
func (a *App) runOne(ctx context.Context, id precond.ID) error {
	st, err := a.repo.Evaluate(ctx, id)
	if err != nil {
		return err
	}
	n, err := a.repo.Get(id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.outW, render.Line(n))
	if st.IsNotSatisfied() {
		return fmt.Errorf("%w: %s", ErrUnsatisfied, id)
	}
	return nil
}

// watch re-runs the sweep on a fixed interval until the context is
// cancelled. Per-node TTLs decide how much of each sweep actually
// re-invokes checks.
func (a *App) watch(ctx context.Context, interval time.Duration) error {
	a.logger.Info("👀 Watching preconditions.", "interval", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Watch stopped.")
			return nil
		case <-ticker.C:
			a.repo.EvaluateAll(ctx)
			unsatisfied := render.Summary(a.outW, a.repo.All())
			a.logger.Debug("Watch sweep finished.", "unsatisfied", unsatisfied)
		}
	}
}
