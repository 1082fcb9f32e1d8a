package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/preflight/internal/builder"
	"github.com/vk/preflight/internal/config"
	"github.com/vk/preflight/internal/ctxlog"
	"github.com/vk/preflight/internal/precond"
	"github.com/vk/preflight/internal/registry"
)

// App wires the loader, registry and repository together for one run.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	suite    *config.Suite
	repo     *precond.Repository
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and a
// repository populated from the loaded suite. Startup failures (unreadable
// suite, unknown check types, bad declarations) panic; the CLI entrypoint
// recovers them into a clean exit.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	suite, err := loader.Load(ctx, cfg.SuitePath)
	if err != nil {
		panic(fmt.Errorf("failed to load suite: %w", err))
	}
	logger.Debug("Suite loaded and translated into unified model.", "checks", len(suite.Checks))

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All check modules registered.", "count", len(modules), "check_types", reg.Types())

	repo, err := builder.Build(ctx, suite, reg, precond.WithWorkers(cfg.Workers))
	if err != nil {
		panic(err)
	}
	logger.Debug("Repository built.", "node_count", len(repo.All()))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		suite:    suite,
		repo:     repo,
	}
}

// Repository returns the application's precondition repository. This is
// primarily for testing.
func (a *App) Repository() *precond.Repository {
	return a.repo
}
