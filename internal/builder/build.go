package builder

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/preflight/internal/config"
	"github.com/vk/preflight/internal/ctxlog"
	"github.com/vk/preflight/internal/precond"
	"github.com/vk/preflight/internal/registry"
)

// Build constructs a repository from a suite. The suite's checks must
// already be in dependency order (the loader guarantees this), so plain
// sequential registration satisfies the repository's deps-first rule.
func Build(ctx context.Context, suite *config.Suite, reg *registry.Registry, opts ...precond.RepositoryOption) (*precond.Repository, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting repository construction.", "check_count", len(suite.Checks))

	if err := reg.ValidateSuite(suite); err != nil {
		return nil, err
	}

	evalCtx := envEvalContext()
	repo := precond.NewRepository(opts...)
	for _, c := range suite.Checks {
		if err := register(ctx, repo, reg, c, evalCtx); err != nil {
			return nil, err
		}
	}

	logger.Debug("Build: repository construction successful.")
	return repo, nil
}

// envEvalContext exposes the process environment to argument expressions as
// the `env` map, so suites can write `address = env.DB_HOST`.
func envEvalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			vars[k] = cty.StringVal(v)
		}
	}
	env := cty.MapValEmpty(cty.String)
	if len(vars) > 0 {
		env = cty.MapVal(vars)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

func register(ctx context.Context, repo *precond.Repository, reg *registry.Registry, c *config.Check, evalCtx *hcl.EvalContext) error {
	id := precond.ID(c.ID())
	deps, err := translateDeps(c)
	if err != nil {
		return err
	}

	if c.Aggregate() {
		_, err := repo.RegisterAggregate(id, deps...)
		if err != nil {
			return fmt.Errorf("registering aggregate %q: %w", id, err)
		}
		return nil
	}

	rc, ok := reg.Lookup(c.Type)
	if !ok {
		// Unreachable after ValidateSuite; kept as a guard.
		return fmt.Errorf("precondition %q: unknown check type '%s'", id, c.Type)
	}

	var input any
	if rc.NewInput != nil {
		input = rc.NewInput()
		if c.Arguments != nil {
			if diags := gohcl.DecodeBody(c.Arguments, evalCtx, input); diags.HasErrors() {
				return fmt.Errorf("decoding arguments of %q: %w", id, diags)
			}
		}
	} else if c.Arguments != nil {
		return fmt.Errorf("precondition %q: check type '%s' takes no arguments", id, c.Type)
	}

	options := []precond.Option{
		precond.WithDeps(deps...),
		precond.WithTimeout(c.Timeout),
		precond.WithSatisfiedTTL(c.SatisfiedTTL),
		precond.WithFailedTTL(c.FailedTTL),
	}
	if rc.Init != nil {
		init := rc.Init
		options = append(options, precond.WithInit(func(ctx context.Context) error {
			return init(ctx, input)
		}))
	}

	check := rc.Check
	_, err = repo.Register(id, func(ctx context.Context) precond.Status {
		return check(ctx, input)
	}, options...)
	if err != nil {
		return fmt.Errorf("registering %q: %w", id, err)
	}

	ctxlog.FromContext(ctx).Debug("Registered precondition.", "id", id, "deps", len(deps))
	return nil
}

// translateDeps maps configuration edges onto engine edges.
func translateDeps(c *config.Check) ([]*precond.Dep, error) {
	deps := make([]*precond.Dep, 0, len(c.Deps))
	for _, d := range c.Deps {
		switch d.Kind {
		case config.DepTight:
			deps = append(deps, precond.Tight(precond.ID(d.Target)))
		case config.DepLazy:
			deps = append(deps, precond.Lazy(precond.ID(d.Target)))
		case config.DepOnce:
			deps = append(deps, precond.Once(precond.ID(d.Target)))
		default:
			return nil, fmt.Errorf("precondition %q: unknown dependency kind %q", c.ID(), d.Kind)
		}
	}
	return deps, nil
}
