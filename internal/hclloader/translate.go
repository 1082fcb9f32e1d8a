package hclloader

import (
	"fmt"
	"time"

	"github.com/vk/preflight/internal/config"
	"github.com/vk/preflight/internal/precond"
	"github.com/vk/preflight/internal/schema"
)

// translatePrecondition converts a raw precondition block into the agnostic
// model, parsing duration attributes.
func translatePrecondition(p *schema.Precondition) (*config.Check, error) {
	check := &config.Check{
		Type: p.CheckType,
		Name: p.Name,
		Deps: collectDeps(p.Requires, p.RequiresLazy, p.RequiresOnce),
	}
	if p.Arguments != nil {
		check.Arguments = p.Arguments.Body
	}

	var err error
	if check.Timeout, err = parseDuration(p.Timeout, false); err != nil {
		return nil, fmt.Errorf("precondition %q: timeout: %w", check.ID(), err)
	}
	if check.SatisfiedTTL, err = parseDuration(p.SatisfiedTTL, true); err != nil {
		return nil, fmt.Errorf("precondition %q: satisfied_ttl: %w", check.ID(), err)
	}
	if check.FailedTTL, err = parseDuration(p.FailedTTL, true); err != nil {
		return nil, fmt.Errorf("precondition %q: failed_ttl: %w", check.ID(), err)
	}
	return check, nil
}

// translateAggregate converts a raw aggregate block into the agnostic model.
func translateAggregate(a *schema.Aggregate) *config.Check {
	return &config.Check{
		Name: a.Name,
		Deps: collectDeps(a.Requires, a.RequiresLazy, a.RequiresOnce),
	}
}

// collectDeps flattens the three kind-specific lists into edges, preserving
// list order within each kind: tight first, then lazy, then once.
func collectDeps(tight, lazy, once []string) []config.DepRef {
	var deps []config.DepRef
	for _, t := range tight {
		deps = append(deps, config.DepRef{Target: t, Kind: config.DepTight})
	}
	for _, t := range lazy {
		deps = append(deps, config.DepRef{Target: t, Kind: config.DepLazy})
	}
	for _, t := range once {
		deps = append(deps, config.DepRef{Target: t, Kind: config.DepOnce})
	}
	return deps
}

// parseDuration parses an optional duration attribute. TTL attributes also
// accept the "forever" keyword.
func parseDuration(raw string, allowForever bool) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	if allowForever && raw == "forever" {
		return precond.CacheForever, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", raw)
	}
	return d, nil
}
