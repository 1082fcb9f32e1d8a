package hclloader

import (
	"fmt"
	"strings"

	"github.com/vk/preflight/internal/config"
)

// sortByDependencies orders declarations so every dependency precedes its
// dependents, keeping declaration order among unrelated checks. Duplicate
// ids, unknown targets and cycles are load errors.
func sortByDependencies(checks []*config.Check) ([]*config.Check, error) {
	byID := make(map[string]*config.Check, len(checks))
	for _, c := range checks {
		if _, exists := byID[c.ID()]; exists {
			return nil, fmt.Errorf("duplicate declaration of %q", c.ID())
		}
		byID[c.ID()] = c
	}
	for _, c := range checks {
		for _, d := range c.Deps {
			if _, ok := byID[d.Target]; !ok {
				return nil, fmt.Errorf("%q requires undeclared precondition %q", c.ID(), d.Target)
			}
			if d.Target == c.ID() {
				return nil, fmt.Errorf("%q requires itself", c.ID())
			}
		}
	}

	// Kahn's algorithm, stable: each pass emits the first not-yet-emitted
	// declaration whose dependencies are all emitted.
	emitted := make(map[string]bool, len(checks))
	ordered := make([]*config.Check, 0, len(checks))
	for len(ordered) < len(checks) {
		progressed := false
		for _, c := range checks {
			if emitted[c.ID()] {
				continue
			}
			ready := true
			for _, d := range c.Deps {
				if !emitted[d.Target] {
					ready = false
					break
				}
			}
			if ready {
				emitted[c.ID()] = true
				ordered = append(ordered, c)
				progressed = true
			}
		}
		if !progressed {
			var stuck []string
			for _, c := range checks {
				if !emitted[c.ID()] {
					stuck = append(stuck, c.ID())
				}
			}
			return nil, fmt.Errorf("dependency cycle involving: %s", strings.Join(stuck, ", "))
		}
	}
	return ordered, nil
}
