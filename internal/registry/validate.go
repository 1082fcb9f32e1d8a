package registry

import (
	"fmt"
	"strings"

	"github.com/vk/preflight/internal/config"
)

// ValidateSuite checks that every non-aggregate declaration in the suite
// references a registered check type.
func (r *Registry) ValidateSuite(suite *config.Suite) error {
	var errs []string
	for _, c := range suite.Checks {
		if c.Aggregate() {
			continue
		}
		if _, ok := r.checks[c.Type]; !ok {
			errs = append(errs, fmt.Sprintf("precondition %q: unknown check type '%s'", c.ID(), c.Type))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("suite validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
