package config

import "context"

// Loader is the interface for a format-specific suite loader. Load reads
// every declaration reachable from the given paths, translates it into the
// format-agnostic model and returns the suite with its checks already in
// dependency order.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Suite, error)
}
