package precond

import (
	"context"
	"math"
	"sync"
	"time"
)

// CheckFunc is the user-supplied readiness check. It must return either a
// Satisfied or a Failed status; returning Unknown or Running is a contract
// violation and is converted into a Failed status carrying
// ErrBadCheckResult. Panics are recovered into Failed as well.
type CheckFunc func(ctx context.Context) Status

// InitFunc is an optional one-time initializer run before the first check
// invocation. It is retried on every evaluation until it first succeeds and
// never run again afterwards.
type InitFunc func(ctx context.Context) error

// DefaultTimeout bounds check invocations when no explicit timeout is
// configured.
const DefaultTimeout = 10 * time.Second

// CacheForever is a TTL that keeps a result cached for the lifetime of the
// repository.
const CacheForever = time.Duration(math.MaxInt64)

// Node is a registered precondition: a check function plus configuration and
// the mutable evaluation state. Nodes are owned exclusively by their
// Repository; dependents reference them by id only.
type Node struct {
	id      ID
	check   CheckFunc
	init    InitFunc
	deps    []*Dep // declaration order, drives failure propagation order
	timeout time.Duration

	// satisfiedTTL and failedTTL control result reuse; zero disables
	// caching for that outcome.
	satisfiedTTL time.Duration
	failedTTL    time.Duration

	// mu guards the mutable evaluation state below. Cross-node writes only
	// happen through tight-failure propagation, which takes this same lock.
	mu              sync.Mutex
	status          Status
	lastEvaluatedAt time.Time
	initialized     bool
}

// ID returns the node's unique id.
func (n *Node) ID() ID { return n.id }

// Status returns the node's current status.
func (n *Node) Status() Status {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status
}

// LastEvaluatedAt returns the time the node last produced a result, or the
// zero time if it never has.
func (n *Node) LastEvaluatedAt() time.Time {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastEvaluatedAt
}

// Deps returns the node's dependency edges in declaration order. The slice
// is shared; callers must not mutate it.
func (n *Node) Deps() []*Dep { return n.deps }

// snapshot returns the current status and evaluation timestamp atomically.
func (n *Node) snapshot() (Status, time.Time) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.status, n.lastEvaluatedAt
}

// cachedStatus returns the current status and true when the configured TTL
// for that status has not yet elapsed.
func (n *Node) cachedStatus(now time.Time) (Status, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var ttl time.Duration
	switch {
	case n.status.IsSatisfied():
		ttl = n.satisfiedTTL
	case n.status.IsFailed():
		ttl = n.failedTTL
	default:
		return Status{}, false
	}
	if ttl <= 0 {
		return Status{}, false
	}
	if now.Before(n.lastEvaluatedAt.Add(ttl)) {
		return n.status, true
	}
	return Status{}, false
}

// effectiveTimeout returns the configured timeout, falling back to
// DefaultTimeout.
func (n *Node) effectiveTimeout() time.Duration {
	if n.timeout > 0 {
		return n.timeout
	}
	return DefaultTimeout
}

// Option configures a node at registration time.
type Option func(*Node)

// WithTimeout bounds each check invocation. Zero or negative means
// DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(n *Node) { n.timeout = d }
}

// WithSatisfiedTTL keeps a Satisfied result cached for d. Zero disables
// caching; CacheForever caches for the repository's lifetime.
func WithSatisfiedTTL(d time.Duration) Option {
	return func(n *Node) { n.satisfiedTTL = d }
}

// WithFailedTTL keeps a Failed result cached for d.
func WithFailedTTL(d time.Duration) Option {
	return func(n *Node) { n.failedTTL = d }
}

// WithInit attaches a one-time initializer to the node.
func WithInit(fn InitFunc) Option {
	return func(n *Node) { n.init = fn }
}

// WithDeps declares the node's dependency edges. Order is preserved: when
// several dependencies are unsatisfied at once, the first declared one wins
// the short-circuit.
func WithDeps(deps ...*Dep) Option {
	return func(n *Node) { n.deps = append(n.deps, deps...) }
}
