package precond

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Repository owns all registered preconditions, keyed by id. Registration
// requires dependencies to be registered before their dependents, which
// makes the graph acyclic by construction: no node can reference a node
// registered after it.
type Repository struct {
	// mu guards the node map, the insertion order and the tight reverse
	// index. Evaluation never mutates these.
	mu         sync.RWMutex
	nodes      map[ID]*Node
	order      []ID      // insertion order, for stable iteration
	tightRdeps map[ID][]ID // target id -> ids of dependents holding a tight edge

	// sweepMu serializes whole-repository sweeps. Evaluate-one calls are
	// not serialized against sweeps beyond per-node single-flight.
	sweepMu  sync.Mutex
	sweeping atomic.Bool

	// flight deduplicates concurrent physical evaluations per node id.
	flight singleflight.Group

	workers int

	subMu   sync.Mutex
	subs    map[int]func(ID)
	nextSub int
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithWorkers caps the number of concurrently started root evaluations in
// EvaluateAll. Zero or negative means unlimited.
func WithWorkers(n int) RepositoryOption {
	return func(r *Repository) { r.workers = n }
}

// NewRepository creates an empty Repository.
func NewRepository(opts ...RepositoryOption) *Repository {
	r := &Repository{
		nodes:      make(map[ID]*Node),
		tightRdeps: make(map[ID][]ID),
		subs:       make(map[int]func(ID)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a precondition under a unique id. It fails with
// ErrDuplicateID when the id is taken and with ErrUnknownDependency when a
// declared dependency has not been registered yet. The returned node is a
// read handle; its mutable state is owned by the repository's evaluation
// machinery.
func (r *Repository) Register(id ID, check CheckFunc, opts ...Option) (*Node, error) {
	if check == nil {
		return nil, fmt.Errorf("register %q: %w", id, ErrNilCheck)
	}

	n := &Node{id: id, check: check, status: Unknown()}
	for _, opt := range opts {
		opt(n)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nodes[id]; exists {
		return nil, fmt.Errorf("register %q: %w", id, ErrDuplicateID)
	}
	for _, d := range n.deps {
		if d.Target == id {
			return nil, fmt.Errorf("register %q: %w", id, ErrSelfDependency)
		}
		if _, ok := r.nodes[d.Target]; !ok {
			return nil, fmt.Errorf("register %q: %w: %q", id, ErrUnknownDependency, d.Target)
		}
	}

	r.nodes[id] = n
	r.order = append(r.order, id)
	for _, d := range n.deps {
		if d.Kind == KindTight {
			r.tightRdeps[d.Target] = append(r.tightRdeps[d.Target], id)
		}
	}
	return n, nil
}

// RegisterAggregate registers a node whose check trivially succeeds, so its
// status is entirely dependency-driven.
func (r *Repository) RegisterAggregate(id ID, deps ...*Dep) (*Node, error) {
	check := func(ctx context.Context) Status { return Satisfied(nil) }
	return r.Register(id, check, WithDeps(deps...))
}

// Get returns the node registered under id.
func (r *Repository) Get(id ID) (*Node, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	return n, nil
}

// All returns every registered node in registration order.
func (r *Repository) All() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Node, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.nodes[id])
	}
	return out
}

// Unsatisfied returns every node whose current status is not Satisfied, in
// registration order.
func (r *Repository) Unsatisfied() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Node
	for _, id := range r.order {
		if n := r.nodes[id]; n.Status().IsNotSatisfied() {
			out = append(out, n)
		}
	}
	return out
}

// Sweeping reports whether a whole-repository sweep is currently running.
func (r *Repository) Sweeping() bool {
	return r.sweeping.Load()
}

// Subscribe registers a change listener and returns its cancel function.
// The listener is called with the id of the node whose status changed, or
// with the zero id when the repository-level sweep flag flips. Listeners run
// synchronously on the evaluating goroutine and must not block.
func (r *Repository) Subscribe(fn func(ID)) (cancel func()) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	token := r.nextSub
	r.nextSub++
	r.subs[token] = fn
	return func() {
		r.subMu.Lock()
		defer r.subMu.Unlock()
		delete(r.subs, token)
	}
}

// notify fans a change event out to every subscriber.
func (r *Repository) notify(id ID) {
	r.subMu.Lock()
	fns := make([]func(ID), 0, len(r.subs))
	for _, fn := range r.subs {
		fns = append(fns, fn)
	}
	r.subMu.Unlock()
	for _, fn := range fns {
		fn(id)
	}
}

// setSweeping flips the repository-level "sweep running" flag and notifies
// subscribers when the value actually changed.
func (r *Repository) setSweeping(v bool) {
	if r.sweeping.Swap(v) != v {
		r.notify(ID(""))
	}
}

// tightDependentsOf returns the ids of nodes holding a tight edge on target.
func (r *Repository) tightDependentsOf(target ID) []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tightRdeps[target]
}
