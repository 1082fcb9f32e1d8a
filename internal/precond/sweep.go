package precond

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vk/preflight/internal/ctxlog"
)

// sweep tracks which nodes have already produced a result within one
// evaluation call, guaranteeing at most one invocation per node per sweep
// even when several dependents share a target.
type sweep struct {
	repo    *Repository
	mu      sync.Mutex
	results map[ID]Status
}

func newSweep(r *Repository) *sweep {
	return &sweep{repo: r, results: make(map[ID]Status)}
}

func (s *sweep) cached(id ID) (Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.results[id]
	return st, ok
}

func (s *sweep) store(id ID, st Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[id] = st
}

// snapshot returns a copy of the sweep's per-node results.
func (s *sweep) snapshot() map[ID]Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[ID]Status, len(s.results))
	for id, st := range s.results {
		out[id] = st
	}
	return out
}

// EvaluateAll runs one sweep over every registered precondition. Nodes with
// no unresolved dependencies run concurrently; dependents wait on their
// dependencies' shared evaluation instead of duplicating work. Concurrent
// EvaluateAll calls on the same repository are serialized at the sweep
// level: a queued call runs afterwards and benefits from per-node TTL
// caching. The returned map holds this sweep's result per node id.
func (r *Repository) EvaluateAll(ctx context.Context) map[ID]Status {
	r.sweepMu.Lock()
	defer r.sweepMu.Unlock()

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Sweep starting.", "node_count", len(r.All()))
	r.setSweeping(true)
	defer r.setSweeping(false)

	s := newSweep(r)
	g := new(errgroup.Group)
	if r.workers > 0 {
		g.SetLimit(r.workers)
	}
	for _, n := range r.All() {
		g.Go(func() error {
			s.evaluate(ctx, n, false)
			return nil
		})
	}
	// Workers never return errors; all outcomes surface as statuses.
	_ = g.Wait()

	logger.Debug("Sweep finished.")
	return s.snapshot()
}

// Evaluate runs one sweep scoped to a single precondition, transitively
// pulling in its dependency subgraph. Unrelated nodes are untouched. The
// only possible error is ErrUnknownID.
func (r *Repository) Evaluate(ctx context.Context, id ID) (Status, error) {
	return r.evaluateOne(ctx, id, false)
}

// EvaluateIgnoringCache is Evaluate with the node's own TTL cache bypassed.
// Dependencies still resolve through their normal cache policy.
func (r *Repository) EvaluateIgnoringCache(ctx context.Context, id ID) (Status, error) {
	return r.evaluateOne(ctx, id, true)
}

func (r *Repository) evaluateOne(ctx context.Context, id ID, ignoreCache bool) (Status, error) {
	n, err := r.Get(id)
	if err != nil {
		return Status{}, err
	}
	s := newSweep(r)
	return s.evaluate(ctx, n, ignoreCache), nil
}

// evaluate produces a result for one node within this sweep. The sweep
// cache is consulted first; past that, concurrent callers across sweeps
// share a single physical evaluation per node.
func (s *sweep) evaluate(ctx context.Context, n *Node, ignoreCache bool) Status {
	if st, ok := s.cached(n.id); ok {
		return st
	}

	// Single-flight: if a peer evaluation is already in flight for this
	// node, await and adopt its shared result instead of starting another.
	ch := s.repo.flight.DoChan(string(n.id), func() (any, error) {
		return s.repo.evaluateNode(ctx, s, n, ignoreCache), nil
	})
	res := <-ch
	st := res.Val.(Status)
	s.store(n.id, st)
	return st
}

// evaluateNode is the physical evaluation of one node: cache policy,
// dependency resolution, one-time init, then the timed check invocation.
// It runs at most once per node across all concurrent callers, courtesy of
// the single-flight group.
func (r *Repository) evaluateNode(ctx context.Context, s *sweep, n *Node, ignoreCache bool) Status {
	logger := ctxlog.FromContext(ctx).With("precondition", n.id)
	prev, _ := n.snapshot()

	if !ignoreCache {
		if st, ok := n.cachedStatus(time.Now()); ok {
			logger.Debug("Reusing cached result.", "status", st.State())
			return st
		}
	}

	n.setStatus(Running())
	r.notify(n.id)

	// Resolve every dependency still needing resolution, in declaration
	// order. The first unsatisfied one short-circuits the node.
	var shortCircuit *Status
	for _, d := range n.deps {
		if !d.needsResolution() {
			continue
		}
		target, err := r.Get(d.Target)
		if err != nil {
			// Unreachable: registration guarantees targets exist.
			st := FailedErr(err)
			shortCircuit = &st
			break
		}
		st := s.evaluate(ctx, target, false)
		if st.IsSatisfied() {
			d.satisfiedOnce.Store(true)
		} else if shortCircuit == nil {
			shortCircuit = &st
		}
	}
	if shortCircuit != nil {
		logger.Debug("Dependency unsatisfied, skipping check invocation.", "status", *shortCircuit)
		return r.finish(ctx, n, prev, *shortCircuit)
	}

	if err := r.runInit(ctx, n); err != nil {
		logger.Warn("Initializer failed.", "error", err)
		return r.finish(ctx, n, prev, FailedErr(err))
	}

	logger.Debug("Invoking check.", "timeout", n.effectiveTimeout())
	st := r.invokeCheck(ctx, n)
	return r.finish(ctx, n, prev, st)
}

// runInit runs the node's initializer once until it first succeeds. A
// failed attempt leaves the node uninitialized so the next evaluation
// retries it.
func (r *Repository) runInit(ctx context.Context, n *Node) (err error) {
	n.mu.Lock()
	init, done := n.init, n.initialized
	n.mu.Unlock()
	if init == nil || done {
		return nil
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: init: %v", ErrCheckPanic, p)
		}
	}()
	if err := init(ctx); err != nil {
		return err
	}

	n.mu.Lock()
	n.initialized = true
	n.mu.Unlock()
	return nil
}

// invokeCheck races the check function against the node's timeout. The
// check receives a timeout-bounded context so cooperative work can stop
// early, but cancellation is not guaranteed: the timeout's Failed result
// wins regardless, and a late result is discarded.
func (r *Repository) invokeCheck(ctx context.Context, n *Node) Status {
	timeout := n.effectiveTimeout()
	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan Status, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- FailedErr(fmt.Errorf("%w: %v", ErrCheckPanic, p))
			}
		}()
		st := n.check(tctx)
		if !st.IsSatisfied() && !st.IsFailed() {
			st = FailedErr(fmt.Errorf("%w: %s", ErrBadCheckResult, st.State()))
		}
		done <- st
	}()

	select {
	case st := <-done:
		return st
	case <-tctx.Done():
		if err := ctx.Err(); err != nil {
			return FailedErr(err)
		}
		return FailedErr(fmt.Errorf("%w after %s", ErrCheckTimeout, timeout))
	}
}

// finish applies a node's result: status, timestamp, change notification,
// and tight-failure propagation on a transition into Failed.
func (r *Repository) finish(ctx context.Context, n *Node, prev, st Status) Status {
	n.mu.Lock()
	n.status = st
	n.lastEvaluatedAt = time.Now()
	n.mu.Unlock()
	r.notify(n.id)

	if st.IsFailed() && prev.State() != StateFailed {
		r.propagateTightFailure(ctx, n.id, st)
	}
	return st
}

// setStatus overwrites the node's status without touching the evaluation
// timestamp.
func (n *Node) setStatus(st Status) {
	n.mu.Lock()
	n.status = st
	n.mu.Unlock()
}

// propagateTightFailure force-sets every tight dependent of target to the
// same Failed status, even when the dependent is not part of any active
// sweep, and cascades further along tight edges. Writes are serialized per
// dependent through its own lock; a dependent already Failed stops the
// cascade there.
func (r *Repository) propagateTightFailure(ctx context.Context, target ID, st Status) {
	logger := ctxlog.FromContext(ctx)
	for _, depID := range r.tightDependentsOf(target) {
		dep, err := r.Get(depID)
		if err != nil {
			continue
		}
		dep.mu.Lock()
		already := dep.status.State() == StateFailed
		if !already {
			dep.status = st
		}
		dep.mu.Unlock()
		if already {
			continue
		}
		logger.Debug("Propagating failure to tight dependent.", "target", target, "dependent", depID)
		r.notify(depID)
		r.propagateTightFailure(ctx, depID, st)
	}
}
