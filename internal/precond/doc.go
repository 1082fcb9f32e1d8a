// Package precond is the evaluation core of preflight. It owns the graph of
// registered preconditions and runs dependency-aware evaluation sweeps over
// it: resolving dependencies before dependents, deduplicating concurrent work
// on the same node, applying per-node cache policy, racing check functions
// against their timeouts, and propagating failures along tight edges.
//
// All evaluation outcomes surface as Status values. The only errors returned
// by the package are registration errors and "unknown id" lookups; a slow or
// broken check can never abort a sweep.
package precond
