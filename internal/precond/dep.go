package precond

import (
	"fmt"
	"sync/atomic"
)

// ID uniquely identifies a precondition within a Repository.
type ID string

// DepKind selects the resolution semantics of a dependency edge.
type DepKind int8

const (
	// KindTight re-resolves each sweep and additionally mirrors the
	// target's later failures onto the dependent without the dependent
	// being re-evaluated.
	KindTight DepKind = iota
	// KindLazy re-resolves each sweep; the dependent only reflects the
	// target's status as observed at its own last evaluation.
	KindLazy
	// KindOneTime stops requiring resolution permanently once the target
	// has been satisfied once, regardless of the target's later failures.
	KindOneTime
)

// String returns the lowercase name of the dependency kind.
func (k DepKind) String() string {
	switch k {
	case KindTight:
		return "tight"
	case KindLazy:
		return "lazy"
	case KindOneTime:
		return "once"
	default:
		return fmt.Sprintf("kind(%d)", int8(k))
	}
}

// Dep is a directed reference from a dependent node to a target node. The
// edge is owned by the dependent; the target is looked up by id in the
// repository, never held as a pointer.
type Dep struct {
	// Target is the id of the precondition this edge points at.
	Target ID
	// Kind selects the resolution semantics.
	Kind DepKind

	// satisfiedOnce latches the first time the target resolves Satisfied.
	// It is never reset.
	satisfiedOnce atomic.Bool
}

// Tight returns a tight dependency edge on target.
func Tight(target ID) *Dep {
	return &Dep{Target: target, Kind: KindTight}
}

// Lazy returns a lazy dependency edge on target.
func Lazy(target ID) *Dep {
	return &Dep{Target: target, Kind: KindLazy}
}

// Once returns a one-time dependency edge on target.
func Once(target ID) *Dep {
	return &Dep{Target: target, Kind: KindOneTime}
}

// WasSatisfiedOnce reports whether the target has ever resolved Satisfied
// through this edge.
func (d *Dep) WasSatisfiedOnce() bool {
	return d.satisfiedOnce.Load()
}

// needsResolution reports whether the edge requires its target to produce a
// result during the owning node's evaluation.
func (d *Dep) needsResolution() bool {
	return !(d.Kind == KindOneTime && d.satisfiedOnce.Load())
}
