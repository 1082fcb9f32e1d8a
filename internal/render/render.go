// Package render maps precondition statuses to user-facing terminal output.
// It is a default implementation of the status rendering hook; the engine
// itself only exposes per-node statuses.
package render

import (
	"fmt"
	"io"

	"github.com/vk/preflight/internal/precond"
)

// glyph returns the marker for a state.
func glyph(s precond.State) string {
	switch s {
	case precond.StateSatisfied:
		return "✅"
	case precond.StateFailed:
		return "❌"
	case precond.StateRunning:
		return "⏳"
	default:
		return "❔"
	}
}

// Line renders one node as a single summary line.
func Line(n *precond.Node) string {
	st := n.Status()
	switch {
	case st.Err() != nil:
		return fmt.Sprintf("%s %s | %s: %v", glyph(st.State()), n.ID(), st.State(), st.Err())
	case st.Data() != nil:
		return fmt.Sprintf("%s %s | %s (%v)", glyph(st.State()), n.ID(), st.State(), st.Data())
	default:
		return fmt.Sprintf("%s %s | %s", glyph(st.State()), n.ID(), st.State())
	}
}

// Summary writes one line per node and returns the number of unsatisfied
// preconditions.
func Summary(w io.Writer, nodes []*precond.Node) int {
	unsatisfied := 0
	for _, n := range nodes {
		fmt.Fprintln(w, Line(n))
		if n.Status().IsNotSatisfied() {
			unsatisfied++
		}
	}
	return unsatisfied
}
