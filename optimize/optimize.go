// Package optimize implements the IL optimizer passes (spec.md §4.6) and
// their fixed-order scheduler.
package optimize

import "github.com/hexashader/hxlc/cfg"

// Result is a pass's outcome: None leaves the schedule where it is,
// Changed advances to the next pass, Rerun restarts the pipeline from the
// first pass (spec.md §4.6 "Scheduler").
type Result int

const (
	None Result = iota
	Changed
	Rerun
)

// Pass is one optimizer pass operating over a function's control-flow
// graph.
type Pass interface {
	Name() string
	Run(g *cfg.ControlFlowGraph) Result
}

// maxRestarts bounds the scheduler's rerun loop; each pass itself also
// bounds its own per-application count (spec.md §4.6 "Termination is
// guaranteed by bounding per-pass application counts").
const maxRestarts = 64

// Run drives passes in a fixed order, restarting from the first pass
// whenever one returns Rerun. It returns after the first full trip in which
// no pass returns Rerun (every pass returned None or Changed), or after
// maxRestarts trips.
func Run(g *cfg.ControlFlowGraph, passes []Pass) {
	for restart := 0; restart < maxRestarts; restart++ {
		rerun := false
		for _, p := range passes {
			switch p.Run(g) {
			case Rerun:
				rerun = true
			case Changed:
				g.Recompute()
			}
			if rerun {
				break
			}
		}
		if !rerun {
			return
		}
		g.Recompute()
	}
}

// DefaultPasses returns the fixed pass order used by Run: GVN, algebraic
// simplification, reassociation, strength reduction, then loop unrolling.
func DefaultPasses() []Pass {
	return []Pass{
		NewGVN(),
		NewSimplifier(),
		NewReassociate(),
		NewStrengthReduce(),
		NewUnroller(),
	}
}
