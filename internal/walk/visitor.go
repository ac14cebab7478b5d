// Package walk implements the generic depth-first traversal with deferral
// queue used by the symbol resolver and the type checker over the AST
// (through ast.Walk). It is grounded on the original compiler's
// HXSLVisitor<DeferralContext> template: a node stack for pre/post visits
// plus a side FIFO queue for nodes whose visit result says "not yet,
// revisit me after everything else".
package walk

// Behavior is the visitor's instruction to the traversal driver.
type Behavior int

const (
	// Break stops the traversal immediately.
	Break Behavior = iota
	// Skip does not descend into this node's children.
	Skip
	// Keep descends into children normally and will call VisitClose on the
	// way back up.
	Keep
	// Defer parks the node on the deferral queue; it is revisited in bounded
	// retry rounds after all non-deferred nodes have been processed, with
	// deferred=true only on the final round.
	Defer
)

type frame[N any] struct {
	node    N
	depth   int
	closing bool
}

type deferredEntry[N any, C any] struct {
	node  N
	depth int
	ctx   C
}

// Traverse runs a depth-first walk of root using children to enumerate each
// node's descendants in declaration order. visit is called pre-order (and
// again, with deferred=true only on the final retry round, for anything it
// asked to Defer); visitClose is called post-order for nodes that returned
// Keep, whether on the initial visit or a later deferred retry. A fresh
// zero-value DeferralContext C is created for every non-deferred visit call
// and handed back unchanged on re-visit.
//
// A node that returns Defer still has its children visited normally in the
// same initial pass — deferral parks only the node's own finalization, not
// its subtree, so a parent that depends on an unresolved child (e.g. a
// member-access chain depending on its own LHS chain) sees that child
// resolved by the time the parent is retried.
func Traverse[N any, C any](
	root N,
	children func(N) []N,
	visit func(node N, depth int, deferred bool, ctx *C) Behavior,
	visitClose func(node N, depth int),
) {
	var stack []frame[N]
	stack = append(stack, frame[N]{node: root, depth: 0})
	var deferredQueue []deferredEntry[N, C]

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if top.closing {
			if visitClose != nil {
				visitClose(top.node, top.depth)
			}
			continue
		}

		var ctx C
		result := visit(top.node, top.depth, false, &ctx)

		switch result {
		case Break:
			return
		case Skip:
			continue
		case Defer:
			deferredQueue = append(deferredQueue, deferredEntry[N, C]{node: top.node, depth: top.depth, ctx: ctx})
		default: // Keep
			stack = append(stack, frame[N]{node: top.node, depth: top.depth, closing: true})
		}

		kids := children(top.node)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame[N]{node: kids[i], depth: top.depth + 1})
		}
	}

	// Deferred nodes drain in rounds: a node deferred because a sibling
	// deferred node it depends on hasn't resolved yet gets another chance
	// once that sibling's own round completes. A chain of N dependent
	// deferred nodes converges in at most N rounds, so that bounds the
	// round count; the final round passes deferred=true so a visit func
	// that still can't resolve commits to a permanent outcome instead of
	// deferring forever.
	maxRounds := len(deferredQueue) + 1
	for round := 0; len(deferredQueue) > 0 && round < maxRounds; round++ {
		final := round == maxRounds-1
		pending := deferredQueue
		deferredQueue = nil
		for _, entry := range pending {
			ctx := entry.ctx
			result := visit(entry.node, entry.depth, final, &ctx)
			switch result {
			case Break:
				return
			case Defer:
				if !final {
					deferredQueue = append(deferredQueue, deferredEntry[N, C]{node: entry.node, depth: entry.depth, ctx: ctx})
				}
			case Keep:
				if visitClose != nil {
					visitClose(entry.node, entry.depth)
				}
			}
		}
	}
}
