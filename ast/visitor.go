package ast

import "github.com/hexashader/hxlc/internal/walk"

// VisitFunc is called pre-order (and again for anything that returned
// walk.Defer, with deferred=true only on the final retry round) during a Walk. C mirrors the original compiler's
// per-visit DeferralContext (Design Note, §9): a fresh zero value is created
// for each new visit and handed back unchanged on re-visit.
type VisitFunc[C any] func(node Node, depth int, deferred bool, ctx *C) walk.Behavior

// Walk drives a generic depth-first traversal over an AST rooted at root,
// using the shared internal/walk deferral-queue traversal (spec.md's "CFG
// visitor framework" component, reused here for AST resolution).
func Walk[C any](root Node, visit VisitFunc[C], visitClose func(Node, int)) {
	walk.Traverse[Node, C](root, Node.Children, visit, visitClose)
}
