package resolve

import (
	"fmt"

	"github.com/hexashader/hxlc/assembly"
	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/diag"
	"github.com/hexashader/hxlc/internal/walk"
	"github.com/hexashader/hxlc/types"
)

// Checker performs bottom-up type inference over expression trees (spec.md
// §4.3). It relies on ast.Walk's Keep/visitClose pairing to give it exactly
// the "push children, then compute once children are done" shape the
// lazyEvalState counter describes: a node transitions NotVisited ->
// ChildrenPushed on the pre-order visit (Keep), and is computed in
// visitClose once every child has already been computed.
type Checker struct {
	asm          *assembly.Assembly
	bag          *diag.Bag
	currentFuncs []*ast.Function
}

func NewChecker(asm *assembly.Assembly, bag *diag.Bag) *Checker { return &Checker{asm: asm, bag: bag} }

// Unit type-checks every function/operator/constructor body in unit.
func (c *Checker) Unit(unit *ast.CompilationUnit) {
	for _, ns := range unit.Namespaces {
		for _, d := range ns.Decls {
			ast.Walk[struct{}](d, c.visit, c.visitClose)
		}
	}
}

func (c *Checker) visit(node ast.Node, depth int, deferred bool, ctx *struct{}) walk.Behavior {
	switch n := node.(type) {
	case *ast.Function:
		c.currentFuncs = append(c.currentFuncs, n)
	case ast.Expr:
		if n.LazyState() == ast.NotVisited {
			n.SetLazyState(ast.ChildrenPushed)
		}
	}
	return walk.Keep
}

func (c *Checker) visitClose(node ast.Node, depth int) {
	switch n := node.(type) {
	case *ast.Function:
		c.currentFuncs = c.currentFuncs[:len(c.currentFuncs)-1]
	case *ast.ReturnStmt:
		c.checkReturn(n)
	case ast.Expr:
		if n.LazyState() == ast.ChildrenPushed {
			c.infer(n)
			n.SetLazyState(ast.Done)
		}
	}
}

func (c *Checker) infer(e ast.Expr) {
	switch n := e.(type) {
	case *ast.LiteralExpr:
		n.SetInferredType(primitiveForNumber(n.Value.Kind, n.Bool != nil))
	case *ast.IdentifierExpr:
		if n.Ref != nil && n.Ref.State == ast.Resolved {
			n.SetInferredType(n.Ref.Target)
		}
	case *ast.ThisExpr:
		// 'this' type is the enclosing aggregate, not separately tracked here;
		// left nil when unavailable rather than guessed.
	case *ast.ChainExpr:
		if n.Segment != nil && n.Segment.State == ast.Resolved {
			n.SetInferredType(n.Segment.Target)
		}
	case *ast.SwizzleExpr:
		// Swizzle result shape depends on pattern length; left to the IL
		// lowering stage, which has direct access to the element primitive.
	case *ast.BinaryExpr:
		c.inferBinary(n)
	case *ast.UnaryExpr:
		c.inferUnary(n)
	case *ast.AssignExpr:
		n.SetInferredType(n.LHS.InferredType())
	case *ast.CallExpr:
		c.inferCall(n)
	case *ast.CastExpr:
		n.SetInferredType(n.TargetRef.Target)
	case *ast.IndexExpr:
		n.SetInferredType(n.Base_.InferredType())
	}
}

func primitiveForNumber(kind ast.NumberKind, isBool bool) *ast.SymbolDef {
	if isBool {
		return types.Instance().Lookup("bool")
	}
	name := map[ast.NumberKind]string{
		ast.NumI8: "int8", ast.NumU8: "uint8", ast.NumI16: "int16", ast.NumU16: "uint16",
		ast.NumI32: "int", ast.NumU32: "uint", ast.NumI64: "int64", ast.NumU64: "uint64",
		ast.NumF16: "half", ast.NumF32: "float", ast.NumF64: "double",
	}[kind]
	return types.Instance().Lookup(name)
}

// inferBinary implements spec.md §4.3's numeric promotion table plus
// operator-overload fallback.
func (c *Checker) inferBinary(b *ast.BinaryExpr) {
	lhs, rhs := b.LHS.InferredType(), b.RHS.InferredType()
	if lhs == nil || rhs == nil {
		return
	}
	switch {
	case isComparison(b.Op):
		b.SetInferredType(types.Instance().Lookup("bool"))
		return
	case isLogical(b.Op):
		if !isBoolType(lhs) || !isBoolType(rhs) {
			c.bag.Reportf(diag.TypeMismatch, diag.Error, b.Span(), "logical operator requires bool operands")
		}
		b.SetInferredType(types.Instance().Lookup("bool"))
		return
	}

	if lhs.FQN() == rhs.FQN() {
		b.SetInferredType(lhs)
		return
	}

	if winner, ok := promoteByRank(lhs, rhs); ok {
		b.SetInferredType(winner)
		return
	}

	sig := fmt.Sprintf("%c(%s,%s)", b.Op.Symbol(), lhs.FQN(), rhs.FQN())
	if h := types.Instance().FindOperator(lhs, sig); h.Valid() {
		b.SetInferredType(lhs)
		return
	}
	c.bag.Reportf(diag.NoOverload, diag.Error, b.Span(), "no overload for %q", sig)
}

func isComparison(op ast.BinaryOp) bool {
	switch op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return true
	}
	return false
}

func isLogical(op ast.BinaryOp) bool { return op == ast.OpLogAnd || op == ast.OpLogOr }

func isBoolType(def *ast.SymbolDef) bool {
	if def == nil || !def.Handle.Valid() || def.Handle.Node().Metadata == nil {
		return false
	}
	info := types.DecodePrimitiveInfo(def.Handle.Node().Metadata.DeclBody)
	return info.Scalar == types.ScalarBool
}

// promoteByRank implements spec.md §4.3 step 2: same primitive-class,
// matching shape, promote by scalar rank.
func promoteByRank(lhs, rhs *ast.SymbolDef) (*ast.SymbolDef, bool) {
	if !lhs.Handle.Valid() || !rhs.Handle.Valid() {
		return nil, false
	}
	lm, rm := lhs.Handle.Node().Metadata, rhs.Handle.Node().Metadata
	if lm == nil || rm == nil || lm.SymType != rm.SymType {
		return nil, false
	}
	li, ri := types.DecodePrimitiveInfo(lm.DeclBody), types.DecodePrimitiveInfo(rm.DeclBody)
	if li.Class != ri.Class {
		return nil, false
	}
	if li.Scalar.Rank() < 0 || ri.Scalar.Rank() < 0 {
		return nil, false
	}
	if li.Scalar.Rank() >= ri.Scalar.Rank() {
		return lhs, true
	}
	return rhs, true
}

func (c *Checker) inferUnary(u *ast.UnaryExpr) {
	operandType := u.Operand.InferredType()
	if operandType == nil {
		return
	}
	if (u.Op == ast.OpIncPre || u.Op == ast.OpDecPre || u.Op == ast.OpIncPost || u.Op == ast.OpDecPost) && !ast.Assignable(u.Operand) {
		c.bag.Reportf(diag.TypeMismatch, diag.Error, u.Span(), "increment/decrement requires an assignable operand")
	}
	u.SetInferredType(operandType)
}

// candidateScore pairs an overload candidate with its summed per-argument
// implicit-cast distance and the distance of each individual argument, the
// latter reused when wrapping arguments in CastExpr on a win.
type candidateScore struct {
	fn    *ast.Function
	total int
	dists []int
}

// inferCall builds the candidate set by name within the callee's declaring
// scope, filters by arity, and scores each survivor as the sum of
// per-argument implicit-cast distances (spec.md §4.3 "Function calls"). The
// unique minimum-score candidate wins and its return type is adopted;
// arguments whose distance is nonzero are wrapped in an implicit CastExpr.
// A tie at the minimum score is reported as an ambiguous call; no candidate
// convertible at every argument is reported as no matching overload.
func (c *Checker) inferCall(call *ast.CallExpr) {
	if call.CalleeRef == nil || call.CalleeRef.State != ast.Resolved || !call.CalleeRef.Target.Handle.Valid() {
		return
	}
	scope := call.CalleeRef.Target.Handle.Node().Parent
	candidates := c.asm.Overloads(scope, call.CalleeRef.Name)
	if len(candidates) == 0 {
		return
	}

	var best []candidateScore
	for _, fn := range candidates {
		score, ok := scoreCandidate(fn, call.Args)
		if !ok {
			continue
		}
		switch {
		case len(best) == 0 || score.total < best[0].total:
			best = []candidateScore{score}
		case score.total == best[0].total:
			best = append(best, score)
		}
	}

	switch {
	case len(best) == 0:
		c.bag.Reportf(diag.NoOverload, diag.Error, call.Span(), "no overload of %q matches the argument types", call.CalleeRef.Name)
		return
	case len(best) > 1:
		c.bag.Reportf(diag.AmbiguousCall, diag.Error, call.Span(), "ambiguous call to %q", call.CalleeRef.Name)
		return
	}

	win := best[0]
	for i, dist := range win.dists {
		if dist == 0 {
			continue
		}
		paramType := win.fn.Params[i].TypeRef.Target
		cast := &ast.CastExpr{
			TargetRef: &ast.SymbolRef{Name: paramType.FQN(), Expected: ast.RefType, State: ast.Resolved, Target: paramType},
			Source:    call.Args[i],
			Implicit:  true,
			Rank:      dist,
		}
		cast.SetInferredType(paramType)
		call.Args[i] = cast
	}
	call.SetInferredType(returnTypeOf(win.fn))
}

// scoreCandidate reports fn's overload score against args, or ok=false if
// the arity doesn't match or any argument lacks an implicit cast to fn's
// corresponding parameter type.
func scoreCandidate(fn *ast.Function, args []ast.Expr) (candidateScore, bool) {
	if len(fn.Params) != len(args) {
		return candidateScore{}, false
	}
	dists := make([]int, len(args))
	total := 0
	for i, arg := range args {
		param := fn.Params[i]
		if param.TypeRef == nil || param.TypeRef.State != ast.Resolved {
			return candidateScore{}, false
		}
		dist, convertible := implicitCastDistance(arg.InferredType(), param.TypeRef.Target)
		if !convertible {
			return candidateScore{}, false
		}
		dists[i] = dist
		total += dist
	}
	return candidateScore{fn: fn, total: total, dists: dists}, true
}

// implicitCastDistance implements spec.md §4.3 "Casts" ranked insertion for
// overload scoring: same type is rank 0; an available implicit cast ranks by
// the target primitive kind's ordinal distance; anything else is
// unassignable.
func implicitCastDistance(from, to *ast.SymbolDef) (int, bool) {
	if from == nil || to == nil {
		return 0, false
	}
	if from.FQN() == to.FQN() {
		return 0, true
	}
	if !from.Handle.Valid() || !to.Handle.Valid() {
		return 0, false
	}
	sig := fmt.Sprintf("#%s(%s)", to.FQN(), from.FQN())
	h := types.Instance().FindOperator(from, sig)
	if !h.Valid() || h.Node().Metadata == nil {
		return 0, false
	}
	info := types.DecodeOperatorInfo(h.Node().Metadata.DeclBody)
	if !info.Implicit {
		return 0, false
	}
	toInfo := types.DecodePrimitiveInfo(to.Handle.Node().Metadata.DeclBody)
	return toInfo.Scalar.Rank(), true
}

// returnTypeOf returns fn's own resolved return type, nil if it never
// resolved (e.g. a built-in or forward-declared signature not yet checked).
func returnTypeOf(fn *ast.Function) *ast.SymbolDef {
	if fn.ReturnRef == nil || fn.ReturnRef.State != ast.Resolved {
		return nil
	}
	return fn.ReturnRef.Target
}

func (c *Checker) checkReturn(ret *ast.ReturnStmt) {
	if len(c.currentFuncs) == 0 || ret.Value == nil {
		return
	}
	fn := c.currentFuncs[len(c.currentFuncs)-1]
	if fn.ReturnRef == nil || fn.ReturnRef.State != ast.Resolved {
		return
	}
	valType := ret.Value.InferredType()
	if valType == nil {
		return
	}
	want := fn.ReturnRef.Target
	if valType.FQN() == want.FQN() {
		return
	}
	if _, ok := promoteByRank(valType, want); ok {
		return
	}
	sig := fmt.Sprintf("#%s(%s)", want.FQN(), valType.FQN())
	if h := types.Instance().FindOperator(valType, sig); h.Valid() {
		return
	}
	c.bag.Reportf(diag.TypeMismatch, diag.Error, ret.Span(), "cannot convert return value of type %q to %q", valType.FQN(), want.FQN())
}
