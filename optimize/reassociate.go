package optimize

import (
	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/cfg"
	"github.com/hexashader/hxlc/il"
)

// Reassociate implements spec.md §4.6.3: recognizes chains of +/- whose
// leaves are base*const terms (and the bare base variable, implicit
// coefficient 1), extracts the single unique base variable and folds the
// chain to base*(sum of coefficients). A chain is left untouched when any of
// its instructions has a floating-point immediate operand (SPEC_FULL.md §8a
// decision (b)); IL variables carry no type, so a chain built only from
// float variables is not detected.
type Reassociate struct {
	defs map[il.VarId]*il.Instruction
}

func NewReassociate() *Reassociate { return &Reassociate{} }

func (r *Reassociate) Name() string { return "ReassociationPass" }

func (r *Reassociate) Run(graph *cfg.ControlFlowGraph) Result {
	r.defs = make(map[il.VarId]*il.Instruction)
	for _, b := range graph.Blocks {
		for i := range b.Instructions {
			instr := &b.Instructions[i]
			if instr.HasResult {
				r.defs[instr.Result] = instr
			}
		}
	}

	changed := false
	for _, b := range graph.Blocks {
		for i := range b.Instructions {
			instr := &b.Instructions[i]
			if instr.Op != il.OpBinary || (instr.BinOp != ast.OpAdd && instr.BinOp != ast.OpSub) {
				continue
			}
			if isFloatOperand(instr.LHS) || isFloatOperand(instr.RHS) {
				continue
			}
			base, coeff, ok := r.extractChain(*instr)
			if !ok {
				continue
			}
			*instr = il.Binary(instr.Result, ast.OpMul, il.VarOperand(base), il.ConstOperand(il.I32Const(int32(coeff))))
			changed = true
		}
	}

	if changed {
		return Changed
	}
	return None
}

func isFloatOperand(op il.Operand) bool {
	switch op.Kind {
	case il.OperandImmF16, il.OperandImmF32, il.OperandImmF64:
		return true
	}
	return false
}

// extractChain walks the +/- worklist accepting only `var` or `var*const`
// leaves (interior nodes are +/- only), accumulating a single coefficient
// over a single unique base variable (spec.md §4.6.3).
func (r *Reassociate) extractChain(root il.Instruction) (il.VarId, int64, bool) {
	type term struct {
		op   il.Operand
		sign int64
	}
	worklist := []term{{root.LHS, 1}, {root.RHS, signOf(root.BinOp)}}

	var base il.VarId
	haveBase := false
	var coeff int64

	for len(worklist) > 0 {
		t := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		if t.op.Kind != il.OperandVariable {
			return 0, 0, false
		}
		def, ok := r.defs[t.op.Var]
		if !ok {
			// bare variable with no tracked definition: leaf, coefficient 1.
			if haveBase && base != t.op.Var {
				return 0, 0, false
			}
			base, haveBase = t.op.Var, true
			coeff += t.sign
			continue
		}

		switch {
		case def.Op == il.OpBinary && (isFloatOperand(def.LHS) || isFloatOperand(def.RHS)):
			return 0, 0, false
		case def.Op == il.OpBinary && (def.BinOp == ast.OpAdd || def.BinOp == ast.OpSub) &&
			!isFloatOperand(def.LHS) && !isFloatOperand(def.RHS):
			worklist = append(worklist, term{def.LHS, t.sign}, term{def.RHS, t.sign * signOf(def.BinOp)})
		case def.Op == il.OpBinary && def.BinOp == ast.OpMul && isConstKind(def.RHS.Kind) && def.LHS.Kind == il.OperandVariable:
			if haveBase && base != def.LHS.Var {
				return 0, 0, false
			}
			base, haveBase = def.LHS.Var, true
			coeff += t.sign * int64(def.RHS.Const.Bits)
		default:
			// not further decomposable: treat the variable itself as the leaf.
			if haveBase && base != t.op.Var {
				return 0, 0, false
			}
			base, haveBase = t.op.Var, true
			coeff += t.sign
		}
	}

	if !haveBase || coeff == 0 {
		return 0, 0, false
	}
	return base, coeff, true
}

func signOf(op ast.BinaryOp) int64 {
	if op == ast.OpSub {
		return -1
	}
	return 1
}
