package optimize

import (
	"math"

	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/cfg"
	"github.com/hexashader/hxlc/il"
)

// Simplifier implements the algebraic simplifier (spec.md §4.6.2):
// per-block identity rewrites and constant folding on binary
// instructions, re-examining downstream definitions after any rewrite.
type Simplifier struct{}

func NewSimplifier() *Simplifier { return &Simplifier{} }

func (s *Simplifier) Name() string { return "AlgebraicSimplifier" }

func (s *Simplifier) Run(graph *cfg.ControlFlowGraph) Result {
	changed := false

	for _, b := range graph.Blocks {
		for i := range b.Instructions {
			instr := &b.Instructions[i]
			if instr.Op != il.OpBinary {
				continue
			}

			if folded, ok := constantFold(*instr); ok {
				*instr = folded
				changed = true
			} else if rewritten, ok := identityRewrite(*instr); ok {
				*instr = rewritten
				changed = true
			}
		}
	}

	if changed {
		return Rerun
	}
	return None
}

// identityRewrite applies spec.md §4.6.2's fixed rewrite-rule set.
func identityRewrite(instr il.Instruction) (il.Instruction, bool) {
	lhsZero, rhs1, rhsZero := isZero(instr.LHS), isOne(instr.RHS), isZero(instr.RHS)
	lhsOne := isOne(instr.LHS)
	sameVar := sameVariable(instr.LHS, instr.RHS)
	rhsNegOne := isNegOne(instr.RHS)

	switch instr.BinOp {
	case ast.OpAdd:
		if rhsZero {
			return il.Move(instr.Result, instr.LHS), true
		}
		if lhsZero {
			return il.Move(instr.Result, instr.RHS), true
		}
	case ast.OpSub:
		if rhsZero {
			return il.Move(instr.Result, instr.LHS), true
		}
		if lhsZero {
			return il.Unary(instr.Result, ast.OpNeg, instr.RHS), true
		}
		if sameVar {
			return il.Move(instr.Result, il.ConstOperand(il.I32Const(0))), true
		}
	case ast.OpMul:
		if lhsZero || rhsZero {
			return il.Move(instr.Result, il.ConstOperand(il.I32Const(0))), true
		}
		if rhs1 {
			return il.Move(instr.Result, instr.LHS), true
		}
		if lhsOne {
			return il.Move(instr.Result, instr.RHS), true
		}
		if rhsNegOne {
			return il.Unary(instr.Result, ast.OpNeg, instr.LHS), true
		}
	case ast.OpDiv:
		if rhs1 {
			return il.Move(instr.Result, instr.LHS), true
		}
	case ast.OpBitAnd:
		if sameVar {
			return il.Move(instr.Result, instr.LHS), true
		}
	case ast.OpBitOr:
		if sameVar {
			return il.Move(instr.Result, instr.LHS), true
		}
	case ast.OpBitXor:
		if sameVar {
			return il.Move(instr.Result, il.ConstOperand(il.I32Const(0))), true
		}
	}
	return instr, false
}

func sameVariable(a, b il.Operand) bool {
	return a.Kind == il.OperandVariable && b.Kind == il.OperandVariable && a.Var == b.Var
}

func isConstKind(k il.OperandKind) bool {
	return k >= il.OperandImmU8 && k <= il.OperandImmF64
}

func isZero(op il.Operand) bool  { return isConstKind(op.Kind) && asFloat(op.Const) == 0 }
func isOne(op il.Operand) bool   { return isConstKind(op.Kind) && asFloat(op.Const) == 1 }
func isNegOne(op il.Operand) bool { return isConstKind(op.Kind) && asFloat(op.Const) == -1 }

// constantFold evaluates both-constant binary operands using Number's
// kind-aware arithmetic with C-style promotion to the wider operand.
func constantFold(instr il.Instruction) (il.Instruction, bool) {
	if !isConstKind(instr.LHS.Kind) || !isConstKind(instr.RHS.Kind) {
		return instr, false
	}
	l, r := instr.LHS.Const, instr.RHS.Const
	kind := widerKind(l.Kind, r.Kind)
	isFloat := kind == ast.NumF16 || kind == ast.NumF32 || kind == ast.NumF64

	if isFloat {
		lf, rf := asFloat(l), asFloat(r)
		res, ok := foldFloat(instr.BinOp, lf, rf)
		if !ok {
			return instr, false
		}
		return il.Move(instr.Result, il.ConstOperand(il.Number{Kind: kind, Bits: math.Float64bits(res)})), true
	}

	li, ri := int64(l.Bits), int64(r.Bits)
	res, ok := foldInt(instr.BinOp, li, ri)
	if !ok {
		return instr, false
	}
	return il.Move(instr.Result, il.ConstOperand(il.Number{Kind: kind, Bits: uint64(res)})), true
}

func foldInt(op ast.BinaryOp, l, r int64) (int64, bool) {
	switch op {
	case ast.OpAdd:
		return l + r, true
	case ast.OpSub:
		return l - r, true
	case ast.OpMul:
		return l * r, true
	case ast.OpDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	case ast.OpMod:
		if r == 0 {
			return 0, false
		}
		return l % r, true
	case ast.OpBitAnd:
		return l & r, true
	case ast.OpBitOr:
		return l | r, true
	case ast.OpBitXor:
		return l ^ r, true
	case ast.OpShl:
		return l << uint(r), true
	case ast.OpShr:
		return l >> uint(r), true
	}
	return 0, false
}

func foldFloat(op ast.BinaryOp, l, r float64) (float64, bool) {
	switch op {
	case ast.OpAdd:
		return l + r, true
	case ast.OpSub:
		return l - r, true
	case ast.OpMul:
		return l * r, true
	case ast.OpDiv:
		if r == 0 {
			return 0, false
		}
		return l / r, true
	}
	return 0, false
}

func asFloat(n il.Number) float64 {
	switch n.Kind {
	case ast.NumF32:
		return float64(math.Float32frombits(uint32(n.Bits)))
	case ast.NumF64:
		return math.Float64frombits(n.Bits)
	case ast.NumF16:
		return float64(n.Bits) // half-precision bit pattern, compared as-is
	case ast.NumI8:
		return float64(int8(n.Bits))
	case ast.NumI16:
		return float64(int16(n.Bits))
	case ast.NumI32:
		return float64(int32(n.Bits))
	case ast.NumI64:
		return float64(int64(n.Bits))
	default:
		return float64(n.Bits)
	}
}

func widerKind(a, b ast.NumberKind) ast.NumberKind {
	if rankOf(a) >= rankOf(b) {
		return a
	}
	return b
}

func rankOf(k ast.NumberKind) int {
	switch k {
	case ast.NumF64:
		return 10
	case ast.NumF32:
		return 9
	case ast.NumF16:
		return 8
	case ast.NumI64, ast.NumU64:
		return 7
	case ast.NumI32, ast.NumU32:
		return 6
	case ast.NumI16, ast.NumU16:
		return 5
	default:
		return 4
	}
}
