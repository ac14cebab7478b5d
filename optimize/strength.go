package optimize

import (
	"math/bits"

	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/cfg"
	"github.com/hexashader/hxlc/il"
)

// StrengthReduce rewrites multiply/divide by power-of-two integer constants
// into shifts, and `x % 2^k` (unsigned) into a mask (spec.md §4.6.4).
type StrengthReduce struct{}

func NewStrengthReduce() *StrengthReduce { return &StrengthReduce{} }

func (s *StrengthReduce) Name() string { return "StrengthReduction" }

func (s *StrengthReduce) Run(graph *cfg.ControlFlowGraph) Result {
	changed := false
	for _, b := range graph.Blocks {
		for i := range b.Instructions {
			instr := &b.Instructions[i]
			if instr.Op != il.OpBinary {
				continue
			}
			if rewritten, ok := reduceBinary(*instr); ok {
				*instr = rewritten
				changed = true
			}
		}
	}
	if changed {
		return Changed
	}
	return None
}

func reduceBinary(instr il.Instruction) (il.Instruction, bool) {
	isUnsigned := isUnsignedKind(instr.LHS.Kind) || isUnsignedKind(instr.RHS.Kind)

	switch instr.BinOp {
	case ast.OpMul:
		if k, ok := powerOfTwo(instr.RHS); ok {
			return il.Binary(instr.Result, ast.OpShl, instr.LHS, il.ConstOperand(il.I32Const(int32(k)))), true
		}
		if k, ok := powerOfTwo(instr.LHS); ok {
			return il.Binary(instr.Result, ast.OpShl, instr.RHS, il.ConstOperand(il.I32Const(int32(k)))), true
		}
	case ast.OpDiv:
		if k, ok := powerOfTwo(instr.RHS); ok && (isUnsigned || nonNegativeConst(instr.LHS)) {
			return il.Binary(instr.Result, ast.OpShr, instr.LHS, il.ConstOperand(il.I32Const(int32(k)))), true
		}
	case ast.OpMod:
		if k, ok := powerOfTwo(instr.RHS); ok && isUnsigned {
			mask := int64(1)<<uint(k) - 1
			return il.Binary(instr.Result, ast.OpBitAnd, instr.LHS, il.ConstOperand(il.I32Const(int32(mask)))), true
		}
	}
	return instr, false
}

// powerOfTwo reports whether op is a positive power-of-two integer
// constant, returning its base-2 log.
func powerOfTwo(op il.Operand) (int, bool) {
	if !isConstKind(op.Kind) || isFloatOperand(op) {
		return 0, false
	}
	v := int64(op.Const.Bits)
	if v <= 0 || v&(v-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros64(uint64(v)), true
}

func nonNegativeConst(op il.Operand) bool {
	return isConstKind(op.Kind) && !isFloatOperand(op) && int64(op.Const.Bits) >= 0
}

func isUnsignedKind(k il.OperandKind) bool {
	switch k {
	case il.OperandImmU8, il.OperandImmU16, il.OperandImmU32, il.OperandImmU64:
		return true
	}
	return false
}
