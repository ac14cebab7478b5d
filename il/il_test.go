package il_test

import (
	"testing"

	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/il"
	"github.com/stretchr/testify/assert"
)

func TestVarIdRoundTrip(t *testing.T) {
	v := il.NewVarId(7, 3, 0)
	assert.Equal(t, uint32(7), v.Base())
	assert.Equal(t, uint16(3), v.Version())
	assert.Equal(t, v.StripVersion(), il.NewVarId(7, 0, 0))
	assert.Equal(t, v.WithVersion(9), il.NewVarId(7, 9, 0))
}

func TestOperandKindForConstant(t *testing.T) {
	op := il.ConstOperand(il.I32Const(5))
	assert.Equal(t, il.OperandImmI32, op.Kind)
}

func TestBasicBlockEdges(t *testing.T) {
	a := &il.BasicBlock{ID: 0}
	b := &il.BasicBlock{ID: 1}
	a.AddSucc(b)
	assert.Equal(t, []uint32{1}, a.Succs)
	assert.Equal(t, []uint32{0}, b.Preds)

	a.RemoveSucc(b)
	assert.Empty(t, a.Succs)
	assert.Empty(t, b.Preds)
}

func TestBinaryInstructionBuilder(t *testing.T) {
	v0, v1, dst := il.NewVarId(0, 0, 0), il.NewVarId(1, 0, 0), il.NewVarId(2, 0, 0)
	instr := il.Binary(dst, ast.OpAdd, il.VarOperand(v0), il.VarOperand(v1))
	assert.Equal(t, il.OpBinary, instr.Op)
	assert.True(t, instr.HasResult)
	assert.Equal(t, ast.OpAdd, instr.BinOp)
}
