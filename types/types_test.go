package types_test

import (
	"testing"

	"github.com/hexashader/hxlc/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrimitiveManagerPopulatesLattice(t *testing.T) {
	m := types.Instance()
	f4 := m.Lookup("float4")
	require.NotNil(t, f4)
	assert.Equal(t, "float4", f4.FQN())

	scalarFloat := m.Lookup("float")
	require.NotNil(t, scalarFloat)
}

func TestRankOrdering(t *testing.T) {
	assert.Greater(t, types.ScalarF64.Rank(), types.ScalarF32.Rank())
	assert.Greater(t, types.ScalarF32.Rank(), types.ScalarF16.Rank())
	assert.Greater(t, types.ScalarI64.Rank(), types.ScalarI32.Rank())
}

func TestSwizzleValidation(t *testing.T) {
	assert.True(t, types.ValidPattern("xyz", 4))
	assert.True(t, types.ValidPattern("rgba", 4))
	assert.False(t, types.ValidPattern("xyzw", 2)) // index out of row count
	assert.False(t, types.ValidPattern("xr", 4))   // mixed component sets
	assert.False(t, types.ValidPattern("", 4))
}

func TestSwizzleMask(t *testing.T) {
	mask := types.Mask("xyz")
	assert.Equal(t, uint8(0b10_01_00), mask)
}

func TestArithmeticOverloadExists(t *testing.T) {
	m := types.Instance()
	f := m.Lookup("float")
	h := m.FindOperator(f, "+(float,float)")
	assert.True(t, h.Valid())
}

func TestCastOverloadRank(t *testing.T) {
	m := types.Instance()
	i32 := m.Lookup("int")
	h := m.FindOperator(i32, "#float(int)")
	require.True(t, h.Valid())
	info := types.DecodeOperatorInfo(h.Node().Metadata.DeclBody)
	assert.True(t, info.Implicit, "int -> float widens, should be implicit")

	f32 := m.Lookup("float")
	h2 := m.FindOperator(f32, "#int(float)")
	require.True(t, h2.Valid())
	info2 := types.DecodeOperatorInfo(h2.Node().Metadata.DeclBody)
	assert.False(t, info2.Implicit, "float -> int narrows, should not be implicit")
}
