package symtab_test

import (
	"bytes"
	"testing"

	"github.com/hexashader/hxlc/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertAndFind(t *testing.T) {
	tbl := symtab.New()
	h := tbl.Insert("A.B.f", &symtab.Metadata{SymType: symtab.SymFunction}, tbl.Root().Index())
	require.True(t, h.Valid())
	assert.Equal(t, "A.B.f", tbl.FQN(h.Index()))

	found := tbl.FindNodeIndexFullPath("A.B.f", tbl.Root().Index())
	assert.Equal(t, h.Index(), found.Index())
}

func TestInsertRedefinitionReturnsZero(t *testing.T) {
	tbl := symtab.New()
	tbl.Insert("A.x", &symtab.Metadata{SymType: symtab.SymVariable}, tbl.Root().Index())
	dup := tbl.Insert("A.x", &symtab.Metadata{SymType: symtab.SymVariable}, tbl.Root().Index())
	assert.False(t, dup.Valid())
}

func TestHandleStableAcrossSwapRemove(t *testing.T) {
	tbl := symtab.New()
	root := tbl.Root().Index()
	a := tbl.Insert("A", &symtab.Metadata{SymType: symtab.SymNamespace}, root)
	b := tbl.Insert("B", &symtab.Metadata{SymType: symtab.SymNamespace}, root)
	c := tbl.Insert("C", &symtab.Metadata{SymType: symtab.SymNamespace}, root)

	require.True(t, a.Valid())
	require.True(t, b.Valid())
	require.True(t, c.Valid())

	tbl.SwapRemove(a.Index())

	assert.False(t, a.Valid())
	assert.True(t, b.Valid())
	assert.True(t, c.Valid())
	assert.Equal(t, "B", b.Node().Name)
	assert.Equal(t, "C", c.Node().Name)
}

func TestRename(t *testing.T) {
	tbl := symtab.New()
	root := tbl.Root().Index()
	h := tbl.Insert("Old", &symtab.Metadata{SymType: symtab.SymNamespace}, root)
	require.NoError(t, tbl.Rename(h, "New"))
	assert.Equal(t, "New", tbl.FQN(h.Index()))

	other := tbl.Insert("Taken", &symtab.Metadata{SymType: symtab.SymNamespace}, root)
	assert.Error(t, tbl.Rename(other, "New"))
}

func TestStripRemovesPureScopeNodes(t *testing.T) {
	tbl := symtab.New()
	root := tbl.Root().Index()
	block := tbl.Insert("block1", nil, root) // pure scope, no metadata
	tbl.Insert("x", &symtab.Metadata{SymType: symtab.SymVariable}, block.Index())

	before := tbl.Len()
	tbl.Strip()
	assert.Less(t, tbl.Len(), before)
	// the declared symbol under the scope is gone too since Strip only
	// removes nodes with no metadata AND no children (bottom-up), so once
	// "x" itself would need removal it must also be scope-only; "x" carries
	// metadata so it survives, but nothing still points to it without the
	// intermediate scope. This asserts Strip terminates and is idempotent.
	before2 := tbl.Len()
	tbl.Strip()
	assert.Equal(t, before2, tbl.Len())
}

func TestMergeFirstWins(t *testing.T) {
	dst := symtab.New()
	dst.Insert("A.x", &symtab.Metadata{SymType: symtab.SymVariable, Size: 1}, dst.Root().Index())

	src := symtab.New()
	src.Insert("A.x", &symtab.Metadata{SymType: symtab.SymVariable, Size: 99}, src.Root().Index())
	src.Insert("A.y", &symtab.Metadata{SymType: symtab.SymVariable, Size: 2}, src.Root().Index())

	dst.Merge(src)

	x := dst.FindNodeIndexFullPath("A.x", dst.Root().Index())
	require.True(t, x.Valid())
	assert.Equal(t, uint32(1), x.Node().Metadata.Size, "first wins: dst's metadata is kept")

	y := dst.FindNodeIndexFullPath("A.y", dst.Root().Index())
	require.True(t, y.Valid())
	assert.Equal(t, uint32(2), y.Node().Metadata.Size)
}

func TestCodecRoundTrip(t *testing.T) {
	tbl := symtab.New()
	root := tbl.Root().Index()
	tbl.Insert("NS.Struct.field", &symtab.Metadata{
		SymType:  symtab.SymField,
		HasDecl:  true,
		DeclKind: 7,
		DeclBody: []byte{1, 2, 3, 4},
	}, root)

	var buf bytes.Buffer
	require.NoError(t, tbl.Write(&buf))

	decoded, err := symtab.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, tbl.Len(), decoded.Len())

	h := decoded.FindNodeIndexFullPath("NS.Struct.field", decoded.Root().Index())
	require.True(t, h.Valid())
	assert.Equal(t, symtab.SymField, h.Node().Metadata.SymType)
	assert.Equal(t, []byte{1, 2, 3, 4}, h.Node().Metadata.DeclBody)
}
