package assembly_test

import (
	"testing"

	"github.com/hexashader/hxlc/assembly"
	"github.com/hexashader/hxlc/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	a := assembly.Create("shaders.core")
	root := a.Table().Root().Index()
	h := a.Insert("Util.square", &symtab.Metadata{SymType: symtab.SymFunction}, root)
	require.True(t, h.Valid())
	a.ILPayload = []byte{0x01, 0x02, 0x03}

	data, err := assembly.Encode(a)
	require.NoError(t, err)

	got, err := assembly.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, a.ILPayload, got.ILPayload)

	found := got.Table().FindNodeIndexFullPath("Util.square", got.Table().Root().Index())
	assert.True(t, found.Valid())
}

func TestDecodeRejectsTruncatedStream(t *testing.T) {
	_, err := assembly.Decode([]byte{1, 2, 3})
	require.Error(t, err)
	var loadErr *assembly.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, assembly.Truncated, loadErr.Kind)
}

func TestDecodeRejectsCorruptedDigest(t *testing.T) {
	a := assembly.Create("x")
	data, err := assembly.Encode(a)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xFF

	_, err = assembly.Decode(data)
	require.Error(t, err)
	var loadErr *assembly.LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, assembly.ChecksumMismatch, loadErr.Kind)
}
