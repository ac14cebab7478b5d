package diag_test

import (
	"testing"

	"github.com/hexashader/hxlc/diag"
	"github.com/hexashader/hxlc/internal/arena"
	"github.com/stretchr/testify/assert"
)

func arenaSpan() arena.TextSpan { return arena.TextSpan{File: "t.hxsl", Line: 1} }

func TestBagAbortsOnCritical(t *testing.T) {
	var bag diag.Bag
	bag.Report(diag.Diagnostic{Code: diag.UnknownOpcode, Severity: diag.Critical, Message: "bad opcode"})
	assert.True(t, bag.Aborted())
}

func TestBagAbortsAfterMaxErrors(t *testing.T) {
	var bag diag.Bag
	for i := 0; i < 100; i++ {
		bag.Reportf(diag.SymbolNotFound, diag.Error, arenaSpan(), "symbol %d not found", i)
	}
	assert.True(t, bag.Aborted())
}

func TestBagToleratesWarnings(t *testing.T) {
	var bag diag.Bag
	for i := 0; i < 200; i++ {
		bag.Reportf(diag.UseBeforeDeclaration, diag.Warn, arenaSpan(), "warning %d", i)
	}
	assert.False(t, bag.Aborted())
	assert.False(t, bag.HasErrors())
}
