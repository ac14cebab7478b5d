package config_test

import (
	"strings"
	"testing"

	"github.com/hexashader/hxlc/cfg"
	"github.com/hexashader/hxlc/config"
	"github.com/hexashader/hxlc/diag"
	"github.com/hexashader/hxlc/internal/arena"
	"github.com/hexashader/hxlc/optimize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedPass struct{ name string }

func (p namedPass) Name() string                            { return p.name }
func (p namedPass) Run(_ *cfg.ControlFlowGraph) optimize.Result { return optimize.None }

func TestLoadDecodesOptionsDocument(t *testing.T) {
	doc := `
errorBudget: 5
severityOverrides:
  HL100: warning
disabledPasses:
  - unroll
  - strength-reduce
`
	opts, err := config.Load(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 5, opts.ErrorBudget)
	assert.Equal(t, "warning", opts.SeverityOverrides["HL100"])
	assert.Equal(t, []string{"unroll", "strength-reduce"}, opts.DisabledPasses)
}

func TestLoadEmptyDocumentYieldsZeroOptions(t *testing.T) {
	opts, err := config.Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, opts.ErrorBudget)
	assert.Nil(t, opts.SeverityOverrides)
}

func TestApplyInstallsErrorBudgetAndSeverityOverride(t *testing.T) {
	opts := &config.Options{
		ErrorBudget:       2,
		SeverityOverrides: map[string]string{string(diag.SymbolNotFound): "warning"},
	}
	var bag diag.Bag
	require.NoError(t, opts.Apply(&bag))

	bag.Reportf(diag.SymbolNotFound, diag.Error, arena.TextSpan{}, "x")
	assert.False(t, bag.HasErrors(), "severity override should have downgraded this diagnostic")

	bag.Reportf(diag.TypeMismatch, diag.Error, arena.TextSpan{}, "y")
	bag.Reportf(diag.TypeMismatch, diag.Error, arena.TextSpan{}, "z")
	assert.True(t, bag.Aborted(), "two real errors should hit the overridden budget of 2")
}

func TestApplyRejectsUnknownSeverityName(t *testing.T) {
	opts := &config.Options{SeverityOverrides: map[string]string{"HL100": "catastrophic"}}
	var bag diag.Bag
	assert.Error(t, opts.Apply(&bag))
}

func TestFilterPassesDropsDisabledByName(t *testing.T) {
	opts := &config.Options{DisabledPasses: []string{"b"}}
	passes := []optimize.Pass{namedPass{"a"}, namedPass{"b"}, namedPass{"c"}}

	filtered := opts.FilterPasses(passes)
	require.Len(t, filtered, 2)
	assert.Equal(t, "a", filtered[0].Name())
	assert.Equal(t, "c", filtered[1].Name())
}

func TestFilterPassesNilOptionsIsNoop(t *testing.T) {
	passes := []optimize.Pass{namedPass{"a"}}
	var opts *config.Options
	assert.Equal(t, passes, opts.FilterPasses(passes))
}
