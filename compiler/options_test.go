package compiler_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/compiler"
	"github.com/hexashader/hxlc/config"
	"github.com/hexashader/hxlc/diag"
	"github.com/hexashader/hxlc/internal/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

// optionsFixture bundles a YAML compiler-options document alongside the
// source file it governs in one golden archive, the same txtar shape the
// pack's richer table-driven compiler suites use for multi-file scenarios.
const optionsFixture = `
-- options.yaml --
errorBudget: 5
severityOverrides:
  HL100: warning
-- bad.shd --
namespace N { struct Thing { NoSuchType x; } }
`

func TestCompileAppliesSeverityOverrideFromYAMLOptions(t *testing.T) {
	archive := txtar.Parse([]byte(optionsFixture))
	data := txtarFile(t, archive, "options.yaml")

	opts, err := config.Load(bytes.NewReader(data))
	require.NoError(t, err)

	parser := &stubParser{build: map[string]func(a *arena.Arena) *ast.CompilationUnit{
		"bad.shd": func(a *arena.Arena) *ast.CompilationUnit {
			field := &ast.Field{Def_: ast.SymbolDef{ShortName: id(a, "x")}, TypeRef: refTo("NoSuchType", ast.RefType)}
			st := &ast.Struct{Def_: ast.SymbolDef{ShortName: id(a, "Thing")}, Fields: []*ast.Field{field}}
			ns := &ast.Namespace{Def_: ast.SymbolDef{ShortName: id(a, "N")}, Decls: []ast.Decl{st}}
			return &ast.CompilationUnit{File: "bad.shd", Namespaces: []*ast.Namespace{ns}}
		},
	}}

	sources := []compiler.Source{{Path: "bad.shd"}}
	comp, err := compiler.Compile(context.Background(), "mymodule", sources, parser, nil, opts)
	require.NoError(t, err)

	found := false
	for _, d := range comp.Bag.Items() {
		if d.Code == diag.SymbolNotFound {
			found = true
			assert.Equal(t, diag.Warn, d.Severity, "severity override should downgrade SymbolNotFound to a warning")
		}
	}
	assert.True(t, found, "expected a SymbolNotFound diagnostic")
	assert.False(t, comp.Bag.HasErrors(), "an overridden diagnostic should no longer count as an error")
}

func TestCompileWithoutOptionsKeepsDefaultSeverity(t *testing.T) {
	parser := &stubParser{build: map[string]func(a *arena.Arena) *ast.CompilationUnit{
		"bad.shd": func(a *arena.Arena) *ast.CompilationUnit {
			field := &ast.Field{Def_: ast.SymbolDef{ShortName: id(a, "x")}, TypeRef: refTo("NoSuchType", ast.RefType)}
			st := &ast.Struct{Def_: ast.SymbolDef{ShortName: id(a, "Thing")}, Fields: []*ast.Field{field}}
			ns := &ast.Namespace{Def_: ast.SymbolDef{ShortName: id(a, "N")}, Decls: []ast.Decl{st}}
			return &ast.CompilationUnit{File: "bad.shd", Namespaces: []*ast.Namespace{ns}}
		},
	}}

	sources := []compiler.Source{{Path: "bad.shd"}}
	comp, err := compiler.Compile(context.Background(), "mymodule", sources, parser, nil)
	require.NoError(t, err)
	assert.True(t, comp.Bag.HasErrors())
}

func txtarFile(t *testing.T, archive *txtar.Archive, name string) []byte {
	t.Helper()
	for _, f := range archive.Files {
		if f.Name == name {
			return f.Data
		}
	}
	t.Fatalf("txtar archive has no file %q", name)
	return nil
}
