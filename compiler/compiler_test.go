package compiler_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/hexashader/hxlc/assembly"
	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/compiler"
	"github.com/hexashader/hxlc/diag"
	"github.com/hexashader/hxlc/internal/arena"
	"github.com/hexashader/hxlc/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubParser builds an ast.CompilationUnit directly from a map of source
// text to a builder function, standing in for a real Lexer/Parser front end
// (out of scope — spec.md §1).
type stubParser struct {
	build map[string]func(a *arena.Arena) *ast.CompilationUnit
}

func (p *stubParser) Parse(_ context.Context, src compiler.Source, a *arena.Arena) (*ast.CompilationUnit, error) {
	build, ok := p.build[src.Path]
	if !ok {
		return nil, fmt.Errorf("stubParser: no fixture for %s", src.Path)
	}
	return build(a), nil
}

func id(a *arena.Arena, s string) arena.Identifier { return a.Intern(s) }

func refTo(name string, expected ast.RefKind) *ast.SymbolRef {
	return &ast.SymbolRef{Name: name, Expected: expected}
}

func TestCompileResolvesAcrossConcurrentUnits(t *testing.T) {
	parser := &stubParser{build: map[string]func(a *arena.Arena) *ast.CompilationUnit{
		"vec2.shd": func(a *arena.Arena) *ast.CompilationUnit {
			field := &ast.Field{Def_: ast.SymbolDef{ShortName: id(a, "x")}, TypeRef: refTo("float", ast.RefType)}
			st := &ast.Struct{Def_: ast.SymbolDef{ShortName: id(a, "Vec2")}, Fields: []*ast.Field{field}}
			ns := &ast.Namespace{Def_: ast.SymbolDef{ShortName: id(a, "Math")}, Decls: []ast.Decl{st}}
			return &ast.CompilationUnit{File: "vec2.shd", Namespaces: []*ast.Namespace{ns}}
		},
		"color.shd": func(a *arena.Arena) *ast.CompilationUnit {
			field := &ast.Field{Def_: ast.SymbolDef{ShortName: id(a, "r")}, TypeRef: refTo("float", ast.RefType)}
			st := &ast.Struct{Def_: ast.SymbolDef{ShortName: id(a, "Color")}, Fields: []*ast.Field{field}}
			ns := &ast.Namespace{Def_: ast.SymbolDef{ShortName: id(a, "Math")}, Decls: []ast.Decl{st}}
			return &ast.CompilationUnit{File: "color.shd", Namespaces: []*ast.Namespace{ns}}
		},
	}}

	sources := []compiler.Source{{Path: "vec2.shd"}, {Path: "color.shd"}}
	comp, err := compiler.Compile(context.Background(), "mymodule", sources, parser, nil)
	require.NoError(t, err)
	require.False(t, comp.Bag.HasErrors(), "%v", comp.Bag.Items())

	vec2 := comp.Assembly.Table().FindNodeIndexFullPath("Math.Vec2", comp.Assembly.Table().Root().Index())
	assert.True(t, vec2.Valid())
	color := comp.Assembly.Table().FindNodeIndexFullPath("Math.Color", comp.Assembly.Table().Root().Index())
	assert.True(t, color.Valid())
}

func TestCompileReportsUnresolvedSymbol(t *testing.T) {
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

func TestCompilePropagatesParserError(t *testing.T) {
	parser := &stubParser{build: map[string]func(a *arena.Arena) *ast.CompilationUnit{}}
	sources := []compiler.Source{{Path: "missing.shd"}}
	_, err := compiler.Compile(context.Background(), "mymodule", sources, parser, nil)
	assert.Error(t, err)
}

func TestCompileLinksDeclaredAssemblyReference(t *testing.T) {
	lib := assembly.Create("shaderlib")
	lib.Table().Insert("Utils", &symtab.Metadata{SymType: symtab.SymStruct}, lib.Table().Root().Index())

	parser := &stubParser{build: map[string]func(a *arena.Arena) *ast.CompilationUnit{
		"main.shd": func(a *arena.Arena) *ast.CompilationUnit {
			field := &ast.Field{Def_: ast.SymbolDef{ShortName: id(a, "u")}, TypeRef: refTo("Utils", ast.RefType)}
			st := &ast.Struct{Def_: ast.SymbolDef{ShortName: id(a, "Thing")}, Fields: []*ast.Field{field}}
			ns := &ast.Namespace{
				Def_:       ast.SymbolDef{ShortName: id(a, "N")},
				References: []string{"shaderlib"},
				Decls:      []ast.Decl{st},
			}
			return &ast.CompilationUnit{File: "main.shd", Namespaces: []*ast.Namespace{ns}}
		},
	}}

	sources := []compiler.Source{{Path: "main.shd"}}
	comp, err := compiler.Compile(context.Background(), "mymodule", sources, parser, []*assembly.Assembly{lib})
	require.NoError(t, err)
	require.False(t, comp.Bag.HasErrors(), "%v", comp.Bag.Items())
	assert.Equal(t, ast.Resolved, field(t, comp).TypeRef.State)
}

func field(t *testing.T, comp *compiler.Compilation) *ast.Field {
	t.Helper()
	st := comp.Units[0].Namespaces[0].Decls[0].(*ast.Struct)
	return st.Fields[0]
}

func TestCompileReportsMissingReference(t *testing.T) {
	parser := &stubParser{build: map[string]func(a *arena.Arena) *ast.CompilationUnit{
		"main.shd": func(a *arena.Arena) *ast.CompilationUnit {
			ns := &ast.Namespace{
				Def_:       ast.SymbolDef{ShortName: id(a, "N")},
				References: []string{"missinglib"},
			}
			return &ast.CompilationUnit{File: "main.shd", Namespaces: []*ast.Namespace{ns}}
		},
	}}

	sources := []compiler.Source{{Path: "main.shd"}}
	comp, err := compiler.Compile(context.Background(), "mymodule", sources, parser, nil)
	require.NoError(t, err)
	require.True(t, comp.Bag.HasErrors())
	found := false
	for _, d := range comp.Bag.Items() {
		if d.Code == diag.ReferenceNotSupplied {
			found = true
		}
	}
	assert.True(t, found)
}
