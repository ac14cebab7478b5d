package collect_test

import (
	"testing"

	"github.com/hexashader/hxlc/assembly"
	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/collect"
	"github.com/hexashader/hxlc/diag"
	"github.com/hexashader/hxlc/internal/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var interner = arena.NewInterner()

func name(s string) arena.Identifier { return interner.Intern(s) }

func TestCollectStructAndField(t *testing.T) {
	asm := assembly.Create("test")
	var bag diag.Bag

	field := &ast.Field{Def_: ast.SymbolDef{ShortName: name("x")}}
	st := &ast.Struct{
		Def_:   ast.SymbolDef{ShortName: name("Vec2")},
		Fields: []*ast.Field{field},
	}
	ns := &ast.Namespace{
		Def_:  ast.SymbolDef{ShortName: name("Math")},
		Decls: []ast.Decl{st},
	}
	unit := &ast.CompilationUnit{Namespaces: []*ast.Namespace{ns}}

	collect.New(asm, &bag).Unit(unit)

	require.False(t, bag.HasErrors())
	found := asm.Table().FindNodeIndexFullPath("Math.Vec2.x", asm.Table().Root().Index())
	assert.True(t, found.Valid())
	assert.True(t, field.Def_.Handle.Valid())
}

func TestCollectReportsRedefinition(t *testing.T) {
	asm := assembly.Create("test")
	var bag diag.Bag

	a := &ast.Struct{Def_: ast.SymbolDef{ShortName: name("Dup")}}
	b := &ast.Struct{Def_: ast.SymbolDef{ShortName: name("Dup")}}
	ns := &ast.Namespace{
		Def_:  ast.SymbolDef{ShortName: name("N")},
		Decls: []ast.Decl{a, b},
	}
	unit := &ast.CompilationUnit{Namespaces: []*ast.Namespace{ns}}

	collect.New(asm, &bag).Unit(unit)

	assert.True(t, bag.HasErrors())
}

func TestCollectReopensNamespaceAcrossUnits(t *testing.T) {
	asm := assembly.Create("test")
	var bag diag.Bag
	c := collect.New(asm, &bag)

	u1 := &ast.CompilationUnit{Namespaces: []*ast.Namespace{{
		Def_:  ast.SymbolDef{ShortName: name("N")},
		Decls: []ast.Decl{&ast.Struct{Def_: ast.SymbolDef{ShortName: name("A")}}},
	}}}
	u2 := &ast.CompilationUnit{Namespaces: []*ast.Namespace{{
		Def_:  ast.SymbolDef{ShortName: name("N")},
		Decls: []ast.Decl{&ast.Struct{Def_: ast.SymbolDef{ShortName: name("B")}}},
	}}}

	c.Unit(u1)
	c.Unit(u2)

	require.False(t, bag.HasErrors())
	assert.True(t, asm.Table().FindNodeIndexFullPath("N.A", asm.Table().Root().Index()).Valid())
	assert.True(t, asm.Table().FindNodeIndexFullPath("N.B", asm.Table().Root().Index()).Valid())
}
