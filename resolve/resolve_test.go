package resolve_test

import (
	"testing"

	"github.com/hexashader/hxlc/assembly"
	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/collect"
	"github.com/hexashader/hxlc/diag"
	"github.com/hexashader/hxlc/internal/arena"
	"github.com/hexashader/hxlc/resolve"
	"github.com/hexashader/hxlc/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var interner = arena.NewInterner()

func id(s string) arena.Identifier { return interner.Intern(s) }

func refTo(name string, expected ast.RefKind) *ast.SymbolRef {
	return &ast.SymbolRef{Name: name, Expected: expected}
}

func TestResolveFieldTypeRefToPrimitive(t *testing.T) {
	asm := assembly.Create("m")
	var bag diag.Bag

	field := &ast.Field{Def_: ast.SymbolDef{ShortName: id("x")}, TypeRef: refTo("float", ast.RefType)}
	st := &ast.Struct{Def_: ast.SymbolDef{ShortName: id("Vec2")}, Fields: []*ast.Field{field}}
	ns := &ast.Namespace{Def_: ast.SymbolDef{ShortName: id("Math")}, Decls: []ast.Decl{st}}
	unit := &ast.CompilationUnit{Namespaces: []*ast.Namespace{ns}}

	collect.New(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors())

	resolve.New(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors())
	assert.Equal(t, ast.Resolved, field.TypeRef.State)
	assert.Equal(t, "float", field.TypeRef.Target.FQN())
}

func TestResolveReportsNotFound(t *testing.T) {
	asm := assembly.Create("m")
	var bag diag.Bag

	field := &ast.Field{Def_: ast.SymbolDef{ShortName: id("x")}, TypeRef: refTo("NoSuchType", ast.RefType)}
	st := &ast.Struct{Def_: ast.SymbolDef{ShortName: id("Vec2")}, Fields: []*ast.Field{field}}
	ns := &ast.Namespace{Def_: ast.SymbolDef{ShortName: id("Math")}, Decls: []ast.Decl{st}}
	unit := &ast.CompilationUnit{Namespaces: []*ast.Namespace{ns}}

	collect.New(asm, &bag).Unit(unit)
	resolve.New(asm, &bag).Unit(unit)

	assert.True(t, bag.HasErrors())
	assert.Equal(t, ast.NotFound, field.TypeRef.State)
}

func TestResolveMemberWithinStruct(t *testing.T) {
	asm := assembly.Create("m")
	var bag diag.Bag

	field := &ast.Field{Def_: ast.SymbolDef{ShortName: id("x")}, TypeRef: refTo("float", ast.RefType)}
	method := &ast.Function{Def_: ast.SymbolDef{ShortName: id("get")}, ReturnRef: refTo("float", ast.RefType)}
	st := &ast.Struct{
		Def_:    ast.SymbolDef{ShortName: id("Vec2")},
		Fields:  []*ast.Field{field},
		Methods: []*ast.Function{method},
	}
	ns := &ast.Namespace{Def_: ast.SymbolDef{ShortName: id("Math")}, Decls: []ast.Decl{st}}
	unit := &ast.CompilationUnit{Namespaces: []*ast.Namespace{ns}}

	collect.New(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors())

	resolve.New(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors())
	assert.Equal(t, ast.Resolved, method.ReturnRef.State)

	fn := asm.Table().FindNodeIndexFullPath("Math.Vec2.get", asm.Table().Root().Index())
	assert.True(t, fn.Valid())
	assert.Equal(t, symtab.SymFunction, fn.Node().Metadata.SymType)
}

// TestResolveNestedChainThroughField builds `this.inner.x` as nested
// ChainExprs (outerChain.Left == innerChain, innerChain.Left == ThisExpr)
// and checks both segments resolve. outerChain's own LHS type depends on
// innerChain, which is visited only as outerChain's child — this is the
// case the old Defer-skips-children bug broke for every multi-segment
// chain, not just a cyclic one.
func TestResolveNestedChainThroughField(t *testing.T) {
	asm := assembly.Create("m")
	var bag diag.Bag

	innerField := &ast.Field{Def_: ast.SymbolDef{ShortName: id("x")}, TypeRef: refTo("float", ast.RefType)}
	innerStruct := &ast.Struct{Def_: ast.SymbolDef{ShortName: id("Inner")}, Fields: []*ast.Field{innerField}}

	outerField := &ast.Field{Def_: ast.SymbolDef{ShortName: id("inner")}, TypeRef: refTo("Inner", ast.RefType)}

	innerChain := &ast.ChainExpr{
		Left:    &ast.ThisExpr{Ref: &ast.SymbolRef{Expected: ast.RefThis}},
		Segment: &ast.SymbolRef{Name: "inner", Expected: ast.RefMember},
	}
	outerChain := &ast.ChainExpr{Left: innerChain, Segment: &ast.SymbolRef{Name: "x", Expected: ast.RefMember}}

	method := &ast.Function{
		Def_:      ast.SymbolDef{ShortName: id("get")},
		ReturnRef: refTo("float", ast.RefType),
		Body:      &ast.BlockStmt{Statements: []ast.Stmt{&ast.ExprStmt{X: outerChain}}},
	}
	outerStruct := &ast.Struct{
		Def_:    ast.SymbolDef{ShortName: id("Outer")},
		Fields:  []*ast.Field{outerField},
		Methods: []*ast.Function{method},
	}

	ns := &ast.Namespace{Def_: ast.SymbolDef{ShortName: id("Math")}, Decls: []ast.Decl{outerStruct, innerStruct}}
	unit := &ast.CompilationUnit{Namespaces: []*ast.Namespace{ns}}

	collect.New(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors())

	resolve.New(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors(), "%v", bag.Items())

	assert.Equal(t, ast.Resolved, innerChain.Segment.State)
	assert.Equal(t, "Math.Outer.inner", innerChain.Segment.Target.FQN())
	assert.Equal(t, ast.Resolved, outerChain.Segment.State)
	assert.Equal(t, "Math.Inner.x", outerChain.Segment.Target.FQN())
}

// TestResolveCyclicMemberTypesAcrossStructs reproduces spec.md §8 Scenario
// 2: two structs whose fields reference each other's type, each read
// through a member-access chain. The resolver defers the member-access
// segments; after one deferral drain, both chains resolve.
func TestResolveCyclicMemberTypesAcrossStructs(t *testing.T) {
	asm := assembly.Create("m")
	var bag diag.Bag

	aX := &ast.Field{Def_: ast.SymbolDef{ShortName: id("x")}, TypeRef: refTo("float", ast.RefType)}
	aB := &ast.Field{Def_: ast.SymbolDef{ShortName: id("b")}, TypeRef: refTo("B", ast.RefType)}
	aChain := &ast.ChainExpr{
		Left:    &ast.ThisExpr{Ref: &ast.SymbolRef{Expected: ast.RefThis}},
		Segment: &ast.SymbolRef{Name: "b", Expected: ast.RefMember},
	}
	aChainY := &ast.ChainExpr{Left: aChain, Segment: &ast.SymbolRef{Name: "y", Expected: ast.RefMember}}
	aMethod := &ast.Function{
		Def_:      ast.SymbolDef{ShortName: id("getBY")},
		ReturnRef: refTo("float", ast.RefType),
		Body:      &ast.BlockStmt{Statements: []ast.Stmt{&ast.ExprStmt{X: aChainY}}},
	}
	structA := &ast.Struct{Def_: ast.SymbolDef{ShortName: id("A")}, Fields: []*ast.Field{aX, aB}, Methods: []*ast.Function{aMethod}}

	bY := &ast.Field{Def_: ast.SymbolDef{ShortName: id("y")}, TypeRef: refTo("float", ast.RefType)}
	bA := &ast.Field{Def_: ast.SymbolDef{ShortName: id("a")}, TypeRef: refTo("A", ast.RefType)}
	bChain := &ast.ChainExpr{
		Left:    &ast.ThisExpr{Ref: &ast.SymbolRef{Expected: ast.RefThis}},
		Segment: &ast.SymbolRef{Name: "a", Expected: ast.RefMember},
	}
	bChainX := &ast.ChainExpr{Left: bChain, Segment: &ast.SymbolRef{Name: "x", Expected: ast.RefMember}}
	bMethod := &ast.Function{
		Def_:      ast.SymbolDef{ShortName: id("getAX")},
		ReturnRef: refTo("float", ast.RefType),
		Body:      &ast.BlockStmt{Statements: []ast.Stmt{&ast.ExprStmt{X: bChainX}}},
	}
	structB := &ast.Struct{Def_: ast.SymbolDef{ShortName: id("B")}, Fields: []*ast.Field{bY, bA}, Methods: []*ast.Function{bMethod}}

	ns := &ast.Namespace{Def_: ast.SymbolDef{ShortName: id("Cyclic")}, Decls: []ast.Decl{structA, structB}}
	unit := &ast.CompilationUnit{Namespaces: []*ast.Namespace{ns}}

	collect.New(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors())

	resolve.New(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors(), "%v", bag.Items())

	assert.Equal(t, ast.Resolved, aChainY.Segment.State)
	assert.Equal(t, "Cyclic.B.y", aChainY.Segment.Target.FQN())
	assert.Equal(t, ast.Resolved, bChainX.Segment.State)
	assert.Equal(t, "Cyclic.A.x", bChainX.Segment.Target.FQN())
}

func TestResolveRejectsIncompatibleReferenceMajorVersion(t *testing.T) {
	lib := assembly.Create("lib")
	lib.LanguageVersion = "v2.0.0"
	lib.Table().Insert("Color", &symtab.Metadata{SymType: symtab.SymStruct}, lib.Table().Root().Index())

	asm := assembly.Create("m")
	asm.LanguageVersion = "v1.0.0"
	asm.AddReference(lib)
	var bag diag.Bag

	field := &ast.Field{Def_: ast.SymbolDef{ShortName: id("x")}, TypeRef: refTo("Color", ast.RefType)}
	st := &ast.Struct{Def_: ast.SymbolDef{ShortName: id("Thing")}, Fields: []*ast.Field{field}}
	ns := &ast.Namespace{Def_: ast.SymbolDef{ShortName: id("N")}, Decls: []ast.Decl{st}}
	unit := &ast.CompilationUnit{Namespaces: []*ast.Namespace{ns}}

	collect.New(asm, &bag).Unit(unit)
	resolve.New(asm, &bag).Unit(unit)

	require.True(t, bag.HasErrors())
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.AssemblyVersionSkew {
			found = true
		}
	}
	assert.True(t, found, "expected an AssemblyVersionSkew diagnostic")
	assert.Equal(t, ast.NotFound, field.TypeRef.State)
}
