package resolve_test

import (
	"testing"

	"github.com/hexashader/hxlc/assembly"
	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/collect"
	"github.com/hexashader/hxlc/diag"
	"github.com/hexashader/hxlc/resolve"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intLiteral() *ast.LiteralExpr {
	return &ast.LiteralExpr{Value: ast.Number{Kind: ast.NumI32}}
}

func param(name, typ string) *ast.Parameter {
	return &ast.Parameter{Def_: ast.SymbolDef{ShortName: id(name)}, TypeRef: refTo(typ, ast.RefType)}
}

// TestInferCallResolvesSingleOverload exercises the ordinary, non-ambiguous
// path: one declared function, a matching call, no argument casts needed.
func TestInferCallResolvesSingleOverload(t *testing.T) {
	asm := assembly.Create("m")
	var bag diag.Bag

	callee := &ast.Function{
		Def_:      ast.SymbolDef{ShortName: id("add")},
		ReturnRef: refTo("float", ast.RefType),
		Params:    []*ast.Parameter{param("a", "float"), param("b", "float")},
	}
	call := &ast.CallExpr{CalleeRef: &ast.SymbolRef{Name: "add", Expected: ast.RefFunctionOrConstructor}, Args: []ast.Expr{intLiteral(), intLiteral()}}
	caller := &ast.Function{
		Def_: ast.SymbolDef{ShortName: id("caller")},
		Body: &ast.BlockStmt{Statements: []ast.Stmt{&ast.ExprStmt{X: call}}},
	}

	ns := &ast.Namespace{Def_: ast.SymbolDef{ShortName: id("N")}, Decls: []ast.Decl{callee, caller}}
	unit := &ast.CompilationUnit{Namespaces: []*ast.Namespace{ns}}

	collect.New(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors())

	resolve.New(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors(), "%v", bag.Items())

	resolve.NewChecker(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors(), "%v", bag.Items())

	require.NotNil(t, call.InferredType())
	assert.Equal(t, "float", call.InferredType().FQN())
	for _, arg := range call.Args {
		cast, ok := arg.(*ast.CastExpr)
		require.True(t, ok, "expected implicit cast wrapping int literal argument")
		assert.True(t, cast.Implicit)
		assert.Equal(t, "float", cast.TargetRef.Target.FQN())
	}
}

// TestInferCallReportsAmbiguousOverload reproduces spec.md §8 Scenario 3:
// two overloads f(float,int) and f(int,float), called as f(1,2). Both
// candidates convert at equal summed cast distance, so the call is reported
// ambiguous rather than picking either one.
func TestInferCallReportsAmbiguousOverload(t *testing.T) {
	asm := assembly.Create("m")
	var bag diag.Bag

	floatInt := &ast.Function{
		Def_:      ast.SymbolDef{ShortName: id("f")},
		ReturnRef: refTo("float", ast.RefType),
		Params:    []*ast.Parameter{param("a", "float"), param("b", "int")},
	}
	intFloat := &ast.Function{
		Def_:      ast.SymbolDef{ShortName: id("f")},
		ReturnRef: refTo("float", ast.RefType),
		Params:    []*ast.Parameter{param("a", "int"), param("b", "float")},
	}
	call := &ast.CallExpr{CalleeRef: &ast.SymbolRef{Name: "f", Expected: ast.RefFunctionOrConstructor}, Args: []ast.Expr{intLiteral(), intLiteral()}}
	caller := &ast.Function{
		Def_: ast.SymbolDef{ShortName: id("caller")},
		Body: &ast.BlockStmt{Statements: []ast.Stmt{&ast.ExprStmt{X: call}}},
	}

	ns := &ast.Namespace{Def_: ast.SymbolDef{ShortName: id("N")}, Decls: []ast.Decl{floatInt, intFloat, caller}}
	unit := &ast.CompilationUnit{Namespaces: []*ast.Namespace{ns}}

	collect.New(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors(), "%v", bag.Items())

	resolve.New(asm, &bag).Unit(unit)
	require.False(t, bag.HasErrors(), "%v", bag.Items())

	resolve.NewChecker(asm, &bag).Unit(unit)

	require.True(t, bag.HasErrors())
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.AmbiguousCall {
			found = true
		}
	}
	assert.True(t, found, "expected an AmbiguousCall diagnostic")
	assert.Nil(t, call.InferredType())
}
