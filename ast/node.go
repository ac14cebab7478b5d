// Package ast defines the tagged node hierarchy for the shader language:
// declarations, statements and expressions, plus the SymbolDef/SymbolRef
// pair at the heart of name resolution (spec.md §3). Each node type
// enumerates its own children through its Children method rather than
// through reflection.
package ast

import "github.com/hexashader/hxlc/internal/arena"

// Kind tags every node variant named in spec.md §3.
type Kind int

const (
	KindInvalid Kind = iota

	// Declarations
	KindNamespace
	KindUsingDirective
	KindStruct
	KindClass
	KindEnum
	KindField
	KindFunction
	KindOperatorDecl
	KindConstructor
	KindParameter
	KindVariableDecl
	KindAttributeDecl

	// Statements
	KindBlockStmt
	KindDeclarationStmt
	KindReturnStmt
	KindIfStmt
	KindForStmt
	KindWhileStmt
	KindExprStmt
	KindBreakStmt
	KindContinueStmt

	// Expressions
	KindLiteralExpr
	KindIdentifierExpr
	KindChainExpr
	KindBinaryExpr
	KindUnaryExpr
	KindAssignExpr
	KindCallExpr
	KindCastExpr
	KindIndexExpr
	KindThisExpr
	KindSwizzleExpr

	// Synthetic (produced by type/array/pointer/swizzle managers, §4's
	// "Primitive/array/pointer/swizzle managers" component)
	KindPrimitiveDecl
	KindArrayTypeDecl
	KindPointerTypeDecl
	KindSwizzleDecl
)

// Node is implemented by every AST node. Children returns direct descendants
// in declaration order for generic traversal (internal/walk).
type Node interface {
	Kind() Kind
	Span() arena.TextSpan
	Parent() Node
	SetParent(Node)
	Children() []Node
	// Ordinal is a monotonically increasing construction-order index used
	// for use-before-declaration checks (spec.md §4.2).
	Ordinal() int
}

// Base is embedded by every concrete node type.
type Base struct {
	span    arena.TextSpan
	parent  Node
	ordinal int
}

func (b *Base) Span() arena.TextSpan  { return b.span }
func (b *Base) Parent() Node          { return b.parent }
func (b *Base) SetParent(p Node)      { b.parent = p }
func (b *Base) Ordinal() int          { return b.ordinal }
func (b *Base) SetOrdinal(n int)      { b.ordinal = n }
func NewBase(span arena.TextSpan) Base { return Base{span: span} }

// Builder assigns construction ordinals as nodes are built, mirroring the
// original compiler's per-compilation AstContext (Design Note "Globals").
type Builder struct {
	next int
}

// NewBuilder creates a Builder starting ordinals at zero.
func NewBuilder() *Builder { return &Builder{} }

// Stamp assigns the next ordinal to n and links it under parent.
func (b *Builder) Stamp(n Node, parent Node) {
	type ordinalSetter interface{ SetOrdinal(int) }
	if os, ok := n.(ordinalSetter); ok {
		os.SetOrdinal(b.next)
	}
	b.next++
	if parent != nil {
		n.SetParent(parent)
	}
}

// Attribute is an annotation attached to a declaration, e.g. `[[binding(0)]]`
// (supplemented from original_source/ast_modules/attributes.*, see
// SPEC_FULL.md §4a).
type Attribute struct {
	Base
	NameRef *SymbolRef
	Args    []Expr
}

func (a *Attribute) Kind() Kind { return KindAttributeDecl }
func (a *Attribute) Children() []Node {
	var out []Node
	for _, arg := range a.Args {
		out = append(out, arg)
	}
	return out
}

// Expr is implemented by every expression node; it adds the lazy
// bottom-up type-inference bookkeeping described in spec.md §4.3.
type Expr interface {
	Node
	InferredType() *SymbolDef
	SetInferredType(*SymbolDef)
	LazyState() LazyState
	SetLazyState(LazyState)
}

// LazyState is the small state machine replacing recursion in the type
// checker's bottom-up walk (Design Note "Lazy expression evaluation").
type LazyState int

const (
	NotVisited LazyState = iota
	ChildrenPushed
	Done
)

// ExprBase is embedded by every expression node.
type ExprBase struct {
	Base
	inferredType *SymbolDef
	lazyState    LazyState
}

func (e *ExprBase) InferredType() *SymbolDef        { return e.inferredType }
func (e *ExprBase) SetInferredType(d *SymbolDef)     { e.inferredType = d }
func (e *ExprBase) LazyState() LazyState             { return e.lazyState }
func (e *ExprBase) SetLazyState(s LazyState)         { e.lazyState = s }

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtMarker()
}

// StmtBase is embedded by every statement node.
type StmtBase struct{ Base }

func (StmtBase) stmtMarker() {}

// Decl is implemented by every declaration node.
type Decl interface {
	Node
	Def() *SymbolDef
}
