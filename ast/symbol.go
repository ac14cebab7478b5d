package ast

import (
	"github.com/hexashader/hxlc/internal/arena"
	"github.com/hexashader/hxlc/symtab"
)

// DefKind mirrors symtab.SymKind at the AST layer so callers outside symtab
// don't need to import it directly for the common case.
type DefKind = symtab.SymKind

// SymbolDef is an AST node that introduces a name (spec.md §3). It is not
// itself a Node variant with children in the usual sense — each concrete
// declaration (Namespace, Struct, Function, ...) embeds a SymbolDef to get
// naming, handle and FQN behavior, and is itself the Node/Decl.
type SymbolDef struct {
	ShortName Identifier
	DefKind   DefKind
	Assembly  AssemblyRef
	Handle    symtab.Handle

	fqn      string
	fqnValid bool
}

// Identifier wraps an interned name; see internal/arena.Identifier.
type Identifier = arena.Identifier

// AssemblyRef is a minimal back-pointer so a SymbolDef can compute its FQN
// and look itself up in its owning assembly's table without the ast package
// importing the assembly package (which imports ast for decl bodies).
type AssemblyRef interface {
	Table() *symtab.Table
	Name() string
}

// FQN returns the dotted path from the table root, cached on first
// computation (spec.md §3 invariant).
func (d *SymbolDef) FQN() string {
	if d.fqnValid {
		return d.fqn
	}
	if d.Assembly == nil || !d.Handle.Valid() {
		return d.ShortName.String()
	}
	d.fqn = d.Assembly.Table().FQN(d.Handle.Index())
	d.fqnValid = true
	return d.fqn
}

// RefKind is the expected-kind tag on a SymbolRef (spec.md §3 SymbolRef
// variants / §4.2 kind sanity check table).
type RefKind int

const (
	RefNamespace RefKind = iota
	RefFunction
	RefFunctionOrConstructor
	RefOperator
	RefConstructor
	RefStruct
	RefClass
	RefEnum
	RefIdentifier
	RefAttribute
	RefMember
	RefType
	RefArrayType
	RefThis
	RefAny
)

// RefState is a SymbolRef's resolution state.
type RefState int

const (
	Unresolved RefState = iota
	Resolved
	NotFound
	Deferred
)

// SymbolRef is a use site (spec.md §3).
type SymbolRef struct {
	Base
	Name       string
	Expected   RefKind
	State      RefState
	Target     *SymbolDef
	ArrayDims  []int64 // constant dimensions, for RefArrayType
}

func (r *SymbolRef) Kind() Kind        { return KindInvalid } // refs are not Nodes in their own right
func (r *SymbolRef) Children() []Node  { return nil }

// Resolve marks the ref resolved against def.
func (r *SymbolRef) Resolve(def *SymbolDef) {
	r.Target = def
	r.State = Resolved
}

// MarkNotFound marks the ref as having failed name lookup.
func (r *SymbolRef) MarkNotFound() { r.State = NotFound }

// MarkDeferred marks the ref as parked pending a later resolution pass.
func (r *SymbolRef) MarkDeferred() { r.State = Deferred }

// AcceptsKind implements the table from spec.md §4.2.
func (r RefKind) AcceptsKind(sym DefKind) bool {
	switch r {
	case RefNamespace:
		return sym == symtab.SymNamespace
	case RefFunction:
		return sym == symtab.SymFunction
	case RefFunctionOrConstructor:
		return sym == symtab.SymFunction || sym == symtab.SymConstructor
	case RefOperator:
		return sym == symtab.SymOperator
	case RefConstructor:
		return sym == symtab.SymConstructor
	case RefStruct:
		return sym == symtab.SymStruct || sym == symtab.SymPrimitive
	case RefClass:
		return sym == symtab.SymClass
	case RefEnum:
		return sym == symtab.SymEnum
	case RefType:
		switch sym {
		case symtab.SymStruct, symtab.SymPrimitive, symtab.SymClass, symtab.SymEnum, symtab.SymArray, symtab.SymPointer:
			return true
		}
		return false
	case RefArrayType:
		return sym == symtab.SymArray
	case RefMember:
		return sym == symtab.SymField || sym == symtab.SymSwizzleDef
	case RefIdentifier:
		return sym == symtab.SymField || sym == symtab.SymParameter || sym == symtab.SymVariable
	case RefAttribute:
		return sym == symtab.SymAttribute
	case RefThis:
		return sym == symtab.SymThisRef
	case RefAny:
		return true
	}
	return false
}
