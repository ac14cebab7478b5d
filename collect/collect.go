// Package collect walks a parsed ast.CompilationUnit and inserts every
// declared symbol into an assembly's table under its lexical scope,
// preparing the table for the resolve package's name lookups.
package collect

import (
	"fmt"

	"github.com/hexashader/hxlc/assembly"
	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/diag"
	"github.com/hexashader/hxlc/internal/arena"
	"github.com/hexashader/hxlc/symtab"
)

// Collector inserts declarations into one assembly's table, reporting
// redefinitions to bag (spec.md §4.1 "Insert returns the zero handle on
// conflict").
type Collector struct {
	asm    *assembly.Assembly
	bag    *diag.Bag
	blockN int
}

func New(asm *assembly.Assembly, bag *diag.Bag) *Collector {
	return &Collector{asm: asm, bag: bag}
}

// Unit collects every namespace in unit under the assembly's table root.
func (c *Collector) Unit(unit *ast.CompilationUnit) {
	root := c.asm.Table().Root().Index()
	for _, ns := range unit.Namespaces {
		c.namespace(ns, root)
	}
}

// namespace reopens an existing namespace node (declarations may span
// multiple compilation units) or creates one.
func (c *Collector) namespace(ns *ast.Namespace, under symtab.NodeIndex) symtab.NodeIndex {
	name := ns.Def_.ShortName.String()
	table := c.asm.Table()

	h := table.FindNodeIndexPart(name, under)
	if !h.Valid() {
		h = table.Insert(name, &symtab.Metadata{SymType: symtab.SymNamespace}, under)
		if !h.Valid() {
			c.redefined(name, ns.Span())
			return under
		}
	}
	c.bindDef(&ns.Def_, h)

	for _, decl := range ns.Decls {
		c.decl(decl, h.Index())
	}
	return h.Index()
}

func (c *Collector) decl(d ast.Decl, under symtab.NodeIndex) {
	switch n := d.(type) {
	case *ast.Struct:
		c.aggregate(n, symtab.SymStruct, under)
	case *ast.Class:
		c.aggregate(&n.Struct, symtab.SymClass, under)
	case *ast.Enum:
		c.insert(n.Def_.ShortName.String(), &symtab.Metadata{SymType: symtab.SymEnum}, under, &n.Def_, n)
	case *ast.Function:
		c.function(n, under)
	default:
		// Field/Parameter/OperatorDecl/Constructor are collected from their
		// owning aggregate via aggregate(); reaching here means a decl kind
		// that carries no symbol of its own at namespace scope.
	}
}

func (c *Collector) aggregate(s *ast.Struct, kind symtab.SymKind, under symtab.NodeIndex) {
	h := c.insert(s.Def_.ShortName.String(), &symtab.Metadata{SymType: kind}, under, &s.Def_, s)
	if !h.Valid() {
		return
	}
	idx := h.Index()
	for _, f := range s.Fields {
		c.insert(f.Def_.ShortName.String(), &symtab.Metadata{SymType: symtab.SymField}, idx, &f.Def_, f)
	}
	for _, m := range s.Methods {
		c.function(m, idx)
	}
	for _, op := range s.Operators {
		c.operator(op, idx)
	}
	for _, ctor := range s.Ctors {
		c.constructor(ctor, idx)
	}
}

// function inserts f under its own short name; a sibling already declared
// under that name doesn't make f a redefinition, since overloaded functions
// legitimately share a name (spec.md §4.3 "Function calls" builds its
// candidate set by name, not by a unique table slot). Every declaration
// with a given name gets its own table node — the first keeps the plain
// name, later ones a disambiguated key — and all of them are recorded in
// the assembly's by-name overload set, which is what the type checker
// filters by arity and scores by argument convertibility once it sees an
// actual call. Telling a true duplicate signature from a legal overload
// isn't possible at collection time anyway, since parameter types aren't
// resolved yet; that's left to overload scoring, not reported here.
func (c *Collector) function(f *ast.Function, under symtab.NodeIndex) {
	name := f.Def_.ShortName.String()
	siblings := c.asm.Overloads(under, name)

	key := name
	if len(siblings) > 0 {
		key = fmt.Sprintf("%s$overload%d", name, len(siblings))
	}
	h := c.insert(key, &symtab.Metadata{SymType: symtab.SymFunction}, under, &f.Def_, f)
	if !h.Valid() {
		return
	}
	c.asm.AddOverload(under, name, f)

	idx := h.Index()
	for _, p := range f.Params {
		c.insert(p.Def_.ShortName.String(), &symtab.Metadata{SymType: symtab.SymParameter}, idx, &p.Def_, p)
	}
	if f.Body != nil {
		c.block(f.Body, idx)
	}
}

func (c *Collector) operator(o *ast.OperatorDecl, under symtab.NodeIndex) {
	name := fmt.Sprintf("operator$%c$%d", o.Opcode, len(o.Params))
	h := c.insert(name, &symtab.Metadata{SymType: symtab.SymOperator}, under, &o.Def_, o)
	if !h.Valid() {
		return
	}
	idx := h.Index()
	for _, p := range o.Params {
		c.insert(p.Def_.ShortName.String(), &symtab.Metadata{SymType: symtab.SymParameter}, idx, &p.Def_, p)
	}
	if o.Body != nil {
		c.block(o.Body, idx)
	}
}

func (c *Collector) constructor(ctor *ast.Constructor, under symtab.NodeIndex) {
	name := fmt.Sprintf("ctor$%d", len(ctor.Params))
	h := c.insert(name, &symtab.Metadata{SymType: symtab.SymConstructor}, under, &ctor.Def_, ctor)
	if !h.Valid() {
		return
	}
	idx := h.Index()
	for _, p := range ctor.Params {
		c.insert(p.Def_.ShortName.String(), &symtab.Metadata{SymType: symtab.SymParameter}, idx, &p.Def_, p)
	}
	if ctor.Body != nil {
		c.block(ctor.Body, idx)
	}
}

// block inserts an anonymous scope node for b and recurses into nested
// blocks, registering DeclarationStmt locals along the way (spec.md §4.2
// "The resolver ... maintaining a stack of ResolverScope").
func (c *Collector) block(b *ast.BlockStmt, under symtab.NodeIndex) symtab.NodeIndex {
	name := fmt.Sprintf("$block%d", c.blockN)
	c.blockN++
	h := c.asm.Table().Insert(name, &symtab.Metadata{SymType: symtab.SymNamespace, Scope: 1}, under)
	idx := under
	if h.Valid() {
		idx = h.Index()
		b.ScopeHandle = h
	}
	for _, stmt := range b.Statements {
		c.stmt(stmt, idx)
	}
	return idx
}

func (c *Collector) stmt(s ast.Stmt, under symtab.NodeIndex) {
	switch n := s.(type) {
	case *ast.DeclarationStmt:
		c.insert(n.Def_.ShortName.String(), &symtab.Metadata{SymType: symtab.SymVariable}, under, &n.Def_, n)
	case *ast.BlockStmt:
		c.block(n, under)
	case *ast.IfStmt:
		c.stmt(n.Then, under)
		if n.Else != nil {
			c.stmt(n.Else, under)
		}
	case *ast.ForStmt:
		c.stmt(n.Body, under)
	case *ast.WhileStmt:
		c.stmt(n.Body, under)
	}
}

// insert wraps Table.Insert, binding the resulting handle onto def and
// reporting a SymbolRedefined diagnostic on conflict.
func (c *Collector) insert(name string, meta *symtab.Metadata, under symtab.NodeIndex, def *ast.SymbolDef, node ast.Node) symtab.Handle {
	h := c.asm.Table().Insert(name, meta, under)
	if !h.Valid() {
		c.redefined(name, node.Span())
		return h
	}
	c.bindDef(def, h)
	return h
}

func (c *Collector) bindDef(def *ast.SymbolDef, h symtab.Handle) {
	def.Assembly = c.asm
	if h.Valid() {
		def.Handle = h
	}
}

func (c *Collector) redefined(name string, span arena.TextSpan) {
	c.bag.Reportf(diag.SymbolRedefined, diag.Error, span, "symbol %q already declared in this scope", name)
}
