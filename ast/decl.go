package ast

// Namespace declares a lexical, assembly-linked scope (spec.md §3/§4.2).
type Namespace struct {
	Base
	Def_       SymbolDef
	Usings     []*UsingDirective
	References []string // referenced assembly names, resolved by the compiler driver
	Decls      []Decl
}

func (n *Namespace) Kind() Kind  { return KindNamespace }
func (n *Namespace) Def() *SymbolDef { return &n.Def_ }
func (n *Namespace) Children() []Node {
	out := make([]Node, 0, len(n.Usings)+len(n.Decls))
	for _, u := range n.Usings {
		out = append(out, u)
	}
	for _, d := range n.Decls {
		out = append(out, d)
	}
	return out
}

// UsingDirective brings a namespace into the non-aliased lookup chain, or
// (SPEC_FULL.md §4a) binds it to a local Alias the parser has already
// substituted at use sites.
type UsingDirective struct {
	Base
	TargetRef *SymbolRef
	Alias     string
}

func (u *UsingDirective) Kind() Kind      { return KindUsingDirective }
func (u *UsingDirective) Children() []Node { return nil }

// Struct declares a value-type aggregate.
type Struct struct {
	Base
	Def_       SymbolDef
	Attributes []*Attribute
	Fields     []*Field
	Methods    []*Function
	Operators  []*OperatorDecl
	Ctors      []*Constructor
}

func (s *Struct) Kind() Kind      { return KindStruct }
func (s *Struct) Def() *SymbolDef { return &s.Def_ }
func (s *Struct) Children() []Node {
	out := make([]Node, 0, len(s.Fields)+len(s.Methods)+len(s.Operators)+len(s.Ctors))
	for _, f := range s.Fields {
		out = append(out, f)
	}
	for _, m := range s.Methods {
		out = append(out, m)
	}
	for _, o := range s.Operators {
		out = append(out, o)
	}
	for _, c := range s.Ctors {
		out = append(out, c)
	}
	return out
}

// Class declares a reference-type aggregate; same shape as Struct at the AST
// level, distinguished by Def_.DefKind.
type Class struct {
	Struct
}

func (c *Class) Kind() Kind { return KindClass }

// Enum declares a named integral enumeration.
type Enum struct {
	Base
	Def_    SymbolDef
	Members []EnumMember
}

type EnumMember struct {
	Name  Identifier
	Value int64
}

func (e *Enum) Kind() Kind        { return KindEnum }
func (e *Enum) Def() *SymbolDef   { return &e.Def_ }
func (e *Enum) Children() []Node  { return nil }

// Field declares a struct/class member.
type Field struct {
	Base
	Def_       SymbolDef
	TypeRef    *SymbolRef
	Attributes []*Attribute
}

func (f *Field) Kind() Kind      { return KindField }
func (f *Field) Def() *SymbolDef { return &f.Def_ }
func (f *Field) Children() []Node {
	out := make([]Node, 0, len(f.Attributes))
	for _, a := range f.Attributes {
		out = append(out, a)
	}
	return out
}

// Parameter declares a function/operator/constructor formal.
type Parameter struct {
	Base
	Def_    SymbolDef
	TypeRef *SymbolRef
}

func (p *Parameter) Kind() Kind      { return KindParameter }
func (p *Parameter) Def() *SymbolDef { return &p.Def_ }
func (p *Parameter) Children() []Node { return nil }

// Function declares a named callable with a signature cached as
// "Name(FQN1,FQN2,...)" once argument types are known (spec.md §3).
type Function struct {
	Base
	Def_       SymbolDef
	ReturnRef  *SymbolRef
	Params     []*Parameter
	Body       *BlockStmt
	Attributes []*Attribute
	signature  string
	sigReady   bool
}

func (f *Function) Kind() Kind      { return KindFunction }
func (f *Function) Def() *SymbolDef { return &f.Def_ }
func (f *Function) Children() []Node {
	out := make([]Node, 0, len(f.Params)+1)
	for _, p := range f.Params {
		out = append(out, p)
	}
	if f.Body != nil {
		out = append(out, f.Body)
	}
	return out
}

// Signature builds "Name(ArgFQN1,ArgFQN2,...)" once every parameter's type
// is resolved. Before that it returns ("", false); no placeholder signature
// is produced for unresolved parameters.
func (f *Function) Signature() (sig string, ready bool) {
	if f.sigReady {
		return f.signature, true
	}
	s := f.Def_.ShortName.String() + "("
	for i, p := range f.Params {
		if i > 0 {
			s += ","
		}
		if p.TypeRef == nil || p.TypeRef.State != Resolved {
			return "", false
		}
		s += p.TypeRef.Target.FQN()
	}
	s += ")"
	f.signature = s
	f.sigReady = true
	return s, true
}

// OperatorDecl declares an overloaded operator; opcode is a single
// character per spec.md §3 ("operator overloads use a single-character
// opcode and parentheses").
type OperatorDecl struct {
	Base
	Def_      SymbolDef
	Opcode    byte
	IsImplicitCast bool
	ReturnRef *SymbolRef
	Params    []*Parameter
	Body      *BlockStmt
}

func (o *OperatorDecl) Kind() Kind      { return KindOperatorDecl }
func (o *OperatorDecl) Def() *SymbolDef { return &o.Def_ }
func (o *OperatorDecl) Children() []Node {
	out := make([]Node, 0, len(o.Params)+1)
	for _, p := range o.Params {
		out = append(out, p)
	}
	if o.Body != nil {
		out = append(out, o.Body)
	}
	return out
}

// Signature builds "op(LHS_FQN,RHS_FQN)" for binary operators, or
// "#RetFQN(ArgFQN)" for casts (opcode '#'), per spec.md §3/§4.3.
func (o *OperatorDecl) Signature() (sig string, ready bool) {
	if o.Opcode == '#' {
		if o.ReturnRef == nil || o.ReturnRef.State != Resolved || len(o.Params) != 1 {
			return "", false
		}
		if o.Params[0].TypeRef == nil || o.Params[0].TypeRef.State != Resolved {
			return "", false
		}
		return "#" + o.ReturnRef.Target.FQN() + "(" + o.Params[0].TypeRef.Target.FQN() + ")", true
	}
	s := string(o.Opcode) + "("
	for i, p := range o.Params {
		if i > 0 {
			s += ","
		}
		if p.TypeRef == nil || p.TypeRef.State != Resolved {
			return "", false
		}
		s += p.TypeRef.Target.FQN()
	}
	s += ")"
	return s, true
}

// Constructor declares a type's construction overload (SPEC_FULL.md §4a).
type Constructor struct {
	Base
	Def_   SymbolDef
	Params []*Parameter
	Body   *BlockStmt
}

func (c *Constructor) Kind() Kind      { return KindConstructor }
func (c *Constructor) Def() *SymbolDef { return &c.Def_ }
func (c *Constructor) Children() []Node {
	out := make([]Node, 0, len(c.Params)+1)
	for _, p := range c.Params {
		out = append(out, p)
	}
	if c.Body != nil {
		out = append(out, c.Body)
	}
	return out
}
