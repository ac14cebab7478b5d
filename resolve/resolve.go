// Package resolve implements the symbol resolver: a scope-tracking visitor
// over the AST that resolves every SymbolRef against the five-step name
// lookup order, synthesizes swizzle accessors, and defers member-access
// chains that depend on a not-yet-resolved type (spec.md §4.2).
package resolve

import (
	"github.com/hexashader/hxlc/assembly"
	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/diag"
	"github.com/hexashader/hxlc/internal/arena"
	"github.com/hexashader/hxlc/internal/walk"
	"github.com/hexashader/hxlc/symtab"
	"github.com/hexashader/hxlc/types"
	"golang.org/x/mod/semver"
)

// languageMajor normalizes a LanguageVersion string (which may lack the
// leading "v" semver requires) and returns its major-version component, e.g.
// "1.0.0" -> "v1". Returns "" if the string isn't a valid version.
func languageMajor(v string) string {
	if v == "" {
		return ""
	}
	if v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Major(v)
}

// ResolverScope is one entry of the scope stack (spec.md §4.2).
type ResolverScope struct {
	TableIndex symtab.NodeIndex
}

// Resolver walks one assembly's ASTs, resolving SymbolRefs in place.
type Resolver struct {
	asm    *assembly.Assembly
	bag    *diag.Bag
	scopes []ResolverScope

	unitUsings      []string
	namespaceUsings []string

	declOrdinal map[symtab.NodeIndex]int
	declType    map[symtab.NodeIndex]*ast.SymbolDef
	aggregates  []*ast.SymbolDef
	swizzles    *types.SwizzleManager

	// incompatibleRefs holds referenced assemblies excluded from lookup
	// step 3 because their major language version disagrees with asm's
	// (SPEC_FULL.md §2a).
	incompatibleRefs map[*assembly.Assembly]bool
}

func New(asm *assembly.Assembly, bag *diag.Bag) *Resolver {
	r := &Resolver{
		asm:         asm,
		bag:         bag,
		declOrdinal: map[symtab.NodeIndex]int{},
		declType:    map[symtab.NodeIndex]*ast.SymbolDef{},
		swizzles:    types.NewSwizzleManager(types.PrimitiveAssembly()),
	}
	r.checkReferenceVersions()
	return r
}

// checkReferenceVersions rejects any referenced assembly whose language
// version major component differs from asm's own, reporting
// AssemblyVersionSkew once per incompatible reference and excluding it from
// lookup step 3 (SPEC_FULL.md §2a). Versions are compared by their
// semver.Major component only.
func (r *Resolver) checkReferenceVersions() {
	own := languageMajor(r.asm.LanguageVersion)
	if own == "" {
		return
	}
	for _, ref := range r.asm.References() {
		major := languageMajor(ref.LanguageVersion)
		if major == "" || major == own {
			continue
		}
		if r.incompatibleRefs == nil {
			r.incompatibleRefs = map[*assembly.Assembly]bool{}
		}
		r.incompatibleRefs[ref] = true
		r.bag.Reportf(diag.AssemblyVersionSkew, diag.Error, arena.TextSpan{},
			"assembly %q requires language version %s, referenced assembly %q provides %s",
			r.asm.Name(), own, ref.Name(), major)
	}
}

// Unit resolves every namespace in unit, carrying its compilation-unit-scope
// usings (lookup order item 5).
func (r *Resolver) Unit(unit *ast.CompilationUnit) {
	r.unitUsings = r.collectUsings(unit.Usings)
	for _, ns := range unit.Namespaces {
		r.walkNamespace(ns)
	}
}

func (r *Resolver) collectUsings(us []*ast.UsingDirective) []string {
	var names []string
	for _, u := range us {
		if u.Alias != "" {
			continue // aliases are substituted at parse time, per SPEC_FULL.md §4a
		}
		u.TargetRef.Expected = ast.RefNamespace
		if def, ok := r.lookup(u.TargetRef.Name, ast.RefNamespace); ok {
			u.TargetRef.Resolve(def)
			names = append(names, def.FQN())
		} else {
			u.TargetRef.MarkNotFound()
			r.bag.Reportf(diag.SymbolNotFound, diag.Error, u.Span(), "using: namespace %q not found", u.TargetRef.Name)
		}
	}
	return names
}

func (r *Resolver) walkNamespace(ns *ast.Namespace) {
	r.namespaceUsings = r.collectUsings(ns.Usings)
	r.scopes = append(r.scopes, ResolverScope{TableIndex: ns.Def_.Handle.Index()})

	// A single Walk call over the whole namespace, rather than one call per
	// declaration, shares one deferral queue across every decl: a chain in
	// struct A that depends on struct B's field type, and vice versa,
	// resolves once the initial descent has visited both structs' fields,
	// rather than each struct's Walk call discarding the queue before the
	// other struct's types exist (spec.md §8 Scenario 2, cyclic member types).
	ast.Walk[struct{}](ns, r.visit, r.visitClose)

	r.scopes = r.scopes[:len(r.scopes)-1]
	r.namespaceUsings = nil
}

func (r *Resolver) pushScope(idx symtab.NodeIndex) { r.scopes = append(r.scopes, ResolverScope{TableIndex: idx}) }
func (r *Resolver) popScope()                      { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *Resolver) visit(node ast.Node, depth int, deferred bool, ctx *struct{}) walk.Behavior {
	switch n := node.(type) {
	case *ast.Struct:
		r.pushScope(n.Def_.Handle.Index())
		r.aggregates = append(r.aggregates, n.Def())
	case *ast.Class:
		r.pushScope(n.Def_.Handle.Index())
		r.aggregates = append(r.aggregates, n.Def())
	case *ast.Function:
		r.pushScope(n.Def_.Handle.Index())
		r.resolveTypeRef(n.ReturnRef, ast.RefType)
	case *ast.OperatorDecl:
		r.pushScope(n.Def_.Handle.Index())
		r.resolveTypeRef(n.ReturnRef, ast.RefType)
	case *ast.Constructor:
		r.pushScope(n.Def_.Handle.Index())
	case *ast.BlockStmt:
		idx := r.currentScope()
		if h, ok := n.ScopeHandle.(symtab.Handle); ok && h.Valid() {
			idx = h.Index()
		}
		for _, st := range n.Statements {
			if d, ok := st.(*ast.DeclarationStmt); ok && d.Def_.Handle.Valid() {
				r.declOrdinal[d.Def_.Handle.Index()] = d.Ordinal()
			}
		}
		r.pushScope(idx)
	case *ast.Field:
		r.resolveTypeRef(n.TypeRef, ast.RefType)
		r.bindDeclType(n.Def_.Handle, n.TypeRef)
	case *ast.Parameter:
		r.resolveTypeRef(n.TypeRef, ast.RefType)
		r.bindDeclType(n.Def_.Handle, n.TypeRef)
	case *ast.DeclarationStmt:
		r.resolveTypeRef(n.TypeRef, ast.RefType)
		r.checkSelfInitializer(n)
		r.bindDeclType(n.Def_.Handle, n.TypeRef)
	case *ast.IdentifierExpr:
		r.resolveIdentifier(n)
	case *ast.ThisExpr:
		r.resolveThis(n)
	case *ast.ChainExpr:
		return r.resolveChain(n, deferred)
	case *ast.CallExpr:
		if n.CalleeRef != nil {
			n.CalleeRef.Expected = ast.RefFunctionOrConstructor
			r.resolveRef(n.CalleeRef)
		}
	case *ast.CastExpr:
		r.resolveTypeRef(n.TargetRef, ast.RefType)
	}
	return walk.Keep
}

func (r *Resolver) visitClose(node ast.Node, depth int) {
	switch node.(type) {
	case *ast.Struct, *ast.Class:
		r.popScope()
		r.aggregates = r.aggregates[:len(r.aggregates)-1]
	case *ast.Function, *ast.OperatorDecl, *ast.Constructor, *ast.BlockStmt:
		r.popScope()
	}
}

func (r *Resolver) currentScope() symtab.NodeIndex {
	if len(r.scopes) == 0 {
		return r.asm.Table().Root().Index()
	}
	return r.scopes[len(r.scopes)-1].TableIndex
}

// currentAggregateDef returns the innermost enclosing struct/class's own
// SymbolDef, the declared type a bare 'this' refers to.
func (r *Resolver) currentAggregateDef() *ast.SymbolDef {
	if len(r.aggregates) == 0 {
		return nil
	}
	return r.aggregates[len(r.aggregates)-1]
}

// bindDeclType records typeRef's resolved target as the declared type of the
// symbol declared at h, so a later member-access chain rooted at a reference
// to that symbol can look its type up without relying on Expr.InferredType
// (which the separate type-check pass, not the resolver, populates).
func (r *Resolver) bindDeclType(h symtab.Handle, typeRef *ast.SymbolRef) {
	if !h.Valid() || typeRef == nil || typeRef.State != ast.Resolved {
		return
	}
	r.declType[h.Index()] = typeRef.Target
}

// declaredTypeOf returns the declared type of the symbol e resolves to, used
// to look up the next segment of a member-access chain rooted at e.
func (r *Resolver) declaredTypeOf(e ast.Expr) *ast.SymbolDef {
	switch n := e.(type) {
	case *ast.IdentifierExpr:
		if n.Ref == nil || n.Ref.State != ast.Resolved || !n.Ref.Target.Handle.Valid() {
			return nil
		}
		return r.declType[n.Ref.Target.Handle.Index()]
	case *ast.ThisExpr:
		return r.currentAggregateDef()
	case *ast.ChainExpr:
		if n.Segment == nil || n.Segment.State != ast.Resolved || !n.Segment.Target.Handle.Valid() {
			return nil
		}
		return r.declType[n.Segment.Target.Handle.Index()]
	}
	return nil
}

func (r *Resolver) resolveTypeRef(ref *ast.SymbolRef, expected ast.RefKind) {
	if ref == nil {
		return
	}
	ref.Expected = expected
	r.resolveRef(ref)
}

func (r *Resolver) resolveIdentifier(e *ast.IdentifierExpr) {
	if e.Ref == nil {
		return
	}
	e.Ref.Expected = ast.RefIdentifier
	if !r.resolveRef(e.Ref) {
		return
	}
	r.checkUseBeforeDeclaration(e.Ref)
}

func (r *Resolver) resolveThis(e *ast.ThisExpr) {
	if e.Ref == nil {
		return
	}
	e.Ref.Expected = ast.RefThis
	// 'this' resolves to the innermost struct/class scope, which is always
	// the first pushed scope below the namespace; a simple table lookup is
	// unnecessary since the ref only needs its State marked.
	e.Ref.State = ast.Resolved
}

// resolveChain resolves a member-access chain left to right. The root
// segment uses ordinary name lookup; later segments look up under the
// resolved LHS's declared type. If the LHS's type is itself unresolved (a
// cyclic use/definition), the node is deferred (spec.md §4.2).
func (r *Resolver) resolveChain(c *ast.ChainExpr, deferred bool) walk.Behavior {
	if c.Left == nil {
		c.Segment.Expected = ast.RefAny
		r.resolveRef(c.Segment)
		return walk.Keep
	}

	leftExpr, ok := c.Left.(ast.Expr)
	if !ok {
		return walk.Keep
	}
	lhsType := r.declaredTypeOf(leftExpr)
	if lhsType == nil {
		if !deferred {
			return walk.Defer
		}
		c.Segment.MarkNotFound()
		return walk.Keep
	}

	table := lhsType.Assembly.Table()
	if h := table.FindNodeIndexPart(c.Segment.Name, lhsType.Handle.Index()); h.Valid() {
		c.Segment.Resolve(&ast.SymbolDef{DefKind: h.Node().Metadata.SymType, Assembly: lhsType.Assembly, Handle: h})
		if !c.Segment.Expected.AcceptsKind(h.Node().Metadata.SymType) {
			r.bag.Reportf(diag.SymbolKindMismatch, diag.Error, c.Span(), "member %q is not a %v", c.Segment.Name, c.Segment.Expected)
		}
		return walk.Keep
	}

	// No declared member: try swizzle synthesis against a primitive LHS.
	if lhsType.Handle.Valid() {
		if meta := lhsType.Handle.Node().Metadata; meta != nil && meta.SymType == symtab.SymPrimitive {
			rows := decodePrimitiveRows(meta.DeclBody)
			if types.ValidPattern(c.Segment.Name, rows) {
				def := r.swizzles.GetOrCreate(lhsType, c.Segment.Name)
				c.Segment.Resolve(def)
				return walk.Keep
			}
		}
	}

	c.Segment.MarkNotFound()
	r.bag.Reportf(diag.SymbolNotFound, diag.Error, c.Span(), "member %q not found", c.Segment.Name)
	return walk.Keep
}

// decodePrimitiveRows extracts the row count from a PrimitiveInfo DeclBody
// without importing types' internal layout assumptions beyond its
// documented encode order (scalar, rows, cols).
func decodePrimitiveRows(body []byte) int {
	if len(body) < 2 {
		return 0
	}
	return int(body[1])
}

func (r *Resolver) checkSelfInitializer(d *ast.DeclarationStmt) {
	if d.Init == nil {
		return
	}
	if id, ok := d.Init.(*ast.IdentifierExpr); ok && id.Ref != nil && id.Ref.Name == d.Def_.ShortName.String() {
		r.bag.Reportf(diag.SelfInitializer, diag.Error, d.Span(), "variable %q cannot reference itself in its own initializer", d.Def_.ShortName.String())
	}
}

func (r *Resolver) checkUseBeforeDeclaration(ref *ast.SymbolRef) {
	if ref.Target == nil || !ref.Target.Handle.Valid() {
		return
	}
	declOrdinal, ok := r.declOrdinal[ref.Target.Handle.Index()]
	if !ok {
		return
	}
	if ref.Ordinal() < declOrdinal {
		r.bag.Reportf(diag.UseBeforeDeclaration, diag.Error, ref.Span(), "%q used before its declaration", ref.Name)
	}
}

// resolveRef implements the five-step lookup order (spec.md §4.2) and the
// kind-sanity check.
func (r *Resolver) resolveRef(ref *ast.SymbolRef) bool {
	def, ok := r.lookup(ref.Name, ref.Expected)
	if !ok {
		ref.MarkNotFound()
		r.bag.Reportf(diag.SymbolNotFound, diag.Error, ref.Span(), "symbol %q not found", ref.Name)
		return false
	}
	ref.Resolve(def)
	return true
}

func (r *Resolver) lookup(name string, expected ast.RefKind) (*ast.SymbolDef, bool) {
	// 1. Primitive assembly.
	prim := types.PrimitiveAssembly()
	if h := prim.Table().FindNodeIndexPart(name, prim.Table().Root().Index()); h.Valid() && expected.AcceptsKind(h.Node().Metadata.SymType) {
		return &ast.SymbolDef{DefKind: h.Node().Metadata.SymType, Assembly: prim, Handle: h}, true
	}

	// 2. Local assembly, walking the scope stack outward.
	table := r.asm.Table()
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if h := table.FindNodeIndexPart(name, r.scopes[i].TableIndex); h.Valid() && expected.AcceptsKind(h.Node().Metadata.SymType) {
			return &ast.SymbolDef{DefKind: h.Node().Metadata.SymType, Assembly: r.asm, Handle: h}, true
		}
	}

	// 3. Current namespace's referenced assemblies.
	for _, ref := range r.asm.References() {
		if r.incompatibleRefs[ref] {
			continue
		}
		if h := ref.Table().FindNodeIndexFullPath(name, ref.Table().Root().Index()); h.Valid() && expected.AcceptsKind(h.Node().Metadata.SymType) {
			return &ast.SymbolDef{DefKind: h.Node().Metadata.SymType, Assembly: ref, Handle: h}, true
		}
	}

	// 4. Each using in the current namespace.
	if def, ok := r.lookupViaUsings(r.namespaceUsings, name, expected); ok {
		return def, true
	}

	// 5. Each using at compilation-unit scope.
	return r.lookupViaUsings(r.unitUsings, name, expected)
}

func (r *Resolver) lookupViaUsings(usings []string, name string, expected ast.RefKind) (*ast.SymbolDef, bool) {
	table := r.asm.Table()
	for _, ns := range usings {
		if h := table.FindNodeIndexFullPath(ns+"."+name, table.Root().Index()); h.Valid() && expected.AcceptsKind(h.Node().Metadata.SymType) {
			return &ast.SymbolDef{DefKind: h.Node().Metadata.SymType, Assembly: r.asm, Handle: h}, true
		}
	}
	return nil, false
}
