// Package compiler implements the compilation driver (spec.md §1's "lexer/
// tokenizer, parser ... remain external collaborators referenced only by
// interface"): it owns the arena/assembly/diagnostics state for one
// compilation, fans out parsing and symbol collection across sources, then
// runs resolution and type checking over the merged result.
package compiler

import (
	"context"
	"fmt"

	"github.com/hexashader/hxlc/assembly"
	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/collect"
	"github.com/hexashader/hxlc/config"
	"github.com/hexashader/hxlc/diag"
	"github.com/hexashader/hxlc/internal/arena"
	"github.com/hexashader/hxlc/resolve"
	"golang.org/x/sync/errgroup"
)

// Source is one input file handed to the configured Parser.
type Source struct {
	Path string
	Text string
}

// Parser turns one Source into a parsed compilation unit using a's Interner
// for any names it declares. A real Parser — tokenizing Text via a Lexer and
// building the ast.CompilationUnit — is an external collaborator out of
// scope for this module (spec.md §1); Compile takes one as a dependency so
// its own tests can supply a stub that builds ast trees directly with ast
// constructors, exactly as the teacher's tests build *graph.Type trees
// directly rather than going through a real parser.
type Parser interface {
	Parse(ctx context.Context, src Source, a *arena.Arena) (*ast.CompilationUnit, error)
}

// Compilation owns the state of one compile: the shared arena (and its
// Interner) every source's private arena draws names from, the assembly
// under construction, and the diagnostics accumulated across every stage.
type Compilation struct {
	Arena    *arena.Arena
	Assembly *assembly.Assembly
	Bag      *diag.Bag
	Units    []*ast.CompilationUnit
}

// unitResult is one source's outcome, collected by its own goroutine and
// merged back onto the Compilation sequentially once every goroutine in the
// errgroup has finished, so later stages see diagnostics in source order.
type unitResult struct {
	unit *ast.CompilationUnit
	bag  diag.Bag
}

// Compile parses and collects every source concurrently — one private arena
// per source sharing name, merges each source's declarations into a single
// named assembly linked against references, then resolves and type-checks
// the merged result (SPEC_FULL.md §5: "Compile parallelizes per-compilation-
// unit parsing/collection using golang.org/x/sync/errgroup; each goroutine
// owns a private arena.Arena and a private ast tree; collection into the
// shared assembly.Assembly's symtab.Table is serialized by the table's
// internal sync.RWMutex").
//
// Compile returns an error only for a collaborator failure (a Parser
// returning an error, or ctx being cancelled); diagnostics produced by
// collection, resolution or type checking are recorded on the returned
// Compilation's Bag instead, per spec.md §7's "no exceptions cross module
// boundaries; results are returned explicitly".
//
// opts is variadic so existing callers that never supply a compiler-options
// document are unaffected; only opts[0] is consulted when present.
func Compile(ctx context.Context, name string, sources []Source, parser Parser, references []*assembly.Assembly, opts ...*config.Options) (*Compilation, error) {
	asm := assembly.Create(name)
	byName := make(map[string]*assembly.Assembly, len(references))
	for _, ref := range references {
		byName[ref.Name()] = ref
	}

	comp := &Compilation{
		Arena:    arena.New(),
		Assembly: asm,
		Bag:      &diag.Bag{},
	}
	if len(opts) > 0 {
		if err := opts[0].Apply(comp.Bag); err != nil {
			return nil, err
		}
	}

	results := make([]unitResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			unitArena := arena.NewWithInterner(comp.Arena.Interner)
			unit, err := parser.Parse(gctx, src, unitArena)
			if err != nil {
				return fmt.Errorf("compiler: parse %s: %w", src.Path, err)
			}
			var unitBag diag.Bag
			collect.New(asm, &unitBag).Unit(unit)
			results[i] = unitResult{unit: unit, bag: unitBag}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range results {
		comp.Units = append(comp.Units, r.unit)
		for _, d := range r.bag.Items() {
			comp.Bag.Report(d)
		}
	}
	if comp.Bag.Aborted() {
		return comp, nil
	}

	linkReferences(asm, comp.Units, byName, comp.Bag)

	for _, unit := range comp.Units {
		resolve.New(asm, comp.Bag).Unit(unit)
	}
	if comp.Bag.Aborted() {
		return comp, nil
	}

	checker := resolve.NewChecker(asm, comp.Bag)
	for _, unit := range comp.Units {
		checker.Unit(unit)
	}

	return comp, nil
}

// linkReferences resolves every namespace's declared assembly-reference
// names against the pool of assemblies Compile was given, adding each
// distinct match once (ast.Namespace.References: "referenced assembly
// names, resolved by the compiler driver"). A name with no match in the
// pool is reported rather than silently ignored.
func linkReferences(asm *assembly.Assembly, units []*ast.CompilationUnit, pool map[string]*assembly.Assembly, bag *diag.Bag) {
	linked := map[string]bool{}
	for _, unit := range units {
		for _, ns := range unit.Namespaces {
			for _, name := range ns.References {
				if linked[name] {
					continue
				}
				ref, ok := pool[name]
				if !ok {
					bag.Reportf(diag.ReferenceNotSupplied, diag.Error, ns.Span(),
						"namespace %q references assembly %q, which was not supplied to Compile",
						ns.Def_.ShortName.String(), name)
					linked[name] = true
					continue
				}
				asm.AddReference(ref)
				linked[name] = true
			}
		}
	}
}
