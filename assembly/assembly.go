// Package assembly implements the compiled unit described in spec.md §3/§6:
// a named symbol table plus serialized IL, loadable and writable as a single
// binary stream.
package assembly

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/symtab"
	"github.com/viant/afs"
)

// overloadKey identifies every function declared under the same parent
// scope with the same short name — the candidate set spec.md §4.3
// "Function calls" scores by arity and implicit-cast distance.
type overloadKey struct {
	scope symtab.NodeIndex
	name  string
}

// Assembly owns one symtab.Table and a name (spec.md §3 "Assembly").
type Assembly struct {
	name       string
	table      *symtab.Table
	references []*Assembly
	overloads  map[overloadKey][]*ast.Function
	// LanguageVersion's semver major component must equal that of each
	// assembly it references; resolution excludes a reference whose major
	// component differs (SPEC_FULL.md §2a).
	LanguageVersion string
	// ILPayload is the encoded function bodies (ilcodec.Encode output),
	// opaque to this package.
	ILPayload []byte
}

// Table implements ast.AssemblyRef.
func (a *Assembly) Table() *symtab.Table { return a.table }

// Name implements ast.AssemblyRef.
func (a *Assembly) Name() string { return a.name }

// References returns the assemblies this one was compiled against (spec.md
// §4.2 lookup order item 3, "Current namespace's referenced assemblies").
func (a *Assembly) References() []*Assembly { return a.references }

// AddReference records ref as searchable during this assembly's symbol
// resolution.
func (a *Assembly) AddReference(ref *Assembly) { a.references = append(a.references, ref) }

// AddOverload registers fn as a call candidate for name declared directly
// under scope, populated by the collect package as each function/method is
// collected (spec.md §4.3 "Function calls").
func (a *Assembly) AddOverload(scope symtab.NodeIndex, name string, fn *ast.Function) {
	if a.overloads == nil {
		a.overloads = map[overloadKey][]*ast.Function{}
	}
	key := overloadKey{scope, name}
	a.overloads[key] = append(a.overloads[key], fn)
}

// Overloads returns every function declared directly under scope with
// short name name, in declaration order.
func (a *Assembly) Overloads(scope symtab.NodeIndex, name string) []*ast.Function {
	return a.overloads[overloadKey{scope, name}]
}

// Create makes an empty, named Assembly (spec.md §6.2 "Assembly::Create").
func Create(name string) *Assembly {
	return &Assembly{name: name, table: symtab.New(), LanguageVersion: "v1.0.0"}
}

// Insert inserts path under the given parent, returning the new handle or
// the zero Handle on redefinition (spec.md §3 "Assembly.Insert").
func (a *Assembly) Insert(path string, metadata *symtab.Metadata, under symtab.NodeIndex) symtab.Handle {
	return a.table.Insert(path, metadata, under)
}

// LoadErrorKind enumerates the typed failures from loading an assembly
// (spec.md §7 "Assembly I/O").
type LoadErrorKind int

const (
	FileNotFound LoadErrorKind = iota
	ParseError
	Truncated
	ChecksumMismatch
	VersionMismatch
)

// LoadError is returned by Load on any I/O or framing failure; callers
// switch on Kind rather than string-matching errors.
type LoadError struct {
	Kind LoadErrorKind
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("assembly: load failed (%v): %v", e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load resolves url through afs (local path, mem://, or any afs-registered
// scheme — SPEC_FULL.md §2a) and decodes the binary stream into a new
// Assembly.
func Load(ctx context.Context, url string) (*Assembly, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, &LoadError{Kind: FileNotFound, Err: err}
	}
	a, err := Decode(data)
	if err != nil {
		return nil, err
	}
	a.name = strippedBaseName(url)
	return a, nil
}

func strippedBaseName(url string) string {
	base := path.Base(url)
	return strings.TrimSuffix(base, path.Ext(base))
}

// SaveTo resolves url through afs and writes the encoded assembly there.
func SaveTo(ctx context.Context, a *Assembly, url string) error {
	fs := afs.New()
	data, err := Encode(a)
	if err != nil {
		return err
	}
	return fs.Upload(ctx, url, os.FileMode(0644), bytes.NewReader(data))
}
