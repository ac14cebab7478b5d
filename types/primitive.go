// Package types constructs synthetic SymbolDefs for the primitive lattice,
// array/pointer types and swizzle accessors — none of these are declared in
// source, so nothing in the collector or parser creates them; instead each
// manager below populates a symbol table on demand (spec.md §2 "Primitive/
// array/pointer/swizzle managers").
package types

import (
	"fmt"
	"sync"

	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/internal/arena"
	"github.com/hexashader/hxlc/symtab"
)

var privateInterner = arena.NewInterner()

// ScalarKind is the scalar half of the primitive lattice (spec.md GLOSSARY
// "Primitive lattice").
type ScalarKind int

const (
	ScalarVoid ScalarKind = iota
	ScalarBool
	ScalarI8
	ScalarU8
	ScalarI16
	ScalarU16
	ScalarI32
	ScalarU32
	ScalarI64
	ScalarU64
	ScalarF16
	ScalarF32
	ScalarF64
)

var scalarNames = map[ScalarKind]string{
	ScalarVoid: "void", ScalarBool: "bool",
	ScalarI8: "int8", ScalarU8: "uint8", ScalarI16: "int16", ScalarU16: "uint16",
	ScalarI32: "int", ScalarU32: "uint", ScalarI64: "int64", ScalarU64: "uint64",
	ScalarF16: "half", ScalarF32: "float", ScalarF64: "double",
}

// Rank orders scalar kinds for numeric promotion (spec.md §4.3): higher
// ranks dominate in `f64 > f32 > f16 > i64/u64 > i32/u32 > i16/u16 > i8/u8`.
func (s ScalarKind) Rank() int {
	order := []ScalarKind{ScalarI8, ScalarU8, ScalarI16, ScalarU16, ScalarI32, ScalarU32, ScalarI64, ScalarU64, ScalarF16, ScalarF32, ScalarF64}
	for i, k := range order {
		if k == s {
			return i
		}
	}
	return -1 // void/bool do not participate in numeric promotion
}

// Class is the shape half of the primitive lattice: scalar, vector N, or
// matrix RxC.
type Class struct {
	Rows, Cols int // Rows==1,Cols==1 => scalar; Cols==1,Rows>1 => vector; else matrix
}

func (c Class) IsScalar() bool { return c.Rows == 1 && c.Cols == 1 }
func (c Class) IsVector() bool { return c.Cols == 1 && c.Rows > 1 }
func (c Class) IsMatrix() bool { return c.Rows > 1 && c.Cols > 1 }

// PrimitiveInfo is the DeclBody payload for a symtab.Metadata of SymKind
// SymPrimitive, decoded by Decode/Encode below so it survives the binary
// codec round trip (spec.md §6.1 DECL_BODY "variant-specific payload").
type PrimitiveInfo struct {
	Scalar ScalarKind
	Class  Class
}

func (p PrimitiveInfo) Name() string {
	base := scalarNames[p.Scalar]
	switch {
	case p.Class.IsScalar():
		return base
	case p.Class.IsVector():
		return fmt.Sprintf("%s%d", base, p.Class.Rows)
	default:
		return fmt.Sprintf("%s%dx%d", base, p.Class.Rows, p.Class.Cols)
	}
}

func (p PrimitiveInfo) Encode() []byte {
	return []byte{byte(p.Scalar), byte(p.Class.Rows), byte(p.Class.Cols)}
}

func DecodePrimitiveInfo(b []byte) PrimitiveInfo {
	if len(b) < 3 {
		return PrimitiveInfo{}
	}
	return PrimitiveInfo{Scalar: ScalarKind(b[0]), Class: Class{Rows: int(b[1]), Cols: int(b[2])}}
}

// Manager is the process-wide primitive catalog: every scalar x class x
// shape combination and their built-in cast/arithmetic operator overloads,
// built exactly once (Design Note "Globals", SPEC_FULL.md §4a).
type Manager struct {
	Table *symtab.Table
	byKey map[string]*ast.SymbolDef
}

var (
	instance     *Manager
	instanceOnce sync.Once
)

// Instance returns the process-wide primitive manager, populating it on
// first use.
func Instance() *Manager {
	instanceOnce.Do(func() {
		instance = newManager()
		instance.populate()
	})
	return instance
}

func newManager() *Manager {
	return &Manager{Table: symtab.New(), byKey: map[string]*ast.SymbolDef{}}
}

func (m *Manager) Name() string          { return "$primitives" }
func (m *Manager) TableFor() *symtab.Table { return m.Table }

// primitiveAssembly adapts Manager to ast.AssemblyRef so synthesized
// SymbolDefs can compute their FQN.
type primitiveAssembly struct{ m *Manager }

func (p primitiveAssembly) Table() *symtab.Table { return p.m.Table }
func (p primitiveAssembly) Name() string         { return p.m.Name() }

// PrimitiveAssembly exposes the process-wide primitive catalog as an
// ast.AssemblyRef, for callers (the resolve package's name-lookup order
// item 1, spec.md §4.2) that need to search it the same way they search any
// other assembly's table.
func PrimitiveAssembly() ast.AssemblyRef { return primitiveAssembly{Instance()} }

func (m *Manager) populate() {
	shapes := []Class{{1, 1}}
	for n := 2; n <= 4; n++ {
		shapes = append(shapes, Class{n, 1})
	}
	for r := 1; r <= 4; r++ {
		for c := 1; c <= 4; c++ {
			if r > 1 && c > 1 {
				shapes = append(shapes, Class{r, c})
			}
		}
	}
	scalars := []ScalarKind{ScalarVoid, ScalarBool, ScalarI8, ScalarU8, ScalarI16, ScalarU16,
		ScalarI32, ScalarU32, ScalarI64, ScalarU64, ScalarF16, ScalarF32, ScalarF64}

	for _, sc := range scalars {
		for _, sh := range shapes {
			if sc == ScalarVoid && !sh.IsScalar() {
				continue // void only exists as a scalar (function return type)
			}
			info := PrimitiveInfo{Scalar: sc, Class: sh}
			def := &ast.SymbolDef{
				ShortName: internIdentifier(info.Name()),
				DefKind:   symtab.SymPrimitive,
				Assembly:  primitiveAssembly{m},
			}
			handle := m.Table.Insert(info.Name(), &symtab.Metadata{
				SymType: symtab.SymPrimitive, HasDecl: true, DeclKind: 0, DeclBody: info.Encode(),
			}, m.Table.Root().Index())
			def.Handle = handle
			m.byKey[info.Name()] = def
		}
	}
	m.populateOperators()
}

// Lookup finds a primitive's SymbolDef by its printed name (e.g. "float4").
func (m *Manager) Lookup(name string) *ast.SymbolDef {
	return m.byKey[name]
}

// byNameInterner is a tiny local interner so PrimitiveInfo names get stable
// ast.Identifier values without requiring callers to thread an arena.Interner
// through Manager (the catalog is process-wide and outlives any one
// compilation's arena, per Design Note "Globals").
var byNameInterner = struct {
	mu      sync.Mutex
	entries map[string]ast.Identifier
}{entries: map[string]ast.Identifier{}}

func internIdentifier(name string) ast.Identifier {
	byNameInterner.mu.Lock()
	defer byNameInterner.mu.Unlock()
	if id, ok := byNameInterner.entries[name]; ok {
		return id
	}
	// The catalog is process-wide and outlives any one compilation, so it
	// interns through its own private interner rather than a compilation's.
	id := privateInterner.Intern(name)
	byNameInterner.entries[name] = id
	return id
}
