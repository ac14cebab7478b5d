package types

import (
	"strings"

	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/symtab"
)

var swizzleSets = [][]byte{
	[]byte("xyzw"),
	[]byte("rgba"),
	[]byte("stpq"),
}

// ComponentIndex returns the 0-3 component index for a swizzle letter, or
// -1 if it belongs to no recognized set.
func ComponentIndex(c byte) int {
	for _, set := range swizzleSets {
		for i, ch := range set {
			if ch == c {
				return i
			}
		}
	}
	return -1
}

// ValidPattern reports whether pattern is 1-4 characters, all drawn from a
// single component-letter set, with every index within rowCount (spec.md
// §4.2 "Swizzle synthesis").
func ValidPattern(pattern string, rowCount int) bool {
	if len(pattern) < 1 || len(pattern) > 4 {
		return false
	}
	setIdx := -1
	for i := 0; i < len(pattern); i++ {
		idx := ComponentIndex(pattern[i])
		if idx < 0 || idx >= rowCount {
			return false
		}
		for si, set := range swizzleSets {
			if strings.IndexByte(string(set), pattern[i]) >= 0 {
				if setIdx == -1 {
					setIdx = si
				} else if setIdx != si {
					return false
				}
			}
		}
	}
	return true
}

// Mask packs pattern into 2 bits per component (spec.md §4.2).
func Mask(pattern string) uint8 {
	var mask uint8
	for i := 0; i < len(pattern) && i < 4; i++ {
		idx := ComponentIndex(pattern[i])
		mask |= uint8(idx&0x3) << (uint(i) * 2)
	}
	return mask
}

// SwizzleManager synthesizes SwizzleDef SymbolDefs under a vector primitive's
// own table entry the first time a given pattern is used.
type SwizzleManager struct {
	table *symtab.Table
	owner ast.AssemblyRef
}

func NewSwizzleManager(owner ast.AssemblyRef) *SwizzleManager {
	return &SwizzleManager{table: owner.Table(), owner: owner}
}

// GetOrCreate returns the SymbolDef for pattern on prim (a vector
// primitive), synthesizing it the first time this pattern is requested.
func (sm *SwizzleManager) GetOrCreate(prim *ast.SymbolDef, pattern string) *ast.SymbolDef {
	if h := sm.table.FindNodeIndexPart(pattern, prim.Handle.Index()); h.Valid() && h.Node().Metadata != nil {
		return defFromHandle(sm.owner, h)
	}
	h := sm.table.Insert(pattern, &symtab.Metadata{
		SymType: symtab.SymSwizzleDef, HasDecl: true, DeclBody: []byte{Mask(pattern), byte(len(pattern))},
	}, prim.Handle.Index())
	return &ast.SymbolDef{DefKind: symtab.SymSwizzleDef, Assembly: sm.owner, Handle: h}
}
