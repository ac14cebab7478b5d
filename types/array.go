package types

import (
	"fmt"

	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/symtab"
)

// ArrayManager synthesizes SymbolDefs for array types on demand, one per
// distinct (element type, dimensions) pair, under the owning assembly's own
// table so the defs share that assembly's lifetime.
type ArrayManager struct {
	table *symtab.Table
	owner ast.AssemblyRef
}

func NewArrayManager(owner ast.AssemblyRef) *ArrayManager {
	return &ArrayManager{table: owner.Table(), owner: owner}
}

// ArrayInfo is the DECL_BODY payload for a SymArray metadata node.
type ArrayInfo struct {
	ElementFQN string
	Dims       []int64
}

func arrayTypeName(elementFQN string, dims []int64) string {
	name := elementFQN
	for _, d := range dims {
		name += fmt.Sprintf("[%d]", d)
	}
	return name
}

// GetOrCreate returns the array type's SymbolDef, synthesizing one the first
// time this (element, dims) pair is requested under parent scope.
func (am *ArrayManager) GetOrCreate(element *ast.SymbolDef, dims []int64, under symtab.NodeIndex) *ast.SymbolDef {
	name := arrayTypeName(element.FQN(), dims)
	if h := am.table.FindNodeIndexPart(name, under); h.Valid() && h.Node().Metadata != nil {
		return defFromHandle(am.owner, h)
	}
	body := encodeArrayInfo(ArrayInfo{ElementFQN: element.FQN(), Dims: dims})
	h := am.table.Insert(name, &symtab.Metadata{SymType: symtab.SymArray, HasDecl: true, DeclBody: body}, under)
	return &ast.SymbolDef{ShortName: element.ShortName, DefKind: symtab.SymArray, Assembly: am.owner, Handle: h}
}

func defFromHandle(owner ast.AssemblyRef, h symtab.Handle) *ast.SymbolDef {
	return &ast.SymbolDef{DefKind: h.Node().Metadata.SymType, Assembly: owner, Handle: h}
}

func encodeArrayInfo(info ArrayInfo) []byte {
	buf := []byte(info.ElementFQN)
	buf = append(buf, 0)
	for _, d := range info.Dims {
		buf = append(buf, byte(d), byte(d>>8), byte(d>>16), byte(d>>24), byte(d>>32), byte(d>>40), byte(d>>48), byte(d>>56))
	}
	return buf
}
