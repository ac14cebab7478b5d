package types

import (
	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/symtab"
)

// PointerManager synthesizes SymbolDefs for pointer types on demand, one per
// distinct pointee, grounded on original_source/ast_modules/pointer_manager.*.
type PointerManager struct {
	table *symtab.Table
	owner ast.AssemblyRef
}

func NewPointerManager(owner ast.AssemblyRef) *PointerManager {
	return &PointerManager{table: owner.Table(), owner: owner}
}

// GetOrCreate returns the pointer type's SymbolDef for pointee, synthesizing
// one the first time this pointee is requested under parent scope.
func (pm *PointerManager) GetOrCreate(pointee *ast.SymbolDef, under symtab.NodeIndex) *ast.SymbolDef {
	name := pointee.FQN() + "*"
	if h := pm.table.FindNodeIndexPart(name, under); h.Valid() && h.Node().Metadata != nil {
		return defFromHandle(pm.owner, h)
	}
	h := pm.table.Insert(name, &symtab.Metadata{
		SymType: symtab.SymPointer, HasDecl: true, DeclBody: []byte(pointee.FQN()),
	}, under)
	return &ast.SymbolDef{ShortName: pointee.ShortName, DefKind: symtab.SymPointer, Assembly: pm.owner, Handle: h}
}
