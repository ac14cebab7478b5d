package types

import (
	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/symtab"
)

// operatorInfo is the DeclBody payload for a SymOperator metadata node
// attached under a primitive's own table entry.
type operatorInfo struct {
	Opcode   byte // '#' for casts
	Implicit bool
}

func (o operatorInfo) Encode() []byte {
	b := byte(0)
	if o.Implicit {
		b = 1
	}
	return []byte{o.Opcode, b}
}

func DecodeOperatorInfo(b []byte) operatorInfo {
	if len(b) < 2 {
		return operatorInfo{}
	}
	return operatorInfo{Opcode: b[0], Implicit: b[1] != 0}
}

var arithmeticOps = []byte{'+', '-', '*', '/', '%', '&', '|', '^'}
var comparisonOps = []byte{'=', '!', '<', '>'} // eq, ne, lt, gt stand-ins; not registered by populateOperators

// populateOperators builds the built-in arithmetic and cast overload set for
// every primitive, grounded on original_source/src/lang/operator.h's per-kind
// overload tables. No comparison overloads are registered; the type checker
// types comparisons as bool directly.
func (m *Manager) populateOperators() {
	for _, def := range m.byKey {
		info := DecodePrimitiveInfo(def.Handle.Node().Metadata.DeclBody)
		if info.Scalar == ScalarVoid {
			continue
		}
		m.addArithmeticOverloads(def, info)
		m.addCastOverloads(def, info)
	}
}

func (m *Manager) addArithmeticOverloads(def *ast.SymbolDef, info PrimitiveInfo) {
	if info.Scalar == ScalarBool {
		return // bool only gets logical ops, handled by the type checker directly
	}
	selfFQN := info.Name()
	for _, op := range arithmeticOps {
		sig := string(op) + "(" + selfFQN + "," + selfFQN + ")"
		m.Table.Insert(sig, &symtab.Metadata{
			SymType: symtab.SymOperator, HasDecl: true,
			DeclBody: operatorInfo{Opcode: op}.Encode(),
		}, def.Handle.Index())
	}
}

// addCastOverloads registers "#TargetFQN(SourceFQN)" under this primitive's
// own table entry for every other primitive of the same Class with a
// different scalar kind: implicit when widening by rank, explicit
// always (spec.md §4.3 "Casts").
func (m *Manager) addCastOverloads(def *ast.SymbolDef, info PrimitiveInfo) {
	selfFQN := info.Name()
	for _, other := range m.byKey {
		otherInfo := DecodePrimitiveInfo(other.Handle.Node().Metadata.DeclBody)
		if otherInfo.Class != info.Class || otherInfo.Scalar == info.Scalar {
			continue
		}
		if otherInfo.Scalar == ScalarVoid || info.Scalar == ScalarVoid {
			continue
		}
		sig := "#" + otherInfo.Name() + "(" + selfFQN + ")"
		implicit := otherInfo.Scalar.Rank() >= info.Scalar.Rank() && otherInfo.Scalar.Rank() >= 0 && info.Scalar.Rank() >= 0
		m.Table.Insert(sig, &symtab.Metadata{
			SymType: symtab.SymOperator, HasDecl: true,
			DeclBody: operatorInfo{Opcode: '#', Implicit: implicit}.Encode(),
		}, def.Handle.Index())
	}
}

// FindOperator looks up a built-in overload by its full signature string
// under prim's own primitive SymbolDef.
func (m *Manager) FindOperator(prim *ast.SymbolDef, signature string) symtab.Handle {
	if prim == nil || !prim.Handle.Valid() {
		return symtab.Handle{}
	}
	return m.Table.FindNodeIndexPart(signature, prim.Handle.Index())
}
