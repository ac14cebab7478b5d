// Package il defines the intermediate-language data model: SSA variables,
// operands, the tagged instruction set, and basic blocks (spec.md §3 "IL
// data model", §4.4).
package il

import (
	"fmt"

	"github.com/hexashader/hxlc/ast"
)

// VarId is a 64-bit composite (base 32b, version 16b, tag 16b). Every
// reassignment of a source-level variable bumps version while sharing base,
// which is what lets GVN and the unroller treat distinct SSA generations of
// the same variable as distinct values (spec.md §4.4).
type VarId uint64

func NewVarId(base uint32, version, tag uint16) VarId {
	return VarId(uint64(base)<<32 | uint64(version)<<16 | uint64(tag))
}

func (v VarId) Base() uint32    { return uint32(v >> 32) }
func (v VarId) Version() uint16 { return uint16(v >> 16) }
func (v VarId) Tag() uint16     { return uint16(v) }

// StripVersion zeroes the version field, the "same source variable"
// identity used when comparing across SSA generations.
func (v VarId) StripVersion() VarId { return NewVarId(v.Base(), 0, v.Tag()) }

// WithVersion returns a VarId sharing Base/Tag but carrying ver, the
// operation the optimizer's unroll pass uses to mint a fresh
// SSA generation of an existing variable.
func (v VarId) WithVersion(ver uint16) VarId { return NewVarId(v.Base(), ver, v.Tag()) }

func (v VarId) String() string {
	return fmt.Sprintf("%%%d.%d", v.Base(), v.Version())
}

// Number reuses ast.Number, the IL layer's constants are the same
// tagged-union values the type checker already attaches to LiteralExpr, so
// lowering does not need a second numeric-kind enum.
type Number = ast.Number

func I32Const(v int32) Number { return Number{Kind: ast.NumI32, Bits: uint64(uint32(v))} }
func I64Const(v int64) Number { return Number{Kind: ast.NumI64, Bits: uint64(v)} }

func AsInt64(n Number) int64 { return int64(n.Bits) }

// OperandKind tags an Operand's variant for the binary codec (spec.md
// §4.4 "Operand kinds"), 4-bit range.
type OperandKind uint8

const (
	OperandDisabled OperandKind = iota
	OperandVariable
	OperandImmU8
	OperandImmI8
	OperandImmU16
	OperandImmI16
	OperandImmF16
	OperandImmU32
	OperandImmI32
	OperandImmF32
	OperandImmU64
	OperandImmI64
	OperandImmF64
	OperandLabel
	OperandType
	OperandFunction
	OperandField
)

// Operand is a tagged union over the operand variants spec.md §3 lists.
type Operand struct {
	Kind     OperandKind
	Var      VarId
	Const    Number
	Label    uint32
	TypeID   uint32
	FuncID   uint32
	FieldID  uint32
	FieldOn  uint32 // the type-id half of FieldAccess(type-id, field-id)
}

func VarOperand(v VarId) Operand     { return Operand{Kind: OperandVariable, Var: v} }
func ConstOperand(n Number) Operand  { return Operand{Kind: operandKindForNumber(n.Kind), Const: n} }
func LabelOperand(id uint32) Operand { return Operand{Kind: OperandLabel, Label: id} }
func TypeOperand(id uint32) Operand  { return Operand{Kind: OperandType, TypeID: id} }
func FuncOperand(id uint32) Operand  { return Operand{Kind: OperandFunction, FuncID: id} }
func FieldOperand(ty, field uint32) Operand {
	return Operand{Kind: OperandField, FieldOn: ty, FieldID: field}
}

func operandKindForNumber(k ast.NumberKind) OperandKind {
	switch k {
	case ast.NumU8:
		return OperandImmU8
	case ast.NumI8:
		return OperandImmI8
	case ast.NumU16:
		return OperandImmU16
	case ast.NumI16:
		return OperandImmI16
	case ast.NumF16:
		return OperandImmF16
	case ast.NumU32:
		return OperandImmU32
	case ast.NumI32:
		return OperandImmI32
	case ast.NumF32:
		return OperandImmF32
	case ast.NumU64:
		return OperandImmU64
	case ast.NumI64:
		return OperandImmI64
	case ast.NumF64:
		return OperandImmF64
	}
	return OperandDisabled
}

// Opcode enumerates instruction classes (spec.md §4.4 "Instruction
// classes"); binary/unary arithmetic opcodes are distinguished further by
// Instruction.BinOp / Instruction.UnOp.
type Opcode uint8

const (
	OpBasic Opcode = iota
	OpReturn
	OpCall
	OpJump
	OpJumpIfFalse
	OpBinary
	OpUnary
	OpStackAlloc
	OpOffsetAddress
	OpLoad
	OpStore
	OpLoadParam
	OpStoreParam
	OpMove
	OpPhi
)

// Instruction is one IL operation. Not every field is meaningful for every
// Opcode; see spec.md §4.4 for the per-class operand layout this mirrors.
type Instruction struct {
	Op        Opcode
	Result    VarId
	HasResult bool

	// Binary/Unary sub-opcode, reusing ast's operator identities so the IL
	// lowering stage does not need a second enum.
	BinOp ast.BinaryOp
	UnOp  ast.UnaryOp

	LHS, RHS Operand
	Target   Operand // Jump label, Call function, StackAlloc type
	Base     Operand // OffsetAddress/Load/Store base variable
	Field    Operand // OffsetAddress field access

	Args     []Operand // Call arguments, Phi incoming values
	PhiPreds []uint32  // Phi: predecessor block index per Args entry
}

// BasicBlock is an ordered instruction list plus CFG edges.
type BasicBlock struct {
	ID           uint32
	Instructions []Instruction
	Preds, Succs []uint32
}

// Function is one compiled function's lowered body.
type Function struct {
	Name   string
	Blocks []*BasicBlock
}

// AddSucc records a CFG edge from-to, keeping Preds/Succs symmetric. Used by
// cfg construction and by the unroller's preheader/latch rewiring.
func (b *BasicBlock) AddSucc(to *BasicBlock) {
	b.Succs = append(b.Succs, to.ID)
	to.Preds = append(to.Preds, b.ID)
}

// RemoveSucc removes a single from-to CFG edge, used when the unroller
// unlinks preheader->header before linking the preheader to the first
// unrolled block.
func (b *BasicBlock) RemoveSucc(to *BasicBlock) {
	b.Succs = removeID(b.Succs, to.ID)
	to.Preds = removeID(to.Preds, b.ID)
}

func removeID(ids []uint32, target uint32) []uint32 {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Binary builds a Binary instruction with a fresh result variable.
func Binary(result VarId, op ast.BinaryOp, lhs, rhs Operand) Instruction {
	return Instruction{Op: OpBinary, Result: result, HasResult: true, BinOp: op, LHS: lhs, RHS: rhs}
}

// Unary builds a Unary instruction with a fresh result variable.
func Unary(result VarId, op ast.UnaryOp, operand Operand) Instruction {
	return Instruction{Op: OpUnary, Result: result, HasResult: true, UnOp: op, LHS: operand}
}

// Move builds a Move (plain copy) instruction.
func Move(result VarId, src Operand) Instruction {
	return Instruction{Op: OpMove, Result: result, HasResult: true, LHS: src}
}

// Jump builds an unconditional Jump to a block label.
func Jump(target uint32) Instruction {
	return Instruction{Op: OpJump, Target: LabelOperand(target)}
}

// Phi builds a Phi node with one incoming Args[i] from PhiPreds[i].
func Phi(result VarId, preds []uint32, args []Operand) Instruction {
	return Instruction{Op: OpPhi, Result: result, HasResult: true, PhiPreds: preds, Args: args}
}
