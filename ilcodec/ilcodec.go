// Package ilcodec implements the IL binary codec (spec.md §4.7): ULEB128
// opcodes, little-endian variable ids, width-typed immediates, and 4-bit
// operand-kind packing for instructions with two operand slots.
package ilcodec

import (
	"encoding/binary"
	"fmt"

	"github.com/hexashader/hxlc/il"
)

// Writer encodes il.Instructions into a byte buffer.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer { return &Writer{} }

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) writeByte(b byte) { w.buf = append(w.buf, b) }

func (w *Writer) writeU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// writeOpCode ULEB128-encodes an opcode value (spec.md §4.7 "Opcodes are
// encoded as ULEB128").
func (w *Writer) writeOpCode(op il.Opcode) {
	v := uint64(op)
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.writeByte(b)
		if v == 0 {
			return
		}
	}
}

func (w *Writer) writeVarID(v il.VarId) { w.writeU64(uint64(v)) }

// writeImmediateByWidth writes a width-typed immediate; 16-bit values
// (including half-floats) transit as raw 16-bit little-endian values
// (spec.md §4.7).
func (w *Writer) writeImmediateByWidth(n il.Number) {
	width := immediateWidth(n.Kind)
	switch width {
	case 1:
		w.writeByte(byte(n.Bits))
	case 2:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(n.Bits))
		w.buf = append(w.buf, b[:]...)
	case 4:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(n.Bits))
		w.buf = append(w.buf, b[:]...)
	case 8:
		w.writeU64(n.Bits)
	}
}

func (w *Writer) writeOperand(op il.Operand) {
	switch op.Kind {
	case il.OperandVariable:
		w.writeVarID(op.Var)
	case il.OperandLabel:
		w.writeU64(uint64(op.Label))
	case il.OperandType:
		w.writeU64(uint64(op.TypeID))
	case il.OperandFunction:
		w.writeU64(uint64(op.FuncID))
	case il.OperandField:
		w.writeU64(uint64(op.FieldID))
		w.writeU64(uint64(op.FieldOn))
	default:
		w.writeImmediateByWidth(op.Const)
	}
}

// Write encodes one instruction following the per-class payload layout
// spec.md §4.4/§4.7 enumerates, mirroring the original ILWriter::Write
// switch.
func (w *Writer) Write(instr il.Instruction) error {
	w.writeOpCode(instr.Op)
	switch instr.Op {
	case il.OpBasic:
		// no operands
	case il.OpReturn:
		w.writeByte(byte(instr.LHS.Kind))
		if instr.LHS.Kind != il.OperandDisabled {
			w.writeOperand(instr.LHS)
		}
	case il.OpCall:
		w.writeOperand(instr.Target) // function operand
		w.writeVarID(instr.Result)
	case il.OpJump, il.OpJumpIfFalse:
		w.writeOperand(instr.Target)
	case il.OpBinary:
		combined := byte(instr.LHS.Kind) | byte(instr.RHS.Kind)<<4
		w.writeByte(combined)
		w.writeOperand(instr.LHS)
		w.writeOperand(instr.RHS)
		w.writeVarID(instr.Result)
	case il.OpUnary:
		w.writeByte(byte(instr.LHS.Kind))
		w.writeOperand(instr.LHS)
		w.writeVarID(instr.Result)
	case il.OpStackAlloc:
		w.writeOperand(instr.Target) // type operand
		w.writeVarID(instr.Result)
	case il.OpOffsetAddress:
		w.writeOperand(instr.Base)
		w.writeOperand(instr.Field)
		w.writeVarID(instr.Result)
	case il.OpLoad:
		w.writeOperand(instr.Base)
		w.writeVarID(instr.Result)
	case il.OpStore:
		w.writeByte(byte(instr.RHS.Kind))
		w.writeOperand(instr.Base)
		w.writeOperand(instr.RHS)
	case il.OpLoadParam:
		w.writeByte(byte(instr.LHS.Kind))
		w.writeOperand(instr.LHS)
		w.writeVarID(instr.Result)
	case il.OpStoreParam:
		combined := byte(instr.LHS.Kind) | byte(instr.RHS.Kind)<<4
		w.writeByte(combined)
		w.writeOperand(instr.LHS)
		w.writeOperand(instr.RHS)
	case il.OpMove:
		w.writeByte(byte(instr.LHS.Kind))
		w.writeOperand(instr.LHS)
		w.writeVarID(instr.Result)
	case il.OpPhi:
		w.writeU64(uint64(len(instr.Args)))
		for i, arg := range instr.Args {
			w.writeU64(uint64(instr.PhiPreds[i]))
			w.writeByte(byte(arg.Kind))
			w.writeOperand(arg)
		}
		w.writeVarID(instr.Result)
	default:
		return fmt.Errorf("ilcodec: unknown opcode %d", instr.Op)
	}
	return nil
}

func immediateWidth(k il.OperandKind) int {
	switch k {
	case il.OperandImmU8, il.OperandImmI8:
		return 1
	case il.OperandImmU16, il.OperandImmI16, il.OperandImmF16:
		return 2
	case il.OperandImmU32, il.OperandImmI32, il.OperandImmF32:
		return 4
	case il.OperandImmU64, il.OperandImmI64, il.OperandImmF64:
		return 8
	}
	return 0
}
