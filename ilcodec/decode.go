package ilcodec

import (
	"encoding/binary"
	"fmt"

	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/il"
)

// Reader decodes il.Instructions from a byte buffer.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(data []byte) *Reader { return &Reader{buf: data} }

func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, fmt.Errorf("ilcodec: unexpected end of stream")
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *Reader) readN(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("ilcodec: unexpected end of stream")
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *Reader) readU64() (uint64, error) {
	b, err := r.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// readOpCode decodes a ULEB128 opcode.
func (r *Reader) readOpCode() (il.Opcode, error) {
	var value uint64
	var shift uint
	for {
		b, err := r.readByte()
		if err != nil {
			return 0, err
		}
		value |= uint64(b&0x7F) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	return il.Opcode(value), nil
}

func (r *Reader) readVarID() (il.VarId, error) {
	v, err := r.readU64()
	return il.VarId(v), err
}

func (r *Reader) readImmediateByWidth(kind il.OperandKind) (il.Number, error) {
	width := immediateWidth(kind)
	var bits uint64
	switch width {
	case 1:
		b, err := r.readByte()
		if err != nil {
			return il.Number{}, err
		}
		bits = uint64(b)
	case 2:
		b, err := r.readN(2)
		if err != nil {
			return il.Number{}, err
		}
		bits = uint64(binary.LittleEndian.Uint16(b))
	case 4:
		b, err := r.readN(4)
		if err != nil {
			return il.Number{}, err
		}
		bits = uint64(binary.LittleEndian.Uint32(b))
	case 8:
		v, err := r.readU64()
		if err != nil {
			return il.Number{}, err
		}
		bits = v
	default:
		return il.Number{}, fmt.Errorf("ilcodec: unsupported immediate kind %d", kind)
	}
	return il.Number{Kind: numberKindFor(kind), Bits: bits}, nil
}

func (r *Reader) readOperand(kind il.OperandKind) (il.Operand, error) {
	switch kind {
	case il.OperandVariable:
		v, err := r.readVarID()
		return il.VarOperand(v), err
	case il.OperandLabel:
		v, err := r.readU64()
		return il.LabelOperand(uint32(v)), err
	case il.OperandType:
		v, err := r.readU64()
		return il.TypeOperand(uint32(v)), err
	case il.OperandFunction:
		v, err := r.readU64()
		return il.FuncOperand(uint32(v)), err
	case il.OperandField:
		field, err := r.readU64()
		if err != nil {
			return il.Operand{}, err
		}
		on, err := r.readU64()
		if err != nil {
			return il.Operand{}, err
		}
		return il.FieldOperand(uint32(on), uint32(field)), nil
	case il.OperandDisabled:
		return il.Operand{}, nil
	default:
		n, err := r.readImmediateByWidth(kind)
		return il.ConstOperand(n), err
	}
}

// Read decodes one instruction. Any unknown opcode is a hard decode error
// (spec.md §4.7 "any unknown opcode is a hard decode error").
func (r *Reader) Read() (il.Instruction, error) {
	op, err := r.readOpCode()
	if err != nil {
		return il.Instruction{}, err
	}

	switch op {
	case il.OpBasic:
		return il.Instruction{Op: op}, nil

	case il.OpReturn:
		kb, err := r.readByte()
		if err != nil {
			return il.Instruction{}, err
		}
		kind := il.OperandKind(kb)
		instr := il.Instruction{Op: op}
		if kind != il.OperandDisabled {
			val, err := r.readOperand(kind)
			if err != nil {
				return il.Instruction{}, err
			}
			instr.LHS = val
		}
		return instr, nil

	case il.OpCall:
		fn, err := r.readOperand(il.OperandFunction)
		if err != nil {
			return il.Instruction{}, err
		}
		dst, err := r.readVarID()
		if err != nil {
			return il.Instruction{}, err
		}
		return il.Instruction{Op: op, Target: fn, Result: dst, HasResult: true}, nil

	case il.OpJump, il.OpJumpIfFalse:
		label, err := r.readOperand(il.OperandLabel)
		if err != nil {
			return il.Instruction{}, err
		}
		return il.Instruction{Op: op, Target: label}, nil

	case il.OpBinary:
		return r.readBinary()

	case il.OpUnary:
		kb, err := r.readByte()
		if err != nil {
			return il.Instruction{}, err
		}
		operand, err := r.readOperand(il.OperandKind(kb))
		if err != nil {
			return il.Instruction{}, err
		}
		dst, err := r.readVarID()
		if err != nil {
			return il.Instruction{}, err
		}
		return il.Instruction{Op: op, LHS: operand, Result: dst, HasResult: true}, nil

	case il.OpStackAlloc:
		ty, err := r.readOperand(il.OperandType)
		if err != nil {
			return il.Instruction{}, err
		}
		dst, err := r.readVarID()
		if err != nil {
			return il.Instruction{}, err
		}
		return il.Instruction{Op: op, Target: ty, Result: dst, HasResult: true}, nil

	case il.OpOffsetAddress:
		base, err := r.readOperand(il.OperandVariable)
		if err != nil {
			return il.Instruction{}, err
		}
		field, err := r.readOperand(il.OperandField)
		if err != nil {
			return il.Instruction{}, err
		}
		dst, err := r.readVarID()
		if err != nil {
			return il.Instruction{}, err
		}
		return il.Instruction{Op: op, Base: base, Field: field, Result: dst, HasResult: true}, nil

	case il.OpLoad:
		base, err := r.readOperand(il.OperandVariable)
		if err != nil {
			return il.Instruction{}, err
		}
		dst, err := r.readVarID()
		if err != nil {
			return il.Instruction{}, err
		}
		return il.Instruction{Op: op, Base: base, Result: dst, HasResult: true}, nil

	case il.OpStore:
		kb, err := r.readByte()
		if err != nil {
			return il.Instruction{}, err
		}
		base, err := r.readOperand(il.OperandVariable)
		if err != nil {
			return il.Instruction{}, err
		}
		src, err := r.readOperand(il.OperandKind(kb))
		if err != nil {
			return il.Instruction{}, err
		}
		return il.Instruction{Op: op, Base: base, RHS: src}, nil

	case il.OpLoadParam:
		kb, err := r.readByte()
		if err != nil {
			return il.Instruction{}, err
		}
		src, err := r.readOperand(il.OperandKind(kb))
		if err != nil {
			return il.Instruction{}, err
		}
		dst, err := r.readVarID()
		if err != nil {
			return il.Instruction{}, err
		}
		return il.Instruction{Op: op, LHS: src, Result: dst, HasResult: true}, nil

	case il.OpStoreParam:
		kb, err := r.readByte()
		if err != nil {
			return il.Instruction{}, err
		}
		lhsKind := il.OperandKind(kb & 0x0F)
		rhsKind := il.OperandKind((kb >> 4) & 0x0F)
		src, err := r.readOperand(lhsKind)
		if err != nil {
			return il.Instruction{}, err
		}
		dst, err := r.readOperand(rhsKind)
		if err != nil {
			return il.Instruction{}, err
		}
		return il.Instruction{Op: op, LHS: src, RHS: dst}, nil

	case il.OpMove:
		kb, err := r.readByte()
		if err != nil {
			return il.Instruction{}, err
		}
		src, err := r.readOperand(il.OperandKind(kb))
		if err != nil {
			return il.Instruction{}, err
		}
		dst, err := r.readVarID()
		if err != nil {
			return il.Instruction{}, err
		}
		return il.Instruction{Op: op, LHS: src, Result: dst, HasResult: true}, nil

	case il.OpPhi:
		return r.readPhi()

	default:
		return il.Instruction{}, fmt.Errorf("ilcodec: unknown opcode %d", op)
	}
}

func (r *Reader) readBinary() (il.Instruction, error) {
	kb, err := r.readByte()
	if err != nil {
		return il.Instruction{}, err
	}
	lhsKind := il.OperandKind(kb & 0x0F)
	rhsKind := il.OperandKind((kb >> 4) & 0x0F)
	lhs, err := r.readOperand(lhsKind)
	if err != nil {
		return il.Instruction{}, err
	}
	rhs, err := r.readOperand(rhsKind)
	if err != nil {
		return il.Instruction{}, err
	}
	dst, err := r.readVarID()
	if err != nil {
		return il.Instruction{}, err
	}
	return il.Instruction{Op: il.OpBinary, LHS: lhs, RHS: rhs, Result: dst, HasResult: true}, nil
}

func (r *Reader) readPhi() (il.Instruction, error) {
	count, err := r.readU64()
	if err != nil {
		return il.Instruction{}, err
	}
	instr := il.Instruction{Op: il.OpPhi}
	for i := uint64(0); i < count; i++ {
		pred, err := r.readU64()
		if err != nil {
			return il.Instruction{}, err
		}
		kb, err := r.readByte()
		if err != nil {
			return il.Instruction{}, err
		}
		arg, err := r.readOperand(il.OperandKind(kb))
		if err != nil {
			return il.Instruction{}, err
		}
		instr.PhiPreds = append(instr.PhiPreds, uint32(pred))
		instr.Args = append(instr.Args, arg)
	}
	dst, err := r.readVarID()
	if err != nil {
		return il.Instruction{}, err
	}
	instr.Result = dst
	instr.HasResult = true
	return instr, nil
}

// numberKindFor inverts operandKindForNumber (il.go), recovering the
// Number.Kind that was packed into an operand's 4-bit kind tag.
func numberKindFor(k il.OperandKind) ast.NumberKind {
	switch k {
	case il.OperandImmU8:
		return ast.NumU8
	case il.OperandImmI8:
		return ast.NumI8
	case il.OperandImmU16:
		return ast.NumU16
	case il.OperandImmI16:
		return ast.NumI16
	case il.OperandImmF16:
		return ast.NumF16
	case il.OperandImmU32:
		return ast.NumU32
	case il.OperandImmI32:
		return ast.NumI32
	case il.OperandImmF32:
		return ast.NumF32
	case il.OperandImmU64:
		return ast.NumU64
	case il.OperandImmI64:
		return ast.NumI64
	case il.OperandImmF64:
		return ast.NumF64
	}
	return ast.NumI32
}
