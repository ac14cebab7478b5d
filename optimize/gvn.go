package optimize

import (
	"encoding/binary"

	"github.com/hexashader/hxlc/cfg"
	"github.com/hexashader/hxlc/il"
	"github.com/minio/highwayhash"
)

// gvnKey is the highwayhash key used to fingerprint canonicalized
// instructions (spec.md §4.6.1), mirroring internal/arena's fixed-key
// interning hash for the same reason: stable, non-cryptographic content
// hashing within a single process run.
var gvnKey = []byte("HXLC-OPTIMIZE-GVN-FINGERPRINT-K0")

// GVN implements global value numbering: per-block traversal maintaining a
// canonicalization map (union-find by path compression) and a set of seen
// instruction fingerprints, discarding instructions equivalent to one
// already computed (spec.md §4.6.1).
type GVN struct {
	class map[il.VarId]il.VarId
	seen  map[uint64]il.VarId
}

func NewGVN() *GVN { return &GVN{} }

func (g *GVN) Name() string { return "GlobalValueNumbering" }

func (g *GVN) Run(graph *cfg.ControlFlowGraph) Result {
	g.class = make(map[il.VarId]il.VarId)
	g.seen = make(map[uint64]il.VarId)
	changed := false

	for _, b := range graph.Blocks {
		kept := b.Instructions[:0]
		for _, instr := range b.Instructions {
			instr.LHS = g.canonicalize(instr.LHS)
			instr.RHS = g.canonicalize(instr.RHS)
			instr.Base = g.canonicalize(instr.Base)

			if !instr.HasResult {
				kept = append(kept, instr)
				continue
			}

			fp, ok := fingerprint(instr)
			if ok {
				if prior, exists := g.seen[fp]; exists {
					// An equivalent computation already ran; route every use of this
					// result to the prior one and drop the redundant instruction.
					g.union(instr.Result, prior)
					changed = true
					continue
				}
				g.seen[fp] = instr.Result
			}
			kept = append(kept, instr)
		}
		b.Instructions = kept
	}

	if changed {
		return Changed
	}
	return None
}

// canonicalize follows g.class with path compression, resolving an operand
// variable to its representative value number.
func (g *GVN) canonicalize(op il.Operand) il.Operand {
	if op.Kind != il.OperandVariable {
		return op
	}
	root := op.Var
	for {
		next, ok := g.class[root]
		if !ok || next == root {
			break
		}
		root = next
	}
	g.class[op.Var] = root
	return il.VarOperand(root)
}

func (g *GVN) union(redundant, canonical il.VarId) {
	g.class[redundant] = canonical
}

// fingerprint hashes (opcode, canonical-operands...), sorting operand
// identities first for commutative binary ops so `a+b` and `b+a` collide
// (spec.md §4.6.1).
func fingerprint(instr il.Instruction) (uint64, bool) {
	switch instr.Op {
	case il.OpBinary, il.OpUnary, il.OpMove, il.OpLoad, il.OpOffsetAddress:
	default:
		return 0, false
	}

	lhs, rhs := encodeOperand(instr.LHS), encodeOperand(instr.RHS)
	if instr.Op == il.OpBinary && instr.BinOp.Commutative() && greater(lhs, rhs) {
		lhs, rhs = rhs, lhs
	}

	buf := make([]byte, 0, 32)
	buf = append(buf, byte(instr.Op), byte(instr.BinOp), byte(instr.UnOp))
	buf = append(buf, lhs...)
	buf = append(buf, rhs...)
	buf = append(buf, encodeOperand(instr.Base)...)
	buf = append(buf, encodeOperand(instr.Field)...)

	hasher, err := highwayhash.New64(gvnKey)
	if err != nil {
		panic("optimize: invalid gvn key: " + err.Error())
	}
	_, _ = hasher.Write(buf)
	return hasher.Sum64(), true
}

func encodeOperand(op il.Operand) []byte {
	var buf [9]byte
	buf[0] = byte(op.Kind)
	switch op.Kind {
	case il.OperandVariable:
		binary.LittleEndian.PutUint64(buf[1:], uint64(op.Var))
	case il.OperandLabel:
		binary.LittleEndian.PutUint64(buf[1:], uint64(op.Label))
	case il.OperandType:
		binary.LittleEndian.PutUint64(buf[1:], uint64(op.TypeID))
	case il.OperandFunction:
		binary.LittleEndian.PutUint64(buf[1:], uint64(op.FuncID))
	case il.OperandField:
		binary.LittleEndian.PutUint32(buf[1:5], op.FieldOn)
		binary.LittleEndian.PutUint32(buf[5:9], op.FieldID)
	default:
		binary.LittleEndian.PutUint64(buf[1:], op.Const.Bits)
	}
	return buf[:]
}

func greater(a, b []byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}
