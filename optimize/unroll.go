package optimize

import (
	"github.com/hexashader/hxlc/ast"
	"github.com/hexashader/hxlc/cfg"
	"github.com/hexashader/hxlc/il"
)

// maxTripCount bounds unrolling to loops with a computed trip count in
// (0, 16] (spec.md §4.6.5).
const maxTripCount = 16

// Unroller implements spec.md §4.6.5: fully unrolls outermost (depth=0)
// loops whose header phi/compare/step shape is statically known, with a
// trip count in (0, 16].
type Unroller struct {
	nextVarTag uint16
	nextBlock  uint32
}

func NewUnroller() *Unroller { return &Unroller{} }

func (u *Unroller) Name() string { return "LoopUnroller" }

func (u *Unroller) Run(graph *cfg.ControlFlowGraph) Result {
	for _, b := range graph.Blocks {
		if b.ID >= u.nextBlock {
			u.nextBlock = b.ID + 1
		}
	}

	loops := graph.Loops()
	changed := false
	for _, loop := range loops.Roots {
		if loop.Depth != 0 {
			continue
		}
		analysis, ok := analyzeLoop(graph, loop)
		if !ok {
			continue
		}
		if u.unrollLoop(graph, loop, analysis) {
			changed = true
		}
	}

	if changed {
		return Changed
	}
	return None
}

type loopAnalysis struct {
	headerID         uint32
	bodyID           uint32
	latchID          uint32
	exitID           uint32
	inductionVar     il.VarId
	preheaderValue   il.Operand // induction's incoming value from the preheader
	start, step      int64
	tripCount        int64
	compareLE        bool // true for `iv <= C`, false for `iv < C`
	compareImmediate int64
}

// analyzeLoop validates the shape spec.md §4.6.5 requires: a single
// integer induction variable defined by a header phi seeded from the
// preheader and incremented by a constant step in the single latch, a
// header comparison against a constant, a single latch/exit/body block.
func analyzeLoop(graph *cfg.ControlFlowGraph, loop *cfg.LoopNode) (loopAnalysis, bool) {
	var a loopAnalysis
	if !loop.HasPreheader || len(loop.Latches) != 1 || len(loop.Exits) != 1 {
		return a, false
	}
	bodyBlocks := make([]uint32, 0, 1)
	for _, id := range loop.Blocks {
		if id != loop.Header && id != loop.Latches[0] {
			bodyBlocks = append(bodyBlocks, id)
		}
	}
	if len(bodyBlocks) != 1 {
		return a, false
	}

	header := graph.BlockByID(loop.Header)
	latch := graph.BlockByID(loop.Latches[0])
	if header == nil || latch == nil {
		return a, false
	}
	// SPEC_FULL.md §8a (a): loops whose header has more than two
	// predecessors are excluded from unrolling.
	if len(header.Preds) > 2 {
		return a, false
	}

	var phi *il.Instruction
	for i := range header.Instructions {
		if header.Instructions[i].Op == il.OpPhi {
			phi = &header.Instructions[i]
			break
		}
	}
	if phi == nil || len(phi.Args) != 2 || len(phi.PhiPreds) != 2 {
		return a, false
	}

	var preheaderValue, latchValue il.Operand
	for i, pred := range phi.PhiPreds {
		if pred == loop.Preheader {
			preheaderValue = phi.Args[i]
		} else if pred == loop.Latches[0] {
			latchValue = phi.Args[i]
		} else {
			return a, false
		}
	}
	if !isConstKind(preheaderValue.Kind) || isFloatOperand(preheaderValue) {
		return a, false
	}

	var step int64
	foundStep := false
	for i := range latch.Instructions {
		instr := latch.Instructions[i]
		if instr.Op != il.OpBinary || instr.BinOp != ast.OpAdd || instr.Result != latchValue.Var {
			continue
		}
		if instr.LHS.Kind == il.OperandVariable && instr.LHS.Var == phi.Result && isConstKind(instr.RHS.Kind) {
			step = int64(instr.RHS.Const.Bits)
			foundStep = true
		}
	}
	if !foundStep {
		return a, false
	}

	var cmpImm int64
	le := false
	foundCmp := false
	for i := range header.Instructions {
		instr := header.Instructions[i]
		if instr.Op != il.OpBinary || instr.LHS.Kind != il.OperandVariable || instr.LHS.Var != phi.Result {
			continue
		}
		if (instr.BinOp == ast.OpLt || instr.BinOp == ast.OpLe) && isConstKind(instr.RHS.Kind) {
			cmpImm = int64(instr.RHS.Const.Bits)
			le = instr.BinOp == ast.OpLe
			foundCmp = true
		}
	}
	if !foundCmp {
		return a, false
	}

	start := int64(preheaderValue.Const.Bits)
	if step == 0 {
		return a, false
	}
	trip := (cmpImm - start) / step
	if le {
		trip++
	}
	if trip <= 0 || trip > maxTripCount {
		return a, false
	}

	a = loopAnalysis{
		headerID: loop.Header, bodyID: bodyBlocks[0], latchID: loop.Latches[0], exitID: loop.Exits[0],
		inductionVar: phi.Result, preheaderValue: preheaderValue,
		start: start, step: step, tripCount: trip, compareLE: le, compareImmediate: cmpImm,
	}
	return a, true
}

// unrollLoop clones the body `tripCount` times with the induction variable
// substituted by its per-iteration constant, versions every other result
// variable, rewires the preheader to skip the header entirely, and
// triggers a dominator/loop rebuild (spec.md §4.6.5 algorithm).
func (u *Unroller) unrollLoop(graph *cfg.ControlFlowGraph, loop *cfg.LoopNode, a loopAnalysis) bool {
	preheader := graph.BlockByID(loop.Preheader)
	body := graph.BlockByID(a.bodyID)
	exit := graph.BlockByID(a.exitID)
	if preheader == nil || body == nil || exit == nil {
		return false
	}

	varMap := map[il.VarId]il.Operand{}

	var clones []*il.BasicBlock
	for i := int64(0); i < a.tripCount; i++ {
		ivValue := il.ConstOperand(il.I64Const(a.start + a.step*i))
		clone := &il.BasicBlock{ID: u.nextBlock}
		u.nextBlock++
		for _, instr := range body.Instructions {
			clone.Instructions = append(clone.Instructions, u.mapInstruction(instr, a.inductionVar, ivValue, varMap))
		}
		clones = append(clones, clone)
	}

	for i, c := range clones {
		graph.AddBlock(c)
		if i == 0 {
			preheader.RemoveSucc(graph.BlockByID(a.headerID))
			preheader.AddSucc(c)
		} else {
			clones[i-1].AddSucc(c)
		}
	}
	if len(clones) > 0 {
		clones[len(clones)-1].AddSucc(exit)
	} else {
		preheader.AddSucc(exit)
	}

	graph.RemoveBlock(a.headerID)
	graph.RemoveBlock(a.bodyID)
	graph.RemoveBlock(a.latchID)
	graph.Recompute()
	return true
}

// mapInstruction clones instr for one unrolled iteration: operands equal to
// the induction variable are replaced by its per-iteration constant, other
// operands are rewritten through varMap, and the result (if any) is given a
// fresh SSA version recorded back into varMap.
func (u *Unroller) mapInstruction(instr il.Instruction, iv il.VarId, ivValue il.Operand, varMap map[il.VarId]il.Operand) il.Instruction {
	out := instr
	out.LHS = u.mapOperand(instr.LHS, iv, ivValue, varMap)
	out.RHS = u.mapOperand(instr.RHS, iv, ivValue, varMap)
	out.Base = u.mapOperand(instr.Base, iv, ivValue, varMap)
	out.Field = u.mapOperand(instr.Field, iv, ivValue, varMap)
	out.Target = u.mapOperand(instr.Target, iv, ivValue, varMap)
	if len(instr.Args) > 0 {
		out.Args = make([]il.Operand, len(instr.Args))
		for i, arg := range instr.Args {
			out.Args[i] = u.mapOperand(arg, iv, ivValue, varMap)
		}
	}
	if instr.HasResult {
		u.nextVarTag++
		version := instr.Result.Version() + 1
		if prev, ok := varMap[instr.Result]; ok && prev.Kind == il.OperandVariable {
			version = prev.Var.Version() + 1
		}
		fresh := instr.Result.WithVersion(version)
		varMap[instr.Result] = il.VarOperand(fresh)
		out.Result = fresh
	}
	return out
}

func (u *Unroller) mapOperand(op il.Operand, iv il.VarId, ivValue il.Operand, varMap map[il.VarId]il.Operand) il.Operand {
	if op.Kind != il.OperandVariable {
		return op
	}
	if op.Var == iv {
		return ivValue
	}
	if mapped, ok := varMap[op.Var]; ok {
		return mapped
	}
	return op
}
