// Package cfg builds a control-flow graph over il.BasicBlocks and maintains
// its dominator tree and natural-loop tree (spec.md §4.5).
package cfg

import "github.com/hexashader/hxlc/il"

// ControlFlowGraph is a function's basic blocks plus cached dominator and
// loop information, recomputed whenever a pass mutates CFG topology.
type ControlFlowGraph struct {
	Blocks []*il.BasicBlock
	Entry  uint32

	dom  *DominatorTree
	loop *LoopTree
}

// New builds a ControlFlowGraph over blocks rooted at entry. Edges are
// assumed already wired via il.BasicBlock.AddSucc.
func New(blocks []*il.BasicBlock, entry uint32) *ControlFlowGraph {
	g := &ControlFlowGraph{Blocks: blocks, Entry: entry}
	g.Recompute()
	return g
}

// Recompute rebuilds the dominator tree and loop tree from current edges.
// Callers must invoke this after any topology mutation (spec.md §4.5).
func (g *ControlFlowGraph) Recompute() {
	g.dom = buildDominatorTree(g.Blocks, g.Entry)
	g.loop = buildLoopTree(g)
}

func (g *ControlFlowGraph) Dominators() *DominatorTree { return g.dom }
func (g *ControlFlowGraph) Loops() *LoopTree           { return g.loop }

func (g *ControlFlowGraph) BlockByID(id uint32) *il.BasicBlock {
	for _, b := range g.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// AddBlock appends a freshly created block to the graph, used by the
// unroller when cloning loop bodies.
func (g *ControlFlowGraph) AddBlock(b *il.BasicBlock) {
	g.Blocks = append(g.Blocks, b)
}

// RemoveBlock drops a block from the graph by id, used by the unroller to
// drop a fully unrolled loop's header, body and latch blocks.
func (g *ControlFlowGraph) RemoveBlock(id uint32) {
	out := g.Blocks[:0]
	for _, b := range g.Blocks {
		if b.ID != id {
			out = append(out, b)
		}
	}
	g.Blocks = out
}
