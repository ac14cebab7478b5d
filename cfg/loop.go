package cfg

import "github.com/hexashader/hxlc/il"

// LoopNode mirrors spec.md §3's `{header, preheader, blocks, latches,
// exits, depth, children}`. Preheader is 0 (invalid) when the header has
// no unique non-loop predecessor, per spec.md §4.5.
type LoopNode struct {
	Header    uint32
	Preheader uint32
	HasPreheader bool
	Blocks    []uint32
	Latches   []uint32
	Exits     []uint32
	Depth     int
	Children  []*LoopNode
}

// LoopTree holds the outermost loops discovered in a ControlFlowGraph.
type LoopTree struct {
	Roots []*LoopNode
}

// ByHeader returns the loop (at any depth) whose header is id.
func (t *LoopTree) ByHeader(id uint32) *LoopNode {
	var find func(nodes []*LoopNode) *LoopNode
	find = func(nodes []*LoopNode) *LoopNode {
		for _, n := range nodes {
			if n.Header == id {
				return n
			}
			if found := find(n.Children); found != nil {
				return found
			}
		}
		return nil
	}
	return find(t.Roots)
}

// buildLoopTree identifies natural loops from back edges (edges u->v where
// v dominates u), groups by header, computes preheader/latches/exits
// (spec.md §4.5), then nests loops by block-set containment.
func buildLoopTree(g *ControlFlowGraph) *LoopTree {
	dom := g.dom
	byID := make(map[uint32]*il.BasicBlock, len(g.Blocks))
	for _, b := range g.Blocks {
		byID[b.ID] = b
	}

	headerBackEdges := map[uint32][]uint32{} // header -> latches
	for _, b := range g.Blocks {
		for _, s := range b.Succs {
			if dom.Dominates(s, b.ID) {
				headerBackEdges[s] = append(headerBackEdges[s], b.ID)
			}
		}
	}

	var loops []*LoopNode
	for header, latches := range headerBackEdges {
		blockSet := naturalLoopBlocks(byID, header, latches)
		loop := &LoopNode{Header: header, Latches: latches}
		for id := range blockSet {
			loop.Blocks = append(loop.Blocks, id)
		}
		loop.Exits = loopExits(byID, blockSet)
		loop.Preheader, loop.HasPreheader = findPreheader(byID, header, blockSet)
		loops = append(loops, loop)
	}

	return &LoopTree{Roots: nestLoops(loops)}
}

func naturalLoopBlocks(byID map[uint32]*il.BasicBlock, header uint32, latches []uint32) map[uint32]bool {
	set := map[uint32]bool{header: true}
	var stack []uint32
	for _, l := range latches {
		if !set[l] {
			set[l] = true
			stack = append(stack, l)
		}
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		b := byID[n]
		if b == nil {
			continue
		}
		for _, p := range b.Preds {
			if !set[p] {
				set[p] = true
				stack = append(stack, p)
			}
		}
	}
	return set
}

func loopExits(byID map[uint32]*il.BasicBlock, blockSet map[uint32]bool) []uint32 {
	var exits []uint32
	seen := map[uint32]bool{}
	for id := range blockSet {
		b := byID[id]
		if b == nil {
			continue
		}
		for _, s := range b.Succs {
			if !blockSet[s] && !seen[s] {
				seen[s] = true
				exits = append(exits, s)
			}
		}
	}
	return exits
}

func findPreheader(byID map[uint32]*il.BasicBlock, header uint32, blockSet map[uint32]bool) (uint32, bool) {
	h := byID[header]
	if h == nil {
		return 0, false
	}
	var outside uint32
	count := 0
	for _, p := range h.Preds {
		if !blockSet[p] {
			outside = p
			count++
		}
	}
	if count != 1 {
		return 0, false
	}
	return outside, true
}

// nestLoops assigns each loop a depth and parents loops whose block set is
// a strict superset of another's, matching spec.md's LoopNode.children.
func nestLoops(loops []*LoopNode) []*LoopNode {
	sets := make([]map[uint32]bool, len(loops))
	for i, l := range loops {
		s := make(map[uint32]bool, len(l.Blocks))
		for _, id := range l.Blocks {
			s[id] = true
		}
		sets[i] = s
	}

	parent := make([]int, len(loops))
	for i := range parent {
		parent[i] = -1
	}
	for i := range loops {
		bestSize := -1
		for j := range loops {
			if i == j {
				continue
			}
			if isSubset(sets[i], sets[j]) && len(sets[i]) < len(sets[j]) {
				if bestSize == -1 || len(sets[j]) < bestSize {
					parent[i] = j
					bestSize = len(sets[j])
				}
			}
		}
	}

	var roots []*LoopNode
	for i, l := range loops {
		if parent[i] == -1 {
			roots = append(roots, l)
		} else {
			loops[parent[i]].Children = append(loops[parent[i]].Children, l)
		}
	}

	var setDepth func(l *LoopNode, depth int)
	setDepth = func(l *LoopNode, depth int) {
		l.Depth = depth
		for _, c := range l.Children {
			setDepth(c, depth+1)
		}
	}
	for _, r := range roots {
		setDepth(r, 0)
	}
	return roots
}

func isSubset(a, b map[uint32]bool) bool {
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}
