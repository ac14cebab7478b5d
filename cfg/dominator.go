package cfg

import "github.com/hexashader/hxlc/il"

// DominatorTree is the Cooper/Harvey/Kennedy iterative dominance solution
// (spec.md §4.5 "standard Cooper/Harvey/Kennedy iterative algorithm"),
// keyed by block id.
type DominatorTree struct {
	idom map[uint32]uint32
	rpo  []uint32
}

// IDom returns id's immediate dominator, or (0, false) for the entry block.
func (d *DominatorTree) IDom(id uint32) (uint32, bool) {
	if id == d.rpo[0] {
		return 0, false
	}
	v, ok := d.idom[id]
	return v, ok
}

// Dominates reports whether a dominates b (reflexively: a dominates a).
func (d *DominatorTree) Dominates(a, b uint32) bool {
	for b != a {
		parent, ok := d.idom[b]
		if !ok {
			return false
		}
		b = parent
	}
	return true
}

func buildDominatorTree(blocks []*il.BasicBlock, entry uint32) *DominatorTree {
	rpo := reversePostorder(blocks, entry)
	order := make(map[uint32]int, len(rpo))
	for i, id := range rpo {
		order[id] = i
	}
	byID := make(map[uint32]*il.BasicBlock, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}

	idom := make(map[uint32]uint32, len(rpo))
	idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, id := range rpo[1:] {
			b := byID[id]
			var newIdom uint32
			found := false
			for _, p := range b.Preds {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !found {
					newIdom = p
					found = true
					continue
				}
				newIdom = intersect(idom, order, newIdom, p)
			}
			if !found {
				continue
			}
			if cur, ok := idom[id]; !ok || cur != newIdom {
				idom[id] = newIdom
				changed = true
			}
		}
	}
	delete(idom, entry)
	return &DominatorTree{idom: idom, rpo: rpo}
}

func intersect(idom map[uint32]uint32, order map[uint32]int, a, b uint32) uint32 {
	for a != b {
		for order[a] > order[b] {
			a = idom[a]
		}
		for order[b] > order[a] {
			b = idom[b]
		}
	}
	return a
}

func reversePostorder(blocks []*il.BasicBlock, entry uint32) []uint32 {
	byID := make(map[uint32]*il.BasicBlock, len(blocks))
	for _, b := range blocks {
		byID[b.ID] = b
	}
	visited := make(map[uint32]bool, len(blocks))
	var post []uint32

	var visit func(id uint32)
	visit = func(id uint32) {
		if visited[id] {
			return
		}
		visited[id] = true
		b := byID[id]
		if b == nil {
			return
		}
		for _, s := range b.Succs {
			visit(s)
		}
		post = append(post, id)
	}
	visit(entry)

	rpo := make([]uint32, len(post))
	for i, id := range post {
		rpo[len(post)-1-i] = id
	}
	return rpo
}
