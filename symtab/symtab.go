// Package symtab implements the compiler's symbol table: an arena of nodes
// forming a trie keyed by dotted name segments, with weak handles that
// remain valid across swap-removes.
//
// The table is deliberately ignorant of AST node types — it stores a small,
// wire-shaped Metadata value per declared symbol (see Metadata) and leaves
// interpretation of DeclBody to the ast package. This mirrors the way the
// teacher's inspector/graph.Type keeps a flat field/method index
// (fieldMap/methodMap) beside the data rather than baking language-specific
// logic into the graph package itself.
package symtab

import (
	"fmt"
	"sync"
)

// NodeIndex addresses a node in a Table's arena. Index 0 is always the root.
type NodeIndex uint32

// InvalidIndex marks a handle that does not (or no longer) resolves.
const InvalidIndex NodeIndex = ^NodeIndex(0)

// DeclKind distinguishes the variant-specific payload packed into
// Metadata.DeclBody. The concrete meanings of each kind belong to the ast
// package; symtab only needs to round-trip the tag and bytes.
type DeclKind uint32

// SymKind is the wire SYM_TYPE tag (spec.md §3 SymbolDef variants).
type SymKind uint32

const (
	SymNamespace SymKind = iota
	SymPrimitive
	SymStruct
	SymClass
	SymArray
	SymPointer
	SymEnum
	SymField
	SymFunction
	SymOperator
	SymConstructor
	SymParameter
	SymVariable
	SymThisRef
	SymSwizzleDef
	SymAttribute
)

// Metadata is present on every declared symbol and absent on pure scope
// nodes (namespaces introduced only to hold children, per spec.md §3
// invariants).
type Metadata struct {
	SymType  SymKind
	Scope    uint32
	Access   uint32
	Size     uint32
	HasDecl  bool
	DeclKind DeclKind
	DeclBody []byte
}

// Node is one entry in the table's arena.
type Node struct {
	Name     string
	Children map[string]NodeIndex
	Parent   NodeIndex
	Depth    uint32
	Metadata *Metadata

	fqn      string
	fqnValid bool

	// handle is the shared index cell handed out to callers of Insert/Find.
	// SwapRemove updates the cell in place so outstanding Handles observe
	// the node's new index rather than going stale.
	handle *NodeIndex
}

// Handle is a weak reference to a Table node that survives SwapRemove.
type Handle struct {
	table *Table
	cell  *NodeIndex
}

// Valid reports whether the handle still resolves to a live node.
func (h Handle) Valid() bool {
	return h.cell != nil && *h.cell != InvalidIndex
}

// Index returns the handle's current node index, or InvalidIndex.
func (h Handle) Index() NodeIndex {
	if h.cell == nil {
		return InvalidIndex
	}
	return *h.cell
}

// Node dereferences the handle. Returns nil if the handle is invalid.
func (h Handle) Node() *Node {
	if !h.Valid() {
		return nil
	}
	t := h.table
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[*h.cell]
}

// Table is the arena-backed trie of symbol nodes. Structural mutation
// (Insert and friends) and lookup both take mu, so a Table can be shared by
// concurrent compilation-unit collectors (SPEC_FULL.md §5: "collection into
// the shared assembly.Assembly's symtab.Table is serialized by the table's
// internal sync.RWMutex").
type Table struct {
	mu    sync.RWMutex
	nodes []*Node
}

// New creates a Table with only the root scope node.
func New() *Table {
	t := &Table{}
	root := &Node{Name: "", Children: map[string]NodeIndex{}, Parent: InvalidIndex}
	cell := NodeIndex(0)
	root.handle = &cell
	t.nodes = append(t.nodes, root)
	return t
}

// Root returns a handle to the root scope.
func (t *Table) Root() Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return Handle{table: t, cell: t.nodes[0].handle}
}

func (t *Table) nodeAt(idx NodeIndex) *Node {
	if int(idx) >= len(t.nodes) {
		return nil
	}
	return t.nodes[idx]
}

func (t *Table) newHandle(idx NodeIndex) Handle {
	return Handle{table: t, cell: t.nodes[idx].handle}
}

// splitPath splits a dotted path into segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	var segs []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	segs = append(segs, path[start:])
	return segs
}

// findPart is the unlocked core of FindNodeIndexPart, reused by callers that
// already hold t.mu.
func (t *Table) findPart(segment string, start NodeIndex) Handle {
	node := t.nodeAt(start)
	if node == nil {
		return Handle{}
	}
	idx, ok := node.Children[segment]
	if !ok {
		return Handle{}
	}
	return t.newHandle(idx)
}

// FindNodeIndexPart looks up a single segment directly under start.
func (t *Table) FindNodeIndexPart(segment string, start NodeIndex) Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.findPart(segment, start)
}

// FindNodeIndexFullPath walks a dotted path from start, failing (zero Handle)
// on the first missing segment.
func (t *Table) FindNodeIndexFullPath(path string, start NodeIndex) Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cur := start
	for _, seg := range splitPath(path) {
		h := t.findPart(seg, cur)
		if !h.Valid() {
			return Handle{}
		}
		cur = h.Index()
	}
	return t.newHandle(cur)
}

// insert is the unlocked core of Insert, reused by callers (Merge) that
// already hold t.mu.
func (t *Table) insert(path string, metadata *Metadata, under NodeIndex) Handle {
	segs := splitPath(path)
	if len(segs) == 0 {
		return Handle{}
	}
	cur := under
	for i, seg := range segs {
		last := i == len(segs)-1
		node := t.nodeAt(cur)
		if node == nil {
			return Handle{}
		}
		if idx, ok := node.Children[seg]; ok {
			cur = idx
			if last {
				child := t.nodeAt(cur)
				if child.Metadata != nil {
					return Handle{} // redefinition
				}
				child.Metadata = metadata
				child.fqnValid = false
			}
			continue
		}
		newIdx := NodeIndex(len(t.nodes))
		cell := newIdx
		child := &Node{
			Name:     seg,
			Children: map[string]NodeIndex{},
			Parent:   cur,
			Depth:    node.Depth + 1,
			handle:   &cell,
		}
		if last {
			child.Metadata = metadata
		}
		t.nodes = append(t.nodes, child)
		node.Children[seg] = newIdx
		cur = newIdx
	}
	return t.newHandle(cur)
}

// Insert walks path from under, creating intermediate scope nodes as needed.
// On success it returns the terminal handle. If the terminal node already
// carries Metadata, insertion is a redefinition: Insert returns the zero
// Handle and leaves the table unchanged.
func (t *Table) Insert(path string, metadata *Metadata, under NodeIndex) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insert(path, metadata, under)
}

// Rename atomically renames the node at h, failing if newName already exists
// under the same parent.
func (t *Table) Rename(h Handle, newName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !h.Valid() {
		return fmt.Errorf("symtab: rename: invalid handle")
	}
	node := t.nodeAt(h.Index())
	parent := t.nodeAt(node.Parent)
	if parent == nil {
		return fmt.Errorf("symtab: rename: node has no parent")
	}
	if _, exists := parent.Children[newName]; exists {
		return fmt.Errorf("symtab: rename: %q already exists under parent", newName)
	}
	delete(parent.Children, node.Name)
	parent.Children[newName] = h.Index()
	node.Name = newName
	node.fqnValid = false
	invalidateSubtreeFQN(t, h.Index())
	return nil
}

func invalidateSubtreeFQN(t *Table, idx NodeIndex) {
	node := t.nodeAt(idx)
	node.fqnValid = false
	for _, c := range node.Children {
		invalidateSubtreeFQN(t, c)
	}
}

func (t *Table) fqnLocked(idx NodeIndex) string {
	node := t.nodeAt(idx)
	if node == nil {
		return ""
	}
	if node.fqnValid {
		return node.fqn
	}
	if node.Parent == InvalidIndex || node.Name == "" {
		node.fqn = ""
		node.fqnValid = true
		return node.fqn
	}
	parentFQN := t.fqnLocked(node.Parent)
	if parentFQN == "" {
		node.fqn = node.Name
	} else {
		node.fqn = parentFQN + "." + node.Name
	}
	node.fqnValid = true
	return node.fqn
}

// FQN returns the dotted fully-qualified name of the node at idx, computed
// from the parent chain and cached on first computation.
func (t *Table) FQN(idx NodeIndex) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fqnLocked(idx)
}

// swapRemove is the unlocked core of SwapRemove, reused by Strip which
// already holds t.mu across its whole sweep.
func (t *Table) swapRemove(idx NodeIndex) {
	if int(idx) >= len(t.nodes) || idx == 0 {
		return
	}
	node := t.nodeAt(idx)
	if parent := t.nodeAt(node.Parent); parent != nil {
		delete(parent.Children, node.Name)
	}
	*node.handle = InvalidIndex

	lastIdx := NodeIndex(len(t.nodes) - 1)
	if lastIdx != idx {
		last := t.nodes[lastIdx]
		t.nodes[idx] = last
		*last.handle = idx
		if parent := t.nodeAt(last.Parent); parent != nil {
			parent.Children[last.Name] = idx
		}
		for _, childIdx := range last.Children {
			if child := t.nodeAt(childIdx); child != nil {
				child.Parent = idx
			}
		}
	}
	t.nodes = t.nodes[:lastIdx]
}

// SwapRemove removes the node at idx by swapping the last arena slot into
// its place and truncating, updating every live handle's shared index cell
// so outstanding Handles observe the move rather than going stale. The
// removed node's own handle cell is set to InvalidIndex.
func (t *Table) SwapRemove(idx NodeIndex) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.swapRemove(idx)
}

// Strip removes pure-scope nodes (no Metadata) that have no children,
// repeating until none is left, so empty scopes are dropped bottom-up. A
// pure-scope node that still holds a declared symbol anywhere below it is
// kept. Used after resolution, once name lookup is complete.
func (t *Table) Strip() {
	t.mu.Lock()
	defer t.mu.Unlock()
	var leaves []NodeIndex
	for {
		leaves = leaves[:0]
		for idx := NodeIndex(1); int(idx) < len(t.nodes); idx++ {
			node := t.nodeAt(idx)
			if node == nil {
				continue
			}
			if node.Metadata == nil && len(node.Children) == 0 {
				leaves = append(leaves, idx)
			}
		}
		if len(leaves) == 0 {
			return
		}
		for _, idx := range leaves {
			if int(idx) < len(t.nodes) {
				t.swapRemove(idx)
			}
		}
	}
}

// Merge unions other into t under t's root, following the "first wins"
// conflict policy: where both tables declare Metadata at the same dotted
// path, t's existing metadata is kept and other's is discarded. Children
// present only in other are always copied in. See SPEC_FULL.md §8a.
func (t *Table) Merge(other *Table) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if other != t {
		other.mu.RLock()
		defer other.mu.RUnlock()
	}
	mergeChildren(t, other, 0, 0)
}

func mergeChildren(dst, src *Table, dstIdx, srcIdx NodeIndex) {
	srcNode := src.nodeAt(srcIdx)
	for name, childIdx := range srcNode.Children {
		child := src.nodeAt(childIdx)
		dstChild := dst.findPart(name, dstIdx)
		if !dstChild.Valid() {
			h := dst.insert(name, nil, dstIdx)
			if child.Metadata != nil {
				dst.nodeAt(h.Index()).Metadata = cloneMetadata(child.Metadata)
			}
			mergeChildren(dst, src, h.Index(), childIdx)
			continue
		}
		dstNode := dst.nodeAt(dstChild.Index())
		if dstNode.Metadata == nil && child.Metadata != nil {
			dstNode.Metadata = cloneMetadata(child.Metadata)
		}
		mergeChildren(dst, src, dstChild.Index(), childIdx)
	}
}

func cloneMetadata(m *Metadata) *Metadata {
	cp := *m
	cp.DeclBody = append([]byte(nil), m.DeclBody...)
	return &cp
}

// Len reports the number of live nodes, including the root.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}
