package symtab

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Write serializes the table as SYMBOL_COUNT + SYMBOL_NODES per spec.md
// §6.1. The caller (assembly package) is responsible for the surrounding
// MAGIC/VERSION framing and the IL payload that follows.
func (t *Table) Write(w io.Writer) error {
	if err := writeU32(w, uint32(len(t.nodes))); err != nil {
		return err
	}
	for idx, node := range t.nodes {
		if err := writeU32(w, uint32(idx)); err != nil {
			return err
		}
		if err := writeString(w, node.Name); err != nil {
			return err
		}
		if err := writeU32(w, uint32(len(node.Children))); err != nil {
			return err
		}
		for _, childIdx := range node.Children {
			if err := writeU32(w, uint32(childIdx)); err != nil {
				return err
			}
		}
		if err := writeU32(w, node.Depth); err != nil {
			return err
		}
		parent := uint32(node.Parent)
		if node.Parent == InvalidIndex {
			parent = uint32(InvalidIndex)
		}
		if err := writeU32(w, parent); err != nil {
			return err
		}
		if node.Metadata == nil {
			if err := writeU8(w, 0); err != nil {
				return err
			}
			continue
		}
		if err := writeU8(w, 1); err != nil {
			return err
		}
		if err := writeMetadata(w, node.Metadata); err != nil {
			return err
		}
	}
	return nil
}

func writeMetadata(w io.Writer, m *Metadata) error {
	for _, v := range []uint32{uint32(m.SymType), m.Scope, m.Access, m.Size} {
		if err := writeU32(w, v); err != nil {
			return err
		}
	}
	if !m.HasDecl {
		return writeU8(w, 0)
	}
	if err := writeU8(w, 1); err != nil {
		return err
	}
	if err := writeU32(w, uint32(m.DeclKind)); err != nil {
		return err
	}
	if err := writeU32(w, uint32(len(m.DeclBody))); err != nil {
		return err
	}
	_, err := w.Write(m.DeclBody)
	return err
}

// Read deserializes a table previously produced by Write. Each node's
// Children map is rebuilt from its stored child indices and each child's
// Name, since the wire format stores only indices, not names, for child
// lists (spec.md §6.1 CHILD_INDICES).
func Read(r io.Reader) (*Table, error) {
	count, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("symtab: read symbol count: %w", err)
	}
	t := &Table{nodes: make([]*Node, count)}
	type rawChildren struct {
		idx  uint32
		kids []uint32
	}
	var pending []rawChildren

	for i := uint32(0); i < count; i++ {
		nodeIndex, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("symtab: read node index: %w", err)
		}
		name, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("symtab: read name: %w", err)
		}
		childCount, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("symtab: read child count: %w", err)
		}
		kids := make([]uint32, childCount)
		for c := range kids {
			if kids[c], err = readU32(r); err != nil {
				return nil, fmt.Errorf("symtab: read child index: %w", err)
			}
		}
		depth, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("symtab: read depth: %w", err)
		}
		parent, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("symtab: read parent: %w", err)
		}
		hasMeta, err := readU8(r)
		if err != nil {
			return nil, fmt.Errorf("symtab: read has-metadata flag: %w", err)
		}
		var meta *Metadata
		if hasMeta != 0 {
			if meta, err = readMetadata(r); err != nil {
				return nil, err
			}
		}
		cell := NodeIndex(nodeIndex)
		node := &Node{
			Name:     name,
			Children: make(map[string]NodeIndex, childCount),
			Parent:   NodeIndex(parent),
			Depth:    depth,
			Metadata: meta,
			handle:   &cell,
		}
		if int(nodeIndex) >= len(t.nodes) {
			return nil, fmt.Errorf("symtab: node index %d out of range", nodeIndex)
		}
		t.nodes[nodeIndex] = node
		pending = append(pending, rawChildren{idx: nodeIndex, kids: kids})
	}
	for _, p := range pending {
		node := t.nodes[p.idx]
		for _, kidIdx := range p.kids {
			if int(kidIdx) >= len(t.nodes) || t.nodes[kidIdx] == nil {
				return nil, fmt.Errorf("symtab: child index %d out of range", kidIdx)
			}
			node.Children[t.nodes[kidIdx].Name] = NodeIndex(kidIdx)
		}
	}
	return t, nil
}

func readMetadata(r io.Reader) (*Metadata, error) {
	vals := make([]uint32, 4)
	for i := range vals {
		v, err := readU32(r)
		if err != nil {
			return nil, fmt.Errorf("symtab: read metadata field %d: %w", i, err)
		}
		vals[i] = v
	}
	m := &Metadata{SymType: SymKind(vals[0]), Scope: vals[1], Access: vals[2], Size: vals[3]}
	hasDecl, err := readU8(r)
	if err != nil {
		return nil, fmt.Errorf("symtab: read has-decl flag: %w", err)
	}
	if hasDecl == 0 {
		return m, nil
	}
	m.HasDecl = true
	declKind, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("symtab: read decl kind: %w", err)
	}
	m.DeclKind = DeclKind(declKind)
	bodyLen, err := readU32(r)
	if err != nil {
		return nil, fmt.Errorf("symtab: read decl body length: %w", err)
	}
	m.DeclBody = make([]byte, bodyLen)
	if _, err := io.ReadFull(r, m.DeclBody); err != nil {
		return nil, fmt.Errorf("symtab: read decl body: %w", err)
	}
	return m, nil
}

func writeU8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

func readU8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func writeU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeString(w io.Writer, s string) error {
	if err := writeU32(w, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
