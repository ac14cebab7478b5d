// Package arena provides identifier interning for a single compilation. The
// Arena type carries the compilation's Interner; it does not allocate or own
// AST or IL nodes, which are ordinary Go values linked by pointer.
package arena

import (
	"sync"

	"github.com/minio/highwayhash"
)

// internKey is the highwayhash key used to hash interned string spans. It is
// fixed so hashes are stable across a process run (mirrors the teacher's
// inspector/graph.Hash helper, which uses a fixed 32-byte key for the same
// reason: stable content hashes, not cryptographic secrecy).
var internKey = []byte("HXLC-ARENA-INTERN-KEY-0123456789")

// Identifier is an interned name. Callers compare Identifiers with ==, which
// compares their text: two Identifiers with the same text are equal whichever
// Interner produced them.
type Identifier struct {
	text string
}

// String returns the identifier's text.
func (id Identifier) String() string { return id.text }

// IsZero reports whether id is the zero Identifier (never interned).
func (id Identifier) IsZero() bool { return id.text == "" }

// Interner hands out stable Identifiers for name strings. It is safe for
// concurrent use: multiple compilation units may intern names while parsing
// in parallel (see compiler.Compile).
type Interner struct {
	mu      sync.RWMutex
	entries map[uint64][]string
}

// NewInterner creates an empty Interner.
func NewInterner() *Interner {
	return &Interner{entries: make(map[uint64][]string)}
}

// Intern returns the canonical Identifier for s, creating one if this is the
// first time s has been seen.
func (in *Interner) Intern(s string) Identifier {
	h := hashString(s)

	in.mu.RLock()
	for _, existing := range in.entries[h] {
		if existing == s {
			in.mu.RUnlock()
			return Identifier{text: existing}
		}
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	for _, existing := range in.entries[h] {
		if existing == s {
			return Identifier{text: existing}
		}
	}
	// Copy so the interned string never aliases caller-owned memory.
	owned := string([]byte(s))
	in.entries[h] = append(in.entries[h], owned)
	return Identifier{text: owned}
}

func hashString(s string) uint64 {
	hasher, err := highwayhash.New64(internKey)
	if err != nil {
		// internKey is a fixed 32-byte constant; New64 only fails on bad key length.
		panic("arena: invalid intern key: " + err.Error())
	}
	_, _ = hasher.Write([]byte(s))
	return hasher.Sum64()
}

// TextSpan locates a range of source text.
type TextSpan struct {
	File   string
	Offset int
	Length int
	Line   int
	Column int
}

// Arena holds the Interner for a single compilation unit (or, for the merged
// post-collection assembly, for the whole compilation). It does not allocate
// AST or IL nodes.
type Arena struct {
	Interner *Interner
}

// New creates an Arena with its own Interner.
func New() *Arena {
	return &Arena{Interner: NewInterner()}
}

// NewWithInterner creates an Arena sharing in's Interner, used when several
// per-unit arenas must agree on Identifier identity before their results are
// merged into one assembly.
func NewWithInterner(in *Interner) *Arena {
	return &Arena{Interner: in}
}

// Intern is a convenience forwarder to the arena's Interner.
func (a *Arena) Intern(s string) Identifier { return a.Interner.Intern(s) }
