package assembly

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hexashader/hxlc/symtab"
	"golang.org/x/crypto/blake2b"
)

// magic identifies the binary assembly format (spec.md §6.1 MAGIC).
var magic = [4]byte{'H', 'X', 'L', 'C'}

// formatVersion is bumped whenever the framing below changes shape.
const formatVersion uint32 = 1

// Encode produces the full MAGIC/VERSION/SYMBOL_NODES/IL_PAYLOAD/
// FOOTER_DIGEST stream (spec.md §6.1, plus the SPEC_FULL.md §6.1 footer).
// The assembly's name and language version are not part of the wire format;
// they travel alongside it the way the caller addresses the assembly
// (typically the load URL).
func Encode(a *Assembly) ([]byte, error) {
	var body bytes.Buffer
	if err := a.table.Write(&body); err != nil {
		return nil, fmt.Errorf("assembly: encode symbol table: %w", err)
	}
	if err := writeU32(&body, uint32(len(a.ILPayload))); err != nil {
		return nil, err
	}
	if _, err := body.Write(a.ILPayload); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	out.Write(magic[:])
	if err := writeU32(&out, formatVersion); err != nil {
		return nil, err
	}
	out.Write(body.Bytes())

	digest := blake2b.Sum256(out.Bytes())
	out.Write(digest[:])
	return out.Bytes(), nil
}

// Decode parses a stream previously produced by Encode, verifying the
// footer digest before trusting any of the payload (spec.md §7
// "ChecksumMismatch").
func Decode(data []byte) (*Assembly, error) {
	if len(data) < len(magic)+4+blake2b.Size256 {
		return nil, &LoadError{Kind: Truncated, Err: fmt.Errorf("assembly: stream too short (%d bytes)", len(data))}
	}
	body := data[:len(data)-blake2b.Size256]
	wantDigest := data[len(data)-blake2b.Size256:]
	gotDigest := blake2b.Sum256(body)
	if !bytes.Equal(gotDigest[:], wantDigest) {
		return nil, &LoadError{Kind: ChecksumMismatch, Err: fmt.Errorf("assembly: footer digest mismatch")}
	}

	r := bytes.NewReader(body)
	var gotMagic [4]byte
	if _, err := io.ReadFull(r, gotMagic[:]); err != nil || gotMagic != magic {
		return nil, &LoadError{Kind: ParseError, Err: fmt.Errorf("assembly: bad magic %q", gotMagic)}
	}
	version, err := readU32(r)
	if err != nil {
		return nil, &LoadError{Kind: Truncated, Err: err}
	}
	if version != formatVersion {
		return nil, &LoadError{Kind: VersionMismatch, Err: fmt.Errorf("assembly: format version %d unsupported", version)}
	}
	table, err := symtab.Read(r)
	if err != nil {
		return nil, &LoadError{Kind: ParseError, Err: fmt.Errorf("assembly: read symbol table: %w", err)}
	}
	ilLen, err := readU32(r)
	if err != nil {
		return nil, &LoadError{Kind: Truncated, Err: fmt.Errorf("assembly: read IL length: %w", err)}
	}
	ilPayload := make([]byte, ilLen)
	if _, err := io.ReadFull(r, ilPayload); err != nil {
		return nil, &LoadError{Kind: Truncated, Err: fmt.Errorf("assembly: read IL payload: %w", err)}
	}
	return &Assembly{LanguageVersion: "v1.0.0", table: table, ILPayload: ilPayload}, nil
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
