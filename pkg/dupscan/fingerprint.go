package dupscan

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// fingerprintBytes is the 64-bit non-cryptographic content fingerprint
// used throughout the engine (line-token hashes, file-duplicate content
// hashes, block/subtree hashes, re-verification hashes).
func fingerprintBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// fingerprintUint64 hashes a single element (e.g. a token's tag+payload
// encoded as a uint64) for use as a winnow.Doc element hash.
func fingerprintUint64(v uint64) uint64 {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return xxhash.Sum64(buf[:])
}

// fingerprintHex renders a fingerprint as 16 lowercase hex characters,
// the representation surfaced in serialized output.
func fingerprintHex(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

// tokenElementHash packs a token's kind plus (for KEYWORD/PUNCT) its
// payload into a single uint64 suitable as a winnow element hash,
// consistent with tokenEqual's equality rule: IDENT/NUM/STR tokens of the
// same kind always hash identically.
func tokenElementHash(t Token) uint64 {
	switch t.Kind {
	case TokKeyword, TokPunct:
		return fingerprintUint64(uint64(t.Kind))*31 + fingerprintBytes([]byte(t.Text))
	default:
		return fingerprintUint64(uint64(t.Kind))
	}
}

// byteElementHash widens a raw byte into a uint64 element hash for the
// word-char winnowing projection.
func byteElementHash(c byte) uint64 {
	return fingerprintUint64(uint64(c))
}

// fileDuplicateFingerprint mixes length plus first/last-4KiB samples plus
// a full content hash, to reduce first-pass collisions for whole-file
// duplicate grouping before the byte-compare re-verification pass.
func fileDuplicateFingerprint(content []byte) uint64 {
	const sampleSize = 4 * 1024
	h := fingerprintUint64(uint64(len(content)))

	head := content
	if len(head) > sampleSize {
		head = head[:sampleSize]
	}
	h = h*1099511628211 ^ fingerprintBytes(head)

	tail := content
	if len(tail) > sampleSize {
		tail = tail[len(tail)-sampleSize:]
	}
	h = h*1099511628211 ^ fingerprintBytes(tail)

	h = h*1099511628211 ^ fingerprintBytes(content)
	return h
}
