// Package winnow implements the shared winnowing fingerprint engine: a
// k-gram/window selection scheme that reduces any hashable element sequence
// to a sparse index of (hash -> positions), plus maximal-match extension
// over candidate position pairs.
//
// The engine is deliberately shape-agnostic. Callers project their own
// content (bytes, word-chars, line tokens, source tokens) into a Doc and
// get back winnowed Selections; extending a seed match into a maximal
// contiguous range requires an exact-equality callback supplied by the
// caller, since only the caller knows what "equal" means for its element
// type.
package winnow

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Doc is one document's element-hash sequence to fingerprint. ID is an
// opaque, caller-assigned identifier (e.g. an index into the caller's own
// slice of scanned files); it is carried through unchanged.
type Doc struct {
	ID     int
	Hashes []uint64
}

// Params controls the k-gram/window fingerprint.
type Params struct {
	// K is the k-gram length (number of consecutive elements combined
	// into one rolling hash).
	K int
	// W is the window length, in k-grams.
	W int
	// MaxBucket caps the number of selections retained per distinct
	// hash value. 0 means unlimited.
	MaxBucket int
}

// Selection is one winnowed fingerprint: a hash value plus the document and
// starting element index it was selected from.
type Selection struct {
	Hash uint64
	Doc  int
	Pos  int
}

// Fingerprint computes the rolling k-gram hash sequence for doc and winnows
// it down to one selection per window, using the standard minimum-hash,
// rightmost-on-ties rule, and suppressing repeat emission of the same
// (hash, position) pair across consecutive windows.
func Fingerprint(doc Doc, k, w int) []Selection {
	n := len(doc.Hashes)
	if k < 1 || n < k {
		return nil
	}

	kgrams := make([]uint64, n-k+1)
	for i := range kgrams {
		kgrams[i] = kgramHash(doc.Hashes[i : i+k])
	}

	if w < 1 {
		w = 1
	}
	if len(kgrams) < w {
		w = len(kgrams)
	}

	var out []Selection
	lastPos := -1
	for start := 0; start+w <= len(kgrams); start++ {
		minIdx := start
		for i := start + 1; i < start+w; i++ {
			if kgrams[i] <= kgrams[minIdx] {
				minIdx = i
			}
		}
		if minIdx == lastPos {
			continue
		}
		lastPos = minIdx
		out = append(out, Selection{Hash: kgrams[minIdx], Doc: doc.ID, Pos: minIdx})
	}
	return out
}

// kgramHash mixes k element hashes into a single 64-bit value via xxhash
// over their big-endian byte representation; order-sensitive so permuted
// k-grams do not collide.
func kgramHash(elems []uint64) uint64 {
	buf := make([]byte, 8*len(elems))
	for i, e := range elems {
		binary.BigEndian.PutUint64(buf[i*8:], e)
	}
	return xxhash.Sum64(buf)
}

// Index maps a winnowed hash to every (doc, pos) where it was selected.
type Index struct {
	Buckets map[uint64][]Selection
	// BucketsTruncated counts how many distinct hash buckets were cut
	// down to Params.MaxBucket during BuildIndex.
	BucketsTruncated int

	truncated map[uint64]bool
}

// BuildIndex winnows every doc and assembles the hash -> selections index,
// enforcing the bucket cap as it goes.
func BuildIndex(docs []Doc, p Params) *Index {
	idx := &Index{Buckets: make(map[uint64][]Selection), truncated: make(map[uint64]bool)}
	for _, d := range docs {
		for _, sel := range Fingerprint(d, p.K, p.W) {
			b := idx.Buckets[sel.Hash]
			if p.MaxBucket > 0 && len(b) >= p.MaxBucket {
				if !idx.truncated[sel.Hash] {
					idx.truncated[sel.Hash] = true
					idx.BucketsTruncated++
				}
				continue
			}
			idx.Buckets[sel.Hash] = append(b, sel)
		}
	}
	return idx
}

// CandidatePairs returns every distinct unordered pair of selections sharing
// a bucket, skipping only a selection paired with itself (same document,
// same position); pairs at overlapping positions within one document are
// kept. Output order is deterministic (bucket hash ascending, then bucket
// insertion order: document, then position) but callers should not
// rely on it beyond that; downstream grouping re-sorts by its own key.
func (idx *Index) CandidatePairs() [][2]Selection {
	hashes := make([]uint64, 0, len(idx.Buckets))
	for h := range idx.Buckets {
		hashes = append(hashes, h)
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i] < hashes[j] })

	var pairs [][2]Selection
	for _, h := range hashes {
		sels := idx.Buckets[h]
		for i := 0; i < len(sels); i++ {
			for j := i + 1; j < len(sels); j++ {
				a, b := sels[i], sels[j]
				if a.Doc == b.Doc && a.Pos == b.Pos {
					continue
				}
				pairs = append(pairs, [2]Selection{a, b})
			}
		}
	}
	return pairs
}

// EqualFunc reports whether element i in doc a equals element j in doc b,
// under whatever equality the caller's element type requires.
type EqualFunc func(docA, i, docB, j int) bool

// LenFunc returns the number of elements in the given document.
type LenFunc func(doc int) int

// Range is a maximal matching element range discovered by ExtendMaximal, in
// one of the two documents of the pair it was extended from. End is
// exclusive.
type Range struct {
	Doc        int
	Start, End int
}

// ExtendMaximal extends a seed k-gram match at (a.Doc, a.Pos) /
// (b.Doc, b.Pos) leftward and rightward while corresponding elements keep
// comparing equal under eq, bounded by each document's length from lenOf.
// k is the k-gram length the seed was built from, so the initial window is
// at least k elements wide before extension.
func ExtendMaximal(a, b Selection, k int, eq EqualFunc, lenOf LenFunc) (Range, Range) {
	lenA, lenB := lenOf(a.Doc), lenOf(b.Doc)

	startA, startB := a.Pos, b.Pos
	for startA > 0 && startB > 0 && eq(a.Doc, startA-1, b.Doc, startB-1) {
		startA--
		startB--
	}

	endA, endB := a.Pos+k, b.Pos+k
	if endA > lenA {
		endA = lenA
	}
	if endB > lenB {
		endB = lenB
	}
	for endA < lenA && endB < lenB && eq(a.Doc, endA, b.Doc, endB) {
		endA++
		endB++
	}

	return Range{Doc: a.Doc, Start: startA, End: endA}, Range{Doc: b.Doc, Start: startB, End: endB}
}
