// Package dupscan is the scan-and-detect engine: a bounded, safety-hardened
// file collector plus a set of layered duplicate/similarity detectors over
// character streams, line streams, token streams, and brace-nested block
// trees. It produces groups and pairs addressable by file path and source
// line range, alongside a ScanStats accounting record callers can gate
// strict-completeness policy on.
//
// The walker strategy never shells out (only the opt-in external
// enumerator fast path in enumerate.go launches a child process); the
// package never persists state across calls and never does real
// per-language parsing.
package dupscan

import "encoding/json"

// Root is a user-supplied canonicalized directory path with a short display
// label (its final path segment, or an index-derived label if ambiguous)
// and a stable integer id equal to its position in the input roots slice.
type Root struct {
	ID    int
	Path  string // canonicalized absolute path
	Label string
}

// Occurrence is one member of a Group or one side of a SimilarityPair: a
// file path (relative to its declared root, or an opaque fallback label)
// plus a source line range. For whole-file duplicates, StartLine is always
// 1 and EndLine is the file's last line.
type Occurrence struct {
	RootID       int    `json:"rootId"`
	RootLabel    string `json:"rootLabel"`
	RelativePath string `json:"relativePath"`
	StartLine    int    `json:"startLine"`
	EndLine      int    `json:"endLine"`
}

// Group is an equivalence class of two or more Occurrences sharing a
// fingerprint over some normalized view, re-verified before being emitted.
type Group struct {
	Fingerprint   uint64
	NormalizedLen int
	Occurrences   []Occurrence
	Preview       string // first N characters of the representative content; empty when not applicable
}

// MarshalJSON surfaces the fingerprint as 16 hex characters, the
// representation callers see in serialized output.
func (g Group) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Hash          string       `json:"hash"`
		NormalizedLen int          `json:"normalizedLen"`
		Occurrences   []Occurrence `json:"occurrences"`
		Preview       string       `json:"preview,omitempty"`
	}{
		Hash:          fingerprintHex(g.Fingerprint),
		NormalizedLen: g.NormalizedLen,
		Occurrences:   g.Occurrences,
		Preview:       g.Preview,
	})
}

// SimilarityPair is two near-duplicate blocks judged by MinHash or SimHash.
// Distance is populated (non-nil) only for SimHash pairs.
type SimilarityPair struct {
	A        Occurrence `json:"a"`
	B        Occurrence `json:"b"`
	Score    float64    `json:"score"`
	Distance *uint8     `json:"distance,omitempty"`
}

// DuplicationReport is the full output of GenerateReport: eight ordered,
// maxReportItems-truncated sections.
type DuplicationReport struct {
	FileDuplicates       []Group          `json:"fileDuplicates"`
	CodeSpanDuplicates   []Group          `json:"codeSpanDuplicates"`
	LineSpanDuplicates   []Group          `json:"lineSpanDuplicates"`
	TokenSpanDuplicates  []Group          `json:"tokenSpanDuplicates"`
	BlockDuplicates      []Group          `json:"blockDuplicates"`
	ASTSubtreeDuplicates []Group          `json:"astSubtreeDuplicates"`
	SimilarBlocksMinhash []SimilarityPair `json:"similarBlocksMinhash"`
	SimilarBlocksSimhash []SimilarityPair `json:"similarBlocksSimhash"`
}
