package dupscan

import (
	"encoding/binary"

	"github.com/nocopy/dupcheck/pkg/winnow"
)

// winnowDefaultK and winnowDefaultW are the k-gram/window parameters
// shared by the char/line/token span detectors.
const (
	winnowDefaultK = 5
	winnowDefaultW = 4
)

// charSpanPreviewLen is how many word-chars of the representative content
// a char-span group's Preview carries.
const charSpanPreviewLen = 80

// spanMatch is one maximal contiguous range discovered by winnowing,
// before grouping by content key.
type spanMatch struct {
	unitIdx    int
	start, end int // element-index range, end-exclusive
}

// runSpanWinnow builds a winnow index over each unit's precomputed element
// hashes, extends every candidate pair to its maximal range, and returns
// the matches that pass the filterLen cutoff. This is the shared core of
// the char/line/token span detectors: one engine, many projections.
func runSpanWinnow(docHashes [][]uint64, eqOf func(ui int, i int, uj int, j int) bool, filterLen func(ui, start, end int) int) ([]spanMatch, int) {
	docs := make([]winnow.Doc, len(docHashes))
	for i := range docHashes {
		docs[i] = winnow.Doc{ID: i, Hashes: docHashes[i]}
	}
	idx := winnow.BuildIndex(docs, winnow.Params{K: winnowDefaultK, W: winnowDefaultW, MaxBucket: bucketMaxPositions})

	lenOf := func(doc int) int { return len(docHashes[doc]) }

	seen := make(map[[3]int]bool)
	var matches []spanMatch
	for _, pair := range idx.CandidatePairs() {
		a, b := pair[0], pair[1]
		ra, rb := winnow.ExtendMaximal(a, b, winnowDefaultK, eqOf, lenOf)
		for _, r := range []winnow.Range{ra, rb} {
			key := [3]int{r.Doc, r.Start, r.End}
			if seen[key] {
				continue
			}
			seen[key] = true
			if filterLen(r.Doc, r.Start, r.End) < 0 {
				continue
			}
			matches = append(matches, spanMatch{unitIdx: r.Doc, start: r.Start, end: r.End})
		}
	}
	return matches, idx.BucketsTruncated
}

// groupSpanMatches merges matches sharing identical range content into
// groups. contentOf re-derives the exact encoded content of a match's
// range (not the winnowing fingerprint), so bucketing doubles as the
// re-verification pass: two matches land in the same group only when
// their full normalized sub-sequences compare byte-equal. The group's
// surfaced fingerprint is a re-hash of that verified content. Builds
// Occurrences via lineOf, applies crossRepoOnly, and sorts/truncates.
func groupSpanMatches(units []scanUnit, matches []spanMatch, opts ScanOptions, contentOf func(m spanMatch) ([]byte, int), lineOf func(ui, pos int) int, previewOf func(m spanMatch) string) []Group {
	type bucket struct {
		matches []spanMatch
		length  int
		preview string
	}
	byContent := make(map[string]*bucket)
	for _, m := range matches {
		content, length := contentOf(m)
		key := string(content)
		b, ok := byContent[key]
		if !ok {
			b = &bucket{length: length}
			if previewOf != nil {
				b.preview = previewOf(m)
			}
			byContent[key] = b
		}
		b.matches = append(b.matches, m)
	}

	var groups []Group
	for content, b := range byContent {
		// De-duplicate occurrences at the same (root, path, startLine).
		occSeen := make(map[occKey]bool)
		var occs []Occurrence
		for _, m := range b.matches {
			u := &units[m.unitIdx]
			startLine := lineOf(m.unitIdx, m.start)
			endLine := startLine
			if m.end > m.start {
				endLine = lineOf(m.unitIdx, m.end-1)
			}
			k := occKey{rootID: u.rootID, relative: u.relative, startLine: startLine}
			if occSeen[k] {
				continue
			}
			occSeen[k] = true
			occs = append(occs, Occurrence{
				RootID:       u.rootID,
				RootLabel:    u.rootLabel,
				RelativePath: u.relative,
				StartLine:    startLine,
				EndLine:      endLine,
			})
		}
		if len(occs) < 2 {
			continue
		}
		if opts.CrossRepoOnly && !occsSpanMultipleRoots(occs) {
			continue
		}
		sortOccurrences(occs)
		groups = append(groups, Group{
			Fingerprint:   fingerprintBytes([]byte(content)),
			NormalizedLen: b.length,
			Occurrences:   occs,
			Preview:       b.preview,
		})
	}

	sortGroups(groups)
	return truncateGroups(groups, opts.MaxReportItems)
}

// occKey identifies one occurrence for de-duplication within a group.
type occKey struct {
	rootID    int
	relative  string
	startLine int
}

func occsSpanMultipleRoots(occs []Occurrence) bool {
	seen := make(map[int]bool)
	for _, o := range occs {
		seen[o.RootID] = true
	}
	return len(seen) >= 2
}

// --- Char-span duplicates ---

func detectCharSpanDuplicates(units []scanUnit, opts ScanOptions) ([]Group, int) {
	docHashes := make([][]uint64, len(units))
	for i := range units {
		chars := units[i].views.wordChars
		hashes := make([]uint64, len(chars))
		for j, c := range chars {
			hashes[j] = byteElementHash(c)
		}
		docHashes[i] = hashes
	}
	eqOf := func(ui, i, uj, j int) bool {
		return units[ui].views.wordChars[i] == units[uj].views.wordChars[j]
	}
	filterLen := func(ui, start, end int) int {
		if end-start < opts.MinMatchLen {
			return -1
		}
		return end - start
	}

	matches, truncated := runSpanWinnow(docHashes, eqOf, filterLen)

	contentOf := func(m spanMatch) ([]byte, int) {
		content := units[m.unitIdx].views.wordChars[m.start:m.end]
		return content, len(content)
	}
	previewOf := func(m spanMatch) string {
		content := units[m.unitIdx].views.wordChars[m.start:m.end]
		if len(content) > charSpanPreviewLen {
			content = content[:charSpanPreviewLen]
		}
		return string(content)
	}
	lineOf := func(ui, pos int) int {
		lines := units[ui].views.wordCharLines
		if pos < 0 {
			pos = 0
		}
		if pos >= len(lines) {
			pos = len(lines) - 1
		}
		if pos < 0 {
			return 1
		}
		return lines[pos]
	}
	return groupSpanMatches(units, matches, opts, contentOf, lineOf, previewOf), truncated
}

// --- Line-span duplicates ---

func detectLineSpanDuplicates(units []scanUnit, opts ScanOptions) ([]Group, int) {
	// Precompute each unit's non-empty-line index once; the winnow
	// element sequence is the line-token hash of each non-empty line.
	idxsPerUnit := make([][]int, len(units))
	docHashes := make([][]uint64, len(units))
	for i := range units {
		idxs := units[i].views.nonEmptyLineIndices()
		idxsPerUnit[i] = idxs
		hashes := make([]uint64, len(idxs))
		for j, li := range idxs {
			hashes[j] = units[i].views.lineTokens[li]
		}
		docHashes[i] = hashes
	}
	eqOf := func(ui, i, uj, j int) bool {
		return docHashes[ui][i] == docHashes[uj][j]
	}
	// A line span's normalized length is the sum of word-char lengths
	// of its member lines; the filter uses this sum, not the window's
	// line count.
	sumWordLen := func(ui, start, end int) int {
		total := 0
		for p := start; p < end; p++ {
			total += units[ui].views.lineWordLen[idxsPerUnit[ui][p]]
		}
		return total
	}
	filterLen := func(ui, start, end int) int {
		l := sumWordLen(ui, start, end)
		if l < opts.MinMatchLen {
			return -1
		}
		return l
	}

	matches, truncated := runSpanWinnow(docHashes, eqOf, filterLen)

	contentOf := func(m spanMatch) ([]byte, int) {
		buf := make([]byte, 0, 8*(m.end-m.start))
		for p := m.start; p < m.end; p++ {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], docHashes[m.unitIdx][p])
			buf = append(buf, b[:]...)
		}
		return buf, sumWordLen(m.unitIdx, m.start, m.end)
	}
	lineOf := func(ui, pos int) int {
		idxs := idxsPerUnit[ui]
		lines := units[ui].views.lineTokenLines
		if pos < 0 {
			pos = 0
		}
		if pos >= len(idxs) {
			pos = len(idxs) - 1
		}
		if pos < 0 {
			return 1
		}
		return lines[idxs[pos]]
	}
	return groupSpanMatches(units, matches, opts, contentOf, lineOf, nil), truncated
}

// --- Token-span duplicates ---

func detectTokenSpanDuplicates(units []scanUnit, opts ScanOptions) ([]Group, int) {
	docHashes := make([][]uint64, len(units))
	for i := range units {
		toks := units[i].views.tokens
		hashes := make([]uint64, len(toks))
		for j, t := range toks {
			hashes[j] = tokenElementHash(t)
		}
		docHashes[i] = hashes
	}
	eqOf := func(ui, i, uj, j int) bool {
		return tokenEqual(units[ui].views.tokens[i], units[uj].views.tokens[j])
	}
	filterLen := func(ui, start, end int) int {
		if end-start < opts.MinTokenLen {
			return -1
		}
		return end - start
	}

	matches, truncated := runSpanWinnow(docHashes, eqOf, filterLen)

	contentOf := func(m spanMatch) ([]byte, int) {
		buf := make([]byte, 0, 8*(m.end-m.start))
		for p := m.start; p < m.end; p++ {
			var b [8]byte
			binary.BigEndian.PutUint64(b[:], docHashes[m.unitIdx][p])
			buf = append(buf, b[:]...)
		}
		return buf, m.end - m.start
	}
	lineOf := func(ui, pos int) int {
		toks := units[ui].views.tokens
		if pos < 0 {
			pos = 0
		}
		if pos >= len(toks) {
			pos = len(toks) - 1
		}
		if pos < 0 {
			return 1
		}
		return toks[pos].StartLine
	}
	return groupSpanMatches(units, matches, opts, contentOf, lineOf, nil), truncated
}
