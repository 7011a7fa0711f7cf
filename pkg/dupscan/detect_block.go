package dupscan

import (
	"encoding/binary"

	"github.com/nocopy/dupcheck/pkg/blocktree"
)

// tokenStreamAdapter exposes a scanned file's token stream to blocktree.
type tokenStreamAdapter struct {
	tokens []Token
}

func (a tokenStreamAdapter) Len() int { return len(a.tokens) }
func (a tokenStreamAdapter) IsOpenBrace(i int) bool {
	t := a.tokens[i]
	return t.Kind == TokPunct && t.Text == "{"
}
func (a tokenStreamAdapter) IsCloseBrace(i int) bool {
	t := a.tokens[i]
	return t.Kind == TokPunct && t.Text == "}"
}
func (a tokenStreamAdapter) Line(i int) int { return a.tokens[i].StartLine }

// unitBlock pairs a block with the unit it was built from.
type unitBlock struct {
	unitIdx int
	block   *blocktree.Block
}

// blockEntry is one candidate occurrence for a block-group bucket: the
// block plus the exact encoded token-hash sequence used to re-verify
// bucket membership before a group is emitted.
type blockEntry struct {
	ub  unitBlock
	buf []byte
}

// buildBlocks constructs the block tree for every unit and returns every
// block across all units, flattened, grouped per-unit (pre-order: a
// parent always precedes its children).
func buildBlocks(units []scanUnit) [][]unitBlock {
	perUnit := make([][]unitBlock, len(units))
	for i := range units {
		adapter := tokenStreamAdapter{tokens: units[i].views.tokens}
		roots := blocktree.Build(adapter)
		for _, b := range blocktree.All(roots) {
			perUnit[i] = append(perUnit[i], unitBlock{unitIdx: i, block: b})
		}
	}
	return perUnit
}

// fullSliceHash hashes a block's full token slice, encoding each token via
// tokenElementHash so the hash respects the same Type-2 equality used
// elsewhere.
func fullSliceHash(u *scanUnit, b *blocktree.Block) (uint64, []byte) {
	toks := u.views.tokens[b.TokenStart:b.TokenEnd]
	buf := make([]byte, 8*len(toks))
	for i, t := range toks {
		binary.BigEndian.PutUint64(buf[i*8:], tokenElementHash(t))
	}
	return fingerprintBytes(buf), buf
}

// detectBlockDuplicates groups blocks by hash of their
// full token slice, requiring slice length >= minTokenLen, re-verified by
// exact comparison of the encoded token-hash sequence.
func detectBlockDuplicates(units []scanUnit, perUnit [][]unitBlock, opts ScanOptions) []Group {
	buckets := make(map[uint64][]blockEntry)

	for _, ubs := range perUnit {
		for _, ub := range ubs {
			b := ub.block
			if b.TokenEnd-b.TokenStart < opts.MinTokenLen {
				continue
			}
			h, buf := fullSliceHash(&units[ub.unitIdx], b)
			buckets[h] = append(buckets[h], blockEntry{ub: ub, buf: buf})
		}
	}

	return assembleBlockGroups(units, buckets, opts)
}

// subtreeHashes computes, bottom-up with memoization, the subtree
// representation hash for every block in a unit: each immediate child's
// token range is replaced by a single synthetic CHILD(hash) marker before
// hashing, so a block's subtree hash only changes if its own tokens or the
// shape/content of a descendant changes.
func subtreeHashes(u *scanUnit, ubs []unitBlock) map[*blocktree.Block]uint64 {
	memo := make(map[*blocktree.Block]uint64, len(ubs))

	// ubs is pre-order (parent before children) from blocktree.All; walk
	// in reverse so every child is memoized before its parent needs it.
	for i := len(ubs) - 1; i >= 0; i-- {
		b := ubs[i].block
		childAt := make(map[int]*blocktree.Block, len(b.Children))
		for _, c := range b.Children {
			childAt[c.TokenStart] = c
		}

		var buf []byte
		pos := b.TokenStart
		for pos < b.TokenEnd {
			if c, ok := childAt[pos]; ok {
				var marker [9]byte
				marker[0] = 0xFF // CHILD marker tag, distinct from any tokenElementHash byte pattern
				binary.BigEndian.PutUint64(marker[1:], memo[c])
				buf = append(buf, marker[:]...)
				pos = c.TokenEnd
				continue
			}
			var tb [8]byte
			binary.BigEndian.PutUint64(tb[:], tokenElementHash(u.views.tokens[pos]))
			buf = append(buf, tb[:]...)
			pos++
		}
		memo[b] = fingerprintBytes(buf)
	}
	return memo
}

// detectASTSubtreeDuplicates groups blocks by hash of the
// subtree representation, re-verified by exact comparison of the block's
// own full token-hash sequence (the subtree hash only decides bucketing;
// two blocks with matching subtree hashes but different own tokens do not
// belong to the same reported group).
func detectASTSubtreeDuplicates(units []scanUnit, perUnit [][]unitBlock, opts ScanOptions) []Group {
	buckets := make(map[uint64][]blockEntry)

	for i, ubs := range perUnit {
		memo := subtreeHashes(&units[i], ubs)
		for _, ub := range ubs {
			b := ub.block
			if b.TokenEnd-b.TokenStart < opts.MinTokenLen {
				continue
			}
			_, buf := fullSliceHash(&units[i], b)
			h := memo[b]
			buckets[h] = append(buckets[h], blockEntry{ub: ub, buf: buf})
		}
	}

	return assembleBlockGroups(units, buckets, opts)
}

// assembleBlockGroups re-verifies each bucket by exact byte-sequence
// comparison, applies crossRepoOnly, and sorts/truncates.
func assembleBlockGroups(units []scanUnit, buckets map[uint64][]blockEntry, opts ScanOptions) []Group {
	var groups []Group
	for _, entries := range buckets {
		if len(entries) < 2 {
			continue
		}
		verified := make(map[string][]unitBlock)
		for _, e := range entries {
			verified[string(e.buf)] = append(verified[string(e.buf)], e.ub)
		}
		for content, members := range verified {
			if len(members) < 2 {
				continue
			}
			if opts.CrossRepoOnly && !blocksSpanMultipleRoots(units, members) {
				continue
			}
			occs := make([]Occurrence, 0, len(members))
			for _, ub := range members {
				u := &units[ub.unitIdx]
				occs = append(occs, Occurrence{
					RootID:       u.rootID,
					RootLabel:    u.rootLabel,
					RelativePath: u.relative,
					StartLine:    ub.block.LineStart,
					EndLine:      ub.block.LineEnd,
				})
			}
			sortOccurrences(occs)
			groups = append(groups, Group{
				Fingerprint:   fingerprintBytes([]byte(content)),
				NormalizedLen: members[0].block.TokenEnd - members[0].block.TokenStart,
				Occurrences:   occs,
			})
		}
	}
	sortGroups(groups)
	return truncateGroups(groups, opts.MaxReportItems)
}

func blocksSpanMultipleRoots(units []scanUnit, members []unitBlock) bool {
	seen := make(map[int]bool)
	for _, m := range members {
		seen[units[m.unitIdx].rootID] = true
	}
	return len(seen) >= 2
}
