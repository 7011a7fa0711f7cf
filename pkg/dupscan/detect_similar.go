package dupscan

import (
	"encoding/binary"
	"sort"

	"github.com/nocopy/dupcheck/pkg/blocktree"
	"github.com/nocopy/dupcheck/pkg/simhash"
)

// similarBlock is one shallow block carrying the signatures both
// similarity detectors need.
type similarBlock struct {
	ub      unitBlock
	minhash []uint64
	simhash uint64
}

// shingleCombine folds an n-token window into one shingle hash; each
// element is already a tokenElementHash, so the combine step mirrors
// winnow's own k-gram combiner.
func shingleCombine(window []uint64) uint64 {
	buf := make([]byte, 8*len(window))
	for i, w := range window {
		binary.BigEndian.PutUint64(buf[i*8:], w)
	}
	return fingerprintBytes(buf)
}

// collectSimilarBlocks restricts candidates to shallow blocks
// (depth <= simhash.MaxShallowDepth) meeting MinTokenLen and having enough
// shingles to be comparable.
func collectSimilarBlocks(units []scanUnit, perUnit [][]unitBlock, opts ScanOptions) []similarBlock {
	var out []similarBlock
	for i, ubs := range perUnit {
		u := &units[i]
		for _, ub := range ubs {
			b := ub.block
			if b.Depth > simhash.MaxShallowDepth {
				continue
			}
			if b.TokenEnd-b.TokenStart < opts.MinTokenLen {
				continue
			}
			tokenHash := func(k int) uint64 { return tokenElementHash(u.views.tokens[k]) }
			shingles := blocktree.Shingles(b.TokenStart, b.TokenEnd, blocktree.DefaultShingleSize, tokenHash, shingleCombine)
			if shingles == nil {
				continue
			}
			out = append(out, similarBlock{
				ub:      ub,
				minhash: simhash.MinHashSignature(shingles, simhash.DefaultMinHashSize),
				simhash: simhash.SimHash64(shingles),
			})
		}
	}
	return out
}

func blockOccurrence(units []scanUnit, ub unitBlock) Occurrence {
	u := &units[ub.unitIdx]
	return Occurrence{
		RootID:       u.rootID,
		RootLabel:    u.rootLabel,
		RelativePath: u.relative,
		StartLine:    ub.block.LineStart,
		EndLine:      ub.block.LineEnd,
	}
}

// detectSimilarBlocksMinhash is the MinHash similarity detector: LSH-band the
// signatures to find cheap candidates, then re-score every candidate pair
// by exact Jaccard estimate and keep those at or above SimilarityThreshold.
func detectSimilarBlocksMinhash(units []scanUnit, blocks []similarBlock, opts ScanOptions) []SimilarityPair {
	byBand := make(map[uint64][]int)
	for i, sb := range blocks {
		for _, key := range simhash.BandKeys(sb.minhash, simhash.DefaultBands, simhash.DefaultRows) {
			byBand[key] = append(byBand[key], i)
		}
	}

	seen := make(map[[2]int]bool)
	var pairs []SimilarityPair
	for _, idxs := range byBand {
		for x := 0; x < len(idxs); x++ {
			for y := x + 1; y < len(idxs); y++ {
				i, j := idxs[x], idxs[y]
				if i == j {
					continue
				}
				key := [2]int{i, j}
				if i > j {
					key = [2]int{j, i}
				}
				if seen[key] {
					continue
				}
				seen[key] = true

				if blocks[i].ub.unitIdx == blocks[j].ub.unitIdx && blocks[i].ub.block == blocks[j].ub.block {
					continue
				}
				score := simhash.JaccardEstimate(blocks[i].minhash, blocks[j].minhash)
				if score < opts.SimilarityThreshold {
					continue
				}
				a := blockOccurrence(units, blocks[i].ub)
				b := blockOccurrence(units, blocks[j].ub)
				if opts.CrossRepoOnly && a.RootID == b.RootID {
					continue
				}
				pairs = append(pairs, orderPair(a, b, score, nil))
			}
		}
	}
	return truncatePairs(pairs, opts.MaxReportItems)
}

// detectSimilarBlocksSimhash is the SimHash similarity detector: LSH-band the
// 64-bit fingerprints, then re-score every candidate pair by exact Hamming
// distance and keep those at or below SimhashMaxDistance.
func detectSimilarBlocksSimhash(units []scanUnit, blocks []similarBlock, opts ScanOptions) []SimilarityPair {
	byBand := make(map[uint64][]int)
	for i, sb := range blocks {
		for _, key := range simhash.SimHashBandKeys(sb.simhash, simhash.DefaultSimHashBands) {
			byBand[key] = append(byBand[key], i)
		}
	}

	seen := make(map[[2]int]bool)
	var pairs []SimilarityPair
	for _, idxs := range byBand {
		for x := 0; x < len(idxs); x++ {
			for y := x + 1; y < len(idxs); y++ {
				i, j := idxs[x], idxs[y]
				if i == j {
					continue
				}
				key := [2]int{i, j}
				if i > j {
					key = [2]int{j, i}
				}
				if seen[key] {
					continue
				}
				seen[key] = true

				if blocks[i].ub.unitIdx == blocks[j].ub.unitIdx && blocks[i].ub.block == blocks[j].ub.block {
					continue
				}
				dist := simhash.HammingDistance64(blocks[i].simhash, blocks[j].simhash)
				if dist > opts.SimhashMaxDistance {
					continue
				}
				a := blockOccurrence(units, blocks[i].ub)
				b := blockOccurrence(units, blocks[j].ub)
				if opts.CrossRepoOnly && a.RootID == b.RootID {
					continue
				}
				d := uint8(dist)
				pairs = append(pairs, orderPair(a, b, simhash.SimHashScore(dist), &d))
			}
		}
	}
	return truncatePairs(pairs, opts.MaxReportItems)
}

// orderPair canonicalizes pair ordering by (rootID, relativePath,
// startLine) so output is deterministic regardless of LSH bucket iteration
// order.
func orderPair(a, b Occurrence, score float64, distance *uint8) SimilarityPair {
	if occLess(b, a) {
		a, b = b, a
	}
	return SimilarityPair{A: a, B: b, Score: score, Distance: distance}
}

func occLess(x, y Occurrence) bool {
	if x.RootID != y.RootID {
		return x.RootID < y.RootID
	}
	if x.RelativePath != y.RelativePath {
		return x.RelativePath < y.RelativePath
	}
	return x.StartLine < y.StartLine
}

func truncatePairs(pairs []SimilarityPair, max int) []SimilarityPair {
	sortPairs(pairs)
	if max <= 0 {
		return nil
	}
	if len(pairs) > max {
		return pairs[:max]
	}
	return pairs
}

// sortPairs orders by descending score, then by the canonical occurrence
// ordering of side A, for deterministic output.
func sortPairs(pairs []SimilarityPair) {
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Score != pairs[j].Score {
			return pairs[i].Score > pairs[j].Score
		}
		return occLess(pairs[i].A, pairs[j].A)
	})
}
