package dupscan

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// scanUnit is one fully gatekept and normalized scanned file, ready for
// the detectors. The raw bytes are kept alongside the derived views for
// every unit (the file detector reads them for its line count) until
// report assembly; they are not dropped after normalization.
type scanUnit struct {
	rootID    int
	rootLabel string
	relative  string
	raw       []byte
	views     *normalizedViews
}

// viewNeeds tells buildNormalizedViews (and the budget accounting below)
// which projections the requested detectors actually need, so a
// files-only scan never pays for tokenization.
type viewNeeds struct {
	whitespace bool
	wordChars  bool
	lineTokens bool
	tokens     bool
}

// session is the result of running enumeration, gatekeeping, and
// normalization across every root, in the deterministic order downstream
// detectors require.
type session struct {
	roots []Root
	units []scanUnit
	stats ScanStats
}

const maxParallelWorkers = 16

func boundedWorkers() int {
	n := runtime.GOMAXPROCS(0)
	if n > maxParallelWorkers {
		n = maxParallelWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// runSession runs enumeration, gatekeeping, and normalization across
// every root. Enumeration and gatekeeping run sequentially, keeping a
// single-writer discipline over ScanStats and the maxFiles/maxTotalBytes
// running totals; normalization is parallelized across
// already-gatekept, immutable byte buffers (a pure transform), then
// re-sorted into canonical order before any detector sees it.
func runSession(ctx context.Context, roots []Root, opts ScanOptions, needs viewNeeds) (*session, error) {
	acc := &statsAccumulator{}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var rawUnits []scanUnit
	stop := false

	for _, root := range roots {
		if stop {
			break
		}
		candidates := make(chan candidateFile, 64)
		enumErrCh := make(chan error, 1)

		go func(root Root) {
			enumErrCh <- enumerate(ctx, root, opts, acc, candidates)
			close(candidates)
		}(root)

		for c := range candidates {
			if ctx.Err() != nil {
				stop = true
				continue
			}
			if sf := gatekeep(c, opts, acc); sf != nil {
				rawUnits = append(rawUnits, scanUnit{
					rootID:    root.ID,
					rootLabel: root.Label,
					relative:  sf.relative,
					raw:       sf.bytes,
				})
			}
		}

		if err := <-enumErrCh; err != nil {
			if ce, ok := err.(*Error); ok && ce.Kind == Cancelled {
				stop = true
				continue
			}
			return nil, err
		}
	}

	if ctx.Err() != nil {
		return nil, cancelled()
	}

	sort.Slice(rawUnits, func(i, j int) bool {
		if rawUnits[i].rootID != rawUnits[j].rootID {
			return rawUnits[i].rootID < rawUnits[j].rootID
		}
		return rawUnits[i].relative < rawUnits[j].relative
	})

	units, err := normalizeAll(ctx, rawUnits, needs, opts, acc)
	if err != nil {
		return nil, err
	}

	return &session{roots: roots, units: units, stats: acc.snapshot()}, nil
}

// normalizeAll builds the requested normalized views for every unit in
// parallel (bounded), then sequentially enforces maxNormalizedChars/
// maxTokens in canonical order so the truncation point is deterministic
// regardless of worker scheduling.
func normalizeAll(ctx context.Context, raw []scanUnit, needs viewNeeds, opts ScanOptions, acc *statsAccumulator) ([]scanUnit, error) {
	views := make([]*normalizedViews, len(raw))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(boundedWorkers())
	for i := range raw {
		i := i
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			views[i] = buildNormalizedViews(raw[i].raw, needs.whitespace, needs.wordChars, needs.lineTokens, needs.tokens)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, scanFailure(err, "normalization failed")
	}

	var wordCharTotal, tokenTotal int64
	out := make([]scanUnit, 0, len(raw))
	for i := range raw {
		v := views[i]

		if needs.wordChars || needs.lineTokens {
			wordCharTotal += int64(len(v.wordChars))
			if opts.MaxNormalizedChars > 0 && wordCharTotal > opts.MaxNormalizedChars {
				acc.skippedBudgetMaxNormalizedChars++
				break
			}
		}
		if needs.tokens {
			tokenTotal += int64(len(v.tokens))
			if opts.MaxTokens > 0 && tokenTotal > opts.MaxTokens {
				acc.skippedBudgetMaxTokens++
				break
			}
		}

		out = append(out, scanUnit{
			rootID:    raw[i].rootID,
			rootLabel: raw[i].rootLabel,
			relative:  raw[i].relative,
			raw:       raw[i].raw,
			views:     v,
		})
	}
	return out, nil
}
