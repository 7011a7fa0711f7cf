package dupscan

import "math"

// ScanOptions controls every tunable of a scan. The zero value is not
// directly usable; call (*ScanOptions).withDefaults (applied internally by
// every entry point) to fill in unset fields, or construct via
// DefaultScanOptions.
type ScanOptions struct {
	// IgnoreDirs lists path-segment names to skip, matched at any depth,
	// ASCII-case-insensitive on Windows. Nil selects the built-in
	// default set (see pkg/ignore.DefaultIgnoreDirs).
	IgnoreDirs []string
	// RespectGitignore applies the `.gitignore` files found at or below
	// the root (a nested file's rules apply beneath its directory) plus the
	// global excludes file, in the walker strategy. `.gitignore` files in
	// directories above the root are not read.
	RespectGitignore bool
	// FollowSymlinks descends symlinked directories, subject to root
	// containment.
	FollowSymlinks bool

	// MaxFileSize is the per-file byte cap; exceeding it is a benign skip.
	MaxFileSize int64
	// MaxFiles is the scanned-file count cap; hitting it stops the scan
	// early (fatal). Zero means unbounded.
	MaxFiles int
	// MaxTotalBytes is the cumulative scanned-bytes cap; exceeding it
	// skips the file (fatal). Zero means unbounded, except GenerateReport
	// defaults this to 256 MiB when unset.
	MaxTotalBytes int64
	// MaxNormalizedChars is the cumulative word-chars-stored cap; hitting
	// it stops the scan early (fatal). Zero means derive from
	// MaxTotalBytes in report mode, else unbounded.
	MaxNormalizedChars int64
	// MaxTokens is the cumulative tokens-stored cap; hitting it stops the
	// scan early (fatal). Zero means derive from MaxTotalBytes in report
	// mode, else unbounded.
	MaxTokens int64

	// MinMatchLen is the minimum word-char length for char/line spans.
	MinMatchLen int
	// MinTokenLen is the minimum token count for token/block/subtree/
	// similar detectors.
	MinTokenLen int
	// SimilarityThreshold is the MinHash Jaccard-estimate cutoff, in
	// [0,1].
	SimilarityThreshold float64
	// SimhashMaxDistance is the maximum Hamming distance SimHash pairs
	// may have, in [0,64].
	SimhashMaxDistance int
	// MaxReportItems caps each report section after ordering; 0 yields
	// an empty section.
	MaxReportItems int
	// CrossRepoOnly retains only cross-root groups/pairs; requires at
	// least 2 roots.
	CrossRepoOnly bool

	// reportMode is set internally by GenerateReport before defaults are
	// applied, so MaxTotalBytes/MaxNormalizedChars/MaxTokens get their
	// report-mode derivation. A zero-valued numeric field is always
	// treated as "unset" and replaced by its default; none of these
	// fields has a meaningful zero value a caller would want to keep.
	reportMode bool
}

const (
	defaultMaxFileSize          = 10 * 1024 * 1024        // 10 MiB
	reportDefaultMaxTotalBytes  = 256 * 1024 * 1024       // 256 MiB
	reportNormalizedCharsFactor = 2                       // twice maxTotalBytes
	reportTokensDivisor         = 10                      // one-tenth of maxTotalBytes
	defaultMinMatchLen          = 50
	defaultMinTokenLen          = 50
	defaultSimilarityThreshold  = 0.85
	defaultSimhashMaxDistance   = 3
	defaultMaxReportItems       = 200

	// bucketMaxPositions is the winnowing bucket guardrail cap.
	bucketMaxPositions = 2000
)

// DefaultScanOptions returns the documented defaults for every field.
func DefaultScanOptions() ScanOptions {
	return ScanOptions{
		RespectGitignore:    true,
		FollowSymlinks:      false,
		MaxFileSize:         defaultMaxFileSize,
		MinMatchLen:         defaultMinMatchLen,
		MinTokenLen:         defaultMinTokenLen,
		SimilarityThreshold: defaultSimilarityThreshold,
		SimhashMaxDistance:  defaultSimhashMaxDistance,
		MaxReportItems:      defaultMaxReportItems,
	}
}

// withDefaults fills unset (zero-valued) fields with their documented
// defaults and, in report mode, derives MaxTotalBytes/MaxNormalizedChars/
// MaxTokens proportionally when unset.
func (o ScanOptions) withDefaults() ScanOptions {
	if o.MaxFileSize == 0 {
		o.MaxFileSize = defaultMaxFileSize
	}
	if o.MinMatchLen == 0 {
		o.MinMatchLen = defaultMinMatchLen
	}
	if o.MinTokenLen == 0 {
		o.MinTokenLen = defaultMinTokenLen
	}
	if o.SimilarityThreshold == 0 {
		o.SimilarityThreshold = defaultSimilarityThreshold
	}
	if o.SimhashMaxDistance == 0 {
		o.SimhashMaxDistance = defaultSimhashMaxDistance
	}
	// MaxReportItems=0 is a meaningful, distinct value (an explicit zero
	// yields empty sections) rather than "unset"; only DefaultScanOptions sets the
	// documented default of 200; the zero-valued struct means 0 on
	// purpose.

	if o.reportMode {
		if o.MaxTotalBytes == 0 {
			o.MaxTotalBytes = reportDefaultMaxTotalBytes
		}
		if o.MaxNormalizedChars == 0 {
			o.MaxNormalizedChars = o.MaxTotalBytes * reportNormalizedCharsFactor
		}
		if o.MaxTokens == 0 {
			o.MaxTokens = o.MaxTotalBytes / reportTokensDivisor
		}
	}

	return o
}

// validate rejects illegal roots and options before any enumeration
// starts: NaN, out-of-range values, zero for the match-length minima, and
// empty roots.
func validate(roots []string, o ScanOptions) error {
	if len(roots) == 0 {
		return invalidInput("roots must not be empty")
	}
	if o.MaxFileSize <= 0 {
		return invalidInput("maxFileSize must be > 0, got %d", o.MaxFileSize)
	}
	if o.MaxFiles < 0 {
		return invalidInput("maxFiles must be >= 0, got %d", o.MaxFiles)
	}
	if o.MaxTotalBytes < 0 {
		return invalidInput("maxTotalBytes must be >= 0, got %d", o.MaxTotalBytes)
	}
	if o.MaxNormalizedChars < 0 {
		return invalidInput("maxNormalizedChars must be >= 0, got %d", o.MaxNormalizedChars)
	}
	if o.MaxTokens < 0 {
		return invalidInput("maxTokens must be >= 0, got %d", o.MaxTokens)
	}
	if o.MinMatchLen < 1 {
		return invalidInput("minMatchLen must be >= 1, got %d", o.MinMatchLen)
	}
	if o.MinTokenLen < 1 {
		return invalidInput("minTokenLen must be >= 1, got %d", o.MinTokenLen)
	}
	if math.IsNaN(o.SimilarityThreshold) || o.SimilarityThreshold < 0 || o.SimilarityThreshold > 1 {
		return invalidInput("similarityThreshold must be in [0,1], got %v", o.SimilarityThreshold)
	}
	if o.SimhashMaxDistance < 0 || o.SimhashMaxDistance > 64 {
		return invalidInput("simhashMaxDistance must be in [0,64], got %d", o.SimhashMaxDistance)
	}
	if o.MaxReportItems < 0 {
		return invalidInput("maxReportItems must be >= 0, got %d", o.MaxReportItems)
	}
	if o.CrossRepoOnly && len(roots) < 2 {
		return invalidInput("crossRepoOnly requires at least 2 roots, got %d", len(roots))
	}
	return nil
}
