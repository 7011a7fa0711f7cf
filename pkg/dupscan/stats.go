package dupscan

import "sync/atomic"

// ScanStats is the non-negative-counter accounting record for a single
// scan. Every field is safe to read after the scan's entry point returns;
// during a scan, counters are updated through a single-writer discipline
// (see statsAccumulator.snapshot).
type ScanStats struct {
	CandidateFiles int64 `json:"candidateFiles"`
	ScannedFiles   int64 `json:"scannedFiles"`
	ScannedBytes   int64 `json:"scannedBytes"`

	GitFastPathFallbacks int64 `json:"gitFastPathFallbacks"`

	SkippedNotFound                 int64 `json:"skippedNotFound"`
	SkippedPermissionDenied         int64 `json:"skippedPermissionDenied"`
	SkippedTooLarge                 int64 `json:"skippedTooLarge"`
	SkippedBinary                   int64 `json:"skippedBinary"`
	SkippedOutsideRoot              int64 `json:"skippedOutsideRoot"`
	SkippedRelativizeFailed         int64 `json:"skippedRelativizeFailed"`
	SkippedWalkErrors               int64 `json:"skippedWalkErrors"`
	SkippedBudgetMaxFiles           int64 `json:"skippedBudgetMaxFiles"`
	SkippedBudgetMaxTotalBytes      int64 `json:"skippedBudgetMaxTotalBytes"`
	SkippedBudgetMaxNormalizedChars int64 `json:"skippedBudgetMaxNormalizedChars"`
	SkippedBudgetMaxTokens          int64 `json:"skippedBudgetMaxTokens"`
	SkippedBucketTruncated          int64 `json:"skippedBucketTruncated"`
}

// Incomplete reports whether any fatal-class counter fired during the
// scan: PermissionDenied, OutsideRoot, RelativizeFailed, walker errors,
// BucketTruncated, and every budget counter. NotFound, TooLarge, and
// Binary are benign and do not affect this.
func (s *ScanStats) Incomplete() bool {
	return s.SkippedPermissionDenied > 0 ||
		s.SkippedOutsideRoot > 0 ||
		s.SkippedRelativizeFailed > 0 ||
		s.SkippedWalkErrors > 0 ||
		s.SkippedBucketTruncated > 0 ||
		s.SkippedBudgetMaxFiles > 0 ||
		s.SkippedBudgetMaxTotalBytes > 0 ||
		s.SkippedBudgetMaxNormalizedChars > 0 ||
		s.SkippedBudgetMaxTokens > 0
}

// statsAccumulator is the in-flight, concurrency-safe counterpart of
// ScanStats: every field is updated with atomic adds so parallel
// tokenization/hashing workers (see session.go) can post events without a
// lock, while the final snapshot is taken once, after every worker has
// joined, to guarantee exact totals regardless of parallel scheduling.
type statsAccumulator struct {
	candidateFiles int64
	scannedFiles   int64
	scannedBytes   int64

	gitFastPathFallbacks int64

	skippedNotFound                 int64
	skippedPermissionDenied         int64
	skippedTooLarge                 int64
	skippedBinary                   int64
	skippedOutsideRoot              int64
	skippedRelativizeFailed         int64
	skippedWalkErrors               int64
	skippedBudgetMaxFiles           int64
	skippedBudgetMaxTotalBytes      int64
	skippedBudgetMaxNormalizedChars int64
	skippedBudgetMaxTokens          int64
	skippedBucketTruncated          int64
}

func (a *statsAccumulator) snapshot() ScanStats {
	return ScanStats{
		CandidateFiles:                  atomic.LoadInt64(&a.candidateFiles),
		ScannedFiles:                    atomic.LoadInt64(&a.scannedFiles),
		ScannedBytes:                    atomic.LoadInt64(&a.scannedBytes),
		GitFastPathFallbacks:            atomic.LoadInt64(&a.gitFastPathFallbacks),
		SkippedNotFound:                 atomic.LoadInt64(&a.skippedNotFound),
		SkippedPermissionDenied:         atomic.LoadInt64(&a.skippedPermissionDenied),
		SkippedTooLarge:                 atomic.LoadInt64(&a.skippedTooLarge),
		SkippedBinary:                   atomic.LoadInt64(&a.skippedBinary),
		SkippedOutsideRoot:              atomic.LoadInt64(&a.skippedOutsideRoot),
		SkippedRelativizeFailed:         atomic.LoadInt64(&a.skippedRelativizeFailed),
		SkippedWalkErrors:               atomic.LoadInt64(&a.skippedWalkErrors),
		SkippedBudgetMaxFiles:           atomic.LoadInt64(&a.skippedBudgetMaxFiles),
		SkippedBudgetMaxTotalBytes:      atomic.LoadInt64(&a.skippedBudgetMaxTotalBytes),
		SkippedBudgetMaxNormalizedChars: atomic.LoadInt64(&a.skippedBudgetMaxNormalizedChars),
		SkippedBudgetMaxTokens:          atomic.LoadInt64(&a.skippedBudgetMaxTokens),
		SkippedBucketTruncated:          atomic.LoadInt64(&a.skippedBucketTruncated),
	}
}
