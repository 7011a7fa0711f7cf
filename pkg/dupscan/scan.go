package dupscan

import "context"

// FindDuplicateFiles runs the whole-file duplicate detector only: the
// cheapest, narrowest entry point, used when callers only care about
// byte-identical (ignoring whitespace) files.
func FindDuplicateFiles(ctx context.Context, roots []string, opts ScanOptions) ([]Group, error) {
	groups, _, err := FindDuplicateFilesWithStats(ctx, roots, opts)
	return groups, err
}

// FindDuplicateFilesWithStats is FindDuplicateFiles plus the scan's
// ScanStats, for callers that gate on completeness.
func FindDuplicateFilesWithStats(ctx context.Context, roots []string, opts ScanOptions) ([]Group, ScanStats, error) {
	sess, opts, err := prepareSession(ctx, roots, opts, viewNeeds{whitespace: true})
	if err != nil {
		return nil, ScanStats{}, err
	}
	groups := detectFileDuplicates(sess.units, opts)
	return groups, sess.stats, nil
}

// FindDuplicateCodeSpans runs char-span, line-span, token-span, block,
// and subtree duplicate detection, returned as one combined,
// per-category set of groups.
func FindDuplicateCodeSpans(ctx context.Context, roots []string, opts ScanOptions) (*DuplicationReport, error) {
	report, _, err := FindDuplicateCodeSpansWithStats(ctx, roots, opts)
	return report, err
}

// FindDuplicateCodeSpansWithStats is FindDuplicateCodeSpans plus ScanStats.
func FindDuplicateCodeSpansWithStats(ctx context.Context, roots []string, opts ScanOptions) (*DuplicationReport, ScanStats, error) {
	sess, opts, err := prepareSession(ctx, roots, opts, viewNeeds{wordChars: true, lineTokens: true, tokens: true})
	if err != nil {
		return nil, ScanStats{}, err
	}

	charGroups, charTrunc := detectCharSpanDuplicates(sess.units, opts)
	lineGroups, lineTrunc := detectLineSpanDuplicates(sess.units, opts)
	tokenGroups, tokenTrunc := detectTokenSpanDuplicates(sess.units, opts)

	perUnit := buildBlocks(sess.units)
	blockGroups := detectBlockDuplicates(sess.units, perUnit, opts)
	subtreeGroups := detectASTSubtreeDuplicates(sess.units, perUnit, opts)

	stats := sess.stats
	stats.SkippedBucketTruncated += int64(charTrunc + lineTrunc + tokenTrunc)

	return &DuplicationReport{
		CodeSpanDuplicates:   charGroups,
		LineSpanDuplicates:   lineGroups,
		TokenSpanDuplicates:  tokenGroups,
		BlockDuplicates:      blockGroups,
		ASTSubtreeDuplicates: subtreeGroups,
	}, stats, nil
}

// GenerateReport runs every detector and assembles the full eight-
// section DuplicationReport, with report-mode budget derivation applied.
func GenerateReport(ctx context.Context, roots []string, opts ScanOptions) (*DuplicationReport, error) {
	report, _, err := GenerateReportWithStats(ctx, roots, opts)
	return report, err
}

// GenerateReportWithStats is GenerateReport plus ScanStats.
func GenerateReportWithStats(ctx context.Context, roots []string, opts ScanOptions) (*DuplicationReport, ScanStats, error) {
	opts.reportMode = true
	sess, opts, err := prepareSession(ctx, roots, opts, viewNeeds{whitespace: true, wordChars: true, lineTokens: true, tokens: true})
	if err != nil {
		return nil, ScanStats{}, err
	}

	fileGroups := detectFileDuplicates(sess.units, opts)
	charGroups, charTrunc := detectCharSpanDuplicates(sess.units, opts)
	lineGroups, lineTrunc := detectLineSpanDuplicates(sess.units, opts)
	tokenGroups, tokenTrunc := detectTokenSpanDuplicates(sess.units, opts)

	perUnit := buildBlocks(sess.units)
	blockGroups := detectBlockDuplicates(sess.units, perUnit, opts)
	subtreeGroups := detectASTSubtreeDuplicates(sess.units, perUnit, opts)

	similar := collectSimilarBlocks(sess.units, perUnit, opts)
	minhashPairs := detectSimilarBlocksMinhash(sess.units, similar, opts)
	simhashPairs := detectSimilarBlocksSimhash(sess.units, similar, opts)

	stats := sess.stats
	stats.SkippedBucketTruncated += int64(charTrunc + lineTrunc + tokenTrunc)

	return &DuplicationReport{
		FileDuplicates:       fileGroups,
		CodeSpanDuplicates:   charGroups,
		LineSpanDuplicates:   lineGroups,
		TokenSpanDuplicates:  tokenGroups,
		BlockDuplicates:      blockGroups,
		ASTSubtreeDuplicates: subtreeGroups,
		SimilarBlocksMinhash: minhashPairs,
		SimilarBlocksSimhash: simhashPairs,
	}, stats, nil
}

// prepareSession resolves roots, validates and defaults options (defaults
// are applied before validation, since several minima are only satisfied
// once their zero value has been replaced), and runs the session. The
// defaulted options are returned so the detectors see the same effective
// values the session ran under.
func prepareSession(ctx context.Context, roots []string, opts ScanOptions, needs viewNeeds) (*session, ScanOptions, error) {
	opts = opts.withDefaults()
	if err := validate(roots, opts); err != nil {
		return nil, opts, err
	}
	resolved, err := resolveRoots(roots)
	if err != nil {
		return nil, opts, err
	}

	sess, err := runSession(ctx, resolved, opts, needs)
	if err != nil {
		return nil, opts, err
	}
	if ctx.Err() != nil {
		return nil, opts, cancelled()
	}
	return sess, opts, nil
}
