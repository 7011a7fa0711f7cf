package main

import (
	"context"

	"github.com/nocopy/dupcheck/pkg/dupscan"
)

func cmdReport(ctx context.Context, args []string) int {
	roots, flags := splitRootsAndFlags(args)
	if len(roots) == 0 {
		fatal("report: at least one root path is required")
		return 2
	}

	opts, err := resolveOptions(flags)
	if err != nil {
		fatal("%v", err)
		return 2
	}

	report, stats, err := dupscan.GenerateReportWithStats(ctx, roots, opts)
	return renderScanResult(flags, jsonResult{Report: report}, stats, err, func() {
		printGroupsText("Duplicate files", report.FileDuplicates)
		printGroupsText("Character spans", report.CodeSpanDuplicates)
		printGroupsText("Line spans", report.LineSpanDuplicates)
		printGroupsText("Token spans", report.TokenSpanDuplicates)
		printGroupsText("Blocks", report.BlockDuplicates)
		printGroupsText("Block subtrees", report.ASTSubtreeDuplicates)
		printPairsText("Similar blocks (MinHash)", report.SimilarBlocksMinhash)
		printPairsText("Similar blocks (SimHash)", report.SimilarBlocksSimhash)
	})
}
