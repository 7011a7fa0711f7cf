package main

import (
	"context"

	"github.com/nocopy/dupcheck/pkg/dupscan"
)

func cmdSpans(ctx context.Context, args []string) int {
	roots, flags := splitRootsAndFlags(args)
	if len(roots) == 0 {
		fatal("spans: at least one root path is required")
		return 2
	}

	opts, err := resolveOptions(flags)
	if err != nil {
		fatal("%v", err)
		return 2
	}

	report, stats, err := dupscan.FindDuplicateCodeSpansWithStats(ctx, roots, opts)
	return renderScanResult(flags, jsonResult{Report: report}, stats, err, func() {
		printGroupsText("Character spans", report.CodeSpanDuplicates)
		printGroupsText("Line spans", report.LineSpanDuplicates)
		printGroupsText("Token spans", report.TokenSpanDuplicates)
		printGroupsText("Blocks", report.BlockDuplicates)
		printGroupsText("Block subtrees", report.ASTSubtreeDuplicates)
	})
}
