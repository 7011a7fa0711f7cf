package main

import (
	"context"

	"github.com/nocopy/dupcheck/pkg/dupscan"
)

func cmdFiles(ctx context.Context, args []string) int {
	roots, flags := splitRootsAndFlags(args)
	if len(roots) == 0 {
		fatal("files: at least one root path is required")
		return 2
	}

	opts, err := resolveOptions(flags)
	if err != nil {
		fatal("%v", err)
		return 2
	}

	groups, stats, err := dupscan.FindDuplicateFilesWithStats(ctx, roots, opts)
	return renderScanResult(flags, jsonResult{Groups: groups}, stats, err, func() {
		printGroupsText("Duplicate files", groups)
	})
}
