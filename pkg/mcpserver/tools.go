package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nocopy/dupcheck/pkg/dupscan"
)

// scanOptionsInput is the common subset of ScanOptions every scan tool
// exposes to the model.
type scanOptionsInput struct {
	Roots               []string `json:"roots" jsonschema:"Absolute or relative directory paths to scan. At least one required."`
	RespectGitignore    *bool    `json:"respect_gitignore,omitempty" jsonschema:"Honor .gitignore files at or below each root plus the global excludes file (default true)."`
	FollowSymlinks      bool     `json:"follow_symlinks,omitempty" jsonschema:"Descend into symlinked directories."`
	MaxFileSize         int64    `json:"max_file_size,omitempty" jsonschema:"Per-file byte cap; files larger are skipped (default 10 MiB)."`
	MinMatchLen         int      `json:"min_match_len,omitempty" jsonschema:"Minimum word-char length for char/line span matches (default 50)."`
	MinTokenLen         int      `json:"min_token_len,omitempty" jsonschema:"Minimum token count for token/block/subtree/similar matches (default 50)."`
	SimilarityThreshold float64  `json:"similarity_threshold,omitempty" jsonschema:"MinHash Jaccard-estimate cutoff in [0,1] (default 0.85)."`
	SimhashMaxDistance  int      `json:"simhash_max_distance,omitempty" jsonschema:"Maximum SimHash Hamming distance in [0,64] (default 3)."`
	MaxReportItems      *int     `json:"max_report_items,omitempty" jsonschema:"Cap on groups/pairs returned per section (default 200; 0 returns none)."`
	CrossRepoOnly       bool     `json:"cross_repo_only,omitempty" jsonschema:"Only report duplicates spanning two or more of the given roots."`
}

func (in scanOptionsInput) toScanOptions() dupscan.ScanOptions {
	opts := dupscan.DefaultScanOptions()
	if in.RespectGitignore != nil {
		opts.RespectGitignore = *in.RespectGitignore
	}
	opts.FollowSymlinks = in.FollowSymlinks
	if in.MaxFileSize > 0 {
		opts.MaxFileSize = in.MaxFileSize
	}
	if in.MinMatchLen > 0 {
		opts.MinMatchLen = in.MinMatchLen
	}
	if in.MinTokenLen > 0 {
		opts.MinTokenLen = in.MinTokenLen
	}
	if in.SimilarityThreshold > 0 {
		opts.SimilarityThreshold = in.SimilarityThreshold
	}
	if in.SimhashMaxDistance > 0 {
		opts.SimhashMaxDistance = in.SimhashMaxDistance
	}
	if in.MaxReportItems != nil {
		opts.MaxReportItems = *in.MaxReportItems
	}
	opts.CrossRepoOnly = in.CrossRepoOnly
	return opts
}

// FindDuplicateFilesInput is scan_find_duplicate_files's input.
type FindDuplicateFilesInput struct {
	scanOptionsInput
}

// FindDuplicateCodeSpansInput is scan_find_duplicate_code_spans's input.
type FindDuplicateCodeSpansInput struct {
	scanOptionsInput
}

// GenerateReportInput is scan_generate_report's input.
type GenerateReportInput struct {
	scanOptionsInput
}

func (s *Server) registerScanTools() {
	mcpLog.Printf("scan tools: registered")

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "scan_find_duplicate_files",
		Description: `Find whole files that are byte-identical once whitespace is stripped,
across one or more directory roots.

Cheapest and narrowest of the three scan tools — use when you only care
about files copy-pasted wholesale (e.g. vendored copies, forked configs).
For partial/rearranged duplication use scan_find_duplicate_code_spans or
scan_generate_report instead.`,
	}, s.handleFindDuplicateFiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "scan_find_duplicate_code_spans",
		Description: `Find duplicated character spans, line spans, token spans, brace-nested
blocks, and block subtrees across one or more directory roots.

Use for "what code is duplicated" questions where the duplication may be a
function body, a copy-pasted block, or a reordered/partial match rather
than a whole file. Does not include near-duplicate (similar-but-not-exact)
blocks — use scan_generate_report for that.`,
	}, s.handleFindDuplicateCodeSpans)

	mcp.AddTool(s.server, &mcp.Tool{
		Name: "scan_generate_report",
		Description: `Run every duplicate and near-duplicate detector (file, char/line/token
span, block, block-subtree, MinHash-similar, SimHash-similar) and return
the full report.

Most expensive and most complete of the three scan tools. Start here for
"audit this codebase for duplication" requests; use the narrower tools
when the question is already scoped to exact duplicates.`,
	}, s.handleGenerateReport)
}

func (s *Server) handleFindDuplicateFiles(ctx context.Context, _ *mcp.CallToolRequest, input FindDuplicateFilesInput) (*mcp.CallToolResult, any, error) {
	mcpLog.Printf("tool: scan_find_duplicate_files roots=%v", input.Roots)

	if len(input.Roots) == 0 {
		return errorResult("roots must not be empty"), nil, nil
	}

	groups, stats, err := dupscan.FindDuplicateFilesWithStats(ctx, input.Roots, input.toScanOptions())
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	var sb strings.Builder
	writeStatsLine(&sb, stats)
	writeGroupSection(&sb, "Duplicate files", groups)
	return textResult(sb.String()), nil, nil
}

func (s *Server) handleFindDuplicateCodeSpans(ctx context.Context, _ *mcp.CallToolRequest, input FindDuplicateCodeSpansInput) (*mcp.CallToolResult, any, error) {
	mcpLog.Printf("tool: scan_find_duplicate_code_spans roots=%v", input.Roots)

	if len(input.Roots) == 0 {
		return errorResult("roots must not be empty"), nil, nil
	}

	report, stats, err := dupscan.FindDuplicateCodeSpansWithStats(ctx, input.Roots, input.toScanOptions())
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	var sb strings.Builder
	writeStatsLine(&sb, stats)
	writeGroupSection(&sb, "Character spans", report.CodeSpanDuplicates)
	writeGroupSection(&sb, "Line spans", report.LineSpanDuplicates)
	writeGroupSection(&sb, "Token spans", report.TokenSpanDuplicates)
	writeGroupSection(&sb, "Blocks", report.BlockDuplicates)
	writeGroupSection(&sb, "Block subtrees", report.ASTSubtreeDuplicates)
	return textResult(sb.String()), nil, nil
}

func (s *Server) handleGenerateReport(ctx context.Context, _ *mcp.CallToolRequest, input GenerateReportInput) (*mcp.CallToolResult, any, error) {
	mcpLog.Printf("tool: scan_generate_report roots=%v", input.Roots)

	if len(input.Roots) == 0 {
		return errorResult("roots must not be empty"), nil, nil
	}

	report, stats, err := dupscan.GenerateReportWithStats(ctx, input.Roots, input.toScanOptions())
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	var sb strings.Builder
	writeStatsLine(&sb, stats)
	writeGroupSection(&sb, "Duplicate files", report.FileDuplicates)
	writeGroupSection(&sb, "Character spans", report.CodeSpanDuplicates)
	writeGroupSection(&sb, "Line spans", report.LineSpanDuplicates)
	writeGroupSection(&sb, "Token spans", report.TokenSpanDuplicates)
	writeGroupSection(&sb, "Blocks", report.BlockDuplicates)
	writeGroupSection(&sb, "Block subtrees", report.ASTSubtreeDuplicates)
	writePairSection(&sb, "Similar blocks (MinHash)", report.SimilarBlocksMinhash)
	writePairSection(&sb, "Similar blocks (SimHash)", report.SimilarBlocksSimhash)
	return textResult(sb.String()), nil, nil
}

func writeStatsLine(sb *strings.Builder, stats dupscan.ScanStats) {
	fmt.Fprintf(sb, "Scanned %d files (%d bytes), %d candidates seen. Incomplete: %v\n\n",
		stats.ScannedFiles, stats.ScannedBytes, stats.CandidateFiles, stats.Incomplete())
}

func writeGroupSection(sb *strings.Builder, title string, groups []dupscan.Group) {
	fmt.Fprintf(sb, "%s: %d group(s)\n", title, len(groups))
	for _, g := range groups {
		fmt.Fprintf(sb, "  fingerprint=%016x len=%d\n", g.Fingerprint, g.NormalizedLen)
		for _, o := range g.Occurrences {
			fmt.Fprintf(sb, "    %s:%d-%d (%s)\n", o.RelativePath, o.StartLine, o.EndLine, o.RootLabel)
		}
	}
	sb.WriteString("\n")
}

func writePairSection(sb *strings.Builder, title string, pairs []dupscan.SimilarityPair) {
	fmt.Fprintf(sb, "%s: %d pair(s)\n", title, len(pairs))
	for _, p := range pairs {
		if p.Distance != nil {
			fmt.Fprintf(sb, "  score=%.3f distance=%d\n", p.Score, *p.Distance)
		} else {
			fmt.Fprintf(sb, "  score=%.3f\n", p.Score)
		}
		fmt.Fprintf(sb, "    %s:%d-%d (%s)\n", p.A.RelativePath, p.A.StartLine, p.A.EndLine, p.A.RootLabel)
		fmt.Fprintf(sb, "    %s:%d-%d (%s)\n", p.B.RelativePath, p.B.StartLine, p.B.EndLine, p.B.RootLabel)
	}
	sb.WriteString("\n")
}
