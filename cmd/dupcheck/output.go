package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"

	"github.com/nocopy/dupcheck/pkg/dupscan"
)

// statsColor picks red for any fatal-class counter, yellow for a benign
// but non-zero one, green for zero.
func statsColor(value int64, fatal bool) *color.Color {
	switch {
	case value == 0:
		return color.New(color.FgGreen)
	case fatal:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd())
}

// printStatsTable renders ScanStats as a colored table on stderr, the
// diagnostic channel, keeping it distinct from any --json result on
// stdout.
func printStatsTable(stats dupscan.ScanStats) {
	table := tablewriter.NewWriter(os.Stderr)
	table.Header([]string{"Counter", "Value", "Class"})

	useColor := colorEnabled()
	row := func(name string, value int64, fatal bool) {
		v := fmt.Sprintf("%d", value)
		class := "benign"
		if fatal {
			class = "fatal"
		}
		if useColor {
			v = statsColor(value, fatal).Sprint(v)
		}
		_ = table.Append([]string{name, v, class})
	}

	row("candidateFiles", stats.CandidateFiles, false)
	row("scannedFiles", stats.ScannedFiles, false)
	row("scannedBytes", stats.ScannedBytes, false)
	row("gitFastPathFallbacks", stats.GitFastPathFallbacks, false)
	row("skippedNotFound", stats.SkippedNotFound, false)
	row("skippedTooLarge", stats.SkippedTooLarge, false)
	row("skippedBinary", stats.SkippedBinary, false)
	row("skippedPermissionDenied", stats.SkippedPermissionDenied, true)
	row("skippedOutsideRoot", stats.SkippedOutsideRoot, true)
	row("skippedRelativizeFailed", stats.SkippedRelativizeFailed, true)
	row("skippedWalkErrors", stats.SkippedWalkErrors, true)
	row("skippedBudgetMaxFiles", stats.SkippedBudgetMaxFiles, true)
	row("skippedBudgetMaxTotalBytes", stats.SkippedBudgetMaxTotalBytes, true)
	row("skippedBudgetMaxNormalizedChars", stats.SkippedBudgetMaxNormalizedChars, true)
	row("skippedBudgetMaxTokens", stats.SkippedBudgetMaxTokens, true)
	row("skippedBucketTruncated", stats.SkippedBucketTruncated, true)

	fmt.Fprintln(os.Stderr)
	_ = table.Render()
	printIncompleteSummary(stats)
}

// printIncompleteSummary prints a one-line reason summary when strict
// mode would trigger: which fatal counters fired, plus actionable hints.
func printIncompleteSummary(stats dupscan.ScanStats) {
	if !stats.Incomplete() {
		return
	}
	bold := color.New(color.Bold, color.FgRed)
	if colorEnabled() {
		fmt.Fprintln(os.Stderr, bold.Sprint("scan incomplete:"), incompleteReasons(stats))
	} else {
		fmt.Fprintln(os.Stderr, "scan incomplete:", incompleteReasons(stats))
	}
}

func incompleteReasons(stats dupscan.ScanStats) string {
	reasons := ""
	add := func(name string, n int64, hint string) {
		if n == 0 {
			return
		}
		if reasons != "" {
			reasons += "; "
		}
		reasons += fmt.Sprintf("%s=%d (%s)", name, n, hint)
	}
	add("skippedPermissionDenied", stats.SkippedPermissionDenied, "fix file permissions")
	add("skippedOutsideRoot", stats.SkippedOutsideRoot, "check for symlinks escaping the root")
	add("skippedRelativizeFailed", stats.SkippedRelativizeFailed, "check root canonicalization")
	add("skippedWalkErrors", stats.SkippedWalkErrors, "inspect walker errors")
	add("skippedBucketTruncated", stats.SkippedBucketTruncated, "raise the winnowing bucket cap or add ignoreDirs")
	add("skippedBudgetMaxFiles", stats.SkippedBudgetMaxFiles, "raise --max-files")
	add("skippedBudgetMaxTotalBytes", stats.SkippedBudgetMaxTotalBytes, "raise --max-total-bytes")
	add("skippedBudgetMaxNormalizedChars", stats.SkippedBudgetMaxNormalizedChars, "raise --max-normalized-chars")
	add("skippedBudgetMaxTokens", stats.SkippedBudgetMaxTokens, "raise --max-tokens")
	return reasons
}

// jsonResult is the --json envelope shared by all three scan commands;
// whichever of Groups/Report is non-nil depends on which command produced
// it. Stats is merged in only when --stats is also set.
type jsonResult struct {
	Groups []dupscan.Group          `json:"groups,omitempty"`
	Report *dupscan.DuplicationReport `json:"report,omitempty"`
	Stats  *dupscan.ScanStats       `json:"scanStats,omitempty"`
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printGroupsText(title string, groups []dupscan.Group) {
	fmt.Printf("%s: %d group(s)\n", title, len(groups))
	for _, g := range groups {
		fmt.Printf("  fingerprint=%016x len=%d\n", g.Fingerprint, g.NormalizedLen)
		for _, o := range g.Occurrences {
			fmt.Printf("    %s:%d-%d (%s)\n", o.RelativePath, o.StartLine, o.EndLine, o.RootLabel)
		}
	}
}

func printPairsText(title string, pairs []dupscan.SimilarityPair) {
	fmt.Printf("%s: %d pair(s)\n", title, len(pairs))
	for _, p := range pairs {
		if p.Distance != nil {
			fmt.Printf("  score=%.3f distance=%d\n", p.Score, *p.Distance)
		} else {
			fmt.Printf("  score=%.3f\n", p.Score)
		}
		fmt.Printf("    %s:%d-%d (%s)\n", p.A.RelativePath, p.A.StartLine, p.A.EndLine, p.A.RootLabel)
		fmt.Printf("    %s:%d-%d (%s)\n", p.B.RelativePath, p.B.StartLine, p.B.EndLine, p.B.RootLabel)
	}
}
