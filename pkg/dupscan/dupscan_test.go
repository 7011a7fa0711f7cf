package dupscan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestFindDuplicateFilesWhitespaceInsensitive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "hello   world\nfoo\n")
	writeFile(t, dir, "b.txt", "hello world\n  foo  \n")
	writeFile(t, dir, "c.txt", "completely different content here\n")

	groups, err := FindDuplicateFiles(context.Background(), []string{dir}, DefaultScanOptions())
	if err != nil {
		t.Fatalf("FindDuplicateFiles: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d: %+v", len(groups), groups)
	}
	if len(groups[0].Occurrences) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(groups[0].Occurrences))
	}
}

func TestFindDuplicateFilesDeterministicOrdering(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "same content\n")
	writeFile(t, dir, "b.txt", "same content\n")
	writeFile(t, dir, "x.txt", "other content\n")
	writeFile(t, dir, "y.txt", "other content\n")

	g1, err := FindDuplicateFiles(context.Background(), []string{dir}, DefaultScanOptions())
	if err != nil {
		t.Fatalf("scan 1: %v", err)
	}
	g2, err := FindDuplicateFiles(context.Background(), []string{dir}, DefaultScanOptions())
	if err != nil {
		t.Fatalf("scan 2: %v", err)
	}
	if len(g1) != len(g2) {
		t.Fatalf("non-deterministic group count: %d vs %d", len(g1), len(g2))
	}
	for i := range g1 {
		if g1[i].Fingerprint != g2[i].Fingerprint {
			t.Fatalf("non-deterministic group order at %d", i)
		}
	}
}

func TestCrossRepoOnlyFiltersSingleRootGroups(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeFile(t, rootA, "dup.txt", "shared across roots\n")
	writeFile(t, rootB, "dup.txt", "shared across roots\n")
	writeFile(t, rootA, "only_here_1.txt", "local duplicate\n")
	writeFile(t, rootA, "only_here_2.txt", "local duplicate\n")

	opts := DefaultScanOptions()
	opts.CrossRepoOnly = true

	groups, err := FindDuplicateFiles(context.Background(), []string{rootA, rootB}, opts)
	if err != nil {
		t.Fatalf("FindDuplicateFiles: %v", err)
	}
	for _, g := range groups {
		if !occsSpanMultipleRoots(g.Occurrences) {
			t.Fatalf("crossRepoOnly leaked a single-root group: %+v", g)
		}
	}
	found := false
	for _, g := range groups {
		if occsSpanMultipleRoots(g.Occurrences) {
			found = true
		}
	}
	if !found {
		t.Fatal("expected at least one cross-root group to survive the filter")
	}
}

func TestCrossRepoOnlyRequiresTwoRoots(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "x\n")

	opts := DefaultScanOptions()
	opts.CrossRepoOnly = true

	_, err := FindDuplicateFiles(context.Background(), []string{dir}, opts)
	if err == nil {
		t.Fatal("expected an InvalidInput error for crossRepoOnly with one root")
	}
	var de *Error
	if !errors.As(err, &de) || de.Kind != InvalidInput {
		t.Fatalf("expected InvalidInput error, got %v", err)
	}
}

func TestTokenSpanDuplicateAcrossRenamedIdentifiers(t *testing.T) {
	dir := t.TempDir()
	body := strings.Repeat("x = x + 1;\n", 60)
	writeFile(t, dir, "orig.go", "func sum(a int) int {\n"+body+"return a\n}\n")
	writeFile(t, dir, "renamed.go", "func total(b int) int {\n"+strings.ReplaceAll(body, "x", "y")+"return b\n}\n")

	opts := DefaultScanOptions()
	opts.MinTokenLen = 30

	report, err := FindDuplicateCodeSpans(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("FindDuplicateCodeSpans: %v", err)
	}
	if len(report.TokenSpanDuplicates) == 0 {
		t.Fatal("expected a token-span duplicate to survive identifier renaming")
	}
}

func TestLineSpanDuplicateIgnoresIndentation(t *testing.T) {
	dir := t.TempDir()
	lines := strings.Repeat("value := compute(input, factor, offset)\n", 60)
	writeFile(t, dir, "flat.go", lines)
	indented := strings.ReplaceAll(lines, "value", "    value")
	writeFile(t, dir, "indented.go", indented)

	opts := DefaultScanOptions()
	opts.MinMatchLen = 30

	report, err := FindDuplicateCodeSpans(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("FindDuplicateCodeSpans: %v", err)
	}
	if len(report.LineSpanDuplicates) == 0 {
		t.Fatal("expected a line-span duplicate despite differing indentation")
	}
}

func TestBlockDuplicateBraceNested(t *testing.T) {
	dir := t.TempDir()
	block := "{\n" + strings.Repeat("  step(i);\n", 60) + "}\n"
	writeFile(t, dir, "one.go", "func f() "+block)
	writeFile(t, dir, "two.go", "func g() "+block)

	opts := DefaultScanOptions()
	opts.MinTokenLen = 20

	report, err := FindDuplicateCodeSpans(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("FindDuplicateCodeSpans: %v", err)
	}
	if len(report.BlockDuplicates) == 0 {
		t.Fatal("expected a block duplicate across the two brace-nested bodies")
	}
}

func TestGenerateReportAllSections(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "identical file body\n")
	writeFile(t, dir, "b.txt", "identical file body\n")

	report, stats, err := GenerateReportWithStats(context.Background(), []string{dir}, DefaultScanOptions())
	if err != nil {
		t.Fatalf("GenerateReportWithStats: %v", err)
	}
	if len(report.FileDuplicates) != 1 {
		t.Fatalf("expected 1 file-duplicate group, got %d", len(report.FileDuplicates))
	}
	if stats.Incomplete() {
		t.Fatalf("expected a complete scan, got incomplete stats: %+v", stats)
	}
	if stats.ScannedFiles != 2 {
		t.Fatalf("expected 2 scanned files, got %d", stats.ScannedFiles)
	}
}

func TestMaxReportItemsBoundsGroupCount(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 10; i++ {
		writeFile(t, dir, "dup"+string(rune('a'+i))+".txt", "exact duplicate body for bounding\n")
		writeFile(t, dir, "dup"+string(rune('a'+i))+"_2.txt", "another duplicate body for bounding\n")
	}

	opts := DefaultScanOptions()
	opts.MaxReportItems = 1

	groups, err := FindDuplicateFiles(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("FindDuplicateFiles: %v", err)
	}
	if len(groups) > 1 {
		t.Fatalf("expected at most 1 group with maxReportItems=1, got %d", len(groups))
	}
}

func TestBenignSkipTooLargeDoesNotMarkIncomplete(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.txt", strings.Repeat("a", 1024))

	opts := DefaultScanOptions()
	opts.MaxFileSize = 10

	_, stats, err := FindDuplicateFilesWithStats(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("FindDuplicateFilesWithStats: %v", err)
	}
	if stats.SkippedTooLarge == 0 {
		t.Fatal("expected SkippedTooLarge to be nonzero")
	}
	if stats.Incomplete() {
		t.Fatal("a too-large skip is benign and must not mark the scan incomplete")
	}
}

func TestFatalBudgetMarksIncomplete(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 5; i++ {
		writeFile(t, dir, "f"+string(rune('a'+i))+".txt", "content\n")
	}

	opts := DefaultScanOptions()
	opts.MaxFiles = 2

	_, stats, err := FindDuplicateFilesWithStats(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("FindDuplicateFilesWithStats: %v", err)
	}
	if stats.SkippedBudgetMaxFiles == 0 {
		t.Fatal("expected SkippedBudgetMaxFiles to be nonzero once maxFiles is exceeded")
	}
	if !stats.Incomplete() {
		t.Fatal("a budget cap is fatal and must mark the scan incomplete")
	}
}

func TestValidateRejectsEmptyRoots(t *testing.T) {
	_, err := FindDuplicateFiles(context.Background(), nil, DefaultScanOptions())
	if err == nil {
		t.Fatal("expected an error for empty roots")
	}
}

func TestValidateRejectsOutOfRangeSimilarityThreshold(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "x\n")

	opts := DefaultScanOptions()
	opts.SimilarityThreshold = 1.5

	_, err := GenerateReport(context.Background(), []string{dir}, opts)
	if err == nil {
		t.Fatal("expected an InvalidInput error for similarityThreshold > 1")
	}
}

func TestContextCancellationSurfacesCancelledError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "x\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := FindDuplicateFiles(ctx, []string{dir}, DefaultScanOptions())
	if err == nil {
		t.Fatal("expected an error for an already-cancelled context")
	}
}

func TestWhitespaceInsensitiveFileDuplicatesAcrossRoots(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeFile(t, rootA, "a.txt", "a b\nc")
	writeFile(t, rootA, "b.txt", "ab\tc")
	writeFile(t, rootB, "c.txt", "ab c")
	writeFile(t, rootB, "d.txt", "different")

	opts := DefaultScanOptions()
	opts.CrossRepoOnly = true

	groups, err := FindDuplicateFiles(context.Background(), []string{rootA, rootB}, opts)
	if err != nil {
		t.Fatalf("FindDuplicateFiles: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected exactly 1 group, got %d: %+v", len(groups), groups)
	}
	g := groups[0]
	if len(g.Occurrences) != 3 {
		t.Fatalf("expected 3 occurrences, got %d: %+v", len(g.Occurrences), g.Occurrences)
	}
	if g.NormalizedLen != 3 {
		t.Fatalf("expected normalizedLen=3 for \"abc\", got %d", g.NormalizedLen)
	}
}

func TestCrossRootCodeSpan(t *testing.T) {
	span := "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" // 62 word-chars
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeFile(t, rootA, "spanA.txt", "////\nP"+span+"Q\n")
	writeFile(t, rootB, "spanB.txt", "####\nR"+span+"S\n")

	opts := DefaultScanOptions()
	opts.MinMatchLen = 50
	opts.CrossRepoOnly = true

	report, err := FindDuplicateCodeSpans(context.Background(), []string{rootA, rootB}, opts)
	if err != nil {
		t.Fatalf("FindDuplicateCodeSpans: %v", err)
	}
	if len(report.CodeSpanDuplicates) != 1 {
		t.Fatalf("expected exactly 1 char-span group, got %d: %+v",
			len(report.CodeSpanDuplicates), report.CodeSpanDuplicates)
	}
	g := report.CodeSpanDuplicates[0]
	if g.NormalizedLen != len(span) {
		t.Fatalf("expected normalizedLen=%d, got %d", len(span), g.NormalizedLen)
	}
	if len(g.Occurrences) != 2 {
		t.Fatalf("expected 2 occurrences, got %d", len(g.Occurrences))
	}
	for _, o := range g.Occurrences {
		if o.StartLine != 2 || o.EndLine != 2 {
			t.Fatalf("expected span on line 2-2, got %d-%d in %s", o.StartLine, o.EndLine, o.RelativePath)
		}
	}
	if g.Preview != span {
		t.Fatalf("expected preview to be the shared span, got %q", g.Preview)
	}
}

func TestMaxFilesCountsEveryRemainingCandidate(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeFile(t, rootA, "a1.txt", "one\n")
	writeFile(t, rootA, "a2.txt", "two\n")
	writeFile(t, rootB, "b1.txt", "three\n")
	writeFile(t, rootB, "b2.txt", "four\n")

	opts := DefaultScanOptions()
	opts.MaxFiles = 1

	_, stats, err := FindDuplicateFilesWithStats(context.Background(), []string{rootA, rootB}, opts)
	if err != nil {
		t.Fatalf("FindDuplicateFilesWithStats: %v", err)
	}
	if stats.ScannedFiles != 1 {
		t.Fatalf("expected scannedFiles=1, got %d", stats.ScannedFiles)
	}
	if stats.SkippedBudgetMaxFiles != 3 {
		t.Fatalf("expected skippedBudgetMaxFiles=3, got %d", stats.SkippedBudgetMaxFiles)
	}
	if !stats.Incomplete() {
		t.Fatal("expected the scan to be marked incomplete")
	}
}

func TestGitignoreRespectedByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "ignored.txt\n")
	writeFile(t, dir, "a.txt", "identical content\n")
	writeFile(t, dir, "ignored.txt", "identical content\n")

	groups, err := FindDuplicateFiles(context.Background(), []string{dir}, DefaultScanOptions())
	if err != nil {
		t.Fatalf("FindDuplicateFiles: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected zero groups with .gitignore honored, got %d: %+v", len(groups), groups)
	}

	opts := DefaultScanOptions()
	opts.RespectGitignore = false
	groups, err = FindDuplicateFiles(context.Background(), []string{dir}, opts)
	if err != nil {
		t.Fatalf("FindDuplicateFiles (no gitignore): %v", err)
	}
	if len(groups) != 1 || len(groups[0].Occurrences) != 2 {
		t.Fatalf("expected one group with both files once .gitignore is disabled, got %+v", groups)
	}
}

func TestNonexistentRootRejectedBeforeEnumeration(t *testing.T) {
	_, err := FindDuplicateFiles(context.Background(),
		[]string{filepath.Join(t.TempDir(), "does-not-exist")}, DefaultScanOptions())
	if err == nil {
		t.Fatal("expected an error for a nonexistent root")
	}
	var de *Error
	if !errors.As(err, &de) || de.Kind != InvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestBinaryFileCountsAgainstBudget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bin.dat", "a\x00b")

	_, stats, err := FindDuplicateFilesWithStats(context.Background(), []string{dir}, DefaultScanOptions())
	if err != nil {
		t.Fatalf("FindDuplicateFilesWithStats: %v", err)
	}
	if stats.SkippedBinary != 1 {
		t.Fatalf("expected skippedBinary=1, got %d", stats.SkippedBinary)
	}
	if stats.ScannedBytes != 1 {
		t.Fatalf("expected the bytes before the NUL (1) to count, got %d", stats.ScannedBytes)
	}
	if stats.ScannedFiles != 1 {
		t.Fatalf("expected the binary file to count as one scanned unit, got %d", stats.ScannedFiles)
	}
	if stats.Incomplete() {
		t.Fatal("a binary skip is benign and must not mark the scan incomplete")
	}
}
