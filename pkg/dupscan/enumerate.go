package dupscan

import (
	"bufio"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/nocopy/dupcheck/pkg/ignore"
)

// candidateFile is one path the enumerator has produced: not yet read.
type candidateFile struct {
	rootID   int
	absolute string
	relative string // forward-slash, relative to the root
}

const (
	envAllowCustomGit = "DUP_CODE_CHECK_ALLOW_CUSTOM_GIT"
	envGitBin         = "DUP_CODE_CHECK_GIT_BIN"
)

// resolveRoots canonicalizes every input root path, assigning stable
// 0-based ids in input order. Any root that does not exist, is not a
// directory, or cannot be canonicalized fails the whole call with
// InvalidInput before any enumeration starts.
func resolveRoots(paths []string) ([]Root, error) {
	roots := make([]Root, 0, len(paths))
	for i, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, invalidInput("root %q: %v", p, err)
		}
		if !info.IsDir() {
			return nil, invalidInput("root %q is not a directory", p)
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, invalidInput("root %q: %v", p, err)
		}
		canon, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return nil, invalidInput("root %q: %v", p, err)
		}
		roots = append(roots, Root{ID: i, Path: canon, Label: rootLabel(canon, i)})
	}
	return roots, nil
}

func rootLabel(canon string, id int) string {
	base := filepath.Base(canon)
	if base == "" || base == string(filepath.Separator) || base == "." {
		return indexLabel(id)
	}
	return base
}

func indexLabel(id int) string {
	return "root" + itoa(id)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	pos := len(buf)
	for i > 0 {
		pos--
		buf[pos] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}

// enumerate produces the deterministic-within-strategy candidate sequence
// for one root, trying the external-enumerator fast path first when
// eligible and falling back to the walker on any disqualifying condition.
func enumerate(ctx context.Context, root Root, opts ScanOptions, acc *statsAccumulator, out chan<- candidateFile) error {
	if fastPathEligible(root, opts) {
		ok := runFastPath(ctx, root, opts, acc, out)
		if ok {
			return nil
		}
		acc.gitFastPathFallbacks++
	}
	return walk(ctx, root, opts, acc, out)
}

func fastPathEligible(root Root, opts ScanOptions) bool {
	if !opts.RespectGitignore || opts.FollowSymlinks {
		return false
	}
	if os.Getenv(envAllowCustomGit) != "1" {
		return false
	}
	bin := os.Getenv(envGitBin)
	if bin == "" {
		return false
	}
	if !validEnumeratorBinary(bin) {
		return false
	}
	if _, err := os.Stat(filepath.Join(root.Path, ".git")); err != nil {
		return false
	}
	return true
}

// validEnumeratorBinary enforces the security envelope: the path must be
// absolute, a regular file, not a symlink, and (on POSIX) executable and
// not group- or world-writable.
func validEnumeratorBinary(bin string) bool {
	if !filepath.IsAbs(bin) {
		return false
	}
	info, err := os.Lstat(bin)
	if err != nil {
		return false
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return false
	}
	if !info.Mode().IsRegular() {
		return false
	}
	perm := info.Mode().Perm()
	if perm&0o022 != 0 {
		// group- or world-writable
		return false
	}
	if perm&0o111 == 0 {
		// not executable by anyone
		return false
	}
	return true
}

// runFastPath invokes the external enumerator and streams its stdout line
// by line. Any disqualifying condition (launch failure, non-zero exit,
// non-text/absolute/escaping path) aborts the attempt. Candidates are
// buffered and only sent to out after the enumerator has exited
// successfully, so a false return here means no candidates for this root
// were emitted — the walker restarts the root's enumeration from scratch.
func runFastPath(ctx context.Context, root Root, opts ScanOptions, acc *statsAccumulator, out chan<- candidateFile) bool {
	bin := os.Getenv(envGitBin)
	cmd := exec.CommandContext(ctx, bin, "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root.Path

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return false
	}
	if err := cmd.Start(); err != nil {
		return false
	}

	var buffered []candidateFile
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	ok := true
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !isValidText(line) || filepath.IsAbs(line) || containsDotDot(line) {
			ok = false
			break
		}
		rel := filepath.ToSlash(line)
		abs := filepath.Join(root.Path, rel)
		if !strings.HasPrefix(abs, root.Path+string(filepath.Separator)) && abs != root.Path {
			ok = false
			break
		}
		buffered = append(buffered, candidateFile{rootID: root.ID, absolute: abs, relative: rel})
	}
	if scanErr := scanner.Err(); scanErr != nil {
		ok = false
	}

	_ = cmd.Wait()
	if cmd.ProcessState != nil && !cmd.ProcessState.Success() {
		ok = false
	}
	if !ok {
		return false
	}

	for _, c := range buffered {
		acc.candidateFiles++
		select {
		case <-ctx.Done():
			return true
		case out <- c:
		}
	}
	return true
}

func isValidText(s string) bool {
	for _, r := range s {
		if r == 0 {
			return false
		}
	}
	return true
}

func containsDotDot(relPath string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(relPath), "/") {
		if seg == ".." {
			return true
		}
	}
	return false
}

// walk is the native directory-iteration strategy: no shell-outs, honors
// ignoreDirs and (optionally) the .gitignore files at or below the root
// plus the global excludes file via pkg/ignore, and descends symlinked directories only when followSymlinks
// is true and the resolved target stays under the root's canonical prefix.
func walk(ctx context.Context, root Root, opts ScanOptions, acc *statsAccumulator, out chan<- candidateFile) error {
	ignoreDirs := opts.IgnoreDirs
	if ignoreDirs == nil {
		ignoreDirs = ignore.DefaultIgnoreDirs
	}
	matcher := ignore.New(ignoreDirs)

	var gi *ignore.GitignoreMatcher
	if opts.RespectGitignore {
		g, err := ignore.LoadGitignore(root.Path)
		if err == nil {
			gi = g
		}
	}

	return walkDir(ctx, root, root.Path, "", opts, matcher, gi, acc, out)
}

func walkDir(ctx context.Context, root Root, absDir, relDir string, opts ScanOptions, matcher *ignore.Matcher, gi *ignore.GitignoreMatcher, acc *statsAccumulator, out chan<- candidateFile) error {
	select {
	case <-ctx.Done():
		return cancelled()
	default:
	}

	entries, err := os.ReadDir(absDir)
	if err != nil {
		classifyWalkError(err, acc)
		return nil
	}

	for _, e := range entries {
		name := e.Name()
		rel := name
		if relDir != "" {
			rel = relDir + "/" + name
		}

		if matcher.ShouldIgnoreSegment(name) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			classifyWalkError(err, acc)
			continue
		}

		isDir := info.IsDir()
		isSymlink := info.Mode()&os.ModeSymlink != 0

		if gi != nil && gi.Match(rel, isDir) {
			continue
		}

		abs := filepath.Join(absDir, name)

		if isSymlink {
			if !opts.FollowSymlinks {
				continue
			}
			resolved, err := filepath.EvalSymlinks(abs)
			if err != nil {
				acc.skippedWalkErrors++
				continue
			}
			if !strings.HasPrefix(resolved, root.Path+string(filepath.Separator)) && resolved != root.Path {
				acc.skippedOutsideRoot++
				continue
			}
			resolvedInfo, err := os.Stat(resolved)
			if err != nil {
				classifyWalkError(err, acc)
				continue
			}
			isDir = resolvedInfo.IsDir()
			abs = resolved
			if !isDir {
				// Surface the file under its resolved location's
				// root-relative path; if that cannot be derived, fall
				// back to an opaque label (fatal under strict).
				if r, err := filepath.Rel(root.Path, resolved); err == nil && !containsDotDot(r) {
					rel = filepath.ToSlash(r)
				} else {
					acc.skippedRelativizeFailed++
					rel = "<external:" + itoa(root.ID) + ">/" + filepath.Base(resolved)
				}
			}
		}

		if isDir {
			if err := walkDir(ctx, root, abs, rel, opts, matcher, gi, acc, out); err != nil {
				return err
			}
			continue
		}

		acc.candidateFiles++
		select {
		case <-ctx.Done():
			return cancelled()
		case out <- candidateFile{rootID: root.ID, absolute: abs, relative: filepath.ToSlash(rel)}:
		}
	}
	return nil
}

func classifyWalkError(err error, acc *statsAccumulator) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		acc.skippedNotFound++
	case errors.Is(err, fs.ErrPermission):
		acc.skippedPermissionDenied++
	default:
		acc.skippedWalkErrors++
	}
}
