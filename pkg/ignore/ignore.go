// Package ignore provides gitignore-compatible path matching for the
// walker enumeration strategy: a default segment-name ignore set plus
// optional `.gitignore`-style override patterns, with `**`-aware glob
// matching via doublestar instead of hand-rolled segment comparison.
//
// Pattern syntax mirrors .gitignore:
//
//	# comment
//	*.pb.go          — match files by extension
//	vendor/          — match directories by name (trailing slash)
//	**/test/         — match at any depth
//	!important.go    — negate a previous pattern
//	/rootonly        — anchored to project root (leading slash)
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnoreDirs is the built-in segment-name ignore set named by the
// path enumerator contract: matched against any path segment, regardless
// of depth.
var DefaultIgnoreDirs = []string{
	".git", "node_modules", "target", "dist", "build", "out", ".next", ".turbo", ".cache",
}

// Matcher tests whether a relative path should be ignored, combining
// segment-name defaults, caller-supplied ignoreDirs, and gitignore-style
// override patterns (negation, anchoring, dir-only, `**`).
type Matcher struct {
	segments        map[string]bool
	caseInsensitive bool
	rules           []rule
}

type rule struct {
	pattern  string
	negation bool
	dirOnly  bool
	anchored bool
}

// New builds a Matcher from an explicit ignoreDirs list (path-segment
// names, matched exactly) plus zero or more override pattern sources
// (gitignore-syntax lines, e.g. the contents of a `.dupcheckignore` file).
// On Windows, segment comparison is ASCII-case-insensitive, per the path
// enumerator contract.
func New(ignoreDirs []string, patternLines ...string) *Matcher {
	m := &Matcher{
		segments:        make(map[string]bool, len(ignoreDirs)),
		caseInsensitive: runtime.GOOS == "windows",
	}
	for _, d := range ignoreDirs {
		m.segments[m.normalizeSegment(d)] = true
	}
	for _, lines := range patternLines {
		m.loadLines(lines)
	}
	return m
}

// NewDefault builds a Matcher using DefaultIgnoreDirs only.
func NewDefault() *Matcher {
	return New(DefaultIgnoreDirs)
}

func (m *Matcher) normalizeSegment(s string) string {
	if m.caseInsensitive {
		return strings.ToLower(s)
	}
	return s
}

// LoadFile merges gitignore-syntax override patterns from an ignore file
// at path (e.g. `<root>/.dupcheckignore`). Missing files are not an error.
func (m *Matcher) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		m.loadLine(strings.TrimSpace(scanner.Text()))
	}
	return scanner.Err()
}

func (m *Matcher) loadLines(content string) {
	for _, line := range strings.Split(content, "\n") {
		m.loadLine(strings.TrimSpace(line))
	}
}

func (m *Matcher) loadLine(line string) {
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	m.rules = append(m.rules, parsePattern(line))
}

// ShouldIgnoreSegment reports whether a single path segment (a directory
// or file name, not a full path) is in the default/explicit ignoreDirs
// set.
func (m *Matcher) ShouldIgnoreSegment(segment string) bool {
	return m.segments[m.normalizeSegment(segment)]
}

// ShouldIgnore reports whether path (forward-slash separated, relative to
// the scan root) should be ignored. isDir must be true for directories.
func (m *Matcher) ShouldIgnore(path string, isDir bool) bool {
	path = filepath.ToSlash(path)
	path = strings.TrimSuffix(path, "/")
	if path == "" || path == "." {
		return false
	}

	for _, seg := range strings.Split(path, "/") {
		if m.ShouldIgnoreSegment(seg) {
			return true
		}
	}

	ignored, matched := false, false
	for _, r := range m.rules {
		if r.dirOnly && !isDir {
			continue
		}
		if r.match(path) {
			ignored = !r.negation
			matched = true
		}
	}
	if ignored {
		return true
	}
	if matched {
		return false
	}

	if !isDir {
		parts := strings.Split(path, "/")
		for i := 1; i < len(parts); i++ {
			if m.ShouldIgnore(strings.Join(parts[:i], "/"), true) {
				return true
			}
		}
	}
	return false
}

func parsePattern(pattern string) rule {
	r := rule{}
	if strings.HasPrefix(pattern, "!") {
		r.negation = true
		pattern = pattern[1:]
	}
	if strings.HasSuffix(pattern, "/") {
		r.dirOnly = true
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if strings.HasPrefix(pattern, "/") {
		r.anchored = true
		pattern = strings.TrimPrefix(pattern, "/")
	}
	if !r.anchored && strings.Contains(pattern, "/") {
		r.anchored = true
	}
	r.pattern = pattern
	return r
}

func (r *rule) match(path string) bool {
	if r.anchored {
		ok, _ := doublestar.Match(r.pattern, path)
		if ok {
			return true
		}
		// An anchored dir-only pattern also covers files nested beneath it.
		return strings.HasPrefix(path, r.pattern+"/")
	}

	base := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		base = path[i+1:]
	}
	if ok, _ := doublestar.Match(r.pattern, base); ok {
		return true
	}
	ok, _ := doublestar.Match("**/"+r.pattern, path)
	if ok {
		return true
	}
	ok, _ = doublestar.Match(r.pattern, path)
	return ok
}
