package ignore

import (
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-billy/v5/osfs"
)

// GitignoreMatcher wraps go-git's gitignore pattern matcher, giving the
// walker strategy nested (own + parent), and global (core.excludesFile)
// `.gitignore` semantics without shelling out to git.
type GitignoreMatcher struct {
	m gitignore.Matcher
}

// LoadGitignore collects every `.gitignore` pattern under root (recursively,
// so nested and parent-directory files within root are honored) plus the
// user's global excludes file, and returns a ready-to-use matcher. A root
// with no `.gitignore` files anywhere still returns a usable (empty, plus
// global) matcher, never an error.
func LoadGitignore(root string) (*GitignoreMatcher, error) {
	fs := osfs.New(root)

	patterns, err := gitignore.ReadPatterns(fs, nil)
	if err != nil {
		return nil, err
	}

	if global, err := gitignore.LoadGlobalPatterns(fs); err == nil {
		patterns = append(patterns, global...)
	}

	return &GitignoreMatcher{m: gitignore.NewMatcher(patterns)}, nil
}

// Match reports whether path (forward-slash separated, relative to the
// root LoadGitignore was built from) is excluded by any collected pattern.
func (g *GitignoreMatcher) Match(path string, isDir bool) bool {
	if g == nil || g.m == nil {
		return false
	}
	parts := splitPath(path)
	if len(parts) == 0 {
		return false
	}
	return g.m.Match(parts, isDir)
}

func splitPath(path string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			if i > start {
				parts = append(parts, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		parts = append(parts, path[start:])
	}
	return parts
}
