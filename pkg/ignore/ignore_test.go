package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIgnoreDirsAtAnyDepth(t *testing.T) {
	m := NewDefault()
	if !m.ShouldIgnore(".git", true) {
		t.Error("expected .git to be ignored")
	}
	if !m.ShouldIgnore("packages/foo/node_modules", true) {
		t.Error("expected node_modules to be ignored at any depth")
	}
	if m.ShouldIgnore("main.go", false) {
		t.Error("expected main.go to not be ignored")
	}
}

func TestDirOnlyPattern(t *testing.T) {
	m := New(nil, "build/")
	if m.ShouldIgnore("build", false) {
		t.Error("dir-only pattern 'build/' should not match file named 'build'")
	}
	if !m.ShouldIgnore("build", true) {
		t.Error("dir-only pattern 'build/' should match directory named 'build'")
	}
}

func TestNegation(t *testing.T) {
	m := New(nil, "*.pb.go\n!important.pb.go")
	if !m.ShouldIgnore("foo.pb.go", false) {
		t.Error("expected foo.pb.go to be ignored")
	}
	if m.ShouldIgnore("important.pb.go", false) {
		t.Error("expected important.pb.go to be un-ignored by negation")
	}
}

func TestAnchoredPattern(t *testing.T) {
	m := New(nil, "/rootfile.txt")
	if !m.ShouldIgnore("rootfile.txt", false) {
		t.Error("expected anchored pattern to match root file")
	}
	if m.ShouldIgnore("sub/rootfile.txt", false) {
		t.Error("expected anchored pattern to NOT match nested file")
	}
}

func TestUnanchoredPattern(t *testing.T) {
	m := New(nil, "*.log")
	if !m.ShouldIgnore("error.log", false) {
		t.Error("expected *.log to match root-level file")
	}
	if !m.ShouldIgnore("logs/error.log", false) {
		t.Error("expected *.log to match nested file")
	}
}

func TestDoubleStarPrefix(t *testing.T) {
	m := New(nil, "**/test/")
	if !m.ShouldIgnore("test", true) {
		t.Error("expected **/test/ to match top-level test dir")
	}
	if !m.ShouldIgnore("a/b/test", true) {
		t.Error("expected **/test/ to match deeply nested test dir")
	}
}

func TestUnanchoredDirChildPaths(t *testing.T) {
	m := NewDefault()
	if !m.ShouldIgnore("node_modules/express/index.js", false) {
		t.Error("expected unanchored dir pattern to match file inside node_modules")
	}
	if !m.ShouldIgnore("packages/app/node_modules/lodash/lodash.js", false) {
		t.Error("expected unanchored dir pattern to match file inside nested node_modules")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	content := "*.generated.ts\ntestdata/\n!testdata/important.txt\n/config.local.yaml\n"
	if err := os.WriteFile(filepath.Join(dir, ".dupcheckignore"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewDefault()
	if err := m.LoadFile(filepath.Join(dir, ".dupcheckignore")); err != nil {
		t.Fatal(err)
	}

	if !m.ShouldIgnore("foo.generated.ts", false) {
		t.Error("expected *.generated.ts to be ignored")
	}
	if !m.ShouldIgnore("testdata", true) {
		t.Error("expected testdata/ to be ignored")
	}
	if m.ShouldIgnore("testdata/important.txt", false) {
		t.Error("expected testdata/important.txt to be un-ignored")
	}
	if !m.ShouldIgnore("config.local.yaml", false) {
		t.Error("expected /config.local.yaml to match root file")
	}
	if m.ShouldIgnore("sub/config.local.yaml", false) {
		t.Error("expected /config.local.yaml to NOT match nested file")
	}
}

func TestMissingFileIsNotAnError(t *testing.T) {
	m := NewDefault()
	if err := m.LoadFile(filepath.Join(t.TempDir(), ".dupcheckignore")); err != nil {
		t.Fatalf("missing ignore file should not error: %v", err)
	}
}

func TestLoadGitignoreOnRootWithNoFiles(t *testing.T) {
	dir := t.TempDir()
	g, err := LoadGitignore(dir)
	if err != nil {
		t.Fatalf("LoadGitignore on a root with no .gitignore files should not error: %v", err)
	}
	if g.Match("anything.go", false) {
		t.Error("expected no match with no .gitignore patterns present")
	}
}

func TestLoadGitignoreRespectsPattern(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("ignored.txt\n"), 0644); err != nil {
		t.Fatal(err)
	}
	g, err := LoadGitignore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !g.Match("ignored.txt", false) {
		t.Error("expected ignored.txt to be excluded per .gitignore")
	}
	if g.Match("kept.txt", false) {
		t.Error("expected kept.txt to not be excluded")
	}
}
