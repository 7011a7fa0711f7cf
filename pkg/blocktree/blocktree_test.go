package blocktree

import "testing"

type fakeTokens struct {
	opens  map[int]bool
	closes map[int]bool
	lines  []int
}

func (f *fakeTokens) Len() int             { return len(f.lines) }
func (f *fakeTokens) IsOpenBrace(i int) bool  { return f.opens[i] }
func (f *fakeTokens) IsCloseBrace(i int) bool { return f.closes[i] }
func (f *fakeTokens) Line(i int) int          { return f.lines[i] }

func newFake(braces string) *fakeTokens {
	f := &fakeTokens{opens: map[int]bool{}, closes: map[int]bool{}}
	line := 1
	for i, c := range braces {
		f.lines = append(f.lines, line)
		switch c {
		case '{':
			f.opens[i] = true
		case '}':
			f.closes[i] = true
		case '\n':
			line++
		}
		_ = i
	}
	return f
}

func TestBuildNestedBlocks(t *testing.T) {
	// a { b { c } d } e
	tok := newFake("x{x{x}x}x")
	roots := Build(tok)
	if len(roots) != 1 {
		t.Fatalf("expected 1 top-level block, got %d", len(roots))
	}
	top := roots[0]
	if top.Depth != 1 {
		t.Fatalf("expected top depth 1, got %d", top.Depth)
	}
	if len(top.Children) != 1 {
		t.Fatalf("expected 1 child block, got %d", len(top.Children))
	}
	child := top.Children[0]
	if child.Depth != 2 {
		t.Fatalf("expected child depth 2, got %d", child.Depth)
	}
	if len(child.Children) != 0 {
		t.Fatalf("expected no grandchildren, got %d", len(child.Children))
	}
}

func TestBuildUnmatchedCloseIgnored(t *testing.T) {
	tok := newFake("x}x{x}")
	roots := Build(tok)
	if len(roots) != 1 {
		t.Fatalf("expected 1 block from the matched pair, got %d", len(roots))
	}
}

func TestBuildUnmatchedOpenClosesAtEOF(t *testing.T) {
	tok := newFake("x{x{x")
	roots := Build(tok)
	if len(roots) != 1 {
		t.Fatalf("expected 1 top-level block, got %d", len(roots))
	}
	top := roots[0]
	if top.TokenEnd != 5 {
		t.Fatalf("expected implicit close at end-of-file (5), got %d", top.TokenEnd)
	}
	if len(top.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(top.Children))
	}
}

func TestAllFlattensTree(t *testing.T) {
	tok := newFake("x{x{x}x}x")
	roots := Build(tok)
	all := All(roots)
	if len(all) != 2 {
		t.Fatalf("expected 2 total blocks, got %d", len(all))
	}
}

func TestShinglesBelowThresholdDisqualifies(t *testing.T) {
	hashOf := func(i int) uint64 { return uint64(i) }
	combine := func(w []uint64) uint64 {
		var h uint64
		for _, v := range w {
			h = h*31 + v
		}
		return h
	}
	// end-start=6, n=5 -> only 2 shingles, below MinShingleCount=3.
	if s := Shingles(0, 6, 5, hashOf, combine); s != nil {
		t.Fatalf("expected nil for too few shingles, got %v", s)
	}
}

func TestShinglesAboveThreshold(t *testing.T) {
	hashOf := func(i int) uint64 { return uint64(i) }
	combine := func(w []uint64) uint64 {
		var h uint64
		for _, v := range w {
			h = h*31 + v
		}
		return h
	}
	s := Shingles(0, 10, 5, hashOf, combine)
	if len(s) != 6 {
		t.Fatalf("expected 6 shingles over 10 tokens with n=5, got %d", len(s))
	}
}
