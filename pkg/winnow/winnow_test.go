package winnow

import "testing"

func TestFingerprintDeterministic(t *testing.T) {
	hashes := make([]uint64, 40)
	for i := range hashes {
		hashes[i] = uint64(i%7) * 104729
	}
	doc := Doc{ID: 0, Hashes: hashes}

	a := Fingerprint(doc, 5, 4)
	b := Fingerprint(doc, 5, 4)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic fingerprint length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic selection at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestFingerprintShortDocYieldsNothing(t *testing.T) {
	doc := Doc{ID: 0, Hashes: []uint64{1, 2, 3}}
	if got := Fingerprint(doc, 5, 4); got != nil {
		t.Fatalf("expected nil for doc shorter than k, got %v", got)
	}
}

func TestBuildIndexFindsSharedContent(t *testing.T) {
	shared := []uint64{11, 22, 33, 44, 55, 66, 77, 88, 99, 10}
	docA := Doc{ID: 0, Hashes: append(append([]uint64{1, 2, 3}, shared...), 9, 9, 9)}
	docB := Doc{ID: 1, Hashes: append([]uint64{5, 5}, shared...)}

	idx := BuildIndex([]Doc{docA, docB}, Params{K: 5, W: 4})
	pairs := idx.CandidatePairs()

	foundCross := false
	for _, pr := range pairs {
		if pr[0].Doc != pr[1].Doc {
			foundCross = true
		}
	}
	if !foundCross {
		t.Fatal("expected at least one cross-document candidate pair over shared content")
	}
}

func TestBucketTruncation(t *testing.T) {
	// All k-grams identical -> a single bucket with many positions.
	hashes := make([]uint64, 50)
	for i := range hashes {
		hashes[i] = 7
	}
	docs := []Doc{{ID: 0, Hashes: hashes}}
	idx := BuildIndex(docs, Params{K: 5, W: 4, MaxBucket: 2})
	if idx.BucketsTruncated == 0 {
		t.Fatal("expected bucket truncation with MaxBucket=2 and many identical k-grams")
	}
	for _, sels := range idx.Buckets {
		if len(sels) > 2 {
			t.Fatalf("bucket exceeded cap: %d entries", len(sels))
		}
	}
}

func TestExtendMaximal(t *testing.T) {
	a := []uint64{1, 2, 3, 4, 5, 6, 7, 8}
	b := []uint64{9, 9, 3, 4, 5, 6, 7, 9}
	eq := func(docA, i, docB, j int) bool {
		seqs := map[int][]uint64{0: a, 1: b}
		return seqs[docA][i] == seqs[docB][j]
	}
	lenOf := func(doc int) int {
		if doc == 0 {
			return len(a)
		}
		return len(b)
	}

	seedA := Selection{Hash: 0, Doc: 0, Pos: 3}
	seedB := Selection{Hash: 0, Doc: 1, Pos: 3}
	ra, rb := ExtendMaximal(seedA, seedB, 1, eq, lenOf)

	if ra.Start != 2 || ra.End != 7 {
		t.Fatalf("unexpected range A: %+v", ra)
	}
	if rb.Start != 2 || rb.End != 7 {
		t.Fatalf("unexpected range B: %+v", rb)
	}
}
