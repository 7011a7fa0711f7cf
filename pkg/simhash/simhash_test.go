package simhash

import "testing"

func TestMinHashSignatureDeterministic(t *testing.T) {
	shingles := []uint64{11, 22, 33, 44, 55}
	a := MinHashSignature(shingles, DefaultMinHashSize)
	b := MinHashSignature(shingles, DefaultMinHashSize)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic signature at %d", i)
		}
	}
}

func TestJaccardEstimateIdenticalSets(t *testing.T) {
	shingles := []uint64{1, 2, 3, 4, 5, 6, 7, 8}
	sig := MinHashSignature(shingles, 64)
	if got := JaccardEstimate(sig, sig); got != 1.0 {
		t.Fatalf("expected identical signatures to estimate Jaccard=1.0, got %v", got)
	}
}

func TestJaccardEstimateDisjointSetsIsLow(t *testing.T) {
	a := MinHashSignature([]uint64{1, 2, 3, 4, 5}, 128)
	b := MinHashSignature([]uint64{1001, 1002, 1003, 1004, 1005}, 128)
	if got := JaccardEstimate(a, b); got > 0.5 {
		t.Fatalf("expected disjoint shingle sets to estimate low similarity, got %v", got)
	}
}

func TestSimHashIdenticalShingles(t *testing.T) {
	shingles := []uint64{7, 14, 21, 28}
	a := SimHash64(shingles)
	b := SimHash64(shingles)
	if a != b {
		t.Fatal("expected identical shingle sets to produce identical SimHash")
	}
	if HammingDistance64(a, b) != 0 {
		t.Fatal("expected zero Hamming distance for identical SimHash values")
	}
}

func TestSimHashScoreBounds(t *testing.T) {
	if got := SimHashScore(0); got != 1.0 {
		t.Fatalf("expected score=1.0 for distance=0, got %v", got)
	}
	if got := SimHashScore(64); got != 0.0 {
		t.Fatalf("expected score=0.0 for distance=64, got %v", got)
	}
}

func TestBandKeysPartitionsSignature(t *testing.T) {
	sig := MinHashSignature([]uint64{1, 2, 3}, DefaultMinHashSize)
	keys := BandKeys(sig, DefaultBands, DefaultRows)
	if len(keys) != DefaultBands {
		t.Fatalf("expected %d band keys, got %d", DefaultBands, len(keys))
	}
}

func TestSimHashBandKeysCount(t *testing.T) {
	keys := SimHashBandKeys(0xFFFFFFFFFFFFFFFF, DefaultSimHashBands)
	if len(keys) != DefaultSimHashBands {
		t.Fatalf("expected %d bands, got %d", DefaultSimHashBands, len(keys))
	}
}
