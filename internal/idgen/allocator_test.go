package idgen

import "testing"

func TestAllocatorNextIsAlwaysNegative(t *testing.T) {
	a := NewAllocator()
	for i := 0; i < 1000; i++ {
		id := a.Next()
		if id >= 0 {
			t.Fatalf("expected negative id, got %d", id)
		}
		if id <= -negativeIDModulus {
			t.Fatalf("id %d exceeds the 10^9 modulus bound", id)
		}
	}
}

func TestAllocatorNextIsMonotoneDistinctWithinProcess(t *testing.T) {
	a := NewAllocator()
	seen := make(map[int64]bool)
	for i := 0; i < 5000; i++ {
		id := a.Next()
		if seen[id] {
			t.Fatalf("duplicate id %d generated within a single process counter sequence", id)
		}
		seen[id] = true
	}
}

func TestAllocatorNextBlockLength(t *testing.T) {
	a := NewAllocator()
	ids := a.NextBlock(16)
	if len(ids) != 16 {
		t.Fatalf("expected 16 ids, got %d", len(ids))
	}
	for _, id := range ids {
		if id >= 0 {
			t.Fatalf("expected negative id, got %d", id)
		}
	}
}

func TestAllocatorNextBlockZero(t *testing.T) {
	a := NewAllocator()
	if ids := a.NextBlock(0); ids != nil {
		t.Fatalf("expected nil for zero-length block, got %v", ids)
	}
}

func TestSourceHashDeterministic(t *testing.T) {
	h1 := SourceHash("Hello   World")
	h2 := SourceHash("hello world")
	if h1 != h2 {
		t.Fatalf("expected normalize() to fold case/whitespace: %q != %q", h1, h2)
	}
	if SourceHash("Hello World") == SourceHash("Goodbye World") {
		t.Fatal("expected different sources to hash differently")
	}
}

func TestEncodeBase36PadsAndTruncates(t *testing.T) {
	if got := EncodeBase36([]byte{0}, 4); got != "0000" {
		t.Fatalf("expected zero padding, got %q", got)
	}
	if got := EncodeBase36([]byte{0xff, 0xff, 0xff}, 2); len(got) != 2 {
		t.Fatalf("expected truncation to length 2, got %q", got)
	}
}
