package similarity

import "testing"

func TestRankFindsCloseMatch(t *testing.T) {
	candidates := []Candidate{
		{Key: 1, Source: "Click here to continue"},
		{Key: 2, Source: "Click here to proceed"},
		{Key: 3, Source: "Delete your account permanently"},
	}

	results := Rank("Click here to continue", candidates, 0.3, 0)
	if len(results) == 0 {
		t.Fatalf("expected at least one match")
	}
	if results[0].Key != 1 {
		t.Fatalf("expected exact match to rank first, got key %d", results[0].Key)
	}
	if results[0].Score != 1 {
		t.Fatalf("expected exact match score of 1, got %f", results[0].Score)
	}
}

func TestRankRespectsThresholdAndLimit(t *testing.T) {
	candidates := []Candidate{
		{Key: 1, Source: "Save changes"},
		{Key: 2, Source: "Save changes now"},
		{Key: 3, Source: "Totally unrelated string"},
	}

	results := Rank("Save changes", candidates, 0.9, 1)
	if len(results) != 1 {
		t.Fatalf("expected limit of 1 result, got %d", len(results))
	}
	if results[0].Key != 1 {
		t.Fatalf("expected key 1, got %d", results[0].Key)
	}
}

func TestRankEmptyQuery(t *testing.T) {
	if got := Rank("", []Candidate{{Key: 1, Source: "anything"}}, 0.1, 0); got != nil {
		t.Fatalf("expected nil for empty query, got %v", got)
	}
}
