package routing

import (
	"context"
	"testing"

	"github.com/ldm-sh/ldm/internal/storage"
	"github.com/ldm-sh/ldm/internal/types"
)

// fakeRows records which calls it received so tests can tell which adapter
// answered; Get returns a row carrying the id it was called with.
type fakeRows struct {
	storage.RowRepository
	name  string
	calls []string
}

func (f *fakeRows) Get(ctx context.Context, id int64) (*types.Row, error) {
	f.calls = append(f.calls, "Get")
	return &types.Row{ID: id}, nil
}

func (f *fakeRows) BulkUpdate(ctx context.Context, updates []types.BulkRowUpdate) (int, error) {
	f.calls = append(f.calls, "BulkUpdate")
	return len(updates), nil
}

func (f *fakeRows) SuggestSimilar(ctx context.Context, source string, fileID, projectID *int64, excludeRowID *int64, threshold float64, maxResults int) ([]types.TMSearchHit, error) {
	f.calls = append(f.calls, "SuggestSimilar")
	return nil, nil
}

func TestRowsGetDispatchesBySign(t *testing.T) {
	primary := &fakeRows{name: "primary"}
	offline := &fakeRows{name: "offline"}
	r := &Rows{Primary: primary, Offline: offline}

	if _, err := r.Get(context.Background(), 5); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get(context.Background(), -5); err != nil {
		t.Fatal(err)
	}

	if len(primary.calls) != 1 || len(offline.calls) != 1 {
		t.Fatalf("expected one call routed to each adapter, got primary=%v offline=%v", primary.calls, offline.calls)
	}
}

func TestRowsBulkUpdateSplitsAndSums(t *testing.T) {
	primary := &fakeRows{}
	offline := &fakeRows{}
	r := &Rows{Primary: primary, Offline: offline}

	n, err := r.BulkUpdate(context.Background(), []types.BulkRowUpdate{
		{ID: 1}, {ID: 2}, {ID: -1}, {ID: -2}, {ID: -3},
	})
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("BulkUpdate total = %d, want 5", n)
	}
	if len(primary.calls) != 1 || len(offline.calls) != 1 {
		t.Fatalf("expected exactly one fan-out call per adapter, got primary=%v offline=%v", primary.calls, offline.calls)
	}
}

func TestRowsSuggestSimilarNegativeFileIDGoesOffline(t *testing.T) {
	primary := &fakeRows{}
	offline := &fakeRows{}
	r := &Rows{Primary: primary, Offline: offline}

	neg := int64(-7)
	if _, err := r.SuggestSimilar(context.Background(), "hello", &neg, nil, nil, 0.5, 5); err != nil {
		t.Fatal(err)
	}
	if len(offline.calls) != 1 || len(primary.calls) != 0 {
		t.Fatalf("expected SuggestSimilar with negative fileID to route offline, got primary=%v offline=%v", primary.calls, offline.calls)
	}
}

func TestRowsSuggestSimilarNilFileIDGoesPrimary(t *testing.T) {
	primary := &fakeRows{}
	offline := &fakeRows{}
	r := &Rows{Primary: primary, Offline: offline}

	if _, err := r.SuggestSimilar(context.Background(), "hello", nil, nil, nil, 0.5, 5); err != nil {
		t.Fatal(err)
	}
	if len(primary.calls) != 1 || len(offline.calls) != 0 {
		t.Fatalf("expected SuggestSimilar with nil fileID to route primary, got primary=%v offline=%v", primary.calls, offline.calls)
	}
}
