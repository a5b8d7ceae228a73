package merge

import (
	"testing"
	"time"

	"github.com/ldm-sh/ldm/internal/types"
)

func TestNewerRemoteWins(t *testing.T) {
	if Newer("2026-01-01T00:00:00.000Z", "2026-01-02T00:00:00.000Z") != WinnerRemote {
		t.Fatal("expected remote to win when strictly later")
	}
}

func TestNewerTieGoesLocal(t *testing.T) {
	if Newer("2026-01-01T00:00:00.000Z", "2026-01-01T00:00:00.000Z") != WinnerLocal {
		t.Fatal("expected a tie to resolve to local per the documented rule")
	}
}

func TestNewerLocalWins(t *testing.T) {
	if Newer("2026-01-02T00:00:00.000Z", "2026-01-01T00:00:00.000Z") != WinnerLocal {
		t.Fatal("expected local to win when strictly later")
	}
}

func TestMergeRowRemoteWins(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	local := types.Row{ID: 5, Target: "local target", Status: types.RowTranslated, UpdatedAt: base}
	remote := types.Row{ID: 5, Target: "remote target", Status: types.RowReviewed, UpdatedAt: base.Add(time.Hour)}

	result := MergeRow(local, remote)
	if result.Merged.Target != "remote target" || result.Merged.Status != types.RowReviewed {
		t.Fatalf("expected remote fields to win, got %+v", result.Merged)
	}
	if result.Merged.ID != 5 {
		t.Fatal("expected identity field ID to be preserved from local")
	}
}

func TestMergeRowLocalWinsOnTie(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	local := types.Row{ID: 5, Target: "local target", UpdatedAt: base}
	remote := types.Row{ID: 5, Target: "remote target", UpdatedAt: base}

	result := MergeRow(local, remote)
	if result.Merged.Target != "local target" {
		t.Fatalf("expected local to win a tie, got %q", result.Merged.Target)
	}
}

func TestMergeTMEntryUsesUpdatedAtStrings(t *testing.T) {
	local := types.TMEntry{ID: 1, TargetText: "local", UpdatedAt: "2026-01-01T00:00:00.000Z"}
	remote := types.TMEntry{ID: 1, TargetText: "remote", UpdatedAt: "2026-01-02T00:00:00.000Z"}

	result := MergeTMEntry(local, remote)
	if result.Merged.TargetText != "remote" {
		t.Fatalf("expected remote target_text to win, got %q", result.Merged.TargetText)
	}
}
