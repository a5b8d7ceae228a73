package schema

import "testing"

func TestTablePrefixesByMode(t *testing.T) {
	online := NewBinder(Online)
	offline := NewBinder(Offline)

	if got := online.Table(TableRows); got != "ldm_rows" {
		t.Fatalf("unexpected online table name: %q", got)
	}
	if got := offline.Table(TableRows); got != "offline_rows" {
		t.Fatalf("unexpected offline table name: %q", got)
	}
}

func TestHasColumnOfflineOnly(t *testing.T) {
	online := NewBinder(Online)
	offline := NewBinder(Offline)

	if online.HasColumn(TableRows, "sync_status") {
		t.Fatal("expected sync_status to be absent online")
	}
	if !offline.HasColumn(TableRows, "sync_status") {
		t.Fatal("expected sync_status to be present offline")
	}
}

func TestHasColumnSharedColumnsAlwaysPresent(t *testing.T) {
	for _, b := range []*Binder{NewBinder(Online), NewBinder(Offline)} {
		if !b.HasColumn(TableRows, "source") {
			t.Fatalf("expected shared column source to be present in mode %s", b.Mode())
		}
		if !b.HasColumn(TablePlatforms, "name") {
			t.Fatalf("expected shared column name to be present in mode %s", b.Mode())
		}
	}
}
