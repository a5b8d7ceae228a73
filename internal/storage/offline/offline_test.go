package offline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ldm-sh/ldm/internal/types"
)

// newTestStorage opens an embedded store rooted at a fresh temp directory.
// The process-wide singleton keys off the directory, so every test gets
// its own database and none contend for the writer lock.
func newTestStorage(t *testing.T) (context.Context, *backend) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	s, err := Open(ctx, Options{Path: filepath.Join(dir, "offline.db")})
	if err != nil {
		t.Fatalf("open offline storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return ctx, s.(*backend)
}

func TestOpenSeedsOfflineStorageProjectAndPlatform(t *testing.T) {
	ctx, s := newTestStorage(t)

	p, err := s.Platforms().Get(ctx, OfflineStoragePlatformID)
	if err != nil {
		t.Fatalf("get seeded platform: %v", err)
	}
	if p.Name != "Offline Storage" {
		t.Errorf("expected seeded platform name, got %q", p.Name)
	}

	proj, err := s.Projects().Get(ctx, OfflineStorageProjectID)
	if err != nil {
		t.Fatalf("get seeded project: %v", err)
	}
	if proj.PlatformID == nil || *proj.PlatformID != OfflineStoragePlatformID {
		t.Errorf("expected seeded project linked to seeded platform, got %+v", proj.PlatformID)
	}
}

func TestOpenSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s1, err := Open(ctx, Options{Path: filepath.Join(dir, "offline.db")})
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	defer s1.Close()

	s2, err := Open(ctx, Options{Path: filepath.Join(dir, "offline.db")})
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	defer s2.Close()

	n, err := s2.Platforms().Count(ctx)
	if err != nil {
		t.Fatalf("count platforms: %v", err)
	}
	if n != 1 {
		t.Errorf("expected exactly one seeded platform after two opens, got %d", n)
	}
}

func TestCreatedEntitiesGetNegativeIDs(t *testing.T) {
	ctx, s := newTestStorage(t)

	p, err := s.Projects().Create(ctx, "My Project", "alice", "", nil, false)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p.ID >= 0 {
		t.Errorf("expected offline-created project to get a negative ID, got %d", p.ID)
	}
}

func TestCapabilitiesRequireOnline(t *testing.T) {
	ctx, s := newTestStorage(t)

	_, err := s.Capabilities().Grant(ctx, "alice", types.CapabilityName("admin"), "bob", nil)
	kind, ok := types.KindOf(err)
	if !ok || kind != types.CapabilityRequiresOnline {
		t.Fatalf("expected CapabilityRequiresOnline, got %v", err)
	}

	grants, err := s.Capabilities().GetForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetForUser: %v", err)
	}
	if len(grants) != 0 {
		t.Errorf("expected no grants offline, got %d", len(grants))
	}
}
