package online

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcdolt "github.com/testcontainers/testcontainers-go/modules/dolt"

	"github.com/ldm-sh/ldm/internal/types"
)

// newTestStorage starts a throwaway Dolt server container and returns a
// Storage connected to it. Skipped unless LDM_TEST_DOCKER=1, since it needs
// a working Docker daemon and the tests otherwise run in environments
// without one.
func newTestStorage(t *testing.T) (context.Context, *backend) {
	t.Helper()
	if os.Getenv("LDM_TEST_DOCKER") != "1" {
		t.Skip("set LDM_TEST_DOCKER=1 to run tests against a containerized Dolt server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := tcdolt.Run(ctx, "dolthub/dolt-sql-server:latest",
		testcontainers.WithEnv(map[string]string{"DOLT_DATABASE": "ldm"}),
	)
	if err != nil {
		t.Fatalf("start dolt container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	s, err := Open(ctx, Options{DSN: dsn})
	if err != nil {
		t.Fatalf("open online storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return ctx, s.(*backend)
}

func TestSuggestSimilarRanksActiveTMEntries(t *testing.T) {
	ctx, s := newTestStorage(t)

	proj, err := s.Projects().Create(ctx, "Localization", "alice", "", nil, false)
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	tm, err := s.TMs().Create(ctx, "Main TM", "en", "fr", "alice")
	if err != nil {
		t.Fatalf("create tm: %v", err)
	}
	if err := s.TMs().Assign(ctx, tm.ID, types.Scope{Kind: types.ScopeProject, ProjectID: proj.ID}); err != nil {
		t.Fatalf("assign tm: %v", err)
	}
	if err := s.TMs().Activate(ctx, tm.ID); err != nil {
		t.Fatalf("activate tm: %v", err)
	}
	if _, err := s.TMs().AddEntry(ctx, tm.ID, "Click here to continue", "Cliquez ici pour continuer", "", "alice"); err != nil {
		t.Fatalf("add entry: %v", err)
	}

	hits, err := s.Rows().SuggestSimilar(ctx, "Click here to continue", nil, &proj.ID, nil, 0.5, 5)
	if err != nil {
		t.Fatalf("suggest similar: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("expected at least one similar TM entry")
	}
	if hits[0].Score != 1 {
		t.Errorf("expected exact match score of 1, got %f", hits[0].Score)
	}
}
