package store_test

import (
	"context"
	"errors"
	"testing"

	"scout/internal/store"
	"scout/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	versions, err := st.AppliedMigrations(context.Background())
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(versions) == 0 || versions[0] != "0001_init" {
		t.Fatalf("expected 0001_init to be applied, got %v", versions)
	}
}

func TestReopenSkipsAppliedMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	listing := testsupport.NewListing(t, st, "testsource", "survivor")
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := store.OpenPath(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	fetched, err := reopened.GetListing(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("GetListing after reopen: %v", err)
	}
	if fetched == nil || fetched.SourceID != "survivor" {
		t.Fatalf("data lost across reopen: %+v", fetched)
	}
}

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if run.Status != store.RunRunning || run.ID == "" {
		t.Fatalf("unexpected new run: %+v", run)
	}

	stats := store.RunStats{Discovered: 10, Duplicates: 4, New: 6, Rated: 5}
	if err := st.CompleteRun(ctx, run.ID, stats); err != nil {
		t.Fatalf("CompleteRun: %v", err)
	}

	fetched, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if fetched.Status != store.RunCompleted || fetched.CompletedAt == nil {
		t.Fatalf("run not completed: %+v", fetched)
	}
	if fetched.Stats == nil || fetched.Stats.Discovered != 10 || fetched.Stats.New != 6 {
		t.Fatalf("stats not persisted: %+v", fetched.Stats)
	}

	// Terminal states accept no further transitions.
	if err := st.FailRun(ctx, run.ID, "late failure"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected transition rejection, got %v", err)
	}
}

func TestFailRunRecordsError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	run, err := st.CreateRun(ctx)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if err := st.FailRun(ctx, run.ID, "discovery exploded"); err != nil {
		t.Fatalf("FailRun: %v", err)
	}

	fetched, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if fetched.Status != store.RunFailed || fetched.Error != "discovery exploded" {
		t.Fatalf("failure not recorded: %+v", fetched)
	}
	if err := st.CompleteRun(ctx, run.ID, store.RunStats{}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected transition rejection, got %v", err)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		run, err := st.CreateRun(ctx)
		if err != nil {
			t.Fatalf("CreateRun %d: %v", i, err)
		}
		ids = append(ids, run.ID)
	}

	runs, err := st.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(runs))
	}
	if runs[0].ID != ids[2] || runs[1].ID != ids[1] {
		t.Fatalf("runs not newest first: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestSourceCursors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	cursor, err := st.GetCursor(ctx, "testsource")
	if err != nil {
		t.Fatalf("GetCursor: %v", err)
	}
	if cursor != nil {
		t.Fatalf("expected nil for unknown source, got %+v", cursor)
	}

	if err := st.PutCursor(ctx, "testsource", "page-2"); err != nil {
		t.Fatalf("PutCursor: %v", err)
	}
	cursor, err = st.GetCursor(ctx, "testsource")
	if err != nil {
		t.Fatalf("GetCursor: %v", err)
	}
	if cursor == nil || cursor.CursorValue != "page-2" || cursor.LastRunAt.IsZero() {
		t.Fatalf("unexpected cursor: %+v", cursor)
	}

	if err := st.PutCursor(ctx, "testsource", "page-3"); err != nil {
		t.Fatalf("PutCursor upsert: %v", err)
	}
	cursor, err = st.GetCursor(ctx, "testsource")
	if err != nil {
		t.Fatalf("GetCursor: %v", err)
	}
	if cursor.CursorValue != "page-3" {
		t.Fatalf("upsert not applied: %+v", cursor)
	}
}
