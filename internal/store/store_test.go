package store_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"curator/internal/faults"
	"curator/internal/playlist"
	"curator/internal/store"
	"curator/internal/testsupport"
)

func TestOpenCreatesDatabaseInStateDir(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	if st.Path() != filepath.Join(cfg.Paths.StateDir, "curator.db") {
		t.Fatalf("unexpected path %q", st.Path())
	}

	// Reopening an initialized database must succeed.
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	again, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	again.Close()
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := db.Exec("CREATE TABLE schema_version (version INTEGER NOT NULL); INSERT INTO schema_version VALUES (99);"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	db.Close()

	_, err = store.OpenPath(path)
	if !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestPlaylistBackendRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))

	created, err := st.CreatePlaylist(ctx, "owner", "MCU", []string{"c", "a", "b"})
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	if created.ID == "" || created.ItemCount != 3 {
		t.Fatalf("unexpected playlist %+v", created)
	}
	if _, err := st.CreatePlaylist(ctx, "other", "MCU", []string{"z"}); err != nil {
		t.Fatalf("CreatePlaylist other owner: %v", err)
	}

	listed, err := st.ListPlaylists(ctx, "owner")
	if err != nil {
		t.Fatalf("ListPlaylists: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID || listed[0].ItemCount != 3 {
		t.Fatalf("unexpected listing %+v", listed)
	}

	if err := st.ReplaceItems(ctx, "owner", created.ID, []string{"b", "d"}); err != nil {
		t.Fatalf("ReplaceItems: %v", err)
	}
	items, err := st.PlaylistItems(ctx, created.ID)
	if err != nil {
		t.Fatalf("PlaylistItems: %v", err)
	}
	if fmt.Sprint(items) != "[b d]" {
		t.Fatalf("unexpected items %v", items)
	}

	err = st.ReplaceItems(ctx, "other", created.ID, []string{"x"})
	if faults.Classify(err) != faults.CategoryPermissionDenied {
		t.Fatalf("expected permission denied, got %v", err)
	}
	err = st.ReplaceItems(ctx, "owner", "missing", []string{"x"})
	if faults.Classify(err) != faults.CategoryItemNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStoreDrivesReconcilerIdempotently(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	r := playlist.New(st, playlist.Options{WriteTimeout: 5 * time.Second})

	for i := range 3 {
		res, err := r.CreateOrUpdate(ctx, "Star Wars", []string{"ep1", "ep2", "ep3"}, "owner")
		if err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
		if res.FinalCount != 3 {
			t.Fatalf("run %d: unexpected count %d", i+1, res.FinalCount)
		}
	}
	listed, err := st.ListPlaylists(ctx, "owner")
	if err != nil {
		t.Fatalf("ListPlaylists: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected a single playlist, got %d", len(listed))
	}
}

func TestRecordAndListRuns(t *testing.T) {
	ctx := context.Background()
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	record := faults.NewRecordWithCategory("universe \"mcu\"", faults.CategoryTimeout, errors.New("deadline"))
	for i := range 3 {
		run := store.RunRecord{
			ID:         fmt.Sprintf("run-%d", i),
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			FinishedAt: base.Add(time.Duration(i)*time.Hour + 2*time.Second),
			Backend:    "local",
			Status:     store.RunPartial,
			Universes:  2,
			Actions:    map[playlist.Action]int{playlist.ActionCreated: 1, playlist.ActionFailed: 1},
			Summary:    faults.Summarize([]faults.Record{record}),
			Results: []playlist.SyncResult{
				{Universe: "sw", PlaylistName: "Star Wars", Action: playlist.ActionCreated, FinalCount: 9},
				{Universe: "mcu", PlaylistName: "MCU", Action: playlist.ActionFailed, Fault: &record},
			},
		}
		if err := st.RecordRun(ctx, run); err != nil {
			t.Fatalf("RecordRun %d: %v", i, err)
		}
	}

	runs, err := st.RecentRuns(ctx, 2)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-2" || runs[1].ID != "run-1" {
		t.Fatalf("expected newest first, got %+v", runs)
	}
	got := runs[0]
	if got.Duration() != 2*time.Second {
		t.Fatalf("unexpected duration %s", got.Duration())
	}
	if got.Actions[playlist.ActionFailed] != 1 || got.Status != store.RunPartial {
		t.Fatalf("unexpected counts %+v", got)
	}
	if got.Summary.ByCategory[faults.CategoryTimeout] != 1 || got.Summary.OverallSeverity != faults.SeverityMedium {
		t.Fatalf("summary not restored: %+v", got.Summary)
	}
	if len(got.Results) != 2 || got.Results[1].Fault == nil || got.Results[1].Fault.Category != faults.CategoryTimeout {
		t.Fatalf("results not restored: %+v", got.Results)
	}
}
