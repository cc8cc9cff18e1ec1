package metrics_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"curator/internal/classify"
	"curator/internal/faults"
	"curator/internal/library"
	"curator/internal/matching"
	"curator/internal/metrics"
	"curator/internal/playlist"
)

func TestObserveRunCounters(t *testing.T) {
	run := metrics.NewRun()

	run.ObserveIndex(library.BuildStats{ItemsIndexed: 10, ItemsSkipped: 2, Keys: 14, Collisions: 1})
	run.ObserveUniverse(classify.UniverseResult{
		Validation: classify.ValidationResult{IsValid: true},
		Analysis:   classify.ContentTypeAnalysis{IsMixed: true, Total: 5},
		Match:      &matching.Result{MatchedCount: 4, MissingCount: 1},
	})
	record := faults.NewRecord("universe \"mcu\"", faults.ErrTimeout)
	run.ObserveSync(playlist.SyncResult{Action: playlist.ActionCreated})
	run.ObserveSync(playlist.SyncResult{Action: playlist.ActionFailed, Fault: &record})
	run.ObserveBackendCall("create playlist", 20*time.Millisecond, nil)
	run.ObserveBackendCall("create playlist", time.Second, errors.New("boom"))

	expected := `
# HELP curator_playlists_total Playlist sync outcomes, by action
# TYPE curator_playlists_total counter
curator_playlists_total{action="created"} 1
curator_playlists_total{action="failed"} 1
`
	if err := testutil.GatherAndCompare(run.Registry(), strings.NewReader(expected), "curator_playlists_total"); err != nil {
		t.Fatalf("unexpected playlist metrics: %v", err)
	}
	expected = `
# HELP curator_faults_total Classified faults, by category and severity
# TYPE curator_faults_total counter
curator_faults_total{category="timeout",severity="medium"} 1
`
	if err := testutil.GatherAndCompare(run.Registry(), strings.NewReader(expected), "curator_faults_total"); err != nil {
		t.Fatalf("unexpected fault metrics: %v", err)
	}
	if n := testutil.CollectAndCount(run.Registry(), "curator_backend_call_duration_seconds"); n != 2 {
		t.Fatalf("expected two backend call series, got %d", n)
	}
	if n, err := testutil.GatherAndCount(run.Registry(), "curator_timeline_entries_total"); err != nil || n != 2 {
		t.Fatalf("expected matched and missing series, got %d (%v)", n, err)
	}
}

func TestWriteTextfile(t *testing.T) {
	run := metrics.NewRun()
	run.ObserveRun("completed", 3*time.Second, time.Unix(1700000000, 0), true)

	path := filepath.Join(t.TempDir(), "metrics", "curator.prom")
	if err := run.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"curator_run_duration_seconds 3",
		`curator_run_status{status="completed"} 1`,
		"curator_run_last_success_timestamp_seconds 1.7e+09",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in textfile:\n%s", want, text)
		}
	}
}

func TestWriteTextfileDisabled(t *testing.T) {
	if err := metrics.NewRun().WriteTextfile(""); err != nil {
		t.Fatalf("expected empty path to be a no-op, got %v", err)
	}
}
