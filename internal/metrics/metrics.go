package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"curator/internal/classify"
	"curator/internal/faults"
	"curator/internal/library"
	"curator/internal/playlist"
)

const namespace = "curator"

// Run holds the collectors of a single sync run.
type Run struct {
	registry *prometheus.Registry

	libraryItems    *prometheus.GaugeVec
	indexKeys       prometheus.Gauge
	indexCollisions prometheus.Counter
	entries         *prometheus.CounterVec
	mixedUniverses  prometheus.Counter
	playlists       *prometheus.CounterVec
	faults          *prometheus.CounterVec
	backendCalls    *prometheus.HistogramVec
	runDuration     prometheus.Gauge
	runLastSuccess  prometheus.Gauge
	runStatus       *prometheus.GaugeVec
}

// NewRun registers every collector on a fresh registry.
func NewRun() *Run {
	reg := prometheus.NewRegistry()
	r := &Run{
		registry: reg,
		libraryItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "library_items",
			Help:      "Library items seen by the last index build, by state",
		}, []string{"state"}),
		indexKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "index_keys",
			Help:      "Provider references held by the content index",
		}),
		indexCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_collisions_total",
			Help:      "Provider references claimed by more than one library item",
		}),
		entries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeline_entries_total",
			Help:      "Timeline entries processed, by match result",
		}, []string{"result"}),
		mixedUniverses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mixed_universes_total",
			Help:      "Universes mixing movies and episodes",
		}),
		playlists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playlists_total",
			Help:      "Playlist sync outcomes, by action",
		}, []string{"action"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_total",
			Help:      "Classified faults, by category and severity",
		}, []string{"category", "severity"}),
		backendCalls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_call_duration_seconds",
			Help:      "Playlist backend call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "outcome"}),
		runDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last sync run",
		}),
		runLastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_last_success_timestamp_seconds",
			Help:      "Unix time of the last run that finished without faults",
		}),
		runStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_status",
			Help:      "1 for the status of the last sync run",
		}, []string{"status"}),
	}
	reg.MustRegister(
		r.libraryItems, r.indexKeys, r.indexCollisions, r.entries, r.mixedUniverses,
		r.playlists, r.faults, r.backendCalls, r.runDuration, r.runLastSuccess, r.runStatus,
	)
	return r
}

// Registry exposes the run registry for tests and custom exporters.
func (r *Run) Registry() *prometheus.Registry { return r.registry }

// ObserveIndex records the outcome of an index build.
func (r *Run) ObserveIndex(stats library.BuildStats) {
	r.libraryItems.WithLabelValues("indexed").Set(float64(stats.ItemsIndexed))
	r.libraryItems.WithLabelValues("skipped").Set(float64(stats.ItemsSkipped))
	r.indexKeys.Set(float64(stats.Keys))
	r.indexCollisions.Add(float64(stats.Collisions))
}

// ObserveUniverse records match counts for one processed universe.
func (r *Run) ObserveUniverse(res classify.UniverseResult) {
	if res.Analysis.IsMixed {
		r.mixedUniverses.Inc()
	}
	if !res.Valid() || res.Match == nil {
		r.entries.WithLabelValues("invalid").Add(float64(res.Analysis.Total))
		return
	}
	r.entries.WithLabelValues("matched").Add(float64(res.Match.MatchedCount))
	r.entries.WithLabelValues("missing").Add(float64(res.Match.MissingCount))
}

// ObserveSync records one playlist outcome and its fault, if any.
func (r *Run) ObserveSync(res playlist.SyncResult) {
	r.playlists.WithLabelValues(string(res.Action)).Inc()
	if res.Fault != nil {
		r.ObserveFault(*res.Fault)
	}
}

// ObserveFault records a classified fault.
func (r *Run) ObserveFault(record faults.Record) {
	r.faults.WithLabelValues(record.Category.String(), record.Severity.String()).Inc()
}

// ObserveBackendCall implements playlist.Observer.
func (r *Run) ObserveBackendCall(operation string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = faults.Classify(err).String()
	}
	r.backendCalls.WithLabelValues(operation, outcome).Observe(elapsed.Seconds())
}

// ObserveRun records the end of the run.
func (r *Run) ObserveRun(status string, elapsed time.Duration, finished time.Time, clean bool) {
	r.runDuration.Set(elapsed.Seconds())
	r.runStatus.Reset()
	r.runStatus.WithLabelValues(status).Set(1)
	if clean {
		r.runLastSuccess.Set(float64(finished.Unix()))
	}
}

// WriteTextfile writes the registry to path in the Prometheus text format.
// The file is replaced atomically.
func (r *Run) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
