package syncrun

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"curator/internal/classify"
	"curator/internal/config"
	"curator/internal/faults"
	"curator/internal/library"
	"curator/internal/logging"
	"curator/internal/matching"
	"curator/internal/media"
	"curator/internal/metrics"
	"curator/internal/playlist"
	"curator/internal/services"
	"curator/internal/store"
	"curator/internal/universe"
)

// ErrRunInProgress is returned when another run holds the run lock.
var ErrRunInProgress = errors.New("another curator sync is already running")

// Options wires a Runner.
type Options struct {
	Config  *config.Config
	Logger  *slog.Logger
	Source  LibrarySource
	Backend playlist.Backend
	// History is optional; runs are not recorded when nil.
	History HistoryRecorder
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Request selects what one run syncs.
type Request struct {
	// Keys limits the run to these universes. Empty selects all.
	Keys []string
	// DryRun forces a dry run regardless of configuration.
	DryRun bool
}

// Report describes a finished run.
type Report struct {
	RunID      string                    `json:"run_id"`
	Backend    string                    `json:"backend"`
	DryRun     bool                      `json:"dry_run"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at"`
	Status     store.RunStatus           `json:"status"`
	Index      library.BuildStats        `json:"index"`
	Universes  []classify.UniverseResult `json:"-"`
	Results    []playlist.SyncResult     `json:"results"`
	Stats      playlist.Stats            `json:"stats"`
	Summary    faults.BatchSummary       `json:"summary"`
	// Fault is set when the run aborted before reconciling.
	Fault *faults.Record `json:"fault,omitempty"`
}

// Duration returns the wall time of the run.
func (r Report) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Record converts the report into a history row.
func (r Report) Record() store.RunRecord {
	actions := make(map[playlist.Action]int, len(playlist.Actions))
	for action, count := range r.Stats.ByAction {
		actions[action] = count
	}
	return store.RunRecord{
		ID:           r.RunID,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
		Backend:      r.Backend,
		DryRun:       r.DryRun,
		Status:       r.Status,
		Universes:    len(r.Results),
		Actions:      actions,
		ItemsWritten: r.Stats.ItemsWritten,
		Summary:      r.Summary,
		Results:      r.Results,
	}
}

// Runner executes sync runs. Each Run builds its own index, matcher,
// reconciler and metrics registry.
type Runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	source  LibrarySource
	backend playlist.Backend
	history HistoryRecorder
	now     func() time.Time
}

// New validates opts and returns a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, errors.New("syncrun: config is required")
	}
	if opts.Source == nil {
		return nil, errors.New("syncrun: library source is required")
	}
	if opts.Backend == nil {
		return nil, errors.New("syncrun: playlist backend is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		cfg:     opts.Config,
		logger:  logging.NewComponentLogger(opts.Logger, "syncrun"),
		source:  opts.Source,
		backend: opts.Backend,
		history: opts.History,
		now:     now,
	}, nil
}

// Run performs one sync. The report is always returned; the error is the
// reason the run did not complete: ErrRunInProgress, an abort fault,
// playlist.ErrRunHalted or the context error. Per-universe failures only
// show up in the report.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		Backend:   r.cfg.Sync.Backend,
		DryRun:    r.cfg.Sync.DryRun || req.DryRun,
		StartedAt: r.now(),
		Results:   []playlist.SyncResult{},
		Stats:     playlist.Stats{ByAction: map[playlist.Action]int{}},
	}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, r.logger)

	lock, err := acquireLock(r.cfg.LockPath())
	if err != nil {
		report.FinishedAt = r.now()
		report.Status = store.RunFailed
		return report, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.Args(
				logging.Error(err),
				logging.String(logging.FieldEventType, "lock_release_failed"),
				logging.String(logging.FieldErrorHint, "remove "+r.cfg.LockPath()+" if no sync is running"),
				logging.String(logging.FieldImpact, "the next sync may refuse to start"),
			)...)
		}
	}()

	logger.Info("sync run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("backend", report.Backend),
		logging.Bool("dry_run", report.DryRun),
	)

	run := metrics.NewRun()
	runErr := r.execute(ctx, logger, run, req, report)
	report.FinishedAt = r.now()
	report.Status = statusFor(ctx, runErr, report)

	for _, res := range report.Results {
		run.ObserveSync(res)
	}
	if report.Fault != nil {
		run.ObserveFault(*report.Fault)
	}
	run.ObserveRun(string(report.Status), report.Duration(), report.FinishedAt, report.Status == store.RunCompleted)
	if err := run.WriteTextfile(r.cfg.Sync.MetricsTextfile); err != nil {
		logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check sync.metrics_textfile is writable"),
			logging.String(logging.FieldImpact, "metrics for this run are lost"),
		)
	}
	r.recordHistory(ctx, logger, report)

	logger.Info("sync run finished",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("status", string(report.Status)),
		logging.Duration("duration", report.Duration()),
		logging.Int("playlists_touched", report.Stats.PlaylistsTouched),
		logging.Int("items_written", report.Stats.ItemsWritten),
		logging.Int("faults", report.Summary.Total),
	)
	return report, runErr
}

func (r *Runner) execute(ctx context.Context, logger *slog.Logger, run *metrics.Run, req Request, report *Report) error {
	universes, err := r.loadUniverses(req.Keys)
	if err != nil {
		return r.abort(logger, report, "universes", err)
	}

	items, err := r.fetchLibrary(ctx)
	if err != nil {
		if faults.IsCancellation(err) {
			return err
		}
		return r.abort(logger, report, "library", err)
	}

	stageCtx := services.WithStage(ctx, "index")
	index, stats, err := library.Build(stageCtx, items, library.Options{
		Workers: r.cfg.Sync.Workers,
		Logger:  logging.WithContext(stageCtx, r.logger),
	})
	if err != nil {
		return err
	}
	report.Index = stats
	run.ObserveIndex(stats)

	stageCtx = services.WithStage(ctx, "match")
	matcher := matching.New(index, matching.WithWorkers(r.cfg.Sync.Workers))
	classifier := classify.New(matcher, classify.Options{SupportedProviders: r.cfg.Sync.SupportedProviders})
	classified, err := classifier.ProcessAll(stageCtx, universes)
	if err != nil {
		return err
	}
	report.Universes = classified
	for _, res := range classified {
		run.ObserveUniverse(res)
	}

	stageCtx = services.WithStage(ctx, "reconcile")
	reconciler := playlist.New(r.backend, playlist.Options{
		WriteTimeout: r.cfg.WriteTimeout(),
		Workers:      r.cfg.Sync.Workers,
		DryRun:       report.DryRun,
		Prefix:       r.cfg.Sync.PlaylistPrefix,
		Logger:       r.logger,
		Observer:     run,
	})
	results, batchErr := reconciler.BatchCreate(stageCtx, classified, r.cfg.Sync.OwnerID)
	report.Results = results
	report.Stats = reconciler.Stats()

	records := make([]faults.Record, 0)
	for _, res := range results {
		if res.Fault != nil {
			records = append(records, *res.Fault)
		}
	}
	report.Summary = faults.Summarize(records)
	return batchErr
}

func (r *Runner) loadUniverses(keys []string) ([]media.Universe, error) {
	universes, err := universe.Load(r.cfg.Paths.UniversesFile)
	if err != nil {
		return nil, err
	}
	return universe.Select(universes, keys)
}

// fetchLibrary reads the library under the library timeout. An expired
// timeout is a Timeout fault; caller cancellation is returned unchanged.
func (r *Runner) fetchLibrary(ctx context.Context) ([]media.LibraryItemRef, error) {
	timeout := r.cfg.LibraryTimeout()
	fetchCtx, cancel := context.WithTimeout(services.WithStage(ctx, "library"), timeout)
	defer cancel()

	items, err := r.source.LibraryItems(fetchCtx)
	if err == nil {
		return items, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
		return nil, faults.Wrap(faults.ErrTimeout, "library", "fetch library",
			fmt.Sprintf("no response within %s", timeout), err)
	}
	return nil, err
}

// abort records a fault that stopped the run before any playlist was touched.
func (r *Runner) abort(logger *slog.Logger, report *Report, subject string, err error) error {
	record := faults.NewRecord(subject, err)
	report.Fault = &record
	report.Summary = faults.Summarize([]faults.Record{record})
	logging.ErrorWithContext(logger, "sync run aborted", "run_aborted",
		logging.Error(err),
		logging.String("category", record.Category.String()),
		logging.String("severity", record.Severity.String()),
		logging.String(logging.FieldErrorHint, record.Recommendation),
	)
	return record
}

func (r *Runner) recordHistory(ctx context.Context, logger *slog.Logger, report *Report) {
	if r.history == nil {
		return
	}
	if err := r.history.RecordRun(context.WithoutCancel(ctx), report.Record()); err != nil {
		logging.WarnWithContext(logger, "run history not recorded", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory is writable"),
			logging.String(logging.FieldImpact, "this run is missing from curator history"),
		)
	}
}

func statusFor(ctx context.Context, err error, report *Report) store.RunStatus {
	switch {
	case ctx.Err() != nil || faults.IsCancellation(err):
		return store.RunCancelled
	case errors.Is(err, playlist.ErrRunHalted):
		return store.RunHalted
	case err != nil:
		return store.RunFailed
	case report.Summary.HasErrors():
		return store.RunPartial
	default:
		return store.RunCompleted
	}
}

func acquireLock(path string) (*flock.Flock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, faults.Wrap(faults.ErrInvalidState, "sync run", "acquire lock", path, ErrRunInProgress)
	}
	return lock, nil
}
