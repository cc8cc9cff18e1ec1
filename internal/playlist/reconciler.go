package playlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"curator/internal/classify"
	"curator/internal/faults"
	"curator/internal/logging"
	"curator/internal/services"
)

const defaultWorkers = 4

// Observer receives one call per backend operation.
type Observer interface {
	ObserveBackendCall(operation string, elapsed time.Duration, err error)
}

// Options configures a Reconciler.
type Options struct {
	// WriteTimeout bounds each backend call. Zero disables the bound.
	WriteTimeout time.Duration
	// Workers bounds how many universes BatchCreate syncs concurrently.
	Workers int
	// DryRun reads existing playlists but never writes.
	DryRun bool
	// Prefix is prepended to every playlist name.
	Prefix   string
	Logger   *slog.Logger
	Observer Observer
}

// Reconciler syncs playlists on one backend. It is safe for concurrent use.
type Reconciler struct {
	backend Backend
	opts    Options
	logger  *slog.Logger
	locks   keyedMutex

	statsMu sync.Mutex
	stats   Stats
}

// New returns a Reconciler writing to backend.
func New(backend Backend, opts Options) *Reconciler {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	return &Reconciler{
		backend: backend,
		opts:    opts,
		logger:  logging.NewComponentLogger(opts.Logger, "reconcile"),
		stats:   Stats{ByAction: map[Action]int{}},
	}
}

// PlaylistName returns the playlist name for a universe: the configured
// prefix followed by the display name, or the key when the name is blank.
func (r *Reconciler) PlaylistName(key, name string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = strings.TrimSpace(key)
	}
	return r.opts.Prefix + base
}

// CreateOrUpdate converges the playlist called name for ownerID onto ids.
// A nil ids slice is rejected; an empty one is skipped without touching the
// backend. Repeated calls with the same input leave exactly one playlist with
// the same membership.
func (r *Reconciler) CreateOrUpdate(ctx context.Context, name string, ids []string, ownerID string) (SyncResult, error) {
	result, err := r.createOrUpdate(ctx, name, ids, ownerID)
	if err != nil && faults.IsCancellation(err) {
		result.Action = ActionNotRun
	}
	r.record(result)
	return result, err
}

func (r *Reconciler) createOrUpdate(ctx context.Context, name string, ids []string, ownerID string) (SyncResult, error) {
	name = strings.TrimSpace(name)
	result := SyncResult{PlaylistName: name, Action: ActionFailed, DryRun: r.opts.DryRun}

	if ids == nil {
		return result, faults.Wrap(faults.ErrInvalidInput, name, "sync playlist", "identity list is null", nil)
	}
	if name == "" {
		return result, faults.Wrap(faults.ErrInvalidInput, "playlist", "sync playlist", "playlist name is empty", nil)
	}
	if strings.TrimSpace(ownerID) == "" {
		return result, faults.Wrap(faults.ErrInvalidInput, name, "sync playlist", "owner id is empty", nil)
	}
	if err := ctx.Err(); err != nil {
		result.Action = ActionNotRun
		return result, err
	}
	if len(ids) == 0 {
		result.Action = ActionSkipped
		return result, nil
	}

	unlock := r.locks.lock(ownerID + "\x00" + name)
	defer unlock()

	ctx = services.WithPlaylist(ctx, name)
	logger := logging.WithContext(ctx, r.logger)

	var existing []Playlist
	err := r.call(ctx, name, "list playlists", func(callCtx context.Context) error {
		var listErr error
		existing, listErr = r.backend.ListPlaylists(callCtx, ownerID)
		return listErr
	})
	if err != nil {
		return result, err
	}

	var matches []Playlist
	for _, p := range existing {
		if strings.TrimSpace(p.Name) == name {
			matches = append(matches, p)
		}
	}
	if len(matches) > 1 {
		logging.WarnWithContext(logger, "multiple playlists share this name", "playlist_duplicate",
			logging.Int("count", len(matches)),
			logging.String("playlist_id", matches[0].ID),
			logging.String(logging.FieldErrorHint, "delete the extra playlists on the media server"),
			logging.String(logging.FieldImpact, "only the first playlist is kept in sync"),
		)
	}

	if len(matches) > 0 {
		target := matches[0]
		result.PlaylistID = target.ID
		if !r.opts.DryRun {
			err := r.call(ctx, name, "replace items", func(callCtx context.Context) error {
				return r.backend.ReplaceItems(callCtx, ownerID, target.ID, ids)
			})
			if err != nil {
				return result, err
			}
		}
		result.Action = ActionUpdated
		result.FinalCount = len(ids)
		logger.Info("playlist updated",
			logging.String(logging.FieldEventType, "playlist_updated"),
			logging.String("playlist_id", target.ID),
			logging.Int("final_count", result.FinalCount),
			logging.Bool("dry_run", r.opts.DryRun),
		)
		return result, nil
	}

	if !r.opts.DryRun {
		var created Playlist
		err := r.call(ctx, name, "create playlist", func(callCtx context.Context) error {
			var createErr error
			created, createErr = r.backend.CreatePlaylist(callCtx, ownerID, name, ids)
			return createErr
		})
		if err != nil {
			return result, err
		}
		result.PlaylistID = created.ID
	}
	result.Action = ActionCreated
	result.FinalCount = len(ids)
	logger.Info("playlist created",
		logging.String(logging.FieldEventType, "playlist_created"),
		logging.String("playlist_id", result.PlaylistID),
		logging.Int("final_count", result.FinalCount),
		logging.Bool("dry_run", r.opts.DryRun),
	)
	return result, nil
}

// call runs one backend operation under the write timeout. An expired
// timeout becomes a Timeout fault; caller cancellation is returned as-is.
func (r *Reconciler) call(ctx context.Context, name, operation string, fn func(context.Context) error) error {
	callCtx := ctx
	cancel := func() {}
	if r.opts.WriteTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, r.opts.WriteTimeout)
	}
	defer cancel()

	start := time.Now()
	err := fn(callCtx)
	if r.opts.Observer != nil {
		r.opts.Observer.ObserveBackendCall(operation, time.Since(start), err)
	}
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return faults.Wrap(faults.ErrTimeout, name, operation,
			fmt.Sprintf("no response within %s", r.opts.WriteTimeout), err)
	}
	return fmt.Errorf("%s %q: %w", operation, name, err)
}

// BatchCreate syncs one playlist per universe result and returns one
// SyncResult per input in input order. Failures are classified into the
// result's Fault and do not stop other universes. A fault that forbids
// continuing stops scheduling: unstarted universes are reported as NotRun and
// ErrRunHalted is returned. Cancellation likewise leaves unstarted universes
// NotRun and returns the context error.
func (r *Reconciler) BatchCreate(ctx context.Context, universes []classify.UniverseResult, ownerID string) ([]SyncResult, error) {
	results := make([]SyncResult, len(universes))
	for i, u := range universes {
		results[i] = SyncResult{
			Universe:     u.Key,
			PlaylistName: r.PlaylistName(u.Key, u.Name),
			Action:       ActionNotRun,
			DryRun:       r.opts.DryRun,
		}
	}

	var (
		halted   atomic.Bool
		haltOnce sync.Once
		haltErr  error
	)

	var g errgroup.Group
	g.SetLimit(r.opts.Workers)
	for i, u := range universes {
		if ctx.Err() != nil || halted.Load() {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil || halted.Load() {
				return nil
			}
			res := r.syncUniverse(ctx, u, ownerID)
			results[i] = res
			if res.Fault != nil && !res.Fault.Continue() {
				halted.Store(true)
				haltOnce.Do(func() {
					haltErr = fmt.Errorf("%w: %w", ErrRunHalted, *res.Fault)
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.Action == ActionNotRun {
			r.record(res)
		}
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	if halted.Load() {
		logging.ErrorWithContext(r.logger, "sync run halted", "run_halted",
			logging.Error(haltErr),
			logging.String(logging.FieldErrorHint, faults.Recommendation(faults.CategorySystemFailure)),
		)
		return results, haltErr
	}
	return results, nil
}

func (r *Reconciler) syncUniverse(ctx context.Context, u classify.UniverseResult, ownerID string) SyncResult {
	name := r.PlaylistName(u.Key, u.Name)
	subject := fmt.Sprintf("universe %q (playlist %q)", u.Key, name)
	ctx = services.WithUniverse(ctx, u.Key)
	logger := logging.WithContext(ctx, r.logger)

	var res SyncResult
	if !u.Valid() {
		res = SyncResult{PlaylistName: name, Action: ActionFailed, DryRun: r.opts.DryRun}
		err := faults.Wrap(faults.ErrInvalidInput, u.Key, "validate universe", strings.Join(u.Validation.Errors, "; "), nil)
		record := faults.NewRecordWithCategory(subject, faults.CategoryInvalidInput, err)
		res.Fault = &record
		logging.WarnWithContext(logger, "universe failed validation", "universe_invalid",
			logging.Int("error_count", len(u.Validation.Errors)),
			logging.String("detail", record.Detail),
			logging.String(logging.FieldErrorHint, record.Recommendation),
			logging.String(logging.FieldImpact, "playlist left unchanged"),
		)
	} else {
		var err error
		res, err = r.createOrUpdate(ctx, name, u.MatchedIDs(), ownerID)
		switch {
		case err == nil:
		case faults.IsCancellation(err) || ctx.Err() != nil:
			res.Action = ActionNotRun
		default:
			record := faults.NewRecord(subject, err)
			res.Action = ActionFailed
			res.Fault = &record
			logging.ErrorWithContext(logger, "playlist sync failed", "playlist_failed",
				logging.Error(err),
				logging.String("category", record.Category.String()),
				logging.String("severity", record.Severity.String()),
				logging.String(logging.FieldErrorHint, record.Recommendation),
			)
		}
	}

	res.Universe = u.Key
	for _, key := range u.Missing() {
		res.Missing = append(res.Missing, key+" not found in library")
	}
	if len(res.Missing) > 0 && res.Action != ActionNotRun {
		logger.Info("universe has unmatched items",
			logging.String(logging.FieldEventType, "items_missing"),
			logging.Int("missing_count", len(res.Missing)),
		)
	}
	if res.Action != ActionNotRun {
		r.record(res)
	}
	return res
}

func (r *Reconciler) record(res SyncResult) {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	r.stats.ByAction[res.Action]++
	switch res.Action {
	case ActionCreated, ActionUpdated:
		r.stats.PlaylistsTouched++
		if !res.DryRun {
			r.stats.ItemsWritten += res.FinalCount
		}
	}
}

// Stats returns a snapshot of reconciler activity.
func (r *Reconciler) Stats() Stats {
	r.statsMu.Lock()
	defer r.statsMu.Unlock()
	out := Stats{
		PlaylistsTouched: r.stats.PlaylistsTouched,
		ItemsWritten:     r.stats.ItemsWritten,
		ByAction:         make(map[Action]int, len(r.stats.ByAction)),
	}
	for action, count := range r.stats.ByAction {
		out.ByAction[action] = count
	}
	return out
}
