package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"curator/internal/faults"
	"curator/internal/playlist"
)

// RunStatus is the final state of a sync run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunPartial   RunStatus = "partial"
	RunHalted    RunStatus = "halted"
	RunCancelled RunStatus = "cancelled"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one persisted sync run.
type RunRecord struct {
	ID           string                  `json:"id"`
	StartedAt    time.Time               `json:"started_at"`
	FinishedAt   time.Time               `json:"finished_at"`
	Backend      string                  `json:"backend"`
	DryRun       bool                    `json:"dry_run"`
	Status       RunStatus               `json:"status"`
	Universes    int                     `json:"universes"`
	Actions      map[playlist.Action]int `json:"actions"`
	ItemsWritten int                     `json:"items_written"`
	Summary      faults.BatchSummary     `json:"summary"`
	Results      []playlist.SyncResult   `json:"results,omitempty"`
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RecordRun stores a finished run.
func (s *Store) RecordRun(ctx context.Context, run RunRecord) error {
	summaryJSON, err := json.Marshal(run.Summary)
	if err != nil {
		return fmt.Errorf("encode run summary: %w", err)
	}
	results := run.Results
	if results == nil {
		results = []playlist.SyncResult{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode run results: %w", err)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs (
				id, started_at, finished_at, backend, dry_run, status, universes,
				created, updated, skipped, failed, not_run, items_written,
				overall_severity, summary_json, results_json
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID,
			run.StartedAt.UTC().Format(timestampLayout),
			run.FinishedAt.UTC().Format(timestampLayout),
			run.Backend,
			run.DryRun,
			string(run.Status),
			run.Universes,
			run.Actions[playlist.ActionCreated],
			run.Actions[playlist.ActionUpdated],
			run.Actions[playlist.ActionSkipped],
			run.Actions[playlist.ActionFailed],
			run.Actions[playlist.ActionNotRun],
			run.ItemsWritten,
			run.Summary.OverallSeverity.String(),
			string(summaryJSON),
			string(resultsJSON),
		)
		if err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		return nil
	})
}

// RecentRuns returns up to limit runs, newest first. Per-universe results are
// included.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, backend, dry_run, status, universes,
			created, updated, skipped, failed, not_run, items_written,
			summary_json, results_json
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			run                                     RunRecord
			started, finished, status, summary, res string
			created, updated, skipped, failed, nr   int
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.Backend, &run.DryRun, &status, &run.Universes,
			&created, &updated, &skipped, &failed, &nr, &run.ItemsWritten, &summary, &res); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.StartedAt, err = time.Parse(timestampLayout, started); err != nil {
			return nil, fmt.Errorf("parse run start %q: %w", started, err)
		}
		if run.FinishedAt, err = time.Parse(timestampLayout, finished); err != nil {
			return nil, fmt.Errorf("parse run finish %q: %w", finished, err)
		}
		run.Status = RunStatus(status)
		run.Actions = map[playlist.Action]int{
			playlist.ActionCreated: created,
			playlist.ActionUpdated: updated,
			playlist.ActionSkipped: skipped,
			playlist.ActionFailed:  failed,
			playlist.ActionNotRun:  nr,
		}
		if err := json.Unmarshal([]byte(summary), &run.Summary); err != nil {
			return nil, fmt.Errorf("decode run summary %s: %w", run.ID, err)
		}
		if err := json.Unmarshal([]byte(res), &run.Results); err != nil {
			return nil, fmt.Errorf("decode run results %s: %w", run.ID, err)
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}
