package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/faults"
	"curator/internal/playlist"
	"curator/internal/store"
	"curator/internal/syncrun"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var (
		dryRun    bool
		universes []string
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync one playlist per universe to the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, err := syncrun.OpenServices(cfg, logger)
			if err != nil {
				return err
			}
			defer svc.Close()

			runner, err := syncrun.New(syncrun.Options{
				Config:  cfg,
				Logger:  logger,
				Source:  svc.Source,
				Backend: svc.Backend,
				History: svc.Store,
			})
			if err != nil {
				return err
			}

			report, runErr := runner.Run(runCtx, syncrun.Request{Keys: universes, DryRun: dryRun})
			if jsonOut {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				printSyncReport(out, report, shouldColorize(out))
			}
			if runErr != nil {
				return runErr
			}
			if report.Status == store.RunPartial {
				return fmt.Errorf("sync finished with %d fault(s)", report.Summary.Total)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing playlists")
	cmd.Flags().StringSliceVarP(&universes, "universe", "u", nil, "Universe key to sync (repeatable, default all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run report as JSON")
	return cmd
}

func printSyncReport(out io.Writer, report *syncrun.Report, colorize bool) {
	if report == nil {
		return
	}
	title := "Sync " + report.RunID
	if report.DryRun {
		title += " (dry run)"
	}

	if len(report.Results) > 0 {
		rows := make([][]string, 0, len(report.Results))
		for _, res := range report.Results {
			fault := ""
			if res.Fault != nil {
				fault = res.Fault.Category.String()
			}
			rows = append(rows, []string{
				res.Universe,
				res.PlaylistName,
				paint(string(res.Action), statusKindColor(actionKind(res.Action)), colorize),
				strconv.Itoa(res.FinalCount),
				strconv.Itoa(len(res.Missing)),
				fault,
			})
		}
		fmt.Fprintln(out, renderTable(tableSpec{
			title:   title,
			headers: []string{"Universe", "Playlist", "Action", "Items", "Missing", "Fault"},
			aligns:  []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			rows:    rows,
			footer: []string{
				"", "", "",
				strconv.Itoa(report.Stats.ItemsWritten),
				"", strconv.Itoa(report.Summary.Total),
			},
		}))
	}

	fmt.Fprintln(out, renderStatusLine("Status", runStatusKind(report.Status), string(report.Status), colorize))
	fmt.Fprintln(out, renderStatusLine("Library", statusInfo,
		fmt.Sprintf("%d items indexed, %d skipped, %d provider keys", report.Index.ItemsIndexed, report.Index.ItemsSkipped, report.Index.Keys), colorize))
	fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, report.Duration().Round(time.Millisecond).String(), colorize))
	if report.Summary.Total > 0 {
		fmt.Fprintln(out, renderStatusLine("Faults", severityKind(report.Summary.OverallSeverity),
			fmt.Sprintf("%d (%d critical), overall %s", report.Summary.Total, report.Summary.CriticalErrors, report.Summary.OverallSeverity), colorize))
	}

	printFaultDetails(out, report, colorize)
	printMissing(out, report.Results, colorize)
}

func printFaultDetails(out io.Writer, report *syncrun.Report, colorize bool) {
	var records []faults.Record
	if report.Fault != nil {
		records = append(records, *report.Fault)
	}
	for _, res := range report.Results {
		if res.Fault != nil {
			records = append(records, *res.Fault)
		}
	}
	if len(records) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Faults", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, record := range records {
		fmt.Fprintln(out, paint("- "+record.Message, statusKindColor(severityKind(record.Severity)), colorize))
		if record.Detail != "" {
			fmt.Fprintf(out, "    %s\n", record.Detail)
		}
	}
	if len(report.Summary.Recommendations) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Recommendations", colorize) {
			fmt.Fprintln(out, line)
		}
		for _, rec := range report.Summary.Recommendations {
			fmt.Fprintf(out, "- %s\n", rec)
		}
	}
}

func printMissing(out io.Writer, results []playlist.SyncResult, colorize bool) {
	var lines []string
	for _, res := range results {
		if len(res.Missing) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", res.Universe, strings.Join(res.Missing, ", ")))
	}
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Missing items", colorize) {
		fmt.Fprintln(out, line)
	}
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
}

