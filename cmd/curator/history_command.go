package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"curator/internal/playlist"
	"curator/internal/store"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit   int
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			runs, err := st.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if jsonOut {
				if runs == nil {
					runs = []store.RunRecord{}
				}
				return writeJSON(cmd, runs)
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No sync runs recorded")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.StartedAt.Local().Format(time.DateTime),
					paint(string(run.Status), statusKindColor(runStatusKind(run.Status)), colorize),
					run.Backend,
					yesNo(run.DryRun),
					strconv.Itoa(run.Actions[playlist.ActionCreated]),
					strconv.Itoa(run.Actions[playlist.ActionUpdated]),
					strconv.Itoa(run.Actions[playlist.ActionSkipped]),
					strconv.Itoa(run.Actions[playlist.ActionFailed]),
					strconv.Itoa(run.Actions[playlist.ActionNotRun]),
					strconv.Itoa(run.Summary.Total),
					run.Duration().Round(time.Millisecond).String(),
				})
			}
			fmt.Fprintln(out, renderTable(tableSpec{
				headers: []string{"Started", "Status", "Backend", "Dry run", "Created", "Updated", "Skipped", "Failed", "Not run", "Faults", "Duration"},
				aligns: []columnAlignment{
					alignLeft, alignLeft, alignLeft, alignLeft,
					alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight,
				},
				rows: rows,
			}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print runs as JSON")
	return cmd
}
