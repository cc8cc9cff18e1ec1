package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"curator/internal/classify"
	"curator/internal/config"
	"curator/internal/media"
	"curator/internal/textutil"
	"curator/internal/universe"
)

type universeValidation struct {
	Key        string                       `json:"key"`
	Name       string                       `json:"name"`
	Validation classify.ValidationResult    `json:"validation"`
	Analysis   classify.ContentTypeAnalysis `json:"analysis"`
}

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var (
		filePath  string
		universes []string
		jsonOut   bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check universe definitions without touching any backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := strings.TrimSpace(filePath)
			if path == "" {
				path = cfg.Paths.UniversesFile
			} else if path, err = config.ExpandPath(path); err != nil {
				return fmt.Errorf("resolve universes path: %w", err)
			}

			loaded, err := universe.Load(path)
			if err != nil {
				return err
			}
			selected, err := universe.Select(loaded, universes)
			if err != nil {
				return err
			}

			classifier := classify.New(nil, classify.Options{SupportedProviders: cfg.Sync.SupportedProviders})
			results := make([]universeValidation, 0, len(selected))
			invalid := 0
			for _, u := range selected {
				res := validateUniverse(classifier, u)
				if !res.Validation.IsValid {
					invalid++
				}
				results = append(results, res)
			}

			if jsonOut {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				printValidation(cmd, path, results)
			}
			if invalid > 0 {
				return fmt.Errorf("%d of %d universes failed validation", invalid, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Universe file to check (default paths.universes_file)")
	cmd.Flags().StringSliceVarP(&universes, "universe", "u", nil, "Universe key to check (repeatable, default all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON")
	return cmd
}

func validateUniverse(classifier *classify.Classifier, u media.Universe) universeValidation {
	return universeValidation{
		Key:        u.Key,
		Name:       u.DisplayName(),
		Validation: classifier.Validate(u.Items),
		Analysis:   classify.AnalyzeTypes(u.Items),
	}
}

func printValidation(cmd *cobra.Command, path string, results []universeValidation) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		kind, label := statusOK, "valid"
		if !res.Validation.IsValid {
			kind, label = statusError, fmt.Sprintf("%d error(s)", len(res.Validation.Errors))
		}
		row := []string{res.Key, res.Name, strconv.Itoa(res.Analysis.Total)}
		for _, ct := range media.ContentTypes {
			row = append(row, strconv.Itoa(res.Analysis.Counts[ct.String()]))
		}
		rows = append(rows, append(row, yesNo(res.Analysis.IsMixed), paint(label, statusKindColor(kind), colorize)))
	}

	headers := []string{"Key", "Name", "Items"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight}
	for _, ct := range media.ContentTypes {
		headers = append(headers, textutil.Label(ct.String())+"s")
		aligns = append(aligns, alignRight)
	}
	fmt.Fprintln(out, renderTable(tableSpec{
		title:   path,
		headers: append(headers, "Mixed", "Status"),
		aligns:  append(aligns, alignLeft, alignLeft),
		rows:    rows,
	}))

	for _, res := range results {
		if res.Validation.IsValid {
			continue
		}
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader(res.Key, colorize) {
			fmt.Fprintln(out, line)
		}
		for _, msg := range res.Validation.Errors {
			fmt.Fprintf(out, "- %s\n", msg)
		}
	}
}
