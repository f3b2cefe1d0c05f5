package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/clarityhq/claritymark/internal/config"
	"github.com/clarityhq/claritymark/internal/database"
	"github.com/clarityhq/claritymark/internal/log"
	"github.com/clarityhq/claritymark/internal/report"
)

// NewRunsCmd creates the runs command.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List past highlight runs",
		Long: `Runs lists the highlight runs recorded in the history database,
newest first. Markers are never persisted; the history records only
that a run happened and what it reported.

Examples:
  # Show the most recent runs
  claritymark runs

  # Runs against one source, as JSON
  claritymark runs --source https://example.com/article --json`,
		RunE: runRunsCmd,
	}

	cmd.Flags().StringP("source", "s", "", "Only runs against this source")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().BoolP("json", "j", false, "JSON output")

	return cmd
}

// runRunsCmd executes the runs command.
func runRunsCmd(cmd *cobra.Command, _ []string) error {
	verbose := getVerboseFlag(cmd)
	logger := log.NewLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	source, err := cmd.Flags().GetString("source")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	history, err := database.Open(config.XDGDataDir(), database.Options{CreateIfNotExists: false})
	if err != nil {
		return fmt.Errorf("no run history found: %w", err)
	}
	defer history.Close()

	records, err := history.ListRuns(cmd.Context(), source, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	if jsonOut {
		w := report.NewJSONWriter(os.Stdout, report.WithPrettyPrint())
		for _, rec := range records {
			if _, err := w.Write(rec.Report); err != nil {
				return err
			}
		}
		return nil
	}

	w := report.NewSimpleWriter(os.Stdout, report.WithVerbose(verbose))
	for _, rec := range records {
		fmt.Printf("Run #%d\n", rec.ID)
		if _, err := w.Write(rec.Report); err != nil {
			return err
		}
	}
	return nil
}
