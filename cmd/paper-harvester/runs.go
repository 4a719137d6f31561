package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-harvester/internal/export"
	"github.com/pdiddy/paper-harvester/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past harvest runs from the store",
	Long: `Runs lists harvest runs persisted in the SQLite store, newest first.
With --records it re-exports one run's records as JSONL to stdout.`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().Int("limit", 10, "maximum number of runs to list")
	runsCmd.Flags().String("records", "", "print the records of this run ID as JSONL")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg := harvestConfig().Store
	if cfg.Path == "" {
		return fmt.Errorf("no store configured: set store_path in the config")
	}

	limit, _ := cmd.Flags().GetInt("limit")
	recordsOf, _ := cmd.Flags().GetString("records")

	s, err := store.Open(cfg.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	if recordsOf != "" {
		records, err := s.RunRecords(cmd.Context(), recordsOf)
		if err != nil {
			return err
		}
		return export.WriteJSONL(os.Stdout, records)
	}

	runs, err := s.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs recorded")
		return nil
	}

	for _, run := range runs {
		fmt.Printf("%s  %s  %q  %d records\n",
			run.StartedAt.Format("2006-01-02 15:04"), run.ID, run.Query, run.Exported)
	}
	return nil
}
