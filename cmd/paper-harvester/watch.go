// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-harvester/internal/pipeline"
	"github.com/pdiddy/paper-harvester/internal/source"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the harvest on a schedule",
	Long: `Watch runs the harvest pipeline on a cron schedule and writes each run's
output to a timestamped JSONL file in the output directory. It blocks until
interrupted.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().String("query", "", "topic keywords to search for")
	watchCmd.Flags().String("schedule", "0 6 * * *", "cron schedule (standard five-field syntax)")
	watchCmd.Flags().Int("from-year", 0, "earliest publication year")
	watchCmd.Flags().Int("max-per-source", 100, "maximum records fetched per source")
	watchCmd.Flags().Bool("strict", false, "drop records below the relevance score threshold")
	watchCmd.Flags().String("outdir", "harvests", "directory for timestamped outputs")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	schedule, _ := cmd.Flags().GetString("schedule")
	fromYear, _ := cmd.Flags().GetInt("from-year")
	maxPerSource, _ := cmd.Flags().GetInt("max-per-source")
	strict, _ := cmd.Flags().GetBool("strict")
	outDir, _ := cmd.Flags().GetString("outdir")

	if query == "" {
		return fmt.Errorf("query is empty: provide topic keywords")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	cfg := harvestConfig()
	q := source.Query{Topic: query, YearFrom: fromYear, MaxPerSource: maxPerSource}
	opts := pipeline.Options{Strict: strict}

	runOnce := func() {
		stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
		outPath := filepath.Join(outDir, "papers-"+stamp+".jsonl")

		result, err := pipeline.Run(cmd.Context(), q, pipeline.Sources(cfg), cfg, opts, os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: scheduled harvest failed: %v\n", err)
			return
		}
		if err := writeRecords(outPath, "", result.Records); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not write %s: %v\n", outPath, err)
			return
		}
		if err := writeManifest(outPath+".run.yaml", result.Manifest); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not write manifest: %v\n", err)
		}
		fmt.Fprintf(os.Stderr, "exported %d records to %s\n", len(result.Records), outPath)
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, runOnce); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	fmt.Fprintf(os.Stderr, "watching: schedule %q, output %s\n", schedule, outDir)
	c.Start()
	defer c.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sig:
	case <-cmd.Context().Done():
	}
	return nil
}
