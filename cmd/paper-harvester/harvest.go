// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-harvester/internal/export"
	"github.com/pdiddy/paper-harvester/internal/pipeline"
	"github.com/pdiddy/paper-harvester/internal/source"
	"github.com/pdiddy/paper-harvester/internal/store"
	"github.com/pdiddy/paper-harvester/pkg/types"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Query literature APIs and export merged records",
	Long: `Harvest fans a topic query out to the enabled literature APIs, normalizes
the responses into a single schema, merges duplicates across sources, and
recovers open-access PDF links for records that lack one.

The merged records are written as JSONL (one record per line) and optionally
CSV, together with a YAML manifest describing the run. A source that fails
mid-run contributes whatever it fetched; only an empty query or zero enabled
sources abort the run.`,
	RunE: runHarvest,
}

func init() {
	harvestCmd.Flags().String("query", "", "topic keywords to search for")
	harvestCmd.Flags().Int("from-year", 0, "earliest publication year")
	harvestCmd.Flags().Int("to-year", 0, "latest publication year")
	harvestCmd.Flags().Int("max-per-source", 100, "maximum records fetched per source")
	harvestCmd.Flags().Bool("strict", false, "drop records below the relevance score threshold")
	harvestCmd.Flags().Bool("no-enrich", false, "skip the PDF-link recovery stage")
	harvestCmd.Flags().String("out", "papers.jsonl", "JSONL output path")
	harvestCmd.Flags().String("csv", "", "also write a CSV view to this path")
	harvestCmd.Flags().String("manifest", "", "run manifest path (default: <out>.run.yaml)")
	harvestCmd.Flags().String("store", "", "also persist the run to this SQLite database")

	rootCmd.AddCommand(harvestCmd)
}

func runHarvest(cmd *cobra.Command, args []string) error {
	query, _ := cmd.Flags().GetString("query")
	fromYear, _ := cmd.Flags().GetInt("from-year")
	toYear, _ := cmd.Flags().GetInt("to-year")
	maxPerSource, _ := cmd.Flags().GetInt("max-per-source")
	strict, _ := cmd.Flags().GetBool("strict")
	noEnrich, _ := cmd.Flags().GetBool("no-enrich")
	outPath, _ := cmd.Flags().GetString("out")
	csvPath, _ := cmd.Flags().GetString("csv")
	manifestPath, _ := cmd.Flags().GetString("manifest")
	storePath, _ := cmd.Flags().GetString("store")

	cfg := harvestConfig()
	if storePath != "" {
		cfg.Store.Path = storePath
	}
	q := source.Query{
		Topic:        query,
		YearFrom:     fromYear,
		YearTo:       toYear,
		MaxPerSource: maxPerSource,
	}
	opts := pipeline.Options{Strict: strict, SkipEnrich: noEnrich}

	result, err := pipeline.Run(cmd.Context(), q, pipeline.Sources(cfg), cfg, opts, os.Stderr)
	if err != nil {
		return err
	}

	if err := writeRecords(outPath, csvPath, result.Records); err != nil {
		return err
	}

	if manifestPath == "" {
		manifestPath = outPath + ".run.yaml"
	}
	if err := writeManifest(manifestPath, result.Manifest); err != nil {
		return err
	}

	if cfg.Store.Path != "" {
		if err := persistRun(cmd, cfg.Store, result); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not persist run: %v\n", err)
		}
	}

	fmt.Fprintf(os.Stderr, "exported %d records to %s\n", len(result.Records), outPath)
	return nil
}

func writeRecords(outPath, csvPath string, records []types.Record) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	defer out.Close()
	if err := export.WriteJSONL(out, records); err != nil {
		return err
	}

	if csvPath == "" {
		return nil
	}
	cf, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", csvPath, err)
	}
	defer cf.Close()
	return export.WriteCSV(cf, records)
}

func writeManifest(path string, m export.Manifest) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return export.WriteManifest(f, m)
}

func persistRun(cmd *cobra.Command, cfg types.StoreConfig, result pipeline.Result) error {
	s, err := store.Open(cfg.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	run := store.Run{
		ID:        result.Manifest.RunID,
		Query:     result.Manifest.Query,
		YearFrom:  result.Manifest.YearFrom,
		YearTo:    result.Manifest.YearTo,
		StartedAt: result.Manifest.StartedAt,
		Exported:  len(result.Records),
	}
	if err := s.SaveRun(cmd.Context(), run); err != nil {
		return err
	}
	return s.SaveRecords(cmd.Context(), run.ID, result.Records)
}
