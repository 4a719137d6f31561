// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/paper-harvester/internal/download"
	"github.com/pdiddy/paper-harvester/internal/export"
	"github.com/pdiddy/paper-harvester/internal/store"
	"github.com/pdiddy/paper-harvester/pkg/types"
)

var downloadCmd = &cobra.Command{
	Use:   "download [records.jsonl]",
	Short: "Download and verify PDFs for harvested records",
	Long: `Download reads a harvested JSONL file, fetches each record's PDF through a
bounded worker pool, and verifies every payload is structurally a PDF before
storing it in a zip archive. Mislabeled HTML pages and truncated files are
rejected.

Every record ends in exactly one status; non-success outcomes are written to
a failure report CSV so they can be retried or fetched by hand.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDownload,
}

func init() {
	downloadCmd.Flags().Int("concurrency", 4, "number of parallel download workers")
	downloadCmd.Flags().String("outdir", "downloads", "directory for the archive and failure report")
	downloadCmd.Flags().String("archive", "", "zip archive path (default: <outdir>/papers.zip)")
	downloadCmd.Flags().String("fail-log", "", "failure report CSV path (default: <outdir>/failed_downloads.csv)")
	downloadCmd.Flags().String("run-id", "", "persist results under this run in the store")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	inPath := "papers.jsonl"
	if len(args) == 1 {
		inPath = args[0]
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	outDir, _ := cmd.Flags().GetString("outdir")
	archivePath, _ := cmd.Flags().GetString("archive")
	failLog, _ := cmd.Flags().GetString("fail-log")
	runID, _ := cmd.Flags().GetString("run-id")

	if archivePath == "" {
		archivePath = filepath.Join(outDir, "papers.zip")
	}
	if failLog == "" {
		failLog = filepath.Join(outDir, "failed_downloads.csv")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	records, err := readRecords(inPath)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no records in %s", inPath)
	}

	cfg := harvestConfig().Download
	cfg.Concurrency = concurrency
	cfg.ArchivePath = archivePath

	archive, err := download.CreateArchive(archivePath)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Timeout}
	summary := download.New(client, cfg).All(cmd.Context(), records, archive, os.Stderr)

	if err := archive.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}

	if err := writeFailures(failLog, summary.Ledger); err != nil {
		return err
	}

	if runID != "" {
		if err := persistResults(cmd, runID, summary.Results); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not persist results: %v\n", err)
		}
	}

	fmt.Fprintf(os.Stderr, "downloaded %d of %d records (%d failed, report: %s)\n",
		summary.Succeeded, len(records), summary.Failed, failLog)
	return nil
}

// readRecords loads harvested records from a JSONL file.
func readRecords(path string) ([]types.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []types.Record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), 1<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec types.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", path, len(records)+1, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

func writeFailures(path string, ledger types.FailureLedger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	return export.WriteFailures(f, ledger)
}

func persistResults(cmd *cobra.Command, runID string, results []types.DownloadResult) error {
	cfg := harvestConfig().Store
	if cfg.Path == "" {
		return fmt.Errorf("no store configured")
	}

	s, err := store.Open(cfg.Path)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.SaveResults(cmd.Context(), runID, results)
}
