// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline composes the harvest stages: fan-out source queries,
// normalize, score, deduplicate, and enrich. The download/verify pass is a
// separate command and not part of Run.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/paper-harvester/internal/dedup"
	"github.com/pdiddy/paper-harvester/internal/enrich"
	"github.com/pdiddy/paper-harvester/internal/export"
	"github.com/pdiddy/paper-harvester/internal/normalize"
	"github.com/pdiddy/paper-harvester/internal/source"
	"github.com/pdiddy/paper-harvester/pkg/types"
)

// Sources builds the configured adapters over a client sized by the source
// HTTP settings.
func Sources(cfg types.HarvestConfig) []source.Source {
	client := &http.Client{Timeout: cfg.Sources.Timeout}
	return source.Enabled(client, cfg.Sources)
}

// Result is one pipeline run's output: the export-ready records and the run
// manifest describing how they were produced.
type Result struct {
	Records  []types.Record
	Manifest export.Manifest
}

// Options selects per-run behavior on top of the configuration.
type Options struct {
	// Strict drops records whose relevance score is below
	// cfg.StrictMinScore.
	Strict bool

	// SkipEnrich disables the PDF-link recovery stage.
	SkipEnrich bool
}

// Run executes harvest through enrichment over the given sources and returns
// export-ready records, sorted for output. Partial source failures and
// mid-run cancellation downgrade to warnings on w, keeping whatever was
// fetched before; the run fails only when the query is empty or no source is
// given.
func Run(ctx context.Context, q source.Query, sources []source.Source, cfg types.HarvestConfig, opts Options, w io.Writer) (Result, error) {
	manifest := export.NewManifest(q.Topic, q.YearFrom, q.YearTo)

	harvested, err := source.Harvest(ctx, q, sources, cfg.Sources, w)
	if err != nil {
		return Result{}, err
	}
	manifest.PerSource = harvested.PerSource
	manifest.SourceErrors = harvested.SourceErrors

	records, dropped := normalize.All(harvested.Raw)
	manifest.Normalized = len(records)
	manifest.Dropped = dropped
	if dropped > 0 {
		fmt.Fprintf(w, "warning: dropped %d malformed records\n", dropped)
	}

	normalize.ScoreAll(records, q.Topic)
	if opts.Strict {
		before := len(records)
		records = normalize.FilterStrict(records, cfg.StrictMinScore)
		fmt.Fprintf(w, "strict filter: kept %d of %d records\n", len(records), before)
	}

	records = dedup.Merge(records, cfg.Dedup)
	manifest.Merged = len(records)
	fmt.Fprintf(w, "after merge: %d records\n", len(records))

	if !opts.SkipEnrich {
		enrichClient := &http.Client{Timeout: cfg.Enrich.Timeout}
		stats, err := enrich.New(enrichClient, cfg.Enrich).All(ctx, records, w)
		if err != nil {
			// Cancellation mid-enrichment keeps everything harvested so
			// far; records not yet visited export without a PDF link.
			fmt.Fprintf(w, "warning: enrichment interrupted: %v\n", err)
		}
		manifest.Enrich = stats
		fmt.Fprintf(w, "pdf links: %d carried, %d resolved, %d scraped, %d unresolved\n",
			stats.AlreadyHad, stats.Resolved, stats.Scraped, stats.Unresolved)
	}

	normalize.SortForExport(records)
	manifest.Exported = len(records)

	return Result{Records: records, Manifest: manifest}, nil
}
