// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes harvest results to their on-disk formats: JSONL and
// CSV for records, CSV for the failure report, and a YAML manifest describing
// the run.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-harvester/internal/enrich"
	"github.com/pdiddy/paper-harvester/pkg/types"
)

// WriteJSONL writes one JSON object per line. JSONL is the primary output
// format; every record field survives the round trip.
func WriteJSONL(w io.Writer, records []types.Record) error {
	enc := json.NewEncoder(w)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
	}
	return nil
}

// csvHeader is the flat column layout for spreadsheet review. Authors are
// joined; sources likewise.
var csvHeader = []string{"title", "authors", "year", "doi", "venue", "pdf_url", "url", "sources", "_score"}

// WriteCSV writes a flattened spreadsheet view of the records.
func WriteCSV(w io.Writer, records []types.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, rec := range records {
		year := ""
		if rec.Year != nil {
			year = strconv.Itoa(*rec.Year)
		}
		row := []string{
			rec.Title,
			joinList(rec.Authors),
			year,
			rec.DOI,
			rec.Venue,
			rec.PDFURL,
			rec.LandingURL,
			joinList(rec.Sources),
			strconv.FormatFloat(rec.Score, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFailures writes the failure report CSV consumed by retry tooling.
func WriteFailures(w io.Writer, ledger types.FailureLedger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"title", "pdf_url", "url", "status", "reason", "attempts"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, r := range ledger {
		row := []string{r.Title, r.URL, r.LandingURL, string(r.Status), r.Reason, strconv.Itoa(r.Attempts)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing failure row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func joinList(items []string) string {
	return strings.Join(items, "; ")
}

// Manifest describes one harvest run for later inspection.
type Manifest struct {
	RunID     string    `yaml:"run_id"`
	Query     string    `yaml:"query"`
	YearFrom  int       `yaml:"year_from,omitempty"`
	YearTo    int       `yaml:"year_to,omitempty"`
	StartedAt time.Time `yaml:"started_at"`

	PerSource map[string]int `yaml:"per_source"`

	Normalized int `yaml:"normalized"`
	Dropped    int `yaml:"dropped"`
	Merged     int `yaml:"merged"`
	Exported   int `yaml:"exported"`

	Enrich enrich.Stats `yaml:"enrich,omitempty"`

	SourceErrors []string `yaml:"source_errors,omitempty"`
}

// NewManifest builds a manifest with a fresh run ID.
func NewManifest(query string, yearFrom, yearTo int) Manifest {
	return Manifest{
		RunID:     uuid.NewString(),
		Query:     query,
		YearFrom:  yearFrom,
		YearTo:    yearTo,
		StartedAt: time.Now().UTC(),
		PerSource: map[string]int{},
	}
}

// WriteManifest writes the run manifest as YAML.
func WriteManifest(w io.Writer, m Manifest) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return nil
}
