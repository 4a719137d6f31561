// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper-harvester pipeline.
package types

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// RawRecord is a provider-specific payload as returned by one source adapter.
// Fields holds the provider's own field names and value shapes; the
// normalizer owns the extraction rules. RawRecords exist only between fetch
// and normalization.
type RawRecord struct {
	// Source identifies the adapter that produced this record (e.g. "openalex").
	Source string

	// Fields is the provider's record object, decoded as-is.
	Fields map[string]any
}

// Record is the canonical, schema-normalized representation of one paper.
// String fields use "" for absent values and Year uses nil, so downstream
// merge logic can distinguish missing from known.
type Record struct {
	// Title is the paper title. Required: normalization drops records
	// without one.
	Title string `json:"title" yaml:"title"`

	// Authors lists author display names in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year, nil when the source did not provide one.
	Year *int `json:"year" yaml:"year"`

	// DOI is the bare DOI, lowercased, with any resolver prefix stripped.
	// Two records with equal DOIs denote the same paper.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Venue is the journal or conference name.
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// PDFURL is a direct link to an openly accessible PDF, when known.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// LandingURL is the paper's publisher-hosted HTML page.
	LandingURL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Sources names every provider that contributed to this record.
	Sources []string `json:"sources" yaml:"sources"`

	// Score is the topical relevance score assigned during normalization.
	Score float64 `json:"_score" yaml:"_score"`
}

// Key returns a stable, filesystem-safe identity for the record: the DOI
// slug when one exists, otherwise a hash of title and year.
func (r Record) Key() string {
	if r.DOI != "" {
		return strings.NewReplacer("/", "-", ":", "-").Replace(r.DOI)
	}
	year := 0
	if r.Year != nil {
		year = *r.Year
	}
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%d", strings.ToLower(r.Title), year)))
	return fmt.Sprintf("rec-%x", h[:8])
}

// HasSource reports whether name already appears in Sources.
func (r Record) HasSource(name string) bool {
	for _, s := range r.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// Year value helpers. YearOf returns a pointer for literal years in
// construction code; YearValue unwraps with a zero default.

// YearOf returns a pointer to y.
func YearOf(y int) *int { return &y }

// YearValue returns the year or 0 when unset.
func (r Record) YearValue() int {
	if r.Year == nil {
		return 0
	}
	return *r.Year
}
