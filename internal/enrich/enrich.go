// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich recovers direct PDF links for records that lack one. Two
// recovery routes run in order: the Unpaywall open-access resolver (for
// records with a DOI) and a landing-page scrape. Records that already carry a
// PDF link pass through untouched.
package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-harvester/internal/httputil"
	"github.com/pdiddy/paper-harvester/pkg/types"
)

// Stats counts enrichment outcomes for the run manifest.
type Stats struct {
	AlreadyHad int `json:"already_had" yaml:"already_had"`
	Resolved   int `json:"resolved" yaml:"resolved"`
	Scraped    int `json:"scraped" yaml:"scraped"`
	Unresolved int `json:"unresolved" yaml:"unresolved"`
}

// Enricher recovers PDF links. Zero value is not usable; construct with New.
type Enricher struct {
	client *http.Client
	policy httputil.Policy
	cfg    types.EnrichConfig
}

// New builds an Enricher over the given client.
func New(client *http.Client, cfg types.EnrichConfig) *Enricher {
	return &Enricher{
		client: client,
		policy: httputil.PolicyFrom(cfg.Retry),
		cfg:    cfg,
	}
}

// All enriches records in place and reports per-route counts. Enrichment is
// idempotent: a record with a PDF link is never re-queried, so running All
// twice performs no second round of requests. Route failures downgrade to
// warnings on w; a record that stays unresolved is still exported. A
// cancelled context stops further requests, counts the unvisited records,
// and returns the context error; the records themselves stay intact.
func (e *Enricher) All(ctx context.Context, records []types.Record, w io.Writer) (Stats, error) {
	var stats Stats
	for i := range records {
		if err := ctx.Err(); err != nil {
			for _, rest := range records[i:] {
				if rest.PDFURL != "" {
					stats.AlreadyHad++
				} else {
					stats.Unresolved++
				}
			}
			return stats, err
		}
		rec := &records[i]
		if rec.PDFURL != "" {
			stats.AlreadyHad++
			continue
		}

		if rec.DOI != "" {
			pdf, err := e.resolveUnpaywall(ctx, rec.DOI)
			if err != nil {
				fmt.Fprintf(w, "warning: open-access lookup failed for %s: %v\n", rec.DOI, err)
			} else if pdf != "" {
				rec.PDFURL = pdf
				stats.Resolved++
				continue
			}
		}

		if rec.LandingURL != "" {
			pdf, err := e.scrapeLanding(ctx, rec.LandingURL)
			if err != nil {
				fmt.Fprintf(w, "warning: landing-page scrape failed for %s: %v\n", rec.LandingURL, err)
			} else if pdf != "" && e.accept(ctx, pdf) {
				rec.PDFURL = pdf
				stats.Scraped++
				continue
			}
		}

		stats.Unresolved++
	}
	return stats, nil
}

// accept optionally probes a scraped candidate before trusting it. Resolver
// results are trusted without a probe.
func (e *Enricher) accept(ctx context.Context, pdfURL string) bool {
	if !e.cfg.ValidateLinks {
		return true
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, pdfURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	return strings.Contains(ct, "pdf") || strings.Contains(ct, "octet-stream") || ct == ""
}
