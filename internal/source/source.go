// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source queries literature APIs behind a uniform adapter contract
// and streams provider-specific raw records into the pipeline.
package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-harvester/internal/httputil"
	"github.com/pdiddy/paper-harvester/pkg/types"
)

// Source fetches raw records from a single literature API. Each adapter owns
// its own pagination, rate limiter, and backoff policy; new providers are
// added by implementing this interface, never by branching on a provider
// name in shared logic.
type Source interface {
	Name() string
	Fetch(ctx context.Context, q Query, cfg types.SourceConfig) ([]types.RawRecord, error)
}

// Query holds the harvest parameters.
type Query struct {
	// Topic is the free-text topic query.
	Topic string

	// YearFrom and YearTo bound the publication year; zero means unbounded
	// on that side.
	YearFrom int
	YearTo   int

	// MaxPerSource caps the records fetched from each source.
	MaxPerSource int
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool { return q.Topic == "" }

// Output holds the combined raw records and per-source statistics from one
// harvest fan-out.
type Output struct {
	Raw          []types.RawRecord
	PerSource    map[string]int
	SourceErrors []string
}

// Enabled builds the configured adapters in fixed priority order. The order
// decides which source wins ties during merging, so it is part of the
// pipeline's deterministic behavior.
func Enabled(client *http.Client, cfg types.SourceConfig) []Source {
	var sources []Source
	if cfg.EnableOpenAlex {
		sources = append(sources, NewOpenAlex(client, cfg))
	}
	if cfg.EnableCrossref {
		sources = append(sources, NewCrossref(client, cfg))
	}
	if cfg.EnableArxiv {
		sources = append(sources, NewArxiv(client, cfg))
	}
	if cfg.EnableSemanticScholar {
		sources = append(sources, NewSemanticScholar(client, cfg))
	}
	if cfg.EnableDOAJ {
		sources = append(sources, NewDOAJ(client, cfg))
	}
	return sources
}

// Harvest fans the query out to all sources concurrently and returns the
// combined raw records in source-registration order. A source that fails
// part-way contributes whatever it fetched before failing; its error is
// reported as a warning, never as a run failure. Only an empty query or an
// empty source list is a run-level error.
func Harvest(ctx context.Context, q Query, sources []Source, cfg types.SourceConfig, w io.Writer) (Output, error) {
	if q.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty: provide topic keywords")
	}
	if len(sources) == 0 {
		return Output{}, fmt.Errorf("no sources enabled")
	}

	type sourceResult struct {
		records []types.RawRecord
		err     error
	}

	results := make([]sourceResult, len(sources))
	var wg sync.WaitGroup
	for i, s := range sources {
		wg.Add(1)
		go func(i int, s Source) {
			defer wg.Done()
			records, err := s.Fetch(ctx, q, cfg)
			results[i] = sourceResult{records: records, err: err}
		}(i, s)
	}
	wg.Wait()

	out := Output{PerSource: make(map[string]int)}
	for i, s := range sources {
		r := results[i]
		if r.err != nil {
			msg := fmt.Sprintf("%s: %v", s.Name(), r.err)
			out.SourceErrors = append(out.SourceErrors, msg)
			fmt.Fprintf(w, "warning: source %s failed: %v\n", s.Name(), r.err)
		}
		if len(r.records) > 0 {
			out.Raw = append(out.Raw, r.records...)
		}
		out.PerSource[s.Name()] = len(r.records)
		fmt.Fprintf(w, "%s: %d records\n", s.Name(), len(r.records))
	}
	return out, nil
}

// newLimiter builds the per-adapter rate limiter (default 2 req/s).
func newLimiter(cfg types.SourceConfig) *rate.Limiter {
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 2
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// fetchJSON performs one rate-limited, retried GET and decodes the JSON body
// into v. Non-200 responses after retries are terminal for the calling
// adapter's sequence.
func fetchJSON(ctx context.Context, client *http.Client, limiter *rate.Limiter, p httputil.Policy, reqURL string, cfg types.SourceConfig, headers map[string]string, v any) error {
	if err := limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/json")
	for k, val := range headers {
		req.Header.Set(k, val)
	}

	resp, err := httputil.Do(ctx, client, req, p)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
