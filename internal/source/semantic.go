// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-harvester/internal/httputil"
	"github.com/pdiddy/paper-harvester/pkg/types"
)

// semanticBase is the Semantic Scholar paper search endpoint. Declared as a
// var so tests can substitute an httptest server.
var semanticBase = "https://api.semanticscholar.org/graph/v1/paper/search"

// semanticFields selects the nested fields the normalizer needs;
// authors.name is the valid nested spelling.
const semanticFields = "title,abstract,year,externalIds,url,openAccessPdf,venue,authors.name"

// SemanticScholar queries the Semantic Scholar graph API with offset
// pagination. An API key is optional; without one the public quota applies.
type SemanticScholar struct {
	client  *http.Client
	limiter *rate.Limiter
	policy  httputil.Policy
	apiKey  string
}

// NewSemanticScholar builds the Semantic Scholar adapter.
func NewSemanticScholar(client *http.Client, cfg types.SourceConfig) *SemanticScholar {
	return &SemanticScholar{
		client:  client,
		limiter: newLimiter(cfg),
		policy:  httputil.PolicyFrom(cfg.Retry),
		apiKey:  cfg.SemanticScholarAPIKey,
	}
}

// Name returns the adapter identifier.
func (s *SemanticScholar) Name() string { return "semantic_scholar" }

type semanticResponse struct {
	Total int              `json:"total"`
	Data  []map[string]any `json:"data"`
}

// Fetch pages by offset until MaxPerSource records are collected or the
// result set is exhausted.
func (s *SemanticScholar) Fetch(ctx context.Context, q Query, cfg types.SourceConfig) ([]types.RawRecord, error) {
	step := q.MaxPerSource
	if step > 100 {
		step = 100
	}
	if step < 10 {
		step = 10
	}

	var headers map[string]string
	if s.apiKey != "" {
		headers = map[string]string{"x-api-key": s.apiKey}
	}

	var out []types.RawRecord
	for offset := 0; len(out) < q.MaxPerSource; offset += step {
		params := url.Values{
			"query":  {q.Topic},
			"limit":  {strconv.Itoa(step)},
			"offset": {strconv.Itoa(offset)},
			"fields": {semanticFields},
		}
		if yr := yearRange(q.YearFrom, q.YearTo); yr != "" {
			params.Set("year", yr)
		}

		var page semanticResponse
		if err := fetchJSON(ctx, s.client, s.limiter, s.policy, semanticBase+"?"+params.Encode(), cfg, headers, &page); err != nil {
			return out, fmt.Errorf("Semantic Scholar: %w", err)
		}
		if len(page.Data) == 0 {
			break
		}

		for _, paper := range page.Data {
			out = append(out, types.RawRecord{Source: s.Name(), Fields: paper})
			if len(out) >= q.MaxPerSource {
				break
			}
		}
	}
	return out, nil
}

// yearRange returns the Semantic Scholar year filter string (e.g. "2020-2023").
func yearRange(from, to int) string {
	switch {
	case from > 0 && to > 0:
		return fmt.Sprintf("%d-%d", from, to)
	case from > 0:
		return fmt.Sprintf("%d-", from)
	case to > 0:
		return fmt.Sprintf("-%d", to)
	default:
		return ""
	}
}
