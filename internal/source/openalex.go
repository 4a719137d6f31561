// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-harvester/internal/httputil"
	"github.com/pdiddy/paper-harvester/pkg/types"
)

// openAlexBase is the OpenAlex works search endpoint. Declared as a var so
// tests can substitute an httptest server.
var openAlexBase = "https://api.openalex.org/works"

// OpenAlex pages through the OpenAlex works index with cursor pagination.
type OpenAlex struct {
	client  *http.Client
	limiter *rate.Limiter
	policy  httputil.Policy
	email   string
}

// NewOpenAlex builds the OpenAlex adapter.
func NewOpenAlex(client *http.Client, cfg types.SourceConfig) *OpenAlex {
	return &OpenAlex{
		client:  client,
		limiter: newLimiter(cfg),
		policy:  httputil.PolicyFrom(cfg.Retry),
		email:   cfg.ContactEmail,
	}
}

// Name returns the adapter identifier.
func (s *OpenAlex) Name() string { return "openalex" }

type openAlexResponse struct {
	Meta struct {
		NextCursor string `json:"next_cursor"`
	} `json:"meta"`
	Results []map[string]any `json:"results"`
}

// Fetch pages through the works index until MaxPerSource records are
// collected or the cursor runs out. Partial results accompany any error.
func (s *OpenAlex) Fetch(ctx context.Context, q Query, cfg types.SourceConfig) ([]types.RawRecord, error) {
	perPage := q.MaxPerSource
	if perPage > 200 {
		perPage = 200
	}
	if perPage < 25 {
		perPage = 25
	}

	var out []types.RawRecord
	cursor := "" // first page is requested without a cursor
	for len(out) < q.MaxPerSource {
		params := url.Values{
			"search":   {q.Topic},
			"per-page": {fmt.Sprintf("%d", perPage)},
			"sort":     {"publication_date:desc"},
		}
		filters := []string{"type:journal-article|proceedings-article"}
		if q.YearFrom > 0 {
			filters = append(filters, fmt.Sprintf("from_publication_date:%d-01-01", q.YearFrom))
		}
		if q.YearTo > 0 {
			filters = append(filters, fmt.Sprintf("to_publication_date:%d-12-31", q.YearTo))
		}
		params.Set("filter", strings.Join(filters, ","))
		if s.email != "" {
			params.Set("mailto", s.email)
		}
		if cursor != "" {
			params.Set("cursor", cursor)
		}

		var page openAlexResponse
		if err := fetchJSON(ctx, s.client, s.limiter, s.policy, openAlexBase+"?"+params.Encode(), cfg, nil, &page); err != nil {
			return out, fmt.Errorf("OpenAlex: %w", err)
		}

		for _, work := range page.Results {
			out = append(out, types.RawRecord{Source: s.Name(), Fields: work})
			if len(out) >= q.MaxPerSource {
				break
			}
		}

		cursor = page.Meta.NextCursor
		if cursor == "" || len(page.Results) == 0 {
			break
		}
	}
	return out, nil
}
