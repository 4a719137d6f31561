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

// crossrefBase is the Crossref works endpoint. Declared as a var so tests
// can substitute an httptest server.
var crossrefBase = "https://api.crossref.org/works"

// Crossref pages through the Crossref works index with deep-cursor
// pagination.
type Crossref struct {
	client  *http.Client
	limiter *rate.Limiter
	policy  httputil.Policy
	email   string
}

// NewCrossref builds the Crossref adapter.
func NewCrossref(client *http.Client, cfg types.SourceConfig) *Crossref {
	return &Crossref{
		client:  client,
		limiter: newLimiter(cfg),
		policy:  httputil.PolicyFrom(cfg.Retry),
		email:   cfg.ContactEmail,
	}
}

// Name returns the adapter identifier.
func (s *Crossref) Name() string { return "crossref" }

type crossrefResponse struct {
	Message struct {
		NextCursor string           `json:"next-cursor"`
		Items      []map[string]any `json:"items"`
	} `json:"message"`
}

// Fetch pages with the deep cursor until MaxPerSource records are collected
// or the result set is exhausted.
func (s *Crossref) Fetch(ctx context.Context, q Query, cfg types.SourceConfig) ([]types.RawRecord, error) {
	rows := q.MaxPerSource
	if rows > 100 {
		rows = 100
	}
	if rows < 1 {
		rows = 1
	}

	var out []types.RawRecord
	cursor := "*"
	for len(out) < q.MaxPerSource {
		params := url.Values{
			"query":  {q.Topic},
			"rows":   {fmt.Sprintf("%d", rows)},
			"cursor": {cursor},
		}
		filters := []string{"type:journal-article"}
		if q.YearFrom > 0 {
			filters = append(filters, fmt.Sprintf("from-pub-date:%d-01-01", q.YearFrom))
		}
		if q.YearTo > 0 {
			filters = append(filters, fmt.Sprintf("until-pub-date:%d-12-31", q.YearTo))
		}
		params.Set("filter", strings.Join(filters, ","))
		if s.email != "" {
			params.Set("mailto", s.email)
		}

		var page crossrefResponse
		if err := fetchJSON(ctx, s.client, s.limiter, s.policy, crossrefBase+"?"+params.Encode(), cfg, nil, &page); err != nil {
			return out, fmt.Errorf("Crossref: %w", err)
		}

		for _, item := range page.Message.Items {
			out = append(out, types.RawRecord{Source: s.Name(), Fields: item})
			if len(out) >= q.MaxPerSource {
				break
			}
		}

		cursor = page.Message.NextCursor
		if cursor == "" || len(page.Message.Items) == 0 {
			break
		}
	}
	return out, nil
}
