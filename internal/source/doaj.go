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

// doajBase is the DOAJ v4 article search endpoint; the query is embedded in
// the request path. Declared as a var so tests can substitute an httptest
// server.
var doajBase = "https://doaj.org/api/search/articles/"

// DOAJ queries the Directory of Open Access Journals with page/page_size
// pagination.
type DOAJ struct {
	client  *http.Client
	limiter *rate.Limiter
	policy  httputil.Policy
}

// NewDOAJ builds the DOAJ adapter.
func NewDOAJ(client *http.Client, cfg types.SourceConfig) *DOAJ {
	return &DOAJ{
		client:  client,
		limiter: newLimiter(cfg),
		policy:  httputil.PolicyFrom(cfg.Retry),
	}
}

// Name returns the adapter identifier.
func (s *DOAJ) Name() string { return "doaj" }

type doajResponse struct {
	Results []map[string]any `json:"results"`
}

// Fetch pages through the article search until MaxPerSource records are
// collected or a page comes back empty.
func (s *DOAJ) Fetch(ctx context.Context, q Query, cfg types.SourceConfig) ([]types.RawRecord, error) {
	pageSize := q.MaxPerSource
	if pageSize > 100 {
		pageSize = 100
	}
	if pageSize < 10 {
		pageSize = 10
	}

	query := q.Topic
	if q.YearFrom > 0 && q.YearTo > 0 {
		query = fmt.Sprintf("%s AND created_date:[%d-01-01 TO %d-12-31]", q.Topic, q.YearFrom, q.YearTo)
	}
	endpoint := doajBase + url.PathEscape(query)

	var out []types.RawRecord
	for page := 1; len(out) < q.MaxPerSource; page++ {
		params := url.Values{
			"page":      {strconv.Itoa(page)},
			"page_size": {strconv.Itoa(pageSize)},
		}

		var resp doajResponse
		if err := fetchJSON(ctx, s.client, s.limiter, s.policy, endpoint+"?"+params.Encode(), cfg, nil, &resp); err != nil {
			return out, fmt.Errorf("DOAJ: %w", err)
		}
		if len(resp.Results) == 0 {
			break
		}

		for _, article := range resp.Results {
			out = append(out, types.RawRecord{Source: s.Name(), Fields: article})
			if len(out) >= q.MaxPerSource {
				break
			}
		}
	}
	return out, nil
}
