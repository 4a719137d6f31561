// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pdiddy/paper-harvester/internal/httputil"
	"github.com/pdiddy/paper-harvester/pkg/types"
)

// arxivBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivBase = "https://export.arxiv.org/api/query"

// arxivPageSize is the per-request entry count during pagination.
const arxivPageSize = 100

// Arxiv queries the arXiv Atom API, restricted to the materials-science
// categories.
type Arxiv struct {
	client  *http.Client
	limiter *rate.Limiter
	policy  httputil.Policy
}

// NewArxiv builds the arXiv adapter.
func NewArxiv(client *http.Client, cfg types.SourceConfig) *Arxiv {
	return &Arxiv{
		client:  client,
		limiter: newLimiter(cfg),
		policy:  httputil.PolicyFrom(cfg.Retry),
	}
}

// Name returns the adapter identifier.
func (s *Arxiv) Name() string { return "arxiv" }

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
	Links     []arxivLink   `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// Fetch pages through the Atom feed. The feed has no year filter, so the
// year range is applied client-side; entries outside the range are skipped
// and do not count toward MaxPerSource.
func (s *Arxiv) Fetch(ctx context.Context, q Query, cfg types.SourceConfig) ([]types.RawRecord, error) {
	searchQuery := buildArxivQuery(q.Topic)

	var out []types.RawRecord
	for start := 0; len(out) < q.MaxPerSource; start += arxivPageSize {
		params := url.Values{
			"search_query": {searchQuery},
			"start":        {strconv.Itoa(start)},
			"max_results":  {strconv.Itoa(arxivPageSize)},
			"sortBy":       {"submittedDate"},
			"sortOrder":    {"descending"},
		}

		feed, err := s.fetchFeed(ctx, arxivBase+"?"+params.Encode(), cfg)
		if err != nil {
			return out, fmt.Errorf("arXiv: %w", err)
		}
		if len(feed.Entries) == 0 {
			break
		}

		for _, entry := range feed.Entries {
			year := publishedYear(entry.Published)
			if year > 0 && !q.yearInRange(year) {
				continue
			}
			out = append(out, types.RawRecord{Source: s.Name(), Fields: entryFields(entry)})
			if len(out) >= q.MaxPerSource {
				break
			}
		}
	}
	return out, nil
}

func (s *Arxiv) fetchFeed(ctx context.Context, reqURL string, cfg types.SourceConfig) (*arxivFeed, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := httputil.Do(ctx, s.client, req, s.policy)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return &feed, nil
}

// entryFields flattens an Atom entry into the provider-field map the
// normalizer consumes.
func entryFields(entry arxivEntry) map[string]any {
	authors := make([]any, 0, len(entry.Authors))
	for _, a := range entry.Authors {
		authors = append(authors, strings.TrimSpace(a.Name))
	}
	fields := map[string]any{
		"id":        entry.ID,
		"title":     entry.Title,
		"summary":   entry.Summary,
		"published": entry.Published,
		"authors":   authors,
	}
	for _, l := range entry.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			fields["pdf_url"] = l.Href
			break
		}
	}
	return fields
}

// buildArxivQuery restricts the topic to the materials-science categories,
// matching the feed's plus-separated term syntax.
func buildArxivQuery(topic string) string {
	terms := strings.Join(strings.Fields(topic), "+")
	return fmt.Sprintf("(all:%s)+AND+(cat:cond-mat.mtrl-sci+OR+cat:physics.chem-ph)", terms)
}

func publishedYear(published string) int {
	if len(published) < 4 {
		return 0
	}
	year, err := strconv.Atoi(published[:4])
	if err != nil {
		return 0
	}
	return year
}

// yearInRange applies the query's optional year bounds.
func (q Query) yearInRange(year int) bool {
	if q.YearFrom > 0 && year < q.YearFrom {
		return false
	}
	if q.YearTo > 0 && year > q.YearTo {
		return false
	}
	return true
}
