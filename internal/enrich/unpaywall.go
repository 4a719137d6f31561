// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/paper-harvester/internal/httputil"
)

// unpaywallBase is the Unpaywall DOI lookup endpoint. Declared as a var so
// tests can substitute an httptest server.
var unpaywallBase = "https://api.unpaywall.org/v2/"

type oaLocation struct {
	URLForPDF string `json:"url_for_pdf"`
}

type unpaywallResponse struct {
	BestOALocation *oaLocation  `json:"best_oa_location"`
	OALocations    []oaLocation `json:"oa_locations"`
}

// resolveUnpaywall asks the open-access resolver for a direct PDF link.
// A 404 means the DOI is unknown to the resolver and is not an error; an
// empty return with nil error means no open-access copy exists.
func (e *Enricher) resolveUnpaywall(ctx context.Context, doi string) (string, error) {
	if e.cfg.ContactEmail == "" {
		return "", fmt.Errorf("open-access resolver requires a contact email")
	}

	reqURL := unpaywallBase + url.PathEscape(doi) + "?email=" + url.QueryEscape(e.cfg.ContactEmail)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := httputil.Do(ctx, e.client, req, e.policy)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var body unpaywallResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	if body.BestOALocation != nil && body.BestOALocation.URLForPDF != "" {
		return body.BestOALocation.URLForPDF, nil
	}
	for _, loc := range body.OALocations {
		if loc.URLForPDF != "" {
			return loc.URLForPDF, nil
		}
	}
	return "", nil
}
