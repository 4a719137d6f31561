// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pdiddy/paper-harvester/internal/httputil"
)

// scrapeLanding fetches a landing page and looks for a PDF link, in
// decreasing order of reliability: the citation_pdf_url meta tag, a PDF link
// element, then anchors whose href or text suggests a PDF. Relative
// candidates resolve against the page URL.
func (e *Enricher) scrapeLanding(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := httputil.Do(ctx, e.client, req, e.policy)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parsing page: %w", err)
	}

	base := resp.Request.URL

	if content, ok := doc.Find(`meta[name="citation_pdf_url"]`).Attr("content"); ok && content != "" {
		return resolveRef(base, content), nil
	}

	if href, ok := doc.Find(`link[type="application/pdf"]`).Attr("href"); ok && href != "" {
		return resolveRef(base, href), nil
	}

	// Anchor scan: an href ending in .pdf wins over one that merely mentions
	// pdf or download in its href or text.
	var exact, loose string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if href == "" {
			return true
		}
		lower := strings.ToLower(href)
		text := strings.ToLower(strings.TrimSpace(sel.Text()))

		if strings.HasSuffix(strings.Split(lower, "?")[0], ".pdf") {
			exact = href
			return false
		}
		if loose == "" && (strings.Contains(lower, "pdf") ||
			strings.Contains(text, "pdf") || strings.Contains(text, "download")) {
			loose = href
		}
		return true
	})

	switch {
	case exact != "":
		return resolveRef(base, exact), nil
	case loose != "":
		return resolveRef(base, loose), nil
	}
	return "", nil
}

// resolveRef resolves a possibly-relative href against the page URL.
func resolveRef(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
