// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup merges harvest records that denote the same paper. A first
// pass groups records by canonical DOI; a second fuzzy pass compares only the
// records without a DOI, using title similarity, year proximity, and author
// overlap. Merging never discards information a record already has.
package dedup

import (
	"sort"
	"strings"

	"github.com/pdiddy/paper-harvester/pkg/types"
)

// Merge collapses duplicates in records and returns the merged set. Input
// order decides merge precedence: when two duplicates disagree on a
// single-valued field, the earlier record wins unless its value is empty.
// Merge is idempotent.
func Merge(records []types.Record, cfg types.DedupConfig) []types.Record {
	if cfg.TitleThreshold <= 0 || cfg.TitleThreshold > 1 {
		cfg = types.DefaultDedup()
	}

	var merged []types.Record
	byDOI := map[string]int{}

	// Exact pass: canonical DOI equality. DOIs are canonicalized here as
	// well, so resolver-URL and case variants collapse even when records
	// arrive from outside the normalizer.
	var noDOI []types.Record
	for _, rec := range records {
		doi := types.CanonicalDOI(rec.DOI)
		if doi == "" {
			noDOI = append(noDOI, rec)
			continue
		}
		rec.DOI = doi
		if i, ok := byDOI[doi]; ok {
			merged[i] = combine(merged[i], rec)
			continue
		}
		byDOI[doi] = len(merged)
		merged = append(merged, rec)
	}

	// Fuzzy pass: only the no-DOI subset is compared pairwise, so a sloppy
	// title match can never override a DOI identity.
	var fuzzy []types.Record
	for _, rec := range noDOI {
		matched := false
		for i := range fuzzy {
			if sameWork(fuzzy[i], rec, cfg) {
				fuzzy[i] = combine(fuzzy[i], rec)
				matched = true
				break
			}
		}
		if !matched {
			fuzzy = append(fuzzy, rec)
		}
	}

	return append(merged, fuzzy...)
}

// sameWork reports whether two DOI-less records denote the same paper.
func sameWork(a, b types.Record, cfg types.DedupConfig) bool {
	if titleSimilarity(a.Title, b.Title) < cfg.TitleThreshold {
		return false
	}
	if a.Year != nil && b.Year != nil {
		diff := *a.Year - *b.Year
		if diff < 0 {
			diff = -diff
		}
		if diff > cfg.YearWindow {
			return false
		}
	}
	return sharedSurname(a.Authors, b.Authors)
}

// sharedSurname reports whether the author lists share a final name token.
// A record with no authors passes, since absence is not disagreement.
func sharedSurname(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return true
	}
	seen := map[string]bool{}
	for _, name := range a {
		if s := surname(name); s != "" {
			seen[s] = true
		}
	}
	for _, name := range b {
		if seen[surname(name)] {
			return true
		}
	}
	return false
}

func surname(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// combine merges src into dst. The longer title, abstract, venue, and author
// list win; DOI, pdf_url, and landing URL keep the first non-empty value in
// input order; the earliest known year wins.
func combine(dst, src types.Record) types.Record {
	if len(src.Title) > len(dst.Title) {
		dst.Title = src.Title
	}
	if len(src.Abstract) > len(dst.Abstract) {
		dst.Abstract = src.Abstract
	}
	if len(src.Venue) > len(dst.Venue) {
		dst.Venue = src.Venue
	}
	if len(src.Authors) > len(dst.Authors) {
		dst.Authors = src.Authors
	}
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if dst.PDFURL == "" {
		dst.PDFURL = src.PDFURL
	}
	if dst.LandingURL == "" {
		dst.LandingURL = src.LandingURL
	}
	if src.Year != nil && (dst.Year == nil || *src.Year < *dst.Year) {
		dst.Year = src.Year
	}
	if src.Score > dst.Score {
		dst.Score = src.Score
	}
	dst.Sources = unionSources(dst.Sources, src.Sources)
	return dst
}

func unionSources(a, b []string) []string {
	set := map[string]bool{}
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		set[s] = true
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// titleSimilarity computes the Sørensen-Dice coefficient over character
// bigrams of the normalized titles. 1.0 means identical after normalization.
func titleSimilarity(a, b string) float64 {
	a, b = normTitle(a), normTitle(b)
	if a == b {
		return 1.0
	}
	ba, bb := bigrams(a), bigrams(b)
	if len(ba) == 0 || len(bb) == 0 {
		return 0.0
	}

	counts := map[string]int{}
	for _, g := range ba {
		counts[g]++
	}
	overlap := 0
	for _, g := range bb {
		if counts[g] > 0 {
			counts[g]--
			overlap++
		}
	}
	return 2.0 * float64(overlap) / float64(len(ba)+len(bb))
}

// normTitle lowercases and strips everything but letters, digits, and single
// spaces, so punctuation and casing differences do not count against a match.
func normTitle(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func bigrams(s string) []string {
	if len(s) < 2 {
		return nil
	}
	out := make([]string, 0, len(s)-1)
	for i := 0; i+2 <= len(s); i++ {
		out = append(out, s[i:i+2])
	}
	return out
}
