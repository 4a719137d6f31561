// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import (
	"regexp"
	"strings"

	"github.com/pdiddy/paper-harvester/pkg/types"
)

// materialsRe matches materials-science vocabulary across title, abstract,
// and venue. The list tracks the harvest's target domain, not the query.
var materialsRe = regexp.MustCompile(`(?i)(materials? science|functional materials|semiconductor(s)?|` +
	`battery|cathode|anode|electrolyte|solid-state|intercalation|` +
	`perovskite(s)?|spinel|garnet|oxide|sulfide|nitride|carbide|boride|` +
	`alloy(s)?|steel|superalloy|HEA|high-entropy|` +
	`polymer(s)?|composite(s)?|` +
	`thin film(s)?|coating(s)?|deposition|ALD|CVD|PVD|sputter|` +
	`microstructure|grain|phase|diffusion|defect(s)?|dislocation|` +
	`catalyst(s)?|electrocatalysis|photocatalysis)`)

// excludeRe matches clearly off-domain biomedical vocabulary.
var excludeRe = regexp.MustCompile(`(?i)\b(nursing|clinical|veterinary|pediatric|oncolog|dermatolog|surger)`)

// tokenRe extracts query tokens worth matching (3+ chars, alphanumeric/hyphen).
var tokenRe = regexp.MustCompile(`[a-z0-9\-]{3,}`)

// Score rates a record's topical relevance to the query. Query-token hits,
// domain vocabulary, a known PDF link, and recency raise the score; excluded
// vocabulary lowers it.
func Score(rec types.Record, query string) float64 {
	s := 0.0
	q := strings.ToLower(query)
	hay := strings.ToLower(rec.Title + "\n" + rec.Abstract)

	seen := map[string]bool{}
	for _, token := range tokenRe.FindAllString(q, -1) {
		if seen[token] {
			continue
		}
		seen[token] = true
		if strings.Contains(hay, token) {
			s += 1.0
		}
	}

	if Relevant(rec) {
		s += 2.5
	}
	if excludeRe.MatchString(hay) {
		s -= 3.0
	}

	title := strings.ToLower(rec.Title)
	for _, t := range strings.Fields(q) {
		if strings.Contains(title, t) {
			s += 1.0
			break
		}
	}

	if rec.PDFURL != "" {
		s += 1.0
	}
	if rec.Year != nil {
		recency := float64(*rec.Year-2000) / 12.0
		if recency < 0 {
			recency = 0
		}
		if recency > 2 {
			recency = 2
		}
		s += recency
	}
	return s
}

// Relevant reports whether the record's text matches the domain vocabulary
// and none of the excluded fields.
func Relevant(rec types.Record) bool {
	hay := strings.ToLower(rec.Title + "\n" + rec.Abstract)
	if excludeRe.MatchString(hay) {
		return false
	}
	return materialsRe.MatchString(hay) || materialsRe.MatchString(rec.Venue)
}

// ScoreAll assigns scores in place.
func ScoreAll(records []types.Record, query string) {
	for i := range records {
		records[i].Score = Score(records[i], query)
	}
}

// FilterStrict keeps only records whose score reaches minScore. Zero
// minScore means the default threshold of 2.0.
func FilterStrict(records []types.Record, minScore float64) []types.Record {
	if minScore <= 0 {
		minScore = 2.0
	}
	kept := records[:0]
	for _, r := range records {
		if r.Score >= minScore {
			kept = append(kept, r)
		}
	}
	return kept
}
