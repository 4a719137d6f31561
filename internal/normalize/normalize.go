// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize maps provider-specific raw records into the canonical
// Record schema. The extraction rules here are the only place provider field
// shapes are known; everything downstream sees canonical records.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/paper-harvester/pkg/types"
)

// ErrMalformed marks a raw record that lacks a required field. Such records
// are dropped and logged, never fatal.
var ErrMalformed = errors.New("malformed record")

// extractors maps a source name to its field-extraction rule.
var extractors = map[string]func(map[string]any) types.Record{
	"openalex":         fromOpenAlex,
	"crossref":         fromCrossref,
	"arxiv":            fromArxiv,
	"semantic_scholar": fromSemanticScholar,
	"doaj":             fromDOAJ,
}

// Normalize maps one raw record to the canonical schema. Fields absent in
// the source stay unset ("" / nil), never empty placeholders, so merge logic
// can distinguish missing from known. A record without a title is malformed.
func Normalize(raw types.RawRecord) (types.Record, error) {
	extract, ok := extractors[raw.Source]
	if !ok {
		return types.Record{}, fmt.Errorf("%w: unknown source %q", ErrMalformed, raw.Source)
	}

	rec := extract(raw.Fields)
	rec.Title = clean(rec.Title)
	if rec.Title == "" {
		return types.Record{}, fmt.Errorf("%w: %s record has no title", ErrMalformed, raw.Source)
	}

	rec.Abstract = clean(rec.Abstract)
	rec.Venue = clean(rec.Venue)
	rec.DOI = types.CanonicalDOI(rec.DOI)
	rec.PDFURL = strings.TrimSpace(rec.PDFURL)
	rec.LandingURL = strings.TrimSpace(rec.LandingURL)

	authors := rec.Authors[:0]
	for _, a := range rec.Authors {
		if a = clean(a); a != "" {
			authors = append(authors, a)
		}
	}
	rec.Authors = authors
	rec.Sources = []string{raw.Source}
	return rec, nil
}

// All normalizes a batch, dropping malformed records with a warning count.
func All(raws []types.RawRecord) (records []types.Record, dropped int) {
	for _, raw := range raws {
		rec, err := Normalize(raw)
		if err != nil {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}

func fromOpenAlex(m map[string]any) types.Record {
	rec := types.Record{
		Title:      firstString(m, "title", "display_name"),
		DOI:        str(m["doi"]),
		Year:       yearOf(m["publication_year"]),
		Abstract:   invertedAbstract(m["abstract_inverted_index"]),
		LandingURL: nestedString(m, "primary_location", "landing_page_url"),
		Venue:      nestedString(m, "host_venue", "display_name"),
	}
	if rec.Venue == "" {
		rec.Venue = nestedString(m, "primary_location", "source", "display_name")
	}
	rec.PDFURL = nestedString(m, "primary_location", "pdf_url")
	if rec.PDFURL == "" {
		rec.PDFURL = nestedString(m, "open_access", "oa_url")
	}
	for _, a := range slice(m["authorships"]) {
		if name := nestedString(asMap(a), "author", "display_name"); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}
	return rec
}

func fromCrossref(m map[string]any) types.Record {
	rec := types.Record{
		Title:      firstOfSlice(m["title"]),
		DOI:        str(m["DOI"]),
		LandingURL: str(m["URL"]),
		Venue:      firstOfSlice(m["container-title"]),
		Abstract:   stripMarkup(str(m["abstract"])),
	}

	// issued.date-parts is [[year, month, day]].
	if parts := slice(nestedAny(m, "issued", "date-parts")); len(parts) > 0 {
		if first := slice(parts[0]); len(first) > 0 {
			rec.Year = yearOf(first[0])
		}
	}

	for _, a := range slice(m["author"]) {
		am := asMap(a)
		name := strings.TrimSpace(str(am["given"]) + " " + str(am["family"]))
		if name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}

	// The first link with a PDF content type is the publisher's direct link.
	for _, l := range slice(m["link"]) {
		lm := asMap(l)
		if strings.Contains(strings.ToLower(str(lm["content-type"])), "pdf") && str(lm["URL"]) != "" {
			rec.PDFURL = str(lm["URL"])
			break
		}
	}
	return rec
}

func fromArxiv(m map[string]any) types.Record {
	rec := types.Record{
		Title:      str(m["title"]),
		Abstract:   str(m["summary"]),
		Year:       yearOf(m["published"]),
		LandingURL: str(m["id"]),
		PDFURL:     str(m["pdf_url"]),
		Venue:      "arXiv",
	}
	for _, a := range slice(m["authors"]) {
		if name := str(a); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}
	return rec
}

func fromSemanticScholar(m map[string]any) types.Record {
	rec := types.Record{
		Title:      str(m["title"]),
		Abstract:   str(m["abstract"]),
		Year:       yearOf(m["year"]),
		DOI:        nestedString(m, "externalIds", "DOI"),
		LandingURL: str(m["url"]),
		PDFURL:     nestedString(m, "openAccessPdf", "url"),
		Venue:      str(m["venue"]),
	}
	for _, a := range slice(m["authors"]) {
		if name := nestedString(asMap(a), "name"); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}
	return rec
}

func fromDOAJ(m map[string]any) types.Record {
	bib := asMap(m["bibjson"])
	rec := types.Record{
		Title:    str(bib["title"]),
		Abstract: str(bib["abstract"]),
		Year:     yearOf(bib["year"]),
		Venue:    nestedString(bib, "journal", "title"),
	}

	for _, id := range slice(bib["identifier"]) {
		im := asMap(id)
		if str(im["type"]) == "doi" {
			rec.DOI = str(im["id"])
			break
		}
	}

	for _, l := range slice(bib["link"]) {
		lm := asMap(l)
		if rec.LandingURL == "" && str(lm["url"]) != "" {
			rec.LandingURL = str(lm["url"])
		}
		if str(lm["type"]) == "fulltext" &&
			strings.EqualFold(str(lm["content_type"]), "application/pdf") {
			rec.PDFURL = str(lm["url"])
		}
	}

	for _, a := range slice(bib["author"]) {
		if name := nestedString(asMap(a), "name"); name != "" {
			rec.Authors = append(rec.Authors, name)
		}
	}
	return rec
}

// --- field access helpers ---

func str(v any) string {
	s, _ := v.(string)
	return s
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func slice(v any) []any {
	s, _ := v.([]any)
	return s
}

// nestedAny walks nested maps and returns the value at the key path.
func nestedAny(m map[string]any, keys ...string) any {
	var v any = m
	for _, k := range keys {
		mm := asMap(v)
		if mm == nil {
			return nil
		}
		v = mm[k]
	}
	return v
}

func nestedString(m map[string]any, keys ...string) string {
	return str(nestedAny(m, keys...))
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := str(m[k]); s != "" {
			return s
		}
	}
	return ""
}

func firstOfSlice(v any) string {
	s := slice(v)
	if len(s) == 0 {
		return ""
	}
	return str(s[0])
}

// yearRe matches a plausible publication year inside a date string.
var yearRe = regexp.MustCompile(`(19|20)\d{2}`)

// yearOf extracts a year from the value shapes providers use: JSON numbers,
// bare year strings, and full date strings. Nil when nothing parses.
func yearOf(v any) *int {
	switch t := v.(type) {
	case float64:
		y := int(t)
		if y > 0 {
			return &y
		}
	case int:
		if t > 0 {
			y := t
			return &y
		}
	case string:
		if m := yearRe.FindString(t); m != "" {
			y := int(m[0]-'0')*1000 + int(m[1]-'0')*100 + int(m[2]-'0')*10 + int(m[3]-'0')
			return &y
		}
	}
	return nil
}

// clean collapses whitespace and non-breaking spaces.
func clean(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}

// markupRe strips the JATS tags Crossref embeds in abstracts.
var markupRe = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

func stripMarkup(s string) string {
	return markupRe.ReplaceAllString(s, "")
}

// SortForExport orders records the way the export expects: score descending,
// then year descending, then title ascending.
func SortForExport(records []types.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			return records[i].Score > records[j].Score
		}
		if records[i].YearValue() != records[j].YearValue() {
			return records[i].YearValue() > records[j].YearValue()
		}
		return strings.ToLower(records[i].Title) < strings.ToLower(records[j].Title)
	})
}

// invertedAbstract converts OpenAlex's abstract_inverted_index back to plain
// text. The inverted index maps each word to the positions where it appears.
func invertedAbstract(v any) string {
	index := asMap(v)
	if len(index) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	var pairs []posWord
	for word, positions := range index {
		for _, p := range slice(positions) {
			if f, ok := p.(float64); ok {
				pairs = append(pairs, posWord{pos: int(f), word: word})
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].pos < pairs[j].pos })

	words := make([]string, len(pairs))
	for i, p := range pairs {
		words[i] = p.word
	}
	return strings.Join(words, " ")
}
