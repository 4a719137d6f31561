// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// doiPrefixes are the resolver spellings stripped during canonicalization.
var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// CanonicalDOI returns the bare, lowercased DOI: trimmed, with any resolver
// prefix stripped. Two records whose canonical DOIs are equal denote the
// same paper.
func CanonicalDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	lower := strings.ToLower(doi)
	for _, p := range doiPrefixes {
		if strings.HasPrefix(lower, p) {
			lower = lower[len(p):]
			break
		}
	}
	return lower
}
