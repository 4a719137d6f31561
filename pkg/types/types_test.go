// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalDOI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare DOI passes through", "10.1000/abc", "10.1000/abc"},
		{"https resolver prefix stripped", "https://doi.org/10.1000/abc", "10.1000/abc"},
		{"http resolver prefix stripped", "http://doi.org/10.1000/abc", "10.1000/abc"},
		{"dx resolver prefix stripped", "https://dx.doi.org/10.1000/abc", "10.1000/abc"},
		{"doi scheme stripped", "doi:10.1000/abc", "10.1000/abc"},
		{"lowercased", "10.1000/ABC", "10.1000/abc"},
		{"whitespace trimmed", "  10.1000/abc \n", "10.1000/abc"},
		{"empty stays empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalDOI(tt.in))
		})
	}
}

func TestRecordKey(t *testing.T) {
	withDOI := Record{Title: "Some Paper", DOI: "10.1000/a:b/c"}
	assert.Equal(t, "10.1000-a-b-c", withDOI.Key())

	// Same title and year hash to the same key regardless of casing.
	a := Record{Title: "Grain Boundaries", Year: YearOf(2020)}
	b := Record{Title: "grain boundaries", Year: YearOf(2020)}
	assert.Equal(t, a.Key(), b.Key())

	// A different year changes the key.
	c := Record{Title: "Grain Boundaries", Year: YearOf(2021)}
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestRecordHasSource(t *testing.T) {
	rec := Record{Sources: []string{"openalex", "crossref"}}
	assert.True(t, rec.HasSource("crossref"))
	assert.False(t, rec.HasSource("doaj"))
}

func TestRecordYearValue(t *testing.T) {
	assert.Equal(t, 0, Record{}.YearValue())
	assert.Equal(t, 2022, Record{Year: YearOf(2022)}.YearValue())
}

func TestFailureLedgerSkipsSuccess(t *testing.T) {
	var ledger FailureLedger
	ledger.Append(DownloadResult{Key: "a", Status: StatusSuccess})
	ledger.Append(DownloadResult{Key: "b", Status: StatusNotAFile})
	ledger.Append(DownloadResult{Key: "c", Status: StatusNoURL})

	assert.Len(t, ledger, 2)
	assert.Equal(t, "b", ledger[0].Key)
}
