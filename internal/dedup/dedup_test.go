// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-harvester/pkg/types"
)

func TestMerge_ExactDOI(t *testing.T) {
	records := []types.Record{
		{Title: "Short", DOI: "10.1000/x", Sources: []string{"crossref"}},
		{Title: "A Much Longer Title Variant", DOI: "10.1000/x", Abstract: "Full abstract.",
			PDFURL: "https://oa.example/x.pdf", Sources: []string{"openalex"}},
	}

	merged := Merge(records, types.DefaultDedup())
	require.Len(t, merged, 1)

	rec := merged[0]
	assert.Equal(t, "A Much Longer Title Variant", rec.Title)
	assert.Equal(t, "Full abstract.", rec.Abstract)
	assert.Equal(t, "https://oa.example/x.pdf", rec.PDFURL)
	assert.Equal(t, []string{"crossref", "openalex"}, rec.Sources)
}

func TestMerge_FuzzyTitleSameYear(t *testing.T) {
	records := []types.Record{
		{Title: "Defect Passivation in Perovskite Films", Year: types.YearOf(2021),
			Authors: []string{"Jane Doe"}, Sources: []string{"arxiv"}},
		{Title: "Defect passivation in perovskite films.", Year: types.YearOf(2021),
			Authors: []string{"J. Doe", "K. Smith"}, Sources: []string{"semantic_scholar"}},
	}

	merged := Merge(records, types.DefaultDedup())
	require.Len(t, merged, 1)
	assert.Equal(t, []string{"arxiv", "semantic_scholar"}, merged[0].Sources)
	assert.Len(t, merged[0].Authors, 2)
}

func TestMerge_FuzzyTitleDistantYearsStaySeparate(t *testing.T) {
	records := []types.Record{
		{Title: "Defect Passivation in Perovskite Films", Year: types.YearOf(2015)},
		{Title: "Defect Passivation in Perovskite Films", Year: types.YearOf(2021)},
	}

	merged := Merge(records, types.DefaultDedup())
	assert.Len(t, merged, 2)
}

func TestMerge_MissingYearMatches(t *testing.T) {
	records := []types.Record{
		{Title: "Grain Boundary Diffusion in Oxides", Year: types.YearOf(2020)},
		{Title: "Grain boundary diffusion in oxides"},
	}

	merged := Merge(records, types.DefaultDedup())
	require.Len(t, merged, 1)
	require.NotNil(t, merged[0].Year)
	assert.Equal(t, 2020, *merged[0].Year)
}

func TestMerge_DisjointAuthorsStaySeparate(t *testing.T) {
	records := []types.Record{
		{Title: "Thermal Transport in Thin Films", Year: types.YearOf(2022), Authors: []string{"A. North"}},
		{Title: "Thermal Transport in Thin Films", Year: types.YearOf(2022), Authors: []string{"B. South"}},
	}

	merged := Merge(records, types.DefaultDedup())
	assert.Len(t, merged, 2)
}

func TestMerge_DOIBeatsTitleMismatch(t *testing.T) {
	// Same DOI merges regardless of how different the titles look, and the
	// resolver-URL spelling collapses onto the bare lowercase form.
	records := []types.Record{
		{Title: "Preprint title", DOI: "10.1/same"},
		{Title: "Completely different published title", DOI: "https://doi.org/10.1/SAME"},
	}

	merged := Merge(records, types.DefaultDedup())
	require.Len(t, merged, 1)
	assert.Equal(t, "10.1/same", merged[0].DOI)
}

func TestMerge_Idempotent(t *testing.T) {
	records := []types.Record{
		{Title: "Paper One", DOI: "10.1/a", Sources: []string{"openalex"}},
		{Title: "Paper One!", DOI: "10.1/a", Sources: []string{"crossref"}},
		{Title: "Paper Two", Year: types.YearOf(2020), Sources: []string{"arxiv"}},
		{Title: "Paper two", Year: types.YearOf(2020), Sources: []string{"doaj"}},
	}

	once := Merge(records, types.DefaultDedup())
	twice := Merge(once, types.DefaultDedup())
	assert.Equal(t, once, twice)
}

func TestMerge_NullFieldsFilledFromDuplicate(t *testing.T) {
	records := []types.Record{
		{Title: "Ionic Conductors Review", DOI: "10.5/rev"},
		{Title: "Ionic Conductors Review", DOI: "10.5/rev", Abstract: "The abstract.",
			Year: types.YearOf(2018), LandingURL: "https://pub.example/rev"},
	}

	merged := Merge(records, types.DefaultDedup())
	require.Len(t, merged, 1)
	assert.Equal(t, "The abstract.", merged[0].Abstract)
	assert.Equal(t, 2018, merged[0].YearValue())
	assert.Equal(t, "https://pub.example/rev", merged[0].LandingURL)
}

func TestTitleSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, titleSimilarity("Solid-State Batteries", "solid state batteries"))
	assert.Greater(t, titleSimilarity(
		"Defect Passivation in Perovskite Solar Cells",
		"Defect passivation in perovskite solar cell"), 0.92)
	assert.Less(t, titleSimilarity(
		"Defect Passivation in Perovskite Solar Cells",
		"Thermal Conductivity of Silicon Nanowires"), 0.5)
}
