// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-harvester/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "harvest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := Run{
		ID:        uuid.NewString(),
		Query:     "solid electrolytes",
		YearFrom:  2019,
		YearTo:    2024,
		StartedAt: time.Now().UTC().Truncate(time.Second),
		Exported:  2,
	}
	require.NoError(t, s.SaveRun(ctx, run))

	records := []types.Record{
		{Title: "Paper A", DOI: "10.1/a", Year: types.YearOf(2021),
			Authors: []string{"Jane Doe"}, Sources: []string{"openalex"}, Score: 4.0},
		{Title: "Paper B", Sources: []string{"arxiv"}, Score: 2.0},
	}
	require.NoError(t, s.SaveRecords(ctx, run.ID, records))

	runs, err := s.RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, "solid electrolytes", runs[0].Query)
	assert.Equal(t, 2, runs[0].Exported)

	back, err := s.RunRecords(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, back, 2)

	assert.Equal(t, "Paper A", back[0].Title)
	require.NotNil(t, back[0].Year)
	assert.Equal(t, 2021, *back[0].Year)
	assert.Equal(t, []string{"Jane Doe"}, back[0].Authors)

	// Missing year survives as nil.
	assert.Nil(t, back[1].Year)
}

func TestSaveResults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	run := Run{ID: uuid.NewString(), Query: "q", StartedAt: time.Now()}
	require.NoError(t, s.SaveRun(ctx, run))

	results := []types.DownloadResult{
		{Key: "10.1-a", Status: types.StatusSuccess, BytesWritten: 1024, Attempts: 1, ArchiveName: "10.1-a.pdf"},
		{Key: "10.1-b", Status: types.StatusNotAFile, Reason: "no_pdf_header", Attempts: 1},
	}
	require.NoError(t, s.SaveResults(ctx, run.ID, results))

	// Re-saving the same keys replaces rather than fails.
	require.NoError(t, s.SaveResults(ctx, run.ID, results))
}

func TestRecentRuns_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := Run{ID: uuid.NewString(), Query: "old", StartedAt: time.Now().Add(-time.Hour)}
	newer := Run{ID: uuid.NewString(), Query: "new", StartedAt: time.Now()}
	require.NoError(t, s.SaveRun(ctx, older))
	require.NoError(t, s.SaveRun(ctx, newer))

	runs, err := s.RecentRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].Query)
}
