// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"archive/zip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-harvester/pkg/types"
)

// fakePDF builds a payload that passes verification.
func fakePDF(body string) string {
	return "%PDF-1.4\n" + body + "\nstartxref\n123\n%%EOF\n"
}

func testConfig() types.DownloadConfig {
	return types.DownloadConfig{
		Concurrency: 2,
		Retry:       types.RetryConfig{MaxAttempts: 1},
	}
}

func newArchive(t *testing.T) (*Archive, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "papers.zip")
	archive, err := CreateArchive(path)
	require.NoError(t, err)
	return archive, path
}

func archiveNames(t *testing.T, path string) []string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

func TestAll_SuccessAndFailureMix(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/good.pdf", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, fakePDF("good"))
	})
	mux.HandleFunc("/gone.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	records := []types.Record{
		{Title: "Good", DOI: "10.1/good", PDFURL: server.URL + "/good.pdf"},
		{Title: "Gone", DOI: "10.1/gone", PDFURL: server.URL + "/gone.pdf"},
		{Title: "Linkless", DOI: "10.1/none"},
	}

	archive, path := newArchive(t)
	d := New(server.Client(), testConfig())
	summary := d.All(context.Background(), records, archive, io.Discard)
	require.NoError(t, archive.Close())

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 2, summary.Failed)
	require.Len(t, summary.Results, 3)

	assert.Equal(t, types.StatusSuccess, summary.Results[0].Status)
	assert.Equal(t, "10.1-good.pdf", summary.Results[0].ArchiveName)
	assert.Equal(t, types.StatusHTTPError, summary.Results[1].Status)
	assert.Equal(t, "http_status:404", summary.Results[1].Reason)
	assert.Equal(t, types.StatusNoURL, summary.Results[2].Status)

	require.Len(t, summary.Ledger, 2)
	assert.Equal(t, archiveNames(t, path), []string{"10.1-good.pdf"})
}

func TestAll_MislabeledContentIsNotAFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Claims to be a PDF but serves an HTML error page.
		w.Header().Set("Content-Type", "application/pdf")
		io.WriteString(w, "<html><body>Access denied</body></html>")
	}))
	defer server.Close()

	records := []types.Record{{Title: "Fake", DOI: "10.1/fake", PDFURL: server.URL + "/x.pdf"}}

	archive, _ := newArchive(t)
	d := New(server.Client(), testConfig())
	summary := d.All(context.Background(), records, archive, io.Discard)
	require.NoError(t, archive.Close())

	require.Len(t, summary.Ledger, 1)
	assert.Equal(t, types.StatusNotAFile, summary.Ledger[0].Status)
	assert.Equal(t, "no_pdf_header", summary.Ledger[0].Reason)
}

func TestAll_TruncatedPDFIsNotAFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "%PDF-1.4\ncontent that was cut off")
	}))
	defer server.Close()

	records := []types.Record{{Title: "Truncated", DOI: "10.1/trunc", PDFURL: server.URL + "/x.pdf"}}

	archive, _ := newArchive(t)
	d := New(server.Client(), testConfig())
	summary := d.All(context.Background(), records, archive, io.Discard)
	require.NoError(t, archive.Close())

	require.Len(t, summary.Ledger, 1)
	assert.Equal(t, "missing_eof", summary.Ledger[0].Reason)
}

func TestAll_RetryableStatusExhaustsRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.Retry = types.RetryConfig{MaxAttempts: 2, BaseDelay: 1, MaxDelay: 1}

	records := []types.Record{{Title: "Throttled", DOI: "10.1/throttle", PDFURL: server.URL + "/x.pdf"}}

	archive, _ := newArchive(t)
	d := New(server.Client(), cfg)
	summary := d.All(context.Background(), records, archive, io.Discard)
	require.NoError(t, archive.Close())

	require.Len(t, summary.Ledger, 1)
	assert.Equal(t, types.StatusRetriesExhausted, summary.Ledger[0].Status)
	assert.Equal(t, 2, summary.Ledger[0].Attempts)
}

func TestAll_DuplicateKeysGetUniqueArchiveNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, fakePDF(r.URL.Path))
	}))
	defer server.Close()

	// Same title and year produce the same key.
	records := []types.Record{
		{Title: "Same Paper", Year: types.YearOf(2020), PDFURL: server.URL + "/a.pdf"},
		{Title: "Same Paper", Year: types.YearOf(2020), PDFURL: server.URL + "/b.pdf"},
	}

	cfg := testConfig()
	cfg.Concurrency = 1

	archive, path := newArchive(t)
	d := New(server.Client(), cfg)
	summary := d.All(context.Background(), records, archive, io.Discard)
	require.NoError(t, archive.Close())

	assert.Equal(t, 2, summary.Succeeded)
	names := archiveNames(t, path)
	require.Len(t, names, 2)
	assert.NotEqual(t, names[0], names[1])
	assert.True(t, strings.HasSuffix(names[1], "-1.pdf"))
}

func TestAll_CancellationKeepsPartialResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []types.Record{
		{Title: "Never fetched", DOI: "10.1/n", PDFURL: "https://unreachable.example/x.pdf"},
	}

	archive, _ := newArchive(t)
	d := New(http.DefaultClient, testConfig())
	summary := d.All(ctx, records, archive, io.Discard)
	require.NoError(t, archive.Close())

	require.Len(t, summary.Results, 1)
	assert.Equal(t, types.StatusTimeout, summary.Results[0].Status)
}

func TestVerify(t *testing.T) {
	ok, reason := Verify([]byte(fakePDF("x")))
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = Verify([]byte("<html></html>"))
	assert.False(t, ok)
	assert.Equal(t, "no_pdf_header", reason)

	ok, reason = Verify([]byte("%PDF-1.4\nbody\nstartxref\n9"))
	assert.False(t, ok)
	assert.Equal(t, "missing_eof", reason)

	ok, reason = Verify([]byte("%PDF-1.4\nbody\n%%EOF"))
	assert.False(t, ok)
	assert.Equal(t, "missing_startxref", reason)
}
