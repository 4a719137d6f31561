// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches each record's PDF, verifies the payload is a real
// PDF, and stores verified payloads in a zip archive. Every record ends in
// exactly one terminal status; non-success statuses accumulate in a
// FailureLedger for the failure report.
package download

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/pdiddy/paper-harvester/internal/httputil"
	"github.com/pdiddy/paper-harvester/pkg/types"
)

const (
	defaultConcurrency = 4
	defaultMaxBytes    = 256 << 20
)

// Summary aggregates one download pass.
type Summary struct {
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`

	Results []types.DownloadResult `json:"results" yaml:"results"`
	Ledger  types.FailureLedger    `json:"-" yaml:"-"`
}

// Archive wraps a zip writer with the synchronization and name deduplication
// the download workers need. Payloads are verified before they reach Add.
type Archive struct {
	mu     sync.Mutex
	zw     *zip.Writer
	closer io.Closer
	names  map[string]int
}

// CreateArchive opens path for writing as a zip archive.
func CreateArchive(path string) (*Archive, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	return &Archive{zw: zip.NewWriter(f), closer: f, names: map[string]int{}}, nil
}

// Add stores payload under a name derived from base, uniquified with a
// numeric suffix on collision. Safe for concurrent use.
func (a *Archive) Add(base string, payload []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := base + ".pdf"
	if n := a.names[base]; n > 0 {
		name = fmt.Sprintf("%s-%d.pdf", base, n)
	}
	a.names[base]++

	w, err := a.zw.Create(name)
	if err != nil {
		return "", fmt.Errorf("adding %s: %w", name, err)
	}
	if _, err := w.Write(payload); err != nil {
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	return name, nil
}

// Close finalizes the zip central directory and the underlying file.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.zw.Close(); err != nil {
		a.closer.Close()
		return err
	}
	return a.closer.Close()
}

// Downloader runs the download/verify pass.
type Downloader struct {
	client *http.Client
	policy httputil.Policy
	cfg    types.DownloadConfig
}

// New builds a Downloader over the given client.
func New(client *http.Client, cfg types.DownloadConfig) *Downloader {
	return &Downloader{
		client: client,
		policy: httputil.PolicyFrom(cfg.Retry),
		cfg:    cfg,
	}
}

// All downloads every record's PDF through a bounded worker pool and writes
// verified payloads to archive. Results keep the input record order.
// Cancellation stops new work; records not reached are marked with a timeout
// status so the summary still covers every record.
func (d *Downloader) All(ctx context.Context, records []types.Record, archive *Archive, w io.Writer) Summary {
	workers := d.cfg.Concurrency
	if workers <= 0 {
		workers = defaultConcurrency
	}

	results := make([]types.DownloadResult, len(records))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for n := 0; n < workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = d.fetchOne(ctx, records[i], archive)
			}
		}()
	}

	for i := range records {
		select {
		case jobs <- i:
		case <-ctx.Done():
			results[i] = types.DownloadResult{
				Key:    records[i].Key(),
				Title:  records[i].Title,
				URL:    records[i].PDFURL,
				Status: types.StatusTimeout,
				Reason: "cancelled",
			}
		}
	}
	close(jobs)
	wg.Wait()

	summary := Summary{Results: results}
	for _, r := range results {
		if r.Status == types.StatusSuccess {
			summary.Succeeded++
			continue
		}
		summary.Failed++
		summary.Ledger.Append(r)
		fmt.Fprintf(w, "failed: %s (%s: %s)\n", r.Title, r.Status, r.Reason)
	}
	return summary
}

// fetchOne downloads and verifies a single record's PDF.
func (d *Downloader) fetchOne(ctx context.Context, rec types.Record, archive *Archive) types.DownloadResult {
	result := types.DownloadResult{
		Key:        rec.Key(),
		Title:      rec.Title,
		URL:        rec.PDFURL,
		LandingURL: rec.LandingURL,
	}
	if rec.PDFURL == "" {
		result.Status = types.StatusNoURL
		result.Reason = "record has no pdf_url"
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rec.PDFURL, nil)
	if err != nil {
		result.Status = types.StatusHTTPError
		result.Reason = "bad_url"
		return result
	}
	req.Header.Set("User-Agent", d.cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf,*/*")

	resp, err := httputil.Do(ctx, d.client, req, d.policy)
	result.Attempts = 1
	if err != nil {
		result.Attempts = d.policy.MaxAttempts
		result.Status = classifyTransport(err)
		result.Reason = err.Error()
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if httputil.RetryableStatus(resp.StatusCode) {
			// A retryable status that survived the policy means every attempt
			// was spent.
			result.Attempts = d.policy.MaxAttempts
			result.Status = types.StatusRetriesExhausted
		} else {
			result.Status = types.StatusHTTPError
		}
		result.Reason = fmt.Sprintf("http_status:%d", resp.StatusCode)
		return result
	}

	maxBytes := d.cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		result.Status = classifyTransport(err)
		result.Reason = err.Error()
		return result
	}
	if int64(len(payload)) > maxBytes {
		result.Status = types.StatusNotAFile
		result.Reason = "payload_too_large"
		return result
	}

	// The payload decides, not the Content-Type header: publishers mislabel
	// PDFs as octet-stream and error pages as PDFs.
	if ok, reason := Verify(payload); !ok {
		result.Status = types.StatusNotAFile
		result.Reason = reason
		return result
	}

	name, err := archive.Add(rec.Key(), payload)
	if err != nil {
		result.Status = types.StatusHTTPError
		result.Reason = "archive_write_failed"
		return result
	}

	result.Status = types.StatusSuccess
	result.BytesWritten = int64(len(payload))
	result.ArchiveName = name
	return result
}

// classifyTransport maps a transport-level error to a terminal status.
func classifyTransport(err error) types.DownloadStatus {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return types.StatusTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.StatusTimeout
	}
	if strings.Contains(err.Error(), "deadline exceeded") {
		return types.StatusTimeout
	}
	return types.StatusHTTPError
}
