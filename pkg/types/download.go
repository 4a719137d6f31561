// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DownloadStatus is the terminal outcome of one record's download attempt.
type DownloadStatus string

const (
	StatusSuccess          DownloadStatus = "success"
	StatusNoURL            DownloadStatus = "no_url"
	StatusHTTPError        DownloadStatus = "http_error"
	StatusTimeout          DownloadStatus = "timeout"
	StatusNotAFile         DownloadStatus = "not_a_file"
	StatusRetriesExhausted DownloadStatus = "retries_exhausted"
)

// DownloadResult records the outcome of fetching one record's PDF. It is
// created once per record during the download pass and never mutated.
type DownloadResult struct {
	// Key references the record by its identity (Record.Key), never by
	// ownership.
	Key string `json:"key" yaml:"key"`

	// Title is carried for the failure report.
	Title string `json:"title" yaml:"title"`

	// URL is the pdf_url that was attempted, empty for StatusNoURL.
	URL string `json:"pdf_url" yaml:"pdf_url"`

	// LandingURL is carried for the failure report.
	LandingURL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Status is the terminal outcome.
	Status DownloadStatus `json:"status" yaml:"status"`

	// Reason holds a short machine-readable cause (e.g. "no_pdf_header",
	// "http_status:403").
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// BytesWritten is the archived payload size; set only on success.
	BytesWritten int64 `json:"bytes_written,omitempty" yaml:"bytes_written,omitempty"`

	// Attempts counts HTTP attempts made, including retries.
	Attempts int `json:"attempts" yaml:"attempts"`

	// ArchiveName is the name the PDF was stored under; set only on success.
	ArchiveName string `json:"archive_name,omitempty" yaml:"archive_name,omitempty"`
}

// FailureLedger is the append-only sequence of non-success download results.
type FailureLedger []DownloadResult

// Append adds r to the ledger when it is not a success.
func (l *FailureLedger) Append(r DownloadResult) {
	if r.Status == StatusSuccess {
		return
	}
	*l = append(*l, r)
}
