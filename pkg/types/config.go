package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "paper-harvester/0.1 (mailto:ops@example.org)").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// RetryConfig holds the shared retry/backoff policy parameters.
type RetryConfig struct {
	// MaxAttempts is the total number of HTTP attempts, including the first
	// (default 5).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// BaseDelay is the first backoff delay; it doubles per attempt
	// (default 1s).
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`

	// MaxDelay caps a single backoff wait (default 30s).
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`
}

// SourceConfig holds settings for the harvest stage.
type SourceConfig struct {
	HTTPConfig `yaml:",inline"`

	// Retry is the backoff policy each adapter applies to its own calls.
	Retry RetryConfig `json:"retry" yaml:"retry"`

	// RatePerSecond limits each adapter's request rate (default 2).
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`

	// Per-source switches. A run with every source disabled is a
	// configuration error.
	EnableOpenAlex        bool `json:"enable_openalex" yaml:"enable_openalex"`
	EnableCrossref        bool `json:"enable_crossref" yaml:"enable_crossref"`
	EnableArxiv           bool `json:"enable_arxiv" yaml:"enable_arxiv"`
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`
	EnableDOAJ            bool `json:"enable_doaj" yaml:"enable_doaj"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// ContactEmail is sent as the mailto/polite-pool parameter where a
	// provider supports one.
	ContactEmail string `json:"contact_email,omitempty" yaml:"contact_email,omitempty"`
}

// DedupConfig holds the fuzzy-merge policy. The thresholds are the main
// precision/recall lever and are swept in tests.
type DedupConfig struct {
	// TitleThreshold is the minimum normalized-title similarity, on a 0-1
	// scale, for two no-DOI records to merge (default 0.92).
	TitleThreshold float64 `json:"title_threshold" yaml:"title_threshold"`

	// YearWindow is the maximum publication-year distance for a fuzzy merge
	// (default 1). Records without a year pass the check.
	YearWindow int `json:"year_window" yaml:"year_window"`
}

// EnrichConfig holds settings for the PDF-link recovery stage.
type EnrichConfig struct {
	HTTPConfig `yaml:",inline"`

	Retry RetryConfig `json:"retry" yaml:"retry"`

	// ContactEmail identifies the caller to the open-access resolver.
	ContactEmail string `json:"contact_email" yaml:"contact_email"`

	// ValidateLinks enables a light probe of scraped PDF candidates
	// (content-type or leading bytes) before accepting them.
	ValidateLinks bool `json:"validate_links" yaml:"validate_links"`
}

// DownloadConfig holds settings for the download/verify pass.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	Retry RetryConfig `json:"retry" yaml:"retry"`

	// Concurrency is the download worker count (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// ArchivePath is the output zip archive of verified PDFs.
	ArchivePath string `json:"archive_path" yaml:"archive_path"`

	// MaxBytes caps a single PDF payload; larger responses are rejected
	// (default 256 MiB).
	MaxBytes int64 `json:"max_bytes" yaml:"max_bytes"`
}

// StoreConfig holds settings for the optional SQLite harvest store.
type StoreConfig struct {
	// Path is the database file. Empty disables the store.
	Path string `json:"path" yaml:"path"`
}

// HarvestConfig groups all stage configurations for the pipeline.
type HarvestConfig struct {
	Sources  SourceConfig   `json:"sources" yaml:"sources"`
	Dedup    DedupConfig    `json:"dedup" yaml:"dedup"`
	Enrich   EnrichConfig   `json:"enrich" yaml:"enrich"`
	Download DownloadConfig `json:"download" yaml:"download"`
	Store    StoreConfig    `json:"store" yaml:"store"`

	// StrictMinScore is the minimum relevance score a record must reach when
	// strict mode is on (default 2.0).
	StrictMinScore float64 `json:"strict_min_score" yaml:"strict_min_score"`
}

// DefaultRetry returns the retry policy defaults shared by every
// network-calling stage.
func DefaultRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   1 * time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// DefaultDedup returns the fuzzy-merge policy defaults.
func DefaultDedup() DedupConfig {
	return DedupConfig{
		TitleThreshold: 0.92,
		YearWindow:     1,
	}
}
