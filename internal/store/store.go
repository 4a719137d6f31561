// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists harvest runs in a SQLite database so past runs can
// be inspected and compared. The store is optional: an empty path disables it
// and the pipeline runs export-only.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-harvester/pkg/types"
)

// Store manages the harvest SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the harvest database at path, creating the schema on
// first use.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			year_from INTEGER,
			year_to INTEGER,
			started_at TEXT NOT NULL,
			exported INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS records (
			key TEXT NOT NULL,
			run_id TEXT NOT NULL REFERENCES runs(id),
			title TEXT NOT NULL,
			authors TEXT,
			year INTEGER,
			doi TEXT,
			abstract TEXT,
			venue TEXT,
			pdf_url TEXT,
			url TEXT,
			sources TEXT,
			score REAL,
			PRIMARY KEY (run_id, key)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_doi ON records(doi)`,
		`CREATE TABLE IF NOT EXISTS downloads (
			run_id TEXT NOT NULL REFERENCES runs(id),
			key TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT,
			bytes_written INTEGER,
			attempts INTEGER,
			archive_name TEXT,
			PRIMARY KEY (run_id, key)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Run is one persisted harvest run.
type Run struct {
	ID        string
	Query     string
	YearFrom  int
	YearTo    int
	StartedAt time.Time
	Exported  int
}

// SaveRun inserts the run header row.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, query, year_from, year_to, started_at, exported)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.Query, run.YearFrom, run.YearTo,
		run.StartedAt.UTC().Format(time.RFC3339), run.Exported,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// SaveRecords persists the exported record set for a run in one transaction.
func (s *Store) SaveRecords(ctx context.Context, runID string, records []types.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO records
		 (key, run_id, title, authors, year, doi, abstract, venue, pdf_url, url, sources, score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		authorsJSON, _ := json.Marshal(rec.Authors)
		sourcesJSON, _ := json.Marshal(rec.Sources)

		var year any
		if rec.Year != nil {
			year = *rec.Year
		}

		_, err := stmt.ExecContext(ctx,
			rec.Key(), runID, rec.Title, string(authorsJSON), year, rec.DOI,
			rec.Abstract, rec.Venue, rec.PDFURL, rec.LandingURL,
			string(sourcesJSON), rec.Score,
		)
		if err != nil {
			return fmt.Errorf("inserting record %s: %w", rec.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing records: %w", err)
	}
	return nil
}

// SaveResults persists download outcomes for a run in one transaction.
func (s *Store) SaveResults(ctx context.Context, runID string, results []types.DownloadResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO downloads
		 (run_id, key, status, reason, bytes_written, attempts, archive_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		_, err := stmt.ExecContext(ctx,
			runID, r.Key, string(r.Status), r.Reason, r.BytesWritten, r.Attempts, r.ArchiveName,
		)
		if err != nil {
			return fmt.Errorf("inserting download %s: %w", r.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing downloads: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, year_from, year_to, started_at, exported
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var started string
		if err := rows.Scan(&run.ID, &run.Query, &run.YearFrom, &run.YearTo, &started, &run.Exported); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, started)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunRecords returns the records persisted for one run.
func (s *Store) RunRecords(ctx context.Context, runID string) ([]types.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, authors, year, doi, abstract, venue, pdf_url, url, sources, score
		 FROM records WHERE run_id = ? ORDER BY score DESC`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []types.Record
	for rows.Next() {
		var rec types.Record
		var authorsJSON, sourcesJSON string
		var year sql.NullInt64
		if err := rows.Scan(&rec.Title, &authorsJSON, &year, &rec.DOI, &rec.Abstract,
			&rec.Venue, &rec.PDFURL, &rec.LandingURL, &sourcesJSON, &rec.Score); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if year.Valid {
			rec.Year = types.YearOf(int(year.Int64))
		}
		json.Unmarshal([]byte(authorsJSON), &rec.Authors)
		json.Unmarshal([]byte(sourcesJSON), &rec.Sources)
		records = append(records, rec)
	}
	return records, rows.Err()
}
