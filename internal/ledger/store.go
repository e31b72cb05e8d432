// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records pipeline runs and the pages they saved in a SQLite
// database, so earlier runs can be listed and their page digests compared.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/pagebinder/pkg/types"
)

// Run statuses.
const (
	StatusAssembled = "assembled"
	StatusEmpty     = "empty"
	StatusFailed    = "failed"
)

// Run is one recorded pipeline run.
type Run struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time

	// Source names the markup input (file path, URL, or "stdin").
	Source     string
	Folder     string
	OutputPath string

	Saved   int
	Skipped int
	Failed  int

	// Status is one of StatusAssembled, StatusEmpty, or StatusFailed.
	Status string

	// Error holds the message of the error that stopped the run, if any.
	Error string
}

// Store manages the ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at path and creates the schema
// if it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
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
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			source TEXT,
			folder TEXT,
			output_path TEXT,
			saved INTEGER NOT NULL,
			skipped INTEGER NOT NULL,
			failed INTEGER NOT NULL,
			status TEXT NOT NULL,
			error TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS pages (
			run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			page INTEGER NOT NULL,
			source_url TEXT NOT NULL,
			path TEXT NOT NULL,
			size INTEGER NOT NULL,
			sha256 TEXT NOT NULL,
			PRIMARY KEY (run_id, page)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores run and its saved pages in one transaction and returns the
// new run ID.
func (s *Store) Record(ctx context.Context, run Run, pages []types.SavedImage) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (started_at, finished_at, source, folder, output_path, saved, skipped, failed, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.FinishedAt.UTC().Format(time.RFC3339Nano),
		run.Source, run.Folder, run.OutputPath,
		run.Saved, run.Skipped, run.Failed,
		run.Status, run.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO pages (run_id, page, source_url, path, size, sha256) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing page insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range pages {
		if _, err := stmt.ExecContext(ctx, id, p.Page, p.SourceURL, p.Path, p.Size, p.SHA256); err != nil {
			return 0, fmt.Errorf("inserting page %d: %w", p.Page, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return id, nil
}

// Runs returns up to limit runs, most recent first. A limit of zero or less
// returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, finished_at, source, folder, output_path, saved, skipped, failed, status, error
		FROM runs ORDER BY id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
			source, folder    sql.NullString
			output, errMsg    sql.NullString
		)
		if err := rows.Scan(&r.ID, &started, &finished, &source, &folder, &output,
			&r.Saved, &r.Skipped, &r.Failed, &r.Status, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		r.Source = source.String
		r.Folder = folder.String
		r.OutputPath = output.String
		r.Error = errMsg.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Pages returns the pages saved by run runID in ascending page order.
func (s *Store) Pages(ctx context.Context, runID int64) ([]types.SavedImage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT page, source_url, path, size, sha256 FROM pages WHERE run_id = ? ORDER BY page`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying pages: %w", err)
	}
	defer rows.Close()

	var pages []types.SavedImage
	for rows.Next() {
		var p types.SavedImage
		if err := rows.Scan(&p.Page, &p.SourceURL, &p.Path, &p.Size, &p.SHA256); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}
