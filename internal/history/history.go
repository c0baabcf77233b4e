// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history keeps a SQLite record of past runs and the outcome of
// every identifier they processed.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-roundup/pkg/types"
)

// ErrNotFound is returned by Get for an unknown run ID.
var ErrNotFound = errors.New("run not found")

// Item is the stored outcome of one identifier.
type Item struct {
	Seq        int    `json:"seq" yaml:"seq"`
	Identifier string `json:"identifier" yaml:"identifier"`
	Status     string `json:"status" yaml:"status"`
	URL        string `json:"url,omitempty" yaml:"url,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
	File       string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Run is a stored run with its items.
type Run struct {
	types.RunSummary `yaml:",inline"`
	Items            []Item `json:"items,omitempty" yaml:"items,omitempty"`
}

// Store wraps the history database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns ~/.pdf_roundup/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	return filepath.Join(home, ".pdf_roundup", "history.db"), nil
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
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
			started_at TEXT NOT NULL,
			finished_at TEXT NOT NULL,
			input_path TEXT,
			output_dir TEXT,
			policy TEXT,
			total INTEGER,
			downloaded INTEGER,
			failed INTEGER,
			outputs TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			identifier TEXT NOT NULL,
			status TEXT NOT NULL,
			url TEXT,
			error TEXT,
			file TEXT,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_identifier ON items(identifier)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a finished run and its per-identifier results in one
// transaction.
func (s *Store) Record(ctx context.Context, summary types.RunSummary, results []types.DownloadResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	outputs := summary.Archives
	if len(outputs) == 0 {
		outputs = summary.Moved
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, input_path, output_dir, policy, total, downloaded, failed, outputs)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID,
		summary.Started.UTC().Format(time.RFC3339Nano),
		summary.Finished.UTC().Format(time.RFC3339Nano),
		summary.InputPath, summary.OutputDir, summary.Policy,
		summary.Total, summary.Downloaded, summary.Failed,
		strings.Join(outputs, "\n"),
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (run_id, seq, identifier, status, url, error, file) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, res := range results {
		status, errText := "success", ""
		if !res.OK() {
			status = "error"
			if res.Err != nil {
				errText = res.Err.Error()
			}
		}
		file := ""
		if res.Path != "" {
			file = filepath.Base(res.Path)
		}
		if _, err := stmt.ExecContext(ctx, summary.RunID, i+1, res.Identifier, status, res.URL, errText, file); err != nil {
			return fmt.Errorf("inserting item %s: %w", res.Identifier, err)
		}
	}
	return tx.Commit()
}

// List returns the most recent runs, newest first, without items.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, input_path, output_dir, policy, total, downloaded, failed, outputs
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns one run with its items. The id may be a unique prefix.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, input_path, output_dir, policy, total, downloaded, failed, outputs
		 FROM runs WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escapeLike(id)+"%")
	if err != nil {
		return Run{}, fmt.Errorf("querying run: %w", err)
	}
	var matches []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return Run{}, err
		}
		matches = append(matches, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(matches) {
	case 0:
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
	default:
		return Run{}, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
	run := matches[0]

	itemRows, err := s.db.QueryContext(ctx,
		`SELECT seq, identifier, status, url, error, file FROM items WHERE run_id = ? ORDER BY seq`, run.RunID)
	if err != nil {
		return Run{}, fmt.Errorf("querying items: %w", err)
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var it Item
		var url, errText, file sql.NullString
		if err := itemRows.Scan(&it.Seq, &it.Identifier, &it.Status, &url, &errText, &file); err != nil {
			return Run{}, fmt.Errorf("scanning item: %w", err)
		}
		it.URL, it.Error, it.File = url.String, errText.String, file.String
		run.Items = append(run.Items, it)
	}
	return run, itemRows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		r                 Run
		started, finished string
		input, out, pol   sql.NullString
		outputs           sql.NullString
	)
	if err := sc.Scan(&r.RunID, &started, &finished, &input, &out, &pol,
		&r.Total, &r.Downloaded, &r.Failed, &outputs); err != nil {
		return Run{}, fmt.Errorf("scanning run: %w", err)
	}
	r.Started, _ = time.Parse(time.RFC3339Nano, started)
	r.Finished, _ = time.Parse(time.RFC3339Nano, finished)
	r.InputPath, r.OutputDir, r.Policy = input.String, out.String, pol.String
	if outputs.String != "" {
		list := strings.Split(outputs.String, "\n")
		if strings.HasSuffix(list[0], ".zip") {
			r.Archives = list
		} else {
			r.Moved = list
		}
	}
	return r, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

// ExportYAML writes run as YAML to w.
func ExportYAML(w io.Writer, run Run) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&run); err != nil {
		return fmt.Errorf("encoding run: %w", err)
	}
	return enc.Close()
}
