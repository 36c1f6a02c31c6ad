// Package history keeps a small persistent log of apply operations so
// the status tool can show what the bridge changed recently. It uses
// SQLite in WAL mode under the user's home directory; when the store
// cannot be opened the bridge runs without history.
package history

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Record is one completed apply call.
type Record struct {
	ID           int64    `json:"id"`
	ProjectRoot  string   `json:"project_root"`
	AppliedCount int      `json:"applied_count"`
	ErrorCount   int      `json:"error_count"`
	AppliedPaths []string `json:"applied_paths"`
	CreatedAt    string   `json:"created_at"`
}

// Config holds store configuration.
type Config struct {
	DataDir string
}

// DefaultConfig places the database under ~/.pgbridge.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{DataDir: filepath.Join(home, ".pgbridge")}
}

// Store is the apply-history log backed by SQLite.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the history database and runs migrations.
func New(cfg Config) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("history: create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(cfg.DataDir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("history: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("history: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS applies (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			project_root  TEXT    NOT NULL,
			applied_count INTEGER NOT NULL,
			error_count   INTEGER NOT NULL,
			applied_paths TEXT    NOT NULL DEFAULT '[]',
			created_at    TEXT    NOT NULL DEFAULT (datetime('now'))
		);
		CREATE INDEX IF NOT EXISTS idx_applies_project
			ON applies(project_root, created_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Add records one completed apply call and returns its row ID.
func (s *Store) Add(projectRoot string, appliedCount, errorCount int, appliedPaths []string) (int64, error) {
	paths, err := json.Marshal(appliedPaths)
	if err != nil {
		return 0, fmt.Errorf("history: encode paths: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO applies (project_root, applied_count, error_count, applied_paths)
		 VALUES (?, ?, ?, ?)`,
		projectRoot, appliedCount, errorCount, string(paths),
	)
	if err != nil {
		return 0, fmt.Errorf("history: insert: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns the newest records for a project root, newest first.
func (s *Store) Recent(projectRoot string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.Query(
		`SELECT id, project_root, applied_count, error_count, applied_paths, created_at
		 FROM applies
		 WHERE project_root = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		projectRoot, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Record
	for rows.Next() {
		var r Record
		var paths string
		if err := rows.Scan(&r.ID, &r.ProjectRoot, &r.AppliedCount, &r.ErrorCount, &paths, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(paths), &r.AppliedPaths); err != nil {
			r.AppliedPaths = nil
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
