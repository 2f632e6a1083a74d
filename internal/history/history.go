// Package history records scan and verify runs in a local sqlite database
// so trends survive across CI jobs on the same runner.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Entry is one recorded run.
type Entry struct {
	ID             int64
	CreatedAtUtc   string
	Mode           string
	Status         string
	Blocker        int
	Critical       int
	Major          int
	Minor          int
	Info           int
	Scanned        int
	WithViolations int
	CommitSHA      string
}

// Store wraps the runs database. Callers own Close.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach history database: %w", err)
	}
	s := &Store{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TEXT NOT NULL,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		blocker INTEGER NOT NULL DEFAULT 0,
		critical INTEGER NOT NULL DEFAULT 0,
		major INTEGER NOT NULL DEFAULT 0,
		minor INTEGER NOT NULL DEFAULT 0,
		info INTEGER NOT NULL DEFAULT 0,
		scanned INTEGER NOT NULL DEFAULT 0,
		with_violations INTEGER NOT NULL DEFAULT 0,
		commit_sha TEXT NOT NULL DEFAULT ''
	)`)
	if err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return nil
}

// Record inserts one run. A missing timestamp gets the current UTC time.
func (s *Store) Record(e Entry) error {
	if e.CreatedAtUtc == "" {
		e.CreatedAtUtc = time.Now().UTC().Format(time.RFC3339)
	}
	_, err := s.db.Exec(`INSERT INTO runs
		(created_at, mode, status, blocker, critical, major, minor, info, scanned, with_violations, commit_sha)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CreatedAtUtc, e.Mode, e.Status,
		e.Blocker, e.Critical, e.Major, e.Minor, e.Info,
		e.Scanned, e.WithViolations, e.CommitSHA)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// Recent returns up to n runs, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.Query(`SELECT id, created_at, mode, status,
		blocker, critical, major, minor, info, scanned, with_violations, commit_sha
		FROM runs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.CreatedAtUtc, &e.Mode, &e.Status,
			&e.Blocker, &e.Critical, &e.Major, &e.Minor, &e.Info,
			&e.Scanned, &e.WithViolations, &e.CommitSHA); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Prune drops rows beyond maxRows and older than keepDays. A zero limit
// disables that dimension. RFC3339 UTC strings compare lexicographically,
// so the cutoff works as a plain string comparison.
func (s *Store) Prune(maxRows, keepDays int) (int64, error) {
	var total int64
	if maxRows > 0 {
		res, err := s.db.Exec(`DELETE FROM runs WHERE id NOT IN
			(SELECT id FROM runs ORDER BY id DESC LIMIT ?)`, maxRows)
		if err != nil {
			return total, fmt.Errorf("failed to prune by row count: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if keepDays > 0 {
		cutoff := time.Now().UTC().AddDate(0, 0, -keepDays).Format(time.RFC3339)
		res, err := s.db.Exec(`DELETE FROM runs WHERE created_at < ?`, cutoff)
		if err != nil {
			return total, fmt.Errorf("failed to prune by age: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
