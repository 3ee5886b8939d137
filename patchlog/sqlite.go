// ABOUTME: SQLite-backed audit log of ProcessPatch invocations.
// ABOUTME: Provides Record/List operations; rows are append-only, never mutated.
package patchlog

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

// Entry is one audit row: the outcome of a single ProcessPatch call.
type Entry struct {
	ID        string
	Timestamp time.Time
	Fuzz      int
	Paths     []string
	Outcome   string // "applied" or the error message text
}

// Log is a SQLite-backed append-only audit log.
type Log struct {
	db *sql.DB
}

// Open opens or creates an audit log database at path, running migrations
// to ensure the schema is up to date.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS patch_runs (
			run_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			fuzz INTEGER NOT NULL,
			paths TEXT NOT NULL,
			outcome TEXT NOT NULL
		);`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Close closes the underlying database connection.
func (l *Log) Close() error {
	return l.db.Close()
}

// Record inserts a new audit row with a fresh ULID, using now for both the
// ULID's timestamp component and the stored timestamp.
func (l *Log) Record(now time.Time, fuzz int, paths []string, outcome string) (string, error) {
	id := ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()

	_, err := l.db.Exec(
		`INSERT INTO patch_runs (run_id, created_at, fuzz, paths, outcome) VALUES (?, ?, ?, ?, ?)`,
		id,
		now.Format(time.RFC3339),
		fuzz,
		strings.Join(paths, ","),
		outcome,
	)
	if err != nil {
		return "", fmt.Errorf("record patch run: %w", err)
	}
	return id, nil
}

// List returns the most recent audit rows, newest first, up to limit rows.
func (l *Log) List(limit int) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT run_id, created_at, fuzz, paths, outcome FROM patch_runs
		 ORDER BY run_id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list patch runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var createdAt, paths string
		if err := rows.Scan(&e.ID, &createdAt, &e.Fuzz, &paths, &e.Outcome); err != nil {
			return nil, fmt.Errorf("scan patch run: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		e.Timestamp = ts
		if paths != "" {
			e.Paths = strings.Split(paths, ",")
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
