// Package audit keeps a local trail of tool invocations: which query was
// asked, whether the gate accepted it, and how long the call took.
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Verdict is the recorded outcome of a tool invocation.
type Verdict string

const (
	VerdictAccepted Verdict = "accepted"
	VerdictRejected Verdict = "rejected"
	VerdictError    Verdict = "error"
)

// Entry is one recorded tool invocation.
type Entry struct {
	ID        string
	Tool      string
	Query     string
	Verdict   Verdict
	Reason    string
	Duration  time.Duration
	CreatedAt time.Time
}

// Store is a sqlite-backed audit trail.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the audit database at the given path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// Set PRAGMAs explicitly (modernc driver doesn't support DSN query params)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}

	s := &Store{db: sqlDB}
	if err := s.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate audit database: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var migrations = []struct {
	version int
	sqls    []string
}{
	{1, []string{
		`CREATE TABLE IF NOT EXISTS invocations (
			id TEXT PRIMARY KEY,
			tool TEXT NOT NULL,
			query TEXT NOT NULL,
			verdict TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			duration_ms INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_created ON invocations(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_invocations_tool ON invocations(tool)`,
	}},
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create schema_version table: %w", err)
	}

	currentVersion := s.schemaVersion()

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
		}
		for _, stmt := range m.sqls {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version, applied_at) VALUES (?, ?)",
			m.version, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
		}
	}

	return nil
}

func (s *Store) schemaVersion() int {
	var version int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version); err != nil {
		return 0
	}
	return version
}

// Record stores one invocation and returns its id. An empty ID is assigned a
// fresh ULID.
func (s *Store) Record(e Entry) (string, error) {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.Exec(
		`INSERT INTO invocations (id, tool, query, verdict, reason, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Tool, e.Query, string(e.Verdict), e.Reason,
		e.Duration.Milliseconds(), e.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("failed to record invocation: %w", err)
	}
	return e.ID, nil
}

// Recent returns the most recent invocations, newest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, tool, query, verdict, reason, duration_ms, created_at
		FROM invocations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list invocations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var verdict, createdAt string
		var durationMS int64
		if err := rows.Scan(&e.ID, &e.Tool, &e.Query, &verdict, &e.Reason, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}
		e.Verdict = Verdict(verdict)
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
