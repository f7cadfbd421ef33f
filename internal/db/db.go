// Package db provides the SQLite persistence layer for the vCard archive.
//
// The database mirrors the on-disk card directory into two tables:
//
//   - FILE: one row per card file (file_id, file_name, last_modified,
//     creation_time)
//   - CONTACT: one row per contact (contact_id, name, birthday,
//     anniversary, file_id), owned by its FILE row via a cascading
//     foreign key
//
// The database runs embedded with WAL enabled. Rows are written by the
// sync engine and the interactive screens; the directory of card files
// remains the source of truth.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// TimeLayout is the storage format for all timestamp columns.
const TimeLayout = "2006-01-02 15:04:05"

// DB wraps the SQLite connection with archive-specific operations.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates a database connection at the specified path.
//
// The parent directory is created if missing. WAL mode, a busy timeout
// and foreign key enforcement are enabled on the connection.
//
// The caller MUST call Close() when done.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	db := &DB{conn: conn, path: path}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.conn.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	return db, nil
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

// Close checkpoints the WAL and closes the connection.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	if _, err := db.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := db.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	db.conn = nil
	return nil
}

// InitSchema creates the FILE and CONTACT tables if they don't exist.
// Safe to call multiple times.
//
// file_name is declared UNIQUE: every lookup keys on it, so duplicate
// names are rejected at insert time rather than producing ambiguous
// rows.
func (db *DB) InitSchema() error {
	return db.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the database schema with context support.
func (db *DB) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS FILE (
		file_id INTEGER PRIMARY KEY AUTOINCREMENT,
		file_name TEXT NOT NULL UNIQUE,
		last_modified TEXT,
		creation_time TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS CONTACT (
		contact_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		birthday TEXT,
		anniversary TEXT,
		file_id INTEGER NOT NULL,
		FOREIGN KEY (file_id) REFERENCES FILE(file_id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_contact_file ON CONTACT(file_id);
	CREATE INDEX IF NOT EXISTS idx_contact_name ON CONTACT(name);
	`

	if _, err := db.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// FormatTime renders a timestamp in the storage layout, truncated to
// second resolution. The wall clock is local so ParseTime recovers the
// same instant.
func FormatTime(t time.Time) string {
	return t.Truncate(time.Second).Local().Format(TimeLayout)
}

// ParseTime parses a stored timestamp as local time, the zone FormatTime
// wrote it in. The zero time is returned for empty or malformed values.
func ParseTime(s string) time.Time {
	t, err := time.ParseInLocation(TimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

// nullString converts an optional value to its SQL representation;
// empty means NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// fromNullString converts a nullable column back to a plain string.
func fromNullString(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}
