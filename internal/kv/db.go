package kv

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// DBFile is the database file name inside the base directory.
const DBFile = "letvision.db"

// dataDirs are created next to the database: JSONL backups and uploaded photos.
var dataDirs = []string{"exports", "images"}

// Init initializes the SQLite database at baseDir/letvision.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.letvision.
// The base directory and its data directories are owner-only (0700), the
// database file 0600.
func Init(baseDir string) (*sql.DB, error) {
	if err := ensurePrivateDir(baseDir); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	for _, name := range dataDirs {
		if err := ensurePrivateDir(filepath.Join(baseDir, name)); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", name, err)
		}
	}

	// Pragmas ride on the DSN so every pooled connection gets them,
	// not only the first one.
	dbPath := filepath.Join(baseDir, DBFile)
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The history store rewrites one row per mutation; WAL keeps readers
	// (list pages, MCP fetches) unblocked while the cron cleanup writes.
	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}

	// First migration creates the database file.
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	// Best-effort: not every platform honours chmod.
	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// ensurePrivateDir creates dir if needed and tightens it to 0700.
// The chmod is best-effort since MkdirAll leaves existing modes alone.
func ensurePrivateDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}
	_ = os.Chmod(dir, 0700)
	return nil
}

// ConfigurePool applies connection pool limits.
// Only sets limits if explicitly configured (non-zero values).
func ConfigurePool(db *sql.DB, maxOpen, maxIdle int) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := GetUserVersion(db)
	if err != nil {
		return err
	}

	// Migration 0 -> 1: key-value table. The history lives in a single row
	// (key "history"); updated_at is unix seconds of the last Set.
	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS kv (
		  key        TEXT PRIMARY KEY,
		  value      TEXT NOT NULL,
		  updated_at INTEGER NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := SetUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Later schema changes add "if version < N" blocks here and bump
	// CurrentSchemaVersion.

	return nil
}

// verifyWALMode checks that WAL mode is active (set via connection string).
func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

// GetUserVersion returns the current schema version (user_version pragma).
func GetUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

// SetUserVersion sets the schema version (user_version pragma).
func SetUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}
