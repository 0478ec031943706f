package storage

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is recorded in the metadata table on creation.
const SchemaVersion = "2"

// CreateSchema creates the snapshot tables and indexes if they are missing.
// All statements run in one transaction.
//
// Must be called with SQLite PRAGMA foreign_keys = ON.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	tables := []struct {
		name string
		ddl  string
	}{
		{"metadata", createMetadataTable},
		{"runs", createRunsTable},
		{"files", createFilesTable},
		{"symbols", createSymbolsTable},
		{"dependencies", createDependenciesTable},
	}
	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i+1, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`INSERT OR IGNORE INTO metadata (key, value, updated_at) VALUES ('schema_version', ?, ?)`,
		SchemaVersion, now,
	); err != nil {
		return fmt.Errorf("failed to bootstrap metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema transaction: %w", err)
	}
	return nil
}

// GetSchemaVersion returns the stored schema version, or "0" for a new database.
func GetSchemaVersion(db *sql.DB) (string, error) {
	var exists int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='metadata'").Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("failed to check metadata existence: %w", err)
	}
	if exists == 0 {
		return "0", nil
	}

	var version string
	err = db.QueryRow("SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&version)
	if err == sql.ErrNoRows {
		return "0", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL
)
`

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,                  -- uuid
    root TEXT NOT NULL,                   -- project directory analyzed
    branch TEXT NOT NULL DEFAULT '',      -- empty outside a git work tree
    commit_hash TEXT NOT NULL DEFAULT '',
    started_at TEXT NOT NULL,             -- ISO 8601
    finished_at TEXT,                     -- NULL while running
    files INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    operations INTEGER NOT NULL DEFAULT 0,
    resources INTEGER NOT NULL DEFAULT 0
)
`

const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
    path TEXT PRIMARY KEY,                -- slash-separated, relative to the project root
    run_id TEXT NOT NULL REFERENCES runs(id),
    hash TEXT NOT NULL,                   -- xxh3 of the content
    settings TEXT NOT NULL DEFAULT '',    -- fingerprint of the analysis settings used
    analyzed_at TEXT NOT NULL
)
`

const createSymbolsTable = `
CREATE TABLE IF NOT EXISTS symbols (
    file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
    ordinal INTEGER NOT NULL,             -- source order within the file
    name TEXT NOT NULL,
    kind TEXT NOT NULL,                   -- function or class
    line INTEGER NOT NULL,
    PRIMARY KEY (file_path, ordinal)
)
`

const createDependenciesTable = `
CREATE TABLE IF NOT EXISTS dependencies (
    file_path TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
    operation TEXT NOT NULL,
    resource TEXT NOT NULL,
    kind TEXT NOT NULL,                   -- parameter, file, database, http, config
    line INTEGER NOT NULL,
    ordinal INTEGER NOT NULL,             -- detection order within the operation
    PRIMARY KEY (file_path, operation, resource)
)
`

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_files_run ON files(run_id)",
	"CREATE INDEX IF NOT EXISTS idx_dependencies_resource ON dependencies(resource)",
}
