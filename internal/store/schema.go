// schema.go defines the SQLite database schema and provides schema execution
// helpers.
//
// Statements are executed in order and each uses IF NOT EXISTS, so Init is
// idempotent across restarts and upgrades that only append statements.
//
// Design: content_hash and path uniqueness apply only to non-deleted rows
// (partial indexes), so soft-deleted audit rows never block re-ingestion.
// The FTS table is standalone rather than content-linked: rows are written
// and removed explicitly inside the same transaction as the document row,
// which keeps the projection and the table in lock-step.

package store

import (
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS documents (
		file_id      INTEGER PRIMARY KEY AUTOINCREMENT,
		path         TEXT    NOT NULL,
		filename     TEXT    NOT NULL,
		file_type    TEXT    NOT NULL DEFAULT '',
		size_bytes   INTEGER NOT NULL CHECK (size_bytes >= 0),
		created_at   TEXT    NOT NULL,
		modified_at  TEXT    NOT NULL,
		indexed_at   TEXT    NOT NULL,
		content_hash TEXT    NOT NULL,
		is_deleted   INTEGER NOT NULL DEFAULT 0
	)`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_hash
		ON documents(content_hash) WHERE is_deleted = 0`,

	`CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_path
		ON documents(path) WHERE is_deleted = 0`,

	`CREATE INDEX IF NOT EXISTS idx_documents_type
		ON documents(file_type) WHERE is_deleted = 0`,

	`CREATE INDEX IF NOT EXISTS idx_documents_modified
		ON documents(modified_at) WHERE is_deleted = 0`,

	`CREATE TABLE IF NOT EXISTS content (
		file_id         INTEGER PRIMARY KEY
			REFERENCES documents(file_id) ON DELETE CASCADE,
		full_text       TEXT    NOT NULL,
		content_preview TEXT    NOT NULL,
		word_count      INTEGER NOT NULL,
		summary         TEXT
	)`,

	// Porter stemming so "running" matches "run". rowid is the document's
	// file_id; there is exactly one row per non-deleted document.
	`CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
		filename,
		content,
		tokenize = 'porter unicode61'
	)`,
}

// execSchema executes the schema statements in order.
func execSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec schema: %w", wrapDBErr(err))
		}
	}
	return nil
}
