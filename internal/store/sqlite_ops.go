// sqlite_ops.go provides SQLite connection management and low-level operations.
//
// Separated to isolate SQLite-specific concerns (pragmas, locking, busy retry)
// from business logic. This is the only file that imports the SQLite driver,
// making it easier to swap implementations if needed.
//
// Design: WAL mode with busy timeout balances concurrency and durability.
// WAL allows the query side to read while the indexing worker commits
// (invariant: queries never wait longer than one file's transaction). On top
// of the busy timeout, write transactions get a small bounded retry because a
// checkpoint can still surface SQLITE_BUSY after the timeout expires.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Register sqlite driver
	_ "modernc.org/sqlite"
)

// lockFileName is the advisory lock created beside the database file. The
// store file is exclusive to one process; a second open fails fast.
const lockFileName = "cortex.lock"

// busyAttempts bounds the internal retry on transient SQLITE_BUSY errors.
const busyAttempts = 3

// SQLiteStore implements Store using SQLite with WAL mode and an FTS5
// projection maintained in the same transactions as the document rows.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	lockPath string
}

// Compile-time interface compliance check. If a method is missing or has the
// wrong signature, the build fails immediately rather than at runtime.
var _ Store = (*SQLiteStore)(nil)

// Open opens the SQLite database file at path and returns a configured
// SQLiteStore. The caller should call Close on the returned store.
//
// An advisory lock file is created beside the database; if another process
// holds it, Open fails fast with ErrStoreLocked.
func Open(path string) (*SQLiteStore, error) {
	lockPath := filepath.Join(filepath.Dir(path), lockFileName)
	if err := acquireLock(lockPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		releaseLock(lockPath)
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}

	// WAL mode: allows concurrent readers while the indexing worker writes.
	// Trade-off: creates -wal and -shm files alongside the database.
	pragmas := []string{
		`PRAGMA journal_mode=WAL`,
		// Busy timeout: how long to wait when another connection holds a
		// lock. Most operations complete in milliseconds; 5 seconds prevents
		// "database is locked" errors without waiting forever.
		`PRAGMA busy_timeout=5000`,
		// With WAL, NORMAL is safe against corruption and ~10x faster than
		// FULL. The only risk is losing the last transaction on OS crash,
		// acceptable for an index that can be rebuilt from disk.
		`PRAGMA synchronous=NORMAL`,
		// Content rows must never outlive their document row.
		`PRAGMA foreign_keys=ON`,
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			releaseLock(lockPath)
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	return &SQLiteStore{db: db, path: path, lockPath: lockPath}, nil
}

// Init creates tables and indexes if they don't exist. Safe to call multiple
// times; uses IF NOT EXISTS to avoid errors on existing databases.
func (s *SQLiteStore) Init() error {
	return execSchema(s.db)
}

// Close releases the database connection and the advisory lock. Call before
// program exit to ensure all pending writes are flushed.
func (s *SQLiteStore) Close() error {
	err := s.db.Close()
	releaseLock(s.lockPath)
	return err
}

// DB exposes the underlying connection for maintenance tooling.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Path returns the database file location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// acquireLock creates the advisory lock file exclusively. An existing file
// means another process owns the store.
func acquireLock(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrStoreLocked
		}
		return fmt.Errorf("create lock file: %w", err)
	}
	fmt.Fprintf(f, "%d\n", os.Getpid())
	return f.Close()
}

func releaseLock(path string) {
	_ = os.Remove(path)
}

// scanner abstracts sql.Row and sql.Rows, enabling a single scan function
// to handle both single-row and multi-row queries.
type scanner interface {
	Scan(dest ...any) error
}

// scanDoc extracts a Document from a row holding the standard document
// columns, parsing the RFC3339 timestamp columns.
func scanDoc(sc scanner) (Document, error) {
	var d Document
	var created, modified, indexed string
	var deleted int

	err := sc.Scan(&d.FileID, &d.Path, &d.Filename, &d.FileType, &d.SizeBytes,
		&created, &modified, &indexed, &d.ContentHash, &deleted)
	if err != nil {
		return d, err
	}

	if d.CreatedAt, err = parseTime(created); err != nil {
		return d, err
	}
	if d.ModifiedAt, err = parseTime(modified); err != nil {
		return d, err
	}
	if d.IndexedAt, err = parseTime(indexed); err != nil {
		return d, err
	}
	d.IsDeleted = deleted != 0
	return d, nil
}

// formatTime renders a timestamp the way the schema stores it: ISO-8601 UTC.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored timestamp %q: %w", s, err)
	}
	return t, nil
}

// Tx executes fn within a database transaction, handling Begin/Commit/Rollback
// automatically. Transient busy errors are retried a bounded number of times;
// any other error rolls back and propagates.
//
// Callers focus on business logic; Tx handles the ceremony:
//
//	err := s.Tx(ctx, func(tx *sql.Tx) error {
//	    if _, err := tx.ExecContext(ctx, `UPDATE ...`); err != nil {
//	        return err  // triggers rollback
//	    }
//	    return nil  // triggers commit
//	})
func (s *SQLiteStore) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	var err error
	for attempt := 1; ; attempt++ {
		err = s.tryTx(ctx, fn)
		if err == nil || !isBusy(err) || attempt >= busyAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
		}
	}
}

func (s *SQLiteStore) tryTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// isBusy reports whether err is a transient SQLITE_BUSY/SQLITE_LOCKED
// condition worth retrying.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// isCorrupt reports whether err is a corruption diagnostic from SQLite.
func isCorrupt(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database disk image is malformed") ||
		strings.Contains(msg, "SQLITE_CORRUPT")
}

// wrapDBErr promotes corruption diagnostics to CorruptionError so callers can
// distinguish the fatal case from ordinary operation failures.
func wrapDBErr(err error) error {
	if err == nil {
		return nil
	}
	if isCorrupt(err) {
		return &CorruptionError{Detail: err.Error()}
	}
	return err
}
