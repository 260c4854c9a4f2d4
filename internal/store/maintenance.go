// maintenance.go implements database maintenance and recovery operations.
//
// Separated because these are deliberate, occasionally destructive operations
// with different usage patterns than normal reads and writes. They should be
// invoked from the CLI or on graceful shutdown, never from the indexing hot
// path.
//
// Design: recovery follows SQLite's own guidance — read every page the
// journal can still serve into a fresh file via VACUUM INTO, then swap the
// fresh file into place atomically so a crash mid-recovery never leaves a
// half-written store.

package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/natefinch/atomic"
)

// IntegrityCheck runs SQLite's integrity check. A clean store returns nil;
// any damage is surfaced as a CorruptionError carrying the diagnostic.
func (s *SQLiteStore) IntegrityCheck(ctx context.Context) error {
	var result string
	err := s.db.QueryRowContext(ctx, `PRAGMA integrity_check`).Scan(&result)
	if err != nil {
		return wrapDBErr(fmt.Errorf("integrity check: %w", err))
	}
	if result != "ok" {
		return &CorruptionError{Detail: result}
	}
	return nil
}

// Vacuum rebuilds the database file, reclaiming space from purged rows.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return wrapDBErr(fmt.Errorf("vacuum: %w", err))
	}
	return nil
}

// Checkpoint writes all WAL data back to the main database file and truncates
// the WAL. Called on graceful shutdown so the store is a single file at rest.
func (s *SQLiteStore) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return wrapDBErr(fmt.Errorf("WAL checkpoint: %w", err))
	}
	return nil
}

// Recover is the one-shot recovery routine for a corrupted store. It reads
// every salvageable page through the journal into a fresh database file and
// atomically replaces the damaged one. The store must not be open; Recover
// takes the path directly and manages its own connection.
func Recover(ctx context.Context, path string) error {
	s, err := Open(path)
	if err != nil {
		return err
	}

	tmp := path + ".recovered"
	// VACUUM INTO refuses to overwrite an existing file.
	_ = os.Remove(tmp)

	// VACUUM statements reject bound parameters; the filename is inlined
	// with quote escaping instead.
	_, vacErr := s.db.ExecContext(ctx,
		fmt.Sprintf(`VACUUM INTO '%s'`, strings.ReplaceAll(tmp, `'`, `''`)))
	closeErr := s.Close()
	if vacErr != nil {
		return fmt.Errorf("rewrite database: %w", wrapDBErr(vacErr))
	}
	if closeErr != nil {
		return fmt.Errorf("close damaged database: %w", closeErr)
	}
	if err := atomic.ReplaceFile(tmp, path); err != nil {
		return fmt.Errorf("swap recovered database: %w", err)
	}
	// Stale sidecars belong to the damaged file.
	_ = os.Remove(path + "-wal")
	_ = os.Remove(path + "-shm")
	return nil
}
