// write.go implements document ingestion and deletion operations.
//
// Separated from the main store file to isolate mutating operations. Every
// mutation that ingests, replaces or removes a document also settles the FTS
// projection within the same transaction, so readers never observe the two out
// of sync. TouchDocument is the exception: it refreshes metadata only and
// leaves the FTS entry, including its filename text, as last ingested.
//
// Design: the upsert is keyed by content_hash. A hash hit keeps the existing
// file_id and refreshes metadata; a path hit with a new hash means the file
// changed in place and the row is updated rather than duplicated. Both unique
// constraints (hash, path) apply to non-deleted rows only.

package store

import (
	"context"
	"database/sql"
	"fmt"
)

// InsertOrUpdateDocument ingests one document and its extracted content
// atomically: document row, content row, and FTS entry all commit together or
// not at all. Returns the file_id of the affected row.
//
// Conflict resolution, in order:
//  1. A non-deleted row with the same content_hash keeps its file_id; the
//     metadata is refreshed (latest write wins, including the path).
//  2. Otherwise a non-deleted row with the same path is updated in place —
//     the file's bytes changed.
//  3. Otherwise a new row is inserted.
func (s *SQLiteStore) InsertOrUpdateDocument(ctx context.Context, meta DocumentMeta, content ExtractedContent) (int64, error) {
	var fileID int64

	err := s.Tx(ctx, func(tx *sql.Tx) error {
		id, found, err := lookupActive(ctx, tx, `content_hash = ?`, meta.ContentHash)
		if err != nil {
			return err
		}
		if !found {
			id, found, err = lookupActive(ctx, tx, `path = ?`, meta.Path)
			if err != nil {
				return err
			}
		}

		// A hash hit may carry a new path that another active row still
		// claims; that row is stale (latest write wins), so retire it.
		if found {
			if err := retireOtherPathRow(ctx, tx, id, meta.Path); err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `UPDATE documents
				SET path = ?, filename = ?, file_type = ?, size_bytes = ?,
				    created_at = ?, modified_at = ?, indexed_at = ?, content_hash = ?
				WHERE file_id = ?`,
				meta.Path, meta.Filename, meta.FileType, meta.SizeBytes,
				formatTime(meta.CreatedAt), formatTime(meta.ModifiedAt),
				formatTime(now()), meta.ContentHash, id)
			if err != nil {
				return fmt.Errorf("update document: %w", err)
			}
		} else {
			res, err := tx.ExecContext(ctx, `INSERT INTO documents
				(path, filename, file_type, size_bytes, created_at, modified_at, indexed_at, content_hash, is_deleted)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
				meta.Path, meta.Filename, meta.FileType, meta.SizeBytes,
				formatTime(meta.CreatedAt), formatTime(meta.ModifiedAt),
				formatTime(now()), meta.ContentHash)
			if err != nil {
				return fmt.Errorf("insert document: %w", err)
			}
			if id, err = res.LastInsertId(); err != nil {
				return fmt.Errorf("insert document: %w", err)
			}
		}
		fileID = id

		_, err = tx.ExecContext(ctx, `INSERT INTO content (file_id, full_text, content_preview, word_count)
			VALUES (?, ?, ?, ?)
			ON CONFLICT(file_id) DO UPDATE SET
				full_text = excluded.full_text,
				content_preview = excluded.content_preview,
				word_count = excluded.word_count`,
			id, content.Text, preview(content.Text), content.WordCount)
		if err != nil {
			return fmt.Errorf("upsert content: %w", err)
		}

		return replaceFTS(ctx, tx, id, meta.Filename, content.Text)
	})
	if err != nil {
		return 0, wrapDBErr(err)
	}
	return fileID, nil
}

// TouchDocument refreshes the filesystem metadata of an existing document
// without touching its content or FTS entry. Used when ingestion hits a
// content-hash duplicate: the bytes are already indexed, only the file's
// location and timestamps may have moved. The refresh policy — whether a
// stale mtime may be applied at all — belongs to the caller; the update
// itself is unconditional.
func (s *SQLiteStore) TouchDocument(ctx context.Context, fileID int64, meta DocumentMeta) error {
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if err := retireOtherPathRow(ctx, tx, fileID, meta.Path); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `UPDATE documents
			SET path = ?, filename = ?, file_type = ?, size_bytes = ?,
			    modified_at = ?, indexed_at = ?
			WHERE file_id = ? AND is_deleted = 0`,
			meta.Path, meta.Filename, meta.FileType, meta.SizeBytes,
			formatTime(meta.ModifiedAt), formatTime(now()), fileID)
		if err != nil {
			return fmt.Errorf("touch document: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
	return wrapDBErr(err)
}

// SoftDelete marks a document as removed and drops its FTS entry, keeping the
// document and content rows for auditing. Idempotent: deleting an already
// deleted or absent document is not an error.
func (s *SQLiteStore) SoftDelete(ctx context.Context, fileID int64) error {
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE documents SET is_deleted = 1 WHERE file_id = ?`, fileID); err != nil {
			return fmt.Errorf("soft delete: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM documents_fts WHERE rowid = ?`, fileID); err != nil {
			return fmt.Errorf("remove fts entry: %w", err)
		}
		return nil
	})
	return wrapDBErr(err)
}

// PurgeDeleted permanently removes soft-deleted rows and their content.
// Safe to run while the indexer is idle. Returns the number of documents
// removed.
func (s *SQLiteStore) PurgeDeleted(ctx context.Context) (int64, error) {
	var purged int64
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM content
			WHERE file_id IN (SELECT file_id FROM documents WHERE is_deleted = 1)`); err != nil {
			return fmt.Errorf("purge content: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE is_deleted = 1`)
		if err != nil {
			return fmt.Errorf("purge documents: %w", err)
		}
		purged, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, wrapDBErr(err)
	}
	return purged, nil
}

// lookupActive returns the file_id of the non-deleted row matching the given
// single-column predicate.
func lookupActive(ctx context.Context, tx *sql.Tx, cond string, arg any) (int64, bool, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT file_id FROM documents WHERE `+cond+` AND is_deleted = 0`, arg).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("lookup document: %w", err)
	}
	return id, true, nil
}

// retireOtherPathRow soft-deletes any non-deleted row other than keepID that
// claims path, removing its FTS entry. Two active rows can never share a path.
func retireOtherPathRow(ctx context.Context, tx *sql.Tx, keepID int64, path string) error {
	var otherID int64
	err := tx.QueryRowContext(ctx,
		`SELECT file_id FROM documents WHERE path = ? AND is_deleted = 0 AND file_id != ?`,
		path, keepID).Scan(&otherID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("lookup path conflict: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET is_deleted = 1 WHERE file_id = ?`, otherID); err != nil {
		return fmt.Errorf("retire path row: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents_fts WHERE rowid = ?`, otherID); err != nil {
		return fmt.Errorf("retire fts entry: %w", err)
	}
	return nil
}

// replaceFTS settles the FTS projection for one document inside tx.
func replaceFTS(ctx context.Context, tx *sql.Tx, fileID int64, filename, text string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM documents_fts WHERE rowid = ?`, fileID); err != nil {
		return fmt.Errorf("replace fts entry: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents_fts (rowid, filename, content) VALUES (?, ?, ?)`,
		fileID, filename, text); err != nil {
		return fmt.Errorf("replace fts entry: %w", err)
	}
	return nil
}
