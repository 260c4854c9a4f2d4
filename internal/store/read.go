// read.go implements document retrieval operations for the SQLite store.
//
// Separated from the main store file to isolate read-only query logic. These
// operations never modify data and only acquire reader locks, so they proceed
// concurrently with the indexing worker under WAL.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const docColumns = `file_id, path, filename, file_type, size_bytes,
	created_at, modified_at, indexed_at, content_hash, is_deleted`

// GetDocument returns a document with its content preview and word count.
// When includeFullContent is true, the full extracted text is loaded as well.
// Returns ErrNotFound for absent or soft-deleted documents.
func (s *SQLiteStore) GetDocument(ctx context.Context, fileID int64, includeFullContent bool) (*DocumentDetail, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+docColumns+`
		FROM documents WHERE file_id = ? AND is_deleted = 0`, fileID)

	doc, err := scanDoc(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapDBErr(fmt.Errorf("get document: %w", err))
	}

	detail := &DocumentDetail{Document: doc}

	var summary sql.NullString
	cols := `content_preview, word_count, summary`
	if includeFullContent {
		cols += `, full_text`
	}
	row = s.db.QueryRowContext(ctx,
		`SELECT `+cols+` FROM content WHERE file_id = ?`, fileID)

	var scanErr error
	if includeFullContent {
		scanErr = row.Scan(&detail.Preview, &detail.WordCount, &summary, &detail.FullText)
	} else {
		scanErr = row.Scan(&detail.Preview, &detail.WordCount, &summary)
	}
	// A document without a content row was never fully extracted; the
	// metadata alone is still a valid answer.
	if scanErr != nil && !errors.Is(scanErr, sql.ErrNoRows) {
		return nil, wrapDBErr(fmt.Errorf("get content: %w", scanErr))
	}
	if summary.Valid {
		detail.Summary = summary.String
	}
	return detail, nil
}

// DocumentByHash returns the non-deleted document with the given content
// hash, or ErrNotFound. The indexer uses this for de-duplication before any
// extraction work.
func (s *SQLiteStore) DocumentByHash(ctx context.Context, hash string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+docColumns+`
		FROM documents WHERE content_hash = ? AND is_deleted = 0`, hash)
	return s.oneDoc(row)
}

// DocumentByPath returns the non-deleted document at the given path, or
// ErrNotFound.
func (s *SQLiteStore) DocumentByPath(ctx context.Context, path string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+docColumns+`
		FROM documents WHERE path = ? AND is_deleted = 0`, path)
	return s.oneDoc(row)
}

func (s *SQLiteStore) oneDoc(row *sql.Row) (*Document, error) {
	doc, err := scanDoc(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, wrapDBErr(fmt.Errorf("scan document: %w", err))
	}
	return &doc, nil
}
