// search.go implements full-text search using SQLite's FTS5 extension.
//
// Separated from read.go because FTS5 has fundamentally different query
// semantics. Regular reads use exact key matching; FTS5 uses porter-stemmed
// tokenised search with its own query syntax (implicit AND, OR, NOT,
// prefix* matching, "phrase" queries).
//
// Design: ranking uses bm25(), where more-relevant rows score lower, with
// file_id as a stable tie-break. The page and the unpaginated total are
// computed against the same snapshot inside one read transaction, so a
// paginated walk never sees a total that disagrees with the rows.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// snippetTokens bounds the rendered snippet window.
const snippetTokens = 40

// Search executes an FTS5 match with conjunctive filters against the document
// table, returning at most limit rows starting at offset ordered by relevance
// (ascending score, then file_id), plus the total match count before paging.
//
// The query string is passed to FTS5 as-is; a malformed query surfaces as the
// engine's own error. Matched spans in the snippet are wrapped in literal
// <mark>…</mark> tags and no other markup.
func (s *SQLiteStore) Search(ctx context.Context, query string, f Filters, limit, offset int) ([]SearchHit, int64, error) {
	where, args := filterClauses(f)

	base := ` FROM documents_fts
		JOIN documents d ON d.file_id = documents_fts.rowid
		WHERE documents_fts MATCH ? AND d.is_deleted = 0` + where

	var hits []SearchHit
	var total int64

	// Both queries run in one transaction so the page and the total observe
	// the same committed snapshot.
	err := s.Tx(ctx, func(tx *sql.Tx) error {
		matchArgs := append([]any{query}, args...)

		err := tx.QueryRowContext(ctx, `SELECT COUNT(*)`+base, matchArgs...).Scan(&total)
		if err != nil {
			return fmt.Errorf("count matches: %w", err)
		}

		rows, err := tx.QueryContext(ctx, `SELECT d.file_id, d.path, d.filename, d.file_type, d.size_bytes,
				d.created_at, d.modified_at, d.indexed_at, d.content_hash, d.is_deleted,
				bm25(documents_fts) AS score,
				snippet(documents_fts, 1, '<mark>', '</mark>', '…', `+fmt.Sprint(snippetTokens)+`) AS snip`+
			base+` ORDER BY score ASC, d.file_id ASC LIMIT ? OFFSET ?`,
			append(matchArgs, limit, offset)...)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var h SearchHit
			var created, modified, indexed string
			var deleted int
			if err := rows.Scan(&h.FileID, &h.Path, &h.Filename, &h.FileType, &h.SizeBytes,
				&created, &modified, &indexed, &h.ContentHash, &deleted,
				&h.Score, &h.Snippet); err != nil {
				return fmt.Errorf("scan hit: %w", err)
			}
			if h.CreatedAt, err = parseTime(created); err != nil {
				return err
			}
			if h.ModifiedAt, err = parseTime(modified); err != nil {
				return err
			}
			if h.IndexedAt, err = parseTime(indexed); err != nil {
				return err
			}
			hits = append(hits, h)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, wrapDBErr(err)
	}
	return hits, total, nil
}

// filterClauses renders Filters into AND-joined SQL conditions on the
// document table. Zero values mean unset; MaxSize 0 in particular is "no
// upper bound". Date bounds are inclusive on modified_at; RFC3339 UTC strings
// compare correctly as text.
func filterClauses(f Filters) (string, []any) {
	var b strings.Builder
	var args []any

	if f.FileType != "" {
		b.WriteString(` AND d.file_type = ?`)
		args = append(args, strings.ToLower(f.FileType))
	}
	if f.MinSize > 0 {
		b.WriteString(` AND d.size_bytes >= ?`)
		args = append(args, f.MinSize)
	}
	if f.MaxSize > 0 {
		b.WriteString(` AND d.size_bytes <= ?`)
		args = append(args, f.MaxSize)
	}
	if !f.DateFrom.IsZero() {
		b.WriteString(` AND d.modified_at >= ?`)
		args = append(args, formatTime(f.DateFrom))
	}
	if !f.DateTo.IsZero() {
		b.WriteString(` AND d.modified_at <= ?`)
		args = append(args, formatTime(f.DateTo))
	}
	return b.String(), args
}
