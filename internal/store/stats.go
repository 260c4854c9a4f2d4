// stats.go implements aggregate queries for operational visibility.
//
// Separated to collect "read-only, aggregate" operations distinct from CRUD.
// These power the get_search_stats operation and the CLI stats command
// without loading document content.

package store

import (
	"context"
	"fmt"
)

// Stats returns aggregate counters over non-deleted documents. The counts and
// the size sum are computed by scanning the non-deleted rows on each call, so
// the cost grows with the number of documents.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	var st Stats

	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(size_bytes), 0)
		FROM documents WHERE is_deleted = 0`).Scan(&st.TotalFiles, &st.TotalSizeBytes)
	if err != nil {
		return nil, wrapDBErr(fmt.Errorf("document stats: %w", err))
	}

	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*)
		FROM documents d JOIN content c ON c.file_id = d.file_id
		WHERE d.is_deleted = 0`).Scan(&st.IndexedFiles)
	if err != nil {
		return nil, wrapDBErr(fmt.Errorf("content stats: %w", err))
	}

	return &st, nil
}
