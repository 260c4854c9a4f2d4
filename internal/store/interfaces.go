// interfaces.go defines the storage abstraction for the indexing core.
//
// Separated from the SQLite implementation to enable testing and potential
// alternative backends. The interfaces are intentionally granular (Reader,
// Ingester, Searcher, Maintainer) to support interface segregation —
// consumers only depend on the capabilities they need: the indexer never
// searches, the query engine never writes.

package store

import (
	"context"
	"database/sql"
)

// Reader defines read-only operations for retrieving documents and metadata.
type Reader interface {
	// GetDocument returns a document with its content preview; the full
	// text is loaded only when includeFullContent is true. Returns
	// ErrNotFound for absent or soft-deleted documents.
	GetDocument(ctx context.Context, fileID int64, includeFullContent bool) (*DocumentDetail, error)

	// DocumentByHash finds the non-deleted document with the given content
	// hash, enabling de-duplication before extraction work.
	DocumentByHash(ctx context.Context, hash string) (*Document, error)

	// DocumentByPath finds the non-deleted document at the given path.
	DocumentByPath(ctx context.Context, path string) (*Document, error)

	// Stats returns aggregate counters over non-deleted documents.
	Stats(ctx context.Context) (*Stats, error)
}

// Ingester defines the mutations the indexing pipeline performs.
type Ingester interface {
	// InsertOrUpdateDocument atomically writes the document row, the
	// content row, and the FTS entry. Keyed by content hash; the existing
	// file_id is preserved on conflict.
	InsertOrUpdateDocument(ctx context.Context, meta DocumentMeta, content ExtractedContent) (int64, error)

	// TouchDocument refreshes filesystem metadata of a hash-duplicate hit
	// without re-extracting or touching the FTS entry.
	TouchDocument(ctx context.Context, fileID int64, meta DocumentMeta) error

	// SoftDelete marks a document removed and drops its FTS entry,
	// keeping the rows for auditing. Idempotent.
	SoftDelete(ctx context.Context, fileID int64) error
}

// Searcher defines ranked full-text retrieval.
type Searcher interface {
	// Search executes an FTS5 match with conjunctive filters, returning a
	// relevance-ordered page and the unpaginated total.
	Search(ctx context.Context, query string, f Filters, limit, offset int) ([]SearchHit, int64, error)
}

// Maintainer defines maintenance and lifecycle operations.
type Maintainer interface {
	// Close releases the database connection and the advisory lock.
	Close() error

	// DB exposes the underlying connection for maintenance tooling.
	DB() *sql.DB

	// PurgeDeleted permanently removes soft-deleted rows.
	PurgeDeleted(ctx context.Context) (int64, error)

	// Vacuum rebuilds the database file to reclaim space.
	Vacuum(ctx context.Context) error

	// IntegrityCheck surfaces damage as a CorruptionError.
	IntegrityCheck(ctx context.Context) error

	// Checkpoint flushes WAL to the main database file.
	Checkpoint(ctx context.Context) error
}

// Store is the full persistence interface for the indexing and search core.
type Store interface {
	Reader
	Ingester
	Searcher
	Maintainer
}
