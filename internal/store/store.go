// Package store provides persistent, crash-safe storage of indexed documents,
// their extracted content, and the full-text projection kept in lock-step with
// them. Implementations guarantee that the FTS index never disagrees with the
// document table at transaction commit boundaries.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// previewRunes is the number of code points kept in content_preview.
const previewRunes = 500

var (
	// ErrNotFound indicates the requested document does not exist or is deleted.
	// Callers should check for this to distinguish missing data from other errors.
	ErrNotFound = errors.New("document not found")
	// ErrStoreLocked is returned when another process holds the store's
	// advisory lock. Opening fails fast rather than waiting.
	ErrStoreLocked = errors.New("store is locked by another process")
)

// CorruptionError is the fatal error surfaced when SQLite reports a damaged
// database file. Detail carries the underlying diagnostic so callers can show
// it before offering the one-shot recovery routine.
type CorruptionError struct {
	Detail string
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("database corruption detected: %s", e.Detail)
}

// DocumentMeta is the filesystem-derived metadata captured for a file before
// insertion. The indexer fills it from the scanner entry and the content hash.
type DocumentMeta struct {
	Path        string // absolute canonical path
	Filename    string
	FileType    string // lowercased extension without dot, "" for none
	SizeBytes   int64
	CreatedAt   time.Time
	ModifiedAt  time.Time
	ContentHash string
}

// ExtractedContent is the normalised text produced by an extractor, stored 1:1
// with its document. The preview is derived here, not by the caller.
type ExtractedContent struct {
	Text      string
	WordCount int
}

// Document is one file's record in the store.
type Document struct {
	FileID      int64
	Path        string
	Filename    string
	FileType    string
	SizeBytes   int64
	CreatedAt   time.Time
	ModifiedAt  time.Time
	IndexedAt   time.Time
	ContentHash string
	IsDeleted   bool
}

// DocumentDetail is a document plus its content columns. FullText is populated
// only when requested, keeping listings cheap.
type DocumentDetail struct {
	Document
	Preview   string
	WordCount int
	Summary   string
	FullText  string
}

// SearchHit is one ranked search result. Score is the FTS engine's relevance
// value where lower means more relevant. Snippet wraps matched spans in
// literal <mark>…</mark> tags and no other markup.
type SearchHit struct {
	Document
	Score   float64
	Snippet string
}

// Filters narrow a search conjunctively. Zero values mean "no bound":
// empty FileType, MaxSize 0, and zero times are all treated as unset.
type Filters struct {
	FileType string
	MinSize  int64
	MaxSize  int64
	DateFrom time.Time
	DateTo   time.Time
}

// Stats provides aggregate counters for operational visibility.
type Stats struct {
	TotalFiles     int64 // non-deleted documents
	IndexedFiles   int64 // non-deleted documents with extracted content
	TotalSizeBytes int64 // sum of size_bytes over non-deleted documents
}

// DocJSON is the API-friendly representation of a document with RFC3339
// timestamps. Field names are part of the front-end contract.
type DocJSON struct {
	FileID     int64  `json:"file_id"`
	Path       string `json:"path"`
	Filename   string `json:"filename"`
	FileType   string `json:"file_type"`
	SizeBytes  int64  `json:"size_bytes"`
	CreatedAt  string `json:"created_at"`
	ModifiedAt string `json:"modified_at"`
	IndexedAt  string `json:"indexed_at"`
}

// ToJSON converts a Document to its API representation.
func (d *Document) ToJSON() DocJSON {
	return DocJSON{
		FileID:     d.FileID,
		Path:       d.Path,
		Filename:   d.Filename,
		FileType:   d.FileType,
		SizeBytes:  d.SizeBytes,
		CreatedAt:  d.CreatedAt.UTC().Format(time.RFC3339),
		ModifiedAt: d.ModifiedAt.UTC().Format(time.RFC3339),
		IndexedAt:  d.IndexedAt.UTC().Format(time.RFC3339),
	}
}

// HitJSON is the API representation of a search hit.
type HitJSON struct {
	DocJSON
	Score   float64 `json:"score"`
	Snippet string  `json:"snippet"`
}

// ToJSON converts a SearchHit to its API representation.
func (h *SearchHit) ToJSON() HitJSON {
	return HitJSON{
		DocJSON: h.Document.ToJSON(),
		Score:   h.Score,
		Snippet: h.Snippet,
	}
}

// DetailJSON is the API representation of a document detail.
type DetailJSON struct {
	DocJSON
	ContentPreview string `json:"content_preview"`
	WordCount      int    `json:"word_count"`
	Summary        string `json:"summary,omitempty"`
	FullText       string `json:"full_text,omitempty"`
}

// ToJSON converts a DocumentDetail to its API representation. The full text is
// included only when it was loaded.
func (d *DocumentDetail) ToJSON() DetailJSON {
	return DetailJSON{
		DocJSON:        d.Document.ToJSON(),
		ContentPreview: d.Preview,
		WordCount:      d.WordCount,
		Summary:        d.Summary,
		FullText:       d.FullText,
	}
}

// MarshalJSON encodes a value with indentation for human-readable output.
// Use this instead of json.Marshal when the output will be displayed to users.
func MarshalJSON(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// now returns the current UTC time; indexed_at is always stamped by the store.
func now() time.Time {
	return time.Now().UTC()
}

// preview returns the first previewRunes code points of text.
func preview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewRunes {
		return text
	}
	return string(runes[:previewRunes])
}
