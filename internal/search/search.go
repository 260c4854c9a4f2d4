// Package search implements the query engine: validation of user queries,
// filter composition, pagination clamping, and delegation to the store's FTS
// ranking. It owns the user-facing query contract; the store owns execution.
package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/surgebase/porter2"

	"github.com/boswecw/cortex/internal/store"
)

// ErrInvalidQuery rejects empty queries and queries with no effective term.
var ErrInvalidQuery = errors.New("invalid query")

// Pagination bounds. Limit defaults to DefaultLimit and is clamped into
// [1, MaxLimit]; a negative offset is treated as zero.
const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// minTermLen is the minimum effective token length after stemming.
const minTermLen = 2

// Request is one search invocation.
type Request struct {
	Query   string
	Filters store.Filters
	Limit   int // 0 means DefaultLimit
	Offset  int
}

// Result is a ranked page plus the unpaginated total and the observed query
// latency.
type Result struct {
	Results     []store.SearchHit
	Total       int64
	QueryTimeMs float64
}

// Engine answers ranked queries against committed store state.
type Engine struct {
	store store.Searcher
	docs  store.Reader
}

// New creates a query engine over the given store.
func New(searcher store.Searcher, reader store.Reader) *Engine {
	return &Engine{store: searcher, docs: reader}
}

// Search validates the request and executes it. The raw query is passed to
// the FTS engine as-is after validation; engine-level syntax errors are
// returned to the caller verbatim, never swallowed.
func (e *Engine) Search(ctx context.Context, req Request) (*Result, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrInvalidQuery
	}
	if !hasEffectiveTerm(query) {
		return nil, ErrInvalidQuery
	}

	limit := req.Limit
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 1:
		limit = 1
	case limit > MaxLimit:
		limit = MaxLimit
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	start := time.Now()
	hits, total, err := e.store.Search(ctx, query, req.Filters, limit, offset)
	if err != nil {
		return nil, err
	}

	return &Result{
		Results:     hits,
		Total:       total,
		QueryTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	}, nil
}

// Detail returns one document with its preview and, when requested, the full
// extracted text.
func (e *Engine) Detail(ctx context.Context, fileID int64, includeFullContent bool) (*store.DocumentDetail, error) {
	return e.docs.GetDocument(ctx, fileID, includeFullContent)
}

// Stats returns the store's aggregate counters.
func (e *Engine) Stats(ctx context.Context) (*store.Stats, error) {
	return e.docs.Stats(ctx)
}

// queryOperators are FTS syntax words that do not count as search terms.
var queryOperators = map[string]bool{"AND": true, "OR": true, "NOT": true}

// hasEffectiveTerm reports whether at least one term survives stemming at the
// minimum length. Quoted phrases count by their longest word; prefix markers
// are ignored for measurement.
func hasEffectiveTerm(query string) bool {
	for _, term := range splitTerms(query) {
		if queryOperators[term] {
			continue
		}
		term = strings.TrimSuffix(term, "*")
		if len(porter2.Stem(strings.ToLower(term))) >= minTermLen {
			return true
		}
	}
	return false
}

// splitTerms breaks a raw query into candidate terms. Double-quoted phrases
// are split into their words; the phrase semantics themselves are left to the
// FTS engine.
func splitTerms(query string) []string {
	var terms []string
	for _, field := range strings.Fields(query) {
		field = strings.Trim(field, `"()`)
		if field != "" {
			terms = append(terms, field)
		}
	}
	return terms
}
