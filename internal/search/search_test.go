package search_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/boswecw/cortex/internal/search"
	"github.com/boswecw/cortex/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEngine(t *testing.T) (*search.Engine, *store.SQLiteStore) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "cortex.db"))
	require.NoError(t, err)
	require.NoError(t, s.Init())
	t.Cleanup(func() { s.Close() })

	return search.New(s, s), s
}

func seed(t *testing.T, s *store.SQLiteStore, n int) {
	t.Helper()
	ctx := context.Background()
	words := []string{"alpha", "beta", "gamma", "delta"}

	for i := 0; i < n; i++ {
		mtime := time.Date(2025, 3, 1+i%20, 0, 0, 0, 0, time.UTC)
		meta := store.DocumentMeta{
			Path:        filepath.Join("/corpus", "doc"+string(rune('a'+i%26))+".txt"),
			Filename:    "doc" + string(rune('a'+i%26)) + ".txt",
			FileType:    "txt",
			SizeBytes:   int64(100 * (i + 1)),
			CreatedAt:   mtime,
			ModifiedAt:  mtime,
			ContentHash: filepath.Join("hash", string(rune('a'+i))),
		}
		text := "shared corpus term " + words[i%len(words)]
		_, err := s.InsertOrUpdateDocument(ctx, meta, store.ExtractedContent{Text: text, WordCount: 4})
		require.NoError(t, err)
	}
}

func TestEngine_EmptyQueryRejected(t *testing.T) {
	e, _ := setupEngine(t)

	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := e.Search(context.Background(), search.Request{Query: q})
		assert.ErrorIs(t, err, search.ErrInvalidQuery, "query %q", q)
	}
}

func TestEngine_TooShortTermRejected(t *testing.T) {
	e, _ := setupEngine(t)

	_, err := e.Search(context.Background(), search.Request{Query: "a"})
	assert.ErrorIs(t, err, search.ErrInvalidQuery)

	// Operators alone carry no term.
	_, err = e.Search(context.Background(), search.Request{Query: "AND OR NOT"})
	assert.ErrorIs(t, err, search.ErrInvalidQuery)
}

func TestEngine_ShortTermWithLongTermAccepted(t *testing.T) {
	e, s := setupEngine(t)
	seed(t, s, 4)

	res, err := e.Search(context.Background(), search.Request{Query: "corpus OR a"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Total)
}

func TestEngine_LimitClamping(t *testing.T) {
	e, s := setupEngine(t)
	seed(t, s, 5)
	ctx := context.Background()

	// Explicit zero-ish limit clamps to one row.
	res, err := e.Search(ctx, search.Request{Query: "corpus", Limit: -1})
	require.NoError(t, err)
	assert.Len(t, res.Results, 1)
	assert.Equal(t, int64(5), res.Total)

	// Absent limit uses the default.
	res, err = e.Search(ctx, search.Request{Query: "corpus"})
	require.NoError(t, err)
	assert.Len(t, res.Results, 5)

	// Oversized limit is accepted, clamped to MaxLimit.
	res, err = e.Search(ctx, search.Request{Query: "corpus", Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, res.Results, 5)
}

func TestEngine_OffsetBeyondTotal(t *testing.T) {
	e, s := setupEngine(t)
	seed(t, s, 3)

	res, err := e.Search(context.Background(), search.Request{Query: "corpus", Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, res.Results)
	assert.Equal(t, int64(3), res.Total)
}

func TestEngine_QueryTimeReported(t *testing.T) {
	e, s := setupEngine(t)
	seed(t, s, 2)

	res, err := e.Search(context.Background(), search.Request{Query: "corpus"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.QueryTimeMs, 0.0)
}

func TestEngine_MalformedQueryErrorReturnedVerbatim(t *testing.T) {
	e, s := setupEngine(t)
	seed(t, s, 1)

	_, err := e.Search(context.Background(), search.Request{Query: `"broken`})
	require.Error(t, err)
	assert.NotErrorIs(t, err, search.ErrInvalidQuery)
}

func TestEngine_Detail(t *testing.T) {
	e, s := setupEngine(t)
	ctx := context.Background()

	meta := store.DocumentMeta{
		Path: "/corpus/one.txt", Filename: "one.txt", FileType: "txt",
		SizeBytes: 10, CreatedAt: time.Now().UTC(), ModifiedAt: time.Now().UTC(),
		ContentHash: "h-one",
	}
	id, err := s.InsertOrUpdateDocument(ctx, meta, store.ExtractedContent{Text: "full body text", WordCount: 3})
	require.NoError(t, err)

	detail, err := e.Detail(ctx, id, false)
	require.NoError(t, err)
	assert.Equal(t, "full body text", detail.Preview)
	assert.Empty(t, detail.FullText)

	detail, err = e.Detail(ctx, id, true)
	require.NoError(t, err)
	assert.Equal(t, "full body text", detail.FullText)

	_, err = e.Detail(ctx, 9999, false)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEngine_Stats(t *testing.T) {
	e, s := setupEngine(t)
	seed(t, s, 3)

	st, err := e.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), st.TotalFiles)
	assert.Equal(t, int64(3), st.IndexedFiles)
}
