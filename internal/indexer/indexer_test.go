package indexer_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/boswecw/cortex/internal/indexer"
	"github.com/boswecw/cortex/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// captureEvents records session callbacks for assertions. If gate is set, the
// first Progress call blocks until the gate is closed, letting tests hold a
// session mid-flight deterministically.
type captureEvents struct {
	mu       sync.Mutex
	progress []indexer.Progress
	fileErrs []indexer.FileError
	summary  *indexer.Summary

	gateOnce sync.Once
	gate     chan struct{}
}

func (c *captureEvents) Progress(p indexer.Progress) {
	if c.gate != nil {
		c.gateOnce.Do(func() { <-c.gate })
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = append(c.progress, p)
}

func (c *captureEvents) FileError(e indexer.FileError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fileErrs = append(c.fileErrs, e)
}

func (c *captureEvents) Complete(s indexer.Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = &s
}

func (c *captureEvents) done(t *testing.T) indexer.Summary {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotNil(t, c.summary)
	return *c.summary
}

func setupIndexer(t *testing.T, events indexer.Events) (*indexer.Indexer, *store.SQLiteStore) {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "cortex.db"))
	require.NoError(t, err)
	require.NoError(t, s.Init())
	t.Cleanup(func() { s.Close() })

	return indexer.New(s, indexer.Config{}, events), s
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestIndexer_SingleFileSession(t *testing.T) {
	events := &captureEvents{}
	ix, s := setupIndexer(t, events)

	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "rust programming"})

	require.NoError(t, ix.Start(context.Background(), []string{root}))
	ix.Wait()

	summary := events.done(t)
	assert.Equal(t, 1, summary.TotalFiles)
	assert.Equal(t, 1, summary.IndexedFiles)
	assert.Zero(t, summary.FailedFiles)
	assert.Empty(t, summary.Errors)

	hits, total, err := s.Search(context.Background(), "rust", store.Filters{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, hits, 1)
	assert.Equal(t, "a.txt", hits[0].Filename)
	assert.Contains(t, hits[0].Snippet, "<mark>rust</mark>")

	running, _, _ := ix.Status()
	assert.False(t, running)
}

func TestIndexer_DedupByHash(t *testing.T) {
	events := &captureEvents{}
	ix, s := setupIndexer(t, events)

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.txt": "identical bytes",
		"b.txt": "identical bytes",
	})

	require.NoError(t, ix.Start(context.Background(), []string{root}))
	ix.Wait()

	summary := events.done(t)
	assert.Equal(t, 2, summary.TotalFiles)
	assert.Equal(t, 2, summary.IndexedFiles)

	// One document; the later path wins.
	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TotalFiles)

	hits, total, err := s.Search(context.Background(), "identical", store.Filters{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, hits, 1)
	assert.Equal(t, "b.txt", hits[0].Filename)
}

func TestIndexer_Rescan_IsIdempotent(t *testing.T) {
	ix, s := setupIndexer(t, &captureEvents{})

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.txt": "alpha content",
		"b.md":  "beta content",
	})

	require.NoError(t, ix.Start(context.Background(), []string{root}))
	ix.Wait()

	events := &captureEvents{}
	ix2 := indexer.New(s, indexer.Config{}, events)
	require.NoError(t, ix2.Start(context.Background(), []string{root}))
	ix2.Wait()

	summary := events.done(t)
	assert.Equal(t, 2, summary.IndexedFiles)
	assert.Zero(t, summary.FailedFiles)
	assert.Empty(t, summary.Errors)

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.TotalFiles)
}

func TestIndexer_StartWhileRunning(t *testing.T) {
	events := &captureEvents{gate: make(chan struct{})}
	ix, _ := setupIndexer(t, events)

	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.txt": "hold the session"})

	require.NoError(t, ix.Start(context.Background(), []string{root}))

	// The first progress event is gated, so the session is still active.
	err := ix.Start(context.Background(), []string{root})
	assert.ErrorIs(t, err, indexer.ErrIndexingInProgress)

	close(events.gate)
	ix.Wait()

	// Idle again: a new session is accepted.
	require.NoError(t, ix.Start(context.Background(), []string{root}))
	ix.Wait()
}

func TestIndexer_StartValidation(t *testing.T) {
	ix, _ := setupIndexer(t, &captureEvents{})

	assert.ErrorIs(t, ix.Start(context.Background(), nil), indexer.ErrNoPaths)
	assert.Error(t, ix.Start(context.Background(), []string{filepath.Join(t.TempDir(), "missing")}))
}

func TestIndexer_StopWhenIdle(t *testing.T) {
	ix, _ := setupIndexer(t, &captureEvents{})
	assert.ErrorIs(t, ix.Stop(), indexer.ErrIndexingNotRunning)
}

func TestIndexer_Cancellation(t *testing.T) {
	events := &captureEvents{gate: make(chan struct{})}
	ix, s := setupIndexer(t, events)

	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 50; i++ {
		files[fmt.Sprintf("f%03d.txt", i)] = fmt.Sprintf("document number %d", i)
	}
	writeFiles(t, root, files)

	require.NoError(t, ix.Start(context.Background(), []string{root}))

	// Wait until the first file is processed; the gated progress event then
	// holds the session there.
	require.Eventually(t, func() bool {
		_, p, _ := ix.Status()
		return p.FilesIndexed >= 1
	}, 5*time.Second, time.Millisecond)

	// The session is blocked after its first processed file.
	require.NoError(t, ix.Stop())
	close(events.gate)
	ix.Wait()

	summary := events.done(t)
	assert.Less(t, summary.IndexedFiles, 50)
	assert.GreaterOrEqual(t, summary.IndexedFiles, 1)

	// What committed before the stop stays searchable.
	_, total, err := s.Search(context.Background(), "document", store.Filters{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(summary.IndexedFiles), total)

	running, _, _ := ix.Status()
	assert.False(t, running)
}

func TestIndexer_NonFatalErrors(t *testing.T) {
	events := &captureEvents{}
	ix, s := setupIndexer(t, events)

	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"good.txt":   "healthy file",
		"broken.pdf": "%PDF-1.4 not a real pdf",
		"binary.txt": "pretend\x00binary",
	})

	require.NoError(t, ix.Start(context.Background(), []string{root}))
	ix.Wait()

	summary := events.done(t)
	assert.Equal(t, 3, summary.TotalFiles)
	assert.Equal(t, 1, summary.IndexedFiles)
	assert.Equal(t, 2, summary.FailedFiles)
	assert.Len(t, summary.Errors, 2)

	events.mu.Lock()
	assert.Len(t, events.fileErrs, 2)
	events.mu.Unlock()

	// Good files remain searchable despite the failures.
	_, total, err := s.Search(context.Background(), "healthy", store.Filters{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestIndexer_ProgressCoalescing(t *testing.T) {
	events := &captureEvents{}
	ix, _ := setupIndexer(t, events)

	root := t.TempDir()
	files := map[string]string{}
	for i := 0; i < 25; i++ {
		files[fmt.Sprintf("f%03d.txt", i)] = fmt.Sprintf("file %d", i)
	}
	writeFiles(t, root, files)

	require.NoError(t, ix.Start(context.Background(), []string{root}))
	ix.Wait()

	events.mu.Lock()
	defer events.mu.Unlock()

	// First, every 10th, and last: files 1, 10, 20, 25.
	require.Len(t, events.progress, 4)
	last := events.progress[len(events.progress)-1]
	assert.Equal(t, 25, last.TotalFiles)
	assert.Equal(t, 25, last.FilesIndexed)
	assert.InDelta(t, 100.0, last.Percentage, 0.01)

	// Percentage is monotonic once the total is final.
	for i := 1; i < len(events.progress); i++ {
		assert.GreaterOrEqual(t, events.progress[i].Percentage, events.progress[i-1].Percentage)
	}
}

func TestIndexer_StaleRescanKeepsNewerMetadata(t *testing.T) {
	ix, s := setupIndexer(t, &captureEvents{})
	ctx := context.Background()

	indexedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("unchanging bytes"), 0o644))
	require.NoError(t, os.Chtimes(path, indexedAt, indexedAt))

	require.NoError(t, ix.Start(ctx, []string{root}))
	ix.Wait()

	// The same path re-presented with an older mtime (backup restore,
	// clock-skewed mount) must not overwrite the stored timestamp.
	stale := indexedAt.Add(-time.Hour)
	require.NoError(t, os.Chtimes(path, stale, stale))

	ix2 := indexer.New(s, indexer.Config{}, indexer.NopEvents{})
	require.NoError(t, ix2.Start(ctx, []string{root}))
	ix2.Wait()

	doc, err := s.DocumentByPath(ctx, path)
	require.NoError(t, err)
	assert.True(t, doc.ModifiedAt.Equal(indexedAt), "stored mtime %v, want %v", doc.ModifiedAt, indexedAt)
}

func TestIndexer_MovedStaleCopyRepointsPathKeepsMtime(t *testing.T) {
	ix, s := setupIndexer(t, &captureEvents{})
	ctx := context.Background()

	newer := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	root1 := t.TempDir()
	first := filepath.Join(root1, "a.txt")
	require.NoError(t, os.WriteFile(first, []byte("relocated bytes"), 0o644))
	require.NoError(t, os.Chtimes(first, newer, newer))

	require.NoError(t, ix.Start(ctx, []string{root1}))
	ix.Wait()

	// Identical bytes appear at a new path with an older mtime: the path
	// follows the latest sighting, the newer stored mtime survives.
	root2 := t.TempDir()
	second := filepath.Join(root2, "b.txt")
	require.NoError(t, os.WriteFile(second, []byte("relocated bytes"), 0o644))
	older := newer.Add(-time.Hour)
	require.NoError(t, os.Chtimes(second, older, older))

	ix2 := indexer.New(s, indexer.Config{}, indexer.NopEvents{})
	require.NoError(t, ix2.Start(ctx, []string{root2}))
	ix2.Wait()

	doc, err := s.DocumentByPath(ctx, second)
	require.NoError(t, err)
	assert.True(t, doc.ModifiedAt.Equal(newer), "stored mtime %v, want %v", doc.ModifiedAt, newer)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TotalFiles)
}

func TestIndexer_UpdatedFileIsReplaced(t *testing.T) {
	ix, s := setupIndexer(t, &captureEvents{})
	ctx := context.Background()

	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("original words"), 0o644))

	require.NoError(t, ix.Start(ctx, []string{root}))
	ix.Wait()

	require.NoError(t, os.WriteFile(path, []byte("replacement words"), 0o644))

	ix2 := indexer.New(s, indexer.Config{}, indexer.NopEvents{})
	require.NoError(t, ix2.Start(ctx, []string{root}))
	ix2.Wait()

	_, total, err := s.Search(ctx, "original", store.Filters{}, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, total, err = s.Search(ctx, "replacement", store.Filters{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st.TotalFiles)
}
