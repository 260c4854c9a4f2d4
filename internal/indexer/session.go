// session.go implements the body of one indexing session.
//
// The session scans to completion first so total_files is final before any
// percentage is reported, then processes candidates in the scanner's
// deterministic order. Cancellation is observed at the checkpoint between
// files: in-flight extraction and the current transaction run to completion,
// and everything already committed stays searchable.
//
// Design: hashing and extraction happen outside any store transaction; only
// the final insert is transactional, so readers are never blocked for longer
// than one file's commit.

package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/boswecw/cortex/internal/extract"
	"github.com/boswecw/cortex/internal/scanner"
	"github.com/boswecw/cortex/internal/store"
)

// run executes one session to completion. scanCtx is cancelled by Stop so
// directory traversal drains promptly; ctx governs the per-file work, which
// is always allowed to finish.
func (ix *Indexer) run(ctx, scanCtx context.Context, paths []string) {
	start := time.Now()

	entries := ix.scanPhase(scanCtx, paths)

	indexed, failed := 0, 0
	if !ix.cancelRequested() {
		ix.setState(Indexing)
		indexed, failed = ix.indexPhase(ctx, entries)
	}

	summary := ix.finish(len(entries), indexed, failed, time.Since(start))
	ix.events.Complete(summary)
	slog.Info("indexing session finished",
		"total", summary.TotalFiles,
		"indexed", summary.IndexedFiles,
		"failed", summary.FailedFiles,
		"duration", summary.Duration)
}

// scanPhase collects the full candidate list so the total is final before
// indexing starts. Traversal errors degrade to per-file errors.
func (ix *Indexer) scanPhase(scanCtx context.Context, paths []string) []scanner.Entry {
	var entries []scanner.Entry

	cfg := scanner.Config{
		MaxFileSize:  ix.cfg.MaxFileSize,
		ExcludeGlobs: ix.cfg.ExcludeGlobs,
		DataDir:      ix.cfg.DataDir,
	}
	err := scanner.Scan(scanCtx, paths, cfg,
		func(e scanner.Entry) {
			entries = append(entries, e)
			ix.mu.Lock()
			ix.prog.TotalFiles = len(entries)
			ix.mu.Unlock()
		},
		func(path string, err error) {
			ix.recordError(path, err.Error())
		})
	if err != nil && scanCtx.Err() == nil {
		// A root failed mid-walk; the session continues with what was found.
		ix.recordError(paths[0], fmt.Sprintf("scan aborted: %v", err))
	}
	return entries
}

// indexPhase processes candidates in order, observing cancellation between
// files. Returns the processed and failed counts.
func (ix *Indexer) indexPhase(ctx context.Context, entries []scanner.Entry) (indexed, failed int) {
	total := len(entries)

	for i, entry := range entries {
		if ix.cancelRequested() {
			break
		}

		if err := ix.processFile(ctx, entry); err != nil {
			failed++
			ix.recordError(entry.Path, err.Error())
		} else {
			indexed++
		}

		processed := indexed + failed
		ix.mu.Lock()
		ix.prog.FilesIndexed = indexed
		ix.prog.CurrentFile = entry.Path
		ix.prog.Percentage = percentage(processed, total)
		prog := ix.prog
		ix.mu.Unlock()

		// Coalesced: first file, every Nth, and the last always report.
		if i == 0 || (i+1)%progressEvery == 0 || i == total-1 {
			ix.events.Progress(prog)
		}
	}
	return indexed, failed
}

// processFile runs the per-file protocol: streaming hash, dedup lookup,
// extraction, transactional insert.
func (ix *Indexer) processFile(ctx context.Context, entry scanner.Entry) error {
	hash, err := hashFile(entry.Path)
	if err != nil {
		return err
	}

	meta := store.DocumentMeta{
		Path:        entry.Path,
		Filename:    filepath.Base(entry.Path),
		FileType:    entry.Ext,
		SizeBytes:   entry.SizeBytes,
		CreatedAt:   entry.CreatedAt,
		ModifiedAt:  entry.ModifiedAt,
		ContentHash: hash,
	}

	// The hash is authoritative: identical bytes are never re-extracted,
	// only the filesystem metadata is refreshed. A stale rescan must not
	// clobber newer stored metadata: an older mtime at the same path is a
	// no-op, and a moved path is re-pointed without letting the older
	// on-disk mtime overwrite the newer stored one.
	if existing, err := ix.store.DocumentByHash(ctx, hash); err == nil {
		if meta.ModifiedAt.Before(existing.ModifiedAt) {
			if meta.Path == existing.Path {
				return nil
			}
			meta.ModifiedAt = existing.ModifiedAt
		}
		return ix.store.TouchDocument(ctx, existing.FileID, meta)
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	content, err := extract.Extract(ctx, entry.Path, entry.SizeBytes, ix.cfg.MaxFileSize)
	if err != nil {
		return err
	}

	_, err = ix.store.InsertOrUpdateDocument(ctx, meta, store.ExtractedContent{
		Text:      content.Text,
		WordCount: content.WordCount,
	})
	return err
}

// hashFile computes the streaming content digest used for de-duplication.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	defer f.Close()

	d := xxhash.New()
	if _, err := io.Copy(d, f); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return fmt.Sprintf("%016x", d.Sum64()), nil
}

// recordError appends to the bounded error list and emits the event. Beyond
// the cap, failures are counted and summarised at session end.
func (ix *Indexer) recordError(path, message string) {
	fe := FileError{Path: path, Message: message}

	ix.mu.Lock()
	if len(ix.errs) < maxErrors {
		ix.errs = append(ix.errs, fe)
	} else {
		ix.suppressed++
	}
	ix.mu.Unlock()

	ix.events.FileError(fe)
}

// finish folds the session results into a summary and returns to Idle. The
// progress and error list stay readable until the next session starts.
func (ix *Indexer) finish(total, indexed, failed int, elapsed time.Duration) Summary {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.suppressed > 0 {
		ix.errs = append(ix.errs, FileError{
			Message: fmt.Sprintf("%d further errors omitted", ix.suppressed),
		})
	}

	errs := make([]FileError, len(ix.errs))
	copy(errs, ix.errs)

	ix.prog.CurrentFile = ""
	ix.state = Idle
	ix.scanCancel = nil

	return Summary{
		TotalFiles:   total,
		IndexedFiles: indexed,
		FailedFiles:  failed,
		Duration:     elapsed,
		Errors:       errs,
	}
}

func (ix *Indexer) cancelRequested() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.cancel
}

func (ix *Indexer) setState(s State) {
	ix.mu.Lock()
	ix.state = s
	ix.mu.Unlock()
}

// percentage is clamped to [0,100]; a session with no candidates completes
// at 100.
func percentage(processed, total int) float64 {
	if total <= 0 {
		return 100
	}
	p := float64(processed) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}
