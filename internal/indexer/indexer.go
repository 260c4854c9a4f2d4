// Package indexer coordinates a single background indexing session: it
// drives the scanner and the extractors, commits results through the store,
// and owns the session's progress, error accumulation, and cancellation.
//
// The session is an explicit state machine (Idle → Scanning → Indexing →
// Stopping → Idle) behind one handle. Progress and errors are guarded by a
// read/write discipline so any number of status readers proceed concurrently
// with the single writer.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/boswecw/cortex/internal/store"
)

var (
	// ErrIndexingInProgress is returned by Start while a session is active.
	ErrIndexingInProgress = errors.New("indexing already in progress")
	// ErrIndexingNotRunning is returned by Stop when no session is active.
	ErrIndexingNotRunning = errors.New("no indexing session is running")
	// ErrNoPaths is returned by Start when no roots were given.
	ErrNoPaths = errors.New("no paths to index")
)

// State is the session lifecycle state.
type State int

const (
	Idle State = iota
	Scanning
	Indexing
	Stopping
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scanning:
		return "scanning"
	case Indexing:
		return "indexing"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// maxErrors caps the per-session error list; the remainder is summarised.
const maxErrors = 1000

// progressEvery coalesces progress reporting to one update per N files. The
// first and last file of a session always report.
const progressEvery = 10

// Progress is the session's progress snapshot.
type Progress struct {
	TotalFiles   int
	FilesIndexed int
	CurrentFile  string
	Percentage   float64
}

// FileError is one non-fatal per-file failure.
type FileError struct {
	Path    string
	Message string
}

// Summary describes a finished session, including a cancelled one.
type Summary struct {
	TotalFiles   int
	IndexedFiles int
	FailedFiles  int
	Duration     time.Duration
	Errors       []FileError
}

// Events receives session callbacks. Implementations must be safe to call
// from the indexing goroutine; slow sinks delay progress reporting only, not
// queries.
type Events interface {
	Progress(Progress)
	FileError(FileError)
	Complete(Summary)
}

// NopEvents discards all events.
type NopEvents struct{}

func (NopEvents) Progress(Progress)   {}
func (NopEvents) FileError(FileError) {}
func (NopEvents) Complete(Summary)    {}

// Store is the slice of the persistence interface the indexer needs: lookups
// for de-duplication and the ingestion mutations. It never searches.
type Store interface {
	store.Ingester
	DocumentByHash(ctx context.Context, hash string) (*store.Document, error)
}

// Config carries the scan and extraction settings for sessions.
type Config struct {
	MaxFileSize  int64
	ExcludeGlobs []string
	DataDir      string
}

// Indexer is the process-wide session coordinator. At most one session runs
// at a time; Start while non-idle fails with ErrIndexingInProgress.
type Indexer struct {
	store  Store
	cfg    Config
	events Events

	mu         sync.RWMutex
	state      State
	prog       Progress
	errs       []FileError
	suppressed int
	cancel     bool
	scanCancel context.CancelFunc

	g *errgroup.Group
}

// New creates an idle Indexer. events may be nil.
func New(st Store, cfg Config, events Events) *Indexer {
	if events == nil {
		events = NopEvents{}
	}
	return &Indexer{store: st, cfg: cfg, events: events}
}

// Start validates the roots and launches a session in the background,
// returning immediately. Only the Idle → Scanning transition is permitted.
func (ix *Indexer) Start(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return ErrNoPaths
	}
	if err := checkRoots(paths); err != nil {
		return err
	}

	ix.mu.Lock()
	if ix.state != Idle {
		ix.mu.Unlock()
		return ErrIndexingInProgress
	}
	scanCtx, cancel := context.WithCancel(ctx)
	ix.state = Scanning
	ix.prog = Progress{}
	ix.errs = nil
	ix.suppressed = 0
	ix.cancel = false
	ix.scanCancel = cancel
	ix.g = &errgroup.Group{}
	ix.mu.Unlock()

	ix.g.Go(func() error {
		ix.run(ctx, scanCtx, paths)
		cancel()
		return nil
	})
	return nil
}

// Stop requests cooperative cancellation: the current file finishes, no new
// file starts. Cancellation is not an error for the session.
func (ix *Indexer) Stop() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.state == Idle {
		return ErrIndexingNotRunning
	}
	ix.cancel = true
	ix.state = Stopping
	if ix.scanCancel != nil {
		ix.scanCancel()
	}
	return nil
}

// Running reports whether a session is active.
func (ix *Indexer) Running() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.state != Idle
}

// Status returns the session snapshot: whether a session is active, the
// current progress, and the accumulated errors (of the running session, or
// the most recently finished one).
func (ix *Indexer) Status() (bool, Progress, []FileError) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	errs := make([]FileError, len(ix.errs))
	copy(errs, ix.errs)
	return ix.state != Idle, ix.prog, errs
}

// Wait blocks until the current session (if any) finishes. Intended for the
// CLI and tests; the MCP façade polls Status instead.
func (ix *Indexer) Wait() {
	ix.mu.RLock()
	g := ix.g
	ix.mu.RUnlock()
	if g != nil {
		_ = g.Wait()
	}
}

func checkRoots(paths []string) error {
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("root %s is not readable: %w", p, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("root %s is not a directory", p)
		}
	}
	return nil
}
