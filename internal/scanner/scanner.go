// Package scanner walks one or more root directories and produces a lazy,
// finite sequence of candidate ingestion entries. It only stats files — it
// never reads content — and its traversal order is deterministic (sorted
// entry names, depth-first) so progress counts are stable across runs.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/boswecw/cortex/internal/extract"
)

// excludedDirs are always skipped regardless of configuration.
var excludedDirs = map[string]bool{
	"node_modules": true,
	"target":       true,
	"dist":         true,
	"build":        true,
	".git":         true,
	".cache":       true,
}

// Entry is one candidate file emitted by the walk.
type Entry struct {
	Path       string // absolute canonical path
	SizeBytes  int64
	CreatedAt  time.Time
	ModifiedAt time.Time
	Ext        string // lowercased, no dot
}

// Config controls a scan.
type Config struct {
	// MaxFileSize is the emission ceiling; larger files produce a non-fatal
	// error instead of an entry. <= 0 applies extract.DefaultMaxFileSize.
	MaxFileSize int64

	// ExcludeGlobs are user-configured doublestar patterns matched against
	// the path relative to the scan root.
	ExcludeGlobs []string

	// DataDir is the store's own directory; anything under it is skipped so
	// the index never indexes itself.
	DataDir string
}

// EmitFunc receives each candidate in traversal order.
type EmitFunc func(Entry)

// ErrorFunc receives non-fatal per-path failures (permission denied, vanished
// entries, oversized files). The walk continues after each.
type ErrorFunc func(path string, err error)

// Scan walks each root depth-first in sorted-name order, applying the
// traversal rules in sequence: hidden entries are skipped (except recognised
// text files directly at a scan root), fixed and configured exclusions are
// honoured, symbolic links are never followed, oversized files are reported,
// and only extensions with a registered extractor are emitted.
//
// An unreadable root is a fatal error; everything below a readable root
// degrades to per-path errors.
func Scan(ctx context.Context, roots []string, cfg Config, emit EmitFunc, onErr ErrorFunc) error {
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = extract.DefaultMaxFileSize
	}

	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return fmt.Errorf("resolve root %s: %w", root, err)
		}
		info, err := os.Stat(absRoot)
		if err != nil {
			return fmt.Errorf("stat root %s: %w", root, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("root %s is not a directory", root)
		}

		w := &walker{cfg: cfg, maxSize: maxSize, root: absRoot, emit: emit, onErr: onErr}
		if err := w.walkDir(ctx, absRoot, 0); err != nil {
			return err
		}
	}
	return nil
}

type walker struct {
	cfg     Config
	maxSize int64
	root    string
	emit    EmitFunc
	onErr   ErrorFunc
}

func (w *walker) walkDir(ctx context.Context, dir string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if depth == 0 {
			return fmt.Errorf("read root %s: %w", dir, err)
		}
		// Below the root this is a per-path degradation, not a scan failure.
		w.onErr(dir, err)
		return nil
	}
	// ReadDir sorts by filename already; keep the guarantee explicit since
	// progress totals depend on it.
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Name()
		path := filepath.Join(dir, name)

		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}

		if entry.IsDir() {
			if w.skipDir(name, path) {
				continue
			}
			if strings.HasPrefix(name, ".") {
				continue
			}
			if w.excludedByGlob(path) {
				continue
			}
			if err := w.walkDir(ctx, path, depth+1); err != nil {
				return err
			}
			continue
		}

		ext := extract.Ext(name)

		// Hidden files are skipped, except recognised text files sitting
		// directly at a scan root.
		if strings.HasPrefix(name, ".") {
			if depth != 0 || !extract.Supported(ext) {
				continue
			}
		}
		if !extract.Supported(ext) {
			continue
		}
		if w.excludedByGlob(path) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			w.onErr(path, err)
			continue
		}
		if info.Size() > w.maxSize {
			w.onErr(path, fmt.Errorf("file size %d exceeds limit of %d bytes", info.Size(), w.maxSize))
			continue
		}

		w.emit(Entry{
			Path:      path,
			SizeBytes: info.Size(),
			// Birth time is not portable; modification time is the best
			// uniformly available creation stand-in.
			CreatedAt:  info.ModTime().UTC(),
			ModifiedAt: info.ModTime().UTC(),
			Ext:        ext,
		})
	}
	return nil
}

func (w *walker) skipDir(name, path string) bool {
	if excludedDirs[name] {
		return true
	}
	if w.cfg.DataDir != "" {
		if abs, err := filepath.Abs(w.cfg.DataDir); err == nil {
			if path == abs || strings.HasPrefix(path, abs+string(filepath.Separator)) {
				return true
			}
		}
	}
	return false
}

func (w *walker) excludedByGlob(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range w.cfg.ExcludeGlobs {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}
