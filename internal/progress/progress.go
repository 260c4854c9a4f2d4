// Package progress renders indexing session feedback on stderr for the
// foreground CLI. Output goes to stderr to keep stdout clean for piping, and
// TTY detection ensures proper formatting in both interactive and scripted
// usage.
package progress

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/boswecw/cortex/internal/indexer"
)

// Reporter implements indexer.Events for the terminal.
type Reporter struct {
	w     io.Writer
	isTTY bool
}

var _ indexer.Events = (*Reporter)(nil)

// New creates a progress reporter that writes to stderr.
func New() *Reporter {
	return &Reporter{
		w:     os.Stderr,
		isTTY: term.IsTerminal(int(os.Stderr.Fd())),
	}
}

// Progress prints the current session progress. On TTY, it uses carriage
// return to update in place; otherwise each update is its own line.
func (r *Reporter) Progress(p indexer.Progress) {
	if r.isTTY {
		fmt.Fprintf(r.w, "\rindexing... %d/%d (%.0f%%)", p.FilesIndexed, p.TotalFiles, p.Percentage)
		return
	}
	fmt.Fprintf(r.w, "indexing %d/%d (%.0f%%) %s\n", p.FilesIndexed, p.TotalFiles, p.Percentage, p.CurrentFile)
}

// FileError reports a non-fatal per-file failure on its own line.
func (r *Reporter) FileError(e indexer.FileError) {
	if r.isTTY {
		fmt.Fprint(r.w, "\r\033[K")
	}
	fmt.Fprintf(r.w, "skip %s: %s\n", e.Path, e.Message)
}

// Complete clears the progress line and prints the session summary.
func (r *Reporter) Complete(s indexer.Summary) {
	if r.isTTY {
		fmt.Fprint(r.w, "\r\033[K")
	}
	fmt.Fprintf(r.w, "indexed %d/%d files (%d failed) in %.1fs\n",
		s.IndexedFiles, s.TotalFiles, s.FailedFiles, s.Duration.Seconds())
}
