// Package extract turns a file path into normalised UTF-8 text and a word
// count, or refuses with a typed error. Dispatch is a closed map from file
// extension to a format extractor; adding a format is one new extractor plus
// one map entry.
package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize is the extraction size ceiling when none is configured.
const DefaultMaxFileSize = 100 << 20 // 100 MiB

// ErrorKind classifies extraction refusals. All kinds are non-fatal during
// indexing: the file is recorded and skipped.
type ErrorKind int

const (
	IoError ErrorKind = iota
	SizeExceeded
	Unsupported
	EncodingError
	ParseError
)

func (k ErrorKind) String() string {
	switch k {
	case IoError:
		return "io error"
	case SizeExceeded:
		return "size exceeded"
	case Unsupported:
		return "unsupported format"
	case EncodingError:
		return "encoding error"
	case ParseError:
		return "parse error"
	default:
		return "unknown"
	}
}

// Error is a typed extraction refusal.
type Error struct {
	Kind   ErrorKind
	Path   string
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Path, e.Kind, e.Detail)
}

func errOf(kind ErrorKind, path, format string, args ...any) *Error {
	return &Error{Kind: kind, Path: path, Detail: fmt.Sprintf(format, args...)}
}

// Content is the result of a successful extraction: valid UTF-8 with \n line
// endings, and a word count computed on that normalised text.
type Content struct {
	Text      string
	WordCount int
}

// extractor is the per-format strategy. Implementations return raw text; the
// dispatcher applies normalisation and word counting uniformly.
type extractor interface {
	extract(ctx context.Context, path string) (string, error)
}

// dispatch maps lowercased extensions (without dot) to their extractor.
// Source code is treated as plain text.
var dispatch = map[string]extractor{}

func register(e extractor, exts ...string) {
	for _, ext := range exts {
		dispatch[ext] = e
	}
}

func init() {
	register(textExtractor{},
		"txt", "log", "csv", "json", "xml", "yaml", "yml", "toml", "ini",
		"html", "css", "js", "ts", "jsx", "tsx",
		"go", "rs", "py", "java", "c", "h", "cpp", "hpp", "cs", "rb", "php",
		"sh", "sql", "swift", "kt")
	register(markdownExtractor{}, "md", "markdown")
	register(pdfExtractor{}, "pdf")
	register(officeExtractor{}, "docx", "xlsx")
}

// Supported reports whether files with the given extension (lowercase, no
// dot) can be extracted. The scanner uses this as its emission whitelist.
func Supported(ext string) bool {
	_, ok := dispatch[strings.ToLower(ext)]
	return ok
}

// Ext returns the lowercased extension of path without the leading dot,
// empty when the path has none.
func Ext(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// Extract runs the extractor for the file's extension and returns normalised
// content. sizeBytes is the already-captured stat size; maxSize <= 0 applies
// DefaultMaxFileSize. A file exactly at the ceiling is accepted.
func Extract(ctx context.Context, path string, sizeBytes, maxSize int64) (*Content, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if sizeBytes > maxSize {
		return nil, errOf(SizeExceeded, path, "%d bytes exceeds limit of %d", sizeBytes, maxSize)
	}

	e, ok := dispatch[Ext(path)]
	if !ok {
		return nil, errOf(Unsupported, path, "no extractor for extension %q", Ext(path))
	}

	raw, err := e.extract(ctx, path)
	if err != nil {
		return nil, err
	}

	text, err := normalize(path, raw)
	if err != nil {
		return nil, err
	}
	return &Content{Text: text, WordCount: len(strings.Fields(text))}, nil
}

// readFile wraps os.ReadFile with the package's error taxonomy.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errOf(IoError, path, "file not found")
		}
		if os.IsPermission(err) {
			return nil, errOf(IoError, path, "permission denied")
		}
		return nil, errOf(IoError, path, "%v", err)
	}
	return data, nil
}
