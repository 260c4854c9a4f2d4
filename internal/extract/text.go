// text.go implements the plain-text and Markdown extractors plus the shared
// normalisation every format's output passes through.
//
// Design: a whitelisted extension does not guarantee text content. The sniff
// refuses NUL-bearing or non-UTF-8 bytes with EncodingError rather than
// guessing a charset; invalid sequences are never silently dropped.

package extract

import (
	"bytes"
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// sniffLen bounds the binary sniff window.
const sniffLen = 8 << 10

// textExtractor reads a file verbatim. The default for source code and other
// recognised textual formats.
type textExtractor struct{}

func (textExtractor) extract(_ context.Context, path string) (string, error) {
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	if err := checkText(path, data); err != nil {
		return "", err
	}
	return string(data), nil
}

// markdownExtractor returns the document body as-is with a leading YAML
// frontmatter block removed.
type markdownExtractor struct{}

func (markdownExtractor) extract(_ context.Context, path string) (string, error) {
	data, err := readFile(path)
	if err != nil {
		return "", err
	}
	if err := checkText(path, data); err != nil {
		return "", err
	}
	return stripFrontmatter(string(data)), nil
}

// stripFrontmatter removes a leading "---" delimited YAML block. Anything
// short of a complete block is left untouched.
func stripFrontmatter(text string) string {
	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	if !strings.HasPrefix(normalized, "---\n") {
		return text
	}
	rest := normalized[len("---\n"):]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return text
	}
	after := rest[end+len("\n---"):]
	// The closing fence must sit on its own line.
	if after != "" && !strings.HasPrefix(after, "\n") {
		return text
	}
	return strings.TrimPrefix(after, "\n")
}

// checkText refuses binary or non-UTF-8 content.
func checkText(path string, data []byte) error {
	sniff := data
	if len(sniff) > sniffLen {
		sniff = sniff[:sniffLen]
	}
	if bytes.IndexByte(sniff, 0) >= 0 {
		return errOf(EncodingError, path, "binary content (NUL byte)")
	}
	if !utf8.Valid(data) {
		return errOf(EncodingError, path, "invalid UTF-8")
	}
	return nil
}

// normalize converts raw extractor output to the canonical form stored and
// indexed: \n line endings, no NUL or stray control characters, valid UTF-8.
func normalize(path, raw string) (string, error) {
	if !utf8.ValidString(raw) {
		return "", errOf(EncodingError, path, "extractor produced invalid UTF-8")
	}

	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}
