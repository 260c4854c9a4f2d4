package extract_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boswecw/cortex/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFile creates a fixture file and returns its path and size.
func writeFile(t *testing.T, name string, data []byte) (string, int64) {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path, int64(len(data))
}

func kindOf(t *testing.T, err error) extract.ErrorKind {
	t.Helper()
	var e *extract.Error
	require.ErrorAs(t, err, &e)
	return e.Kind
}

func TestExtract_PlainText(t *testing.T) {
	path, size := writeFile(t, "a.txt", []byte("rust programming"))

	c, err := extract.Extract(context.Background(), path, size, 0)
	require.NoError(t, err)
	assert.Equal(t, "rust programming", c.Text)
	assert.Equal(t, 2, c.WordCount)
}

func TestExtract_SourceCodeIsText(t *testing.T) {
	path, size := writeFile(t, "main.go", []byte("package main\n\nfunc main() {}\n"))

	c, err := extract.Extract(context.Background(), path, size, 0)
	require.NoError(t, err)
	assert.Contains(t, c.Text, "func main()")
}

func TestExtract_NormalisesLineEndings(t *testing.T) {
	path, size := writeFile(t, "crlf.txt", []byte("one\r\ntwo\rthree\n"))

	c, err := extract.Extract(context.Background(), path, size, 0)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\nthree\n", c.Text)
	assert.Equal(t, 3, c.WordCount)
}

func TestExtract_StripsControlCharacters(t *testing.T) {
	path, size := writeFile(t, "ctl.txt", []byte("a\x07b\tc"))

	c, err := extract.Extract(context.Background(), path, size, 0)
	require.NoError(t, err)
	assert.Equal(t, "ab\tc", c.Text)
}

func TestExtract_Markdown_StripsFrontmatter(t *testing.T) {
	md := "---\ntitle: Notes\ntags: [a, b]\n---\n# Heading\n\nbody text\n"
	path, size := writeFile(t, "notes.md", []byte(md))

	c, err := extract.Extract(context.Background(), path, size, 0)
	require.NoError(t, err)
	assert.Equal(t, "# Heading\n\nbody text\n", c.Text)
}

func TestExtract_Markdown_WithoutFrontmatterIsIdentity(t *testing.T) {
	md := "# Heading\n\n--- a rule, not frontmatter\n"
	path, size := writeFile(t, "plain.md", []byte(md))

	c, err := extract.Extract(context.Background(), path, size, 0)
	require.NoError(t, err)
	assert.Equal(t, md, c.Text)
}

func TestExtract_UnsupportedExtension(t *testing.T) {
	path, size := writeFile(t, "image.png", []byte{0x89, 'P', 'N', 'G'})

	_, err := extract.Extract(context.Background(), path, size, 0)
	assert.Equal(t, extract.Unsupported, kindOf(t, err))
}

func TestExtract_BinaryContentUnderTextExtension(t *testing.T) {
	path, size := writeFile(t, "fake.txt", []byte{'a', 0x00, 'b', 'c'})

	_, err := extract.Extract(context.Background(), path, size, 0)
	assert.Equal(t, extract.EncodingError, kindOf(t, err))
}

func TestExtract_InvalidUTF8(t *testing.T) {
	path, size := writeFile(t, "bad.txt", []byte{0xff, 0xfe, 'h', 'i'})

	_, err := extract.Extract(context.Background(), path, size, 0)
	assert.Equal(t, extract.EncodingError, kindOf(t, err))
}

func TestExtract_SizeCeiling(t *testing.T) {
	data := []byte(strings.Repeat("x", 100))
	path, size := writeFile(t, "exact.txt", data)

	// Exactly at the ceiling is accepted.
	_, err := extract.Extract(context.Background(), path, size, size)
	require.NoError(t, err)

	// One byte over is refused.
	_, err = extract.Extract(context.Background(), path, size, size-1)
	assert.Equal(t, extract.SizeExceeded, kindOf(t, err))
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := extract.Extract(context.Background(), filepath.Join(t.TempDir(), "gone.txt"), 10, 0)
	assert.Equal(t, extract.IoError, kindOf(t, err))
}

func TestExtract_CorruptPDF(t *testing.T) {
	path, size := writeFile(t, "broken.pdf", []byte("%PDF-1.4 garbage"))

	_, err := extract.Extract(context.Background(), path, size, 0)
	assert.Equal(t, extract.ParseError, kindOf(t, err))
}

func TestSupported(t *testing.T) {
	assert.True(t, extract.Supported("txt"))
	assert.True(t, extract.Supported("md"))
	assert.True(t, extract.Supported("pdf"))
	assert.True(t, extract.Supported("docx"))
	assert.True(t, extract.Supported("xlsx"))
	assert.True(t, extract.Supported("go"))
	assert.False(t, extract.Supported("png"))
	assert.False(t, extract.Supported("exe"))
	assert.False(t, extract.Supported(""))
}

func TestExt(t *testing.T) {
	assert.Equal(t, "txt", extract.Ext("/tmp/A.TXT"))
	assert.Equal(t, "", extract.Ext("/tmp/Makefile"))
	assert.Equal(t, "gz", extract.Ext("/tmp/a.tar.gz"))
}
