// pdf.go implements PDF text extraction.
//
// Pages are linearised in reading order with paragraph breaks preserved
// between pages. Password-protected or otherwise unreadable PDFs refuse with
// ParseError; a page that fails mid-document is skipped rather than aborting
// the file.

package extract

import (
	"context"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

type pdfExtractor struct{}

func (pdfExtractor) extract(ctx context.Context, path string) (text string, err error) {
	// The underlying reader panics on some malformed files; treat those as
	// parse failures like any other.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = errOf(ParseError, path, "malformed pdf: %v", r)
		}
	}()
	return extractPDF(ctx, path)
}

func extractPDF(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errOf(IoError, path, "%v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", errOf(IoError, path, "%v", err)
	}

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return "", errOf(ParseError, path, "%v", err)
	}

	var pages []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		select {
		case <-ctx.Done():
			return "", errOf(IoError, path, "%v", ctx.Err())
		default:
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if t := strings.TrimSpace(text); t != "" {
			pages = append(pages, t)
		}
	}

	if len(pages) == 0 && reader.NumPage() == 0 {
		return "", errOf(ParseError, path, "no extractable pages")
	}
	return strings.Join(pages, "\n\n"), nil
}
