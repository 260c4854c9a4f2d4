// office.go implements Office document extraction for .docx and .xlsx.
//
// Word documents yield the main body in document order; table cells are
// joined with single spaces and rows with newlines. Headers, footers and
// notes are not extracted. Spreadsheets yield one line per row with cells joined by single
// spaces and a blank line between sheets.

package extract

import (
	"context"
	"encoding/xml"
	"strings"

	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

type officeExtractor struct{}

func (officeExtractor) extract(ctx context.Context, path string) (string, error) {
	switch Ext(path) {
	case "docx":
		return extractDocx(path)
	case "xlsx":
		return extractXlsx(ctx, path)
	default:
		return "", errOf(Unsupported, path, "unrecognised office format %q", Ext(path))
	}
}

func extractDocx(path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", errOf(ParseError, path, "%v", err)
	}
	defer doc.Close()

	text, err := wordXMLToText(doc.Editable().GetContent())
	if err != nil {
		return "", errOf(ParseError, path, "%v", err)
	}
	return text, nil
}

// wordXMLToText walks WordprocessingML and flattens it to plain text:
// paragraphs end with a newline, table cells within a row are separated by a
// single space, and rows by a newline. Only w:t runs carry text; whitespace
// between markup elements is not content.
func wordXMLToText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var b strings.Builder
	inCell := false
	inText := false
	needCellSep := false

	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tc":
				if needCellSep {
					b.WriteByte(' ')
				}
				inCell = true
			case "t":
				inText = true
			case "tab":
				b.WriteByte(' ')
			case "br":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if !inCell {
					b.WriteByte('\n')
				}
			case "t":
				inText = false
			case "tc":
				inCell = false
				needCellSep = true
			case "tr":
				needCellSep = false
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}

func extractXlsx(ctx context.Context, path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", errOf(ParseError, path, "%v", err)
	}
	defer f.Close()

	var sheets []string
	for _, sheet := range f.GetSheetList() {
		select {
		case <-ctx.Done():
			return "", errOf(IoError, path, "%v", ctx.Err())
		default:
		}

		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		var lines []string
		for _, row := range rows {
			var cells []string
			for _, cell := range row {
				if c := strings.TrimSpace(cell); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " "))
			}
		}
		if len(lines) > 0 {
			sheets = append(sheets, strings.Join(lines, "\n"))
		}
	}

	return strings.Join(sheets, "\n\n"), nil
}
