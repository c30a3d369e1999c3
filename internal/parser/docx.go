package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dgallion1/tabgest/internal/tables"
	"github.com/fumiama/go-docx"
)

// DOCXParser extracts the tables of a .docx body. The first row of each table
// is its header row; the paragraph just before a table names it.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) ([]tables.Table, error) {
	// go-docx needs a ReaderAt and size, so spool to a temp file.
	tmp, err := os.CreateTemp("", "tabgest-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, r)
	if err != nil {
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	out := []tables.Table{}
	lastPara := ""
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			if text := docxParagraphText(v); text != "" {
				lastPara = text
			}
		case *docx.Table:
			name := cleanCell(lastPara)
			if name == "" || len(name) > 80 {
				name = fmt.Sprintf("%s Table %d", baseName(filename), len(out)+1)
			}
			lastPara = ""
			if t, ok := newTable(name, docxRecords(v)); ok {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func docxRecords(t *docx.Table) [][]string {
	records := make([][]string, 0, len(t.TableRows))
	for _, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			var parts []string
			for _, para := range cell.Paragraphs {
				if text := docxParagraphText(para); text != "" {
					parts = append(parts, text)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		records = append(records, cells)
	}
	return records
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
