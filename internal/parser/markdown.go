package parser

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dgallion1/tabgest/internal/tables"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser extracts GFM pipe tables using goldmark. The nearest
// preceding heading names each table.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) ([]tables.Table, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(src))

	out := []tables.Table{}
	heading := ""
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			heading = cleanCell(inlineText(node, src))
		case *east.Table:
			name := heading
			if name == "" {
				name = fmt.Sprintf("%s Table %d", baseName(filename), len(out)+1)
			}
			heading = ""
			if t, ok := newTable(name, markdownRecords(node, src)); ok {
				out = append(out, t)
			}
		}
	}
	return out, nil
}

func markdownRecords(table *east.Table, src []byte) [][]string {
	var records [][]string
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		switch row.(type) {
		case *east.TableHeader, *east.TableRow:
		default:
			continue
		}
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			if _, ok := cell.(*east.TableCell); ok {
				cells = append(cells, inlineText(cell, src))
			}
		}
		records = append(records, cells)
	}
	return records
}

// inlineText concatenates the text of n's inline descendants.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.WriteString(inlineText(c, src))
		}
	}
	return buf.String()
}
