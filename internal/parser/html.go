package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/tabgest/internal/tables"
	"golang.org/x/net/html"
)

// HTMLParser extracts every <table> in the document. The first row is the
// header row; a <caption> names the table.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) ([]tables.Table, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	out := []tables.Table{}
	for _, node := range findTables(doc) {
		name := fmt.Sprintf("%s Table %d", baseName(filename), len(out)+1)
		if caption := findChild(node, "caption"); caption != nil {
			if c := cleanCell(textContent(caption)); c != "" {
				name = c
			}
		}
		if t, ok := newTable(name, tableRecords(node)); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// findTables returns table elements in document order, including nested ones.
func findTables(n *html.Node) []*html.Node {
	var found []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "table":
				found = append(found, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

// tableRecords collects the cell text of every row that belongs to table
// itself, skipping rows of nested tables.
func tableRecords(table *html.Node) [][]string {
	var records [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.Data {
			case "table":
				continue
			case "tr":
				var row []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
						row = append(row, textContent(cell))
					}
				}
				if len(row) > 0 {
					records = append(records, row)
				}
			default:
				walk(c)
			}
		}
	}
	walk(table)
	return records
}

func findChild(n *html.Node, tag string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			return c
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			buf.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}
