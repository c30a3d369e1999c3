package parser

import (
	"strings"

	"github.com/dgallion1/tabgest/internal/tables"
	"golang.org/x/text/unicode/norm"
)

// cleanCell collapses whitespace runs and normalizes to NFC.
func cleanCell(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

func cleanRow(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = cleanCell(c)
	}
	return out
}

// newTable builds a table from a header row and data rows, cleaning every
// cell. It returns false when there is nothing to keep.
func newTable(name string, records [][]string) (tables.Table, bool) {
	if len(records) == 0 {
		return tables.Table{}, false
	}
	t := tables.Table{
		Name:    name,
		Headers: cleanRow(records[0]),
		Rows:    make([][]string, 0, len(records)-1),
	}
	for _, rec := range records[1:] {
		row := cleanRow(rec)
		if allBlank(row) {
			continue
		}
		t.Rows = append(t.Rows, row)
	}
	return t, true
}

func allBlank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
