package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/tabgest/internal/tables"
)

// columnGapRe separates columns in text rendered with layout spacing.
var columnGapRe = regexp.MustCompile(`\t+|\s{2,}`)

// minBlockLines is the number of consecutive multi-column lines (header
// included) that make a table.
const minBlockLines = 2

// splitColumns splits a layout line into cells.
func splitColumns(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	return columnGapRe.Split(line, -1)
}

// layoutTables finds tables in lines already split into cells. A table is a
// run of at least two consecutive lines with two or more cells whose column
// counts stay within one of the header line. Anything else ends the run.
func layoutTables(lines [][]string, namePrefix string, startIndex int) []tables.Table {
	out := []tables.Table{}
	var block [][]string
	flush := func() {
		if len(block) >= minBlockLines {
			name := fmt.Sprintf("%s Table %d", namePrefix, startIndex+len(out))
			if t, ok := newTable(name, block); ok {
				out = append(out, t)
			}
		}
		block = nil
	}

	for _, cells := range lines {
		if len(cells) < 2 {
			flush()
			continue
		}
		if len(block) > 0 && absDiff(len(cells), len(block[0])) > 1 {
			flush()
		}
		block = append(block, cells)
	}
	flush()
	return out
}

func textLines(text string) [][]string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([][]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, splitColumns(l))
	}
	return lines
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
