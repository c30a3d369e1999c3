package parser

import (
	"bufio"
	"io"

	"github.com/dgallion1/tabgest/internal/tables"
)

// TextParser finds column-aligned tables in plain text, where columns are
// separated by tabs or runs of two or more spaces.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]tables.Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines [][]string
	for scanner.Scan() {
		lines = append(lines, splitColumns(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return layoutTables(lines, baseName(filename), 1), nil
}
