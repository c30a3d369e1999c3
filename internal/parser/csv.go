package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/tabgest/internal/tables"
)

// CSVParser handles CSV files. The first record is the header row; ragged
// records are kept as they are so the validator can report them.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) ([]tables.Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	t, ok := newTable(baseName(filename), records)
	if !ok {
		return []tables.Table{}, nil
	}
	return []tables.Table{t}, nil
}
