// Package tables recovers, validates, repairs and merges the table sets that
// an AI document backend returns as loosely structured text.
//
// Everything in this package is pure: no I/O, no shared mutable state. A
// Validator is safe to share across goroutines once constructed.
package tables

// DefaultTableName is used when the backend omits a table name.
const DefaultTableName = "Table"

// Table is a single extracted table. Row length is not tied to the header
// count; that mismatch is what the Validator reports.
type Table struct {
	Name    string     `json:"tableName" yaml:"tableName"`
	Headers []string   `json:"headers" yaml:"headers"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// ExtractionResult is the full set of tables recovered from one document.
type ExtractionResult struct {
	Tables  []Table `json:"tables" yaml:"tables"`
	Summary string  `json:"summary" yaml:"summary"`
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := Table{
		Name:    t.Name,
		Headers: append([]string{}, t.Headers...),
		Rows:    make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string{}, row...)
	}
	return out
}

// CellCount returns the total number of cells across all rows.
func (t Table) CellCount() int {
	n := 0
	for _, row := range t.Rows {
		n += len(row)
	}
	return n
}
