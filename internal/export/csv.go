package export

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/dgallion1/tabgest/internal/tables"
)

// CSV writes every table as a header record followed by its rows. Tables are
// separated by one blank line.
func CSV(result tables.ExtractionResult) ([]byte, error) {
	var buf bytes.Buffer
	for i, t := range result.Tables {
		if i > 0 {
			buf.WriteString("\n")
		}
		w := csv.NewWriter(&buf)
		if len(t.Headers) > 0 {
			if err := w.Write(t.Headers); err != nil {
				return nil, fmt.Errorf("write headers of table %d: %w", i, err)
			}
		}
		for _, row := range t.Rows {
			if err := w.Write(row); err != nil {
				return nil, fmt.Errorf("write row of table %d: %w", i, err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("flush table %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
