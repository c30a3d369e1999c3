// Package export renders extraction results as downloadable files.
package export

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/tabgest/internal/tables"
)

const (
	maxSheetName = 31
	emptySheet   = "Tables"
)

var sheetNameReplacer = strings.NewReplacer(
	":", " ", `\`, " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")",
)

// XLSX returns a workbook with one sheet per table: the header row first,
// then the data rows.
func XLSX(result tables.ExtractionResult) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	first := f.GetSheetName(0)
	if len(result.Tables) == 0 {
		if err := f.SetSheetName(first, emptySheet); err != nil {
			return nil, fmt.Errorf("rename sheet: %w", err)
		}
	}

	used := map[string]bool{}
	for i, t := range result.Tables {
		name := uniqueSheetName(sheetName(t, i), used)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("add sheet %q: %w", name, err)
		}
		if err := writeSheet(f, name, t); err != nil {
			return nil, fmt.Errorf("write sheet %q: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, t tables.Table) error {
	row := 1
	if len(t.Headers) > 0 {
		if err := writeRow(f, sheet, row, t.Headers); err != nil {
			return err
		}
		if err := boldRow(f, sheet, row, len(t.Headers)); err != nil {
			return err
		}
		row++
	}
	for _, cells := range t.Rows {
		if err := writeRow(f, sheet, row, cells); err != nil {
			return err
		}
		row++
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []string) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func boldRow(f *excelize.File, sheet string, row, cols int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	start, _ := excelize.CoordinatesToCellName(1, row)
	end, _ := excelize.CoordinatesToCellName(cols, row)
	return f.SetCellStyle(sheet, start, end, style)
}

// sheetName derives a legal sheet name from the table name.
func sheetName(t tables.Table, i int) string {
	name := strings.TrimSpace(sheetNameReplacer.Replace(t.Name))
	name = strings.Trim(name, "'")
	if name == "" {
		name = fmt.Sprintf("%s %d", tables.DefaultTableName, i+1)
	}
	return truncateRunes(name, maxSheetName)
}

// uniqueSheetName appends " (n)" until name is unused. Sheet names compare
// case-insensitively.
func uniqueSheetName(name string, used map[string]bool) string {
	candidate := name
	for n := 2; used[strings.ToLower(candidate)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = truncateRunes(name, maxSheetName-len(suffix)) + suffix
	}
	used[strings.ToLower(candidate)] = true
	return candidate
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
