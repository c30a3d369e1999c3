package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/tabgest/internal/tables"
)

func sample() tables.ExtractionResult {
	return tables.ExtractionResult{
		Summary: "Extraction completed successfully.",
		Tables: []tables.Table{
			{Name: "Q1 Sales", Headers: []string{"Region", "Total"}, Rows: [][]string{{"North", "10"}, {"South", "12"}}},
			{Name: "q1 sales", Headers: []string{"A"}, Rows: [][]string{{"x"}}},
			{Name: "", Headers: []string{"B"}, Rows: [][]string{{"y, z"}}},
		},
	}
}

func TestXLSX(t *testing.T) {
	data, err := XLSX(sample())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Q1 Sales", "q1 sales (2)", "Table 3"}, f.GetSheetList())

	rows, err := f.GetRows("Q1 Sales")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Region", "Total"}, {"North", "10"}, {"South", "12"}}, rows)
}

func TestXLSXEmpty(t *testing.T) {
	data, err := XLSX(tables.ExtractionResult{})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Tables"}, f.GetSheetList())
}

func TestSheetName(t *testing.T) {
	long := strings.Repeat("a", 40)
	assert.Equal(t, strings.Repeat("a", 31), sheetName(tables.Table{Name: long}, 0))
	assert.Equal(t, "Q1 2024 (draft)", sheetName(tables.Table{Name: "Q1/2024 [draft]"}, 0))
	assert.Equal(t, "Table 2", sheetName(tables.Table{Name: "''"}, 1))

	used := map[string]bool{}
	first := uniqueSheetName(long[:31], used)
	second := uniqueSheetName(long[:31], used)
	assert.Len(t, first, 31)
	assert.Len(t, second, 31)
	assert.True(t, strings.HasSuffix(second, " (2)"))
}

func TestCSV(t *testing.T) {
	data, err := CSV(sample())
	require.NoError(t, err)

	want := "Region,Total\nNorth,10\nSouth,12\n" +
		"\n" +
		"A\nx\n" +
		"\n" +
		"B\n\"y, z\"\n"
	assert.Equal(t, want, string(data))
}

func TestCSVEmpty(t *testing.T) {
	data, err := CSV(tables.ExtractionResult{})
	require.NoError(t, err)
	assert.Empty(t, data)
}
