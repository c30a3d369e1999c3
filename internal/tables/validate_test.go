package tables

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMissingColumn(t *testing.T) {
	res := ParseResult(`{"tables":[{"headers":["A","B"],"rows":[["1","2"],["3"]]}]}`, "")
	v := NewValidator().Validate(res)

	require.Len(t, v.Issues, 1)
	issue := v.Issues[0]
	assert.Equal(t, IssueMissingColumn, issue.Kind)
	assert.Equal(t, SeverityMedium, issue.Severity)
	assert.Equal(t, 0, issue.TableIndex)
	require.NotNil(t, issue.RowIndex)
	assert.Equal(t, 1, *issue.RowIndex)
	require.NotNil(t, issue.SuggestedFix)
	assert.Contains(t, *issue.SuggestedFix, "1")
	assert.Len(t, v.Suggestions, 1)
	assert.Contains(t, v.Suggestions[0], "1 rows with missing columns")
}

func TestValidateNoTables(t *testing.T) {
	v := Validate(ParseResult(`{"tables":[]}`, ""), DefaultMinConfidence)

	assert.False(t, v.IsValid)
	assert.Equal(t, 0.0, v.ConfidenceScore)
	require.Len(t, v.Issues, 1)
	assert.Equal(t, IssueNoTablesFound, v.Issues[0].Kind)
	assert.Equal(t, SeverityHigh, v.Issues[0].Severity)
	assert.Equal(t, -1, v.Issues[0].TableIndex)
	assert.Equal(t, []string{"Ensure the document contains tables", "Try using OCR preprocessing"}, v.Suggestions)
}

func TestValidateNoTablesFoundOnlyWhenEmpty(t *testing.T) {
	inputs := []ExtractionResult{
		{Tables: []Table{{}}},
		{Tables: []Table{{Headers: []string{"A"}}}},
		{Tables: []Table{{Rows: [][]string{{"1"}}}}},
		{Tables: []Table{{Headers: []string{"A"}, Rows: [][]string{{""}}}}},
	}
	for _, in := range inputs {
		v := NewValidator().Validate(in)
		for _, issue := range v.Issues {
			assert.NotEqual(t, IssueNoTablesFound, issue.Kind)
		}
	}
}

func TestValidateEmptyTable(t *testing.T) {
	v := NewValidator().Validate(ExtractionResult{Tables: []Table{{Name: "Empty"}}})

	require.Len(t, v.Issues, 2)
	assert.Equal(t, IssueMissingHeaders, v.Issues[0].Kind)
	assert.Equal(t, IssueMissingRows, v.Issues[1].Kind)
	assert.False(t, v.IsValid)
	assert.Equal(t, 0.0, v.ConfidenceScore)
}

func TestValidateHeaderlessSkipsRowChecks(t *testing.T) {
	tbl := Table{Rows: [][]string{{"", "b"}, {"c"}}}
	v := NewValidator().Validate(ExtractionResult{Tables: []Table{tbl}})

	require.Len(t, v.Issues, 1)
	assert.Equal(t, IssueMissingHeaders, v.Issues[0].Kind)
	assert.Equal(t, 0.0, v.ConfidenceScore)
}

func TestValidateSeverityByDelta(t *testing.T) {
	tbl := Table{
		Headers: []string{"A", "B", "C", "D"},
		Rows: [][]string{
			{"1", "2", "3", "4", "5"},
			{"1", "2", "3", "4", "5", "6", "7"},
			{"1"},
		},
	}
	v := NewValidator().Validate(ExtractionResult{Tables: []Table{tbl}})

	require.Len(t, v.Issues, 3)
	assert.Equal(t, IssueExtraColumn, v.Issues[0].Kind)
	assert.Equal(t, SeverityMedium, v.Issues[0].Severity)
	assert.Equal(t, IssueExtraColumn, v.Issues[1].Kind)
	assert.Equal(t, SeverityHigh, v.Issues[1].Severity)
	assert.Equal(t, IssueMissingColumn, v.Issues[2].Kind)
	assert.Equal(t, SeverityHigh, v.Issues[2].Severity)
	assert.False(t, v.IsValid)
}

func TestValidateHeaderMisclassification(t *testing.T) {
	tbl := Table{
		Headers: []string{"Col1", "Col2", "Col3"},
		Rows: [][]string{
			{"ID", "Name", "Amount"},
			{"1", "Alice", "10"},
		},
	}
	v := NewValidator().Validate(ExtractionResult{Tables: []Table{tbl}})

	require.Len(t, v.Issues, 1)
	issue := v.Issues[0]
	assert.Equal(t, IssueHeaderMisclassified, issue.Kind)
	assert.Equal(t, SeverityMedium, issue.Severity)
	require.NotNil(t, issue.RowIndex)
	assert.Equal(t, 0, *issue.RowIndex)
	assert.Equal(t, []string{
		"Headers may have been detected incorrectly. Check if the first data row should actually be column headers.",
	}, v.Suggestions)
	assert.True(t, v.IsValid)
}

func TestValidateCustomVocabulary(t *testing.T) {
	tbl := Table{
		Headers: []string{"X", "Y", "Z"},
		Rows:    [][]string{{"alpha", "beta", "gamma"}},
	}
	res := ExtractionResult{Tables: []Table{tbl}}

	assert.Empty(t, NewValidator().Validate(res).Issues)

	v := NewValidator(WithHeaderVocabulary("ALPHA", "beta", "gamma")).Validate(res)
	require.Len(t, v.Issues, 1)
	assert.Equal(t, IssueHeaderMisclassified, v.Issues[0].Kind)
}

func TestValidateEmptyFirstColumn(t *testing.T) {
	tbl := Table{
		Headers: []string{"No", "Item"},
		Rows:    [][]string{{"1", "Pen"}, {"  ", "Ink"}},
	}
	v := NewValidator().Validate(ExtractionResult{Tables: []Table{tbl}})

	require.Len(t, v.Issues, 1)
	issue := v.Issues[0]
	assert.Equal(t, IssueEmptyCell, issue.Kind)
	assert.Equal(t, SeverityLow, issue.Severity)
	require.NotNil(t, issue.ColumnIndex)
	assert.Equal(t, 0, *issue.ColumnIndex)
	assert.Equal(t, []string{
		"Some extraction issues were detected. Review the extracted data and consider adjusting extraction parameters.",
	}, v.Suggestions)
}

func TestValidateMismatchThreshold(t *testing.T) {
	tbl := Table{
		Headers: []string{"A", "B"},
		Rows: [][]string{
			{"1", "2"}, {"1", "2"}, {"1", "2"}, {"1", "2"}, {"1", "2"},
			{"1", "2"}, {"1", "2"}, {"1", "2"}, {"1", "2"}, {"1", "2"},
			{"1"}, {"1"}, {"1", "2", "3"},
		},
	}
	v := NewValidator(WithMinConfidence(0)).Validate(ExtractionResult{Tables: []Table{tbl}})
	require.Len(t, v.Issues, 3)
	assert.False(t, v.IsValid)

	tbl.Rows = tbl.Rows[:12]
	v = NewValidator(WithMinConfidence(0)).Validate(ExtractionResult{Tables: []Table{tbl}})
	require.Len(t, v.Issues, 2)
	assert.True(t, v.IsValid)
}

func TestValidateThreshold(t *testing.T) {
	tbl := Table{
		Headers: []string{"A", "B"},
		Rows:    [][]string{{"1", ""}, {"", ""}},
	}
	res := ExtractionResult{Tables: []Table{tbl}}

	// 3 of 4 cells blank: 100 - 0.75*50 = 62.5
	assert.InDelta(t, 62.5, NewValidator().Validate(res).ConfidenceScore, 1e-9)
	assert.True(t, NewValidator(WithMinConfidence(60)).Validate(res).IsValid)
	assert.False(t, NewValidator(WithMinConfidence(70)).Validate(res).IsValid)
}

func TestTableConfidence(t *testing.T) {
	tests := []struct {
		name  string
		table Table
		want  float64
	}{
		{"no rows", Table{Headers: []string{"A"}}, 0},
		{"no headers", Table{Rows: [][]string{{"1"}}}, 0},
		{"perfect", Table{Headers: []string{"A", "B"}, Rows: [][]string{{"1", "2"}, {"3", "4"}}}, 100},
		// lengths 2,1: variance 0.25
		{"ragged", Table{Headers: []string{"A", "B"}, Rows: [][]string{{"1", "2"}, {"3"}}}, 97.5},
		{"all blank", Table{Headers: []string{"A"}, Rows: [][]string{{""}, {" "}}}, 50},
		{"empty rows", Table{Headers: []string{"A"}, Rows: [][]string{{}, {}}}, 100},
		// lengths 1,20: variance 90.25
		{"clamped", Table{Headers: []string{"A"}, Rows: [][]string{{"1"}, make([]string, 20)}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, TableConfidence(tt.table), 1e-9)
		})
	}
}

func TestConfidenceBounded(t *testing.T) {
	inputs := []ExtractionResult{
		{},
		{Tables: []Table{{Headers: []string{"A"}, Rows: [][]string{make([]string, 50), {"x"}}}}},
		{Tables: []Table{{Headers: []string{"A", "B"}, Rows: [][]string{{"1", "2"}}}, {}}},
	}
	for _, in := range inputs {
		score := NewValidator().Validate(in).ConfidenceScore
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
}

func TestValidateMeanScore(t *testing.T) {
	res := ExtractionResult{Tables: []Table{
		{Headers: []string{"A"}, Rows: [][]string{{"1"}}},
		{Headers: []string{"A"}},
	}}
	assert.InDelta(t, 50.0, NewValidator().Validate(res).ConfidenceScore, 1e-9)
}

func TestValidationResultJSON(t *testing.T) {
	v := NewValidator().Validate(ParseResult(`{"tables":[]}`, ""))
	data, err := json.Marshal(v)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	issues := m["issues"].([]any)
	issue := issues[0].(map[string]any)
	assert.Equal(t, "no_tables_found", issue["issue_type"])
	assert.Contains(t, issue, "row_index")
	assert.Nil(t, issue["row_index"])
	assert.Nil(t, issue["column_index"])
	assert.Equal(t, false, m["is_valid"])
}
