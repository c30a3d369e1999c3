package tables

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairMissingColumn(t *testing.T) {
	res := ParseResult(`{"tables":[{"headers":["A","B"],"rows":[["1","2"],["3"]]}]}`, "")
	v := NewValidator().Validate(res)

	fixed := Repair(res.Tables[0], v.IssuesForTable(0))
	assert.Equal(t, [][]string{{"1", "2"}, {"3", ""}}, fixed.Rows)
	assert.Equal(t, [][]string{{"1", "2"}, {"3"}}, res.Tables[0].Rows, "input must not change")
}

func TestRepairExtraColumn(t *testing.T) {
	tbl := Table{
		Headers: []string{"Name", "Note"},
		Rows:    [][]string{{"Alice", "likes", "green", "tea"}},
	}
	issues := []ValidationIssue{{Kind: IssueExtraColumn, RowIndex: intPtr(0)}}

	fixed := Repair(tbl, issues)
	assert.Equal(t, [][]string{{"Alice", "likes green tea"}}, fixed.Rows)
	assert.Len(t, tbl.Rows[0], 4)
}

func TestRepairSingleHeader(t *testing.T) {
	tbl := Table{Headers: []string{"All"}, Rows: [][]string{{"a", "b", "c"}}}
	fixed := Repair(tbl, []ValidationIssue{{Kind: IssueExtraColumn, RowIndex: intPtr(0)}})
	assert.Equal(t, [][]string{{"a b c"}}, fixed.Rows)
}

func TestRepairIgnores(t *testing.T) {
	tbl := Table{Headers: []string{"A", "B"}, Rows: [][]string{{"1"}}}
	issues := []ValidationIssue{
		{Kind: IssueMissingColumn, RowIndex: intPtr(5)},
		{Kind: IssueMissingColumn, RowIndex: intPtr(-1)},
		{Kind: IssueMissingColumn},
		{Kind: IssueEmptyCell, RowIndex: intPtr(0), ColumnIndex: intPtr(0)},
		{Kind: IssueHeaderMisclassified, RowIndex: intPtr(0)},
	}
	fixed := Repair(tbl, issues)
	assert.Equal(t, tbl, fixed)
}

func TestRepairIdempotent(t *testing.T) {
	inputs := []Table{
		{Headers: []string{"A", "B", "C"}, Rows: [][]string{{"1"}, {"1", "2", "3", "4", "5"}, {"x", "y", "z"}}},
		{Headers: []string{"A"}, Rows: [][]string{{"a", "b"}, {}}},
		{Headers: []string{"A", "B"}, Rows: [][]string{{"", "b"}}},
	}
	validator := NewValidator()
	issuesOf := func(t Table) []ValidationIssue {
		return validator.Validate(ExtractionResult{Tables: []Table{t}}).IssuesForTable(0)
	}

	for _, in := range inputs {
		once := Repair(in, issuesOf(in))
		twice := Repair(once, issuesOf(once))
		assert.Equal(t, once, twice)
		for _, row := range once.Rows {
			assert.Len(t, row, len(in.Headers))
		}
	}
}

func TestRepairResult(t *testing.T) {
	res := ExtractionResult{
		Summary: "s",
		Tables: []Table{
			{Headers: []string{"A", "B"}, Rows: [][]string{{"1", "2"}}},
			{Headers: []string{"A", "B"}, Rows: [][]string{{"1"}}},
		},
	}
	v := NewValidator().Validate(res)

	fixed, n := RepairResult(res, v)
	require.Len(t, fixed.Tables, 2)
	assert.Equal(t, 1, n)
	assert.Equal(t, "s", fixed.Summary)
	assert.Equal(t, res.Tables[0], fixed.Tables[0])
	assert.Equal(t, [][]string{{"1", ""}}, fixed.Tables[1].Rows)
	assert.True(t, NewValidator().Validate(fixed).IsValid)
}

func TestRepairResultCountsOnlyRewrittenTables(t *testing.T) {
	res := ExtractionResult{Tables: []Table{
		{Headers: []string{}, Rows: [][]string{{"x"}}},
		{Headers: []string{"A", "B"}, Rows: [][]string{}},
		{Headers: []string{"A", "B"}, Rows: [][]string{{"", "b"}}},
		{Headers: []string{"A", "B"}, Rows: [][]string{{"1"}}},
	}}
	v := NewValidator().Validate(res)
	require.NotEmpty(t, v.IssuesForTable(0))
	require.NotEmpty(t, v.IssuesForTable(1))
	require.NotEmpty(t, v.IssuesForTable(2))

	fixed, n := RepairResult(res, v)
	assert.Equal(t, 1, n)
	assert.Equal(t, res.Tables[:3], fixed.Tables[:3])
	assert.Equal(t, [][]string{{"1", ""}}, fixed.Tables[3].Rows)
}

func TestRepairResultClonesNilSlicesAsEmpty(t *testing.T) {
	res := ExtractionResult{Tables: []Table{{Name: "T"}}}
	fixed, n := RepairResult(res, NewValidator().Validate(res))
	assert.Zero(t, n)
	assert.NotNil(t, fixed.Tables[0].Headers)
	assert.NotNil(t, fixed.Tables[0].Rows)
	assert.Empty(t, fixed.Tables[0].Headers)
	assert.Empty(t, fixed.Tables[0].Rows)
}

func TestRepairResultNothingRepairable(t *testing.T) {
	res := ExtractionResult{Tables: []Table{{Rows: [][]string{{"x"}}}}}
	_, n := RepairResult(res, NewValidator().Validate(res))
	assert.Zero(t, n)
}

// shortRows has three short rows, enough mismatches to fail validation.
var shortRows = ExtractionResult{Summary: "s", Tables: []Table{{
	Name:    "Sales",
	Headers: []string{"A", "B", "C"},
	Rows:    [][]string{{"1", "2", "3"}, {"4", "5"}, {"6", "7"}, {"8", "9"}},
}}}

func TestValidateAndRepair(t *testing.T) {
	validator := NewValidator()
	require.False(t, validator.Validate(shortRows).IsValid)

	fixed, v, n := validator.ValidateAndRepair(shortRows)
	assert.Equal(t, 1, n)
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Issues)
	assert.Equal(t, []string{"4", "5", ""}, fixed.Tables[0].Rows[1])
	assert.Equal(t, "s", fixed.Summary)
	assert.Len(t, shortRows.Tables[0].Rows[1], 2, "input must not change")
}

func TestValidateAndRepairLeavesValidResult(t *testing.T) {
	res := ExtractionResult{Tables: []Table{{Headers: []string{"A", "B", "C"}, Rows: [][]string{{"1", "2", "3"}, {"4"}}}}}
	fixed, v, n := NewValidator().ValidateAndRepair(res)
	assert.True(t, v.IsValid)
	assert.Zero(t, n)
	assert.Equal(t, []string{"4"}, fixed.Tables[0].Rows[1])
}

func TestRepairInvalidWithoutRowIssues(t *testing.T) {
	res := ExtractionResult{Tables: []Table{{Headers: []string{"A"}, Rows: [][]string{{"1"}}}}}
	validator := NewValidator(WithMinConfidence(101))
	before := validator.Validate(res)
	require.False(t, before.IsValid)

	fixed, v, n := validator.RepairInvalid(res, before)
	assert.Zero(t, n)
	assert.Equal(t, before, v)
	assert.Equal(t, res, fixed)
}
