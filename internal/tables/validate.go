package tables

import (
	"fmt"
	"math"
	"strings"
)

// DefaultMinConfidence is the score a result must reach to be valid.
const DefaultMinConfidence = 60.0

// IssueKind classifies a ValidationIssue.
type IssueKind string

const (
	IssueNoTablesFound       IssueKind = "no_tables_found"
	IssueMissingHeaders      IssueKind = "missing_headers"
	IssueMissingRows         IssueKind = "missing_rows"
	IssueMissingColumn       IssueKind = "missing_column"
	IssueExtraColumn         IssueKind = "extra_column"
	IssueHeaderMisclassified IssueKind = "potential_header_misclassification"
	IssueEmptyCell           IssueKind = "empty_cell"
)

// Severity ranks how much an issue undermines the result.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// ValidationIssue is a single observation about a table set. TableIndex is -1
// for document-level issues.
type ValidationIssue struct {
	Kind         IssueKind `json:"issue_type" yaml:"issue_type"`
	Severity     Severity  `json:"severity" yaml:"severity"`
	Description  string    `json:"description" yaml:"description"`
	TableIndex   int       `json:"table_index" yaml:"table_index"`
	RowIndex     *int      `json:"row_index" yaml:"row_index"`
	ColumnIndex  *int      `json:"column_index" yaml:"column_index"`
	SuggestedFix *string   `json:"suggested_fix" yaml:"suggested_fix"`
}

// ValidationResult is the outcome of validating one ExtractionResult.
type ValidationResult struct {
	IsValid         bool              `json:"is_valid" yaml:"is_valid"`
	ConfidenceScore float64           `json:"confidence_score" yaml:"confidence_score"`
	Issues          []ValidationIssue `json:"issues" yaml:"issues"`
	Suggestions     []string          `json:"suggestions" yaml:"suggestions"`
}

// IssuesForTable returns the issues attached to the table at index i.
func (r ValidationResult) IssuesForTable(i int) []ValidationIssue {
	var out []ValidationIssue
	for _, issue := range r.Issues {
		if issue.TableIndex == i {
			out = append(out, issue)
		}
	}
	return out
}

// maxRowLengthMismatches is the number of missing/extra column issues at
// which a result stops being valid.
const maxRowLengthMismatches = 3

// headerVocabulary holds words that usually appear in header rows.
var headerVocabulary = []string{"no", "num", "id", "name", "date", "total", "amount", "description"}

// Validator checks table sets for structural consistency. Its configuration
// is fixed at construction.
type Validator struct {
	minConfidence float64
	vocabulary    []string
}

// Option configures a Validator.
type Option func(*Validator)

// WithMinConfidence sets the score threshold for a valid result.
func WithMinConfidence(score float64) Option {
	return func(v *Validator) { v.minConfidence = score }
}

// WithHeaderVocabulary replaces the words used by the header
// misclassification heuristic.
func WithHeaderVocabulary(words ...string) Option {
	return func(v *Validator) {
		v.vocabulary = make([]string, 0, len(words))
		for _, w := range words {
			v.vocabulary = append(v.vocabulary, strings.ToLower(w))
		}
	}
}

// NewValidator returns a Validator with the default threshold and vocabulary.
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		minConfidence: DefaultMinConfidence,
		vocabulary:    headerVocabulary,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// MinConfidence returns the configured validity threshold.
func (v *Validator) MinConfidence() float64 {
	return v.minConfidence
}

// Validate runs with the given threshold and the default vocabulary.
func Validate(result ExtractionResult, minConfidence float64) ValidationResult {
	return NewValidator(WithMinConfidence(minConfidence)).Validate(result)
}

// Validate inspects every table in result and scores the set.
func (v *Validator) Validate(result ExtractionResult) ValidationResult {
	if len(result.Tables) == 0 {
		return ValidationResult{
			IsValid:         false,
			ConfidenceScore: 0,
			Issues: []ValidationIssue{{
				Kind:         IssueNoTablesFound,
				Severity:     SeverityHigh,
				Description:  "No tables were extracted from the document",
				TableIndex:   -1,
				SuggestedFix: strPtr("Try preprocessing the image or adjusting extraction parameters"),
			}},
			Suggestions: []string{
				"Ensure the document contains tables",
				"Try using OCR preprocessing",
			},
		}
	}

	issues := []ValidationIssue{}
	var total float64
	for i, t := range result.Tables {
		issues = append(issues, v.checkTable(t, i)...)
		total += TableConfidence(t)
	}
	score := total / float64(len(result.Tables))

	return ValidationResult{
		IsValid:         v.isValid(score, issues),
		ConfidenceScore: score,
		Issues:          issues,
		Suggestions:     suggestionsFor(issues),
	}
}

func (v *Validator) isValid(score float64, issues []ValidationIssue) bool {
	if score < v.minConfidence {
		return false
	}
	mismatches := 0
	for _, issue := range issues {
		if issue.Severity == SeverityHigh {
			return false
		}
		if issue.Kind == IssueMissingColumn || issue.Kind == IssueExtraColumn {
			mismatches++
		}
	}
	return mismatches < maxRowLengthMismatches
}

func (v *Validator) checkTable(t Table, ti int) []ValidationIssue {
	var issues []ValidationIssue
	headerCount := len(t.Headers)

	if headerCount == 0 {
		issues = append(issues, ValidationIssue{
			Kind:         IssueMissingHeaders,
			Severity:     SeverityHigh,
			Description:  fmt.Sprintf("Table %d has no headers detected", ti+1),
			TableIndex:   ti,
			SuggestedFix: strPtr("Manually inspect first row for headers"),
		})
	}
	if len(t.Rows) == 0 {
		issues = append(issues, ValidationIssue{
			Kind:         IssueMissingRows,
			Severity:     SeverityHigh,
			Description:  fmt.Sprintf("Table %d has no data rows", ti+1),
			TableIndex:   ti,
			SuggestedFix: strPtr("Check if table was detected correctly"),
		})
	}
	// Row checks are meaningless without a header count to compare against.
	if headerCount == 0 {
		return issues
	}

	for ri, row := range t.Rows {
		delta := len(row) - headerCount
		if delta == 0 {
			continue
		}
		severity := SeverityMedium
		if abs(delta) > 2 {
			severity = SeverityHigh
		}
		issue := ValidationIssue{
			Severity:    severity,
			Description: fmt.Sprintf("Row %d has %d columns but headers suggest %d", ri+1, len(row), headerCount),
			TableIndex:  ti,
			RowIndex:    intPtr(ri),
		}
		if delta < 0 {
			issue.Kind = IssueMissingColumn
			issue.SuggestedFix = strPtr(fmt.Sprintf("Add %d missing column values", -delta))
		} else {
			issue.Kind = IssueExtraColumn
			issue.SuggestedFix = strPtr(fmt.Sprintf("Merge %d extra column values into the last column", delta))
		}
		issues = append(issues, issue)
	}

	if len(t.Rows) > 0 && len(t.Rows[0]) == headerCount && v.headerLooksMisplaced(t) {
		issues = append(issues, ValidationIssue{
			Kind:         IssueHeaderMisclassified,
			Severity:     SeverityMedium,
			Description:  "First data row looks like it might be headers",
			TableIndex:   ti,
			RowIndex:     intPtr(0),
			SuggestedFix: strPtr("Consider using first row as headers instead"),
		})
	}

	for ri, row := range t.Rows {
		if len(row) == 0 || !isBlank(row[0]) {
			continue
		}
		// Only the first column is checked; it is usually a serial or ID.
		issues = append(issues, ValidationIssue{
			Kind:         IssueEmptyCell,
			Severity:     SeverityLow,
			Description:  fmt.Sprintf("Empty cell in first column at row %d", ri+1),
			TableIndex:   ti,
			RowIndex:     intPtr(ri),
			ColumnIndex:  intPtr(0),
			SuggestedFix: strPtr("Check for missing serial number or ID"),
		})
	}

	return issues
}

func (v *Validator) headerLooksMisplaced(t Table) bool {
	headerHits := v.vocabularyHits(strings.Join(t.Headers, " "))
	rowHits := v.vocabularyHits(strings.Join(t.Rows[0], " "))
	return rowHits > 2 && rowHits > headerHits
}

func (v *Validator) vocabularyHits(text string) int {
	text = strings.ToLower(text)
	hits := 0
	for _, word := range v.vocabulary {
		if strings.Contains(text, word) {
			hits++
		}
	}
	return hits
}

// TableConfidence scores a table's internal consistency in [0, 100]. Tables
// without rows or headers score 0.
func TableConfidence(t Table) float64 {
	if len(t.Rows) == 0 || len(t.Headers) == 0 {
		return 0
	}

	lengths := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		lengths[i] = float64(len(row))
	}

	totalCells, emptyCells := 0, 0
	for _, row := range t.Rows {
		for _, cell := range row {
			totalCells++
			if isBlank(cell) {
				emptyCells++
			}
		}
	}
	emptyRatio := 0.0
	if totalCells > 0 {
		emptyRatio = float64(emptyCells) / float64(totalCells)
	}

	score := 100 - variance(lengths)*10 - emptyRatio*50
	return math.Max(0, math.Min(100, score))
}

// variance is the population variance of xs.
func variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var sq float64
	for _, x := range xs {
		sq += (x - mean) * (x - mean)
	}
	return sq / float64(len(xs))
}

var suggestionOrder = []IssueKind{IssueMissingColumn, IssueExtraColumn, IssueHeaderMisclassified}

func suggestionsFor(issues []ValidationIssue) []string {
	counts := make(map[IssueKind]int)
	for _, issue := range issues {
		counts[issue.Kind]++
	}

	suggestions := []string{}
	for _, kind := range suggestionOrder {
		n := counts[kind]
		if n == 0 {
			continue
		}
		switch kind {
		case IssueMissingColumn:
			suggestions = append(suggestions, fmt.Sprintf(
				"Detected %d rows with missing columns. This often happens with scanned documents. Try enabling OCR preprocessing.", n))
		case IssueExtraColumn:
			suggestions = append(suggestions, fmt.Sprintf(
				"Detected %d rows with extra columns. Consider using table structure detection to better identify columns.", n))
		case IssueHeaderMisclassified:
			suggestions = append(suggestions,
				"Headers may have been detected incorrectly. Check if the first data row should actually be column headers.")
		}
	}

	if len(suggestions) == 0 && len(issues) > 0 {
		suggestions = append(suggestions,
			"Some extraction issues were detected. Review the extracted data and consider adjusting extraction parameters.")
	}
	return suggestions
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func intPtr(n int) *int { return &n }

func strPtr(s string) *string { return &s }
