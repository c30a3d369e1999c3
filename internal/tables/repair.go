package tables

import "strings"

// Repair returns a copy of t with row-length issues fixed. Short rows are
// padded with empty cells; in long rows every cell from the last header
// position onward is joined into one trailing cell. Other issue kinds are
// informational and left untouched. The input is never modified.
func Repair(t Table, issues []ValidationIssue) Table {
	fixed, _ := repair(t, issues)
	return fixed
}

// repair is Repair that also reports how many rows it rewrote.
func repair(t Table, issues []ValidationIssue) (Table, int) {
	fixed := t.Clone()
	headerCount := len(fixed.Headers)
	changed := 0

	for _, issue := range issues {
		if issue.RowIndex == nil {
			continue
		}
		ri := *issue.RowIndex
		if ri < 0 || ri >= len(fixed.Rows) {
			continue
		}
		row := fixed.Rows[ri]

		switch issue.Kind {
		case IssueMissingColumn:
			if len(row) >= headerCount {
				continue
			}
			for len(row) < headerCount {
				row = append(row, "")
			}
		case IssueExtraColumn:
			if headerCount == 0 || len(row) <= headerCount {
				continue
			}
			merged := strings.Join(row[headerCount-1:], " ")
			row = append(row[:headerCount-1:headerCount-1], merged)
		default:
			continue
		}
		fixed.Rows[ri] = row
		changed++
	}
	return fixed, changed
}

// RepairResult repairs every table in result using the issues recorded
// against it, and reports how many tables had at least one row rewritten.
func RepairResult(result ExtractionResult, validation ValidationResult) (ExtractionResult, int) {
	out := ExtractionResult{
		Tables:  make([]Table, len(result.Tables)),
		Summary: result.Summary,
	}
	repaired := 0
	for i, t := range result.Tables {
		fixed, changed := repair(t, validation.IssuesForTable(i))
		out.Tables[i] = fixed
		if changed > 0 {
			repaired++
		}
	}
	return out, repaired
}

// RepairInvalid repairs result when validation marks it invalid and
// re-validates the repaired tables. A valid result, or one with nothing
// repairable, is returned unchanged with its original validation.
func (v *Validator) RepairInvalid(result ExtractionResult, validation ValidationResult) (ExtractionResult, ValidationResult, int) {
	if validation.IsValid {
		return result, validation, 0
	}
	fixed, n := RepairResult(result, validation)
	if n == 0 {
		return result, validation, 0
	}
	return fixed, v.Validate(fixed), n
}

// ValidateAndRepair validates result, repairing and re-validating it when
// it is invalid. It returns the final tables, their validation and the
// number of tables repaired.
func (v *Validator) ValidateAndRepair(result ExtractionResult) (ExtractionResult, ValidationResult, int) {
	return v.RepairInvalid(result, v.Validate(result))
}
