package tables

import "unicode/utf8"

// minDonorRunes is the length an enhance cell must exceed before it may
// replace a base cell.
const minDonorRunes = 3

// Merge combines two tables read from the same source. The table with the
// strictly higher confidence is the base (ties favor b) and provides the name,
// headers and row layout; the other donates cell text wherever its cell is
// longer than the base cell and longer than three characters.
//
// Rows and columns are aligned by index only.
func Merge(a, b Table) Table {
	base, enhance := b, a
	if TableConfidence(a) > TableConfidence(b) {
		base, enhance = a, b
	}

	out := Table{
		Name:    base.Name,
		Headers: append([]string{}, base.Headers...),
		Rows:    make([][]string, len(base.Rows)),
	}
	for i, baseRow := range base.Rows {
		row := append([]string{}, baseRow...)
		if i < len(enhance.Rows) {
			donor := enhance.Rows[i]
			for j := range row {
				if j >= len(donor) {
					break
				}
				if preferDonor(row[j], donor[j]) {
					row[j] = donor[j]
				}
			}
		}
		out.Rows[i] = row
	}
	return out
}

func preferDonor(base, donor string) bool {
	n := utf8.RuneCountInString(donor)
	return n > utf8.RuneCountInString(base) && n > minDonorRunes
}

// MergeResults merges the tables of two results pairwise by index. Tables
// without a counterpart are kept as they are. The summary of a is kept unless
// it is empty.
func MergeResults(a, b ExtractionResult) (ExtractionResult, int) {
	n := max(len(a.Tables), len(b.Tables))
	out := ExtractionResult{Tables: make([]Table, 0, n), Summary: a.Summary}
	if out.Summary == "" {
		out.Summary = b.Summary
	}
	merged := 0
	for i := 0; i < n; i++ {
		switch {
		case i < len(a.Tables) && i < len(b.Tables):
			out.Tables = append(out.Tables, Merge(a.Tables[i], b.Tables[i]))
			merged++
		case i < len(a.Tables):
			out.Tables = append(out.Tables, a.Tables[i].Clone())
		default:
			out.Tables = append(out.Tables, b.Tables[i].Clone())
		}
	}
	return out, merged
}
