package parser

import (
	"reflect"
	"strings"
	"testing"
)

func TestMarkdownParser_PipeTables(t *testing.T) {
	input := `# Inventory

Some intro text.

| Item | Qty | Note |
|------|----:|------|
| Pen  | 3   | **blue** ink |
| Ink  |     | ` + "`refill`" + ` |

Between tables.

| A | B |
|---|---|
| 1 | 2 |
`
	p := &MarkdownParser{}
	got, err := p.Parse(strings.NewReader(input), "stock.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 tables, got %d", len(got))
	}

	first := got[0]
	if first.Name != "Inventory" {
		t.Errorf("expected name %q, got %q", "Inventory", first.Name)
	}
	if want := []string{"Item", "Qty", "Note"}; !reflect.DeepEqual(first.Headers, want) {
		t.Errorf("headers = %q, want %q", first.Headers, want)
	}
	wantRows := [][]string{
		{"Pen", "3", "blue ink"},
		{"Ink", "", "refill"},
	}
	if !reflect.DeepEqual(first.Rows, wantRows) {
		t.Errorf("rows = %q, want %q", first.Rows, wantRows)
	}

	if got[1].Name != "stock Table 2" {
		t.Errorf("expected fallback name %q, got %q", "stock Table 2", got[1].Name)
	}
	if !reflect.DeepEqual(got[1].Rows, [][]string{{"1", "2"}}) {
		t.Errorf("second table rows = %q", got[1].Rows)
	}
}

func TestMarkdownParser_NoTables(t *testing.T) {
	p := &MarkdownParser{}
	got, err := p.Parse(strings.NewReader("# Title\n\nJust prose.\n"), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}
