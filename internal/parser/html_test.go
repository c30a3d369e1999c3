package parser

import (
	"reflect"
	"strings"
	"testing"
)

func TestHTMLParser_Tables(t *testing.T) {
	input := `<html><body>
<p>Intro</p>
<table>
  <caption>Staff</caption>
  <thead><tr><th>Name</th><th>Role</th></tr></thead>
  <tbody>
    <tr><td>Ada</td><td>Engineer<br>Lead</td></tr>
    <tr><td>Grace</td><td>
      <table><tr><td>nested</td></tr></table>
    </td></tr>
  </tbody>
</table>
<table><tr><td>k</td><td>v</td></tr><tr><td>a</td><td>1</td></tr></table>
<script>var x = "<table>";</script>
</body></html>`

	p := &HTMLParser{}
	got, err := p.Parse(strings.NewReader(input), "page.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 tables (outer, nested, second), got %d", len(got))
	}

	staff := got[0]
	if staff.Name != "Staff" {
		t.Errorf("name = %q, want %q", staff.Name, "Staff")
	}
	if want := []string{"Name", "Role"}; !reflect.DeepEqual(staff.Headers, want) {
		t.Errorf("headers = %q, want %q", staff.Headers, want)
	}
	wantRows := [][]string{{"Ada", "Engineer Lead"}, {"Grace", "nested"}}
	if !reflect.DeepEqual(staff.Rows, wantRows) {
		t.Errorf("rows = %q, want %q", staff.Rows, wantRows)
	}

	if got[2].Name != "page Table 3" {
		t.Errorf("name = %q", got[2].Name)
	}
	if want := []string{"k", "v"}; !reflect.DeepEqual(got[2].Headers, want) {
		t.Errorf("headers = %q, want %q", got[2].Headers, want)
	}
}
