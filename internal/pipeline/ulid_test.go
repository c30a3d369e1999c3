package pipeline

import (
	"strings"
	"testing"
)

func TestGenerateULID_Format(t *testing.T) {
	id := generateULID()
	if len(id) != 26 {
		t.Fatalf("expected 26 characters, got %d (%q)", len(id), id)
	}
	for _, c := range id {
		if !strings.ContainsRune(crockford, c) {
			t.Errorf("unexpected character %q in %q", c, id)
		}
	}
}

func TestGenerateULID_Monotonic(t *testing.T) {
	prev := generateULID()
	for range 1000 {
		next := generateULID()
		if next == prev {
			t.Fatalf("duplicate ulid %q", next)
		}
		if next < prev {
			t.Fatalf("ulid went backwards: %q after %q", next, prev)
		}
		prev = next
	}
}

func TestEncodeCrockford(t *testing.T) {
	var zero [16]byte
	if got := encodeCrockford(zero); got != strings.Repeat("0", 26) {
		t.Errorf("zero id encoded as %q", got)
	}
	var ones [16]byte
	for i := range ones {
		ones[i] = 0xff
	}
	if got := encodeCrockford(ones); got != "7"+strings.Repeat("Z", 25) {
		t.Errorf("max id encoded as %q", got)
	}
}
