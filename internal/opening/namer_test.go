package opening

import (
	"strings"
	"testing"
)

func TestNameKnownLines(t *testing.T) {
	n := NewNamer()
	cases := []struct {
		moves []string
		code  string
		title string
	}{
		{[]string{"e4", "c5"}, "B", "Sicilian"},
		{[]string{"e4", "e5", "Nf3", "Nc6", "Bb5"}, "C", "Ruy Lopez"},
	}
	for _, tc := range cases {
		o, ok := n.Name(tc.moves)
		if !ok {
			t.Fatalf("Name(%v) found nothing", tc.moves)
		}
		if !strings.HasPrefix(o.Code, tc.code) || !strings.Contains(o.Title, tc.title) {
			t.Fatalf("Name(%v) = %+v", tc.moves, o)
		}
		if o.Plies != len(tc.moves) {
			t.Fatalf("plies = %d", o.Plies)
		}
	}
}

func TestNameStopsAtIllegalMove(t *testing.T) {
	o, ok := NewNamer().Name([]string{"1.", "e4", "c5", "Ke8"})
	if !ok || o.Plies != 2 || !strings.Contains(o.Title, "Sicilian") {
		t.Fatalf("Name = %+v ok=%v", o, ok)
	}
}

func TestNameEmpty(t *testing.T) {
	if _, ok := NewNamer().Name(nil); ok {
		t.Fatalf("empty list should not name an opening")
	}
	if _, ok := NewNamer().Name([]string{"Qh5"}); ok {
		t.Fatalf("illegal first move should not name an opening")
	}
	var n *Namer
	if _, ok := n.Name([]string{"e4"}); ok {
		t.Fatalf("nil namer should not name an opening")
	}
}

func TestSanToken(t *testing.T) {
	for in, want := range map[string]string{"12.Nf3": "Nf3", "3...e5": "e5", " Bb5!? ": "Bb5", "1.": ""} {
		if got := sanToken(in); got != want {
			t.Fatalf("sanToken(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpeningString(t *testing.T) {
	if s := (Opening{Code: "B20", Title: "Sicilian Defense"}).String(); s != "B20 Sicilian Defense" {
		t.Fatalf("String = %q", s)
	}
}
