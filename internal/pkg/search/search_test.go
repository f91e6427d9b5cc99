package search

import (
	"testing"
)

func TestNormalizeQuery(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"trims and collapses", "  two   sum  ", "two sum", true},
		{"too short", "a", "", false},
		{"whitespace only", "   ", "", false},
		{"exact minimum", "dp", "dp", true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := NormalizeQuery(c.input)
			if ok != c.ok || got != c.want {
				t.Fatalf("NormalizeQuery(%q) = (%q, %v), want (%q, %v)", c.input, got, ok, c.want, c.ok)
			}
		})
	}
}

func TestNormalizeQuery_CapsLength(t *testing.T) {
	long := make([]byte, 0, MaxQueryLength*2)
	for i := 0; i < MaxQueryLength*2; i++ {
		long = append(long, 'x')
	}

	got, ok := NormalizeQuery(string(long))
	if !ok {
		t.Fatal("long query should still be searchable")
	}
	if len(got) != MaxQueryLength {
		t.Fatalf("expected query capped at %d chars, got %d", MaxQueryLength, len(got))
	}
}

func TestParseCategories(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty means all", "", nil},
		{"single", "problems", []string{CategoryProblems}},
		{"mixed case and spaces", " Users , PROBLEMS ", []string{CategoryUsers, CategoryProblems}},
		{"unknown dropped", "albums,users", []string{CategoryUsers}},
		{"all unknown means all", "albums,images", nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ParseCategories(c.input)
			if len(got) != len(c.want) {
				t.Fatalf("ParseCategories(%q) = %v, want %v", c.input, got, c.want)
			}
			for i := range got {
				if got[i] != c.want[i] {
					t.Fatalf("ParseCategories(%q) = %v, want %v", c.input, got, c.want)
				}
			}
		})
	}
}

func TestLikePattern(t *testing.T) {
	if got := LikePattern("two sum"); got != "%two sum%" {
		t.Fatalf("unexpected pattern %q", got)
	}
	if got := LikePattern("100%_done"); got != `%100\%\_done%` {
		t.Fatalf("metacharacters must be escaped, got %q", got)
	}
}
