package store

import "testing"

func TestRebind(t *testing.T) {
	got := rebind("SELECT a FROM t WHERE b = ? AND c LIKE ?")
	want := "SELECT a FROM t WHERE b = $1 AND c LIKE $2"
	if got != want {
		t.Errorf("rebind() = %q, want %q", got, want)
	}
}

func TestSplitKeywords(t *testing.T) {
	got := splitKeywords(" 새우, shrimp ,,")
	if len(got) != 2 || got[0] != "새우" || got[1] != "shrimp" {
		t.Errorf("splitKeywords() = %q", got)
	}
	if splitKeywords("") != nil {
		t.Error("expected nil for empty keywords")
	}
}

func TestLikeEscapesWildcards(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"새우 버거", "%새우버거%"},
		{"Shrimp", "%shrimp%"},
		{"50%", `%50\%%`},
		{"a_b", `%a\_b%`},
		{`a\b`, `%a\\b%`},
	}
	for _, tt := range tests {
		if got := like(tt.in); got != tt.want {
			t.Errorf("like(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
