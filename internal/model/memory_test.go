package model

import "testing"

func TestContentHashNormalization(t *testing.T) {
	a := ContentHash(TypeLearning, "main", "The  Quick\nBrown Fox")
	b := ContentHash(TypeLearning, "main", "the quick brown fox")
	if a != b {
		t.Error("expected whitespace- and case-insensitive hashes to match")
	}

	c := ContentHash(TypeDecision, "main", "the quick brown fox")
	if a == c {
		t.Error("expected different types to produce different hashes")
	}

	d := ContentHash(TypeLearning, "other", "the quick brown fox")
	if a == d {
		t.Error("expected different agents to produce different hashes")
	}
}

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Consciousness", "consciousness"},
		{"R_V", "r-v"},
		{"  spaced out  ", "spaced-out"},
		{"already-fine", "already-fine"},
		{"!!!", ""},
		{"-leading-", "leading"},
	}
	for _, tt := range tests {
		if got := NormalizeTag(tt.in); got != tt.want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeTagsDedup(t *testing.T) {
	got := NormalizeTags([]string{"Go", "go", "GO ", "", "rust"})
	if len(got) != 2 || got[0] != "go" || got[1] != "rust" {
		t.Errorf("expected [go rust], got %v", got)
	}
}

func TestParseMemoryType(t *testing.T) {
	if _, err := ParseMemoryType("insight"); err != nil {
		t.Errorf("insight should parse: %v", err)
	}
	if _, err := ParseMemoryType(" Learning "); err != nil {
		t.Errorf("expected trimmed, case-folded parse: %v", err)
	}
	if _, err := ParseMemoryType("hunch"); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestParseSourceDefault(t *testing.T) {
	src, err := ParseSource("")
	if err != nil || src != SourceAgent {
		t.Errorf("empty source should default to agent, got %v %v", src, err)
	}
	if _, err := ParseSource("telepathy"); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestParseReferenceType(t *testing.T) {
	if _, err := ParseReferenceType("derived_from"); err != nil {
		t.Errorf("derived_from should parse: %v", err)
	}
	if _, err := ParseReferenceType("causes"); err == nil {
		t.Error("expected error for unknown reference type")
	}
}
