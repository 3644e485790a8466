package textutil_test

import (
	"testing"

	"jofsarpur/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"  Krakkafréttir  ": "Krakkafréttir",
		"Hvað? Nú/Þá: já":   "Hvað Nú-Þá- já",
		"tab\tand\nnewline": "tabandnewline",
		"":                  "",
		"Kra\u0301kur":      "Krákur",
		`a<b>c|d"e*f\g`:     "abcde-f-g",
	}
	for input, want := range cases {
		if got := textutil.SanitizeFileName(input); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	if !textutil.ContainsFold("Krakkafréttir", "KRAKKAFRÉTTIR") {
		t.Fatal("expected case-insensitive match")
	}
	if !textutil.ContainsFold("Krakkafre\u0301ttir", "fréttir") {
		t.Fatal("expected decomposed accents to match composed query")
	}
	if textutil.ContainsFold("Landinn", "Kastljós") {
		t.Fatal("unexpected match")
	}
	if !textutil.ContainsFold("anything", "  ") {
		t.Fatal("empty needle should match")
	}
}
