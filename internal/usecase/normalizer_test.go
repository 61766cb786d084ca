package usecase

import (
	"regexp"
	"strings"
	"testing"
	"unicode"
)

func TestNormalizeBrand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Bready Steady", "breadysteady"},
		{"  Bready\tSteady\n", "breadysteady"},
		{"Smith & Co", "smith&co"},
		{"O'Neill's", "o'neill's"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeBrand(tt.input); got != tt.want {
				t.Errorf("NormalizeBrand(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeBranch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"York", "york"},
		{"St. Albans", "stalbans"},
		{"York (City Centre)", "yorkcitycentre"},
		{"Newcastle-upon-Tyne", "newcastleupontyne"},
		{"Zürich 2", "zrich2"},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := NormalizeBranch(tt.input); got != tt.want {
				t.Errorf("NormalizeBranch(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	if got := NormalizeTitle("Bready Steady  York"); got != "breadysteadyyork" {
		t.Errorf("NormalizeTitle() = %q, want breadysteadyyork", got)
	}
}

func TestNormalizeProperties(t *testing.T) {
	branchAlphabet := regexp.MustCompile(`^[a-z0-9]*$`)
	inputs := []string{
		"Bready Steady", "  lots   of\tspace here ", "UPPER lower", "Café Nero",
		"St. Albans", "line\nbreak", "tabs\t\tand\rreturns", "emoji 🍞 bakery", "",
	}

	for _, in := range inputs {
		brand := NormalizeBrand(in)
		if strings.IndexFunc(brand, unicode.IsSpace) >= 0 {
			t.Errorf("NormalizeBrand(%q) = %q contains whitespace", in, brand)
		}
		if title := NormalizeTitle(in); strings.IndexFunc(title, unicode.IsSpace) >= 0 {
			t.Errorf("NormalizeTitle(%q) = %q contains whitespace", in, title)
		}
		if branch := NormalizeBranch(in); !branchAlphabet.MatchString(branch) {
			t.Errorf("NormalizeBranch(%q) = %q contains characters outside [a-z0-9]", in, branch)
		}
		if NormalizeBrand(brand) != brand {
			t.Errorf("NormalizeBrand is not idempotent for %q", in)
		}
	}
}
