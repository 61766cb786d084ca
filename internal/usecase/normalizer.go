package usecase

import (
	"regexp"
	"strings"
	"unicode"
)

// Package-level compiled regex pattern for performance
var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9]`)

// NormalizeBrand lower-cases a brand and removes every whitespace character,
// so "Bready  Steady" and "bready steady" compare equal.
func NormalizeBrand(s string) string {
	return stripWhitespace(strings.ToLower(s))
}

// NormalizeTitle applies the brand rule to a result's display name.
func NormalizeTitle(s string) string {
	return stripWhitespace(strings.ToLower(s))
}

// NormalizeBranch lower-cases a branch and keeps only ASCII letters and digits.
// Branch names carry punctuation and locale artifacts ("St. Albans", "York (City)")
// that must not block a match.
func NormalizeBranch(s string) string {
	return nonAlphanumericRegex.ReplaceAllString(strings.ToLower(s), "")
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
