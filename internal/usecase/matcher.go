package usecase

import (
	"strings"

	"go.uber.org/zap"
)

// MatchConfig holds configuration for the matcher
type MatchConfig struct {
	EnableDebugLogging bool
	Logger             *zap.Logger
}

// Matcher decides whether a search result is the user's brand.
//
// A title matches when its normalized form contains both the normalized brand
// and the normalized branch as substrings. There is no fuzzy matching, so short
// or generic branch tokens can produce false positives.
type Matcher struct {
	enableDebugLogging bool
	logger             *zap.Logger
}

// NewMatcher creates a new matcher with the given configuration
func NewMatcher(config MatchConfig) *Matcher {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		enableDebugLogging: config.EnableDebugLogging,
		logger:             logger,
	}
}

// Matches normalizes the raw strings and reports whether title is a brand match.
func (m *Matcher) Matches(title, brand, branch string) bool {
	return m.match(NormalizeTitle(title), NormalizeBrand(brand), NormalizeBranch(branch))
}

// match works on already normalized tokens
func (m *Matcher) match(normTitle, normBrand, normBranch string) bool {
	matched := IsBrandMatch(normTitle, normBrand, normBranch)
	if m.enableDebugLogging {
		m.logger.Debug("match evaluated",
			zap.String("title", normTitle),
			zap.String("brand", normBrand),
			zap.String("branch", normBranch),
			zap.Bool("matched", matched))
	}
	return matched
}

// IsBrandMatch reports whether normTitle contains both normBrand and normBranch.
// All three arguments must already be normalized.
func IsBrandMatch(normTitle, normBrand, normBranch string) bool {
	return strings.Contains(normTitle, normBrand) && strings.Contains(normTitle, normBranch)
}
