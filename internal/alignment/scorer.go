// Package alignment scores candidate text against a reference style profile.
//
// Scoring is a pure function of the text and the profile: keyword categories are
// matched by case-insensitive substring, combined with length and density bonuses,
// and reported as a 0-100 overall score with per-category sub-scores.
package alignment

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/alignment-checker/internal/types"
)

// Category caps and multipliers
const (
	maxCoreScore        = 50.0
	coreMultiplier      = 60.0
	maxSecondaryScore   = 30.0
	secondaryMultiplier = 40.0
	maxMissionScore     = 20.0
	pointsPerMission    = 10.0
	maxLengthScore      = 10.0
	maxDensityScore     = 10.0
	densityMultiplier   = 1000.0
)

// Length bands, in words
const (
	missionStatementMaxWords = 100
	missionStatementMinHits  = 2
	shortBandMinWords        = 50
	shortBandMaxWords        = 200
	idealBandMaxWords        = 800
	decayWordsPerPoint       = 200.0
	shortBandScore           = 5.0
)

// options configures a scoring call
type options struct {
	minChars int
}

// Option customizes Score
type Option func(*options)

// WithMinChars rejects texts shorter than n characters.
// Zero keeps the default behavior of rejecting only empty text.
func WithMinChars(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.minChars = n
		}
	}
}

// CheckInput rejects empty text and, when minChars is positive, text whose trimmed
// length in runes is below minChars.
func CheckInput(text string, minChars int) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &InvalidInputError{Reason: "text is required"}
	}
	if n := utf8.RuneCountInString(trimmed); minChars > 0 && n < minChars {
		return &InvalidInputError{
			Reason:   "text is too short",
			Length:   n,
			MinChars: minChars,
		}
	}
	return nil
}

// Score computes the alignment breakdown for text against profile.
// It returns *InvalidInputError for empty or undersized text and
// *ReferenceUnavailableError when the profile is missing or unusable.
func Score(text string, profile *types.StyleProfile, opts ...Option) (*types.ScoreBreakdown, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if err := checkProfile(profile); err != nil {
		return nil, err
	}

	if err := CheckInput(text, o.minChars); err != nil {
		return nil, err
	}
	charCount := utf8.RuneCountInString(text)

	wordCount := len(strings.Fields(text))
	textLower := strings.ToLower(text)

	b := &types.ScoreBreakdown{
		WordCount:        wordCount,
		CharCount:        charCount,
		CoreMatches:      matchTerms(textLower, profile.CoreTerms),
		SecondaryMatches: matchTerms(textLower, profile.SecondaryTerms),
		MissionMatches:   matchTerms(textLower, profile.MissionPhrases),
	}

	b.CoreScore = math.Min(maxCoreScore, float64(len(b.CoreMatches))/float64(len(profile.CoreTerms))*coreMultiplier)
	b.SecondaryScore = math.Min(maxSecondaryScore, float64(len(b.SecondaryMatches))/float64(len(profile.SecondaryTerms))*secondaryMultiplier)
	if len(b.MissionMatches) > 0 {
		b.MissionScore = math.Min(maxMissionScore, float64(len(b.MissionMatches))*pointsPerMission)
	}

	b.LengthScore, b.MissionStatement = lengthScore(wordCount, len(b.MissionMatches))
	b.DensityScore = densityScore(b.TotalMatches(), wordCount)

	total := b.CoreScore + b.SecondaryScore + b.MissionScore + b.LengthScore + b.DensityScore
	b.OverallScore = int(math.Round(clamp(total, 0, 100)))

	b.Feedback = buildFeedback(b, profile)

	return b, nil
}

// checkProfile verifies the profile has the non-empty divisor lists scoring needs
func checkProfile(profile *types.StyleProfile) error {
	if profile == nil {
		return &ReferenceUnavailableError{Resource: "style profile", Message: "no profile loaded"}
	}
	if len(profile.CoreTerms) == 0 || len(profile.SecondaryTerms) == 0 {
		return &ReferenceUnavailableError{
			Resource: "style profile",
			Message:  "profile " + profile.Name + " has no core or secondary terms",
		}
	}
	return nil
}

// matchTerms returns the terms (in profile order) that appear in textLower as literal substrings.
// No word-boundary checks: "growth" also matches inside "outgrowth".
func matchTerms(textLower string, terms []string) []string {
	matched := make([]string, 0)
	for _, term := range terms {
		needle := strings.ToLower(term)
		if needle == "" {
			continue
		}
		if strings.Contains(textLower, needle) {
			matched = append(matched, term)
		}
	}
	return matched
}

// lengthScore applies the length bands in priority order, first match wins.
// The second return value reports whether the mission-statement band fired.
func lengthScore(wordCount, missionHits int) (float64, bool) {
	switch {
	case wordCount <= missionStatementMaxWords && missionHits >= missionStatementMinHits:
		return maxLengthScore, true
	case wordCount >= shortBandMinWords && wordCount <= shortBandMaxWords:
		return shortBandScore, false
	case wordCount > shortBandMaxWords && wordCount <= idealBandMaxWords:
		return maxLengthScore, false
	case wordCount > idealBandMaxWords:
		return math.Max(0, maxLengthScore-float64(wordCount-idealBandMaxWords)/decayWordsPerPoint), false
	default:
		return 0, false
	}
}

// densityScore rewards matches per word; wordCount is always positive here
func densityScore(totalMatches, wordCount int) float64 {
	if wordCount == 0 {
		return 0
	}
	density := float64(totalMatches) / float64(wordCount)
	return math.Min(maxDensityScore, density*densityMultiplier)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
