package alignment

import (
	"fmt"
	"strings"

	"github.com/jonathan/alignment-checker/internal/types"
)

// Feedback tier thresholds on the overall score
const (
	excellentThreshold = 85
	goodThreshold      = 70
	moderateThreshold  = 50

	// maxCitedTerms caps how many matched terms a feedback line lists
	maxCitedTerms = 5
	// maxSuggestedTerms caps how many unmatched core terms are suggested
	maxSuggestedTerms = 3
)

// buildFeedback selects the feedback template for a finished breakdown
func buildFeedback(b *types.ScoreBreakdown, profile *types.StyleProfile) string {
	if b.MissionStatement {
		return fmt.Sprintf(
			"Strong mission statement! In %d words you used %d key mission phrases: %s. Short, focused statements like this carry the core message well.",
			b.WordCount, len(b.MissionMatches), joinTerms(b.MissionMatches, maxCitedTerms))
	}

	matched := b.MatchedKeywords()
	suggestions := unmatchedTerms(profile.CoreTerms, b.CoreMatches, maxSuggestedTerms)

	switch {
	case b.OverallScore >= excellentThreshold:
		return fmt.Sprintf(
			"Excellent alignment! The text reflects the target voice closely, using key terms such as %s.",
			joinTerms(matched, maxCitedTerms))
	case b.OverallScore >= goodThreshold:
		msg := fmt.Sprintf("Good alignment. You are using relevant vocabulary: %s.", joinTerms(matched, maxCitedTerms))
		if len(b.MissionMatches) == 0 {
			msg += " Adding a mission-level phrase would strengthen the message."
		}
		return msg
	case b.OverallScore >= moderateThreshold:
		msg := fmt.Sprintf("Moderate alignment. Terms found: %s.", joinTerms(matched, maxCitedTerms))
		if len(suggestions) > 0 {
			msg += fmt.Sprintf(" Consider emphasizing core themes such as %s.", strings.Join(suggestions, ", "))
		}
		return msg
	default:
		var sb strings.Builder
		sb.WriteString("Low alignment. ")
		if len(matched) > 0 {
			sb.WriteString(fmt.Sprintf("Only a few target terms appear (%s). ", joinTerms(matched, maxCitedTerms)))
		} else {
			sb.WriteString("None of the target vocabulary appears. ")
		}
		if len(suggestions) > 0 {
			sb.WriteString(fmt.Sprintf("Try incorporating core themes such as %s.", strings.Join(suggestions, ", ")))
		}
		return strings.TrimSpace(sb.String())
	}
}

// joinTerms lists up to limit terms, comma separated
func joinTerms(terms []string, limit int) string {
	if len(terms) > limit {
		terms = terms[:limit]
	}
	return strings.Join(terms, ", ")
}

// unmatchedTerms returns up to limit terms from all that are not in matched
func unmatchedTerms(all, matched []string, limit int) []string {
	seen := make(map[string]bool, len(matched))
	for _, m := range matched {
		seen[m] = true
	}

	out := make([]string, 0, limit)
	for _, term := range all {
		if len(out) == limit {
			break
		}
		if !seen[term] {
			out = append(out, term)
		}
	}
	return out
}
