package types

// ScoreBreakdown is the result of scoring one text against one StyleProfile.
// It is built once per request and never mutated afterwards.
type ScoreBreakdown struct {
	CoreScore      float64 `json:"core_score"`
	SecondaryScore float64 `json:"secondary_score"`
	MissionScore   float64 `json:"mission_score"`
	LengthScore    float64 `json:"length_score"`
	DensityScore   float64 `json:"density_score"`
	OverallScore   int     `json:"overall_score"`

	WordCount int `json:"word_count"`
	CharCount int `json:"char_count"`

	CoreMatches      []string `json:"core_matches"`
	SecondaryMatches []string `json:"secondary_matches"`
	MissionMatches   []string `json:"mission_matches"`

	// MissionStatement is set when the short mission-statement length bonus applied
	MissionStatement bool   `json:"mission_statement"`
	Feedback         string `json:"feedback"`
}

// MatchedKeywords returns every matched term: core, then secondary, then mission.
func (b *ScoreBreakdown) MatchedKeywords() []string {
	out := make([]string, 0, len(b.CoreMatches)+len(b.SecondaryMatches)+len(b.MissionMatches))
	out = append(out, b.CoreMatches...)
	out = append(out, b.SecondaryMatches...)
	out = append(out, b.MissionMatches...)
	return out
}

// TotalMatches returns the number of matched terms across all categories
func (b *ScoreBreakdown) TotalMatches() int {
	return len(b.CoreMatches) + len(b.SecondaryMatches) + len(b.MissionMatches)
}
