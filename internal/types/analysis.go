package types

// LLMAnalysis is the structured analysis returned by the completion model
type LLMAnalysis struct {
	AlignmentScore    int      `json:"alignment_score"`
	ToneAssessment    string   `json:"tone_assessment"`
	Strengths         []string `json:"strengths"`
	Improvements      []string `json:"improvements"`
	SuggestedRevision string   `json:"suggested_revision,omitempty"`
}
