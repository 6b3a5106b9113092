package profile

import "github.com/jonathan/alignment-checker/internal/types"

// Default returns the built-in institutional voice profile.
// Used when no profile file or database table is configured.
func Default() *types.StyleProfile {
	return &types.StyleProfile{
		Name:        types.DefaultProfileName,
		Description: "Institutional leadership voice: results-driven, partnership-oriented, mission-focused",
		CoreTerms: []string{
			"partnership",
			"results",
			"accountability",
			"impact",
			"innovation",
			"transparency",
			"collaboration",
			"sustainable",
			"evidence",
		},
		SecondaryTerms: []string{
			"together",
			"direct",
			"growth",
			"resilience",
			"inclusion",
			"opportunity",
			"private sector",
			"climate",
			"women",
			"youth",
		},
		MissionPhrases: []string{
			"world free of poverty",
			"livable planet",
			"job creation",
			"shared prosperity",
			"end extreme poverty",
		},
	}
}
