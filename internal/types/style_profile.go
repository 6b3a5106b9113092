// Package types provides type definitions for structured data used throughout the alignment-checker system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
)

// DefaultProfileName is the persona used when a request does not name one
const DefaultProfileName = "default"

// StyleProfile is the reference vocabulary a candidate text is scored against.
// Terms are matched case-insensitively as literal substrings of the text.
type StyleProfile struct {
	Name           string   `json:"name" yaml:"name" validate:"required"`
	Description    string   `json:"description,omitempty" yaml:"description,omitempty"`
	CoreTerms      []string `json:"core_terms" yaml:"core_terms" validate:"min=1,dive,required"`
	SecondaryTerms []string `json:"secondary_terms" yaml:"secondary_terms" validate:"min=1,dive,required"`
	MissionPhrases []string `json:"mission_phrases" yaml:"mission_phrases" validate:"dive,required"`
}

// Validate checks that the profile can be used for scoring.
// Core and secondary lists must be non-empty since their sizes are divisors.
func (p *StyleProfile) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}
