package types

import "time"

// Document kinds used by the reference corpus
const (
	KindSpeech    = "speech"
	KindDocument  = "document"
	KindPriority  = "priority"
	KindBiography = "biography"
	KindStrategy  = "strategy"
)

// ReferenceDocument is a read-only record from the reference corpus
// (speeches, strategy papers, priorities, biographies).
type ReferenceDocument struct {
	ID          string    `json:"id" yaml:"id"`
	Kind        string    `json:"kind" yaml:"kind"`
	Title       string    `json:"title" yaml:"title"`
	Date        time.Time `json:"date,omitempty" yaml:"date,omitempty"`
	Summary     string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	Body        string    `json:"body,omitempty" yaml:"body,omitempty"`
	Authors     []string  `json:"authors,omitempty" yaml:"authors,omitempty"`
	Sectors     []string  `json:"sectors,omitempty" yaml:"sectors,omitempty"`
	Initiatives []string  `json:"initiatives,omitempty" yaml:"initiatives,omitempty"`
	SourceURL   string    `json:"source_url,omitempty" yaml:"source_url,omitempty"`
}

// DocumentFilter narrows a corpus listing. Zero values match everything.
type DocumentFilter struct {
	// Text is matched case-insensitively against title, summary and body
	Text       string
	Kind       string
	Sector     string
	Initiative string
	Author     string
	// NewestFirst orders by date descending; otherwise store order is kept
	NewestFirst bool
	Limit       int
}
