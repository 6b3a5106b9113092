package alignment

import "fmt"

// InvalidInputError is returned when the candidate text cannot be scored.
// It is raised before any scoring work starts.
type InvalidInputError struct {
	Reason   string
	Length   int
	MinChars int
}

func (e *InvalidInputError) Error() string {
	if e.MinChars > 0 {
		return fmt.Sprintf("invalid input: %s (got %d characters, need at least %d)", e.Reason, e.Length, e.MinChars)
	}
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// ReferenceUnavailableError indicates the style profile or reference corpus could not be loaded.
// For the scorer this is a configuration failure, not a per-request input error.
type ReferenceUnavailableError struct {
	Resource string
	Message  string
	Cause    error
}

func (e *ReferenceUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s unavailable: %s: %v", e.Resource, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s unavailable: %s", e.Resource, e.Message)
}

func (e *ReferenceUnavailableError) Unwrap() error {
	return e.Cause
}
