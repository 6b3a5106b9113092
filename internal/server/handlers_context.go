package server

import (
	"net/http"
	"strconv"
)

const maxContextDocsLimit = 20

// ContextResponse is the assembled prompt context for a query
type ContextResponse struct {
	Route     string            `json:"route"`
	Documents []ContextDocument `json:"documents"`
	Context   string            `json:"context"`
}

// handleContext shows which reference documents a query selects and the rendered context
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	maxDocs := s.maxContextDocs
	if raw := r.URL.Query().Get("max"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxContextDocsLimit {
			s.failure(w, r, &ErrValidation{Field: "max", Message: "must be an integer between 1 and 20"})
			return
		}
		maxDocs = n
	}

	docs, route := s.assembler.Select(r.Context(), query, maxDocs)
	s.jsonResponse(w, http.StatusOK, ContextResponse{
		Route:     route,
		Documents: contextDocuments(docs),
		Context:   s.assembler.Render(docs),
	})
}
