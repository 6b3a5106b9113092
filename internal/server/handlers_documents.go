package server

import (
	"net/http"
	"strconv"

	"github.com/jonathan/alignment-checker/internal/types"
)

const (
	defaultDocumentLimit = 50
	maxDocumentLimit     = 200
)

// handleListDocuments lists reference documents matching the query filters
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if s.documents == nil {
		s.failure(w, r, &ErrUnavailable{Feature: "reference corpus"})
		return
	}

	q := r.URL.Query()
	filter := types.DocumentFilter{
		Text:        q.Get("q"),
		Kind:        q.Get("kind"),
		Sector:      q.Get("sector"),
		Initiative:  q.Get("initiative"),
		Author:      q.Get("author"),
		NewestFirst: q.Get("sort") != "store",
		Limit:       defaultDocumentLimit,
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.failure(w, r, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		filter.Limit = min(n, maxDocumentLimit)
	}

	docs, err := s.documents.ListDocuments(r.Context(), filter)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if docs == nil {
		docs = []types.ReferenceDocument{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

// handleGetDocument returns a single reference document
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	if s.documents == nil {
		s.failure(w, r, &ErrUnavailable{Feature: "reference corpus"})
		return
	}

	id := r.PathValue("id")
	doc, err := s.documents.GetDocument(r.Context(), id)
	if err != nil {
		s.failure(w, r, err)
		return
	}
	if doc == nil {
		s.errorResponse(w, http.StatusNotFound, "document not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, doc)
}
