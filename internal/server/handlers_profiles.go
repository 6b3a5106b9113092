package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/alignment-checker/internal/profile"
	"github.com/jonathan/alignment-checker/internal/types"
)

// handleListProfiles lists the registered style profiles
func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	if s.profiles == nil {
		s.jsonResponse(w, http.StatusOK, map[string]any{"profiles": []*types.StyleProfile{}})
		return
	}

	names := s.profiles.Names()
	profiles := make([]*types.StyleProfile, 0, len(names))
	for _, name := range names {
		p, err := s.profiles.Get(name)
		if err != nil {
			s.failure(w, r, err)
			return
		}
		profiles = append(profiles, p)
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"profiles": profiles})
}

// handleGetProfile returns one style profile by name
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if s.profiles == nil {
		s.errorResponse(w, http.StatusNotFound, "style profile not found: "+name)
		return
	}

	p, err := s.profiles.Get(name)
	if err != nil {
		var notFound *profile.NotFoundError
		if errors.As(err, &notFound) {
			s.errorResponse(w, http.StatusNotFound, err.Error())
			return
		}
		s.failure(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, p)
}
