// Package profile loads and serves the style profiles (personas) used for alignment scoring.
package profile

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonathan/alignment-checker/internal/alignment"
	"github.com/jonathan/alignment-checker/internal/types"
)

// NotFoundError indicates no profile is registered under the requested name
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("style profile not found: %s", e.Name)
}

// Store lists style profiles from a backing store such as Postgres
type Store interface {
	ListStyleProfiles(ctx context.Context) ([]*types.StyleProfile, error)
}

// Registry is an immutable set of named profiles, built once at startup.
// Safe for concurrent reads.
type Registry struct {
	profiles map[string]*types.StyleProfile
}

// NewRegistry builds a registry. Later profiles replace earlier ones with the same name,
// so callers list the built-in default first and overrides after it.
func NewRegistry(profiles ...*types.StyleProfile) (*Registry, error) {
	r := &Registry{profiles: make(map[string]*types.StyleProfile, len(profiles))}
	for _, p := range profiles {
		if p == nil {
			continue
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q is invalid: %w", p.Name, err)
		}
		r.profiles[p.Name] = p
	}
	return r, nil
}

// LoadRegistry builds a registry from the built-in default, an optional profile file
// and an optional store, in that order of precedence (store wins).
func LoadRegistry(ctx context.Context, path string, store Store) (*Registry, error) {
	profiles := []*types.StyleProfile{Default()}

	if path != "" {
		fromFile, err := LoadFile(path)
		if err != nil {
			return nil, &alignment.ReferenceUnavailableError{
				Resource: "style profile",
				Message:  "failed to load profile file",
				Cause:    err,
			}
		}
		profiles = append(profiles, fromFile...)
	}

	if store != nil {
		fromStore, err := store.ListStyleProfiles(ctx)
		if err != nil {
			return nil, &alignment.ReferenceUnavailableError{
				Resource: "style profile",
				Message:  "failed to list profiles from store",
				Cause:    err,
			}
		}
		profiles = append(profiles, fromStore...)
	}

	return NewRegistry(profiles...)
}

// Get returns the named profile; an empty name selects the default persona
func (r *Registry) Get(name string) (*types.StyleProfile, error) {
	if name == "" {
		name = types.DefaultProfileName
	}
	p, ok := r.profiles[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return p, nil
}

// Names returns the registered profile names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
