// Package reference selects and formats reference documents (speeches, strategy papers,
// priorities) into a bounded context string for language-model prompts.
package reference

import (
	"context"
	"sort"
	"strings"

	"github.com/jonathan/alignment-checker/internal/types"
)

// Source lists reference documents. Implementations return an empty slice, not an error,
// when nothing matches.
type Source interface {
	ListDocuments(ctx context.Context, filter types.DocumentFilter) ([]types.ReferenceDocument, error)
}

// Store is a Source that can also fetch one document by ID.
// GetDocument returns nil, nil when the ID is unknown.
type Store interface {
	Source
	GetDocument(ctx context.Context, id string) (*types.ReferenceDocument, error)
}

// MemorySource serves a fixed in-memory corpus in store order
type MemorySource struct {
	docs []types.ReferenceDocument
}

// NewMemorySource creates a source over docs. The slice is copied.
func NewMemorySource(docs []types.ReferenceDocument) *MemorySource {
	return &MemorySource{docs: append([]types.ReferenceDocument(nil), docs...)}
}

// ListDocuments implements Source
func (m *MemorySource) ListDocuments(_ context.Context, filter types.DocumentFilter) ([]types.ReferenceDocument, error) {
	return ApplyFilter(m.docs, filter), nil
}

// GetDocument implements Store
func (m *MemorySource) GetDocument(_ context.Context, id string) (*types.ReferenceDocument, error) {
	return findDocument(m.docs, id), nil
}

func findDocument(docs []types.ReferenceDocument, id string) *types.ReferenceDocument {
	for i := range docs {
		if docs[i].ID == id {
			doc := docs[i]
			return &doc
		}
	}
	return nil
}

// ApplyFilter returns the documents matching filter. Ordering is store order unless
// NewestFirst is set, in which case a stable date-descending sort is applied.
func ApplyFilter(docs []types.ReferenceDocument, filter types.DocumentFilter) []types.ReferenceDocument {
	text := strings.ToLower(filter.Text)

	out := make([]types.ReferenceDocument, 0)
	for _, doc := range docs {
		if filter.Kind != "" && !strings.EqualFold(doc.Kind, filter.Kind) {
			continue
		}
		if filter.Sector != "" && !hasTag(doc.Sectors, filter.Sector) {
			continue
		}
		if filter.Initiative != "" && !hasTag(doc.Initiatives, filter.Initiative) {
			continue
		}
		if filter.Author != "" && !hasTag(doc.Authors, filter.Author) {
			continue
		}
		if text != "" && !containsText(doc, text) {
			continue
		}
		out = append(out, doc)
	}

	if filter.NewestFirst {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Date.After(out[j].Date)
		})
	}

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

// containsText reports whether the lower-cased needle appears in title, summary or body
func containsText(doc types.ReferenceDocument, needle string) bool {
	return strings.Contains(strings.ToLower(doc.Title), needle) ||
		strings.Contains(strings.ToLower(doc.Summary), needle) ||
		strings.Contains(strings.ToLower(doc.Body), needle)
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, want) {
			return true
		}
	}
	return false
}
