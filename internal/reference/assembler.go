package reference

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/alignment-checker/internal/types"
)

const (
	// DefaultMaxDocs is used when a caller passes a non-positive document budget
	DefaultMaxDocs = 3
	// DefaultExcerptChars is the excerpt length, in runes, rendered per document
	DefaultExcerptChars = 500

	// RouteFullText names the full-text fallback branch
	RouteFullText = "fulltext"

	documentSeparator = "\n\n---\n\n"
	undatedLabel      = "undated"
)

// Route maps query keywords to a document filter.
// Routes are evaluated in order; the first whose keyword appears in the query wins.
type Route struct {
	Name     string
	Keywords []string
	Filter   types.DocumentFilter
}

// Matches reports whether any keyword appears in the lower-cased query
func (r Route) Matches(queryLower string) bool {
	for _, kw := range r.Keywords {
		if kw != "" && strings.Contains(queryLower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// DefaultRoutes returns the topic routes in tie-break order
func DefaultRoutes() []Route {
	return []Route{
		{
			Name:     "climate",
			Keywords: []string{"climate", "environment"},
			Filter:   types.DocumentFilter{Sector: "climate"},
		},
		{
			Name:     "leadership",
			Keywords: []string{"leadership", "president"},
			Filter:   types.DocumentFilter{Kind: types.KindBiography},
		},
		{
			Name:     "strategy",
			Keywords: []string{"strategy", "roadmap", "vision"},
			Filter:   types.DocumentFilter{Kind: types.KindStrategy, NewestFirst: true},
		},
		{
			Name:     "development",
			Keywords: []string{"poverty", "development"},
			Filter:   types.DocumentFilter{Sector: "poverty"},
		},
	}
}

// Assembler selects reference documents for a query and renders them as prompt context.
// It never returns an error: an unreachable source degrades to an empty context.
type Assembler struct {
	source       Source
	routes       []Route
	maxDocs      int
	excerptChars int
	logger       *zap.Logger
}

// AssemblerOption configures an Assembler
type AssemblerOption func(*Assembler)

// WithRoutes replaces the default topic routes
func WithRoutes(routes []Route) AssemblerOption {
	return func(a *Assembler) { a.routes = routes }
}

// WithMaxDocs sets the default document budget
func WithMaxDocs(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.maxDocs = n
		}
	}
}

// WithExcerptChars sets the per-document excerpt length in runes
func WithExcerptChars(n int) AssemblerOption {
	return func(a *Assembler) {
		if n > 0 {
			a.excerptChars = n
		}
	}
}

// WithLogger sets the logger used to report degraded lookups
func WithLogger(logger *zap.Logger) AssemblerOption {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAssembler creates an assembler over source
func NewAssembler(source Source, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		source:       source,
		routes:       DefaultRoutes(),
		maxDocs:      DefaultMaxDocs,
		excerptChars: DefaultExcerptChars,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Select returns at most maxDocs documents for query and the name of the branch that produced them.
// A matching topic route is preferred over full-text search; full-text search runs only when no
// route matches or the routed set is empty. The route name is empty when nothing was found.
func (a *Assembler) Select(ctx context.Context, query string, maxDocs int) ([]types.ReferenceDocument, string) {
	if maxDocs <= 0 {
		maxDocs = a.maxDocs
	}

	queryLower := strings.ToLower(strings.TrimSpace(query))
	if queryLower != "" {
		for _, route := range a.routes {
			if !route.Matches(queryLower) {
				continue
			}
			filter := route.Filter
			filter.Limit = maxDocs
			if docs := a.list(ctx, filter); len(docs) > 0 {
				return truncate(docs, maxDocs), route.Name
			}
			// first matching route wins, even when it comes back empty
			break
		}
	}

	docs := a.list(ctx, types.DocumentFilter{Text: strings.TrimSpace(query), Limit: maxDocs})
	if len(docs) == 0 {
		return nil, ""
	}
	return truncate(docs, maxDocs), RouteFullText
}

// Assemble renders the selected documents as a single context string.
// Returns "" when no reference material is available or matches.
func (a *Assembler) Assemble(ctx context.Context, query string, maxDocs int) string {
	docs, _ := a.Select(ctx, query, maxDocs)
	return Render(docs, a.excerptChars)
}

// Render formats already selected documents with the assembler's excerpt length
func (a *Assembler) Render(docs []types.ReferenceDocument) string {
	return Render(docs, a.excerptChars)
}

// MaxDocs returns the default document budget
func (a *Assembler) MaxDocs() int {
	return a.maxDocs
}

// list queries the source, treating any failure as "no documents"
func (a *Assembler) list(ctx context.Context, filter types.DocumentFilter) []types.ReferenceDocument {
	if a.source == nil {
		return nil
	}
	docs, err := a.source.ListDocuments(ctx, filter)
	if err != nil {
		a.logger.Warn("reference corpus unavailable, continuing without context",
			zap.String("kind", filter.Kind),
			zap.String("sector", filter.Sector),
			zap.Error(err))
		return nil
	}
	return docs
}

func truncate(docs []types.ReferenceDocument, n int) []types.ReferenceDocument {
	if len(docs) > n {
		return docs[:n]
	}
	return docs
}
