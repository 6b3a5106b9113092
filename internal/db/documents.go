package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/alignment-checker/internal/types"
)

// -----------------------------------------------------------------------------
// Reference Document Methods
// -----------------------------------------------------------------------------

const documentColumns = `id, kind, title, published_on, summary, body, authors, sectors, initiatives, source_url`

// ListDocuments returns reference documents matching filter.
// Store order is insertion order; NewestFirst orders by publication date.
// Returns an empty slice when nothing matches.
func (db *DB) ListDocuments(ctx context.Context, filter types.DocumentFilter) ([]types.ReferenceDocument, error) {
	query, args := buildDocumentQuery(filter)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reference documents: %w", err)
	}
	defer rows.Close()

	docs := make([]types.ReferenceDocument, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reference documents: %w", err)
	}

	return docs, nil
}

// GetDocument retrieves a reference document by ID, or nil if it does not exist
func (db *DB) GetDocument(ctx context.Context, id string) (*types.ReferenceDocument, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM reference_documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return doc, nil
}

// UpsertDocument inserts or replaces a reference document by ID
func (db *DB) UpsertDocument(ctx context.Context, doc *types.ReferenceDocument) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	kind := doc.Kind
	if kind == "" {
		kind = types.KindDocument
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO reference_documents
		   (id, kind, title, published_on, summary, body, authors, sectors, initiatives, source_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (id) DO UPDATE SET
		   kind = $2, title = $3, published_on = $4, summary = $5, body = $6,
		   authors = $7, sectors = $8, initiatives = $9, source_url = $10, updated_at = NOW()`,
		doc.ID, kind, doc.Title, nullableDate(doc.Date), doc.Summary, doc.Body,
		nonNil(doc.Authors), nonNil(doc.Sectors), nonNil(doc.Initiatives), doc.SourceURL,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reference document %s: %w", doc.ID, err)
	}
	return nil
}

// DeleteDocument removes a reference document
func (db *DB) DeleteDocument(ctx context.Context, id string) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM reference_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reference document %s: %w", id, err)
	}
	return nil
}

// buildDocumentQuery translates a filter into SQL with positional arguments.
// Text matching uses strpos so user input is never interpreted as a LIKE pattern.
func buildDocumentQuery(filter types.DocumentFilter) (string, []any) {
	var where []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Kind != "" {
		where = append(where, "lower(kind) = lower("+arg(filter.Kind)+")")
	}
	if filter.Sector != "" {
		where = append(where, tagClause("sectors", arg(filter.Sector)))
	}
	if filter.Initiative != "" {
		where = append(where, tagClause("initiatives", arg(filter.Initiative)))
	}
	if filter.Author != "" {
		where = append(where, tagClause("authors", arg(filter.Author)))
	}
	if filter.Text != "" {
		p := arg(strings.ToLower(filter.Text))
		where = append(where, fmt.Sprintf(
			"(strpos(lower(title), %[1]s) > 0 OR strpos(lower(summary), %[1]s) > 0 OR strpos(lower(body), %[1]s) > 0)", p))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(documentColumns)
	sb.WriteString(" FROM reference_documents")
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	if filter.NewestFirst {
		sb.WriteString(" ORDER BY published_on DESC NULLS LAST, seq")
	} else {
		sb.WriteString(" ORDER BY seq")
	}
	if filter.Limit > 0 {
		sb.WriteString(" LIMIT ")
		sb.WriteString(arg(filter.Limit))
	}

	return sb.String(), args
}

func tagClause(column, placeholder string) string {
	return fmt.Sprintf("EXISTS (SELECT 1 FROM unnest(%s) AS t(tag) WHERE lower(t.tag) = lower(%s))", column, placeholder)
}

func scanDocument(row pgx.Row) (*types.ReferenceDocument, error) {
	var doc types.ReferenceDocument
	var published *time.Time
	err := row.Scan(&doc.ID, &doc.Kind, &doc.Title, &published, &doc.Summary, &doc.Body,
		&doc.Authors, &doc.Sectors, &doc.Initiatives, &doc.SourceURL)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan reference document: %w", err)
	}
	if published != nil {
		doc.Date = *published
	}
	return &doc, nil
}

func nullableDate(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
