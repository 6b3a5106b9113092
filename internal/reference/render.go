package reference

import (
	"fmt"
	"strings"

	"github.com/jonathan/alignment-checker/internal/types"
)

// Render formats documents with a fixed template and joins them with a visible separator
func Render(docs []types.ReferenceDocument, excerptChars int) string {
	if len(docs) == 0 {
		return ""
	}
	if excerptChars <= 0 {
		excerptChars = DefaultExcerptChars
	}

	blocks := make([]string, 0, len(docs))
	for _, doc := range docs {
		blocks = append(blocks, renderDocument(doc, excerptChars))
	}
	return strings.Join(blocks, documentSeparator)
}

func renderDocument(doc types.ReferenceDocument, excerptChars int) string {
	date := undatedLabel
	if !doc.Date.IsZero() {
		date = doc.Date.Format("2006-01-02")
	}

	source := doc.Summary
	if strings.TrimSpace(source) == "" {
		source = doc.Body
	}

	return fmt.Sprintf("Title: %s\nDate: %s\nExcerpt: %s", doc.Title, date, Excerpt(source, excerptChars))
}

// Excerpt collapses whitespace and cuts text to at most n runes, marking the cut with "..."
func Excerpt(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return strings.TrimSpace(string(runes[:n])) + "..."
}
