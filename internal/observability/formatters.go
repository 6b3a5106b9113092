// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/alignment-checker/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 64
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for the score and context commands
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintBreakdown outputs the sub-scores, matched terms and feedback of a score.
func (p *Printer) PrintBreakdown(profileName string, b *types.ScoreBreakdown) {
	if b == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Profile:    %s\n", profileName))
	sb.WriteString(fmt.Sprintf("Overall:    %d/100\n", b.OverallScore))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Core        %4.1f/50  %s\n", b.CoreScore, listTerms(b.CoreMatches)))
	sb.WriteString(fmt.Sprintf("Secondary   %4.1f/30  %s\n", b.SecondaryScore, listTerms(b.SecondaryMatches)))
	sb.WriteString(fmt.Sprintf("Mission     %4.1f/20  %s\n", b.MissionScore, listTerms(b.MissionMatches)))
	sb.WriteString(fmt.Sprintf("Length      %4.1f/10  %d words\n", b.LengthScore, b.WordCount))
	sb.WriteString(fmt.Sprintf("Density     %4.1f/10  %d matches", b.DensityScore, b.TotalMatches()))

	p.printBox("ALIGNMENT SCORE", sb.String())
	fmt.Fprintf(p.out, "%s\n", b.Feedback) //nolint:errcheck
}

// PrintDocuments outputs the documents a context query selected and the route that chose them.
func (p *Printer) PrintDocuments(route string, docs []types.ReferenceDocument) {
	if len(docs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Route: %s\n\n", route))

	count := min(len(docs), maxItemsToShow)
	for i := 0; i < count; i++ {
		doc := docs[i]
		date := "undated"
		if !doc.Date.IsZero() {
			date = doc.Date.Format("2006-01-02")
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, doc.Title))
		sb.WriteString(fmt.Sprintf("    %s · %s · %s", doc.ID, doc.Kind, date))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(docs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n\n... and %d more documents", len(docs)-maxItemsToShow))
	}

	p.printBox("REFERENCE CONTEXT", sb.String())
}

// listTerms joins up to maxItemsToShow terms
func listTerms(terms []string) string {
	if len(terms) == 0 {
		return "-"
	}
	if len(terms) > maxItemsToShow {
		return strings.Join(terms[:maxItemsToShow], ", ") + fmt.Sprintf(" +%d", len(terms)-maxItemsToShow)
	}
	return strings.Join(terms, ", ")
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
