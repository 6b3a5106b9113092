package ingestion

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/alignment-checker/internal/types"
)

// noiseSelector matches page chrome that never belongs in a document body
const noiseSelector = "nav, footer, header, script, style, noscript, form, aside, .share, .social, .breadcrumb, .cookie-banner, .related"

// contentSelectors are tried in order to find the speech or article body
var contentSelectors = []string{
	"article",
	"main",
	".speech",
	".transcript",
	".content",
	"#content",
}

// blockSelector lists the elements that become separate paragraphs
const blockSelector = "h1, h2, h3, h4, p, li, blockquote"

// dateFormats are the layouts accepted in <time datetime> and date meta tags
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// ParseHTML extracts a reference document from an HTML page.
// ID and Kind are left for the caller to set.
func ParseHTML(r io.Reader) (*types.ReferenceDocument, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	out := &types.ReferenceDocument{
		Title:     pageTitle(doc),
		Summary:   metaContent(doc, `meta[name="description"]`, `meta[property="og:description"]`),
		SourceURL: metaContent(doc, `link[rel="canonical"]`, `meta[property="og:url"]`),
	}
	if author := metaContent(doc, `meta[name="author"]`); author != "" {
		out.Authors = []string{author}
	}
	out.Date = pageDate(doc)

	doc.Find(noiseSelector).Remove()

	var body *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			body = sel.First()
			break
		}
	}
	if body == nil {
		body = doc.Find("body")
	}

	out.Body = CleanText(blockText(body))
	if out.Body == "" {
		return nil, fmt.Errorf("no text content found")
	}
	return out, nil
}

// blockText joins block-level elements with blank lines, falling back to the raw text
func blockText(sel *goquery.Selection) string {
	blocks := sel.Find(blockSelector)
	if blocks.Length() == 0 {
		return sel.Text()
	}

	parts := make([]string, 0, blocks.Length())
	blocks.Each(func(_ int, s *goquery.Selection) {
		// Nested blocks (a <p> inside a <li>) are reported by their ancestor
		if s.ParentsFiltered(blockSelector).Length() > 0 {
			return
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n\n")
}

func pageTitle(doc *goquery.Document) string {
	if title := metaContent(doc, `meta[property="og:title"]`); title != "" {
		return title
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return CleanText(h1)
	}
	return CleanText(doc.Find("title").First().Text())
}

func pageDate(doc *goquery.Document) time.Time {
	candidates := []string{
		metaContent(doc, `meta[property="article:published_time"]`, `meta[name="date"]`),
	}
	if dt, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		candidates = append(candidates, dt)
	}
	candidates = append(candidates, strings.TrimSpace(doc.Find("time").First().Text()))

	for _, c := range candidates {
		if t, ok := parseDate(c); ok {
			return t
		}
	}
	return time.Time{}
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// metaContent returns the first non-empty content or href among the selectors
func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		for _, attr := range []string{"content", "href"} {
			if v, ok := sel.Attr(attr); ok && strings.TrimSpace(v) != "" {
				return CleanText(v)
			}
		}
	}
	return ""
}
