package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/jonathan/alignment-checker/internal/fetch"
	"github.com/jonathan/alignment-checker/internal/types"
)

// IsURL reports whether source names a remote page rather than a local path
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// ImportURL fetches a published page and converts it into a reference document.
// The ID is derived from the last path segment of the URL.
func (i *Importer) ImportURL(ctx context.Context, rawURL string) (*types.ReferenceDocument, error) {
	result, err := fetch.URL(ctx, rawURL, i.fetchOpts)
	if err != nil {
		return nil, err
	}
	if !result.IsHTML() {
		return nil, fmt.Errorf("%s: unsupported content type %q", rawURL, result.ContentType)
	}

	doc, err := ParseHTML(bytes.NewReader(result.Body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rawURL, err)
	}
	if doc.SourceURL == "" {
		doc.SourceURL = rawURL
	}

	i.finish(doc, urlSlugSource(rawURL))
	return doc, nil
}

// urlSlugSource returns a file-like name for the URL so finish can derive an ID
func urlSlugSource(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	name := path.Base(strings.TrimSuffix(u.Path, "/"))
	if name == "." || name == "/" || name == "" {
		return u.Hostname()
	}
	return name
}
