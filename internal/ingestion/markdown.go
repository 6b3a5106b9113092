package ingestion

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/alignment-checker/internal/types"
)

const frontMatterDelimiter = "---"

// ParseMarkdown reads a Markdown or plain-text document with optional YAML front matter.
// Front matter uses the corpus field names (title, kind, date, sectors...). Without a
// title the first heading is used.
func ParseMarkdown(data []byte) (*types.ReferenceDocument, error) {
	doc := &types.ReferenceDocument{}

	body, meta, err := splitFrontMatter(data)
	if err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := yaml.Unmarshal(meta, doc); err != nil {
			return nil, fmt.Errorf("failed to parse front matter: %w", err)
		}
	}

	text := CleanText(string(body))
	if doc.Title == "" {
		doc.Title = firstHeading(text)
	}
	doc.Body = stripMarkdown(text)
	if strings.TrimSpace(doc.Body) == "" {
		return nil, fmt.Errorf("no text content found")
	}
	return doc, nil
}

// splitFrontMatter separates a leading "---" delimited YAML block from the body
func splitFrontMatter(data []byte) (body, meta []byte, err error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	trimmed := bytes.TrimLeft(data, "\r\n")
	if !bytes.HasPrefix(trimmed, []byte(frontMatterDelimiter+"\n")) &&
		!bytes.HasPrefix(trimmed, []byte(frontMatterDelimiter+"\r\n")) {
		return data, nil, nil
	}

	rest := trimmed[bytes.IndexByte(trimmed, '\n')+1:]
	lines := bytes.SplitAfter(rest, []byte("\n"))
	offset := 0
	for _, line := range lines {
		offset += len(line)
		if string(bytes.TrimSpace(line)) == frontMatterDelimiter {
			return rest[offset:], rest[:offset-len(line)], nil
		}
	}
	return nil, nil, fmt.Errorf("front matter is not terminated")
}

func firstHeading(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "#") {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}
