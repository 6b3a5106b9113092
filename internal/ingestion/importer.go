package ingestion

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/alignment-checker/internal/fetch"
	"github.com/jonathan/alignment-checker/internal/reference"
	"github.com/jonathan/alignment-checker/internal/types"
)

// Sink receives imported documents, typically the Postgres store
type Sink interface {
	UpsertDocument(ctx context.Context, doc *types.ReferenceDocument) error
}

// Result summarizes an import run
type Result struct {
	Documents []types.ReferenceDocument
	Skipped   []string
}

// Importer walks a directory of source files and turns them into reference documents
type Importer struct {
	kind      string
	logger    *zap.Logger
	fetchOpts *fetch.Options
}

// ImporterOption configures an Importer
type ImporterOption func(*Importer)

// WithDefaultKind sets the kind for files that do not declare one
func WithDefaultKind(kind string) ImporterOption {
	return func(i *Importer) {
		if kind != "" {
			i.kind = kind
		}
	}
}

// WithLogger sets the logger used for per-file warnings
func WithLogger(logger *zap.Logger) ImporterOption {
	return func(i *Importer) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// WithFetchOptions configures how ImportURL retrieves pages
func WithFetchOptions(opts *fetch.Options) ImporterOption {
	return func(i *Importer) {
		i.fetchOpts = opts
	}
}

// NewImporter creates an importer
func NewImporter(opts ...ImporterOption) *Importer {
	i := &Importer{kind: types.KindDocument, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportFile converts one file. JSON and YAML files hold corpus records and may
// yield several documents.
func (i *Importer) ImportFile(path string) ([]types.ReferenceDocument, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".yaml", ".yml":
		docs, err := reference.LoadCorpusFile(path)
		if err != nil {
			return nil, err
		}
		for j := range docs {
			i.finish(&docs[j], path)
		}
		return docs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var doc *types.ReferenceDocument
	switch ext {
	case ".html", ".htm":
		doc, err = ParseHTML(bytes.NewReader(data))
	case ".md", ".markdown", ".txt":
		doc, err = ParseMarkdown(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	i.finish(doc, path)
	return []types.ReferenceDocument{*doc}, nil
}

// ImportDir converts every supported file under dir. Unsupported or unreadable files
// are skipped and reported; documents with identical bodies are imported once.
func (i *Importer) ImportDir(ctx context.Context, dir string) (*Result, error) {
	result := &Result{}
	seen := make(map[string]string)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		docs, err := i.ImportFile(path)
		if err != nil {
			i.logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
			result.Skipped = append(result.Skipped, path)
			return nil
		}

		for _, doc := range docs {
			hash := contentHash(doc.Body)
			if first, dup := seen[hash]; dup && doc.Body != "" {
				i.logger.Info("skipping duplicate document",
					zap.String("id", doc.ID), zap.String("duplicate_of", first))
				continue
			}
			seen[hash] = doc.ID
			result.Documents = append(result.Documents, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to import %s: %w", dir, err)
	}
	return result, nil
}

// Store upserts documents into sink, stopping at the first failure
func Store(ctx context.Context, sink Sink, docs []types.ReferenceDocument) (int, error) {
	for n := range docs {
		if err := sink.UpsertDocument(ctx, &docs[n]); err != nil {
			return n, fmt.Errorf("failed to store document %s: %w", docs[n].ID, err)
		}
	}
	return len(docs), nil
}

// finish fills the fields a source file may leave out
func (i *Importer) finish(doc *types.ReferenceDocument, path string) {
	if doc.ID == "" {
		doc.ID = Slugify(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	}
	if doc.Kind == "" {
		doc.Kind = i.kind
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	doc.Title = CleanText(doc.Title)
	doc.Summary = CleanText(doc.Summary)
	doc.Body = CleanText(doc.Body)
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a file name or title into a lowercase, dash separated ID
func Slugify(s string) string {
	s = strings.ToLower(CleanText(s))
	return strings.Trim(nonSlug.ReplaceAllString(s, "-"), "-")
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
