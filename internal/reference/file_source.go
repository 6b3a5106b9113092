package reference

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/alignment-checker/internal/types"
)

// corpusFile is the on-disk layout of a reference corpus (YAML or JSON)
type corpusFile struct {
	Documents []types.ReferenceDocument `yaml:"documents"`
}

// FileSource serves a corpus loaded from a YAML or JSON file.
// Each load produces an immutable snapshot; Watch swaps in a new snapshot when the file changes,
// so a single ListDocuments call never sees a partially loaded corpus.
type FileSource struct {
	path     string
	snapshot atomic.Pointer[[]types.ReferenceDocument]
	logger   *zap.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewFileSource loads path and returns a source over its documents
func NewFileSource(path string, logger *zap.Logger) (*FileSource, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fs := &FileSource{path: path, logger: logger}
	if err := fs.Reload(); err != nil {
		return nil, err
	}
	return fs, nil
}

// LoadCorpusFile parses a corpus file without creating a source
func LoadCorpusFile(path string) ([]types.ReferenceDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file %s: %w", path, err)
	}

	var f corpusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse corpus file %s: %w", path, err)
	}
	for i, doc := range f.Documents {
		if doc.ID == "" {
			return nil, fmt.Errorf("corpus file %s: document %d has no id", path, i)
		}
	}
	return f.Documents, nil
}

// Reload re-reads the corpus file. On failure the previous snapshot is kept.
func (fs *FileSource) Reload() error {
	docs, err := LoadCorpusFile(fs.path)
	if err != nil {
		return err
	}
	fs.snapshot.Store(&docs)
	return nil
}

// Len returns the number of documents in the current snapshot
func (fs *FileSource) Len() int {
	docs := fs.snapshot.Load()
	if docs == nil {
		return 0
	}
	return len(*docs)
}

// ListDocuments implements Source
func (fs *FileSource) ListDocuments(_ context.Context, filter types.DocumentFilter) ([]types.ReferenceDocument, error) {
	docs := fs.snapshot.Load()
	if docs == nil {
		return []types.ReferenceDocument{}, nil
	}
	return ApplyFilter(*docs, filter), nil
}

// GetDocument implements Store
func (fs *FileSource) GetDocument(_ context.Context, id string) (*types.ReferenceDocument, error) {
	docs := fs.snapshot.Load()
	if docs == nil {
		return nil, nil
	}
	return findDocument(*docs, id), nil
}

// Watch reloads the corpus whenever the file is written or replaced, until ctx is done or Close is called.
// The parent directory is watched so editors that save by rename are picked up.
func (fs *FileSource) Watch(ctx context.Context) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.watcher != nil {
		return fmt.Errorf("already watching %s", fs.path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(fs.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", fs.path, err)
	}

	fs.watcher = watcher
	fs.done = make(chan struct{})
	go fs.watchLoop(ctx, watcher, fs.done)
	return nil
}

func (fs *FileSource) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, done chan struct{}) {
	defer close(done)
	target := filepath.Clean(fs.path)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := fs.Reload(); err != nil {
				fs.logger.Warn("corpus reload failed, keeping previous snapshot",
					zap.String("path", fs.path), zap.Error(err))
				continue
			}
			fs.logger.Info("corpus reloaded", zap.String("path", fs.path), zap.Int("documents", fs.Len()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			fs.logger.Warn("corpus watcher error", zap.Error(err))
		}
	}
}

// Close stops watching and waits for the watch goroutine to exit
func (fs *FileSource) Close() error {
	fs.mu.Lock()
	watcher, done := fs.watcher, fs.done
	fs.watcher, fs.done = nil, nil
	fs.mu.Unlock()

	if watcher == nil {
		return nil
	}
	err := watcher.Close()
	<-done
	return err
}
