package content

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/elyseproject/elyse/internal/config"
	"github.com/elyseproject/elyse/internal/errors"
	"github.com/elyseproject/elyse/internal/frontmatter"
	"github.com/elyseproject/elyse/internal/logfields"
	"github.com/elyseproject/elyse/internal/util/sets"
)

// Loader discovers and parses documents under a content root. A Loader is
// stateless between calls; every Load re-reads the disk.
type Loader struct {
	root          string
	extensions    sets.Set[string]
	includeDrafts bool
	includeFuture bool
	workers       int
	now           func() time.Time
}

// NewLoader creates a loader for the given absolute content root.
func NewLoader(root string, cfg config.ContentConfig, workers int) *Loader {
	exts := sets.New[string]()
	for _, ext := range cfg.Extensions {
		exts.Add(strings.ToLower(ext))
	}
	return &Loader{
		root:          root,
		extensions:    exts,
		includeDrafts: cfg.Drafts,
		includeFuture: cfg.Future,
		workers:       workers,
		now:           time.Now,
	}
}

type fileEntry struct {
	relPath string
	info    fs.FileInfo
}

// Load walks the content root and parses every eligible file. Documents are
// returned sorted by source path, so discovery order never reaches callers.
// Per-file failures are collected and do not stop the walk; the pass
// continues with the remaining documents.
func (l *Loader) Load(ctx context.Context) ([]Document, []error) {
	entries, walkErrs := l.discover()
	if len(entries) == 0 {
		return nil, walkErrs
	}

	docs := make([]*Document, len(entries))
	fileErrs := make([]error, len(entries))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < l.workerCount(len(entries)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				select {
				case <-ctx.Done():
					fileErrs[idx] = ctx.Err()
					continue
				default:
				}
				docs[idx], fileErrs[idx] = l.loadOne(entries[idx])
			}
		}()
	}
	for idx := range entries {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	loaded := make([]Document, 0, len(entries))
	errs := walkErrs
	for idx, doc := range docs {
		if fileErrs[idx] != nil {
			errs = append(errs, fileErrs[idx])
			continue
		}
		if doc == nil {
			continue
		}
		loaded = append(loaded, *doc)
	}

	sort.Slice(loaded, func(i, j int) bool {
		return loaded[i].SourcePath < loaded[j].SourcePath
	})

	slog.Debug("Content loaded",
		logfields.Count(len(loaded)),
		slog.Int("errors", len(errs)))
	return loaded, errs
}

// discover collects eligible files in walk order.
func (l *Loader) discover() ([]fileEntry, []error) {
	var entries []fileEntry
	var errs []error

	walkErr := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == l.root {
				return err
			}
			errs = append(errs, errors.UnreadableSource(l.rel(path), err))
			return nil
		}
		if d.IsDir() {
			if isIgnoredDir(d.Name()) && path != l.root {
				return filepath.SkipDir
			}
			return nil
		}
		if isIgnoredFile(d.Name()) || !l.isContentFile(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			errs = append(errs, errors.UnreadableSource(l.rel(path), err))
			return nil
		}

		entries = append(entries, fileEntry{relPath: l.rel(path), info: info})
		return nil
	})
	if walkErr != nil {
		errs = append(errs, errors.UnreadableSource(l.root, walkErr))
	}

	return entries, errs
}

// loadOne reads and parses a single file. A skipped draft yields (nil, nil).
func (l *Loader) loadOne(entry fileEntry) (*Document, error) {
	raw, err := os.ReadFile(filepath.Join(l.root, entry.relPath))
	if err != nil {
		return nil, errors.UnreadableSource(entry.relPath, err)
	}

	fields, body, err := frontmatter.Parse(raw)
	if err != nil {
		return nil, errors.MalformedMetadata(entry.relPath, err)
	}

	doc := NewDocument(entry.relPath, fields, body, entry.info.ModTime())
	if doc.Draft && !l.includeDrafts {
		slog.Debug("Skipping draft", logfields.Path(doc.SourcePath))
		return nil, nil
	}
	if !l.includeFuture && doc.Date.After(l.now()) {
		slog.Debug("Skipping future-dated document", logfields.Path(doc.SourcePath))
		return nil, nil
	}
	return &doc, nil
}

func (l *Loader) workerCount(jobs int) int {
	n := l.workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > jobs {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (l *Loader) rel(path string) string {
	rel, err := filepath.Rel(l.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// isContentFile checks the configured extension list.
func (l *Loader) isContentFile(name string) bool {
	return l.extensions.Has(strings.ToLower(filepath.Ext(name)))
}

// isIgnoredDir skips hidden and underscore-prefixed directories.
func isIgnoredDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// isIgnoredFile skips hidden files and editor temp files.
func isIgnoredFile(name string) bool {
	return strings.HasPrefix(name, ".") ||
		strings.HasSuffix(name, "~") ||
		strings.HasSuffix(name, ".swp") ||
		strings.HasSuffix(name, ".tmp")
}
