package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
	"github.com/custodia-labs/synapse-reader/internal/logger"
)

var log = logger.Scope("library")

// Ensure Library implements the interfaces.
var (
	_ driven.PageSource       = (*Library)(nil)
	_ driving.DocumentCatalog = (*Library)(nil)
)

// pageBreak separates pages within a document.
const pageBreak = "\f"

// Extensions lists the file types the library loads.
var Extensions = []string{".txt", ".md"}

// ErrClosed is returned after Close.
var ErrClosed = errors.New("library closed")

// ChangeType describes what happened to a document on disk.
type ChangeType string

// Change types reported by Watch.
const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
)

// Change is a document edit seen by Watch.
type Change struct {
	Type       ChangeType
	DocumentID string
}

type document struct {
	name  string
	path  string
	pages []string
}

// Library holds the pages of every document under a root directory.
type Library struct {
	root string

	mu      sync.RWMutex
	docs    map[string]*document
	watcher *fsnotify.Watcher
	closed  bool
}

// Open loads every supported document under root (not recursive).
func Open(root string) (*Library, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", root)
	}

	l := &Library{root: root, docs: make(map[string]*document)}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading library: %w", err)
	}
	for _, entry := range entries {
		path := filepath.Join(root, entry.Name())
		if entry.IsDir() || !supported(path) {
			continue
		}
		if err := l.load(path); err != nil {
			log.Warn("skipping %s: %v", entry.Name(), err)
		}
	}
	log.Debug("opened %s with %d documents", root, len(l.docs))
	return l, nil
}

// Documents lists loaded documents sorted by id.
func (l *Library) Documents() []domain.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Document, 0, len(l.docs))
	for id, d := range l.docs {
		out = append(out, domain.Document{ID: id, Name: d.name, Path: d.path, Pages: len(d.pages)})
	}
	slices.SortFunc(out, func(a, b domain.Document) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// Document returns one document's description.
func (l *Library) Document(id string) (domain.Document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	d, ok := l.docs[id]
	if !ok {
		return domain.Document{}, fmt.Errorf("document %q: %w", id, domain.ErrNotFound)
	}
	return domain.Document{ID: id, Name: d.name, Path: d.path, Pages: len(d.pages)}, nil
}

// PageCount returns the number of pages in a document.
func (l *Library) PageCount(id string) (int, error) {
	doc, err := l.Document(id)
	if err != nil {
		return 0, err
	}
	return doc.Pages, nil
}

// PageText returns the text of a 1-based page.
func (l *Library) PageText(_ context.Context, documentID string, page int) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	d, ok := l.docs[documentID]
	if !ok {
		return "", fmt.Errorf("document %q: %w", documentID, domain.ErrNotFound)
	}
	if page < 1 || page > len(d.pages) {
		return "", fmt.Errorf("page %d of %q: %w", page, documentID, domain.ErrNotFound)
	}
	return d.pages[page-1], nil
}

// Watch reports created, updated and deleted documents until ctx is done.
// The library's pages are updated before each change is delivered.
func (l *Library) Watch(ctx context.Context) (<-chan Change, error) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrClosed
	}
	if l.watcher != nil {
		l.mu.Unlock()
		return nil, errors.New("library already watched")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(l.root); err != nil {
		l.mu.Unlock()
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", l.root, err)
	}
	l.watcher = watcher
	l.mu.Unlock()

	changes := make(chan Change)
	go func() {
		defer close(changes)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				change := l.handleFsEvent(event)
				if change == nil {
					continue
				}
				select {
				case changes <- *change:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn("watch error: %v", err)
			}
		}
	}()
	return changes, nil
}

// handleFsEvent applies one filesystem event. Returns nil for events that
// do not change a document.
func (l *Library) handleFsEvent(event fsnotify.Event) *Change {
	if !supported(event.Name) {
		return nil
	}
	id := documentID(event.Name)

	switch {
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		l.mu.Lock()
		_, known := l.docs[id]
		delete(l.docs, id)
		l.mu.Unlock()
		if !known {
			return nil
		}
		return &Change{Type: ChangeDeleted, DocumentID: id}

	case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
		if info, err := os.Stat(event.Name); err != nil || info.IsDir() {
			return nil
		}
		l.mu.RLock()
		_, known := l.docs[id]
		l.mu.RUnlock()
		if err := l.load(event.Name); err != nil {
			log.Warn("reloading %s: %v", id, err)
			return nil
		}
		if known {
			return &Change{Type: ChangeUpdated, DocumentID: id}
		}
		return &Change{Type: ChangeCreated, DocumentID: id}
	}
	return nil
}

// Close stops watching. Safe to call more than once.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	if l.watcher != nil {
		return l.watcher.Close()
	}
	return nil
}

func (l *Library) load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	text := string(data)
	pages := SplitPages(text)
	name := filepath.Base(path)
	if isMarkdown(path) {
		if title := markdownTitle(text); title != "" {
			name = title
		}
		for i, p := range pages {
			pages[i] = stripMarkdown(p)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[documentID(path)] = &document{name: name, path: path, pages: pages}
	return nil
}

// SplitPages splits text on form feeds. A trailing empty page is dropped;
// an empty document has one empty page.
func SplitPages(text string) []string {
	pages := strings.Split(text, pageBreak)
	if len(pages) > 1 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	for i, p := range pages {
		pages[i] = strings.TrimSpace(p)
	}
	return pages
}

func documentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// supported reports whether path is a visible file with a known extension.
func supported(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(base)))
}
