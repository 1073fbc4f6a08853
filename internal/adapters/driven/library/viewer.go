package library

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
)

// Ensure Viewer implements the interfaces.
var (
	_ driven.Viewer  = (*Viewer)(nil)
	_ driving.Reader = (*Viewer)(nil)
)

// DefaultLoadDelay is how long a freshly opened document takes to render.
const DefaultLoadDelay = 200 * time.Millisecond

// Viewer shows one library document at a time.
type Viewer struct {
	lib       *Library
	loadDelay time.Duration

	mu        sync.Mutex
	document  string
	page      int
	ready     bool
	loading   *time.Timer
	selection string
	listeners map[int]func()
	nextID    int
}

// NewViewer creates a viewer over lib. A zero loadDelay makes documents
// ready immediately; a negative one uses DefaultLoadDelay.
func NewViewer(lib *Library, loadDelay time.Duration) *Viewer {
	if loadDelay < 0 {
		loadDelay = DefaultLoadDelay
	}
	return &Viewer{
		lib:       lib,
		loadDelay: loadDelay,
		ready:     true,
		listeners: make(map[int]func()),
	}
}

// Ready reports whether navigation is accepted right now.
func (v *Viewer) Ready() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ready
}

// CurrentDocument returns the open document id, or "".
func (v *Viewer) CurrentDocument() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.document
}

// CurrentPage returns the page shown.
func (v *Viewer) CurrentPage(_ context.Context) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.document == "" {
		return 0, fmt.Errorf("no document open: %w", domain.ErrNotFound)
	}
	return v.page, nil
}

// OpenDocument shows page 1 of a document and clears any selection.
// The viewer is not ready until the document has loaded.
func (v *Viewer) OpenDocument(_ context.Context, documentID string) error {
	if _, err := v.lib.Document(documentID); err != nil {
		return err
	}

	v.mu.Lock()
	if v.loading != nil {
		v.loading.Stop()
		v.loading = nil
	}
	v.document = documentID
	v.page = 1
	hadSelection := v.selection != ""
	v.selection = ""
	if v.loadDelay == 0 {
		v.ready = true
	} else {
		v.ready = false
		var timer *time.Timer
		timer = time.AfterFunc(v.loadDelay, func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			if v.loading == timer {
				v.ready = true
				v.loading = nil
			}
		})
		v.loading = timer
	}
	v.mu.Unlock()

	if hadSelection {
		v.fireSelectionEnd()
	}
	return nil
}

// NavigateToPage moves to a page of the open document. Returns false when
// the viewer is loading or the page is out of range.
func (v *Viewer) NavigateToPage(_ context.Context, page int) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.document == "" || !v.ready {
		return false, nil
	}
	count, err := v.lib.PageCount(v.document)
	if err != nil {
		return false, err
	}
	if page < 1 || page > count {
		return false, nil
	}
	v.page = page
	return true, nil
}

// SelectedText returns the current selection.
func (v *Viewer) SelectedText(_ context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selection, nil
}

// Select sets the selection and notifies subscribers.
func (v *Viewer) Select(text string) {
	v.mu.Lock()
	v.selection = text
	v.mu.Unlock()
	v.fireSelectionEnd()
}

// Deselect clears the selection and notifies subscribers.
func (v *Viewer) Deselect() {
	v.mu.Lock()
	had := v.selection != ""
	v.selection = ""
	v.mu.Unlock()
	if had {
		v.fireSelectionEnd()
	}
}

// OnSelectionEnd subscribes to selection changes.
func (v *Viewer) OnSelectionEnd(fn func()) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

// PageText returns the text of the page currently shown.
func (v *Viewer) PageText(ctx context.Context) (string, error) {
	v.mu.Lock()
	doc, page := v.document, v.page
	v.mu.Unlock()
	if doc == "" {
		return "", fmt.Errorf("no document open: %w", domain.ErrNotFound)
	}
	return v.lib.PageText(ctx, doc, page)
}

// Close stops any pending load.
func (v *Viewer) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.loading != nil {
		v.loading.Stop()
		v.loading = nil
	}
}

func (v *Viewer) fireSelectionEnd() {
	v.mu.Lock()
	ids := make([]int, 0, len(v.listeners))
	for id := range v.listeners {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, v.listeners[id])
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
