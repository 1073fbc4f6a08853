package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
)

// Options are the inputs a session is built from.
type Options struct {
	// ConfigDir holds config.toml, prompts and the database.
	ConfigDir string

	// LibraryDir is the document directory. Empty builds a session
	// without a viewer, enough for trail and cache maintenance.
	LibraryDir string

	// BackendURL overrides backend.base_url when set.
	BackendURL string

	// Ephemeral keeps settings, cache and trail in memory.
	Ephemeral bool

	// Interactive selects the viewer load delay and enables the library
	// watcher.
	Interactive bool
}

// Session is one wired engine over a document library.
type Session struct {
	Workbench driving.Workbench
	Catalog   driving.DocumentCatalog
	Reader    driving.Reader

	// Confirmations routes regeneration prompts; nil when the session
	// cannot ask.
	Confirmations ConfirmRouter

	// Changes reports documents edited on disk while the session runs.
	Changes *ChangeFeed

	closers []func() error
}

// ChangeFeed fans out document change notifications. A nil feed accepts
// subscriptions and never publishes.
type ChangeFeed struct {
	mu        sync.Mutex
	next      int
	listeners map[int]func(documentID string)
}

// NewChangeFeed creates an empty feed.
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{listeners: make(map[int]func(string))}
}

// Subscribe registers fn and returns a function removing it.
func (f *ChangeFeed) Subscribe(fn func(documentID string)) (unsubscribe func()) {
	if f == nil {
		return func() {}
	}
	f.mu.Lock()
	id := f.next
	f.next++
	f.listeners[id] = fn
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

// Publish calls every listener with documentID.
func (f *ChangeFeed) Publish(documentID string) {
	if f == nil {
		return
	}
	f.mu.Lock()
	fns := make([]func(string), 0, len(f.listeners))
	for _, fn := range f.listeners {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(documentID)
	}
}

// ConfirmRouter lets an interface install its own regeneration prompt.
type ConfirmRouter interface {
	Set(c driven.Confirmer) (restore func())
}

// NewSession assembles a session. Closers run in reverse order on Close.
func NewSession(
	wb driving.Workbench,
	catalog driving.DocumentCatalog,
	reader driving.Reader,
	closers ...func() error,
) *Session {
	return &Session{Workbench: wb, Catalog: catalog, Reader: reader, closers: closers}
}

// Close releases the workbench and everything behind it.
func (s *Session) Close() error {
	var errs []error
	if s.Workbench != nil {
		errs = append(errs, s.Workbench.Close())
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	return errors.Join(errs...)
}

// Wiring builds the services commands run against.
// The composition root in cmd/synapse provides the implementation.
type Wiring interface {
	// Settings opens the settings service for opts.
	Settings(opts Options) (driving.SettingsService, error)

	// Open builds and starts a session.
	Open(ctx context.Context, opts Options) (*Session, error)

	// ValidateLLM checks that an LLM provider is reachable.
	ValidateLLM(ctx context.Context, settings domain.LLMSettings) error
}

var wiring Wiring

// SetWiring installs the composition root.
func SetWiring(w Wiring) {
	wiring = w
}

var errNotWired = errors.New("services not configured")

func openSettings() (driving.SettingsService, error) {
	if wiring == nil {
		return nil, errNotWired
	}
	return wiring.Settings(currentOptions(""))
}

func openSession(ctx context.Context, opts Options) (*Session, error) {
	if wiring == nil {
		return nil, errNotWired
	}
	return wiring.Open(ctx, opts)
}

// readyPoll and readyTimeout bound waitReady.
const (
	readyPoll    = 20 * time.Millisecond
	readyTimeout = 5 * time.Second
)

// openAt opens a document in the reader and moves to page.
func openAt(ctx context.Context, reader driving.Reader, documentID string, page int) error {
	if reader == nil {
		return domain.ErrViewerNotReady
	}
	if err := reader.OpenDocument(ctx, documentID); err != nil {
		return err
	}
	if page <= 1 {
		return nil
	}
	if err := waitReady(ctx, reader); err != nil {
		return err
	}
	moved, err := reader.NavigateToPage(ctx, page)
	if err != nil {
		return err
	}
	if !moved {
		return fmt.Errorf("page %d of %s: %w", page, documentID, domain.ErrNotFound)
	}
	return nil
}

func waitReady(ctx context.Context, reader driving.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	ticker := time.NewTicker(readyPoll)
	defer ticker.Stop()
	for !reader.Ready() {
		select {
		case <-ctx.Done():
			return domain.ErrViewerNotReady
		case <-ticker.C:
		}
	}
	return nil
}
