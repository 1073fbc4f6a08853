package services

import (
	"sync"
	"time"

	"github.com/romdo/go-debounce"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// PageTracker turns a stream of scroll positions into reading signals,
// emitting only once scrolling settles and only when the page changed.
type PageTracker struct {
	emit     func(domain.ContextSignal)
	now      func() time.Time
	debounce func()
	cancel   func()

	mu      sync.Mutex
	latest  domain.ContextSignal
	emitted domain.Location
	closed  bool
}

// NewPageTracker creates a tracker that calls emit after wait of quiet.
// Continuous scrolling still emits at least every 4*wait.
func NewPageTracker(wait time.Duration, emit func(domain.ContextSignal)) *PageTracker {
	if wait <= 0 {
		wait = domain.DefaultAppSettings().Engine.ScrollDebounce
	}
	p := &PageTracker{emit: emit, now: time.Now}
	p.debounce, p.cancel = debounce.NewWithMaxWait(wait, 4*wait, p.flush)
	return p
}

// Scroll records the position currently in view.
func (p *PageTracker) Scroll(documentID string, page int, text string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.latest = domain.ContextSignal{
		Kind:       domain.SignalReading,
		RawText:    text,
		DocumentID: documentID,
		PageNumber: page,
	}
	p.mu.Unlock()
	p.debounce()
}

// Reset forgets the last emitted page, so the next settle emits again.
func (p *PageTracker) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emitted = domain.Location{}
}

// Close stops pending emissions.
func (p *PageTracker) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cancel()
}

func (p *PageTracker) flush() {
	p.mu.Lock()
	if p.closed || p.latest.DocumentID == "" {
		p.mu.Unlock()
		return
	}
	signal := p.latest
	loc := domain.Location{DocumentID: signal.DocumentID, PageNumber: signal.PageNumber}
	if loc == p.emitted {
		p.mu.Unlock()
		return
	}
	p.emitted = loc
	signal.CreatedAt = p.now()
	p.mu.Unlock()

	p.emit(signal)
}
