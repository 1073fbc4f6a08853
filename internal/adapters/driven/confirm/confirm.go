// Package confirm provides driven.Confirmer implementations.
//
// The engine is built before any user interface exists, so the composition
// root hands it a Delegate and the interface installs its own prompt later.
package confirm

import (
	"context"
	"sync"

	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
	"github.com/custodia-labs/synapse-reader/internal/logger"
)

var log = logger.Scope("confirm")

// Func adapts a function to driven.Confirmer.
type Func func(ctx context.Context, message string) bool

// Confirm implements driven.Confirmer.
func (f Func) Confirm(ctx context.Context, message string) bool {
	return f(ctx, message)
}

// Delegate forwards confirmations to a replaceable target.
type Delegate struct {
	mu       sync.Mutex
	target   driven.Confirmer
	fallback bool
}

var _ driven.Confirmer = (*Delegate)(nil)

// NewDelegate creates a delegate that answers fallback while no target is set.
func NewDelegate(fallback bool) *Delegate {
	return &Delegate{fallback: fallback}
}

// Set installs target and returns a function restoring the previous one.
func (d *Delegate) Set(target driven.Confirmer) (restore func()) {
	d.mu.Lock()
	previous := d.target
	d.target = target
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		d.target = previous
		d.mu.Unlock()
	}
}

// Confirm implements driven.Confirmer.
func (d *Delegate) Confirm(ctx context.Context, message string) bool {
	d.mu.Lock()
	target := d.target
	d.mu.Unlock()

	if target == nil {
		log.Debug("no prompt installed, answering %v: %s", d.fallback, message)
		return d.fallback
	}
	return target.Confirm(ctx, message)
}
