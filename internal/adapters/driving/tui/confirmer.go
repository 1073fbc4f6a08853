package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driven"
)

// Confirmer asks regeneration questions inside the running program.
type Confirmer struct {
	send func(tea.Msg)
}

var _ driven.Confirmer = (*Confirmer)(nil)

// NewConfirmer creates a confirmer that delivers prompts with send,
// normally (*tea.Program).Send.
func NewConfirmer(send func(tea.Msg)) *Confirmer {
	return &Confirmer{send: send}
}

// Confirm blocks until the user answers or ctx is done. A cancelled
// prompt counts as declined.
func (c *Confirmer) Confirm(ctx context.Context, message string) bool {
	reply := make(chan bool, 1)
	c.send(messages.ConfirmRequested{Message: message, Reply: reply})

	select {
	case answer := <-reply:
		return answer
	case <-ctx.Done():
		return false
	}
}
