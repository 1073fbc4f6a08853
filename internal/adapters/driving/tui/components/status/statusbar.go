// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// Bar displays the connection state and keybinding hints.
type Bar struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	state      domain.ConnectionState
	message    string
	count      int
	generating string
	reading    bool
	width      int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  domain.ConnectionIdle,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := max(s.width-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the connection state, or the artifact in progress.
func (s *Bar) renderLeft() string {
	if s.generating != "" {
		return s.styles.Muted.Render(fmt.Sprintf("Generating %s...", s.generating))
	}

	switch s.state {
	case domain.ConnectionLoading:
		return s.styles.Muted.Render("Finding connections...")
	case domain.ConnectionFailed:
		if s.message != "" {
			return s.styles.Error.Render("Error: " + s.message)
		}
		return s.styles.Error.Render("Error")
	case domain.ConnectionEmpty:
		return s.styles.Muted.Render("No connections found")
	case domain.ConnectionReady:
		return s.styles.Normal.Render(fmt.Sprintf("%d connections", s.count))
	case domain.ConnectionCached:
		return s.styles.Normal.Render(fmt.Sprintf("%d connections (cached)", s.count))
	case domain.ConnectionIdle:
		if s.message != "" {
			return s.styles.Muted.Render(s.message)
		}
	}
	return s.styles.Muted.Render("Ready")
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.reading {
		bindings = s.keymap.ReaderHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetView updates the bar from a connections snapshot.
func (s *Bar) SetView(view domain.ConnectionsView) {
	s.state = view.State
	s.message = view.Message
	s.count = len(view.Results)
}

// State returns the connection state shown.
func (s *Bar) State() domain.ConnectionState {
	return s.state
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// Count returns the connection count shown.
func (s *Bar) Count() int {
	return s.count
}

// SetGenerating marks an artifact generation in progress; empty clears it.
func (s *Bar) SetGenerating(what string) {
	s.generating = what
}

// Generating returns the artifact being generated, if any.
func (s *Bar) Generating() string {
	return s.generating
}

// SetReading switches the hints to the reader bindings.
func (s *Bar) SetReading(reading bool) {
	s.reading = reading
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = domain.ConnectionIdle
	s.message = ""
	s.count = 0
	s.generating = ""
}
