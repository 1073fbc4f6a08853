// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/styles"
)

// PassageInput is a one-line prompt for the passage to select on the page.
type PassageInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	width     int
}

// NewPassageInput creates a new passage input component.
func NewPassageInput(s *styles.Styles) *PassageInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = "Type or paste a passage from the page..."
	ti.CharLimit = 2000
	ti.Width = 50

	return &PassageInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
}

// Init initialises the passage input.
func (p *PassageInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (p *PassageInput) Update(msg tea.Msg) (*PassageInput, tea.Cmd) {
	var cmd tea.Cmd
	p.textinput, cmd = p.textinput.Update(msg)
	return p, cmd
}

// View renders the passage input.
func (p *PassageInput) View() string {
	label := p.styles.Title.Render("Select: ")
	field := p.styles.InputField.Render(p.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the trimmed passage.
func (p *PassageInput) Value() string {
	return strings.TrimSpace(p.textinput.Value())
}

// SetValue sets the input value.
func (p *PassageInput) SetValue(value string) {
	p.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (p *PassageInput) Focus() tea.Cmd {
	return p.textinput.Focus()
}

// Blur removes focus from the input.
func (p *PassageInput) Blur() {
	p.textinput.Blur()
}

// Focused returns whether the input is focused.
func (p *PassageInput) Focused() bool {
	return p.textinput.Focused()
}

// SetWidth sets the width of the input.
func (p *PassageInput) SetWidth(width int) {
	p.width = width
	// Account for label and padding
	p.textinput.Width = max(width-12, 20)
}

// Width returns the current width.
func (p *PassageInput) Width() int {
	return p.width
}

// Reset clears the input.
func (p *PassageInput) Reset() {
	p.textinput.Reset()
}
