// Package keymap defines keybindings for the TUI.
package keymap

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines all keybindings for the TUI.
type KeyMap struct {
	// Quit exits the application.
	Quit key.Binding

	// Help shows the help view.
	Help key.Binding

	// Back returns to the previous view or clears the selection.
	Back key.Binding

	// Up navigates up in a list or scrolls the page.
	Up key.Binding

	// Down navigates down in a list or scrolls the page.
	Down key.Binding

	// PrevPage moves to the previous page.
	PrevPage key.Binding

	// NextPage moves to the next page.
	NextPage key.Binding

	// Select confirms a selection.
	Select key.Binding

	// SelectPassage starts typing a passage to select.
	SelectPassage key.Binding

	// Focus toggles focus between the page and the connections.
	Focus key.Binding

	// Trail shows the breadcrumb trail.
	Trail key.Binding

	// Insights generates insights for the current context.
	Insights key.Binding

	// Audio generates an audio summary for the current context.
	Audio key.Binding

	// Library returns to the document list.
	Library key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h", "pgup"),
			key.WithHelp("←/h", "prev page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "l", "pgdown"),
			key.WithHelp("→/l", "next page"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		SelectPassage: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "select passage"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "connections"),
		),
		Trail: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "trail"),
		),
		Insights: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "insights"),
		),
		Audio: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "audio"),
		),
		Library: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open document"),
		),
	}
}

// ShortHelp returns a short list of keybindings for the status bar.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ReaderHelp returns keybindings for the reader.
func (k *KeyMap) ReaderHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.SelectPassage, k.Focus, k.Insights, k.Trail}
}

// FullHelp returns the full list of keybindings for the help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PrevPage, k.NextPage},
		{k.SelectPassage, k.Focus, k.Select, k.Back},
		{k.Insights, k.Audio, k.Trail, k.Library},
		{k.Help, k.Quit},
	}
}

// Matches checks if a key string matches a binding.
func Matches(keyStr string, binding key.Binding) bool {
	for _, k := range binding.Keys() {
		if k == keyStr {
			return true
		}
	}
	return false
}
