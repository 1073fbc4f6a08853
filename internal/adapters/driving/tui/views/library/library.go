// Package library provides the document list view for the TUI.
package library

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
)

// View is the library view.
type View struct {
	styles  *styles.Styles
	catalog driving.DocumentCatalog

	documents    []domain.Document
	current      string
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	scrollOffset int
}

// NewView creates a new library view.
func NewView(s *styles.Styles, catalog driving.DocumentCatalog) *View {
	return &View{
		styles:  s,
		catalog: catalog,
	}
}

// Init loads the document list.
func (v *View) Init() tea.Cmd {
	v.Reload()
	return nil
}

// Reload refreshes the document list from the catalog.
func (v *View) Reload() {
	if v.catalog == nil {
		v.err = fmt.Errorf("document catalog not available")
		return
	}
	v.documents = v.catalog.Documents()
	v.err = nil
	if v.selected >= len(v.documents) {
		v.selected = max(len(v.documents)-1, 0)
	}
	v.adjustScroll()
}

// SetCurrent marks the document open in the reader.
func (v *View) SetCurrent(documentID string) {
	v.current = documentID
	for i, d := range v.documents {
		if d.ID == documentID {
			v.selected = i
			v.adjustScroll()
			return
		}
	}
}

// Update handles messages for the library view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.LibraryChanged:
		v.Reload()
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if doc := v.SelectedDocument(); doc != nil {
			selected := *doc
			return v, func() tea.Msg {
				return messages.DocumentSelected{Document: selected}
			}
		}
	case "r":
		v.Reload()
	case "esc":
		if v.current != "" {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewReader}
			}
		}
	case "q":
		return v, func() tea.Msg { return messages.Quit{} }
	}

	return v, nil
}

// adjustScroll adjusts the scroll offset to keep the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Reserve lines for title, help, and padding
	return max(v.height-6, 1)
}

// View renders the library view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Library (%d)", len(v.documents))))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if len(v.documents) == 0 {
		b.WriteString(v.styles.Muted.Render("No documents in the library. Add .txt or .md files and press r."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visibleItems; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}

	if len(v.documents) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(v.documents)),
			len(v.documents))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderDocument renders a single document line.
func (v *View) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}
	marker := " "
	if doc.ID == v.current {
		marker = "*"
	}

	name := doc.Name
	if name == "" {
		name = doc.ID
	}
	maxNameLen := max(v.width-20, 10)
	if len([]rune(name)) > maxNameLen {
		name = string([]rune(name)[:maxNameLen-3]) + "..."
	}
	pages := fmt.Sprintf("%d pages", doc.Pages)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%s %-*s  %s", indicator, marker, maxNameLen, name, pages))
	}
	return v.styles.Normal.Render(fmt.Sprintf("%s%s %-*s  ", indicator, marker, maxNameLen, name)) +
		v.styles.Muted.Render(pages)
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	if v.current != "" {
		return v.styles.Help.Render("[↑/↓] navigate  [enter] open  [r] reload  [esc] back to reader  [q] quit")
	}
	return v.styles.Help.Render("[↑/↓] navigate  [enter] open  [r] reload  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
