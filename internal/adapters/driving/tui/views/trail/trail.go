// Package trail provides the breadcrumb trail view for the TUI.
package trail

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
)

// View lists the breadcrumb trail, oldest first.
type View struct {
	styles     *styles.Styles
	navigation driving.NavigationService

	entries  []domain.BreadcrumbEntry
	selected int
	width    int
	height   int
	ready    bool
	err      error
	now      func() time.Time
}

// NewView creates a new trail view.
func NewView(s *styles.Styles, navigation driving.NavigationService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &View{
		styles:     s,
		navigation: navigation,
		width:      80,
		height:     24,
		now:        time.Now,
	}
}

// Init loads the trail and selects the most recent entry.
func (v *View) Init() tea.Cmd {
	v.err = nil
	if v.navigation != nil {
		v.entries = v.navigation.Breadcrumbs()
	}
	v.selected = max(len(v.entries)-1, 0)
	return nil
}

// Update handles messages for the trail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.BreadcrumbVisited:
		if msg.Err != nil {
			v.err = msg.Err
		} else if !msg.Moved {
			v.err = fmt.Errorf("could not return to %s page %d", msg.Entry.DocumentID, msg.Entry.PageNumber)
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if v.selected > 0 {
				v.selected--
			}
			return v, nil

		case "down", "j":
			if v.selected < len(v.entries)-1 {
				v.selected++
			}
			return v, nil

		case "enter":
			if len(v.entries) == 0 {
				return v, nil
			}
			entry := v.entries[v.selected]
			return v, func() tea.Msg {
				return messages.BreadcrumbSelected{Entry: entry}
			}

		case "esc", "b":
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewReader}
			}

		case "q":
			return v, func() tea.Msg { return messages.Quit{} }
		}
	}

	return v, nil
}

// View renders the trail.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Trail"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	if len(v.entries) == 0 {
		b.WriteString(v.styles.Muted.Render("The trail is empty. Follow a connection to start one."))
		b.WriteString("\n\n")
		b.WriteString(v.styles.Help.Render("[esc] back"))
		return b.String()
	}

	now := v.now()
	for i, e := range v.entries {
		cursor := "  "
		line := fmt.Sprintf("%d. %s, page %d", i+1, e.DocumentID, e.PageNumber)
		if i == v.selected {
			cursor = "> "
			b.WriteString(v.styles.Selected.Render(cursor + line))
		} else {
			b.WriteString(v.styles.Normal.Render(cursor + line))
		}
		b.WriteString(v.styles.Muted.Render("  " + age(e.Timestamp, now)))
		b.WriteString("\n")
		if e.ContextPreview != "" {
			b.WriteString(v.styles.Passage.Render("     " + preview(e.ContextPreview, max(v.width-8, 20))))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] go back here  [esc] back"))
	return b.String()
}

func age(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Format("2006-01-02")
	}
}

func preview(text string, limit int) string {
	runes := []rune(strings.Join(strings.Fields(text), " "))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-3]) + "..."
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Entries returns the loaded trail.
func (v *View) Entries() []domain.BreadcrumbEntry {
	return v.entries
}

// SelectedIndex returns the selected entry index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
