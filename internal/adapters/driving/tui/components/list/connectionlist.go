// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// ConnectionList displays related passages in a navigable list.
type ConnectionList struct {
	results  []domain.ConnectionResult
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewConnectionList creates a new connection list component.
func NewConnectionList(s *styles.Styles) *ConnectionList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ConnectionList{
		styles: s,
		width:  40,
		height: 10,
	}
}

// Init initialises the connection list.
func (c *ConnectionList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (c *ConnectionList) Update(msg tea.Msg) (*ConnectionList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			c.MoveUp()
		case "down", "j":
			c.MoveDown()
		}
	}
	return c, nil
}

// View renders the connection list.
func (c *ConnectionList) View() string {
	if len(c.results) == 0 {
		return c.styles.Muted.Render("No connections")
	}

	// Each connection takes two lines.
	visibleCount := max(c.height/2, 1)

	start := 0
	if c.selected >= visibleCount {
		start = c.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(c.results))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		lines = append(lines, c.renderResult(i, &c.results[i]))
	}
	return strings.Join(lines, "\n")
}

// renderResult formats a single connection with its snippet.
func (c *ConnectionList) renderResult(index int, result *domain.ConnectionResult) string {
	indicator := "  "
	if index == c.selected {
		indicator = "> "
	}

	name := result.DocumentName
	if name == "" {
		name = result.SourceDocumentID
	}
	label := fmt.Sprintf("%s p.%d", name, result.PageNumber)

	maxLabelLen := max(c.width-10, 10)
	label = truncate(label, maxLabelLen)
	score := fmt.Sprintf("%.2f", result.RelevanceScore)

	var titleLine string
	if index == c.selected {
		titleLine = c.styles.Selected.Render(fmt.Sprintf("%s%-*s %s", indicator, maxLabelLen, label, score))
	} else {
		titleLine = c.styles.Normal.Render(fmt.Sprintf("%s%-*s ", indicator, maxLabelLen, label)) +
			c.styles.Score.Render(score)
	}

	snippet := strings.Join(strings.Fields(result.TextSnippet), " ")
	snippet = truncate(snippet, max(c.width-6, 20))
	return titleLine + "\n" + c.styles.Muted.Render("    "+snippet)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}

// SetResults replaces the connections and resets the selection.
func (c *ConnectionList) SetResults(results []domain.ConnectionResult) {
	c.results = results
	c.selected = 0
}

// Results returns the current connections.
func (c *ConnectionList) Results() []domain.ConnectionResult {
	return c.results
}

// Selected returns the index of the selected connection.
func (c *ConnectionList) Selected() int {
	return c.selected
}

// SetSelected sets the selected index.
func (c *ConnectionList) SetSelected(index int) {
	if index >= 0 && index < len(c.results) {
		c.selected = index
	}
}

// SelectedResult returns the currently selected connection, or nil if none.
func (c *ConnectionList) SelectedResult() *domain.ConnectionResult {
	if len(c.results) == 0 || c.selected < 0 || c.selected >= len(c.results) {
		return nil
	}
	return &c.results[c.selected]
}

// MoveUp moves selection up.
func (c *ConnectionList) MoveUp() {
	if c.selected > 0 {
		c.selected--
	}
}

// MoveDown moves selection down.
func (c *ConnectionList) MoveDown() {
	if c.selected < len(c.results)-1 {
		c.selected++
	}
}

// SetDimensions sets the component dimensions.
func (c *ConnectionList) SetDimensions(width, height int) {
	c.width = width
	c.height = height
}

// Width returns the current width.
func (c *ConnectionList) Width() int {
	return c.width
}

// Height returns the current height.
func (c *ConnectionList) Height() int {
	return c.height
}

// Count returns the number of connections.
func (c *ConnectionList) Count() int {
	return len(c.results)
}

// IsEmpty returns whether the list is empty.
func (c *ConnectionList) IsEmpty() bool {
	return len(c.results) == 0
}
