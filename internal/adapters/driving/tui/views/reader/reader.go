// Package reader provides the reading view: the current page beside the
// connections found for it.
package reader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/synapse-reader/internal/core/domain"
	"github.com/custodia-labs/synapse-reader/internal/core/ports/driving"
)

// readyPoll and readyTimeout bound waiting for the viewer to finish loading.
const (
	readyPoll    = 20 * time.Millisecond
	readyTimeout = 5 * time.Second
)

// Focus identifies which pane receives navigation keys.
type Focus int

const (
	// FocusPage scrolls the page.
	FocusPage Focus = iota
	// FocusConnections moves through the connections.
	FocusConnections
)

// Panel identifies what the side panel shows below the connections.
type Panel int

const (
	// PanelNone shows only the connections.
	PanelNone Panel = iota
	// PanelInsights shows the last insight artifact.
	PanelInsights
	// PanelAudio shows the last audio artifact.
	PanelAudio
)

// View is the reader view.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	workbench driving.Workbench
	catalog   driving.DocumentCatalog
	reader    driving.Reader
	ctx       context.Context

	document domain.Document
	page     int
	text     string
	lines    []string
	scroll   int

	connections *list.ConnectionList
	bar         *status.Bar
	passage     *input.PassageInput
	selecting   bool
	selection   string
	identity    domain.ContentIdentity

	focus   Focus
	panel   Panel
	confirm *messages.ConfirmRequested
	insight *domain.InsightArtifact
	audio   *domain.AudioArtifact

	width  int
	height int
	err    error
}

// NewView creates a new reader view.
func NewView(
	s *styles.Styles,
	workbench driving.Workbench,
	catalog driving.DocumentCatalog,
	reader driving.Reader,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	km := keymap.DefaultKeyMap()
	bar := status.NewBar(s, km)
	bar.SetReading(true)

	return &View{
		styles:      s,
		keymap:      km,
		workbench:   workbench,
		catalog:     catalog,
		reader:      reader,
		ctx:         context.Background(),
		connections: list.NewConnectionList(s),
		bar:         bar,
		passage:     input.NewPassageInput(s),
		width:       80,
		height:      24,
	}
}

// WithContext sets the context used for engine calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Open starts a fresh exploration of a document at its first page.
func (v *View) Open(documentID string) tea.Cmd {
	v.err = nil
	v.clearSelection()
	v.panel = PanelNone
	return func() tea.Msg {
		err := v.workbench.SwitchDocument(v.ctx, documentID)
		return messages.DocumentOpened{DocumentID: documentID, Err: err}
	}
}

// Sync reloads the page the viewer currently shows. Used after navigation
// driven by the engine, such as following a connection.
func (v *View) Sync() tea.Cmd {
	return func() tea.Msg {
		return v.readCurrentPage()
	}
}

func (v *View) readCurrentPage() tea.Msg {
	docID := v.reader.CurrentDocument()
	if docID == "" {
		return messages.PageChanged{Err: domain.ErrViewerNotReady}
	}
	if err := v.waitReady(); err != nil {
		return messages.PageChanged{DocumentID: docID, Err: err}
	}
	page, err := v.reader.CurrentPage(v.ctx)
	if err != nil {
		return messages.PageChanged{DocumentID: docID, Err: err}
	}
	text, err := v.catalog.PageText(v.ctx, docID, page)
	return messages.PageChanged{DocumentID: docID, Page: page, Text: text, Err: err}
}

// turnPage moves the viewer to another page. Out-of-range moves are ignored.
func (v *View) turnPage(page int) tea.Cmd {
	docID := v.document.ID
	if docID == "" {
		return nil
	}
	return func() tea.Msg {
		if err := v.waitReady(); err != nil {
			return messages.PageChanged{DocumentID: docID, Err: err}
		}
		moved, err := v.reader.NavigateToPage(v.ctx, page)
		if err != nil {
			return messages.PageChanged{DocumentID: docID, Err: err}
		}
		if !moved {
			return nil
		}
		text, err := v.catalog.PageText(v.ctx, docID, page)
		return messages.PageChanged{DocumentID: docID, Page: page, Text: text, Err: err}
	}
}

func (v *View) waitReady() error {
	ctx, cancel := context.WithTimeout(v.ctx, readyTimeout)
	defer cancel()

	ticker := time.NewTicker(readyPoll)
	defer ticker.Stop()
	for !v.reader.Ready() {
		select {
		case <-ctx.Done():
			return domain.ErrViewerNotReady
		case <-ticker.C:
		}
	}
	return nil
}

// Update handles messages for the reader view.
//
//nolint:gocyclo // central message handler
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		if v.confirm != nil {
			return v.handleConfirmKey(msg)
		}
		if v.selecting {
			return v.handlePassageKey(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentOpened:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.setDocument(msg.DocumentID)
		return v, v.Sync()

	case messages.PageChanged:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.showPage(msg.DocumentID, msg.Page, msg.Text)
		return v, nil

	case messages.ConnectionsUpdated:
		v.applyConnections(msg.View)
		return v, nil

	case messages.ConnectionFollowed:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		if !msg.Moved {
			v.err = fmt.Errorf("could not open %s page %d", msg.Result.SourceDocumentID, msg.Result.PageNumber)
			return v, nil
		}
		v.clearSelection()
		v.focus = FocusPage
		return v, v.Sync()

	case messages.BreadcrumbVisited:
		if msg.Err == nil && msg.Moved {
			v.clearSelection()
			return v, v.Sync()
		}
		return v, nil

	case messages.ConfirmRequested:
		if v.confirm != nil {
			v.confirm.Reply <- false
		}
		v.confirm = &msg
		return v, nil

	case messages.InsightsGenerated:
		v.bar.SetGenerating("")
		if msg.Artifact != nil {
			v.insight = msg.Artifact
			v.panel = PanelInsights
		}
		if msg.Err != nil && !errors.Is(msg.Err, domain.ErrRegenerationDeclined) {
			v.err = msg.Err
		}
		return v, nil

	case messages.AudioGenerated:
		v.bar.SetGenerating("")
		if msg.Artifact != nil {
			v.audio = msg.Artifact
			v.panel = PanelAudio
		}
		if msg.Err != nil && !errors.Is(msg.Err, domain.ErrRegenerationDeclined) {
			v.err = msg.Err
		}
		return v, nil

	case messages.LibraryChanged:
		if msg.DocumentID == v.document.ID {
			v.setDocument(msg.DocumentID)
			return v, v.Sync()
		}
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	if v.selecting {
		var cmd tea.Cmd
		v.passage, cmd = v.passage.Update(msg)
		return v, cmd
	}
	return v, nil
}

// handleKeyMsg handles key presses while reading.
//
//nolint:gocyclo // one case per binding
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	k := msg.String()
	switch {
	case keymap.Matches(k, v.keymap.Quit):
		return v, func() tea.Msg { return messages.Quit{} }

	case keymap.Matches(k, v.keymap.Help):
		return v, changeView(messages.ViewHelp)

	case keymap.Matches(k, v.keymap.Trail):
		return v, changeView(messages.ViewTrail)

	case keymap.Matches(k, v.keymap.Library):
		return v, changeView(messages.ViewLibrary)

	case keymap.Matches(k, v.keymap.Focus):
		if v.focus == FocusPage && !v.connections.IsEmpty() {
			v.focus = FocusConnections
		} else {
			v.focus = FocusPage
		}

	case keymap.Matches(k, v.keymap.Up):
		if v.focus == FocusConnections {
			v.connections.MoveUp()
		} else if v.scroll > 0 {
			v.scroll--
		}

	case keymap.Matches(k, v.keymap.Down):
		if v.focus == FocusConnections {
			v.connections.MoveDown()
		} else if v.scroll < v.maxScroll() {
			v.scroll++
		}

	case keymap.Matches(k, v.keymap.PrevPage):
		if v.page > 1 {
			return v, v.turnPage(v.page - 1)
		}

	case keymap.Matches(k, v.keymap.NextPage):
		if v.document.Pages == 0 || v.page < v.document.Pages {
			return v, v.turnPage(v.page + 1)
		}

	case keymap.Matches(k, v.keymap.Select):
		if v.focus == FocusConnections {
			return v, v.follow()
		}

	case keymap.Matches(k, v.keymap.SelectPassage):
		if v.document.ID == "" {
			return v, nil
		}
		v.selecting = true
		v.passage.Reset()
		v.passage.SetValue(v.selection)
		return v, v.passage.Focus()

	case keymap.Matches(k, v.keymap.Insights):
		return v, v.generateInsights()

	case keymap.Matches(k, v.keymap.Audio):
		return v, v.generateAudio()

	case keymap.Matches(k, v.keymap.Back):
		switch {
		case v.panel != PanelNone:
			v.panel = PanelNone
		case v.selection != "":
			return v, v.deselect()
		case v.focus == FocusConnections:
			v.focus = FocusPage
		default:
			return v, changeView(messages.ViewLibrary)
		}
	}

	return v, nil
}

// handleConfirmKey answers a pending confirmation.
func (v *View) handleConfirmKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	var answer bool
	switch msg.String() {
	case "y", "Y", "enter":
		answer = true
	case "n", "N", "esc":
		answer = false
	default:
		return v, nil
	}
	v.confirm.Reply <- answer
	v.confirm = nil
	return v, nil
}

// handlePassageKey handles key presses while typing a passage.
func (v *View) handlePassageKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.Type { //nolint:exhaustive // other keys go to the input
	case tea.KeyEsc:
		v.selecting = false
		v.passage.Blur()
		return v, nil
	case tea.KeyEnter:
		v.selecting = false
		v.passage.Blur()
		text := v.passage.Value()
		if text == "" {
			return v, v.deselect()
		}
		v.selection = text
		v.err = nil
		return v, func() tea.Msg {
			v.reader.Select(text)
			return nil
		}
	}

	var cmd tea.Cmd
	v.passage, cmd = v.passage.Update(msg)
	return v, cmd
}

func (v *View) deselect() tea.Cmd {
	v.selection = ""
	return func() tea.Msg {
		v.reader.Deselect()
		return nil
	}
}

func (v *View) follow() tea.Cmd {
	selected := v.connections.SelectedResult()
	if selected == nil {
		return nil
	}
	target := *selected
	return func() tea.Msg {
		moved, err := v.workbench.OpenConnection(v.ctx, target)
		return messages.ConnectionFollowed{Result: target, Moved: moved, Err: err}
	}
}

func (v *View) generateInsights() tea.Cmd {
	if v.bar.Generating() != "" {
		return nil
	}
	v.bar.SetGenerating("insights")
	return func() tea.Msg {
		artifact, err := v.workbench.GenerateInsights(v.ctx)
		return messages.InsightsGenerated{Artifact: artifact, Err: err}
	}
}

func (v *View) generateAudio() tea.Cmd {
	if v.bar.Generating() != "" {
		return nil
	}
	v.bar.SetGenerating("audio")
	return func() tea.Msg {
		artifact, err := v.workbench.GenerateAudio(v.ctx)
		return messages.AudioGenerated{Artifact: artifact, Err: err}
	}
}

func changeView(view messages.ViewType) tea.Cmd {
	return func() tea.Msg {
		return messages.ViewChanged{View: view}
	}
}

// setDocument refreshes document metadata from the catalog.
func (v *View) setDocument(documentID string) {
	v.document = domain.Document{ID: documentID, Name: documentID}
	for _, d := range v.catalog.Documents() {
		if d.ID == documentID {
			v.document = d
			return
		}
	}
}

// showPage displays a page and reports it to the engine as reading context.
func (v *View) showPage(documentID string, page int, text string) {
	if documentID != v.document.ID {
		v.setDocument(documentID)
		v.clearSelection()
	} else if page != v.page {
		v.clearSelection()
	}
	v.page = page
	v.text = text
	v.scroll = 0
	v.err = nil
	v.wrap()
	v.workbench.Scroll(documentID, page, text)
}

// applyConnections shows a snapshot published by the engine.
func (v *View) applyConnections(view domain.ConnectionsView) {
	if view.Context.Identity != v.identity {
		v.identity = view.Context.Identity
		v.panel = PanelNone
	}
	v.connections.SetResults(view.Results)
	if v.connections.IsEmpty() {
		v.focus = FocusPage
	}
	v.bar.SetView(view)
}

func (v *View) clearSelection() {
	v.selection = ""
	v.selecting = false
	v.passage.Blur()
}

// Layout: the page takes three fifths of the width, the side panel the rest.
func (v *View) pageWidth() int {
	return max(v.width*3/5, 20)
}

func (v *View) panelWidth() int {
	return max(v.width-v.pageWidth()-2, 20)
}

func (v *View) bodyHeight() int {
	// Title, blank line, passage line and status bar.
	return max(v.height-5, 3)
}

func (v *View) wrap() {
	if v.text == "" {
		v.lines = nil
		return
	}
	wrapped := v.styles.Page.Width(v.pageWidth()).Render(v.text)
	v.lines = strings.Split(wrapped, "\n")
}

func (v *View) maxScroll() int {
	return max(len(v.lines)-v.bodyHeight(), 0)
}

// View renders the reader.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.renderTitle())
	b.WriteString("\n\n")

	body := lipgloss.JoinHorizontal(lipgloss.Top, v.renderPage(), v.renderPanel())
	b.WriteString(body)
	b.WriteString("\n")

	b.WriteString(v.renderPassageLine())
	b.WriteString("\n")

	v.bar.SetWidth(v.width)
	b.WriteString(v.bar.View())
	return b.String()
}

func (v *View) renderTitle() string {
	if v.document.ID == "" {
		return v.styles.Title.Render("No document open")
	}
	name := v.document.Name
	if name == "" {
		name = v.document.ID
	}
	title := v.styles.Title.Render(name)
	if v.document.Pages > 0 {
		title += v.styles.Muted.Render(fmt.Sprintf("  page %d of %d", v.page, v.document.Pages))
	}
	return title
}

func (v *View) renderPage() string {
	height := v.bodyHeight()
	var content string
	switch {
	case v.document.ID == "":
		content = v.styles.Muted.Render("Press o to open a document.")
	case len(v.lines) == 0:
		content = v.styles.Muted.Render("(empty page)")
	default:
		end := min(v.scroll+height, len(v.lines))
		content = strings.Join(v.lines[v.scroll:end], "\n")
	}
	return lipgloss.NewStyle().Width(v.pageWidth()).Height(height).Render(content)
}

func (v *View) renderPanel() string {
	width := v.panelWidth()
	inner := max(width-4, 10)

	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Connections (%d)", v.connections.Count())))
	b.WriteString("\n")

	listHeight := v.bodyHeight() - 3
	if v.panel != PanelNone {
		listHeight /= 2
	}
	v.connections.SetDimensions(inner, max(listHeight, 2))
	b.WriteString(v.connections.View())

	switch v.panel {
	case PanelInsights:
		b.WriteString("\n\n")
		b.WriteString(v.renderInsights(inner))
	case PanelAudio:
		b.WriteString("\n\n")
		b.WriteString(v.renderAudio(inner))
	case PanelNone:
	}

	style := v.styles.Panel
	if v.focus == FocusConnections {
		style = v.styles.FocusedPanel
	}
	return style.Width(width - 2).Height(v.bodyHeight() - 2).Render(b.String())
}

func (v *View) renderInsights(width int) string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Insights"))
	b.WriteString("\n")

	a := v.insight
	if a == nil {
		return b.String()
	}
	if a.Failed() {
		b.WriteString(v.styles.Error.Render(a.Err.Message))
		if a.Err.CanRetry {
			b.WriteString(v.styles.Muted.Render("  [i] retry"))
		}
		return b.String()
	}
	if a.Degraded {
		b.WriteString(v.styles.Warning.Render("Shown as received."))
		b.WriteString("\n")
	}
	if a.Insights.Count() == 0 {
		b.WriteString(v.styles.Muted.Render("No insights generated."))
		return b.String()
	}
	for _, category := range a.Insights.Categories() {
		if len(category.Items) == 0 {
			continue
		}
		b.WriteString(v.styles.Normal.Bold(true).Render(category.Label))
		b.WriteString("\n")
		for _, item := range category.Items {
			b.WriteString(lipgloss.NewStyle().Width(width).Render("- " + item.Insight))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v *View) renderAudio(width int) string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Audio"))
	b.WriteString("\n")

	a := v.audio
	if a == nil {
		return b.String()
	}
	if a.Failed() {
		b.WriteString(v.styles.Error.Render(a.Err.Message))
		b.WriteString("\n")
	} else {
		b.WriteString(v.styles.Success.Render(a.AudioURL))
		b.WriteString("\n")
	}
	if a.Script != "" {
		b.WriteString(v.styles.Muted.Width(width).Render(a.Script))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (v *View) renderPassageLine() string {
	switch {
	case v.confirm != nil:
		return v.styles.Warning.Render(v.confirm.Message) + v.styles.Muted.Render("  [y/n]")
	case v.selecting:
		return v.passage.View()
	case v.err != nil:
		return v.styles.Error.Render("Error: " + v.err.Error())
	case v.selection != "":
		return v.styles.Muted.Render("Selected: ") +
			v.styles.Passage.Render(clip(v.selection, max(v.width-12, 10)))
	default:
		return ""
	}
}

func clip(s string, limit int) string {
	runes := []rune(strings.Join(strings.Fields(s), " "))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit-3]) + "..."
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.passage.SetWidth(width)
	v.wrap()
	v.scroll = min(v.scroll, v.maxScroll())
}

// Document returns the open document.
func (v *View) Document() domain.Document {
	return v.document
}

// Page returns the page shown.
func (v *View) Page() int {
	return v.page
}

// Text returns the text of the page shown.
func (v *View) Text() string {
	return v.text
}

// Selection returns the selected passage, if any.
func (v *View) Selection() string {
	return v.selection
}

// Selecting reports whether the passage prompt is open.
func (v *View) Selecting() bool {
	return v.selecting
}

// Focus returns the focused pane.
func (v *View) Focus() Focus {
	return v.focus
}

// Panel returns what the side panel shows.
func (v *View) Panel() Panel {
	return v.panel
}

// Connections returns the connection list component.
func (v *View) Connections() *list.ConnectionList {
	return v.connections
}

// StatusBar returns the status bar component.
func (v *View) StatusBar() *status.Bar {
	return v.bar
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
