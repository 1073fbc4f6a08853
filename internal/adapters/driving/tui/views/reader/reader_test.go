package reader

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

type fixture struct {
	view      *View
	workbench *mockWorkbench
	reader    *mockReader
}

func newFixture() *fixture {
	catalog := newMockCatalog()
	rd := &mockReader{catalog: catalog}
	wb := &mockWorkbench{reader: rd}
	v := NewView(nil, wb, catalog, rd)
	v.SetDimensions(100, 30)
	return &fixture{view: v, workbench: wb, reader: rd}
}

// run executes a command chain until it yields no message, feeding each
// message back into the view.
func (f *fixture) run(cmd tea.Cmd) []tea.Msg {
	var seen []tea.Msg
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		seen = append(seen, msg)
		f.view, cmd = f.view.Update(msg)
	}
	return seen
}

func (f *fixture) key(k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	var cmd tea.Cmd
	f.view, cmd = f.view.Update(msg)
	return cmd
}

func (f *fixture) open(t *testing.T, id string) {
	t.Helper()
	f.run(f.view.Open(id))
	require.NoError(t, f.view.Err())
}

func testView(results ...domain.ConnectionResult) domain.ConnectionsView {
	state := domain.ConnectionReady
	if len(results) == 0 {
		state = domain.ConnectionEmpty
	}
	return domain.ConnectionsView{
		Context: domain.CanonicalContext{Identity: domain.ContentIdentity{
			Kind: domain.SignalReading, DocumentID: "paper-a", Identifier: "page_1",
		}},
		Results: results,
		State:   state,
	}
}

func TestView_OpenShowsFirstPageAndScrolls(t *testing.T) {
	f := newFixture()

	f.open(t, "paper-a")

	assert.Equal(t, []string{"paper-a"}, f.workbench.switched)
	assert.Equal(t, "Neural Plasticity", f.view.Document().Name)
	assert.Equal(t, 1, f.view.Page())
	assert.Equal(t, "Neural plasticity in adults.", f.view.Text())
	require.Len(t, f.workbench.scrolls, 1)
	assert.Equal(t, scrollCall{"paper-a", 1, "Neural plasticity in adults."}, f.workbench.scrolls[0])

	view := f.view.View()
	assert.Contains(t, view, "page 1 of 2")
	assert.Contains(t, view, "Neural plasticity in adults.")
}

func TestView_OpenUnknownDocument(t *testing.T) {
	f := newFixture()

	f.run(f.view.Open("missing"))

	assert.ErrorIs(t, f.view.Err(), domain.ErrNotFound)
}

func TestView_PageTurns(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")

	f.run(f.key("l"))
	assert.Equal(t, 2, f.view.Page())
	assert.Equal(t, "Synaptic pruning during sleep.", f.view.Text())

	assert.Nil(t, f.key("l"), "last page")

	f.run(f.key("h"))
	assert.Equal(t, 1, f.view.Page())
	assert.Len(t, f.workbench.scrolls, 3)

	assert.Nil(t, f.key("h"), "first page")
}

func TestView_ConnectionsUpdated(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")

	f.view.Update(messages.ConnectionsUpdated{View: testView(
		domain.ConnectionResult{SourceDocumentID: "paper-b", DocumentName: "Sleep and Memory", PageNumber: 1, TextSnippet: "Memory consolidation", RelevanceScore: 0.8},
	)})

	assert.Equal(t, 1, f.view.Connections().Count())
	assert.Equal(t, domain.ConnectionReady, f.view.StatusBar().State())
	assert.Contains(t, f.view.View(), "Sleep and Memory p.1")
}

func TestView_FocusRequiresConnections(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")

	f.key("tab")
	assert.Equal(t, FocusPage, f.view.Focus())

	f.view.Update(messages.ConnectionsUpdated{View: testView(domain.ConnectionResult{SourceDocumentID: "paper-b", PageNumber: 1})})
	f.key("tab")
	assert.Equal(t, FocusConnections, f.view.Focus())

	f.view.Update(messages.ConnectionsUpdated{View: testView()})
	assert.Equal(t, FocusPage, f.view.Focus())
}

func TestView_FollowConnection(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")
	target := domain.ConnectionResult{SourceDocumentID: "paper-b", PageNumber: 1, RelevanceScore: 0.8}
	f.view.Update(messages.ConnectionsUpdated{View: testView(target)})
	f.key("tab")

	msgs := f.run(f.key("enter"))

	require.NotEmpty(t, msgs)
	followed, ok := msgs[0].(messages.ConnectionFollowed)
	require.True(t, ok)
	assert.True(t, followed.Moved)
	assert.Equal(t, []domain.ConnectionResult{target}, f.workbench.followed)
	assert.Equal(t, "paper-b", f.view.Document().ID)
	assert.Equal(t, "Memory consolidation overnight.", f.view.Text())
	assert.Equal(t, FocusPage, f.view.Focus())
}

func TestView_FollowConnectionFailure(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")
	f.workbench.moveErr = domain.ErrViewerNotReady
	f.view.Update(messages.ConnectionsUpdated{View: testView(domain.ConnectionResult{SourceDocumentID: "paper-b", PageNumber: 1})})
	f.key("tab")

	f.run(f.key("enter"))

	assert.ErrorIs(t, f.view.Err(), domain.ErrViewerNotReady)
	assert.Equal(t, "paper-a", f.view.Document().ID)
}

func TestView_FollowConnectionNotMoved(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")

	f.view.Update(messages.ConnectionFollowed{
		Result: domain.ConnectionResult{SourceDocumentID: "paper-b", PageNumber: 9},
	})

	require.Error(t, f.view.Err())
	assert.Contains(t, f.view.Err().Error(), "paper-b page 9")
}

func TestView_SelectPassage(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")

	f.key("s")
	require.True(t, f.view.Selecting())
	for _, r := range "plasticity" {
		f.key(string(r))
	}
	f.run(f.key("enter"))

	assert.False(t, f.view.Selecting())
	assert.Equal(t, "plasticity", f.view.Selection())
	assert.Equal(t, []string{"plasticity"}, f.reader.selects)
	assert.Contains(t, f.view.View(), "Selected:")

	f.run(f.key("esc"))
	assert.Empty(t, f.view.Selection())
	assert.Equal(t, 1, f.reader.deselects)
}

func TestView_SelectPassageCancelled(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")

	f.key("s")
	f.key("x")
	f.key("esc")

	assert.False(t, f.view.Selecting())
	assert.Empty(t, f.view.Selection())
	assert.Empty(t, f.reader.selects)
}

func TestView_SelectPassageNeedsDocument(t *testing.T) {
	f := newFixture()

	f.key("s")

	assert.False(t, f.view.Selecting())
}

func TestView_PageTurnClearsSelection(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")
	f.key("s")
	f.key("x")
	f.run(f.key("enter"))
	require.Equal(t, "x", f.view.Selection())

	f.run(f.key("l"))

	assert.Empty(t, f.view.Selection())
}

func TestView_GenerateInsights(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")
	f.workbench.insight = &domain.InsightArtifact{Insights: domain.Insights{
		KeyTakeaways: []domain.InsightItem{{Insight: "Sleep prunes synapses."}},
	}}

	cmd := f.key("i")
	assert.Equal(t, "insights", f.view.StatusBar().Generating())
	assert.Nil(t, f.key("a"), "one generation at a time")

	f.run(cmd)

	assert.Empty(t, f.view.StatusBar().Generating())
	assert.Equal(t, PanelInsights, f.view.Panel())
	assert.Contains(t, f.view.View(), "Sleep prunes synapses.")

	f.key("esc")
	assert.Equal(t, PanelNone, f.view.Panel())
}

func TestView_GenerateInsightsFailed(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")
	f.workbench.insight = &domain.InsightArtifact{Err: &domain.GenerationError{Message: "Rate limited", CanRetry: true}}

	f.run(f.key("i"))

	view := f.view.View()
	assert.Contains(t, view, "Rate limited")
	assert.Contains(t, view, "retry")
}

func TestView_GenerateAudio(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")
	f.workbench.audio = &domain.AudioArtifact{AudioURL: "http://backend/audio/1.mp3", Script: "Today we explore plasticity."}

	f.run(f.key("a"))

	assert.Equal(t, PanelAudio, f.view.Panel())
	view := f.view.View()
	assert.Contains(t, view, "http://backend/audio/1.mp3")
}

func TestView_GenerationError(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")

	f.view.Update(messages.InsightsGenerated{Err: errors.New("no context")})

	assert.EqualError(t, f.view.Err(), "no context")
	assert.Equal(t, PanelNone, f.view.Panel())
}

func TestView_NewContextClosesArtifactPanel(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")
	f.view.Update(messages.ConnectionsUpdated{View: testView()})
	f.view.Update(messages.AudioGenerated{Artifact: &domain.AudioArtifact{AudioURL: "u"}})
	require.Equal(t, PanelAudio, f.view.Panel())

	f.view.Update(messages.ConnectionsUpdated{View: testView()})
	assert.Equal(t, PanelAudio, f.view.Panel(), "same context keeps the panel")

	next := testView()
	next.Context.Identity.Identifier = "page_2"
	f.view.Update(messages.ConnectionsUpdated{View: next})
	assert.Equal(t, PanelNone, f.view.Panel())
}

func TestView_NavigationKeys(t *testing.T) {
	tests := []struct {
		key  string
		want messages.ViewType
	}{
		{"b", messages.ViewTrail},
		{"o", messages.ViewLibrary},
		{"?", messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			f := newFixture()
			cmd := f.key(tt.key)
			require.NotNil(t, cmd)
			assert.Equal(t, messages.ViewChanged{View: tt.want}, cmd())
		})
	}
}

func TestView_EscWithNothingToCloseGoesToLibrary(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")

	cmd := f.key("esc")

	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewLibrary}, cmd())
}

func TestView_Quit(t *testing.T) {
	f := newFixture()

	cmd := f.key("q")

	require.NotNil(t, cmd)
	assert.Equal(t, messages.Quit{}, cmd())
}

func TestView_LibraryChangedReloadsCurrentDocument(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")

	f.run(func() tea.Msg { return messages.LibraryChanged{DocumentID: "paper-b"} })
	assert.Len(t, f.workbench.scrolls, 1)

	f.run(func() tea.Msg { return messages.LibraryChanged{DocumentID: "paper-a"} })
	assert.Len(t, f.workbench.scrolls, 2)
}

func TestView_EmptyViewRenders(t *testing.T) {
	f := newFixture()

	view := f.view.View()

	assert.Contains(t, view, "No document open")
	assert.Contains(t, view, "Press o to open a document.")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "a b", clip("a \n b", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
}

func TestView_ConfirmPrompt(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")
	reply := make(chan bool, 1)

	f.view.Update(messages.ConfirmRequested{Message: "Replace the current insights?", Reply: reply})
	assert.Contains(t, f.view.View(), "Replace the current insights?")

	assert.Nil(t, f.key("l"), "keys wait for an answer")
	f.key("y")

	assert.True(t, <-reply)
	assert.NotContains(t, f.view.View(), "[y/n]")
}

func TestView_ConfirmSupersededIsDeclined(t *testing.T) {
	f := newFixture()
	first := make(chan bool, 1)
	second := make(chan bool, 1)

	f.view.Update(messages.ConfirmRequested{Message: "one", Reply: first})
	f.view.Update(messages.ConfirmRequested{Message: "two", Reply: second})
	f.key("n")

	assert.False(t, <-first)
	assert.False(t, <-second)
}

func TestView_DeclinedRegenerationKeepsArtifact(t *testing.T) {
	f := newFixture()
	f.open(t, "paper-a")
	existing := &domain.InsightArtifact{Insights: domain.Insights{
		DidYouKnow: []domain.InsightItem{{Insight: "Sleep spindles help."}},
	}}

	f.view.Update(messages.InsightsGenerated{Artifact: existing, Err: domain.ErrRegenerationDeclined})

	assert.NoError(t, f.view.Err())
	assert.Equal(t, PanelInsights, f.view.Panel())
	assert.Contains(t, f.view.View(), "Sleep spindles help.")
}
