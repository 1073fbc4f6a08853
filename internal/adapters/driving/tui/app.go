package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/views/library"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/views/reader"
	"github.com/custodia-labs/synapse-reader/internal/adapters/driving/tui/views/trail"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// keymap holds the keybindings shown in the help view.
	keymap *keymap.KeyMap

	libraryView *library.View
	readerView  *reader.View
	trailView   *trail.View

	// initialDocument is opened on start when set.
	initialDocument string

	// currentView tracks which view is active.
	currentView messages.ViewType

	// previousView is where the help view returns to.
	previousView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrInvalidPorts)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      keymap.DefaultKeyMap(),
		libraryView: library.NewView(s, ports.Catalog),
		readerView:  reader.NewView(s, ports.Workbench, ports.Catalog, ports.Reader),
		trailView:   trail.NewView(s, ports.Workbench),
		currentView: messages.ViewLibrary,
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.readerView.WithContext(ctx)
	return a
}

// WithDocument opens a document as soon as the program starts.
func (a *App) WithDocument(documentID string) *App {
	a.initialDocument = documentID
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tea.SetWindowTitle("synapse"),
		a.libraryView.Init(),
	}
	if a.initialDocument != "" {
		cmds = append(cmds, a.openDocument(a.initialDocument))
	}
	return tea.Batch(cmds...)
}

func (a *App) openDocument(documentID string) tea.Cmd {
	a.currentView = messages.ViewReader
	a.libraryView.SetCurrent(documentID)
	return a.readerView.Open(documentID)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocyclo,funlen // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		switch a.currentView {
		case messages.ViewLibrary:
			a.libraryView, cmd = a.libraryView.Update(msg)
		case messages.ViewReader:
			a.readerView, cmd = a.readerView.Update(msg)
		case messages.ViewTrail:
			a.trailView, cmd = a.trailView.Update(msg)
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc || msg.String() == "?" {
				a.currentView = a.previousView
			} else if msg.String() == "q" {
				return a, tea.Quit
			}
		}
		return a, cmd

	case messages.ViewChanged:
		if msg.View == messages.ViewHelp {
			a.previousView = a.currentView
		}
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewTrail:
			return a, a.trailView.Init()
		case messages.ViewLibrary:
			a.libraryView.Reload()
		case messages.ViewReader, messages.ViewHelp:
		}
		return a, nil

	case messages.DocumentSelected:
		return a, a.openDocument(msg.Document.ID)

	case messages.DocumentOpened:
		if msg.Err != nil {
			a.err = msg.Err
		}
		a.readerView, cmd = a.readerView.Update(msg)
		return a, cmd

	case messages.PageChanged:
		if msg.Err == nil {
			a.libraryView.SetCurrent(msg.DocumentID)
		}
		a.readerView, cmd = a.readerView.Update(msg)
		return a, cmd

	case messages.ConnectionsUpdated, messages.ConnectionFollowed,
		messages.InsightsGenerated, messages.AudioGenerated, messages.ConfirmRequested:
		a.readerView, cmd = a.readerView.Update(msg)
		return a, cmd

	case messages.BreadcrumbSelected:
		entry := msg.Entry
		ctx := a.ctx
		workbench := a.ports.Workbench
		return a, func() tea.Msg {
			moved, err := workbench.NavigateBreadcrumb(ctx, entry.ID)
			return messages.BreadcrumbVisited{Entry: entry, Moved: moved, Err: err}
		}

	case messages.BreadcrumbVisited:
		a.trailView, _ = a.trailView.Update(msg)
		a.readerView, cmd = a.readerView.Update(msg)
		if msg.Err == nil && msg.Moved {
			a.currentView = messages.ViewReader
		}
		return a, cmd

	case messages.LibraryChanged:
		a.libraryView, _ = a.libraryView.Update(msg)
		a.readerView, cmd = a.readerView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewLibrary:
			a.libraryView, cmd = a.libraryView.Update(msg)
		case messages.ViewReader:
			a.readerView, cmd = a.readerView.Update(msg)
		case messages.ViewTrail, messages.ViewHelp:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages (cursor blinks) to the active view
	if a.currentView == messages.ViewReader {
		a.readerView, cmd = a.readerView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
// It renders the current view as a string.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewReader:
		return a.readerView.View()
	case messages.ViewTrail:
		return a.trailView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewLibrary:
		return a.libraryView.View()
	default:
		return a.libraryView.View()
	}
}

// viewHelp renders the help view from the keymap.
func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")

	for _, group := range a.keymap.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %-10s %s\n", h.Key, h.Desc))
		}
		b.WriteString("\n")
	}

	b.WriteString(a.styles.Help.Render("[esc] back"))
	return b.String()
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Reader returns the reader view.
func (a *App) Reader() *reader.View {
	return a.readerView
}

// Library returns the library view.
func (a *App) Library() *library.View {
	return a.libraryView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.libraryView.SetDimensions(width, height)
	a.readerView.SetDimensions(width, height)
	a.trailView.SetDimensions(width, height)
}
