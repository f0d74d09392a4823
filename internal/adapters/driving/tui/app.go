package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/views/cache"
	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/views/doctor"
	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/views/rundetail"
	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/views/runs"
	"github.com/custodia-labs/slidecast/internal/core/domain"
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

	// menuView is the main navigation menu.
	menuView *menu.View

	// runsView is the run history view component.
	runsView *runs.View

	// runDetailView is the run detail view component.
	runDetailView *rundetail.View

	// cacheView is the extraction cache view component.
	cacheView *cache.View

	// doctorView is the environment diagnostics view component.
	doctorView *doctor.View

	// selectedRun tracks the currently selected run for navigation.
	selectedRun *domain.PipelineRun

	// currentView tracks which view is active.
	currentView messages.ViewType

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
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	menuView := menu.NewView(s)
	runsView := runs.NewView(s, ports.Pipeline)
	runDetailView := rundetail.NewView(s, ports.Pipeline)
	cacheView := cache.NewView(s, ports.Cache)
	doctorView := doctor.NewView(s, ports.Doctor)

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		menuView:      menuView,
		runsView:      runsView,
		runDetailView: runDetailView,
		cacheView:     cacheView,
		doctorView:    doctorView,
		currentView:   messages.ViewMenu, // Start with menu
	}, nil
}

// WithContext sets the context for the app.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
// It runs initial commands when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("slidecast - Document to Video"),
	)
}

// Update implements tea.Model.
// It handles messages and updates the model state.
//
//nolint:gocognit,gocyclo // central message handler requires complexity
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		// Forward to all views for proper sizing
		a.menuView.SetDimensions(msg.Width, msg.Height)
		a.runsView.SetDimensions(msg.Width, msg.Height)
		a.runDetailView.SetDimensions(msg.Width, msg.Height)
		a.cacheView.SetDimensions(msg.Width, msg.Height)
		a.doctorView.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		// Global quit with ctrl+c
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

		// Forward key messages to active view
		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
			return a, cmd

		case messages.ViewRuns:
			// Esc from runs goes to menu
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
				return a, nil
			}
			a.runsView, cmd = a.runsView.Update(msg)
			return a, cmd

		case messages.ViewRunDetail:
			a.runDetailView, cmd = a.runDetailView.Update(msg)
			return a, cmd

		case messages.ViewCache:
			// Esc from cache goes to menu
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
				return a, nil
			}
			a.cacheView, cmd = a.cacheView.Update(msg)
			return a, cmd

		case messages.ViewDoctor:
			// Esc from doctor goes to menu
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
				return a, nil
			}
			a.doctorView, cmd = a.doctorView.Update(msg)
			return a, cmd

		case messages.ViewHelp:
			// Esc from help goes to menu
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
				return a, nil
			}
			return a, nil
		}
		return a, nil

	case messages.ViewChanged:
		a.currentView = msg.View
		// Initialise views when switching to them
		switch msg.View {
		case messages.ViewRuns:
			return a, a.runsView.Init()
		case messages.ViewRunDetail:
			return a, a.runDetailView.Init()
		case messages.ViewCache:
			return a, a.cacheView.Init()
		case messages.ViewDoctor:
			return a, a.doctorView.Init()
		case messages.ViewMenu, messages.ViewHelp:
			// Other views don't need special initialisation
		}
		return a, nil

	case messages.RunSelected:
		// Navigate from runs to run detail
		a.selectedRun = msg.Run
		a.runDetailView.SetRun(msg.Run)
		a.currentView = messages.ViewRunDetail
		return a, a.runDetailView.Init()

	case messages.RunsLoaded:
		a.runsView, cmd = a.runsView.Update(msg)
		return a, cmd

	case messages.RunStatusLoaded:
		a.runDetailView, cmd = a.runDetailView.Update(msg)
		return a, cmd

	case messages.RunDeleted:
		// Forward to whichever view initiated the deletion
		if a.currentView == messages.ViewRunDetail {
			a.runDetailView, cmd = a.runDetailView.Update(msg)
			return a, cmd
		}
		a.runsView, cmd = a.runsView.Update(msg)
		return a, cmd

	case messages.CacheLoaded, messages.CacheEntryRemoved, messages.CacheCleared:
		a.cacheView, cmd = a.cacheView.Update(msg)
		return a, cmd

	case messages.ChecksCompleted:
		a.doctorView, cmd = a.doctorView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		// Forward to current view
		switch a.currentView {
		case messages.ViewRunDetail:
			a.runDetailView, cmd = a.runDetailView.Update(msg)
		case messages.ViewMenu, messages.ViewRuns, messages.ViewCache,
			messages.ViewDoctor, messages.ViewHelp:
			// Other views don't handle error messages
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages to active view
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewRuns:
		a.runsView, cmd = a.runsView.Update(msg)
	case messages.ViewRunDetail:
		a.runDetailView, cmd = a.runDetailView.Update(msg)
	case messages.ViewCache:
		a.cacheView, cmd = a.cacheView.Update(msg)
	case messages.ViewDoctor:
		a.doctorView, cmd = a.doctorView.Update(msg)
	case messages.ViewHelp:
		// Help view doesn't need to handle other messages
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
	case messages.ViewMenu:
		return a.menuView.View()
	case messages.ViewRuns:
		return a.runsView.View()
	case messages.ViewRunDetail:
		return a.runDetailView.View()
	case messages.ViewCache:
		return a.cacheView.View()
	case messages.ViewDoctor:
		return a.doctorView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back to Menu
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Runs:
  j/k, ↑/↓    Navigate runs
  enter       Stage details
  d           Delete run record
  r           Reload

Cache:
  d           Remove entry
  x           Clear all entries
  r           Reload

Doctor:
  r           Re-run checks
  l           Live checks (pings providers)

[esc] back to menu`
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// SelectedRun returns the run selected for the detail view.
func (a *App) SelectedRun() *domain.PipelineRun {
	return a.selectedRun
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions (for testing).
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	// Forward to all views for proper sizing
	a.menuView.SetDimensions(width, height)
	a.runsView.SetDimensions(width, height)
	a.runDetailView.SetDimensions(width, height)
	a.cacheView.SetDimensions(width, height)
	a.doctorView.SetDimensions(width, height)
}
