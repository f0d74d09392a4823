// Package doctor provides the environment diagnostics view for the TUI.
package doctor

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
)

// View is the environment diagnostics view.
type View struct {
	styles *styles.Styles
	doctor driving.Doctor

	results []driving.CheckResult
	live    bool
	width   int
	height  int
	ready   bool
	err     error
	loading bool
}

// NewView creates a new doctor view.
func NewView(s *styles.Styles, doctor driving.Doctor) *View {
	return &View{
		styles: s,
		doctor: doctor,
	}
}

// Init initialises the view and runs the checks.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return v.runChecks(false)
}

// runChecks returns a command that runs the environment checks.
func (v *View) runChecks(live bool) tea.Cmd {
	return func() tea.Msg {
		if v.doctor == nil {
			return messages.ChecksCompleted{Err: fmt.Errorf("doctor service not available")}
		}

		results := v.doctor.Diagnose(context.Background(), live)
		return messages.ChecksCompleted{Live: live, Results: results}
	}
}

// Update handles messages for the doctor view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ChecksCompleted:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.results = msg.Results
			v.live = msg.Live
			v.err = nil
		}
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "r":
		// Re-run the quick checks
		v.loading = true
		cmd := v.runChecks(false)
		return v, cmd
	case "l":
		// Re-run with provider pings
		v.loading = true
		cmd := v.runChecks(true)
		return v, cmd
	case "q":
		return v, tea.Quit
	}

	return v, nil
}

// View renders the doctor view.
func (v *View) View() string {
	var b strings.Builder

	// Title
	title := "Doctor"
	if v.live {
		title = "Doctor (live)"
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	// Loading state
	if v.loading {
		b.WriteString(v.styles.Muted.Render("Running checks..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	// Error state
	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	// Check results
	failed := 0
	for i := range v.results {
		if v.results[i].Status == driving.CheckFail {
			failed++
		}
		b.WriteString(v.renderResult(&v.results[i]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if failed > 0 {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("%d check(s) failed. Conversions will not work until they are fixed.", failed)))
	} else if len(v.results) > 0 {
		b.WriteString(v.styles.Success.Render("Environment is ready."))
	}
	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderResult renders one check result line.
func (v *View) renderResult(result *driving.CheckResult) string {
	line := fmt.Sprintf("  %-12s %s", result.Name, result.Detail)

	switch result.Status {
	case driving.CheckPass:
		return v.styles.Success.Render("  [ok]  ") + v.styles.Normal.Render(line)
	case driving.CheckWarn:
		return v.styles.Warning.Render("  [warn]") + v.styles.Normal.Render(line)
	case driving.CheckFail:
		return v.styles.Error.Render("  [fail]") + v.styles.Normal.Render(line)
	default:
		return v.styles.Muted.Render("  [?]   ") + v.styles.Normal.Render(line)
	}
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[r] re-run  [l] live checks  [esc] back  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Results returns the current check results.
func (v *View) Results() []driving.CheckResult {
	return v.results
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
