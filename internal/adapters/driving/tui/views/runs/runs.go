// Package runs provides the conversion run history view for the TUI.
package runs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
)

// View is the run history view.
type View struct {
	styles   *styles.Styles
	pipeline driving.PipelineOrchestrator

	runs     []*domain.PipelineRun
	selected int
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new run history view.
func NewView(s *styles.Styles, pipeline driving.PipelineOrchestrator) *View {
	return &View{
		styles:   s,
		pipeline: pipeline,
		runs:     []*domain.PipelineRun{},
	}
}

// Init initialises the view and loads the run history.
func (v *View) Init() tea.Cmd {
	return v.loadRuns()
}

// loadRuns returns a command that loads run history from the orchestrator.
func (v *View) loadRuns() tea.Cmd {
	return func() tea.Msg {
		if v.pipeline == nil {
			return messages.RunsLoaded{Err: fmt.Errorf("pipeline service not available")}
		}

		runs, err := v.pipeline.Runs(context.Background(), 0)
		return messages.RunsLoaded{Runs: runs, Err: err}
	}
}

// Update handles messages for the runs view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RunsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.runs = msg.Runs
			v.err = nil
			if v.selected >= len(v.runs) && len(v.runs) > 0 {
				v.selected = len(v.runs) - 1
			}
		}
		return v, nil

	case messages.RunDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		// Reload runs after removal
		cmd := v.loadRuns()
		return v, cmd
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
		}
	case "down", "j":
		if v.selected < len(v.runs)-1 {
			v.selected++
		}
	case "enter":
		// Navigate to run detail
		if len(v.runs) > 0 && v.selected < len(v.runs) {
			run := v.runs[v.selected]
			return v, func() tea.Msg {
				return messages.RunSelected{Run: run}
			}
		}
	case "d", "delete", "backspace":
		// Delete selected run record
		if len(v.runs) > 0 && v.selected < len(v.runs) {
			cmd := v.deleteRun(v.runs[v.selected].ID)
			return v, cmd
		}
	case "r":
		// Reload runs
		v.loading = true
		cmd := v.loadRuns()
		return v, cmd
	case "q":
		return v, tea.Quit
	}

	return v, nil
}

// deleteRun returns a command that deletes a run record.
func (v *View) deleteRun(id string) tea.Cmd {
	return func() tea.Msg {
		if v.pipeline == nil {
			return messages.RunDeleted{ID: id, Err: fmt.Errorf("pipeline service not available")}
		}

		err := v.pipeline.DeleteRun(context.Background(), id)
		return messages.RunDeleted{ID: id, Err: err}
	}
}

// View renders the runs view.
func (v *View) View() string {
	var b strings.Builder

	// Title
	b.WriteString(v.styles.Title.Render("Runs"))
	b.WriteString("\n\n")

	// Loading state
	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading runs..."))
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

	// Empty state
	if len(v.runs) == 0 {
		b.WriteString(v.styles.Muted.Render("No conversion runs yet."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	// Runs list, newest first
	for i := range v.runs {
		line := v.renderRun(i, v.runs[i])
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderRun renders a single run line.
func (v *View) renderRun(index int, run *domain.PipelineRun) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	// Format: > [stage] document (created)
	stageStr := fmt.Sprintf("[%s]", run.Stage)
	name := filepath.Base(run.DocumentPath)
	if name == "." || name == "" {
		name = run.ID
	}
	created := run.CreatedAt.Local().Format("2006-01-02 15:04")

	// Truncate name if needed
	maxNameLen := v.width - len(stageStr) - len(created) - 8
	if maxNameLen < 10 {
		maxNameLen = 10
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen-3] + "..."
	}

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-12s %s  %s", indicator, stageStr, name, created))
	}

	stageStyle := v.styles.Subtitle
	switch run.Stage {
	case domain.StageDone:
		stageStyle = v.styles.Success
	case domain.StageFailed:
		stageStyle = v.styles.Error
	}

	return v.styles.Normal.Render(indicator) +
		stageStyle.Render(fmt.Sprintf("%-12s ", stageStr)) +
		v.styles.Normal.Render(name) +
		v.styles.Muted.Render("  "+created)
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[enter] details  [d] delete  [r] reload  [esc] back  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Runs returns the current list of runs.
func (v *View) Runs() []*domain.PipelineRun {
	return v.runs
}

// SelectedIndex returns the currently selected run index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
