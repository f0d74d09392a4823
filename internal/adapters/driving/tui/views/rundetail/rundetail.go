// Package rundetail provides the run detail view component for the TUI.
package rundetail

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
)

// MenuOption represents an action in the run detail menu.
type MenuOption int

const (
	OptionRefresh MenuOption = iota
	OptionDeleteRun
	OptionBack
)

// durationRounding keeps stage durations readable.
const durationRounding = 100 * time.Millisecond

// View is the run detail view.
type View struct {
	styles   *styles.Styles
	pipeline driving.PipelineOrchestrator

	run      *domain.PipelineRun
	selected MenuOption
	width    int
	height   int
	ready    bool
	err      error
	deleting bool
}

// NewView creates a new run detail view.
func NewView(s *styles.Styles, pipeline driving.PipelineOrchestrator) *View {
	return &View{
		styles:   s,
		pipeline: pipeline,
		selected: OptionRefresh,
	}
}

// SetRun sets the run to display details for.
func (v *View) SetRun(run *domain.PipelineRun) {
	v.run = run
	v.err = nil
	v.deleting = false
	v.selected = OptionRefresh
}

// Init initialises the view with a fresh status snapshot.
func (v *View) Init() tea.Cmd {
	return v.refreshStatus()
}

// refreshStatus returns a command that re-fetches the run status.
func (v *View) refreshStatus() tea.Cmd {
	return func() tea.Msg {
		if v.run == nil || v.pipeline == nil {
			return nil
		}

		run, err := v.pipeline.Status(context.Background(), v.run.ID)
		return messages.RunStatusLoaded{Run: run, Err: err}
	}
}

// Update handles messages for the run detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.RunStatusLoaded:
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.run = msg.Run
			v.err = nil
		}
		return v, nil

	case messages.RunDeleted:
		v.deleting = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			// Navigate back after deletion
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewRuns}
			}
		}
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
		if v.selected > OptionRefresh {
			v.selected--
		}
	case "down", "j":
		if v.selected < OptionBack {
			v.selected++
		}
	case "enter":
		return v.handleSelect()
	case "r":
		cmd := v.refreshStatus()
		return v, cmd
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewRuns}
		}
	}

	return v, nil
}

// handleSelect handles selection of a menu option.
func (v *View) handleSelect() (*View, tea.Cmd) {
	switch v.selected {
	case OptionRefresh:
		cmd := v.refreshStatus()
		return v, cmd
	case OptionDeleteRun:
		cmd := v.deleteRun()
		return v, cmd
	case OptionBack:
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewRuns}
		}
	}
	return v, nil
}

// deleteRun returns a command that deletes the run record.
func (v *View) deleteRun() tea.Cmd {
	return func() tea.Msg {
		if v.run == nil || v.pipeline == nil {
			return messages.RunDeleted{Err: fmt.Errorf("pipeline service not available")}
		}

		v.deleting = true
		err := v.pipeline.DeleteRun(context.Background(), v.run.ID)
		return messages.RunDeleted{ID: v.run.ID, Err: err}
	}
}

// View renders the run detail view.
func (v *View) View() string {
	if v.run == nil {
		return v.styles.Muted.Render("No run selected")
	}

	var b strings.Builder

	// Title
	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Run %s", v.run.ID)))
	b.WriteString("\n\n")

	// Run info
	b.WriteString(v.styles.Subtitle.Render("Document: "))
	b.WriteString(v.styles.Normal.Render(v.run.DocumentPath))
	b.WriteString("\n")

	b.WriteString(v.styles.Subtitle.Render("Stage: "))
	b.WriteString(v.stageStyle(v.run.Stage).Render(v.run.Stage.Description()))
	b.WriteString("\n")

	b.WriteString(v.styles.Subtitle.Render("Created: "))
	b.WriteString(v.styles.Muted.Render(v.run.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	b.WriteString("\n")

	if v.run.WorkspaceDir != "" {
		b.WriteString(v.styles.Subtitle.Render("Workspace: "))
		b.WriteString(v.styles.Muted.Render(v.run.WorkspaceDir))
		b.WriteString("\n")
	}

	if v.run.VideoPath != "" {
		b.WriteString(v.styles.Subtitle.Render("Video: "))
		b.WriteString(v.styles.Success.Render(v.run.VideoPath))
		b.WriteString("\n")
	}

	if v.run.Error != "" {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.run.Error)))
		b.WriteString("\n")
	}

	// Stage progress
	b.WriteString("\n")
	for _, stage := range domain.WorkStages() {
		b.WriteString(v.renderStage(stage))
		b.WriteString("\n")
	}

	// View-level error state
	if v.err != nil {
		b.WriteString("\n")
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n")
	}

	if v.deleting {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render("Deleting..."))
		b.WriteString("\n")
	}

	// Menu separator
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", minInt(40, v.width-4)))
	b.WriteString("\n\n")

	// Menu options
	options := []struct {
		option MenuOption
		label  string
	}{
		{OptionRefresh, "Refresh"},
		{OptionDeleteRun, "Delete Run"},
		{OptionBack, "Back"},
	}

	for _, opt := range options {
		indicator := "  "
		if v.selected == opt.option {
			indicator = "> "
			b.WriteString(v.styles.Selected.Render(fmt.Sprintf("%s%s", indicator, opt.label)))
		} else {
			b.WriteString(v.styles.Normal.Render(fmt.Sprintf("%s%s", indicator, opt.label)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderStage renders one stage progress line.
func (v *View) renderStage(stage domain.Stage) string {
	rec := v.run.Stages[stage]
	if rec == nil {
		rec = &domain.StageRecord{Stage: stage, State: domain.StageStatePending}
	}

	line := fmt.Sprintf("  %-12s %s", stage, rec.State)
	if rec.State == domain.StageStateDone && !rec.StartedAt.IsZero() {
		line += fmt.Sprintf(" (%s)", rec.FinishedAt.Sub(rec.StartedAt).Round(durationRounding))
	}
	if rec.Error != "" {
		line += ": " + rec.Error
	}

	switch rec.State {
	case domain.StageStateDone:
		return v.styles.Success.Render(line)
	case domain.StageStateFailed:
		return v.styles.Error.Render(line)
	case domain.StageStateRunning:
		return v.styles.Warning.Render(line)
	default:
		return v.styles.Muted.Render(line)
	}
}

// stageStyle returns the style for a run-level stage.
func (v *View) stageStyle(stage domain.Stage) lipgloss.Style {
	switch stage {
	case domain.StageDone:
		return v.styles.Success
	case domain.StageFailed:
		return v.styles.Error
	default:
		return v.styles.Normal
	}
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] select  [r] refresh  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Run returns the current run.
func (v *View) Run() *domain.PipelineRun {
	return v.run
}

// SelectedOption returns the currently selected menu option.
func (v *View) SelectedOption() MenuOption {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
