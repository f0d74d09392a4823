// Package cache provides the extraction cache view component for the TUI.
package cache

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/slidecast/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
)

// View is the extraction cache view.
type View struct {
	styles       *styles.Styles
	cacheService driving.CacheService

	entries  []domain.CacheSummary
	selected int
	width    int
	height   int
	ready    bool
	err      error
	loading  bool
}

// NewView creates a new cache view.
func NewView(s *styles.Styles, cacheService driving.CacheService) *View {
	return &View{
		styles:       s,
		cacheService: cacheService,
		entries:      []domain.CacheSummary{},
	}
}

// Init initialises the view and loads cache entries.
func (v *View) Init() tea.Cmd {
	return v.loadEntries()
}

// loadEntries returns a command that loads cache entries from the service.
func (v *View) loadEntries() tea.Cmd {
	return func() tea.Msg {
		if v.cacheService == nil {
			return messages.CacheLoaded{Err: fmt.Errorf("cache service not available")}
		}

		entries, err := v.cacheService.List(context.Background())
		return messages.CacheLoaded{Entries: entries, Err: err}
	}
}

// Update handles messages for the cache view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.CacheLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.entries = msg.Entries
			v.err = nil
			if v.selected >= len(v.entries) && len(v.entries) > 0 {
				v.selected = len(v.entries) - 1
			}
		}
		return v, nil

	case messages.CacheEntryRemoved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		// Reload entries after removal
		cmd := v.loadEntries()
		return v, cmd

	case messages.CacheCleared:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		cmd := v.loadEntries()
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
		if v.selected < len(v.entries)-1 {
			v.selected++
		}
	case "d", "delete", "backspace":
		// Remove selected entry
		if len(v.entries) > 0 && v.selected < len(v.entries) {
			cmd := v.removeEntry(v.entries[v.selected].DocumentID)
			return v, cmd
		}
	case "x":
		// Clear the whole cache
		cmd := v.clearCache()
		return v, cmd
	case "r":
		// Reload entries
		v.loading = true
		cmd := v.loadEntries()
		return v, cmd
	case "q":
		return v, tea.Quit
	}

	return v, nil
}

// removeEntry returns a command that removes one cache entry.
func (v *View) removeEntry(documentID string) tea.Cmd {
	return func() tea.Msg {
		if v.cacheService == nil {
			return messages.CacheEntryRemoved{DocumentID: documentID, Err: fmt.Errorf("cache service not available")}
		}

		err := v.cacheService.Remove(context.Background(), documentID)
		return messages.CacheEntryRemoved{DocumentID: documentID, Err: err}
	}
}

// clearCache returns a command that clears all cache entries.
func (v *View) clearCache() tea.Cmd {
	return func() tea.Msg {
		if v.cacheService == nil {
			return messages.CacheCleared{Err: fmt.Errorf("cache service not available")}
		}

		err := v.cacheService.Clear(context.Background())
		return messages.CacheCleared{Err: err}
	}
}

// View renders the cache view.
func (v *View) View() string {
	var b strings.Builder

	// Title
	b.WriteString(v.styles.Title.Render("Extraction Cache"))
	b.WriteString("\n\n")

	// Loading state
	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading cache entries..."))
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
	if len(v.entries) == 0 {
		b.WriteString(v.styles.Muted.Render("Extraction cache is empty."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	// Entries list
	for i := range v.entries {
		line := v.renderEntry(i, &v.entries[i])
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderEntry renders a single cache entry line.
func (v *View) renderEntry(index int, entry *domain.CacheSummary) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	// Format: > documentID  summary (cached)
	summary := fmt.Sprintf("%d pages, %d figures", entry.Pages, entry.Figures)
	if entry.Failed {
		summary = "failed extraction"
	}
	cached := entry.CachedAt.Local().Format("2006-01-02 15:04")

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-16s %s  %s", indicator, shortID(entry.DocumentID), summary, cached))
	}

	summaryStyle := v.styles.Normal
	if entry.Failed {
		summaryStyle = v.styles.Error
	}

	return v.styles.Normal.Render(indicator) +
		v.styles.Subtitle.Render(fmt.Sprintf("%-16s ", shortID(entry.DocumentID))) +
		summaryStyle.Render(summary) +
		v.styles.Muted.Render("  "+cached)
}

// shortID truncates a content hash for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[d] remove  [x] clear all  [r] reload  [esc] back  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Entries returns the current cache entries.
func (v *View) Entries() []domain.CacheSummary {
	return v.entries
}

// SelectedIndex returns the currently selected entry index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
