// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewRuns is the conversion run history view.
	ViewRuns
	// ViewRunDetail shows stage progress for a single run.
	ViewRunDetail
	// ViewCache is the extraction cache view.
	ViewCache
	// ViewDoctor is the environment diagnostics view.
	ViewDoctor
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewRuns:
		return "runs"
	case ViewRunDetail:
		return "run_detail"
	case ViewCache:
		return "cache"
	case ViewDoctor:
		return "doctor"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}

// RunsLoaded carries the run history from the orchestrator.
type RunsLoaded struct {
	Runs []*domain.PipelineRun
	Err  error
}

// RunSelected signals a run was selected for detail view.
type RunSelected struct {
	Run *domain.PipelineRun
}

// RunStatusLoaded carries a refreshed snapshot of a single run.
type RunStatusLoaded struct {
	Run *domain.PipelineRun
	Err error
}

// RunDeleted signals a run record was removed.
type RunDeleted struct {
	ID  string
	Err error
}

// CacheLoaded carries the extraction cache entries.
type CacheLoaded struct {
	Entries []domain.CacheSummary
	Err     error
}

// CacheEntryRemoved signals a cache entry was removed.
type CacheEntryRemoved struct {
	DocumentID string
	Err        error
}

// CacheCleared signals the whole cache was cleared.
type CacheCleared struct {
	Err error
}

// ChecksCompleted carries environment diagnostic results.
type ChecksCompleted struct {
	Live    bool
	Results []driving.CheckResult
	Err     error
}
