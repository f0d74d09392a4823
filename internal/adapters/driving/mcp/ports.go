package mcp

import (
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Pipeline runs and inspects conversions.
	Pipeline driving.PipelineOrchestrator

	// Cache manages the extraction cache.
	Cache driving.CacheService

	// Settings supplies stored conversion defaults.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipelineService
	}
	// Cache and Settings are optional
	return nil
}
