// Package tui provides an interactive terminal dashboard for slidecast.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Pipeline provides run history and status.
	Pipeline driving.PipelineOrchestrator

	// Cache manages the extraction cache.
	Cache driving.CacheService

	// Doctor diagnoses the local environment.
	Doctor driving.Doctor
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	pipeline driving.PipelineOrchestrator,
	cache driving.CacheService,
	doctor driving.Doctor,
) *Ports {
	return &Ports{
		Pipeline: pipeline,
		Cache:    cache,
		Doctor:   doctor,
	}
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipelineService
	}
	// Cache and Doctor are optional; their views degrade.
	return nil
}
