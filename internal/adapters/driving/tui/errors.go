package tui

import "errors"

// ErrMissingPipelineService is returned when the pipeline orchestrator is not provided.
var ErrMissingPipelineService = errors.New("tui: pipeline orchestrator is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
