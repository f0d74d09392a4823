// Package mcp provides an MCP (Model Context Protocol) server adapter for Slidecast.
// It lets AI assistants convert documents and inspect conversion runs and artifacts.
package mcp

import "errors"

// ErrMissingPipelineService is returned when the pipeline service is not provided.
var ErrMissingPipelineService = errors.New("mcp: pipeline service is required")
