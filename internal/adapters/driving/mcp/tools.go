package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// ConvertInput is the input schema for the convert tool.
type ConvertInput struct {
	Path       string `json:"path" jsonschema:"path to the PDF or Markdown document to convert"`
	Slides     int    `json:"slides,omitempty" jsonschema:"target slide count (0 = automatic)"`
	SlidesOnly bool   `json:"slides_only,omitempty" jsonschema:"stop after rendering, no narration or video"`
	NoFigures  bool   `json:"no_figures,omitempty" jsonschema:"skip figure extraction and embedding"`
	Theme      string `json:"theme,omitempty" jsonschema:"deck theme name"`
}

// ConvertOutput is the output schema for the convert tool.
type ConvertOutput struct {
	RunID     string `json:"run_id"`
	Stage     string `json:"stage"`
	VideoPath string `json:"video_path,omitempty"`
	Workspace string `json:"workspace,omitempty"`
}

// RunStatusInput is the input schema for the run_status tool.
type RunStatusInput struct {
	RunID string `json:"run_id" jsonschema:"the run identifier"`
}

// StageStatus is the per-stage part of a run status.
type StageStatus struct {
	Stage string `json:"stage"`
	State string `json:"state"`
	Error string `json:"error,omitempty"`
}

// RunStatusOutput is the output schema for the run_status tool.
type RunStatusOutput struct {
	RunID     string        `json:"run_id"`
	Document  string        `json:"document"`
	Stage     string        `json:"stage"`
	Stages    []StageStatus `json:"stages"`
	VideoPath string        `json:"video_path,omitempty"`
	Workspace string        `json:"workspace,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ListRunsInput is the input schema for the list_runs tool.
type ListRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs to return (default 10)"`
}

// ListRunsOutput is the output schema for the list_runs tool.
type ListRunsOutput struct {
	Runs  []RunStatusOutput `json:"runs"`
	Count int               `json:"count"`
}

// ClearCacheInput is the input schema for the clear_cache tool.
type ClearCacheInput struct {
	DocumentID string `json:"document_id,omitempty" jsonschema:"clear only this document's cached extraction"`
}

// ClearCacheOutput is the output schema for the clear_cache tool.
type ClearCacheOutput struct {
	Message string `json:"message"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "convert",
		Description: "Convert a PDF or Markdown document into a narrated slide video",
	}, s.handleConvert)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "run_status",
		Description: "Get the stage-by-stage status of a conversion run",
	}, s.handleRunStatus)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_runs",
		Description: "List conversion runs, newest first",
	}, s.handleListRuns)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clear_cache",
		Description: "Clear cached document extractions",
	}, s.handleClearCache)
}

// handleConvert handles the convert tool invocation. The conversion
// blocks until the run reaches a terminal stage.
func (s *Server) handleConvert(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ConvertInput,
) (*mcp.CallToolResult, ConvertOutput, error) {
	cfg := domain.RunConfig{FiguresEnabled: true, KeepArtifacts: true}
	if s.ports.Settings != nil {
		// Stored defaults apply when available (ignore error - best effort)
		if stored, err := s.ports.Settings.RunConfigFromSettings(); err == nil {
			cfg = stored
		}
	}
	if input.Slides > 0 {
		cfg.TargetSlideCount = input.Slides
	}
	if input.SlidesOnly {
		cfg.SlidesOnly = true
	}
	if input.NoFigures {
		cfg.FiguresEnabled = false
	}
	if input.Theme != "" {
		cfg.Theme = input.Theme
	}

	run, err := s.ports.Pipeline.Convert(ctx, input.Path, cfg)
	if err != nil {
		return nil, ConvertOutput{}, err
	}

	return nil, ConvertOutput{
		RunID:     run.ID,
		Stage:     run.Stage.String(),
		VideoPath: run.VideoPath,
		Workspace: run.WorkspaceDir,
	}, nil
}

// handleRunStatus handles the run_status tool invocation.
func (s *Server) handleRunStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunStatusInput,
) (*mcp.CallToolResult, RunStatusOutput, error) {
	run, err := s.ports.Pipeline.Status(ctx, input.RunID)
	if err != nil {
		return nil, RunStatusOutput{}, err
	}
	return nil, runStatusOutput(run), nil
}

// handleListRuns handles the list_runs tool invocation.
func (s *Server) handleListRuns(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListRunsInput,
) (*mcp.CallToolResult, ListRunsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	runs, err := s.ports.Pipeline.Runs(ctx, limit)
	if err != nil {
		return nil, ListRunsOutput{}, err
	}

	output := ListRunsOutput{
		Runs:  make([]RunStatusOutput, len(runs)),
		Count: len(runs),
	}
	for i, run := range runs {
		output.Runs[i] = runStatusOutput(run)
	}
	return nil, output, nil
}

// handleClearCache handles the clear_cache tool invocation.
func (s *Server) handleClearCache(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClearCacheInput,
) (*mcp.CallToolResult, ClearCacheOutput, error) {
	if s.ports.Cache == nil {
		return nil, ClearCacheOutput{}, errors.New("cache service not configured")
	}

	if input.DocumentID != "" {
		if err := s.ports.Cache.Remove(ctx, input.DocumentID); err != nil {
			return nil, ClearCacheOutput{}, err
		}
		return nil, ClearCacheOutput{Message: "cache entry " + input.DocumentID + " removed"}, nil
	}

	if err := s.ports.Cache.Clear(ctx); err != nil {
		return nil, ClearCacheOutput{}, err
	}
	return nil, ClearCacheOutput{Message: "extraction cache cleared"}, nil
}

// runStatusOutput converts a run record into the wire shape.
func runStatusOutput(run *domain.PipelineRun) RunStatusOutput {
	out := RunStatusOutput{
		RunID:     run.ID,
		Document:  run.DocumentPath,
		Stage:     run.Stage.String(),
		VideoPath: run.VideoPath,
		Workspace: run.WorkspaceDir,
		Error:     run.Error,
		Stages:    make([]StageStatus, 0, len(run.Stages)),
	}
	for _, stage := range domain.WorkStages() {
		record, ok := run.Stages[stage]
		if !ok {
			continue
		}
		out.Stages = append(out.Stages, StageStatus{
			Stage: stage.String(),
			State: record.State.String(),
			Error: record.Error,
		})
	}
	return out
}
