package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

const (
	// uriScheme is the custom URI scheme for Slidecast resources.
	uriScheme = "slidecast://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for run history.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "runs",
		Description: "Conversion run history, newest first",
		MIMEType:    "application/json",
	}, s.handleRunsResource)

	// Template for a run's validated slide plan.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}/plan",
		Name:        "run-plan",
		Description: "Validated slide plan of a conversion run",
		MIMEType:    "application/json",
	}, s.handlePlanResource)

	// Template for a run's compiled deck.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}/deck",
		Name:        "run-deck",
		Description: "Compiled Marp deck of a conversion run",
		MIMEType:    "text/markdown",
	}, s.handleDeckResource)
}

// handleRunsResource returns the conversion run history.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	runs, err := s.ports.Pipeline.Runs(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	// Build simplified run list.
	type runInfo struct {
		ID       string `json:"id"`
		Document string `json:"document"`
		Stage    string `json:"stage"`
		Created  string `json:"created_at"`
	}

	infos := make([]runInfo, len(runs))
	for i, run := range runs {
		infos[i] = runInfo{
			ID:       run.ID,
			Document: run.DocumentPath,
			Stage:    run.Stage.String(),
			Created:  run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling runs: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handlePlanResource returns a run's slide plan artifact.
func (s *Server) handlePlanResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := s.readRunArtifact(ctx, req.Params.URI, "/plan", func(ws domain.Workspace) string {
		return ws.PlanPath()
	})
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     data,
		}},
	}, nil
}

// handleDeckResource returns a run's compiled deck artifact.
func (s *Server) handleDeckResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	data, err := s.readRunArtifact(ctx, req.Params.URI, "/deck", func(ws domain.Workspace) string {
		return ws.DeckPath()
	})
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     data,
		}},
	}, nil
}

// readRunArtifact resolves a run URI to its workspace and reads one
// artifact file. A missing run or artifact maps to a resource-not-found
// error rather than an internal one.
func (s *Server) readRunArtifact(
	ctx context.Context,
	uri, suffix string,
	pathFor func(domain.Workspace) string,
) (string, error) {
	runID := extractRunID(uri, suffix)
	if runID == "" {
		return "", mcp.ResourceNotFoundError(uri)
	}

	run, err := s.ports.Pipeline.Status(ctx, runID)
	if err != nil {
		return "", mcp.ResourceNotFoundError(uri)
	}
	if run.WorkspaceDir == "" {
		return "", mcp.ResourceNotFoundError(uri)
	}

	data, err := os.ReadFile(pathFor(domain.Workspace{Root: run.WorkspaceDir}))
	if err != nil {
		return "", mcp.ResourceNotFoundError(uri)
	}
	return string(data), nil
}

// extractRunID extracts the run ID from a URI like slidecast://runs/{runId}/plan.
func extractRunID(uri, suffix string) string {
	const prefix = uriScheme + "runs/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	uri = strings.TrimPrefix(uri, prefix)
	if !strings.HasSuffix(uri, suffix) {
		return ""
	}

	return strings.TrimSuffix(uri, suffix)
}
