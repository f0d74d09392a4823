// Package gemini provides a slide planner adapter using the Google
// Generative Language API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
)

// Ensure Planner implements the interface.
var _ driven.PlannerService = (*Planner)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-pro"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the Gemini planner.
type Config struct {
	// APIKey is the Gemini API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://generativelanguage.googleapis.com).
	BaseURL string

	// Model is the model to use (default: gemini-2.5-pro).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration
}

// Planner provides completions via the generateContent endpoint.
type Planner struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// generateRequest is the generateContent request format.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

// content is one conversation turn.
type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

// part is one piece of a turn.
type part struct {
	Text string `json:"text"`
}

// generationConfig tunes the completion.
type generationConfig struct {
	Temperature      float64 `json:"temperature,omitempty"`
	MaxOutputTokens  int     `json:"maxOutputTokens,omitempty"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

// generateResponse is the generateContent response format.
type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

// apiError is the Google API error body.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// New creates a new Gemini planner.
func New(cfg Config) (*Planner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Planner{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Complete produces a completion for a prompt. With JSONResponse set,
// the native JSON mode constrains the model to emit a JSON document.
func (p *Planner) Complete(ctx context.Context, prompt string, opts driven.CompleteOptions) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
	}
	genCfg := &generationConfig{
		Temperature:     opts.Temperature,
		MaxOutputTokens: opts.MaxTokens,
	}
	if opts.JSONResponse {
		genCfg.ResponseMimeType = "application/json"
	}
	reqBody.GenerationConfig = genCfg

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", domain.NewPlanningError(fmt.Errorf("marshal request: %w", err), false)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", domain.NewPlanningError(fmt.Errorf("create request: %w", err), false)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", domain.NewPlanningError(fmt.Errorf("send request: %w", err), true)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.NewPlanningError(fmt.Errorf("read response: %w", err), true)
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", domain.NewPlanningError(fmt.Errorf("decode response: %w", err), false)
	}

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp.StatusCode, genResp.Error, body)
	}
	if len(genResp.Candidates) == 0 {
		return "", domain.NewPlanningError(fmt.Errorf("gemini: no candidates returned"), false)
	}

	candidate := genResp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", domain.NewPlanningError(fmt.Errorf("gemini: response blocked by safety filter"), false)
	}

	var out strings.Builder
	for _, piece := range candidate.Content.Parts {
		out.WriteString(piece.Text)
	}
	if out.Len() == 0 {
		return "", domain.NewPlanningError(fmt.Errorf("gemini: candidate carried no text"), false)
	}
	return out.String(), nil
}

// ModelName returns the name of the model being used.
func (p *Planner) ModelName() string {
	return p.model
}

// Ping validates the API key by fetching the model's metadata.
func (p *Planner) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/v1beta/models/%s", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("gemini: create ping request: %w", err)
	}
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (p *Planner) Close() error {
	return nil
}

// statusError classifies a non-200 response. Quota exhaustion and
// server trouble are worth retrying; everything else is a request
// defect.
func statusError(status int, apiErr *apiError, body []byte) error {
	msg := strings.TrimSpace(string(body))
	if apiErr != nil && apiErr.Message != "" {
		msg = apiErr.Message
	}

	switch {
	case status == http.StatusTooManyRequests:
		return domain.NewPlanningError(fmt.Errorf("%w: %s", domain.ErrRateLimited, msg), true)
	case status >= 500:
		return domain.NewPlanningError(fmt.Errorf("gemini error (status %d): %s", status, msg), true)
	default:
		return domain.NewPlanningError(fmt.Errorf("gemini error (status %d): %s", status, msg), false)
	}
}
