// Package mistral provides a document extraction adapter using the
// Mistral OCR API.
package mistral

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
	"github.com/custodia-labs/slidecast/internal/textproc"
)

// Ensure Extractor implements the interface.
var _ driven.DocumentExtractor = (*Extractor)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.mistral.ai"
	DefaultModel   = "mistral-ocr-latest"
	DefaultTimeout = 5 * time.Minute

	// requestsPerSecond is the proactive request budget for the OCR
	// endpoint.
	requestsPerSecond = 1

	// rateLimitHold is the reactive pause applied after a 429 without
	// a usable Retry-After header.
	rateLimitHold = 2 * time.Second
)

// Config holds configuration for the Mistral OCR extractor.
type Config struct {
	// APIKey is the Mistral API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.mistral.ai).
	BaseURL string

	// Model is the OCR model to use (default: mistral-ocr-latest).
	Model string

	// Timeout is the request timeout (default: 5m). OCR of a long
	// document is slow; this bounds one upload, not the whole run.
	Timeout time.Duration
}

// Extractor submits documents to the Mistral OCR API and normalizes
// the per-page response into an ExtractionResult. Requests pass a
// token-bucket limiter, and a 429 response additionally holds the next
// request for the server-advertised interval.
type Extractor struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string

	limiter *rate.Limiter

	mu        sync.Mutex
	notBefore time.Time
}

// ocrRequest is the /v1/ocr request format.
type ocrRequest struct {
	Model              string      `json:"model"`
	Document           ocrDocument `json:"document"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

// ocrDocument is the document reference within an OCR request. The
// content travels inline as a base64 data URL.
type ocrDocument struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

// ocrResponse is the /v1/ocr response format.
type ocrResponse struct {
	Pages []ocrPage `json:"pages"`
	Model string    `json:"model"`
}

// ocrPage is one page of an OCR response.
type ocrPage struct {
	Index    int        `json:"index"`
	Markdown string     `json:"markdown"`
	Images   []ocrImage `json:"images"`
}

// ocrImage is one located image within a page.
type ocrImage struct {
	ID           string `json:"id"`
	ImageBase64  string `json:"image_base64"`
	TopLeftX     int    `json:"top_left_x"`
	TopLeftY     int    `json:"top_left_y"`
	BottomRightX int    `json:"bottom_right_x"`
	BottomRightY int    `json:"bottom_right_y"`
}

// errorResponse is the API error body format.
type errorResponse struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// New creates a new Mistral OCR extractor.
func New(cfg Config) (*Extractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("mistral: API key is required")
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

	return &Extractor{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}, nil
}

// Extract submits the document and returns the page-ordered text and
// figures. Transport and 5xx failures are transient; rejections of the
// document itself (auth, size, format) are permanent.
func (e *Extractor) Extract(ctx context.Context, doc *domain.SourceDocument) (*domain.ExtractionResult, error) {
	if err := e.wait(ctx); err != nil {
		return nil, err
	}

	payload := ocrRequest{
		Model: e.model,
		Document: ocrDocument{
			Type:        "document_url",
			DocumentURL: "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(doc.Bytes),
		},
		IncludeImageBase64: true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, domain.NewExtractionError(fmt.Errorf("marshal request: %w", err), false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/v1/ocr", bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewExtractionError(fmt.Errorf("create request: %w", err), false)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, domain.NewExtractionError(fmt.Errorf("send request: %w", err), true)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewExtractionError(fmt.Errorf("read response: %w", err), true)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, e.statusError(resp, respBody)
	}

	var parsed ocrResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, domain.NewExtractionError(fmt.Errorf("decode response: %w", err), false)
	}
	if len(parsed.Pages) == 0 {
		return nil, domain.NewExtractionError(fmt.Errorf("service returned no pages"), false)
	}

	return buildResult(doc.ID, parsed.Pages)
}

// ModelName returns the OCR model in use.
func (e *Extractor) ModelName() string {
	return e.model
}

// Ping validates the API key against the models endpoint without
// spending an OCR call.
func (e *Extractor) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/v1/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("mistral: create ping request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("mistral: ping failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mistral: API returned status %d", resp.StatusCode)
	}
	return nil
}

// Close releases resources.
func (e *Extractor) Close() error {
	return nil
}

// wait blocks until the proactive limiter releases a token and any
// reactive hold from a prior 429 has elapsed.
func (e *Extractor) wait(ctx context.Context) error {
	if err := e.limiter.Wait(ctx); err != nil {
		return domain.NewExtractionError(err, true)
	}

	e.mu.Lock()
	pause := time.Until(e.notBefore)
	e.mu.Unlock()
	if pause <= 0 {
		return nil
	}

	timer := time.NewTimer(pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return domain.NewExtractionError(ctx.Err(), true)
	case <-timer.C:
		return nil
	}
}

// hold pushes the reactive gate forward. Later requests wait until the
// deadline passes; an earlier deadline never shortens a later one.
func (e *Extractor) hold(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if deadline := time.Now().Add(d); deadline.After(e.notBefore) {
		e.notBefore = deadline
	}
}

// statusError classifies a non-200 response.
func (e *Extractor) statusError(resp *http.Response, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		e.hold(retryAfter(resp))
		return domain.NewExtractionError(fmt.Errorf("%w: %s", domain.ErrRateLimited, msg), true)
	case resp.StatusCode >= 500:
		return domain.NewExtractionError(fmt.Errorf("service error (status %d): %s", resp.StatusCode, msg), true)
	default:
		return domain.NewExtractionError(fmt.Errorf("request rejected (status %d): %s", resp.StatusCode, msg), false)
	}
}

// retryAfter reads the Retry-After header in seconds form.
func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return rateLimitHold
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 1 {
		return rateLimitHold
	}
	return time.Duration(seconds) * time.Second
}

// buildResult normalizes the per-page response: pages are concatenated
// in index order, image links are rewritten to stable figure IDs, and
// each image becomes a figure with context scraped from its page.
func buildResult(documentID string, pages []ocrPage) (*domain.ExtractionResult, error) {
	sort.SliceStable(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	var (
		sections  []string
		figures   []domain.Figure
		figureNum = 1
	)
	for _, page := range pages {
		pageNumber := page.Index + 1
		markdown := page.Markdown

		for i, img := range page.Images {
			if img.ID == "" || img.ImageBase64 == "" {
				continue
			}
			data, err := decodeImage(img.ImageBase64)
			if err != nil {
				return nil, domain.NewExtractionError(
					fmt.Errorf("decode image %s on page %d: %w", img.ID, pageNumber, err), false)
			}

			figureID := fmt.Sprintf("img-%d-%d", pageNumber, i)
			title, caption := figureContext(page.Markdown, figureNum)
			figures = append(figures, domain.Figure{
				ID:      figureID,
				Page:    pageNumber,
				Region:  imageRegion(img),
				Title:   title,
				Caption: caption,
				Data:    data,
			})
			markdown = strings.ReplaceAll(markdown, "]("+img.ID+")", "]("+figureID+")")
			figureNum++
		}

		if trimmed := strings.TrimSpace(markdown); trimmed != "" {
			sections = append(sections, trimmed)
		}
	}

	text := textproc.NormalizeNewlines(strings.Join(sections, "\n\n"))
	return &domain.ExtractionResult{
		DocumentID: documentID,
		Text:       textproc.CollapseBlankLines(text),
		Figures:    figures,
		PageCount:  len(pages),
	}, nil
}

// decodeImage decodes an image payload, tolerating an optional data-URL
// prefix.
func decodeImage(payload string) ([]byte, error) {
	if _, rest, ok := strings.Cut(payload, ","); ok {
		payload = rest
	}
	return base64.StdEncoding.DecodeString(payload)
}

// imageRegion converts the page-pixel bounding box. A zero-area box
// means the service did not locate the image.
func imageRegion(img ocrImage) *domain.Region {
	if img.BottomRightX <= img.TopLeftX || img.BottomRightY <= img.TopLeftY {
		return nil
	}
	return &domain.Region{
		TopLeftX:     img.TopLeftX,
		TopLeftY:     img.TopLeftY,
		BottomRightX: img.BottomRightX,
		BottomRightY: img.BottomRightY,
	}
}

// figureContext scrapes a title and caption for a figure from its
// page markdown. A short caption line becomes part of the title; a
// long one is kept whole with its first sentence as the title.
func figureContext(markdown string, figureNum int) (title, caption string) {
	title = fmt.Sprintf("Figure %d", figureNum)

	patterns := []string{
		fmt.Sprintf(`(?i)Figure\s+%d[:.]?\s+([^\n]+)`, figureNum),
		fmt.Sprintf(`(?i)Fig\.\s+%d[:.]?\s+([^\n]+)`, figureNum),
		`(?i)Figure\s+\d+[:.]?\s+([^\n]+)`,
		`(?i)Fig\.\s+\d+[:.]?\s+([^\n]+)`,
	}
	for _, pattern := range patterns {
		match := regexp.MustCompile(pattern).FindStringSubmatch(markdown)
		if match == nil {
			continue
		}
		text := strings.TrimSpace(match[1])
		if text == "" {
			continue
		}

		switch first, _, hasMore := strings.Cut(text, "."); {
		case len(text) < 50:
			title = fmt.Sprintf("Figure %d: %s", figureNum, text)
		case hasMore && strings.TrimSpace(first) != "":
			title = fmt.Sprintf("Figure %d: %s", figureNum, strings.TrimSpace(first))
			caption = text
		default:
			caption = text
		}
		return title, caption
	}
	return title, ""
}
