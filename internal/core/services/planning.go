package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
	"github.com/custodia-labs/slidecast/internal/logger"
	"github.com/custodia-labs/slidecast/internal/retry"
	"github.com/custodia-labs/slidecast/internal/textproc"
)

// Ensure PlanningService can use custom prompts.
var _ driven.PromptStoreAware = (*PlanningService)(nil)

const (
	// planTimeout bounds one completion call including retries.
	planTimeout = 3 * time.Minute

	// planMaxTokens is the completion budget for a full plan.
	planMaxTokens = 8192

	// planTemperature keeps plans close to the document.
	planTemperature = 0.3

	// maxDocumentChars is the document text budget within the prompt.
	// Longer documents are cut at a paragraph boundary.
	maxDocumentChars = 28000
)

// defaultPlanPrompt turns document text into a slide plan. Placeholders:
// slide count instruction, figure section, document text.
const defaultPlanPrompt = `You are a graduate student in a lab meeting, explaining a paper you found interesting to your peers. Keep the tone conversational and insightful. Refer to the paper's authors as 'the authors' or 'the paper', never 'we'.

Respond with a single JSON object of this exact shape:
{"slides": [{"slide_number": 1, "title": "...", "bullets": ["...", "..."], "narration": "...", "figure_id": ""}]}

Rules for each slide:
- "title": a concise heading.
- "bullets": the on-screen text. Keep it minimal: at most 2 short bullets when the slide shows a figure, otherwise 3-4 bullets.
- "narration": the full spoken script for the slide, suitable for text-to-speech. Maximize information transfer here, not in the bullets.
- "figure_id": the ID of one available figure this slide should show, or "" for none.

%s

%s--- DOCUMENT ---
%s
--- END OF DOCUMENT ---

The output MUST be a single valid JSON object with no text outside it. Escape newlines inside strings as \n.`

// defaultRepairPrompt asks the model to fix a rejected plan.
// Placeholders: validation failure, rejected response.
const defaultRepairPrompt = `Your slide plan was rejected for this reason:
%s

This is the rejected response:
%s

Produce a corrected plan that fixes the problem. Respond with only the JSON object, in the same shape as before, and nothing else.`

// PlanningService turns extraction results into validated slide plans.
type PlanningService struct {
	planner driven.PlannerService
	prompts driven.PromptStore
	policy  retry.Policy
}

// NewPlanningService creates a new planning service.
func NewPlanningService(planner driven.PlannerService) *PlanningService {
	policy := retry.DefaultPolicy()
	policy.Retryable = domain.IsTransient
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("Planner attempt %d failed, retrying in %s: %v", attempt, delay, err)
	}
	return &PlanningService{
		planner: planner,
		policy:  policy,
	}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (s *PlanningService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// PlanSlides produces a validated slide plan for an extraction result.
// A plan that fails validation is sent back to the model once with the
// failure quoted; a second invalid plan is a permanent planning error,
// never silently truncated or padded.
func (s *PlanningService) PlanSlides(ctx context.Context, extraction *domain.ExtractionResult, cfg domain.RunConfig) (*domain.SlidePlan, error) {
	if s.planner == nil {
		return nil, domain.NewPlanningError(domain.ErrPlannerUnavailable, false)
	}
	if !domain.ValidTargetCount(cfg.TargetSlideCount) {
		return nil, domain.NewPlanningError(
			fmt.Errorf("%w: target slide count %d", domain.ErrInvalidInput, cfg.TargetSlideCount), false)
	}

	var figures []domain.Figure
	if cfg.FiguresEnabled {
		figures = extraction.Figures
	}

	prompt := s.buildPlanPrompt(extraction.Text, figures, cfg.TargetSlideCount)
	logger.Stage("planning", "requesting plan from %s (%d prompt chars)", s.planner.ModelName(), len(prompt))

	response, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	plan, vErr := s.parseAndValidate(response, extraction, cfg)
	if vErr == nil {
		return plan, nil
	}

	// One repair round: quote the exact failure back to the model.
	logger.Stage("planning", "plan rejected (%v), requesting repair", vErr)
	repairPrompt := fmt.Sprintf(s.loadPrompt(driven.PromptRepairPlan, defaultRepairPrompt), vErr.Error(), response)

	response, err = s.complete(ctx, repairPrompt)
	if err != nil {
		return nil, err
	}
	plan, vErr = s.parseAndValidate(response, extraction, cfg)
	if vErr != nil {
		return nil, domain.NewPlanningError(fmt.Errorf("plan still invalid after repair: %w", vErr), false)
	}
	return plan, nil
}

// complete runs one completion with retry on transient failures. A
// context cancelled before dispatch fails immediately; once dispatched
// the call outlives the run context's cancellation so an in-flight
// request finishes cleanly.
func (s *PlanningService) complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.NewPlanningError(fmt.Errorf("run cancelled before completion call: %w", err), false)
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), planTimeout)
	defer cancel()

	var response string
	err := s.policy.Do(callCtx, func(ctx context.Context) error {
		var callErr error
		response, callErr = s.planner.Complete(ctx, prompt, driven.CompleteOptions{
			MaxTokens:    planMaxTokens,
			Temperature:  planTemperature,
			JSONResponse: true,
		})
		return callErr
	})
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.NewPlanningError(err, domain.IsTransient(err))
		}
		return "", err
	}
	return response, nil
}

// buildPlanPrompt assembles the planning prompt with compacted document
// text and the optional figure list.
func (s *PlanningService) buildPlanPrompt(text string, figures []domain.Figure, target int) string {
	doc := textproc.CompactWhitespace(text)
	doc = textproc.TruncateAtBoundary(doc, maxDocumentChars)
	logger.Debug("Compacted document text for prompt: %d chars -> %d chars", len(text), len(doc))
	logger.Debug("Raw document text:\n%s", text)
	logger.Debug("Compacted document text:\n%s", doc)

	template := s.loadPrompt(driven.PromptPlanDeck, defaultPlanPrompt)
	return fmt.Sprintf(template, countInstruction(target), figureSection(figures), doc)
}

// countInstruction states the slide count requirement.
func countInstruction(target int) string {
	if target == domain.AutoSlideCount {
		return fmt.Sprintf("Break the document into between %d and %d slides, chosen to fit its density.",
			domain.MinSlideCount, domain.MaxSlideCount)
	}
	return fmt.Sprintf("Break the document into exactly %d slides. The slides array MUST contain exactly %d entries.",
		target, target)
}

// figureSection lists the figures a plan may reference, or is empty.
func figureSection(figures []domain.Figure) string {
	if len(figures) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("--- AVAILABLE FIGURES ---\n")
	b.WriteString("Where a figure genuinely supports a slide, set that slide's \"figure_id\" to one of these IDs. Use each figure at most once.\n")
	for _, fig := range figures {
		fmt.Fprintf(&b, "- %s (page %d): %s", fig.ID, fig.Page, fig.Title)
		if fig.Caption != "" && fig.Caption != fig.Title {
			fmt.Fprintf(&b, " - %s", fig.Caption)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

// loadPrompt returns a customised prompt or the built-in fallback.
func (s *PlanningService) loadPrompt(name, fallback string) string {
	if s.prompts == nil {
		return fallback
	}
	prompt, err := s.prompts.Load(name)
	if err != nil || prompt == "" {
		return fallback
	}
	return prompt
}

// planSlide is the wire shape of one slide in a model response.
type planSlide struct {
	SlideNumber int      `json:"slide_number"`
	Title       string   `json:"title"`
	Bullets     []string `json:"bullets"`
	Narration   string   `json:"narration"`
	FigureID    string   `json:"figure_id"`
}

// planResponse is the wire shape of a model response.
type planResponse struct {
	Slides []planSlide `json:"slides"`
}

// parseAndValidate turns a model response into a validated plan. The
// returned error doubles as the repair-prompt quotation, so it names
// the concrete problem.
func (s *PlanningService) parseAndValidate(response string, extraction *domain.ExtractionResult, cfg domain.RunConfig) (*domain.SlidePlan, error) {
	slides, err := parsePlanResponse(response)
	if err != nil {
		return nil, err
	}

	// Preserve the model's intended order when it numbers slides.
	sort.SliceStable(slides, func(i, j int) bool {
		return slides[i].SlideNumber < slides[j].SlideNumber
	})

	plan := &domain.SlidePlan{
		DocumentID:  extraction.DocumentID,
		TargetCount: cfg.TargetSlideCount,
	}
	for i, slide := range slides {
		figureID := slide.FigureID
		if !cfg.FiguresEnabled {
			figureID = ""
		}
		plan.Slides = append(plan.Slides, domain.Slide{
			Index:     i + 1,
			Title:     strings.TrimSpace(slide.Title),
			Bullets:   slide.Bullets,
			Narration: strings.TrimSpace(slide.Narration),
			FigureID:  figureID,
		})
	}

	if err := plan.Validate(extraction); err != nil {
		return nil, err
	}
	return plan, nil
}

// parsePlanResponse extracts the slide list from raw model output,
// tolerating code fences, unescaped newlines and a bare top-level array.
func parsePlanResponse(response string) ([]planSlide, error) {
	cleaned := fixJSONNewlines(stripCodeFence(response))
	if cleaned == "" {
		return nil, fmt.Errorf("response contains no JSON")
	}

	var wrapped planResponse
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err == nil && len(wrapped.Slides) > 0 {
		return wrapped.Slides, nil
	}

	var bare []planSlide
	if err := json.Unmarshal([]byte(cleaned), &bare); err == nil && len(bare) > 0 {
		return bare, nil
	}

	return nil, fmt.Errorf("response is not a JSON object with a non-empty \"slides\" array")
}

// stripCodeFence removes a surrounding markdown code fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// jsonStringLiteral matches JSON string literals including escapes.
var jsonStringLiteral = regexp.MustCompile(`(?s)"((?:\\.|[^"\\])*)"`)

// fixJSONNewlines escapes literal newlines inside JSON string values.
// Models in JSON mode still occasionally emit them raw.
func fixJSONNewlines(s string) string {
	return jsonStringLiteral.ReplaceAllStringFunc(s, func(match string) string {
		return strings.ReplaceAll(match, "\n", `\n`)
	})
}
