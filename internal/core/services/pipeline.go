package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
	"github.com/custodia-labs/slidecast/internal/logger"
	"github.com/custodia-labs/slidecast/internal/source"
)

// Ensure PipelineService implements the interface.
var _ driving.PipelineOrchestrator = (*PipelineService)(nil)

// frameImageScale is the resolution multiplier passed to the renderer
// (2 doubles the base 1280x720 raster).
const frameImageScale = 2

// minFigurePages is the page count past which a figure-enabled run
// treats an OCR extraction with zero figures as a structural failure.
// Shorter documents legitimately have none.
const minFigurePages = 3

// PipelineService drives a document through the conversion stages.
// It owns the run state machine and the workspace layout; the stage
// services never see run records or sibling stages.
type PipelineService struct {
	extraction *ExtractionService
	planning   *PlanningService
	deck       *DeckService
	narration  *NarrationService
	renderer   driven.FrameRenderer
	media      driven.MediaProcessor
	runStore   driven.RunStore

	// outputDir is the default parent directory for run workspaces.
	outputDir string

	// Status tracking
	mu         sync.RWMutex
	activeRuns map[string]*domain.PipelineRun
}

// NewPipelineService creates a new pipeline orchestrator.
func NewPipelineService(
	extraction *ExtractionService,
	planning *PlanningService,
	deck *DeckService,
	narration *NarrationService,
	renderer driven.FrameRenderer,
	media driven.MediaProcessor,
	runStore driven.RunStore,
	outputDir string,
) *PipelineService {
	return &PipelineService{
		extraction: extraction,
		planning:   planning,
		deck:       deck,
		narration:  narration,
		renderer:   renderer,
		media:      media,
		runStore:   runStore,
		outputDir:  outputDir,
		activeRuns: make(map[string]*domain.PipelineRun),
	}
}

// Convert runs the full pipeline for a document and blocks until the
// run reaches a terminal stage. Failed runs keep their workspace so
// completed artifacts stay inspectable.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *PipelineService) Convert(ctx context.Context, documentPath string, cfg domain.RunConfig) (*domain.PipelineRun, error) {
	// 1. Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 2. Load and fingerprint the source document
	doc, err := source.Load(documentPath)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	// 3. Create the run and its workspace
	outputDir := cfg.OutputDir
	if outputDir == "" {
		outputDir = o.outputDir
	}
	run := domain.NewPipelineRun(uuid.New().String(), doc, cfg)
	ws := domain.NewWorkspace(outputDir, run.ID)
	run.WorkspaceDir = ws.Root
	if err := os.MkdirAll(ws.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	o.trackRun(run)
	defer o.untrackRun(run.ID)
	o.updateRun(ctx, run, func(*domain.PipelineRun) {})

	logger.Info("Starting run %s for %s (%s, %d slides)",
		run.ID, doc.Path, doc.Format, cfg.TargetSlideCount)

	// 4. Extract document text and figures
	var extraction *domain.ExtractionResult
	err = o.runStage(ctx, run, domain.StageExtracting, func() error {
		var stageErr error
		extraction, stageErr = o.extraction.Extract(ctx, doc)
		if stageErr != nil {
			return stageErr
		}
		if stageErr = checkFigureCoverage(doc, extraction, cfg); stageErr != nil {
			return stageErr
		}
		return o.writeExtraction(ws, extraction, cfg)
	})
	if err != nil {
		return o.fail(ctx, run, err)
	}

	// 5. Plan the slide outline
	var plan *domain.SlidePlan
	err = o.runStage(ctx, run, domain.StagePlanning, func() error {
		var stageErr error
		plan, stageErr = o.planning.PlanSlides(ctx, extraction, cfg)
		if stageErr != nil {
			return stageErr
		}
		return writePlan(ws, plan)
	})
	if err != nil {
		return o.fail(ctx, run, err)
	}

	// 6. Compile the deck markup
	err = o.runStage(ctx, run, domain.StageCompiling, func() error {
		deckDoc, stageErr := o.deck.CompileDeck(plan, CompileOptions{
			Theme:   cfg.Theme,
			Figures: extraction.FigureIDs(),
		})
		if stageErr != nil {
			return stageErr
		}
		return writeDeck(ws, deckDoc)
	})
	if err != nil {
		return o.fail(ctx, run, err)
	}

	// 7. Render frames and synthesize narration concurrently
	frames, clips, err := o.renderAndNarrate(ctx, run, plan, ws, cfg)
	if err != nil {
		return o.fail(ctx, run, err)
	}

	// 8. Slides-only runs finish after rendering
	if cfg.SlidesOnly {
		var transitionErr error
		o.updateRun(ctx, run, func(r *domain.PipelineRun) {
			transitionErr = r.Transition(domain.StageDone)
		})
		if transitionErr != nil {
			return o.fail(ctx, run, transitionErr)
		}
		logger.Info("Run %s complete: %d frames in %s", run.ID, len(frames), ws.FramesDir())
		return o.snapshot(run), nil
	}

	// 9. Assemble the final video
	var transitionErr error
	o.updateRun(ctx, run, func(r *domain.PipelineRun) {
		transitionErr = r.Transition(domain.StageNarrating)
	})
	if transitionErr != nil {
		return o.fail(ctx, run, transitionErr)
	}

	var video *domain.VideoArtifact
	err = o.runStage(ctx, run, domain.StageAssembling, func() error {
		var stageErr error
		video, stageErr = o.media.AssembleVideo(ctx, frames, clips, ws.VideoPath())
		return stageErr
	})
	if err != nil {
		return o.fail(ctx, run, err)
	}

	// 10. Finish
	o.updateRun(ctx, run, func(r *domain.PipelineRun) {
		r.VideoPath = video.Path
		transitionErr = r.Transition(domain.StageDone)
	})
	if transitionErr != nil {
		return o.fail(ctx, run, transitionErr)
	}

	logger.Info("Run %s complete: %s (%s, %d slides)",
		run.ID, video.Path, video.Duration.Round(0), video.SlideCount)
	return o.snapshot(run), nil
}

// Status returns a snapshot of a run, live or historical.
func (o *PipelineService) Status(ctx context.Context, runID string) (*domain.PipelineRun, error) {
	o.mu.RLock()
	if run, ok := o.activeRuns[runID]; ok {
		snapshot := run.Clone()
		o.mu.RUnlock()
		return snapshot, nil
	}
	o.mu.RUnlock()

	return o.runStore.GetRun(ctx, runID)
}

// Runs returns run history, newest first. Active runs are included
// because every state change is persisted as it happens.
func (o *PipelineService) Runs(ctx context.Context, limit int) ([]*domain.PipelineRun, error) {
	return o.runStore.ListRuns(ctx, limit)
}

// DeleteRun removes a run record. Artifacts on disk are kept.
func (o *PipelineService) DeleteRun(ctx context.Context, runID string) error {
	o.mu.RLock()
	_, active := o.activeRuns[runID]
	o.mu.RUnlock()
	if active {
		return fmt.Errorf("%w: run %s is still active", domain.ErrInvalidInput, runID)
	}
	return o.runStore.DeleteRun(ctx, runID)
}

// AssembleSilent muxes a finished run's rendered frames into a video
// with no audio track, each frame held for perSlide. It reuses the
// run's workspace and records the video on the run, so a slides-only
// run can be upgraded to a video after the fact.
func (o *PipelineService) AssembleSilent(ctx context.Context, runID string, perSlide time.Duration) (*domain.VideoArtifact, error) {
	o.mu.RLock()
	_, active := o.activeRuns[runID]
	o.mu.RUnlock()
	if active {
		return nil, fmt.Errorf("%w: run %s", domain.ErrRunInProgress, runID)
	}

	run, err := o.runStore.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.WorkspaceDir == "" {
		return nil, fmt.Errorf("%w: run %s has no workspace", domain.ErrInvalidInput, runID)
	}

	ws := domain.Workspace{Root: run.WorkspaceDir}
	frames, err := o.workspaceFrames(ws)
	if err != nil {
		return nil, err
	}

	video, err := o.media.AssembleSilentVideo(ctx, frames, perSlide, ws.VideoPath())
	if err != nil {
		return nil, err
	}

	run.VideoPath = video.Path
	run.UpdatedAt = time.Now().UTC()
	if err := o.runStore.SaveRun(ctx, run); err != nil {
		logger.Warn("Failed to persist run %s: %v", run.ID, err)
	}

	logger.Info("Assembled silent video for run %s: %s", runID, video.Path)
	return video, nil
}

// workspaceFrames recovers the frame list from a run's frames
// directory. Frame files are zero padded so lexical order is slide
// order.
func (o *PipelineService) workspaceFrames(ws domain.Workspace) ([]domain.FrameImage, error) {
	entries, err := os.ReadDir(ws.FramesDir())
	if err != nil {
		return nil, fmt.Errorf("%w: no rendered frames at %s", domain.ErrNotFound, ws.FramesDir())
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}
		names = append(names, entry.Name())
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no rendered frames at %s", domain.ErrNotFound, ws.FramesDir())
	}
	sort.Strings(names)

	frames := make([]domain.FrameImage, len(names))
	for i, name := range names {
		frames[i] = domain.FrameImage{
			SlideIndex: i + 1,
			Path:       filepath.Join(ws.FramesDir(), name),
		}
	}
	return frames, nil
}

// renderAndNarrate executes Rendering and Narrating in parallel. Both
// stages depend only on the compiled deck and the plan, so neither
// waits for the other. A failure in one does not cancel its sibling:
// the surviving stage runs to completion and its artifacts stay in
// the workspace, so a failed run can resume without redoing them.
func (o *PipelineService) renderAndNarrate(
	ctx context.Context,
	run *domain.PipelineRun,
	plan *domain.SlidePlan,
	ws domain.Workspace,
	cfg domain.RunConfig,
) ([]domain.FrameImage, []domain.AudioClip, error) {
	if err := runCancelled(ctx); err != nil {
		return nil, nil, err
	}

	var transitionErr error
	o.updateRun(ctx, run, func(r *domain.PipelineRun) {
		if transitionErr = r.Transition(domain.StageRendering); transitionErr != nil {
			return
		}
		r.MarkStageRunning(domain.StageRendering)
		if !cfg.SlidesOnly {
			r.MarkStageRunning(domain.StageNarrating)
		}
	})
	if transitionErr != nil {
		return nil, nil, transitionErr
	}

	var (
		frames []domain.FrameImage
		clips  []domain.AudioClip
		g      errgroup.Group
	)

	g.Go(func() error {
		if err := os.MkdirAll(ws.FramesDir(), 0o755); err != nil {
			err = domain.NewRenderError(fmt.Errorf("create frames dir: %w", err), false)
			o.finishStage(ctx, run, domain.StageRendering, err)
			return err
		}
		var renderErr error
		frames, renderErr = o.renderer.RenderFrames(ctx, ws.DeckPath(), ws.FramesDir(),
			driven.RenderOptions{ImageScale: frameImageScale})
		o.finishStage(ctx, run, domain.StageRendering, renderErr)
		return renderErr
	})

	if !cfg.SlidesOnly {
		g.Go(func() error {
			var narrateErr error
			clips, narrateErr = o.narration.NarrateAll(ctx, plan, ws, cfg)
			o.finishStage(ctx, run, domain.StageNarrating, narrateErr)
			return narrateErr
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return frames, clips, nil
}

// runCancelled reports a cancelled run context as ErrRunCancelled.
// Stage boundaries check it so a cancelled run fails before the next
// stage starts instead of spending further external calls.
func runCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRunCancelled, err)
	}
	return nil
}

// runStage advances the run to a stage, executes it and records the
// outcome. Every state change is persisted so Status reflects live
// progress. A context cancelled before the stage starts fails the run
// with ErrRunCancelled; a stage already running is not interrupted.
func (o *PipelineService) runStage(ctx context.Context, run *domain.PipelineRun, stage domain.Stage, fn func() error) error {
	if err := runCancelled(ctx); err != nil {
		return err
	}

	var transitionErr error
	o.updateRun(ctx, run, func(r *domain.PipelineRun) {
		if transitionErr = r.Transition(stage); transitionErr != nil {
			return
		}
		r.MarkStageRunning(stage)
	})
	if transitionErr != nil {
		return transitionErr
	}
	logger.Stage(stage.String(), "%s", stage.Description())

	err := fn()
	o.finishStage(ctx, run, stage, err)
	return err
}

// finishStage records a stage outcome without advancing the run.
func (o *PipelineService) finishStage(ctx context.Context, run *domain.PipelineRun, stage domain.Stage, err error) {
	o.updateRun(ctx, run, func(r *domain.PipelineRun) {
		if err != nil {
			r.MarkStageFailed(stage, err)
		} else {
			r.MarkStageDone(stage)
		}
	})
}

// fail moves the run to Failed, persists it and returns the final
// snapshot alongside the cause. The workspace is left in place.
func (o *PipelineService) fail(ctx context.Context, run *domain.PipelineRun, cause error) (*domain.PipelineRun, error) {
	o.updateRun(ctx, run, func(r *domain.PipelineRun) {
		r.Fail(cause)
	})
	logger.Warn("Run %s failed: %v", run.ID, cause)
	return o.snapshot(run), cause
}

// updateRun mutates the run under lock and persists a snapshot.
// Persistence survives caller cancellation so terminal states always
// reach the store.
func (o *PipelineService) updateRun(ctx context.Context, run *domain.PipelineRun, mutate func(*domain.PipelineRun)) {
	o.mu.Lock()
	mutate(run)
	snapshot := run.Clone()
	o.mu.Unlock()

	if err := o.runStore.SaveRun(context.WithoutCancel(ctx), snapshot); err != nil {
		logger.Warn("Failed to persist run %s: %v", run.ID, err)
	}
}

// snapshot returns a copy safe to hand to the caller.
func (o *PipelineService) snapshot(run *domain.PipelineRun) *domain.PipelineRun {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return run.Clone()
}

// trackRun registers an active run for Status queries.
func (o *PipelineService) trackRun(run *domain.PipelineRun) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeRuns[run.ID] = run
}

// untrackRun removes a finished run from the active set.
func (o *PipelineService) untrackRun(runID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeRuns, runID)
}

// checkFigureCoverage rejects an OCR extraction that returned zero
// figures for a document long enough that some were expected. A run
// that needs figures must not quietly degrade to a figure-less deck;
// runs configured without figures skip the check because for them
// "no figures" is the requested behavior.
func checkFigureCoverage(doc *domain.SourceDocument, extraction *domain.ExtractionResult, cfg domain.RunConfig) error {
	if !cfg.FiguresEnabled || !doc.Format.RequiresOCR() {
		return nil
	}
	if extraction.PageCount < minFigurePages || len(extraction.Figures) > 0 {
		return nil
	}
	return domain.NewExtractionError(fmt.Errorf(
		"%w: extraction returned no figures for a %d-page document",
		domain.ErrInvalidInput, extraction.PageCount), false)
}

// writeExtraction materializes the extraction artifacts: the
// normalized text, and the figure images when figures are enabled.
func (o *PipelineService) writeExtraction(ws domain.Workspace, extraction *domain.ExtractionResult, cfg domain.RunConfig) error {
	if err := os.WriteFile(ws.TextPath(), []byte(extraction.Text), 0o644); err != nil {
		return domain.NewExtractionError(fmt.Errorf("write document text: %w", err), false)
	}
	if !cfg.FiguresEnabled || len(extraction.Figures) == 0 {
		return nil
	}

	if err := os.MkdirAll(ws.FiguresDir(), 0o755); err != nil {
		return domain.NewExtractionError(fmt.Errorf("create figures dir: %w", err), false)
	}

	meta := make([]figureMeta, 0, len(extraction.Figures))
	for i := range extraction.Figures {
		fig := &extraction.Figures[i]
		if len(fig.Data) == 0 {
			logger.Warn("Figure %s has no image data, skipping", fig.ID)
			continue
		}
		path := ws.FigureImagePath(fig.ID)
		if err := os.WriteFile(path, fig.Data, 0o644); err != nil {
			return domain.NewExtractionError(fmt.Errorf("write figure %s: %w", fig.ID, err), false)
		}
		fig.ImagePath = path
		meta = append(meta, figureMeta{
			ID:      fig.ID,
			Page:    fig.Page,
			Title:   fig.Title,
			Caption: fig.Caption,
			Image:   fig.ID + ".png",
		})
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return domain.NewExtractionError(fmt.Errorf("marshal figure metadata: %w", err), false)
	}
	if err := os.WriteFile(ws.FigureMetaPath(), data, 0o644); err != nil {
		return domain.NewExtractionError(fmt.Errorf("write figure metadata: %w", err), false)
	}
	return nil
}

// figureMeta is the wire shape of one entry in the figure metadata
// artifact.
type figureMeta struct {
	ID      string `json:"id"`
	Page    int    `json:"page"`
	Title   string `json:"title,omitempty"`
	Caption string `json:"caption,omitempty"`
	Image   string `json:"image"`
}

// writePlan writes the validated plan artifact. The shape mirrors the
// planner wire format so the file can seed a replanning session.
func writePlan(ws domain.Workspace, plan *domain.SlidePlan) error {
	doc := planResponse{Slides: make([]planSlide, len(plan.Slides))}
	for i, slide := range plan.Slides {
		doc.Slides[i] = planSlide{
			SlideNumber: slide.Index,
			Title:       slide.Title,
			Bullets:     slide.Bullets,
			Narration:   slide.Narration,
			FigureID:    slide.FigureID,
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return domain.NewPlanningError(fmt.Errorf("marshal plan: %w", err), false)
	}
	if err := os.WriteFile(ws.PlanPath(), data, 0o644); err != nil {
		return domain.NewPlanningError(fmt.Errorf("write plan: %w", err), false)
	}
	return nil
}

// writeDeck writes the rendered deck markup.
func writeDeck(ws domain.Workspace, deckDoc *domain.DeckDocument) error {
	if err := os.WriteFile(ws.DeckPath(), []byte(deckDoc.Render()), 0o644); err != nil {
		return domain.NewCompileError(fmt.Errorf("write deck: %w", err))
	}
	return nil
}
