package domain

import (
	"fmt"
	"time"
)

// Stage identifies a step of the conversion pipeline.
type Stage string

// Pipeline stages in execution order. Rendering and Narrating are
// independent of each other; Assembling requires both.
const (
	StageQueued     Stage = "queued"
	StageExtracting Stage = "extracting"
	StagePlanning   Stage = "planning"
	StageCompiling  Stage = "compiling"
	StageRendering  Stage = "rendering"
	StageNarrating  Stage = "narrating"
	StageAssembling Stage = "assembling"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// String returns the string representation.
func (s Stage) String() string {
	return string(s)
}

// Terminal returns true for states a run can never leave.
func (s Stage) Terminal() bool {
	return s == StageDone || s == StageFailed
}

// Description returns a human-readable stage label.
func (s Stage) Description() string {
	switch s {
	case StageQueued:
		return "Queued"
	case StageExtracting:
		return "Extracting document"
	case StagePlanning:
		return "Planning slides"
	case StageCompiling:
		return "Compiling deck"
	case StageRendering:
		return "Rendering frames"
	case StageNarrating:
		return "Synthesizing narration"
	case StageAssembling:
		return "Assembling video"
	case StageDone:
		return "Done"
	case StageFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// WorkStages returns the non-terminal stages after Queued, in the order
// they are reported. Rendering precedes Narrating in reports even though
// the two run concurrently.
func WorkStages() []Stage {
	return []Stage{
		StageExtracting,
		StagePlanning,
		StageCompiling,
		StageRendering,
		StageNarrating,
		StageAssembling,
	}
}

// StageState is the status of one stage within a run.
type StageState string

// Stage states.
const (
	StageStatePending StageState = "pending"
	StageStateRunning StageState = "running"
	StageStateDone    StageState = "done"
	StageStateFailed  StageState = "failed"
	StageStateSkipped StageState = "skipped"
)

// String returns the string representation.
func (s StageState) String() string {
	return string(s)
}

// RunConfig is the caller-supplied configuration for one run.
type RunConfig struct {
	// TargetSlideCount is the requested slide count, or AutoSlideCount.
	TargetSlideCount int

	// FiguresEnabled requests figure extraction and embedding.
	FiguresEnabled bool

	// SlidesOnly stops the pipeline after Rendering: no narration,
	// no video.
	SlidesOnly bool

	// Theme is the deck theme name (default "gaia").
	Theme string

	// Language is the narration language code (e.g. "en-IN").
	Language string

	// Voice is the narration speaker voice.
	Voice string

	// OutputDir is the parent directory for run workspaces.
	// Empty means the store default.
	OutputDir string

	// KeepArtifacts retains the workspace after a failed run.
	// Partial artifacts are always retained unless this is set to
	// false AND the caller explicitly requested cleanup.
	KeepArtifacts bool
}

// Validate checks configuration bounds.
func (c *RunConfig) Validate() error {
	if !ValidTargetCount(c.TargetSlideCount) {
		return fmt.Errorf("%w: target slide count %d not in %d-%d (or 0 for auto)",
			ErrInvalidInput, c.TargetSlideCount, MinSlideCount, MaxSlideCount)
	}
	return nil
}

// StageRecord is the persisted status of one stage of a run.
type StageRecord struct {
	// Stage is the pipeline stage.
	Stage Stage

	// State is the current stage state.
	State StageState

	// Error is the failure message when State is failed.
	Error string

	// StartedAt is when the stage began running.
	StartedAt time.Time

	// FinishedAt is when the stage reached done, failed or skipped.
	FinishedAt time.Time
}

// PipelineRun is the state of one end-to-end conversion.
// It is created by the orchestrator and mutated only by it.
type PipelineRun struct {
	// ID is the unique run identifier.
	ID string

	// DocumentID is the content hash of the input document.
	DocumentID string

	// DocumentPath is the input document location.
	DocumentPath string

	// Config is the run configuration.
	Config RunConfig

	// Stage is the current pipeline stage.
	Stage Stage

	// Stages holds per-stage status keyed by stage.
	Stages map[Stage]*StageRecord

	// Error is the run-level failure message when Stage is failed.
	Error string

	// WorkspaceDir is the run's artifact directory.
	WorkspaceDir string

	// VideoPath is the final video artifact, set when assembly succeeds.
	VideoPath string

	// CreatedAt is when the run was created.
	CreatedAt time.Time

	// UpdatedAt is when the run was last mutated.
	UpdatedAt time.Time
}

// NewPipelineRun creates a queued run with all work stages pending.
// Stages the configuration skips are marked skipped immediately.
func NewPipelineRun(id string, doc *SourceDocument, cfg RunConfig) *PipelineRun {
	now := time.Now().UTC()
	run := &PipelineRun{
		ID:           id,
		DocumentID:   doc.ID,
		DocumentPath: doc.Path,
		Config:       cfg,
		Stage:        StageQueued,
		Stages:       make(map[Stage]*StageRecord, len(WorkStages())),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for _, stage := range WorkStages() {
		state := StageStatePending
		if cfg.SlidesOnly && (stage == StageNarrating || stage == StageAssembling) {
			state = StageStateSkipped
		}
		run.Stages[stage] = &StageRecord{Stage: stage, State: state}
	}

	return run
}

// validTransitions maps each stage to the stages reachable from it.
// Failed is reachable from every non-terminal stage and is handled
// separately in CanTransition.
var validTransitions = map[Stage][]Stage{
	StageQueued:     {StageExtracting},
	StageExtracting: {StagePlanning},
	StagePlanning:   {StageCompiling},
	StageCompiling:  {StageRendering},
	StageRendering:  {StageNarrating, StageDone},
	StageNarrating:  {StageAssembling},
	StageAssembling: {StageDone},
}

// CanTransition reports whether the run may move to the given stage.
func (r *PipelineRun) CanTransition(to Stage) bool {
	if r.Stage.Terminal() {
		return false
	}
	if to == StageFailed {
		return true
	}
	for _, next := range validTransitions[r.Stage] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the run to the given stage.
func (r *PipelineRun) Transition(to Stage) error {
	if !r.CanTransition(to) {
		return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidInput, r.Stage, to)
	}
	r.Stage = to
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// StageRecordFor returns the record for a stage, creating a pending
// record if the run predates the stage.
func (r *PipelineRun) StageRecordFor(stage Stage) *StageRecord {
	if rec, ok := r.Stages[stage]; ok {
		return rec
	}
	rec := &StageRecord{Stage: stage, State: StageStatePending}
	r.Stages[stage] = rec
	return rec
}

// MarkStageRunning records that a stage started.
func (r *PipelineRun) MarkStageRunning(stage Stage) {
	rec := r.StageRecordFor(stage)
	rec.State = StageStateRunning
	rec.StartedAt = time.Now().UTC()
	r.UpdatedAt = rec.StartedAt
}

// MarkStageDone records a successful stage completion.
func (r *PipelineRun) MarkStageDone(stage Stage) {
	rec := r.StageRecordFor(stage)
	rec.State = StageStateDone
	rec.FinishedAt = time.Now().UTC()
	r.UpdatedAt = rec.FinishedAt
}

// MarkStageFailed records a stage failure.
func (r *PipelineRun) MarkStageFailed(stage Stage, err error) {
	rec := r.StageRecordFor(stage)
	rec.State = StageStateFailed
	rec.FinishedAt = time.Now().UTC()
	if err != nil {
		rec.Error = err.Error()
	}
	r.UpdatedAt = rec.FinishedAt
}

// Fail moves the run to Failed with the originating error attached.
// Stages still pending are left pending so partial progress stays visible.
func (r *PipelineRun) Fail(err error) {
	r.Stage = StageFailed
	if err != nil {
		r.Error = err.Error()
	}
	r.UpdatedAt = time.Now().UTC()
}

// Clone returns a deep copy safe to hand to concurrent readers.
func (r *PipelineRun) Clone() *PipelineRun {
	cp := *r
	cp.Stages = make(map[Stage]*StageRecord, len(r.Stages))
	for stage, rec := range r.Stages {
		recCopy := *rec
		cp.Stages[stage] = &recCopy
	}
	return &cp
}
