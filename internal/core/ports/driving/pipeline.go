package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// PipelineOrchestrator coordinates document-to-video conversions.
type PipelineOrchestrator interface {
	// Convert runs the full pipeline for a document and blocks until
	// the run reaches a terminal stage. The returned run reflects the
	// final state; on failure the error carries the failing stage's
	// classification and the run keeps its partial artifacts.
	Convert(ctx context.Context, documentPath string, cfg domain.RunConfig) (*domain.PipelineRun, error)

	// Status returns a snapshot of a run, live or historical.
	// Returns ErrNotFound if the run doesn't exist.
	Status(ctx context.Context, runID string) (*domain.PipelineRun, error)

	// Runs returns run history, newest first.
	Runs(ctx context.Context, limit int) ([]*domain.PipelineRun, error)

	// DeleteRun removes a run record. Artifacts on disk are kept.
	// Returns ErrNotFound if the run doesn't exist.
	DeleteRun(ctx context.Context, runID string) error

	// AssembleSilent builds a fixed-duration video, with no audio
	// track, from the frames a finished run already rendered. Each
	// frame is shown for perSlide; zero uses the assembler default.
	// Returns ErrNotFound for unknown runs and ErrRunInProgress for
	// active ones.
	AssembleSilent(ctx context.Context, runID string, perSlide time.Duration) (*domain.VideoArtifact, error)
}
