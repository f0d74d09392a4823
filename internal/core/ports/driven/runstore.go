package driven

import (
	"context"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// RunStore persists pipeline run state and history.
type RunStore interface {
	// SaveRun inserts or updates a run.
	SaveRun(ctx context.Context, run *domain.PipelineRun) error

	// GetRun retrieves a run by ID.
	// Returns ErrNotFound if the run doesn't exist.
	GetRun(ctx context.Context, id string) (*domain.PipelineRun, error)

	// ListRuns returns runs ordered newest first.
	ListRuns(ctx context.Context, limit int) ([]*domain.PipelineRun, error)

	// DeleteRun removes a run record. Workspace artifacts on disk are
	// not touched.
	// Returns ErrNotFound if the run doesn't exist.
	DeleteRun(ctx context.Context, id string) error
}
