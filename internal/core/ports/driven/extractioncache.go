package driven

import (
	"context"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// ExtractionCache persists extraction results keyed by document
// content hash. Entries may also record a permanent failure so a
// document that cannot be extracted is never re-submitted.
//
// The cache stores whatever the extractor returned, including figure
// image data. Whether figures are used is decided per run, downstream.
type ExtractionCache interface {
	// Get retrieves the entry for a document.
	// Returns ErrNotFound if no entry exists.
	Get(ctx context.Context, documentID string) (*domain.CachedExtraction, error)

	// PutResult stores a successful extraction, replacing any
	// existing entry for the document.
	PutResult(ctx context.Context, result *domain.ExtractionResult) error

	// PutFailure stores a permanent failure for the document,
	// replacing any existing entry.
	PutFailure(ctx context.Context, documentID, message string) error

	// Delete removes the entry for a document.
	// Returns ErrNotFound if no entry exists.
	Delete(ctx context.Context, documentID string) error

	// List summarises all entries, newest first.
	List(ctx context.Context) ([]domain.CacheSummary, error)

	// Clear removes all entries.
	Clear(ctx context.Context) error
}
