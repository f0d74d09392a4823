package driving

import (
	"context"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// CacheService manages the extraction cache.
type CacheService interface {
	// List summarises cache entries, newest first.
	List(ctx context.Context) ([]domain.CacheSummary, error)

	// Remove deletes the entry for a document.
	// Returns ErrNotFound if no entry exists.
	Remove(ctx context.Context, documentID string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error
}
