package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
	"github.com/custodia-labs/slidecast/internal/logger"
)

// Ensure ExtractionCache implements the interface.
var _ driven.ExtractionCache = (*ExtractionCache)(nil)

// ExtractionCache is an in-memory implementation of
// driven.ExtractionCache. Entries are stored and returned as deep
// copies, figure image data included. Result fingerprints are retained
// across Delete and Clear so repeated extractions can be compared.
type ExtractionCache struct {
	mu           sync.RWMutex
	entries      map[string]*domain.CachedExtraction
	fingerprints map[string]string
}

// NewExtractionCache creates a new in-memory extraction cache.
func NewExtractionCache() *ExtractionCache {
	return &ExtractionCache{
		entries:      make(map[string]*domain.CachedExtraction),
		fingerprints: make(map[string]string),
	}
}

// Get retrieves the entry for a document.
func (c *ExtractionCache) Get(_ context.Context, documentID string) (*domain.CachedExtraction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneEntry(entry), nil
}

// PutResult stores a successful extraction, replacing any existing entry.
// A result whose fingerprint differs from the last one recorded for the
// document is logged as a warning.
func (c *ExtractionCache) PutResult(_ context.Context, result *domain.ExtractionResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fingerprint := result.Fingerprint()
	if previous, ok := c.fingerprints[result.DocumentID]; ok && previous != fingerprint {
		logger.Warn("Extraction result for %s differs from the previous one; the OCR service is not fully deterministic", result.DocumentID)
	}
	c.fingerprints[result.DocumentID] = fingerprint

	c.entries[result.DocumentID] = &domain.CachedExtraction{
		DocumentID: result.DocumentID,
		Result:     cloneResult(result),
		CachedAt:   time.Now().UTC(),
	}
	return nil
}

// PutFailure stores a permanent failure, replacing any existing entry.
func (c *ExtractionCache) PutFailure(_ context.Context, documentID, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[documentID] = &domain.CachedExtraction{
		DocumentID:     documentID,
		FailureMessage: message,
		CachedAt:       time.Now().UTC(),
	}
	return nil
}

// Delete removes the entry for a document.
func (c *ExtractionCache) Delete(_ context.Context, documentID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[documentID]; !ok {
		return domain.ErrNotFound
	}
	delete(c.entries, documentID)
	return nil
}

// List summarises all entries, newest first.
func (c *ExtractionCache) List(_ context.Context) ([]domain.CacheSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	summaries := make([]domain.CacheSummary, 0, len(c.entries))
	for _, entry := range c.entries {
		summary := domain.CacheSummary{
			DocumentID: entry.DocumentID,
			Failed:     entry.Failed(),
			CachedAt:   entry.CachedAt,
		}
		if entry.Result != nil {
			summary.Pages = entry.Result.PageCount
			summary.Figures = len(entry.Result.Figures)
			summary.TextBytes = len(entry.Result.Text)
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].CachedAt.Equal(summaries[j].CachedAt) {
			return summaries[i].DocumentID > summaries[j].DocumentID
		}
		return summaries[i].CachedAt.After(summaries[j].CachedAt)
	})
	return summaries, nil
}

// Clear removes all entries.
func (c *ExtractionCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*domain.CachedExtraction)
	return nil
}

// cloneEntry deep-copies a cache entry.
func cloneEntry(entry *domain.CachedExtraction) *domain.CachedExtraction {
	cp := *entry
	cp.Result = cloneResult(entry.Result)
	return &cp
}

// cloneResult deep-copies an extraction result including figure image
// data and regions.
func cloneResult(result *domain.ExtractionResult) *domain.ExtractionResult {
	if result == nil {
		return nil
	}
	cp := *result
	cp.Figures = make([]domain.Figure, len(result.Figures))
	for i, fig := range result.Figures {
		figCopy := fig
		if fig.Region != nil {
			region := *fig.Region
			figCopy.Region = &region
		}
		if fig.Data != nil {
			figCopy.Data = append([]byte{}, fig.Data...)
		}
		cp.Figures[i] = figCopy
	}
	return &cp
}
