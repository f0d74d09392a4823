package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
	"github.com/custodia-labs/slidecast/internal/logger"
	"github.com/custodia-labs/slidecast/internal/retry"
	"github.com/custodia-labs/slidecast/internal/source"
)

// Ensure ExtractionService implements the interface.
var _ driving.CacheService = (*ExtractionService)(nil)

// extractTimeout bounds one OCR submission including retries.
const extractTimeout = 5 * time.Minute

// ExtractionService produces extraction results for source documents.
// OCR results are cached by document content hash; concurrent requests
// for the same document share a single upstream call.
type ExtractionService struct {
	extractor driven.DocumentExtractor
	cache     driven.ExtractionCache
	policy    retry.Policy

	flight singleflight.Group
}

// NewExtractionService creates a new extraction service.
func NewExtractionService(extractor driven.DocumentExtractor, cache driven.ExtractionCache) *ExtractionService {
	policy := retry.DefaultPolicy()
	policy.Retryable = domain.IsTransient
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("Extraction attempt %d failed, retrying in %s: %v", attempt, delay, err)
	}
	return &ExtractionService{
		extractor: extractor,
		cache:     cache,
		policy:    policy,
	}
}

// Extract returns the extraction result for a document. Formats that
// skip the OCR service are processed locally and never cached; OCR
// results come from the cache when present, including negative entries
// recorded for documents that failed permanently.
func (s *ExtractionService) Extract(ctx context.Context, doc *domain.SourceDocument) (*domain.ExtractionResult, error) {
	if !doc.Format.RequiresOCR() {
		return s.extractLocal(doc)
	}
	if s.extractor == nil {
		return nil, domain.NewExtractionError(domain.ErrExtractorUnavailable, false)
	}

	if entry, ok := s.fromCache(ctx, doc.ID); ok {
		return resolveEntry(entry)
	}

	// One upstream call per document, no matter how many callers
	// arrive while it is in flight.
	ch := s.flight.DoChan(doc.ID, func() (any, error) {
		return s.extractRemote(ctx, doc)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.ExtractionResult), nil
	}
}

// extractLocal builds a result from a document that needs no OCR.
func (s *ExtractionService) extractLocal(doc *domain.SourceDocument) (*domain.ExtractionResult, error) {
	text, err := source.LocalText(doc)
	if err != nil {
		return nil, domain.NewExtractionError(err, false)
	}

	pages := doc.PageCount
	if pages < 1 {
		pages = 1
	}
	result := &domain.ExtractionResult{
		DocumentID: doc.ID,
		Text:       text,
		PageCount:  pages,
	}
	if err := result.Validate(); err != nil {
		return nil, domain.NewExtractionError(err, false)
	}
	return result, nil
}

// fromCache looks a document up in the cache. The second return is
// false when no entry exists.
func (s *ExtractionService) fromCache(ctx context.Context, documentID string) (*domain.CachedExtraction, bool) {
	entry, err := s.cache.Get(ctx, documentID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Extraction cache read failed: %v", err)
		}
		return nil, false
	}

	if entry.Failed() {
		logger.Debug("Extraction cache hit (negative) for %s", documentID)
	} else {
		logger.Debug("Extraction cache hit for %s (%d pages, %d figures)",
			documentID, entry.Result.PageCount, len(entry.Result.Figures))
	}
	return entry, true
}

// resolveEntry turns a cache entry into the caller-facing outcome.
// Negative entries replay the recorded permanent failure.
func resolveEntry(entry *domain.CachedExtraction) (*domain.ExtractionResult, error) {
	if entry.Failed() {
		return nil, domain.NewExtractionError(errors.New(entry.FailureMessage), false)
	}
	return entry.Result, nil
}

// extractRemote submits the document to the OCR service and records
// the outcome in the cache.
func (s *ExtractionService) extractRemote(ctx context.Context, doc *domain.SourceDocument) (*domain.ExtractionResult, error) {
	// Re-check under the flight: a concurrent caller may have
	// populated the cache between our miss and this call.
	if entry, ok := s.fromCache(ctx, doc.ID); ok {
		return resolveEntry(entry)
	}

	// The call outlives any single caller's cancellation so every
	// waiter sees the same outcome.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), extractTimeout)
	defer cancel()

	logger.Stage("extracting", "submitting %s (%d pages) to %s", doc.Title, doc.PageCount, s.extractor.ModelName())

	var result *domain.ExtractionResult
	err := s.policy.Do(callCtx, func(ctx context.Context) error {
		var callErr error
		result, callErr = s.extractor.Extract(ctx, doc)
		return callErr
	})
	if err != nil {
		if !domain.IsTransient(err) {
			s.recordFailure(callCtx, doc.ID, err)
		}
		return nil, err
	}

	if err := result.Validate(); err != nil {
		err = domain.NewExtractionError(err, false)
		s.recordFailure(callCtx, doc.ID, err)
		return nil, err
	}

	if err := s.cache.PutResult(callCtx, result); err != nil {
		logger.Warn("Extraction cache write failed: %v", err)
	}
	logger.Stage("extracting", "extracted %d pages, %d figures", result.PageCount, len(result.Figures))
	return result, nil
}

// recordFailure stores a negative cache entry for a permanent failure.
// The bare cause is stored so the replayed error is not wrapped twice.
func (s *ExtractionService) recordFailure(ctx context.Context, documentID string, cause error) {
	msg := cause.Error()
	var stageErr *domain.StageError
	if errors.As(cause, &stageErr) {
		msg = stageErr.Err.Error()
	}
	if err := s.cache.PutFailure(ctx, documentID, msg); err != nil {
		logger.Warn("Extraction cache write failed: %v", err)
	}
}

// List summarises cache entries, newest first.
func (s *ExtractionService) List(ctx context.Context) ([]domain.CacheSummary, error) {
	return s.cache.List(ctx)
}

// Remove deletes the cache entry for a document.
func (s *ExtractionService) Remove(ctx context.Context, documentID string) error {
	if documentID == "" {
		return fmt.Errorf("%w: document ID required", domain.ErrInvalidInput)
	}
	return s.cache.Delete(ctx, documentID)
}

// Clear removes all cache entries.
func (s *ExtractionService) Clear(ctx context.Context) error {
	return s.cache.Clear(ctx)
}
