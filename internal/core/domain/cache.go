package domain

import "time"

// CachedExtraction is one extraction cache entry. Either Result is set
// (a successful extraction) or FailureMessage is set (a permanent
// failure recorded so the document is not re-submitted).
type CachedExtraction struct {
	// DocumentID is the content hash the entry is keyed by.
	DocumentID string

	// Result is the successful extraction, nil for failure entries.
	Result *ExtractionResult

	// FailureMessage describes the permanent failure, empty for
	// success entries.
	FailureMessage string

	// CachedAt is when the entry was stored.
	CachedAt time.Time
}

// Failed returns true for negative cache entries.
func (c *CachedExtraction) Failed() bool {
	return c.Result == nil
}

// CacheSummary describes one cache entry for listings.
type CacheSummary struct {
	// DocumentID is the content hash.
	DocumentID string

	// Failed is true for negative entries.
	Failed bool

	// Pages is the extracted page count, 0 for failures.
	Pages int

	// Figures is the extracted figure count, 0 for failures.
	Figures int

	// TextBytes is the extracted text size, 0 for failures.
	TextBytes int

	// CachedAt is when the entry was stored.
	CachedAt time.Time
}
