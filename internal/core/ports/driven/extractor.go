package driven

import (
	"context"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// DocumentExtractor converts a source document into normalized text and
// located figures via an external OCR service.
//
// Implementations may include:
//   - Mistral OCR (hosted API)
type DocumentExtractor interface {
	// Extract submits the document and returns the page-ordered text
	// and figures. Figures carry inline image data; materializing
	// them into a workspace is the caller's concern.
	Extract(ctx context.Context, doc *domain.SourceDocument) (*domain.ExtractionResult, error)

	// ModelName returns the OCR model in use.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
