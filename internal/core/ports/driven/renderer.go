package driven

import (
	"context"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// FrameRenderer rasterizes a compiled deck into one image per slide.
//
// Implementations may include:
//   - Marp CLI (requires a Chrome or Chromium install)
type FrameRenderer interface {
	// RenderFrames renders the deck file into outDir and returns the
	// frames ordered by slide index. The frame count always equals the
	// deck's slide count; a shortfall is an error, not a warning.
	RenderFrames(ctx context.Context, deckPath, outDir string, opts RenderOptions) ([]domain.FrameImage, error)

	// Available checks that the rendering toolchain is installed.
	// Returns ErrToolMissing or ErrBrowserMissing with install guidance.
	Available(ctx context.Context) error
}

// RenderOptions configures frame rasterization.
type RenderOptions struct {
	// ImageScale is the resolution multiplier (1 = 1280x720).
	ImageScale int
}
