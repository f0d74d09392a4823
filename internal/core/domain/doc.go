// Package domain defines the core business entities for Slidecast.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceDocument: The input document for a conversion run
//   - ExtractionResult: Normalized text plus located figures
//   - SlidePlan / Slide: The structured slide outline with narration
//   - DeckDocument: The compiled presentation markup
//   - AudioClip / FrameImage: Per-slide media artifacts
//   - PipelineRun: State of one end-to-end conversion
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
