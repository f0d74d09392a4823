// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - DocumentExtractor: OCR extraction of PDF documents
//   - PlannerService: LLM completion for slide planning
//   - FrameRenderer: deck rasterization (Marp CLI)
//   - MediaProcessor: audio normalization and video assembly (ffmpeg)
//   - ExtractionCache: extraction result persistence
//   - RunStore: run state and history persistence
//   - ConfigStore: application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SpeechService: narration synthesis. Without it, only slides-only
//     runs are possible.
//   - PromptStore: custom prompt templates. Without it, built-in
//     defaults are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
