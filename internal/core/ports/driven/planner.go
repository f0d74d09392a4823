package driven

import "context"

// PlannerService provides the language model completion used for slide
// planning. The planning service owns prompt construction and response
// parsing; implementations only move text.
//
// Implementations may include:
//   - Gemini (Google Generative Language API)
//   - OpenAI (Chat Completions API)
type PlannerService interface {
	// Complete produces a completion for a prompt.
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used by the doctor command before a run commits.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompleteOptions configures completion behaviour.
type CompleteOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// JSONResponse asks the provider to emit a JSON document. Providers
	// without a native JSON mode may ignore it; callers must still
	// tolerate fenced output.
	JSONResponse bool
}
