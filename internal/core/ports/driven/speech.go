package driven

import "context"

// SpeechService synthesizes narration audio from text.
//
// Implementations may include:
//   - Sarvam AI (bulbul models)
//   - Google Cloud Text-to-Speech
type SpeechService interface {
	// Synthesize converts text to audio and returns the encoded bytes.
	// Implementations cap input length per request; callers chunk long
	// scripts and concatenate the results.
	Synthesize(ctx context.Context, text string, opts SpeechOptions) ([]byte, error)

	// MaxTextLength returns the longest text accepted per request.
	MaxTextLength() int

	// VoiceName returns the voice in use.
	VoiceName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// SpeechOptions configures synthesis behaviour.
type SpeechOptions struct {
	// Voice is the speaker voice name. Empty uses the service default.
	Voice string

	// Language is the language code, e.g. "en-IN".
	Language string

	// SampleRate is the requested output sample rate in Hz.
	SampleRate int
}
