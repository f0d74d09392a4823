// Package google provides a speech synthesis adapter using the Google
// Cloud Text-to-Speech API.
package google

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	texttospeech "google.golang.org/api/texttospeech/v1"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
)

// Ensure Speech implements the interface.
var _ driven.SpeechService = (*Speech)(nil)

// Default configuration values.
const (
	DefaultVoice    = "en-US-Neural2-F"
	DefaultLanguage = "en-US"

	// maxTextLength is the documented 5000-byte input cap per request.
	maxTextLength = 5000
)

// Config holds configuration for the Google speech service.
type Config struct {
	// APIKey is the Google Cloud API key (required).
	APIKey string

	// Voice is the default voice name (default: en-US-Neural2-F).
	Voice string

	// Language is the default language code (default: en-US).
	Language string
}

// Speech synthesizes narration audio with the Cloud Text-to-Speech
// service. LINEAR16 output carries a WAV header, so clips are playable
// as written.
type Speech struct {
	svc      *texttospeech.Service
	voice    string
	language string
}

// New creates a new Google speech service.
func New(ctx context.Context, cfg Config) (*Speech, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("google: API key is required")
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}

	svc, err := texttospeech.NewService(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("google: create service: %w", err)
	}

	return &Speech{
		svc:      svc,
		voice:    cfg.Voice,
		language: cfg.Language,
	}, nil
}

// Synthesize converts text to audio and returns the encoded WAV bytes.
func (s *Speech) Synthesize(ctx context.Context, text string, opts driven.SpeechOptions) ([]byte, error) {
	if text == "" {
		return nil, domain.NewSynthesisError(fmt.Errorf("no text to synthesize"), false)
	}
	if len(text) > maxTextLength {
		return nil, domain.NewSynthesisError(
			fmt.Errorf("text is %d bytes, the service accepts %d per request", len(text), maxTextLength), false)
	}

	voice := opts.Voice
	if voice == "" {
		voice = s.voice
	}
	language := opts.Language
	if language == "" {
		language = s.language
	}

	req := &texttospeech.SynthesizeSpeechRequest{
		Input: &texttospeech.SynthesisInput{Text: text},
		Voice: &texttospeech.VoiceSelectionParams{
			LanguageCode: language,
			Name:         voice,
		},
		AudioConfig: &texttospeech.AudioConfig{
			AudioEncoding: "LINEAR16",
		},
	}
	if opts.SampleRate > 0 {
		req.AudioConfig.SampleRateHertz = int64(opts.SampleRate)
	}

	resp, err := s.svc.Text.Synthesize(req).Context(ctx).Do()
	if err != nil {
		return nil, classify(fmt.Errorf("synthesize: %w", err))
	}
	if resp.AudioContent == "" {
		return nil, domain.NewSynthesisError(fmt.Errorf("service returned no audio"), false)
	}

	audio, err := base64.StdEncoding.DecodeString(resp.AudioContent)
	if err != nil {
		return nil, domain.NewSynthesisError(fmt.Errorf("decode audio: %w", err), false)
	}
	return audio, nil
}

// MaxTextLength returns the longest text accepted per request.
func (s *Speech) MaxTextLength() int {
	return maxTextLength
}

// VoiceName returns the voice in use.
func (s *Speech) VoiceName() string {
	return s.voice
}

// Ping validates the key by listing available voices.
func (s *Speech) Ping(ctx context.Context) error {
	_, err := s.svc.Voices.List().LanguageCode(s.language).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("google: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *Speech) Close() error {
	return nil
}

// classify maps a Google API error onto a stage error. Rate limits and
// server errors are retried; everything else is treated as a rejected
// request.
func classify(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return domain.NewSynthesisError(err, true)
	}

	switch {
	case gerr.Code == http.StatusTooManyRequests:
		return domain.NewSynthesisError(fmt.Errorf("%w: %s", domain.ErrRateLimited, gerr.Message), true)
	case gerr.Code >= 500:
		return domain.NewSynthesisError(err, true)
	default:
		return domain.NewSynthesisError(err, false)
	}
}
