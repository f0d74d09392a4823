// Package sarvam provides a speech synthesis adapter using the Sarvam
// AI text-to-speech API.
package sarvam

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
)

// Ensure Speech implements the interface.
var _ driven.SpeechService = (*Speech)(nil)

// Default configuration values.
const (
	DefaultBaseURL  = "https://api.sarvam.ai"
	DefaultModel    = "bulbul:v2"
	DefaultVoice    = "anushka"
	DefaultLanguage = "en-IN"
	DefaultTimeout  = 60 * time.Second

	// maxTextLength is the per-request input cap the service enforces.
	maxTextLength = 500
)

// Config holds configuration for the Sarvam speech service.
type Config struct {
	// APIKey is the Sarvam API subscription key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.sarvam.ai).
	BaseURL string

	// Model is the TTS model (default: bulbul:v2).
	Model string

	// Voice is the default speaker voice (default: anushka).
	Voice string

	// Language is the default language code (default: en-IN).
	Language string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Speech synthesizes narration audio via the text-to-speech endpoint.
// The service caps input at 500 characters per request; callers chunk
// longer scripts and concatenate the clips.
type Speech struct {
	client   *http.Client
	baseURL  string
	apiKey   string
	model    string
	voice    string
	language string
}

// ttsRequest is the /text-to-speech request format.
type ttsRequest struct {
	Text               string `json:"text"`
	TargetLanguageCode string `json:"target_language_code"`
	Speaker            string `json:"speaker"`
	Model              string `json:"model"`
	SampleRate         int    `json:"speech_sample_rate,omitempty"`
}

// ttsResponse is the /text-to-speech response format. Audio arrives as
// base64 WAV, one entry per input.
type ttsResponse struct {
	RequestID string   `json:"request_id"`
	Audios    []string `json:"audios"`
	Error     *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// New creates a new Sarvam speech service.
func New(cfg Config) (*Speech, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sarvam: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Speech{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		voice:    cfg.Voice,
		language: cfg.Language,
	}, nil
}

// Synthesize converts text to audio and returns the encoded WAV bytes.
func (s *Speech) Synthesize(ctx context.Context, text string, opts driven.SpeechOptions) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.NewSynthesisError(fmt.Errorf("no text to synthesize"), false)
	}
	if len(text) > maxTextLength {
		return nil, domain.NewSynthesisError(
			fmt.Errorf("text is %d characters, the service accepts %d per request", len(text), maxTextLength), false)
	}

	voice := opts.Voice
	if voice == "" {
		voice = s.voice
	}
	language := opts.Language
	if language == "" {
		language = s.language
	}

	reqBody := ttsRequest{
		Text:               text,
		TargetLanguageCode: language,
		Speaker:            voice,
		Model:              s.model,
		SampleRate:         opts.SampleRate,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, domain.NewSynthesisError(fmt.Errorf("marshal request: %w", err), false)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/text-to-speech", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, domain.NewSynthesisError(fmt.Errorf("create request: %w", err), false)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-subscription-key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.NewSynthesisError(fmt.Errorf("send request: %w", err), true)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewSynthesisError(fmt.Errorf("read response: %w", err), true)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, body)
	}

	var ttsResp ttsResponse
	if err := json.Unmarshal(body, &ttsResp); err != nil {
		return nil, domain.NewSynthesisError(fmt.Errorf("decode response: %w", err), false)
	}
	if len(ttsResp.Audios) == 0 || ttsResp.Audios[0] == "" {
		return nil, domain.NewSynthesisError(fmt.Errorf("service returned no audio"), false)
	}

	audio, err := base64.StdEncoding.DecodeString(ttsResp.Audios[0])
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

// Ping validates the key with a minimal synthesis request. The service
// has no metadata endpoint, so this spends one short TTS call.
func (s *Speech) Ping(ctx context.Context) error {
	_, err := s.Synthesize(ctx, "ok", driven.SpeechOptions{})
	if err != nil {
		return fmt.Errorf("sarvam: ping failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *Speech) Close() error {
	return nil
}

// statusError classifies a non-200 response.
func statusError(status int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var ttsResp ttsResponse
	if err := json.Unmarshal(body, &ttsResp); err == nil && ttsResp.Error != nil && ttsResp.Error.Message != "" {
		msg = ttsResp.Error.Message
	}

	switch {
	case status == http.StatusTooManyRequests:
		return domain.NewSynthesisError(fmt.Errorf("%w: %s", domain.ErrRateLimited, msg), true)
	case status >= 500:
		return domain.NewSynthesisError(fmt.Errorf("service error (status %d): %s", status, msg), true)
	default:
		return domain.NewSynthesisError(fmt.Errorf("request rejected (status %d): %s", status, msg), false)
	}
}
