// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	gemini "github.com/custodia-labs/slidecast/internal/adapters/driven/llm/gemini"
	openai "github.com/custodia-labs/slidecast/internal/adapters/driven/llm/openai"
	mistral "github.com/custodia-labs/slidecast/internal/adapters/driven/ocr/mistral"
	googletts "github.com/custodia-labs/slidecast/internal/adapters/driven/tts/google"
	sarvam "github.com/custodia-labs/slidecast/internal/adapters/driven/tts/sarvam"
	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// InitResult contains the result of provider initialisation.
type InitResult struct {
	Extractor driven.DocumentExtractor // nil when extraction is unconfigured.
	Planner   driven.PlannerService
	Speech    driven.SpeechService // nil when narration is unconfigured.
	Warnings  []string             // Non-fatal issues, e.g. an unconfigured speech provider.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.Extractor != nil {
		r.Extractor.Close()
	}
	if r.Planner != nil {
		r.Planner.Close()
	}
	if r.Speech != nil {
		r.Speech.Close()
	}
}

// InitProviders builds every configured provider from settings without
// pinging them. Missing extraction or speech configuration degrades with
// a warning; conversions then reject PDF input or narrated runs, so only
// local formats or explicit --slides-only runs succeed. The
// planner has no fallback, so an unconfigured planner stays nil and the
// caller decides how hard to fail.
func InitProviders(ctx context.Context, settings *domain.AppSettings) (*InitResult, error) {
	result := &InitResult{}

	extractor, err := CreateExtractor(&settings.Extraction)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractorUnavailable, err)
	}
	result.Extractor = extractor
	if extractor == nil {
		result.Warnings = append(result.Warnings,
			"document extraction not configured; PDF input will be rejected")
	}

	planner, err := CreatePlanner(&settings.Planner)
	if err != nil {
		result.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrPlannerUnavailable, err)
	}
	result.Planner = planner

	speech, err := CreateSpeech(ctx, &settings.Speech)
	if err != nil {
		result.Close()
		return nil, fmt.Errorf("%w: %w", domain.ErrSpeechUnavailable, err)
	}
	result.Speech = speech
	if speech == nil {
		result.Warnings = append(result.Warnings,
			"speech synthesis not configured; pass --slides-only or configure a speech provider")
	}

	return result, nil
}

// CreateAndValidateExtractor creates an extraction service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateExtractor(settings *domain.ExtractionSettings) (driven.DocumentExtractor, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateExtractor(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'slidecast settings wizard' to fix",
			domain.ErrExtractorUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'slidecast settings wizard' to fix",
			domain.ErrExtractorUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidatePlanner creates a planner service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidatePlanner(settings *domain.PlannerSettings) (driven.PlannerService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreatePlanner(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'slidecast settings wizard' to fix",
			domain.ErrPlannerUnavailable, err)
	}
	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'slidecast settings wizard' to fix",
			domain.ErrPlannerUnavailable, err)
	}

	return svc, nil
}

// ValidateExtractionConfig validates an extraction configuration by creating a service and pinging it.
// This is intended for use in the settings wizard to validate credentials on configuration.
func ValidateExtractionConfig(settings *domain.ExtractionSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateExtractor(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidatePlannerConfig validates a planner configuration by creating a service and pinging it.
// This is intended for use in the settings wizard to validate credentials on configuration.
func ValidatePlannerConfig(settings *domain.PlannerSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreatePlanner(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateSpeechConfig validates a speech configuration by creating a service and pinging it.
// This is intended for use in the settings wizard to validate credentials on configuration.
func ValidateSpeechConfig(settings *domain.SpeechSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	svc, err := CreateSpeech(ctx, settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	return svc.Ping(ctx)
}

// CreateExtractor creates the OCR extraction service based on settings.
// Returns nil if the service is not configured.
func CreateExtractor(settings *domain.ExtractionSettings) (driven.DocumentExtractor, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	return mistral.New(mistral.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// CreatePlanner creates the appropriate planner service based on settings.
// Returns nil if the provider is not configured.
func CreatePlanner(settings *domain.PlannerSettings) (driven.PlannerService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.PlannerProviderGemini:
		return gemini.New(gemini.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.PlannerProviderOpenAI:
		return openai.New(openai.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported planner provider: %s", settings.Provider)
	}
}

// CreateSpeech creates the appropriate speech service based on settings.
// Returns nil if the provider is not configured. The context is used by
// providers whose clients authenticate at construction time.
func CreateSpeech(ctx context.Context, settings *domain.SpeechSettings) (driven.SpeechService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.SpeechProviderSarvam:
		return sarvam.New(sarvam.Config{
			APIKey:   settings.APIKey,
			BaseURL:  settings.BaseURL,
			Voice:    settings.Voice,
			Language: settings.Language,
		})

	case domain.SpeechProviderGoogle:
		return googletts.New(ctx, googletts.Config{
			APIKey:   settings.APIKey,
			Voice:    settings.Voice,
			Language: settings.Language,
		})

	default:
		return nil, fmt.Errorf("unsupported speech provider: %s", settings.Provider)
	}
}
