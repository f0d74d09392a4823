package driving

import "github.com/custodia-labs/slidecast/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetExtraction configures the OCR service.
	SetExtraction(model, apiKey string) error

	// SetPlanner configures the slide planner provider.
	SetPlanner(provider domain.PlannerProvider, model, apiKey string) error

	// SetSpeech configures the narration provider.
	SetSpeech(provider domain.SpeechProvider, voice, language, apiKey string) error

	// SetDefaults updates the default run options.
	SetDefaults(defaults domain.ConvertDefaults) error

	// Validate checks that current settings are internally consistent.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// RunConfigFromSettings builds a run configuration from the stored
	// defaults. Callers overlay command-line flags on top.
	RunConfigFromSettings() (domain.RunConfig, error)

	// ValidateExtractionConfig validates the extraction configuration by pinging the provider.
	ValidateExtractionConfig() error

	// ValidatePlannerConfig validates the planner configuration by pinging the provider.
	ValidatePlannerConfig() error

	// ValidateSpeechConfig validates the speech configuration by pinging the provider.
	ValidateSpeechConfig() error
}
