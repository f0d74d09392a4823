package services

import (
	"fmt"
	"os"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyExtractionModel   = "extraction.model"
	keyExtractionBaseURL = "extraction.base_url"
	keyExtractionAPIKey  = "extraction.api_key"
	keyPlannerProvider   = "planner.provider"
	keyPlannerModel      = "planner.model"
	keyPlannerBaseURL    = "planner.base_url"
	keyPlannerAPIKey     = "planner.api_key"
	keySpeechProvider    = "speech.provider"
	keySpeechVoice       = "speech.voice"
	keySpeechLanguage    = "speech.language"
	keySpeechBaseURL     = "speech.base_url"
	keySpeechAPIKey      = "speech.api_key"
	keySlideCount        = "convert.slide_count"
	keyFigures           = "convert.figures"
	keyTheme             = "convert.theme"
	keyImageScale        = "convert.image_scale"
	keySlideSeconds      = "convert.slide_seconds"
	keyMaxNarrations     = "convert.max_narrations"
	keyOutputDir         = "convert.output_dir"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.ProviderValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, validator driven.ProviderValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Extraction: domain.ExtractionSettings{
			Model:   s.getString(keyExtractionModel, defaults.Extraction.Model),
			BaseURL: s.configStore.GetString(keyExtractionBaseURL), // No default - empty means the provider endpoint
			APIKey:  s.configStore.GetString(keyExtractionAPIKey),
		},
		Planner: domain.PlannerSettings{
			Provider: s.getPlannerProvider(defaults.Planner.Provider),
			Model:    s.getString(keyPlannerModel, defaults.Planner.Model),
			BaseURL:  s.configStore.GetString(keyPlannerBaseURL), // No default - empty means the provider endpoint
			APIKey:   s.configStore.GetString(keyPlannerAPIKey),
		},
		Speech: domain.SpeechSettings{
			Provider: s.getSpeechProvider(defaults.Speech.Provider),
			Voice:    s.getString(keySpeechVoice, defaults.Speech.Voice),
			Language: s.getString(keySpeechLanguage, defaults.Speech.Language),
			BaseURL:  s.configStore.GetString(keySpeechBaseURL), // No default - empty means the provider endpoint
			APIKey:   s.configStore.GetString(keySpeechAPIKey),
		},
		Defaults: domain.ConvertDefaults{
			TargetSlideCount:        s.getInt(keySlideCount, defaults.Defaults.TargetSlideCount),
			FiguresEnabled:          s.getBool(keyFigures, defaults.Defaults.FiguresEnabled),
			Theme:                   s.getString(keyTheme, defaults.Defaults.Theme),
			ImageScale:              s.getInt(keyImageScale, defaults.Defaults.ImageScale),
			SlideSeconds:            s.getInt(keySlideSeconds, defaults.Defaults.SlideSeconds),
			MaxConcurrentNarrations: s.getInt(keyMaxNarrations, defaults.Defaults.MaxConcurrentNarrations),
			OutputDir:               s.getString(keyOutputDir, defaults.Defaults.OutputDir),
		},
	}

	applyEnvOverrides(settings)

	return settings, nil
}

// envLookup resolves environment overrides. Tests replace it so
// machine credentials cannot leak into assertions.
var envLookup = os.Getenv

// applyEnvOverrides lets environment variables take precedence over
// stored provider credentials. A .env file loaded at startup feeds the
// same variables.
func applyEnvOverrides(settings *domain.AppSettings) {
	if v := envLookup("MISTRAL_API_KEY"); v != "" {
		settings.Extraction.APIKey = v
	}

	switch settings.Planner.Provider {
	case domain.PlannerProviderGemini:
		if v := envLookup("GEMINI_API_KEY"); v != "" {
			settings.Planner.APIKey = v
		}
	case domain.PlannerProviderOpenAI:
		if v := envLookup("OPENAI_API_KEY"); v != "" {
			settings.Planner.APIKey = v
		}
	}

	switch settings.Speech.Provider {
	case domain.SpeechProviderSarvam:
		if v := envLookup("SARVAM_API_KEY"); v != "" {
			settings.Speech.APIKey = v
		}
	case domain.SpeechProviderGoogle:
		if v := envLookup("GOOGLE_TTS_API_KEY"); v != "" {
			settings.Speech.APIKey = v
		}
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	// Save extraction settings
	if err := s.configStore.Set(keyExtractionModel, settings.Extraction.Model); err != nil {
		return fmt.Errorf("save extraction model: %w", err)
	}
	if err := s.configStore.Set(keyExtractionBaseURL, settings.Extraction.BaseURL); err != nil {
		return fmt.Errorf("save extraction base_url: %w", err)
	}
	if settings.Extraction.APIKey != "" {
		if err := s.configStore.Set(keyExtractionAPIKey, settings.Extraction.APIKey); err != nil {
			return fmt.Errorf("save extraction api_key: %w", err)
		}
	}

	// Save planner settings
	if err := s.configStore.Set(keyPlannerProvider, settings.Planner.Provider.String()); err != nil {
		return fmt.Errorf("save planner provider: %w", err)
	}
	if err := s.configStore.Set(keyPlannerModel, settings.Planner.Model); err != nil {
		return fmt.Errorf("save planner model: %w", err)
	}
	if err := s.configStore.Set(keyPlannerBaseURL, settings.Planner.BaseURL); err != nil {
		return fmt.Errorf("save planner base_url: %w", err)
	}
	if settings.Planner.APIKey != "" {
		if err := s.configStore.Set(keyPlannerAPIKey, settings.Planner.APIKey); err != nil {
			return fmt.Errorf("save planner api_key: %w", err)
		}
	}

	// Save speech settings
	if err := s.configStore.Set(keySpeechProvider, settings.Speech.Provider.String()); err != nil {
		return fmt.Errorf("save speech provider: %w", err)
	}
	if err := s.configStore.Set(keySpeechVoice, settings.Speech.Voice); err != nil {
		return fmt.Errorf("save speech voice: %w", err)
	}
	if err := s.configStore.Set(keySpeechLanguage, settings.Speech.Language); err != nil {
		return fmt.Errorf("save speech language: %w", err)
	}
	if err := s.configStore.Set(keySpeechBaseURL, settings.Speech.BaseURL); err != nil {
		return fmt.Errorf("save speech base_url: %w", err)
	}
	if settings.Speech.APIKey != "" {
		if err := s.configStore.Set(keySpeechAPIKey, settings.Speech.APIKey); err != nil {
			return fmt.Errorf("save speech api_key: %w", err)
		}
	}

	// Save convert defaults
	if err := s.configStore.Set(keySlideCount, settings.Defaults.TargetSlideCount); err != nil {
		return fmt.Errorf("save slide count: %w", err)
	}
	if err := s.configStore.Set(keyFigures, settings.Defaults.FiguresEnabled); err != nil {
		return fmt.Errorf("save figures flag: %w", err)
	}
	if err := s.configStore.Set(keyTheme, settings.Defaults.Theme); err != nil {
		return fmt.Errorf("save theme: %w", err)
	}
	if err := s.configStore.Set(keyImageScale, settings.Defaults.ImageScale); err != nil {
		return fmt.Errorf("save image scale: %w", err)
	}
	if err := s.configStore.Set(keySlideSeconds, settings.Defaults.SlideSeconds); err != nil {
		return fmt.Errorf("save slide seconds: %w", err)
	}
	if err := s.configStore.Set(keyMaxNarrations, settings.Defaults.MaxConcurrentNarrations); err != nil {
		return fmt.Errorf("save max narrations: %w", err)
	}
	if err := s.configStore.Set(keyOutputDir, settings.Defaults.OutputDir); err != nil {
		return fmt.Errorf("save output dir: %w", err)
	}

	return nil
}

// SetExtraction configures the OCR service.
func (s *SettingsService) SetExtraction(model, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("API key required for document extraction")
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if model != "" {
		settings.Extraction.Model = model
	}
	settings.Extraction.APIKey = apiKey

	return s.Save(settings)
}

// SetPlanner configures the slide planner provider.
func (s *SettingsService) SetPlanner(provider domain.PlannerProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid planner provider: %s", provider)
	}
	if apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Planner.Provider = provider

	// Set model - use provided or the provider default
	if model != "" {
		settings.Planner.Model = model
	} else if defaultModel, ok := domain.DefaultPlannerModels()[provider]; ok {
		settings.Planner.Model = defaultModel
	}

	settings.Planner.APIKey = apiKey

	return s.Save(settings)
}

// SetSpeech configures the narration provider.
func (s *SettingsService) SetSpeech(provider domain.SpeechProvider, voice, language, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid speech provider: %s", provider)
	}
	if apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Speech.Provider = provider

	// Switching provider resets voice and language to that provider's
	// defaults unless overridden; one provider's voice paired with
	// another's language code fails at synthesis time.
	if voice != "" {
		settings.Speech.Voice = voice
	} else if defaultVoice, ok := domain.DefaultVoices()[provider]; ok {
		settings.Speech.Voice = defaultVoice
	}
	if language != "" {
		settings.Speech.Language = language
	} else if defaultLanguage, ok := domain.DefaultLanguages()[provider]; ok {
		settings.Speech.Language = defaultLanguage
	}

	settings.Speech.APIKey = apiKey

	return s.Save(settings)
}

// SetDefaults updates the default run options.
func (s *SettingsService) SetDefaults(defaults domain.ConvertDefaults) error {
	if !domain.ValidTargetCount(defaults.TargetSlideCount) {
		return fmt.Errorf("invalid slide count %d: must be %d-%d or 0 for auto",
			defaults.TargetSlideCount, domain.MinSlideCount, domain.MaxSlideCount)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Defaults = defaults

	return s.Save(settings)
}

// Validate checks if current settings are complete enough to convert.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if !settings.Planner.Provider.IsValid() {
		return fmt.Errorf("invalid planner provider: %s", settings.Planner.Provider)
	}
	if !settings.Speech.Provider.IsValid() {
		return fmt.Errorf("invalid speech provider: %s", settings.Speech.Provider)
	}

	// Extraction is only needed for PDF input, but an unconfigured
	// planner blocks every conversion.
	if !settings.Planner.IsConfigured() {
		return fmt.Errorf("planner provider %q requires an API key", settings.Planner.Provider)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateExtractionConfig validates the current extraction configuration by pinging the provider.
func (s *SettingsService) ValidateExtractionConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateExtraction(&settings.Extraction)
}

// ValidatePlannerConfig validates the current planner configuration by pinging the provider.
func (s *SettingsService) ValidatePlannerConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidatePlanner(&settings.Planner)
}

// ValidateSpeechConfig validates the current speech configuration by pinging the provider.
func (s *SettingsService) ValidateSpeechConfig() error {
	if s.validator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.validator.ValidateSpeech(&settings.Speech)
}

// RunConfigFromSettings builds a run configuration from the stored
// defaults. Callers overlay command-line flags on top.
func (s *SettingsService) RunConfigFromSettings() (domain.RunConfig, error) {
	settings, err := s.Get()
	if err != nil {
		return domain.RunConfig{}, err
	}

	return domain.RunConfig{
		TargetSlideCount: settings.Defaults.TargetSlideCount,
		FiguresEnabled:   settings.Defaults.FiguresEnabled,
		Theme:            settings.Defaults.Theme,
		Language:         settings.Speech.Language,
		Voice:            settings.Speech.Voice,
		OutputDir:        settings.Defaults.OutputDir,
		KeepArtifacts:    true,
	}, nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getPlannerProvider(defaultVal domain.PlannerProvider) domain.PlannerProvider {
	val := s.configStore.GetString(keyPlannerProvider)
	if val == "" {
		return defaultVal
	}
	provider := domain.PlannerProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getSpeechProvider(defaultVal domain.SpeechProvider) domain.SpeechProvider {
	val := s.configStore.GetString(keySpeechProvider)
	if val == "" {
		return defaultVal
	}
	provider := domain.SpeechProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
