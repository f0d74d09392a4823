package services

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/slidecast/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/slidecast/internal/core/domain"
)

func TestMain(m *testing.M) {
	// Environment overrides are exercised explicitly below; a
	// developer's real credentials must not leak into the other
	// assertions.
	envLookup = func(string) string { return "" }
	os.Exit(m.Run())
}

// --- Mock implementations for settings testing ---

// failingConfigStore wraps the memory store and fails Set for one key.
type failingConfigStore struct {
	*memory.ConfigStore
	failOn string
}

func (f *failingConfigStore) Set(key string, value any) error {
	if f.failOn == "" || key == f.failOn {
		return assert.AnError
	}
	return f.ConfigStore.Set(key, value)
}

// settingsMockValidator implements driven.ProviderValidator.
type settingsMockValidator struct {
	extractionErr error
	plannerErr    error
	speechErr     error
}

func (m *settingsMockValidator) ValidateExtraction(_ *domain.ExtractionSettings) error {
	return m.extractionErr
}

func (m *settingsMockValidator) ValidatePlanner(_ *domain.PlannerSettings) error {
	return m.plannerErr
}

func (m *settingsMockValidator) ValidateSpeech(_ *domain.SpeechSettings) error {
	return m.speechErr
}

// --- Tests ---

func TestNewSettingsService(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	require.NotNil(t, settings)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Extraction.Model, settings.Extraction.Model)
	assert.Equal(t, defaults.Planner.Provider, settings.Planner.Provider)
	assert.Equal(t, defaults.Planner.Model, settings.Planner.Model)
	assert.Equal(t, defaults.Speech.Provider, settings.Speech.Provider)
	assert.Equal(t, defaults.Speech.Voice, settings.Speech.Voice)
	assert.Equal(t, defaults.Speech.Language, settings.Speech.Language)
	assert.Equal(t, defaults.Defaults.TargetSlideCount, settings.Defaults.TargetSlideCount)
	assert.Equal(t, defaults.Defaults.Theme, settings.Defaults.Theme)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("planner.provider", "openai")
	_ = store.Set("planner.model", "gpt-4o")
	_ = store.Set("planner.api_key", "sk-test")
	_ = store.Set("speech.provider", "google")
	_ = store.Set("speech.voice", "en-US-Neural2-D")
	_ = store.Set("convert.theme", "uncover")

	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.PlannerProviderOpenAI, settings.Planner.Provider)
	assert.Equal(t, "gpt-4o", settings.Planner.Model)
	assert.Equal(t, "sk-test", settings.Planner.APIKey)
	assert.Equal(t, domain.SpeechProviderGoogle, settings.Speech.Provider)
	assert.Equal(t, "en-US-Neural2-D", settings.Speech.Voice)
	assert.Equal(t, "uncover", settings.Defaults.Theme)
}

func TestSettingsService_Get_InvalidProvidersReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("planner.provider", "invalid_provider")
	_ = store.Set("speech.provider", "invalid_provider")

	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Planner.Provider, settings.Planner.Provider)
	assert.Equal(t, defaults.Speech.Provider, settings.Speech.Provider)
}

func TestSettingsService_Get_StoredZeroValuesKept(t *testing.T) {
	store := memory.NewConfigStore()
	// Auto slide count and disabled figures are stored zeros; they must
	// not fall back to the non-zero defaults.
	_ = store.Set("convert.slide_count", 0)
	_ = store.Set("convert.figures", false)

	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.AutoSlideCount, settings.Defaults.TargetSlideCount)
	assert.False(t, settings.Defaults.FiguresEnabled)
}

func TestSettingsService_Get_EnvOverridesStoredKeys(t *testing.T) {
	oldLookup := envLookup
	envLookup = func(key string) string {
		switch key {
		case "MISTRAL_API_KEY":
			return "env-mistral"
		case "GEMINI_API_KEY":
			return "env-gemini"
		case "SARVAM_API_KEY":
			return "env-sarvam"
		}
		return ""
	}
	defer func() { envLookup = oldLookup }()

	store := memory.NewConfigStore()
	_ = store.Set("extraction.api_key", "stored-mistral")
	_ = store.Set("planner.api_key", "stored-gemini")
	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "env-mistral", settings.Extraction.APIKey)
	assert.Equal(t, "env-gemini", settings.Planner.APIKey)
	assert.Equal(t, "env-sarvam", settings.Speech.APIKey)
}

func TestSettingsService_Get_EnvKeyMatchesProvider(t *testing.T) {
	// A gemini key in the environment must not feed an openai planner.
	oldLookup := envLookup
	envLookup = func(key string) string {
		if key == "GEMINI_API_KEY" {
			return "env-gemini"
		}
		return ""
	}
	defer func() { envLookup = oldLookup }()

	store := memory.NewConfigStore()
	_ = store.Set("planner.provider", "openai")
	_ = store.Set("planner.api_key", "sk-stored")
	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "sk-stored", settings.Planner.APIKey)
}

func TestSettingsService_Get_EmptyEnvKeepsStored(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("planner.api_key", "sk-stored")
	service := NewSettingsService(store, nil)

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, "sk-stored", settings.Planner.APIKey)
}

func TestSettingsService_Save(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	settings := &domain.AppSettings{
		Extraction: domain.ExtractionSettings{
			Model:  "mistral-ocr-latest",
			APIKey: "mistral-key",
		},
		Planner: domain.PlannerSettings{
			Provider: domain.PlannerProviderOpenAI,
			Model:    "gpt-4o",
			BaseURL:  "https://api.openai.com/v1",
			APIKey:   "sk-test",
		},
		Speech: domain.SpeechSettings{
			Provider: domain.SpeechProviderSarvam,
			Voice:    "anushka",
			Language: "en-IN",
			APIKey:   "sarvam-key",
		},
		Defaults: domain.ConvertDefaults{
			TargetSlideCount:        7,
			FiguresEnabled:          true,
			Theme:                   "gaia",
			ImageScale:              2,
			SlideSeconds:            5,
			MaxConcurrentNarrations: 3,
			OutputDir:               "/tmp/slidecast",
		},
	}

	err := service.Save(settings)
	require.NoError(t, err)

	retrieved, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "mistral-key", retrieved.Extraction.APIKey)
	assert.Equal(t, domain.PlannerProviderOpenAI, retrieved.Planner.Provider)
	assert.Equal(t, "gpt-4o", retrieved.Planner.Model)
	assert.Equal(t, "https://api.openai.com/v1", retrieved.Planner.BaseURL)
	assert.Equal(t, "sk-test", retrieved.Planner.APIKey)
	assert.Equal(t, "anushka", retrieved.Speech.Voice)
	assert.Equal(t, 7, retrieved.Defaults.TargetSlideCount)
	assert.Equal(t, "/tmp/slidecast", retrieved.Defaults.OutputDir)
}

func TestSettingsService_Save_EmptyAPIKeyPreservesStored(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("planner.api_key", "sk-existing")
	service := NewSettingsService(store, nil)

	settings, err := service.Get()
	require.NoError(t, err)
	settings.Planner.APIKey = ""

	require.NoError(t, service.Save(settings))

	retrieved, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-existing", retrieved.Planner.APIKey,
		"an empty key in a save must not wipe the stored credential")
}

func TestSettingsService_SetExtraction(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.SetExtraction("mistral-ocr-latest", "mistral-key")

	require.NoError(t, err)
	settings, _ := service.Get()
	assert.Equal(t, "mistral-ocr-latest", settings.Extraction.Model)
	assert.Equal(t, "mistral-key", settings.Extraction.APIKey)
	assert.True(t, settings.Extraction.IsConfigured())
}

func TestSettingsService_SetExtraction_DefaultModel(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.SetExtraction("", "mistral-key")

	require.NoError(t, err)
	settings, _ := service.Get()
	assert.Equal(t, domain.DefaultAppSettings().Extraction.Model, settings.Extraction.Model)
}

func TestSettingsService_SetExtraction_RequiresAPIKey(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.SetExtraction("mistral-ocr-latest", "")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API key required")
}

func TestSettingsService_SetPlanner(t *testing.T) {
	tests := []struct {
		name     string
		provider domain.PlannerProvider
	}{
		{"gemini", domain.PlannerProviderGemini},
		{"openai", domain.PlannerProviderOpenAI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewConfigStore()
			service := NewSettingsService(store, nil)

			err := service.SetPlanner(tt.provider, "custom-model", "sk-test")

			require.NoError(t, err)
			settings, _ := service.Get()
			assert.Equal(t, tt.provider, settings.Planner.Provider)
			assert.Equal(t, "custom-model", settings.Planner.Model)
			assert.Equal(t, "sk-test", settings.Planner.APIKey)
		})
	}
}

func TestSettingsService_SetPlanner_DefaultModel(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.SetPlanner(domain.PlannerProviderOpenAI, "", "sk-test")

	require.NoError(t, err)
	settings, _ := service.Get()
	defaults := domain.DefaultPlannerModels()
	assert.Equal(t, defaults[domain.PlannerProviderOpenAI], settings.Planner.Model)
}

func TestSettingsService_SetPlanner_RequiresAPIKey(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.SetPlanner(domain.PlannerProviderGemini, "gemini-2.5-pro", "")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API key required")
}

func TestSettingsService_SetPlanner_InvalidProvider(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.SetPlanner(domain.PlannerProvider("invalid"), "", "sk-test")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid planner provider")
}

func TestSettingsService_SetSpeech_SwitchResetsVoiceAndLanguage(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	// Start on the Sarvam defaults, then switch provider without
	// naming a voice or language.
	require.NoError(t, service.SetSpeech(domain.SpeechProviderSarvam, "", "", "sarvam-key"))
	err := service.SetSpeech(domain.SpeechProviderGoogle, "", "", "google-key")

	require.NoError(t, err)
	settings, _ := service.Get()
	assert.Equal(t, domain.SpeechProviderGoogle, settings.Speech.Provider)
	assert.Equal(t, domain.DefaultVoices()[domain.SpeechProviderGoogle], settings.Speech.Voice)
	assert.Equal(t, domain.DefaultLanguages()[domain.SpeechProviderGoogle], settings.Speech.Language)
}

func TestSettingsService_SetSpeech_ExplicitVoiceKept(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.SetSpeech(domain.SpeechProviderSarvam, "karun", "hi-IN", "sarvam-key")

	require.NoError(t, err)
	settings, _ := service.Get()
	assert.Equal(t, "karun", settings.Speech.Voice)
	assert.Equal(t, "hi-IN", settings.Speech.Language)
}

func TestSettingsService_SetSpeech_RequiresAPIKey(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.SetSpeech(domain.SpeechProviderSarvam, "", "", "")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "API key required")
}

func TestSettingsService_SetSpeech_InvalidProvider(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.SetSpeech(domain.SpeechProvider("invalid"), "", "", "key")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid speech provider")
}

func TestSettingsService_SetDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.SetDefaults(domain.ConvertDefaults{
		TargetSlideCount:        domain.AutoSlideCount,
		FiguresEnabled:          false,
		Theme:                   "uncover",
		ImageScale:              3,
		SlideSeconds:            8,
		MaxConcurrentNarrations: 5,
		OutputDir:               "/data/out",
	})

	require.NoError(t, err)
	settings, _ := service.Get()
	assert.Equal(t, domain.AutoSlideCount, settings.Defaults.TargetSlideCount)
	assert.False(t, settings.Defaults.FiguresEnabled)
	assert.Equal(t, "uncover", settings.Defaults.Theme)
	assert.Equal(t, 3, settings.Defaults.ImageScale)
	assert.Equal(t, 8, settings.Defaults.SlideSeconds)
	assert.Equal(t, 5, settings.Defaults.MaxConcurrentNarrations)
	assert.Equal(t, "/data/out", settings.Defaults.OutputDir)
}

func TestSettingsService_SetDefaults_InvalidSlideCount(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.SetDefaults(domain.ConvertDefaults{TargetSlideCount: 25})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid slide count")
}

func TestSettingsService_Validate_UnconfiguredPlanner(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	err := service.Validate()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "requires an API key")
}

func TestSettingsService_Validate_ConfiguredPlanner(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)
	require.NoError(t, service.SetPlanner(domain.PlannerProviderGemini, "", "sk-test"))

	err := service.Validate()

	// Speech and extraction stay optional; slides-only conversions of
	// local formats need neither.
	assert.NoError(t, err)
}

func TestSettingsService_GetDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	defaults := service.GetDefaults()

	assert.Equal(t, domain.DefaultAppSettings(), defaults)
}

func TestSettingsService_RunConfigFromSettings(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set("convert.slide_count", 8)
	_ = store.Set("convert.figures", true)
	_ = store.Set("convert.theme", "uncover")
	_ = store.Set("convert.output_dir", "/data/out")
	_ = store.Set("speech.voice", "karun")
	_ = store.Set("speech.language", "hi-IN")
	service := NewSettingsService(store, nil)

	cfg, err := service.RunConfigFromSettings()

	require.NoError(t, err)
	assert.Equal(t, 8, cfg.TargetSlideCount)
	assert.True(t, cfg.FiguresEnabled)
	assert.Equal(t, "uncover", cfg.Theme)
	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, "karun", cfg.Voice)
	assert.Equal(t, "hi-IN", cfg.Language)
	assert.True(t, cfg.KeepArtifacts)
}

func TestSettingsService_Save_StoreErrors(t *testing.T) {
	tests := []struct {
		name    string
		failOn  string
		wantMsg string
	}{
		{"extraction model", "extraction.model", "extraction model"},
		{"planner provider", "planner.provider", "planner provider"},
		{"planner api key", "planner.api_key", "planner api_key"},
		{"speech voice", "speech.voice", "speech voice"},
		{"slide count", "convert.slide_count", "slide count"},
		{"output dir", "convert.output_dir", "output dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &failingConfigStore{
				ConfigStore: memory.NewConfigStore(),
				failOn:      tt.failOn,
			}
			service := NewSettingsService(store, nil)

			settings := domain.DefaultAppSettings()
			settings.Extraction.APIKey = "mistral-key"
			settings.Planner.APIKey = "sk-test"
			settings.Speech.APIKey = "sarvam-key"

			err := service.Save(&settings)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestSettingsService_ValidateConfigs_NilValidator(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, nil)

	assert.NoError(t, service.ValidateExtractionConfig())
	assert.NoError(t, service.ValidatePlannerConfig())
	assert.NoError(t, service.ValidateSpeechConfig())
}

func TestSettingsService_ValidateConfigs_Success(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store, &settingsMockValidator{})

	assert.NoError(t, service.ValidateExtractionConfig())
	assert.NoError(t, service.ValidatePlannerConfig())
	assert.NoError(t, service.ValidateSpeechConfig())
}

func TestSettingsService_ValidateConfigs_Errors(t *testing.T) {
	store := memory.NewConfigStore()
	validator := &settingsMockValidator{
		extractionErr: assert.AnError,
		plannerErr:    assert.AnError,
		speechErr:     assert.AnError,
	}
	service := NewSettingsService(store, validator)

	assert.Error(t, service.ValidateExtractionConfig())
	assert.Error(t, service.ValidatePlannerConfig())
	assert.Error(t, service.ValidateSpeechConfig())
}
