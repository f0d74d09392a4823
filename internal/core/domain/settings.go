package domain

const unknownDescription = "Unknown"

// PlannerProvider identifies the LLM service used for slide planning.
type PlannerProvider string

// Available planner providers.
const (
	// PlannerProviderGemini is the Google Generative Language API.
	PlannerProviderGemini PlannerProvider = "gemini"

	// PlannerProviderOpenAI is the OpenAI Chat Completions API.
	PlannerProviderOpenAI PlannerProvider = "openai"
)

// IsValid returns true if the planner provider is recognised.
func (p PlannerProvider) IsValid() bool {
	switch p {
	case PlannerProviderGemini, PlannerProviderOpenAI:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p PlannerProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p PlannerProvider) Description() string {
	switch p {
	case PlannerProviderGemini:
		return "Gemini (Google Generative Language API)"
	case PlannerProviderOpenAI:
		return "OpenAI (Chat Completions API)"
	default:
		return unknownDescription
	}
}

// SpeechProvider identifies the text-to-speech service.
type SpeechProvider string

// Available speech providers.
const (
	// SpeechProviderSarvam is the Sarvam AI TTS API.
	SpeechProviderSarvam SpeechProvider = "sarvam"

	// SpeechProviderGoogle is Google Cloud Text-to-Speech.
	SpeechProviderGoogle SpeechProvider = "google"
)

// IsValid returns true if the speech provider is recognised.
func (p SpeechProvider) IsValid() bool {
	switch p {
	case SpeechProviderSarvam, SpeechProviderGoogle:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p SpeechProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p SpeechProvider) Description() string {
	switch p {
	case SpeechProviderSarvam:
		return "Sarvam AI (cloud TTS)"
	case SpeechProviderGoogle:
		return "Google Cloud Text-to-Speech"
	default:
		return unknownDescription
	}
}

// ExtractionSettings holds document extraction (OCR) configuration.
type ExtractionSettings struct {
	// Model is the OCR model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the opaque service token.
	APIKey string
}

// IsConfigured returns true if the extraction service is set up.
func (e ExtractionSettings) IsConfigured() bool {
	return e.APIKey != ""
}

// PlannerSettings holds slide planner configuration.
type PlannerSettings struct {
	// Provider is the planner model provider.
	Provider PlannerProvider

	// Model is the model name.
	Model string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the opaque service token.
	APIKey string
}

// IsConfigured returns true if the planner is set up.
func (p PlannerSettings) IsConfigured() bool {
	return p.Provider.IsValid() && p.APIKey != ""
}

// SpeechSettings holds narration synthesis configuration.
type SpeechSettings struct {
	// Provider is the speech service provider.
	Provider SpeechProvider

	// Voice is the speaker voice name.
	Voice string

	// Language is the narration language code.
	Language string

	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// APIKey is the opaque service token.
	APIKey string
}

// IsConfigured returns true if the speech service is set up.
func (s SpeechSettings) IsConfigured() bool {
	return s.Provider.IsValid() && s.APIKey != ""
}

// ConvertDefaults are the default run options applied when the caller
// does not override them.
type ConvertDefaults struct {
	// TargetSlideCount is the default slide count, or AutoSlideCount.
	TargetSlideCount int

	// FiguresEnabled requests figure extraction by default.
	FiguresEnabled bool

	// Theme is the default deck theme.
	Theme string

	// ImageScale is the renderer image scale factor.
	ImageScale int

	// SlideSeconds is the per-slide display time for no-narration
	// assemblies.
	SlideSeconds int

	// MaxConcurrentNarrations bounds per-slide synthesis concurrency.
	MaxConcurrentNarrations int

	// OutputDir is the parent directory for run workspaces.
	OutputDir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Extraction holds OCR service settings.
	Extraction ExtractionSettings

	// Planner holds slide planner settings.
	Planner PlannerSettings

	// Speech holds narration synthesis settings.
	Speech SpeechSettings

	// Defaults holds default run options.
	Defaults ConvertDefaults
}

// DefaultAppSettings returns settings with sensible defaults.
// Service credentials are left unconfigured; users supply them via the
// settings wizard or environment variables.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Extraction: ExtractionSettings{
			Model: "mistral-ocr-latest",
		},
		Planner: PlannerSettings{
			Provider: PlannerProviderGemini,
			Model:    DefaultPlannerModels()[PlannerProviderGemini],
		},
		Speech: SpeechSettings{
			Provider: SpeechProviderSarvam,
			Voice:    DefaultVoices()[SpeechProviderSarvam],
			Language: DefaultLanguages()[SpeechProviderSarvam],
		},
		Defaults: ConvertDefaults{
			TargetSlideCount:        10,
			FiguresEnabled:          true,
			Theme:                   "gaia",
			ImageScale:              2,
			SlideSeconds:            5,
			MaxConcurrentNarrations: 3,
		},
	}
}

// AllPlannerProviders returns the selectable planner providers.
func AllPlannerProviders() []PlannerProvider {
	return []PlannerProvider{
		PlannerProviderGemini,
		PlannerProviderOpenAI,
	}
}

// AllSpeechProviders returns the selectable speech providers.
func AllSpeechProviders() []SpeechProvider {
	return []SpeechProvider{
		SpeechProviderSarvam,
		SpeechProviderGoogle,
	}
}

// DefaultPlannerModels returns default models for each planner provider.
func DefaultPlannerModels() map[PlannerProvider]string {
	return map[PlannerProvider]string{
		PlannerProviderGemini: "gemini-2.5-pro",
		PlannerProviderOpenAI: "gpt-4o-mini",
	}
}

// DefaultVoices returns default voices for each speech provider.
func DefaultVoices() map[SpeechProvider]string {
	return map[SpeechProvider]string{
		SpeechProviderSarvam: "anushka",
		SpeechProviderGoogle: "en-US-Neural2-F",
	}
}

// DefaultLanguages returns default language codes for each speech provider.
func DefaultLanguages() map[SpeechProvider]string {
	return map[SpeechProvider]string{
		SpeechProviderSarvam: "en-IN",
		SpeechProviderGoogle: "en-US",
	}
}
