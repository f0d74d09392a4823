package driven

import "github.com/custodia-labs/slidecast/internal/core/domain"

// ProviderValidator validates service provider configurations.
// Implementations verify that configurations are valid by testing
// connectivity to the underlying services.
type ProviderValidator interface {
	// ValidateExtraction validates an extraction configuration by pinging the OCR service.
	// Returns nil if configuration is valid or not configured.
	ValidateExtraction(config *domain.ExtractionSettings) error

	// ValidatePlanner validates a planner configuration by pinging the provider.
	// Returns nil if configuration is valid or not configured.
	ValidatePlanner(config *domain.PlannerSettings) error

	// ValidateSpeech validates a speech configuration by pinging the provider.
	// Returns nil if configuration is valid or not configured.
	ValidateSpeech(config *domain.SpeechSettings) error
}
