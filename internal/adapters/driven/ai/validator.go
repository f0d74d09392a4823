package ai

import (
	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.ProviderValidator = (*ConfigValidator)(nil)

// ConfigValidator validates provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new provider config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateExtraction validates an extraction configuration by pinging the OCR service.
func (v *ConfigValidator) ValidateExtraction(config *domain.ExtractionSettings) error {
	return ValidateExtractionConfig(config)
}

// ValidatePlanner validates a planner configuration by pinging the provider.
func (v *ConfigValidator) ValidatePlanner(config *domain.PlannerSettings) error {
	return ValidatePlannerConfig(config)
}

// ValidateSpeech validates a speech configuration by pinging the provider.
func (v *ConfigValidator) ValidateSpeech(config *domain.SpeechSettings) error {
	return ValidateSpeechConfig(config)
}
