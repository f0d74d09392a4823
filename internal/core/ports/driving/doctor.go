package driving

import "context"

// CheckStatus classifies one diagnostic check outcome.
type CheckStatus string

// Check outcomes.
const (
	// CheckPass means the check succeeded.
	CheckPass CheckStatus = "pass"

	// CheckWarn means the feature works partially or is unconfigured.
	CheckWarn CheckStatus = "warn"

	// CheckFail means conversions will fail until this is fixed.
	CheckFail CheckStatus = "fail"
)

// CheckResult is the outcome of one diagnostic check.
type CheckResult struct {
	// Name identifies the check, e.g. "ffmpeg".
	Name string

	// Status is the outcome.
	Status CheckStatus

	// Detail is a human-readable explanation, including install or
	// configuration guidance on failure.
	Detail string
}

// Doctor diagnoses the local environment and configuration.
type Doctor interface {
	// Diagnose runs the environment checks and returns their results
	// in a stable order. With live set, configured providers are also
	// pinged.
	Diagnose(ctx context.Context, live bool) []CheckResult
}
