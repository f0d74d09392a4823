package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRunInProgress indicates a conversion is already running for the document.
	ErrRunInProgress = errors.New("run in progress")

	// ErrRunCancelled indicates the run was cancelled between stages.
	ErrRunCancelled = errors.New("run cancelled")

	// ErrUnsupportedFormat indicates an unrecognised input document format.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtractorUnavailable indicates the extraction service is not configured.
	// PDF input cannot be processed without it.
	ErrExtractorUnavailable = errors.New("extraction service unavailable")

	// ErrPlannerUnavailable indicates the planner model is not configured.
	ErrPlannerUnavailable = errors.New("planner service unavailable")

	// ErrSpeechUnavailable indicates the speech service is not configured.
	// Narrated runs are disabled without it; slides-only still works.
	ErrSpeechUnavailable = errors.New("speech service unavailable")

	// ErrBrowserMissing indicates the renderer could not find a headless
	// browser. Set CHROME_PATH or install Chromium.
	ErrBrowserMissing = errors.New("headless browser not found")

	// ErrToolMissing indicates a required external tool is not on PATH.
	ErrToolMissing = errors.New("external tool not found")

	// ErrRateLimited indicates an external API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)

// ErrorKind classifies a stage failure by the component that raised it.
type ErrorKind string

// Error kinds, one per external-facing component.
const (
	ErrorKindExtraction ErrorKind = "extraction"
	ErrorKindPlanning   ErrorKind = "planning"
	ErrorKindCompile    ErrorKind = "compile"
	ErrorKindSynthesis  ErrorKind = "synthesis"
	ErrorKindRender     ErrorKind = "render"
	ErrorKindAssembly   ErrorKind = "assembly"
)

// String returns the string representation.
func (k ErrorKind) String() string {
	return string(k)
}

// StageError is a classified pipeline failure. Transient errors are
// eligible for the owning component's retry budget; permanent errors
// propagate immediately.
type StageError struct {
	// Kind names the component that raised the error.
	Kind ErrorKind

	// Transient marks errors worth retrying (timeouts, rate limits,
	// service overload). Auth failures, bad input and invariant
	// violations are permanent.
	Transient bool

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	flavour := "permanent"
	if e.Transient {
		flavour = "transient"
	}
	return fmt.Sprintf("%s error (%s): %v", e.Kind, flavour, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StageError) Unwrap() error {
	return e.Err
}

// NewExtractionError classifies a document extraction failure.
func NewExtractionError(err error, transient bool) *StageError {
	return &StageError{Kind: ErrorKindExtraction, Transient: transient, Err: err}
}

// NewPlanningError classifies a slide planning failure.
func NewPlanningError(err error, transient bool) *StageError {
	return &StageError{Kind: ErrorKindPlanning, Transient: transient, Err: err}
}

// NewCompileError classifies a deck compilation failure.
// Compilation is pure, so these are always permanent.
func NewCompileError(err error) *StageError {
	return &StageError{Kind: ErrorKindCompile, Transient: false, Err: err}
}

// NewSynthesisError classifies a narration synthesis failure.
func NewSynthesisError(err error, transient bool) *StageError {
	return &StageError{Kind: ErrorKindSynthesis, Transient: transient, Err: err}
}

// NewRenderError classifies a frame rendering failure.
func NewRenderError(err error, transient bool) *StageError {
	return &StageError{Kind: ErrorKindRender, Transient: transient, Err: err}
}

// NewAssemblyError classifies a video assembly failure.
func NewAssemblyError(err error, transient bool) *StageError {
	return &StageError{Kind: ErrorKindAssembly, Transient: transient, Err: err}
}

// IsTransient reports whether err is a transient StageError.
// Non-stage errors are treated as permanent.
func IsTransient(err error) bool {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Transient
	}
	return false
}

// KindOf returns the error kind of err, or "" for non-stage errors.
func KindOf(err error) ErrorKind {
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return stageErr.Kind
	}
	return ""
}
