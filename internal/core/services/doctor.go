package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
)

// Ensure DoctorService implements the interface.
var _ driving.Doctor = (*DoctorService)(nil)

// DoctorService runs environment preflight checks: external tools on
// PATH, a usable headless browser and configured provider credentials.
type DoctorService struct {
	renderer  driven.FrameRenderer
	media     driven.MediaProcessor
	settings  driving.SettingsService
	validator driven.ProviderValidator
}

// NewDoctorService creates a new doctor service.
func NewDoctorService(
	renderer driven.FrameRenderer,
	media driven.MediaProcessor,
	settings driving.SettingsService,
	validator driven.ProviderValidator,
) *DoctorService {
	return &DoctorService{
		renderer:  renderer,
		media:     media,
		settings:  settings,
		validator: validator,
	}
}

// Diagnose runs the environment checks and returns their results in a
// stable order. With live set, configured providers are also pinged.
func (s *DoctorService) Diagnose(ctx context.Context, live bool) []driving.CheckResult {
	results := []driving.CheckResult{
		s.checkMedia(ctx),
		s.checkRenderer(ctx),
	}
	results = append(results, s.checkProviders(live)...)
	return results
}

// checkMedia verifies the audio/video toolchain.
func (s *DoctorService) checkMedia(ctx context.Context) driving.CheckResult {
	if s.media == nil {
		return driving.CheckResult{
			Name:   "ffmpeg",
			Status: driving.CheckFail,
			Detail: "media processor not configured",
		}
	}
	if err := s.media.Available(ctx); err != nil {
		return driving.CheckResult{
			Name:   "ffmpeg",
			Status: driving.CheckFail,
			Detail: err.Error(),
		}
	}
	return driving.CheckResult{
		Name:   "ffmpeg",
		Status: driving.CheckPass,
		Detail: "audio and video toolchain found",
	}
}

// checkRenderer verifies the slide rasterizer, distinguishing a missing
// CLI from a missing browser.
func (s *DoctorService) checkRenderer(ctx context.Context) driving.CheckResult {
	if s.renderer == nil {
		return driving.CheckResult{
			Name:   "marp",
			Status: driving.CheckFail,
			Detail: "frame renderer not configured",
		}
	}
	err := s.renderer.Available(ctx)
	switch {
	case err == nil:
		return driving.CheckResult{
			Name:   "marp",
			Status: driving.CheckPass,
			Detail: "renderer and browser found",
		}
	case errors.Is(err, domain.ErrBrowserMissing):
		return driving.CheckResult{
			Name:   "marp",
			Status: driving.CheckFail,
			Detail: fmt.Sprintf("%v. Install Chrome or Chromium, or set CHROME_PATH", err),
		}
	default:
		return driving.CheckResult{
			Name:   "marp",
			Status: driving.CheckFail,
			Detail: err.Error(),
		}
	}
}

// checkProviders reports credential configuration and, when live,
// pings each configured provider.
func (s *DoctorService) checkProviders(live bool) []driving.CheckResult {
	settings, err := s.settings.Get()
	if err != nil {
		return []driving.CheckResult{{
			Name:   "settings",
			Status: driving.CheckFail,
			Detail: fmt.Sprintf("load settings: %v", err),
		}}
	}
	live = live && s.validator != nil

	extraction := driving.CheckResult{Name: "extraction"}
	switch {
	case !settings.Extraction.IsConfigured():
		extraction.Status = driving.CheckWarn
		extraction.Detail = "OCR API key not set; PDF input will fail"
	case live:
		extraction = liveCheck("extraction", func() error {
			return s.validator.ValidateExtraction(&settings.Extraction)
		})
	default:
		extraction.Status = driving.CheckPass
		extraction.Detail = fmt.Sprintf("model %s configured", settings.Extraction.Model)
	}

	planner := driving.CheckResult{Name: "planner"}
	switch {
	case !settings.Planner.IsConfigured():
		planner.Status = driving.CheckFail
		planner.Detail = fmt.Sprintf("%s API key not set; every conversion needs the planner", settings.Planner.Provider)
	case live:
		planner = liveCheck("planner", func() error {
			return s.validator.ValidatePlanner(&settings.Planner)
		})
	default:
		planner.Status = driving.CheckPass
		planner.Detail = fmt.Sprintf("%s / %s configured", settings.Planner.Provider, settings.Planner.Model)
	}

	speech := driving.CheckResult{Name: "speech"}
	switch {
	case !settings.Speech.IsConfigured():
		speech.Status = driving.CheckWarn
		speech.Detail = fmt.Sprintf("%s API key not set; only slides-only runs will work", settings.Speech.Provider)
	case live:
		speech = liveCheck("speech", func() error {
			return s.validator.ValidateSpeech(&settings.Speech)
		})
	default:
		speech.Status = driving.CheckPass
		speech.Detail = fmt.Sprintf("%s voice %s configured", settings.Speech.Provider, settings.Speech.Voice)
	}

	return []driving.CheckResult{extraction, planner, speech}
}

// liveCheck runs a provider ping and folds the outcome into a result.
func liveCheck(name string, ping func() error) driving.CheckResult {
	if err := ping(); err != nil {
		return driving.CheckResult{
			Name:   name,
			Status: driving.CheckFail,
			Detail: fmt.Sprintf("ping failed: %v", err),
		}
	}
	return driving.CheckResult{
		Name:   name,
		Status: driving.CheckPass,
		Detail: "service reachable",
	}
}
