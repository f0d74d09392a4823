package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
	"github.com/custodia-labs/slidecast/internal/logger"
	"github.com/custodia-labs/slidecast/internal/retry"
	"github.com/custodia-labs/slidecast/internal/textproc"
)

const (
	// synthesizeTimeout bounds one synthesis request including retries.
	synthesizeTimeout = 2 * time.Minute

	// defaultNarrationConcurrency bounds parallel synthesis when the
	// caller does not.
	defaultNarrationConcurrency = 3
)

// NarrationService synthesizes per-slide narration audio. Slides are
// synthesized concurrently with bounded parallelism; every clip is
// normalized before it is reported, so assembly never sees raw
// provider output.
type NarrationService struct {
	speech driven.SpeechService
	media  driven.MediaProcessor
	policy retry.Policy

	maxConcurrent int
}

// NewNarrationService creates a new narration service.
func NewNarrationService(speech driven.SpeechService, media driven.MediaProcessor, maxConcurrent int) *NarrationService {
	if maxConcurrent < 1 {
		maxConcurrent = defaultNarrationConcurrency
	}
	policy := retry.DefaultPolicy()
	policy.Retryable = domain.IsTransient
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("Synthesis attempt %d failed, retrying in %s: %v", attempt, delay, err)
	}
	return &NarrationService{
		speech:        speech,
		media:         media,
		policy:        policy,
		maxConcurrent: maxConcurrent,
	}
}

// NarrateAll synthesizes and normalizes one clip per slide into the
// workspace audio directory. The returned clips are ordered by slide
// index and complete: a slide that cannot be narrated fails the whole
// operation rather than producing a gap the assembler would trip over.
func (s *NarrationService) NarrateAll(ctx context.Context, plan *domain.SlidePlan, ws domain.Workspace, cfg domain.RunConfig) ([]domain.AudioClip, error) {
	if s.speech == nil {
		return nil, domain.NewSynthesisError(domain.ErrSpeechUnavailable, false)
	}
	if err := os.MkdirAll(ws.AudioDir(), 0o755); err != nil {
		return nil, domain.NewSynthesisError(fmt.Errorf("create audio dir: %w", err), false)
	}

	opts := driven.SpeechOptions{
		Voice:      cfg.Voice,
		Language:   cfg.Language,
		SampleRate: 44100,
	}

	clips := make([]domain.AudioClip, len(plan.Slides))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for i, slide := range plan.Slides {
		g.Go(func() error {
			clip, err := s.narrateSlide(gctx, slide, ws, opts)
			if err != nil {
				return fmt.Errorf("slide %d: %w", slide.Index, err)
			}
			clips[i] = *clip
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Stage("narrating", "synthesized %d clips", len(clips))
	return clips, nil
}

// narrateSlide synthesizes one slide's narration, chunking long
// scripts at sentence boundaries, and normalizes the parts into the
// slide's clip.
func (s *NarrationService) narrateSlide(ctx context.Context, slide domain.Slide, ws domain.Workspace, opts driven.SpeechOptions) (*domain.AudioClip, error) {
	chunks := textproc.ChunkSentences(slide.Narration, s.speech.MaxTextLength())
	if len(chunks) == 0 {
		return nil, domain.NewSynthesisError(
			fmt.Errorf("%w: slide has no narration text", domain.ErrInvalidInput), false)
	}
	logger.Stage("narrating", "slide %d: %d chunk(s)", slide.Index, len(chunks))

	partPaths := make([]string, 0, len(chunks))
	defer func() {
		for _, part := range partPaths {
			_ = os.Remove(part)
		}
	}()

	for c, chunk := range chunks {
		audio, err := s.synthesize(ctx, chunk, opts)
		if err != nil {
			return nil, err
		}
		partPath := fmt.Sprintf("%s.part%d", ws.AudioClipPath(slide.Index), c+1)
		if err := os.WriteFile(partPath, audio, 0o644); err != nil {
			return nil, domain.NewSynthesisError(fmt.Errorf("write audio part: %w", err), false)
		}
		partPaths = append(partPaths, partPath)
	}

	clip, err := s.media.NormalizeAudio(ctx, partPaths, ws.AudioClipPath(slide.Index), slide.Index)
	if err != nil {
		return nil, err
	}
	return clip, nil
}

// synthesize runs one synthesis request with retry on transient
// failures.
func (s *NarrationService) synthesize(ctx context.Context, text string, opts driven.SpeechOptions) ([]byte, error) {
	callCtx, cancel := context.WithTimeout(ctx, synthesizeTimeout)
	defer cancel()

	var audio []byte
	err := s.policy.Do(callCtx, func(ctx context.Context) error {
		var callErr error
		audio, callErr = s.speech.Synthesize(ctx, text, opts)
		return callErr
	})
	if err != nil {
		if domain.KindOf(err) == "" {
			err = domain.NewSynthesisError(err, domain.IsTransient(err))
		}
		return nil, err
	}
	return audio, nil
}
