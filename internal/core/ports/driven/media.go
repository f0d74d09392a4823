package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// MediaProcessor performs the audio and video operations of the
// pipeline via an external toolchain.
//
// Implementations may include:
//   - ffmpeg/ffprobe
type MediaProcessor interface {
	// NormalizeAudio concatenates the raw synthesized parts in order
	// and transcodes them to the uniform format every downstream step
	// assumes (44.1kHz stereo PCM WAV), returning the clip with its
	// measured duration. Normalization is not optional; mixing audio
	// formats corrupts the final mux.
	NormalizeAudio(ctx context.Context, partPaths []string, outPath string, slideIndex int) (*domain.AudioClip, error)

	// AudioDuration measures the play time of an audio file.
	AudioDuration(ctx context.Context, path string) (time.Duration, error)

	// AssembleVideo pairs frame i with clip i, renders one segment per
	// slide and concatenates them. Frames and clips must align by
	// slide index; a missing counterpart fails before any encoding
	// starts, naming the offending index.
	AssembleVideo(ctx context.Context, frames []domain.FrameImage, clips []domain.AudioClip, outPath string) (*domain.VideoArtifact, error)

	// AssembleSilentVideo renders a video with no audio track, showing
	// each frame for the given fixed duration.
	AssembleSilentVideo(ctx context.Context, frames []domain.FrameImage, perSlide time.Duration, outPath string) (*domain.VideoArtifact, error)

	// Available checks that the media toolchain is installed.
	// Returns ErrToolMissing with install guidance.
	Available(ctx context.Context) error
}
