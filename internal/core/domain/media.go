package domain

import "time"

// AudioClip is the normalized narration audio for one slide.
type AudioClip struct {
	// SlideIndex is the 1-based slide the clip narrates.
	SlideIndex int

	// Path is the normalized audio file (WAV, 44.1kHz stereo PCM).
	Path string

	// Duration is the clip length. Always > 0 for a valid clip.
	Duration time.Duration
}

// FrameImage is the rasterized image for one slide.
type FrameImage struct {
	// SlideIndex is the 1-based slide the frame renders.
	SlideIndex int

	// Path is the rasterized image file (PNG).
	Path string
}

// VideoArtifact is the final muxed output of a run.
type VideoArtifact struct {
	// Path is the video file.
	Path string

	// Duration is the total play time.
	Duration time.Duration

	// SlideCount is the number of slides the video contains.
	SlideCount int
}
