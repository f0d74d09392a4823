// Package ffmpeg wraps the ffmpeg and ffprobe tools for the audio and
// video work of the pipeline: clip normalization, duration probing,
// per-slide segment encoding and final muxing.
package ffmpeg

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.MediaProcessor = (*Processor)(nil)

// Default configuration values.
const (
	DefaultFFmpegPath  = "ffmpeg"
	DefaultFFprobePath = "ffprobe"
	DefaultTimeout     = 10 * time.Minute

	// DefaultSlideDuration is the per-frame display time for silent
	// videos.
	DefaultSlideDuration = 5 * time.Second

	// audioBitrate is the AAC bitrate for encoded segments.
	audioBitrate = "192k"
)

// Config holds configuration for the media processor.
type Config struct {
	// FFmpegPath is the ffmpeg executable (default: ffmpeg).
	FFmpegPath string

	// FFprobePath is the ffprobe executable (default: ffprobe).
	FFprobePath string

	// Timeout bounds a single tool invocation (default: 10m).
	Timeout time.Duration
}

// Processor runs the media toolchain as subprocesses.
type Processor struct {
	ffmpeg  string
	ffprobe string
	timeout time.Duration
}

// segment pairs one frame with its clip for encoding.
type segment struct {
	index int
	frame string
	clip  string
}

// New creates a new media processor.
func New(cfg Config) *Processor {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = DefaultFFmpegPath
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = DefaultFFprobePath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Processor{
		ffmpeg:  cfg.FFmpegPath,
		ffprobe: cfg.FFprobePath,
		timeout: cfg.Timeout,
	}
}

// NormalizeAudio concatenates the synthesized parts in order and
// transcodes them to 44.1kHz stereo PCM WAV. Every clip goes through
// this path; the mux assumes one uniform format across all clips.
func (p *Processor) NormalizeAudio(ctx context.Context, partPaths []string, outPath string, slideIndex int) (*domain.AudioClip, error) {
	if len(partPaths) == 0 {
		return nil, domain.NewSynthesisError(fmt.Errorf("slide %d has no audio parts", slideIndex), false)
	}

	var listPath string
	if len(partPaths) > 1 {
		listPath = outPath + ".parts.txt"
		if err := os.WriteFile(listPath, []byte(concatList(partPaths)), 0o644); err != nil {
			return nil, domain.NewSynthesisError(fmt.Errorf("write part list: %w", err), false)
		}
		defer os.Remove(listPath)
	}

	output, err := p.run(ctx, p.ffmpeg, normalizeArgs(partPaths, listPath, outPath))
	if err != nil {
		return nil, domain.NewSynthesisError(
			fmt.Errorf("normalize slide %d audio: %w: %s", slideIndex, err, lastLine(output)), ctx.Err() != nil)
	}

	duration, err := p.AudioDuration(ctx, outPath)
	if err != nil {
		return nil, domain.NewSynthesisError(fmt.Errorf("slide %d: %w", slideIndex, err), false)
	}
	return &domain.AudioClip{SlideIndex: slideIndex, Path: outPath, Duration: duration}, nil
}

// AudioDuration measures the play time of an audio or video file.
func (p *Processor) AudioDuration(ctx context.Context, path string) (time.Duration, error) {
	output, err := p.run(ctx, p.ffprobe, probeArgs(path))
	if err != nil {
		return 0, fmt.Errorf("probe %s: %w: %s", filepath.Base(path), err, lastLine(output))
	}
	return parseDuration(output)
}

// AssembleVideo encodes one still+audio segment per slide and muxes
// them in index order. Frame and clip index sets must match exactly;
// the pairing is validated before any encoding starts.
func (p *Processor) AssembleVideo(ctx context.Context, frames []domain.FrameImage, clips []domain.AudioClip, outPath string) (*domain.VideoArtifact, error) {
	segments, err := alignSegments(frames, clips)
	if err != nil {
		return nil, err
	}
	durations := make(map[int]time.Duration, len(clips))
	var total time.Duration
	for _, clip := range clips {
		durations[clip.SlideIndex] = clip.Duration
		total += clip.Duration
	}

	workDir, err := os.MkdirTemp("", "slidecast-mux-")
	if err != nil {
		return nil, domain.NewAssemblyError(fmt.Errorf("create work dir: %w", err), false)
	}
	defer os.RemoveAll(workDir)

	segmentPaths := make([]string, 0, len(segments))
	for _, seg := range segments {
		segPath := filepath.Join(workDir, fmt.Sprintf("seg%03d.mp4", seg.index))
		args := segmentArgs(seg.frame, seg.clip, durations[seg.index], segPath)
		if output, err := p.run(ctx, p.ffmpeg, args); err != nil {
			return nil, domain.NewAssemblyError(
				fmt.Errorf("encode slide %d: %w: %s", seg.index, err, lastLine(output)), ctx.Err() != nil)
		}
		segmentPaths = append(segmentPaths, segPath)
	}

	if err := p.mux(ctx, segmentPaths, workDir, outPath); err != nil {
		return nil, err
	}
	// Segment durations are pinned to the clip lengths, so the total is
	// the sum of the clips.
	return &domain.VideoArtifact{Path: outPath, Duration: total, SlideCount: len(segments)}, nil
}

// AssembleSilentVideo encodes a video with no audio track, showing
// each frame for a fixed duration.
func (p *Processor) AssembleSilentVideo(ctx context.Context, frames []domain.FrameImage, perSlide time.Duration, outPath string) (*domain.VideoArtifact, error) {
	if len(frames) == 0 {
		return nil, domain.NewAssemblyError(fmt.Errorf("no frames to assemble"), false)
	}
	if perSlide <= 0 {
		perSlide = DefaultSlideDuration
	}

	ordered := make([]domain.FrameImage, len(frames))
	copy(ordered, frames)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].SlideIndex < ordered[j].SlideIndex })

	workDir, err := os.MkdirTemp("", "slidecast-mux-")
	if err != nil {
		return nil, domain.NewAssemblyError(fmt.Errorf("create work dir: %w", err), false)
	}
	defer os.RemoveAll(workDir)

	segmentPaths := make([]string, 0, len(ordered))
	for _, frame := range ordered {
		segPath := filepath.Join(workDir, fmt.Sprintf("seg%03d.mp4", frame.SlideIndex))
		args := silentSegmentArgs(frame.Path, perSlide, segPath)
		if output, err := p.run(ctx, p.ffmpeg, args); err != nil {
			return nil, domain.NewAssemblyError(
				fmt.Errorf("encode slide %d: %w: %s", frame.SlideIndex, err, lastLine(output)), ctx.Err() != nil)
		}
		segmentPaths = append(segmentPaths, segPath)
	}

	if err := p.mux(ctx, segmentPaths, workDir, outPath); err != nil {
		return nil, err
	}
	return &domain.VideoArtifact{
		Path:       outPath,
		Duration:   time.Duration(len(ordered)) * perSlide,
		SlideCount: len(ordered),
	}, nil
}

// Available checks that ffmpeg and ffprobe are installed.
func (p *Processor) Available(ctx context.Context) error {
	if _, err := exec.LookPath(p.ffmpeg); err != nil {
		return fmt.Errorf("%w: %s is not on PATH (install ffmpeg)", domain.ErrToolMissing, p.ffmpeg)
	}
	if _, err := exec.LookPath(p.ffprobe); err != nil {
		return fmt.Errorf("%w: %s is not on PATH (install ffmpeg)", domain.ErrToolMissing, p.ffprobe)
	}
	return nil
}

// mux concatenates encoded segments into outPath without re-encoding.
func (p *Processor) mux(ctx context.Context, segmentPaths []string, workDir, outPath string) error {
	listPath := filepath.Join(workDir, "segments.txt")
	if err := os.WriteFile(listPath, []byte(concatList(segmentPaths)), 0o644); err != nil {
		return domain.NewAssemblyError(fmt.Errorf("write segment list: %w", err), false)
	}

	if output, err := p.run(ctx, p.ffmpeg, muxArgs(listPath, outPath)); err != nil {
		return domain.NewAssemblyError(
			fmt.Errorf("mux video: %w: %s", err, lastLine(output)), ctx.Err() != nil)
	}
	return nil
}

// run executes one tool invocation and returns its combined output.
func (p *Processor) run(ctx context.Context, name string, args []string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(output), err
}

// alignSegments pairs frames with clips by slide index. Both sets must
// cover exactly the indices 1..n; the first hole is reported by index
// so a partial set never reaches the encoder.
func alignSegments(frames []domain.FrameImage, clips []domain.AudioClip) ([]segment, error) {
	if len(frames) == 0 {
		return nil, domain.NewAssemblyError(fmt.Errorf("no frames to assemble"), false)
	}

	frameByIndex := make(map[int]string, len(frames))
	for _, frame := range frames {
		frameByIndex[frame.SlideIndex] = frame.Path
	}
	clipByIndex := make(map[int]string, len(clips))
	for _, clip := range clips {
		clipByIndex[clip.SlideIndex] = clip.Path
	}

	count := len(frameByIndex)
	if len(clipByIndex) > count {
		count = len(clipByIndex)
	}

	segments := make([]segment, 0, count)
	for i := 1; i <= count; i++ {
		frame, hasFrame := frameByIndex[i]
		clip, hasClip := clipByIndex[i]
		switch {
		case !hasFrame && !hasClip:
			return nil, domain.NewAssemblyError(fmt.Errorf("slide %d has no frame and no clip", i), false)
		case !hasClip:
			return nil, domain.NewAssemblyError(fmt.Errorf("frame %d has no matching clip", i), false)
		case !hasFrame:
			return nil, domain.NewAssemblyError(fmt.Errorf("clip %d has no matching frame", i), false)
		}
		segments = append(segments, segment{index: i, frame: frame, clip: clip})
	}
	return segments, nil
}

// normalizeArgs builds the transcode invocation. Multiple parts go
// through the concat demuxer via listPath; a single part is read
// directly.
func normalizeArgs(partPaths []string, listPath, outPath string) []string {
	args := []string{"-y", "-hide_banner"}
	if len(partPaths) == 1 {
		args = append(args, "-i", partPaths[0])
	} else {
		args = append(args, "-f", "concat", "-safe", "0", "-i", listPath)
	}
	return append(args,
		"-acodec", "pcm_s16le",
		"-ar", "44100",
		"-ac", "2",
		outPath,
	)
}

// segmentArgs builds the still+audio encode for one slide. The still
// loops for exactly the clip duration.
func segmentArgs(framePath, clipPath string, duration time.Duration, outPath string) []string {
	return []string{
		"-y", "-hide_banner",
		"-loop", "1",
		"-i", framePath,
		"-i", clipPath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-pix_fmt", "yuv420p",
		"-shortest",
		"-t", formatSeconds(duration),
		outPath,
	}
}

// silentSegmentArgs builds the video-only encode for one slide.
func silentSegmentArgs(framePath string, perSlide time.Duration, outPath string) []string {
	return []string{
		"-y", "-hide_banner",
		"-loop", "1",
		"-i", framePath,
		"-c:v", "libx264",
		"-tune", "stillimage",
		"-pix_fmt", "yuv420p",
		"-t", formatSeconds(perSlide),
		outPath,
	}
}

// muxArgs builds the concat-demuxer invocation that joins segments
// without re-encoding.
func muxArgs(listPath, outPath string) []string {
	return []string{
		"-y", "-hide_banner",
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		outPath,
	}
}

// probeArgs builds the duration query.
func probeArgs(path string) []string {
	return []string{
		"-i", path,
		"-show_entries", "format=duration",
		"-v", "quiet",
		"-of", "csv=p=0",
	}
}

// concatList renders the concat-demuxer file list. Single quotes in
// paths use the demuxer's quote-break escape.
func concatList(paths []string) string {
	var b strings.Builder
	for _, path := range paths {
		escaped := strings.ReplaceAll(path, "'", `'\''`)
		fmt.Fprintf(&b, "file '%s'\n", escaped)
	}
	return b.String()
}

// formatSeconds renders a duration as the fractional seconds ffmpeg
// expects for -t.
func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

// parseDuration reads ffprobe's seconds output.
func parseDuration(output string) (time.Duration, error) {
	text := strings.TrimSpace(output)
	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", text, err)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("file has no duration")
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// lastLine returns the final non-empty line of tool output, which is
// where ffmpeg puts its error summary.
func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
