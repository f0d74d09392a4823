// Package marp renders compiled decks into PNG frames with the Marp
// CLI. The CLI drives a headless Chromium, so a missing browser is
// surfaced as its own error rather than a generic render failure.
package marp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
)

// Ensure Renderer implements the interface.
var _ driven.FrameRenderer = (*Renderer)(nil)

// Default configuration values.
const (
	DefaultCommand = "npx"
	DefaultTimeout = 5 * time.Minute

	// cliPackage is the npm package npx resolves the CLI from.
	cliPackage = "@marp-team/marp-cli"
)

// framePattern matches the numbered image sequence the CLI writes for
// an --images conversion, e.g. deck.001.png.
var framePattern = regexp.MustCompile(`^deck\.(\d+)\.png$`)

// browserHints are stderr fragments that identify a missing or broken
// headless browser install rather than a bad deck.
var browserHints = []string{
	"failed to launch the browser",
	"could not find chrome",
	"could not find chromium",
	"chrome, chromium, or microsoft edge",
	"chromium revision is not downloaded",
}

// Config holds configuration for the Marp renderer.
type Config struct {
	// Command is the launcher executable (default: npx).
	Command string

	// ChromePath points the CLI at a specific browser binary. Empty
	// leaves discovery to the CLI.
	ChromePath string

	// Timeout bounds a single render (default: 5m).
	Timeout time.Duration
}

// Renderer rasterizes deck markup via the Marp CLI subprocess.
type Renderer struct {
	command    string
	chromePath string
	timeout    time.Duration
}

// New creates a new Marp renderer.
func New(cfg Config) *Renderer {
	if cfg.Command == "" {
		cfg.Command = DefaultCommand
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Renderer{
		command:    cfg.Command,
		chromePath: cfg.ChromePath,
		timeout:    cfg.Timeout,
	}
}

// RenderFrames renders the deck file into outDir and returns the frames
// ordered by slide index. The CLI writes one numbered PNG per block;
// any shortfall against the deck's block count is an error.
func (r *Renderer) RenderFrames(ctx context.Context, deckPath, outDir string, opts driven.RenderOptions) ([]domain.FrameImage, error) {
	markup, err := os.ReadFile(deckPath)
	if err != nil {
		return nil, domain.NewRenderError(fmt.Errorf("read deck: %w", err), false)
	}
	expected, err := countBlocks(string(markup))
	if err != nil {
		return nil, domain.NewRenderError(err, false)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := renderArgs(deckPath, outDir, opts.ImageScale)
	cmd := exec.CommandContext(ctx, r.command, args...)
	if r.chromePath != "" {
		cmd.Env = append(os.Environ(), "CHROME_PATH="+r.chromePath)
	}

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	if err := cmd.Run(); err != nil {
		if hint := strings.TrimSpace(output.String()); browserMissing(hint) {
			return nil, domain.NewRenderError(fmt.Errorf(
				"%w: set CHROME_PATH or install Chromium (%s)", domain.ErrBrowserMissing, lastLine(hint)), false)
		}
		if ctx.Err() != nil {
			return nil, domain.NewRenderError(fmt.Errorf("render timed out: %w", ctx.Err()), true)
		}
		return nil, domain.NewRenderError(fmt.Errorf("marp: %w: %s", err, lastLine(output.String())), false)
	}

	return collectFrames(outDir, expected)
}

// Available checks that the launcher and CLI are installed.
func (r *Renderer) Available(ctx context.Context) error {
	if _, err := exec.LookPath(r.command); err != nil {
		return fmt.Errorf("%w: %s is not on PATH (install Node.js)", domain.ErrToolMissing, r.command)
	}

	cmd := exec.CommandContext(ctx, r.command, cliPackage, "--version")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: marp CLI unavailable (npm i -g %s): %s",
			domain.ErrToolMissing, cliPackage, lastLine(string(output)))
	}

	if r.chromePath != "" {
		if _, err := os.Stat(r.chromePath); err != nil {
			return fmt.Errorf("%w: CHROME_PATH %s: %v", domain.ErrBrowserMissing, r.chromePath, err)
		}
	}
	return nil
}

// renderArgs builds the CLI invocation for an image-sequence render.
// The output path is a template; the CLI numbers the actual frames
// after its basename.
func renderArgs(deckPath, outDir string, scale int) []string {
	if scale <= 0 {
		scale = 1
	}
	return []string{
		cliPackage,
		deckPath,
		"--images", "png",
		"--image-scale", strconv.Itoa(scale),
		"--allow-local-files",
		"--output", filepath.Join(outDir, "deck.png"),
	}
}

// countBlocks counts the slide blocks in rendered deck markup. The
// front-matter delimiters are the first two bare "---" lines; every
// further one separates two blocks.
func countBlocks(markup string) (int, error) {
	if !strings.HasPrefix(markup, "---\n") {
		return 0, fmt.Errorf("deck has no front matter")
	}

	rulers := 0
	for _, line := range strings.Split(markup, "\n") {
		if strings.TrimRight(line, " \t") == "---" {
			rulers++
		}
	}
	if rulers < 2 {
		return 0, fmt.Errorf("deck front matter is not closed")
	}

	blocks := rulers - 1
	if strings.TrimSpace(afterFrontMatter(markup)) == "" {
		return 0, fmt.Errorf("deck has no slides")
	}
	return blocks, nil
}

// afterFrontMatter returns the markup body following the closing
// front-matter delimiter.
func afterFrontMatter(markup string) string {
	rest := strings.TrimPrefix(markup, "---\n")
	if _, body, ok := strings.Cut(rest, "\n---\n"); ok {
		return body
	}
	return ""
}

// collectFrames lists the numbered frames in outDir and checks them
// against the deck's block count. Frames must be contiguous from 1; a
// gap names the first missing index.
func collectFrames(outDir string, expected int) ([]domain.FrameImage, error) {
	entries, err := os.ReadDir(outDir)
	if err != nil {
		return nil, domain.NewRenderError(fmt.Errorf("list frames: %w", err), false)
	}

	var frames []domain.FrameImage
	for _, entry := range entries {
		match := framePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		index, err := strconv.Atoi(match[1])
		if err != nil || index < 1 {
			continue
		}
		frames = append(frames, domain.FrameImage{
			SlideIndex: index,
			Path:       filepath.Join(outDir, entry.Name()),
		})
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i].SlideIndex < frames[j].SlideIndex })

	for i, frame := range frames {
		if frame.SlideIndex != i+1 {
			return nil, domain.NewRenderError(fmt.Errorf(
				"frame for slide %d is missing", i+1), false)
		}
	}
	if len(frames) != expected {
		return nil, domain.NewRenderError(fmt.Errorf(
			"rendered %d frames for %d slides", len(frames), expected), false)
	}
	return frames, nil
}

// browserMissing reports whether CLI output points at a missing
// headless browser.
func browserMissing(output string) bool {
	lowered := strings.ToLower(output)
	for _, hint := range browserHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}

// lastLine returns the final non-empty line of subprocess output, which
// is where the CLI puts its error summary.
func lastLine(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line
		}
	}
	return ""
}
