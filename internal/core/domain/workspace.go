package domain

import (
	"fmt"
	"path/filepath"
)

// Workspace is the artifact directory layout for a single run.
// The orchestrator owns the layout; stages receive explicit paths and
// indexed artifact handles, never directory globs.
type Workspace struct {
	// Root is the run directory, one per run.
	Root string
}

// NewWorkspace returns the workspace rooted at outputDir/runID.
func NewWorkspace(outputDir, runID string) Workspace {
	return Workspace{Root: filepath.Join(outputDir, runID)}
}

// TextPath is the normalized extracted text.
func (w Workspace) TextPath() string {
	return filepath.Join(w.Root, "document.md")
}

// FiguresDir holds cropped figure images and their metadata.
func (w Workspace) FiguresDir() string {
	return filepath.Join(w.Root, "figures")
}

// FigureMetaPath is the figure metadata JSON.
func (w Workspace) FigureMetaPath() string {
	return filepath.Join(w.FiguresDir(), "figures.json")
}

// FigureImagePath is the cropped image file for a figure ID.
func (w Workspace) FigureImagePath(figureID string) string {
	return filepath.Join(w.FiguresDir(), figureID+".png")
}

// PlanPath is the slide plan JSON.
func (w Workspace) PlanPath() string {
	return filepath.Join(w.Root, "plan.json")
}

// DeckPath is the compiled presentation markup.
func (w Workspace) DeckPath() string {
	return filepath.Join(w.Root, "deck.md")
}

// FramesDir holds the rasterized slide frames.
func (w Workspace) FramesDir() string {
	return filepath.Join(w.Root, "frames")
}

// AudioDir holds the narration clips.
func (w Workspace) AudioDir() string {
	return filepath.Join(w.Root, "audio")
}

// AudioClipPath is the normalized clip for a slide index.
func (w Workspace) AudioClipPath(slideIndex int) string {
	return filepath.Join(w.AudioDir(), fmt.Sprintf("slide%02d.wav", slideIndex))
}

// VideoPath is the final muxed video.
func (w Workspace) VideoPath() string {
	return filepath.Join(w.Root, "video.mp4")
}
