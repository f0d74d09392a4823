package domain

import "fmt"

// Slide count bounds enforced on every plan.
const (
	// MinSlideCount is the smallest plan the pipeline accepts.
	MinSlideCount = 2

	// MaxSlideCount is the largest plan the pipeline accepts.
	MaxSlideCount = 20

	// AutoSlideCount lets the planner model choose the count.
	AutoSlideCount = 0
)

// Slide is one entry in a slide plan.
type Slide struct {
	// Index is the 1-based position. Indices are contiguous within a plan.
	Index int

	// Title is the slide heading.
	Title string

	// Bullets are the ordered content bullet strings.
	Bullets []string

	// Narration is the plain-text narration script.
	Narration string

	// FigureID references a Figure in the associated ExtractionResult,
	// or is empty when the slide has no figure.
	FigureID string
}

// SlidePlan is the ordered slide outline produced by the planner.
type SlidePlan struct {
	// DocumentID is the source document this plan was built from.
	DocumentID string

	// TargetCount is the requested slide count, or AutoSlideCount.
	TargetCount int

	// Slides are the planned slides in presentation order.
	Slides []Slide
}

// ValidTargetCount reports whether a requested count is acceptable:
// AutoSlideCount or a value within [MinSlideCount, MaxSlideCount].
func ValidTargetCount(n int) bool {
	return n == AutoSlideCount || (n >= MinSlideCount && n <= MaxSlideCount)
}

// Validate checks the plan invariants: in-bounds slide count, contiguous
// 1-based indices, non-empty titles and narration, and figure references
// that resolve within the given extraction result (figures may be nil when
// the run was configured without figures).
func (p *SlidePlan) Validate(extraction *ExtractionResult) error {
	if len(p.Slides) < MinSlideCount || len(p.Slides) > MaxSlideCount {
		return fmt.Errorf("%w: plan has %d slides, expected %d-%d",
			ErrInvalidInput, len(p.Slides), MinSlideCount, MaxSlideCount)
	}
	if p.TargetCount != AutoSlideCount && len(p.Slides) != p.TargetCount {
		return fmt.Errorf("%w: plan has %d slides, target is %d",
			ErrInvalidInput, len(p.Slides), p.TargetCount)
	}

	for i, slide := range p.Slides {
		if slide.Index != i+1 {
			return fmt.Errorf("%w: slide at position %d has index %d",
				ErrInvalidInput, i+1, slide.Index)
		}
		if slide.Title == "" {
			return fmt.Errorf("%w: slide %d has no title", ErrInvalidInput, slide.Index)
		}
		if slide.Narration == "" {
			return fmt.Errorf("%w: slide %d has no narration", ErrInvalidInput, slide.Index)
		}
		if slide.FigureID != "" {
			if extraction == nil || extraction.Figure(slide.FigureID) == nil {
				return fmt.Errorf("%w: slide %d references unknown figure %q",
					ErrInvalidInput, slide.Index, slide.FigureID)
			}
		}
	}

	return nil
}

// NarrationScripts returns the narration text of every slide, indexed
// by slide order.
func (p *SlidePlan) NarrationScripts() []string {
	scripts := make([]string, len(p.Slides))
	for i, slide := range p.Slides {
		scripts[i] = slide.Narration
	}
	return scripts
}
