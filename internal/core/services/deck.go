package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// deckStyle is the CSS block embedded in every deck's front matter.
// Sized so headings and figures fit a 1280x720 frame without clipping.
const deckStyle = `  /* Global slide tweaks */
  section {
    padding-top: 0.2em;
  }
  section h1 {
    font-size: 1.6em;
    line-height: 1.2;
  }
  /* Ensure images fit within slide without being cut */
  section img {
    max-height: 45vh;
    max-width: 80%;
    height: auto;
    object-fit: contain;
    display: block;
    margin: 1em auto;
  }

  /* When slide has an image, shrink heading and body font */
  section.has-image h1 {
    font-size: 1.2em;
  }
  section.has-image h2 {
    font-size: 1.2em;
  }
  section.has-image ul,
  section.has-image p {
    font-size: 0.8em;
  }`

// CompileOptions configures deck compilation.
type CompileOptions struct {
	// Theme is the presentation theme. Empty means "gaia".
	Theme string

	// Figures is the universe of figure IDs slides may reference. A
	// reference outside it is dangling and fails the compile.
	Figures []string
}

// DeckService compiles slide plans into presentation markup. It is
// pure: no I/O, no external calls, and identical inputs always produce
// identical output.
type DeckService struct{}

// NewDeckService creates a new deck service.
func NewDeckService() *DeckService {
	return &DeckService{}
}

// CompileDeck builds the deck document for a plan. The deck carries
// the front matter exactly once, and one block per slide: block i
// renders slide i, with no empty block before the first or after the
// last slide. Gapped or duplicate slide indices and dangling figure
// references fail the compile. All compile failures are permanent;
// bad input does not get better on retry.
func (s *DeckService) CompileDeck(plan *domain.SlidePlan, opts CompileOptions) (*domain.DeckDocument, error) {
	if plan == nil || len(plan.Slides) == 0 {
		return nil, domain.NewCompileError(fmt.Errorf("%w: plan has no slides", domain.ErrInvalidInput))
	}

	theme := opts.Theme
	if theme == "" {
		theme = "gaia"
	}
	known := make(map[string]bool, len(opts.Figures))
	for _, id := range opts.Figures {
		known[id] = true
	}

	deck := &domain.DeckDocument{
		FrontMatter: frontMatter(theme),
	}
	for i, slide := range plan.Slides {
		if slide.Index != i+1 {
			return nil, domain.NewCompileError(fmt.Errorf(
				"%w: slide at position %d has index %d", domain.ErrInvalidInput, i+1, slide.Index))
		}
		if slide.FigureID != "" && !known[slide.FigureID] {
			return nil, domain.NewCompileError(fmt.Errorf(
				"%w: slide %d references unknown figure %q",
				domain.ErrInvalidInput, slide.Index, slide.FigureID))
		}
		markup, err := slideMarkup(slide)
		if err != nil {
			return nil, err
		}
		deck.Blocks = append(deck.Blocks, domain.DeckBlock{Index: slide.Index, Markup: markup})
	}
	return deck, nil
}

// frontMatter builds the document-level front-matter body.
func frontMatter(theme string) string {
	var b strings.Builder
	b.WriteString("marp: true\n")
	b.WriteString("math: mathjax\n")
	b.WriteString("paginate: true\n")
	fmt.Fprintf(&b, "theme: %s\n", theme)
	b.WriteString("style: |\n")
	b.WriteString(deckStyle)
	return b.String()
}

// slideMarkup renders one slide's block. Figure slides get the
// has-image class so the deck style shrinks their text to make room.
func slideMarkup(slide domain.Slide) (string, error) {
	title := strings.TrimSpace(slide.Title)
	if title == "" {
		return "", domain.NewCompileError(fmt.Errorf(
			"%w: slide %d has no title", domain.ErrInvalidInput, slide.Index))
	}

	var b strings.Builder
	if slide.FigureID != "" {
		b.WriteString("<!-- _class: has-image -->\n\n")
	}
	b.WriteString("# " + title)

	var bullets []string
	for _, bullet := range slide.Bullets {
		if bullet = strings.TrimSpace(bullet); bullet != "" {
			bullets = append(bullets, "- "+bullet)
		}
	}
	if len(bullets) > 0 {
		b.WriteString("\n\n")
		b.WriteString(strings.Join(bullets, "\n"))
	}

	if slide.FigureID != "" {
		fmt.Fprintf(&b, "\n\n![%s](figures/%s.png)", title, slide.FigureID)
	}

	return b.String(), nil
}
