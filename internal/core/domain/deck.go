package domain

import "strings"

// DeckBlock is the self-contained markup for a single slide.
// No block depends on an adjacent block's front matter.
type DeckBlock struct {
	// Index is the 1-based slide index the block renders.
	Index int

	// Markup is the slide body markup, trimmed of surrounding blank lines.
	Markup string
}

// DeckDocument is the compiled presentation-markup document.
// Block count always equals the slide count of the plan it was
// compiled from; the first and last blocks are never empty.
type DeckDocument struct {
	// FrontMatter is the document-level front-matter body (the text
	// between the delimiters), emitted exactly once at the top.
	FrontMatter string

	// Blocks are the per-slide markup blocks in slide order.
	Blocks []DeckBlock
}

// blockSeparator splits slides in the rendered markup. The front-matter
// closing delimiter doubles as the boundary of the first slide, so the
// separator is only ever emitted between blocks. Emitting it before the
// first block would create a blank leading frame.
const blockSeparator = "\n\n---\n\n"

// Render returns the complete markup document. Rendering is
// deterministic: the same deck always yields identical bytes.
func (d *DeckDocument) Render() string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString(strings.TrimRight(d.FrontMatter, "\n"))
	b.WriteString("\n---\n\n")

	for i, block := range d.Blocks {
		if i > 0 {
			b.WriteString(blockSeparator)
		}
		b.WriteString(strings.TrimSpace(block.Markup))
	}
	b.WriteString("\n")

	return b.String()
}
