package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DocumentFormat identifies the input format of a source document.
type DocumentFormat string

// Recognised input formats.
const (
	// FormatPDF is a PDF document, extracted via the OCR service.
	FormatPDF DocumentFormat = "pdf"

	// FormatText is plain text, read locally without OCR.
	FormatText DocumentFormat = "text"

	// FormatMarkdown is markdown text, read locally without OCR.
	FormatMarkdown DocumentFormat = "markdown"

	// FormatHTML is an HTML page, reduced to text locally.
	FormatHTML DocumentFormat = "html"
)

// IsValid returns true if the format is recognised.
func (f DocumentFormat) IsValid() bool {
	switch f {
	case FormatPDF, FormatText, FormatMarkdown, FormatHTML:
		return true
	default:
		return false
	}
}

// RequiresOCR returns true if the format needs the external extraction service.
func (f DocumentFormat) RequiresOCR() bool {
	return f == FormatPDF
}

// String returns the string representation.
func (f DocumentFormat) String() string {
	return string(f)
}

// SourceDocument is the input to a conversion run.
// It is immutable once loaded.
type SourceDocument struct {
	// ID is the content hash of the raw bytes (hex SHA-256).
	// Two loads of identical bytes share an ID.
	ID string

	// Path is the filesystem location the document was loaded from.
	Path string

	// Format is the detected input format.
	Format DocumentFormat

	// Bytes is the raw document content.
	Bytes []byte

	// PageCount is the page count for paged formats, 0 otherwise.
	PageCount int

	// Title is a display title derived from the file name.
	Title string
}

// Figure is an image located within a source document.
type Figure struct {
	// ID is unique within the owning document.
	ID string

	// Page is the 1-based source page number.
	Page int

	// Region is the bounding region on the page, if known.
	Region *Region

	// Title is a short label, e.g. "Figure 3".
	Title string

	// Caption is the caption text found near the figure.
	Caption string

	// Data is the decoded image content as returned by the
	// extraction service. Cached results keep it so a later run can
	// materialize the image without re-extracting.
	Data []byte

	// ImagePath is the cropped image file inside a run workspace.
	// Set when the image is materialized, empty in cached results.
	ImagePath string
}

// Region is a bounding box in page pixel coordinates.
type Region struct {
	// TopLeftX is the left edge.
	TopLeftX int

	// TopLeftY is the top edge.
	TopLeftY int

	// BottomRightX is the right edge.
	BottomRightX int

	// BottomRightY is the bottom edge.
	BottomRightY int
}

// ExtractionResult is the normalized output of document extraction.
// It is owned by the extraction cache, keyed by SourceDocument ID.
type ExtractionResult struct {
	// DocumentID is the SourceDocument this was extracted from.
	DocumentID string

	// Text is the page-ordered markdown-like text.
	Text string

	// Figures are the located figures in document order.
	Figures []Figure

	// PageCount is the number of pages the service reported.
	PageCount int
}

// Fingerprint returns a stable hex digest over the result's text,
// page count and figures. Two extractions of the same document can be
// compared across runs with it; the extraction service is allowed to
// be non-deterministic, so a changed fingerprint is reported as a
// warning, never an error.
func (r *ExtractionResult) Fingerprint() string {
	h := sha256.New()
	fmt.Fprintf(h, "%d\n%s", r.PageCount, r.Text)
	for _, fig := range r.Figures {
		fmt.Fprintf(h, "\n%s\n%d\n%s", fig.ID, fig.Page, fig.Caption)
		h.Write(fig.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Figure returns the figure with the given ID, or nil.
func (r *ExtractionResult) Figure(id string) *Figure {
	for i := range r.Figures {
		if r.Figures[i].ID == id {
			return &r.Figures[i]
		}
	}
	return nil
}

// FigureIDs returns the figure IDs in document order.
func (r *ExtractionResult) FigureIDs() []string {
	ids := make([]string, len(r.Figures))
	for i := range r.Figures {
		ids[i] = r.Figures[i].ID
	}
	return ids
}

// Validate checks the structural invariants of an extraction result:
// non-empty text, positive page count and unique figure IDs.
func (r *ExtractionResult) Validate() error {
	if r.DocumentID == "" {
		return fmt.Errorf("%w: extraction result missing document ID", ErrInvalidInput)
	}
	if r.Text == "" {
		return fmt.Errorf("%w: extraction produced no text", ErrInvalidInput)
	}
	if r.PageCount < 1 {
		return fmt.Errorf("%w: extraction reported %d pages", ErrInvalidInput, r.PageCount)
	}
	seen := make(map[string]bool, len(r.Figures))
	for _, fig := range r.Figures {
		if fig.ID == "" {
			return fmt.Errorf("%w: figure with empty ID", ErrInvalidInput)
		}
		if seen[fig.ID] {
			return fmt.Errorf("%w: duplicate figure ID %q", ErrInvalidInput, fig.ID)
		}
		seen[fig.ID] = true
	}
	return nil
}
