// Package source loads input documents from the local filesystem:
// format detection, content hashing, PDF validation and the text
// cleanup applied to formats that skip the OCR service.
package source

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/textproc"
)

// MaxDocumentBytes caps input size. The OCR service rejects larger
// uploads, and anything bigger is almost certainly not a talk source.
const MaxDocumentBytes = 50 << 20

// formatByExtension maps lowercase file extensions to formats.
var formatByExtension = map[string]domain.DocumentFormat{
	".pdf":      domain.FormatPDF,
	".txt":      domain.FormatText,
	".text":     domain.FormatText,
	".md":       domain.FormatMarkdown,
	".markdown": domain.FormatMarkdown,
	".html":     domain.FormatHTML,
	".htm":      domain.FormatHTML,
}

// DetectFormat returns the document format for a file path.
func DetectFormat(path string) (domain.DocumentFormat, error) {
	ext := strings.ToLower(filepath.Ext(path))
	format, ok := formatByExtension[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
	return format, nil
}

// Load reads and validates a document from disk. The returned document
// carries the raw bytes; ID is the hex SHA-256 of those bytes, so two
// loads of identical content share an ID regardless of path.
func Load(path string) (*domain.SourceDocument, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat document: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", domain.ErrInvalidInput, path)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, path)
	}
	if info.Size() > MaxDocumentBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d MB", domain.ErrInvalidInput, path, MaxDocumentBytes>>20)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc := &domain.SourceDocument{
		ID:     hashContent(content),
		Path:   path,
		Format: format,
		Bytes:  content,
		Title:  titleFromFilename(path),
	}

	if format == domain.FormatPDF {
		if err := validatePDF(path); err != nil {
			return nil, fmt.Errorf("%w: %s is not a readable PDF: %v", domain.ErrInvalidInput, path, err)
		}
		pages, err := api.PageCountFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: count pages of %s: %v", domain.ErrInvalidInput, path, err)
		}
		doc.PageCount = pages
	}

	if format == domain.FormatHTML {
		if title := extractHTMLTitle(string(content)); title != "" {
			doc.Title = title
		}
	}

	return doc, nil
}

// LocalText returns the cleaned text of a document whose format skips
// the OCR service. PDF input must go through the extractor instead.
func LocalText(doc *domain.SourceDocument) (string, error) {
	if doc.Format.RequiresOCR() {
		return "", fmt.Errorf("%w: %s requires the extraction service", domain.ErrInvalidInput, doc.Format)
	}

	text := string(stripBOM(doc.Bytes))
	text = textproc.NormalizeNewlines(text)
	if doc.Format == domain.FormatHTML {
		text = stripHTML(text)
	}
	return textproc.CollapseBlankLines(text), nil
}

// hashContent returns the hex SHA-256 of the content.
func hashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// stripBOM drops a leading UTF-8 byte order mark.
func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

// validatePDF runs a relaxed structural validation. Scanned and
// tool-generated PDFs often carry minor spec violations the strict
// mode rejects.
func validatePDF(path string) error {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return api.ValidateFile(path, cfg)
}

// titleFromFilename derives a display title from the file name.
func titleFromFilename(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return strings.TrimSpace(name)
}

// Pre-compiled regular expressions for HTML stripping.
var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptTag     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTag      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	noscriptTag   = regexp.MustCompile(`(?is)<noscript[^>]*>.*?</noscript>`)
	headTag       = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	svgTag        = regexp.MustCompile(`(?is)<svg[^>]*>.*?</svg>`)
	htmlComments  = regexp.MustCompile(`(?s)<!--.*?-->`)
	blockClosers  = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)>`)
	blockOpeners  = regexp.MustCompile(`(?i)<(p|div|h[1-6]|li|tr|blockquote|pre|table|section|article)[^>]*>`)
	lineBreakTags = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	allTags       = regexp.MustCompile(`<[^>]+>`)
	multiSpaces   = regexp.MustCompile(`[ \t]+`)
)

// extractHTMLTitle returns the decoded <title> text, or empty.
func extractHTMLTitle(content string) string {
	matches := titleTag.FindStringSubmatch(content)
	if len(matches) < 2 {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(matches[1]))
}

// stripHTML reduces an HTML page to readable text. Non-content
// elements are removed entirely, block boundaries become newlines, and
// entities are decoded.
func stripHTML(content string) string {
	content = scriptTag.ReplaceAllString(content, "")
	content = styleTag.ReplaceAllString(content, "")
	content = noscriptTag.ReplaceAllString(content, "")
	content = headTag.ReplaceAllString(content, "")
	content = svgTag.ReplaceAllString(content, "")
	content = htmlComments.ReplaceAllString(content, "")

	content = blockOpeners.ReplaceAllString(content, "\n")
	content = blockClosers.ReplaceAllString(content, "\n")
	content = lineBreakTags.ReplaceAllString(content, "\n")

	content = allTags.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	content = multiSpaces.ReplaceAllString(content, " ")

	lines := strings.Split(content, "\n")
	var kept []string
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
