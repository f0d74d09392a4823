package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDocumentFormat_IsValid tests format validation
func TestDocumentFormat_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		format DocumentFormat
		want   bool
	}{
		{"pdf", FormatPDF, true},
		{"text", FormatText, true},
		{"markdown", FormatMarkdown, true},
		{"html", FormatHTML, true},
		{"empty", DocumentFormat(""), false},
		{"unknown", DocumentFormat("docx"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format.IsValid())
		})
	}
}

// TestDocumentFormat_RequiresOCR tests that only PDF goes through the OCR service
func TestDocumentFormat_RequiresOCR(t *testing.T) {
	assert.True(t, FormatPDF.RequiresOCR())
	assert.False(t, FormatText.RequiresOCR())
	assert.False(t, FormatMarkdown.RequiresOCR())
	assert.False(t, FormatHTML.RequiresOCR())
}

// TestExtractionResult_Figure tests figure lookup by ID
func TestExtractionResult_Figure(t *testing.T) {
	result := &ExtractionResult{
		DocumentID: "doc1",
		Text:       "hello",
		PageCount:  2,
		Figures: []Figure{
			{ID: "fig-1", Page: 1},
			{ID: "fig-2", Page: 2},
		},
	}

	fig := result.Figure("fig-2")
	assert.NotNil(t, fig)
	assert.Equal(t, 2, fig.Page)

	assert.Nil(t, result.Figure("fig-9"))
}

// TestExtractionResult_Validate tests structural invariants
func TestExtractionResult_Validate(t *testing.T) {
	valid := func() *ExtractionResult {
		return &ExtractionResult{
			DocumentID: "doc1",
			Text:       "# Title\n\nBody",
			PageCount:  3,
			Figures: []Figure{
				{ID: "fig-1", Page: 1},
				{ID: "fig-2", Page: 3},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ExtractionResult)
		wantErr bool
	}{
		{"valid", func(r *ExtractionResult) {}, false},
		{"no figures is fine", func(r *ExtractionResult) { r.Figures = nil }, false},
		{"missing document ID", func(r *ExtractionResult) { r.DocumentID = "" }, true},
		{"empty text", func(r *ExtractionResult) { r.Text = "" }, true},
		{"zero pages", func(r *ExtractionResult) { r.PageCount = 0 }, true},
		{"empty figure ID", func(r *ExtractionResult) { r.Figures[0].ID = "" }, true},
		{"duplicate figure ID", func(r *ExtractionResult) { r.Figures[1].ID = "fig-1" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid()
			tt.mutate(r)
			err := r.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidInput))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
