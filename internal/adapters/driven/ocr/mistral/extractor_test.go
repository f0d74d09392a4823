package mistral

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// --- Test fixtures ---

func testDocument() *domain.SourceDocument {
	return &domain.SourceDocument{
		ID:        "doc-abc",
		Path:      "/tmp/paper.pdf",
		Format:    domain.FormatPDF,
		Bytes:     []byte("%PDF-1.4 fake"),
		PageCount: 2,
	}
}

func imagePayload(content string) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte(content))
}

func newTestExtractor(t *testing.T, handler http.HandlerFunc) (*Extractor, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	extractor, err := New(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)
	return extractor, server
}

// --- Tests ---

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNew_Defaults(t *testing.T) {
	extractor, err := New(Config{APIKey: "k"})

	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, extractor.baseURL)
	assert.Equal(t, DefaultModel, extractor.model)
	assert.Equal(t, DefaultModel, extractor.ModelName())
}

func TestExtractor_Extract_ParsesPagesAndFigures(t *testing.T) {
	var captured ocrRequest
	extractor, _ := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/ocr", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		response := ocrResponse{
			Model: DefaultModel,
			Pages: []ocrPage{
				{
					Index:    0,
					Markdown: "# A Paper\n\nIntroduction text.\n\n\n\nMore text.",
				},
				{
					Index:    1,
					Markdown: "![overview](img-0.jpeg)\n\nFigure 1: System architecture overview.\n\nDetails follow.",
					Images: []ocrImage{
						{
							ID:           "img-0.jpeg",
							ImageBase64:  imagePayload("jpegbytes"),
							TopLeftX:     10,
							TopLeftY:     20,
							BottomRightX: 410,
							BottomRightY: 320,
						},
					},
				},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(response))
	})

	result, err := extractor.Extract(context.Background(), testDocument())

	require.NoError(t, err)
	assert.Equal(t, "doc-abc", result.DocumentID)
	assert.Equal(t, 2, result.PageCount)

	// The upload is an inline base64 data URL.
	assert.Equal(t, DefaultModel, captured.Model)
	assert.Equal(t, "document_url", captured.Document.Type)
	assert.True(t, strings.HasPrefix(captured.Document.DocumentURL, "data:application/pdf;base64,"))
	assert.True(t, captured.IncludeImageBase64)

	// Page text is joined in order with blank runs collapsed.
	assert.Contains(t, result.Text, "# A Paper")
	assert.Contains(t, result.Text, "Details follow.")
	assert.NotContains(t, result.Text, "\n\n\n")
	assert.Less(t, strings.Index(result.Text, "A Paper"), strings.Index(result.Text, "overview"))

	require.Len(t, result.Figures, 1)
	figure := result.Figures[0]
	assert.Equal(t, "img-2-0", figure.ID)
	assert.Equal(t, 2, figure.Page)
	assert.Equal(t, "Figure 1: System architecture overview.", figure.Title)
	assert.Equal(t, []byte("jpegbytes"), figure.Data)
	require.NotNil(t, figure.Region)
	assert.Equal(t, 10, figure.Region.TopLeftX)
	assert.Equal(t, 320, figure.Region.BottomRightY)

	// Image links now point at the stable figure ID.
	assert.Contains(t, result.Text, "![overview](img-2-0)")
	assert.NotContains(t, result.Text, "img-0.jpeg")
}

func TestExtractor_Extract_EmptyPagesRejected(t *testing.T) {
	extractor, _ := newTestExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		require.NoError(t, json.NewEncoder(w).Encode(ocrResponse{}))
	})

	_, err := extractor.Extract(context.Background(), testDocument())

	require.Error(t, err)
	assert.False(t, domain.IsTransient(err))
	assert.Contains(t, err.Error(), "no pages")
}

func TestExtractor_Extract_RateLimited(t *testing.T) {
	extractor, _ := newTestExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := extractor.Extract(context.Background(), testDocument())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.True(t, domain.IsTransient(err))

	// The advertised interval gates the next request.
	extractor.mu.Lock()
	pause := time.Until(extractor.notBefore)
	extractor.mu.Unlock()
	assert.Greater(t, pause, 5*time.Second)
}

func TestExtractor_Extract_AuthRejectionIsPermanent(t *testing.T) {
	extractor, _ := newTestExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthorized","type":"invalid_request_error"}`))
	})

	_, err := extractor.Extract(context.Background(), testDocument())

	require.Error(t, err)
	assert.False(t, domain.IsTransient(err))
	assert.Equal(t, domain.ErrorKindExtraction, domain.KindOf(err))
	assert.Contains(t, err.Error(), "Unauthorized")
}

func TestExtractor_Extract_ServerErrorIsTransient(t *testing.T) {
	extractor, _ := newTestExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := extractor.Extract(context.Background(), testDocument())

	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestExtractor_Ping(t *testing.T) {
	extractor, _ := newTestExtractor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	})

	assert.NoError(t, extractor.Ping(context.Background()))
}

func TestExtractor_Ping_Unauthorized(t *testing.T) {
	extractor, _ := newTestExtractor(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	err := extractor.Ping(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestFigureContext(t *testing.T) {
	tests := []struct {
		name        string
		markdown    string
		figureNum   int
		wantTitle   string
		wantCaption string
	}{
		{
			name:      "short caption joins the title",
			markdown:  "Figure 1: Training loss curve\n",
			figureNum: 1,
			wantTitle: "Figure 1: Training loss curve",
		},
		{
			name:        "long caption keeps first sentence as title",
			markdown:    "Figure 2: The architecture spans three tiers with caching at each. Requests fan out from the gateway.",
			figureNum:   2,
			wantTitle:   "Figure 2: The architecture spans three tiers with caching at each",
			wantCaption: "The architecture spans three tiers with caching at each. Requests fan out from the gateway.",
		},
		{
			name:      "fig abbreviation",
			markdown:  "As shown in Fig. 3: ablation results\n",
			figureNum: 3,
			wantTitle: "Figure 3: ablation results",
		},
		{
			name:      "falls back to any figure reference",
			markdown:  "Figure 9: unrelated numbering\n",
			figureNum: 1,
			wantTitle: "Figure 1: unrelated numbering",
		},
		{
			name:      "no reference at all",
			markdown:  "Plain page text without references.",
			figureNum: 4,
			wantTitle: "Figure 4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, caption := figureContext(tt.markdown, tt.figureNum)
			assert.Equal(t, tt.wantTitle, title)
			assert.Equal(t, tt.wantCaption, caption)
		})
	}
}

func TestDecodeImage(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("png"))

	withPrefix, err := decodeImage("data:image/png;base64," + encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), withPrefix)

	bare, err := decodeImage(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), bare)

	_, err = decodeImage("data:image/png;base64,!!!")
	assert.Error(t, err)
}
