package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalizeNewlines tests line ending conversion
func TestNormalizeNewlines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"crlf", "a\r\nb\r\nc", "a\nb\nc"},
		{"lone cr", "a\rb", "a\nb"},
		{"mixed", "a\r\nb\rc\nd", "a\nb\nc\nd"},
		{"already lf", "a\nb", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeNewlines(tt.input))
		})
	}
}

// TestCollapseBlankLines tests vertical whitespace reduction
func TestCollapseBlankLines(t *testing.T) {
	input := "# Title   \n\n\n\n\nFirst paragraph.\t\n\n\nSecond paragraph.\n\n\n"
	want := "# Title\n\nFirst paragraph.\n\nSecond paragraph."

	assert.Equal(t, want, CollapseBlankLines(input))
}

// TestCompactWhitespace tests prompt compaction
func TestCompactWhitespace(t *testing.T) {
	input := "  Title   line  \n\n\n\nBody\twith\ttabs\nnon breaking spaces\n\n"
	want := "Title line\n\nBody with tabs\nnon breaking spaces"

	assert.Equal(t, want, CompactWhitespace(input))
}

// TestTruncateAtBoundary tests paragraph-aware truncation
func TestTruncateAtBoundary(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "short", TruncateAtBoundary("short", 100))
	})

	t.Run("cuts at paragraph break", func(t *testing.T) {
		text := "First paragraph here.\n\nSecond paragraph here.\n\n" + strings.Repeat("x", 500)
		out := TruncateAtBoundary(text, 80)

		assert.LessOrEqual(t, len([]rune(out)), 80)
		assert.True(t, strings.HasSuffix(out, "[document truncated]"))
		assert.Contains(t, out, "First paragraph here.")
		assert.NotContains(t, out, "xxx")
	})

	t.Run("falls back to space", func(t *testing.T) {
		text := "word " + strings.Repeat("word ", 100)
		out := TruncateAtBoundary(text, 60)

		assert.LessOrEqual(t, len([]rune(out)), 60)
		assert.True(t, strings.HasSuffix(out, "[document truncated]"))
	})
}

// TestChunkSentences tests sentence-boundary chunking
func TestChunkSentences(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Nil(t, ChunkSentences("", 100))
		assert.Nil(t, ChunkSentences("   ", 100))
	})

	t.Run("fits in one chunk", func(t *testing.T) {
		chunks := ChunkSentences("One. Two. Three.", 100)
		assert.Equal(t, []string{"One. Two. Three."}, chunks)
	})

	t.Run("splits between sentences", func(t *testing.T) {
		text := "This is the first sentence. This is the second sentence. And a third one."
		chunks := ChunkSentences(text, 40)

		require.Len(t, chunks, 3)
		assert.Equal(t, "This is the first sentence.", chunks[0])
		assert.Equal(t, "This is the second sentence.", chunks[1])
		assert.Equal(t, "And a third one.", chunks[2])
	})

	t.Run("packs short sentences together", func(t *testing.T) {
		text := "One. Two. Three. Four."
		chunks := ChunkSentences(text, 12)

		require.Len(t, chunks, 2)
		assert.Equal(t, "One. Two.", chunks[0])
		assert.Equal(t, "Three. Four.", chunks[1])
	})

	t.Run("every chunk respects the limit", func(t *testing.T) {
		text := strings.Repeat("A reasonably sized narration sentence goes here. ", 30)
		chunks := ChunkSentences(text, 500)

		require.NotEmpty(t, chunks)
		for i, chunk := range chunks {
			assert.LessOrEqual(t, len([]rune(chunk)), 500, "chunk %d over limit", i)
			assert.NotEmpty(t, strings.TrimSpace(chunk))
		}
		assert.Equal(t, strings.Count(text, "sentence"),
			strings.Count(strings.Join(chunks, " "), "sentence"))
	})

	t.Run("oversized sentence is hard split", func(t *testing.T) {
		text := strings.Repeat("word ", 40) + "end."
		chunks := ChunkSentences(text, 50)

		require.Greater(t, len(chunks), 1)
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len([]rune(chunk)), 50)
		}
	})

	t.Run("question and exclamation boundaries", func(t *testing.T) {
		chunks := ChunkSentences("Really? Yes! Quite sure.", 11)
		assert.Equal(t, []string{"Really?", "Yes!", "Quite sure."}, chunks)
	})
}
