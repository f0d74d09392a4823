// Package textproc provides text normalization helpers shared by the
// planner prompt builder and the narration synthesizer.
package textproc

import (
	"regexp"
	"strings"
)

// truncationMarker is appended whenever TruncateAtBoundary cuts text.
const truncationMarker = "\n\n[document truncated]"

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// CollapseBlankLines strips trailing spaces from every line and
// collapses runs of three or more newlines into a single blank line.
// The result keeps markdown paragraph structure intact while dropping
// the vertical padding OCR output tends to carry.
func CollapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")

	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}

// unicodeSpaces are non-ASCII space characters OCR output carries.
var unicodeSpaces = []string{" ", " ", " ", " "}

var innerWhitespace = regexp.MustCompile(`\s+`)

// CompactWhitespace collapses each line's internal whitespace to single
// spaces and runs of blank lines to one. Applied to prompt text to cut
// token spend without losing paragraph structure.
func CompactWhitespace(s string) string {
	var lines []string
	prevBlank := false
	for _, raw := range strings.Split(s, "\n") {
		for _, u := range unicodeSpaces {
			raw = strings.ReplaceAll(raw, u, " ")
		}
		line := innerWhitespace.ReplaceAllString(strings.TrimSpace(raw), " ")
		if line == "" {
			if !prevBlank {
				lines = append(lines, "")
			}
			prevBlank = true
			continue
		}
		lines = append(lines, line)
		prevBlank = false
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// TruncateAtBoundary shortens s to at most max runes, cutting at the
// nearest paragraph break below the limit when one exists, else at the
// nearest line break, else at the nearest space. A truncation marker is
// appended and counted against the limit. Text already within the limit
// is returned unchanged.
func TruncateAtBoundary(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}

	budget := max - len([]rune(truncationMarker))
	if budget < 1 {
		return string(runes[:max])
	}
	cut := string(runes[:budget])

	for _, boundary := range []string{"\n\n", "\n", " "} {
		if idx := strings.LastIndex(cut, boundary); idx > 0 {
			cut = cut[:idx]
			break
		}
	}
	return strings.TrimRight(cut, " \n") + truncationMarker
}

// ChunkSentences splits text into chunks no longer than limit runes,
// breaking at sentence boundaries where possible. A single sentence
// longer than the limit is split at the last space below the limit.
// Speech APIs cap input length per request; callers synthesize each
// chunk separately and concatenate the audio.
func ChunkSentences(text string, limit int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if limit < 1 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	for _, sentence := range splitSentences(text) {
		for _, piece := range hardSplit(sentence, limit) {
			if current.Len() > 0 && len([]rune(current.String()))+1+len([]rune(piece)) > limit {
				chunks = append(chunks, current.String())
				current.Reset()
			}
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(piece)
		}
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// splitSentences splits on sentence-final punctuation followed by
// whitespace, keeping the punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			atEnd := i == len(runes)-1
			if atEnd || runes[i+1] == ' ' || runes[i+1] == '\n' {
				if s := strings.TrimSpace(current.String()); s != "" {
					sentences = append(sentences, s)
				}
				current.Reset()
			}
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// hardSplit breaks an over-long sentence at spaces so every piece fits
// within limit runes.
func hardSplit(sentence string, limit int) []string {
	runes := []rune(sentence)
	if len(runes) <= limit {
		return []string{sentence}
	}

	var pieces []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > 0; i-- {
			if runes[i-1] == ' ' {
				cut = i - 1
				break
			}
		}
		if cut == 0 {
			cut = limit
		}
		pieces = append(pieces, strings.TrimSpace(string(runes[:cut])))
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}
