// Package chunker splits knowledge base text into overlapping chunks
// sized for embedding.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// Chunk is one slice of a source document
type Chunk struct {
	Index int
	Text  string
}

// Split cuts text into chunks of roughly chunkSize characters with the
// given overlap. When a chunk boundary falls mid-sentence, it is pulled
// back to the last sentence end or newline within the final 100
// characters of the window.
func Split(text string, chunkSize, overlap int) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	var chunks []Chunk
	start := 0
	index := 0

	for start < len(text) {
		end := start + chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = runeStart(text, end)
			end = backtrackToBoundary(text, start, end)
		}
		if end <= start {
			_, w := utf8.DecodeRuneInString(text[start:])
			end = start + w
		}

		piece := strings.TrimSpace(text[start:end])
		if piece != "" {
			chunks = append(chunks, Chunk{Index: index, Text: piece})
			index++
		}

		if end == len(text) {
			break
		}
		next := runeStart(text, end-overlap)
		if next <= start {
			_, w := utf8.DecodeRuneInString(text[start:])
			next = start + w
		}
		start = next
	}

	return chunks
}

// runeStart backs i up to the start of the rune containing text[i] so
// a cut never lands mid-rune.
func runeStart(text string, i int) int {
	if i < 0 {
		return 0
	}
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// backtrackToBoundary moves the cut point back to the last '.' or '\n'
// within the trailing 100 characters of the window, if one exists.
func backtrackToBoundary(text string, start, end int) int {
	window := end - 100
	if window < start {
		window = start
	}
	for i := end - 1; i >= window; i-- {
		if text[i] == '.' || text[i] == '\n' {
			return i + 1
		}
	}
	return end
}

// EstimateTokens approximates the token count of a text as word count
// times 1.3.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(float64(words) * 1.3)
}
