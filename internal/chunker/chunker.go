// Package chunker splits document text into overlapping chunks sized for
// embedding.
//
// The splitter prefers natural boundaries: it tries to end each chunk at a
// paragraph break, then a line break, then a sentence end, then a word
// boundary, and only hard-cuts mid-word when a window contains no separator
// at all. Consecutive chunks share a fixed overlap so sentences straddling
// a boundary stay retrievable from at least one chunk.
package chunker

import (
	"fmt"
	"strings"
)

// separators in preference order, coarsest first.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunker splits text into chunks of at most Size characters with Overlap
// shared characters between consecutive chunks. Sizes are in runes, not
// bytes, so multi-byte text chunks predictably.
type Chunker struct {
	size    int
	overlap int
}

// New creates a Chunker. Overlap must be non-negative and smaller than size.
func New(size, overlap int) (*Chunker, error) {
	if size < 1 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", size, overlap)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the maximum chunk length in runes.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the shared length between consecutive chunks in runes.
func (c *Chunker) Overlap() int { return c.overlap }

// Split splits text into chunks. Empty or whitespace-only text yields no
// chunks. Text no longer than the chunk size is returned as a single chunk.
func (c *Chunker) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			break
		}

		// Prefer the coarsest separator that still leaves the chunk longer
		// than the overlap; otherwise advancing by cut-overlap would not
		// make progress.
		cut := end
		for _, sep := range separators {
			idx := lastIndex(runes[start:end], []rune(sep))
			if idx < 0 {
				continue
			}
			cand := start + idx + len([]rune(sep))
			if cand > start+c.overlap {
				cut = cand
				break
			}
		}

		chunks = append(chunks, string(runes[start:cut]))
		start = cut - c.overlap
	}

	return chunks
}

// lastIndex returns the index of the last occurrence of sep in s, or -1.
func lastIndex(s, sep []rune) int {
	for i := len(s) - len(sep); i >= 0; i-- {
		match := true
		for j := range sep {
			if s[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
