// Package chunk splits raw document text into overlapping, bounded-size
// units suitable for embedding and prompt assembly.
package chunk

import (
	"fmt"
	"strings"

	"github.com/gemba-cloud/gembot/internal/domain"
)

// Chunk is a contiguous slice of document text.
type Chunk struct {
	// Index is the zero-based sequence number in traversal order.
	Index int
	// Text is the chunk content, words joined by single spaces.
	Text string
	// Offset is the word position of the chunk start within the document.
	Offset int
}

// Split cuts text into chunks of at most maxWords whitespace-separated words,
// with consecutive chunks sharing overlap words. The final chunk may be
// shorter. Word-boundary splitting avoids mid-sentence truncation without
// real tokenizer-level counting.
//
// overlap must be smaller than maxWords, otherwise the window cannot advance.
func Split(text string, maxWords, overlap int) ([]Chunk, error) {
	if maxWords <= 0 || overlap < 0 || overlap >= maxWords {
		return nil, fmt.Errorf("max_words=%d overlap=%d: %w", maxWords, overlap, domain.ErrInvalidChunking)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	stride := maxWords - overlap
	var chunks []Chunk
	for start := 0; ; start += stride {
		end := start + maxWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Text:   strings.Join(words[start:end], " "),
			Offset: start,
		})
		// Stop once the document tail is covered; a further window would
		// only repeat words from this chunk.
		if end == len(words) {
			return chunks, nil
		}
	}
}
