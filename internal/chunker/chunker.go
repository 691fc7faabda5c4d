// Package chunker splits documents into overlapping text windows for embedding.
package chunker

import (
	"fmt"
	"unicode"

	"github.com/yuuuzooo/job-posting-mvp/internal/domain"
)

// Default splitting parameters.
const (
	DefaultSize    = 1000
	DefaultOverlap = 100
)

// Splitter slides a fixed-size window across document text, preferring
// natural break boundaries (paragraph, then sentence, then word, then raw
// rune) when one falls inside the window. Splitting is deterministic:
// the same document and parameters always produce the same chunks.
type Splitter struct {
	size    int
	overlap int
}

// New creates a Splitter. overlap must be non-negative and smaller than size.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must be non-negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, size)
	}
	return &Splitter{size: size, overlap: overlap}, nil
}

// Split chunks every document in order. Chunks carry the parent document's
// SourceID and their rune offset into it.
func (s *Splitter) Split(docs []domain.Document) []domain.Chunk {
	var chunks []domain.Chunk
	for _, doc := range docs {
		chunks = append(chunks, s.splitDocument(doc)...)
	}
	return chunks
}

// splitDocument windows one document. Consecutive windows overlap by at
// least s.overlap runes, so their union covers the whole document.
func (s *Splitter) splitDocument(doc domain.Document) []domain.Chunk {
	runes := []rune(doc.Content)
	if len(runes) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	start := 0
	for {
		end := start + s.size
		if end >= len(runes) {
			chunks = append(chunks, domain.Chunk{
				SourceID: doc.SourceID,
				Offset:   start,
				Content:  string(runes[start:]),
			})
			return chunks
		}

		end = s.breakPoint(runes, start, end)
		chunks = append(chunks, domain.Chunk{
			SourceID: doc.SourceID,
			Offset:   start,
			Content:  string(runes[start:end]),
		})
		start = end - s.overlap
	}
}

// breakPoint moves the window end back to the nearest natural boundary:
// paragraph break first, then sentence end, then whitespace. Falls back to
// the hard cut when no boundary exists in the searchable tail. The end
// never retreats past the window midpoint, so forward progress holds for
// any valid size/overlap pair.
func (s *Splitter) breakPoint(runes []rune, start, hard int) int {
	minEnd := start + s.size/2
	if minEnd <= start+s.overlap {
		minEnd = start + s.overlap + 1
	}

	for i := hard; i > minEnd; i-- {
		if i >= 2 && runes[i-1] == '\n' && runes[i-2] == '\n' {
			return i
		}
	}
	for i := hard; i > minEnd; i-- {
		if isSentenceEnd(runes[i-1]) {
			return i
		}
	}
	for i := hard; i > minEnd; i-- {
		if unicode.IsSpace(runes[i-1]) {
			return i
		}
	}
	return hard
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '\n', '。', '！', '？':
		return true
	}
	return false
}
