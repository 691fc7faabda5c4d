// Package index provides an in-memory cosine-similarity index over
// embedded knowledge chunks. An index is built once and read-only
// afterwards, so concurrent searches need no locking.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/yuuuzooo/job-posting-mvp/internal/domain"
)

// Entry pairs an embedding vector with the chunk it was computed from.
type Entry struct {
	Vector []float32
	Chunk  domain.Chunk
}

// Index holds the built entries. Append-only at build time, immutable after.
type Index struct {
	dim     int
	entries []indexedEntry
}

type indexedEntry struct {
	vector []float32
	norm   float32
	chunk  domain.Chunk
}

// Build constructs an Index from entries. All vectors must share one
// dimension; vector norms are precomputed for search.
func Build(entries []Entry) (*Index, error) {
	idx := &Index{}
	for i, e := range entries {
		if len(e.Vector) == 0 {
			return nil, fmt.Errorf("entry %d (%s): empty vector: %w",
				i, e.Chunk.SourceID, domain.ErrVectorDimMismatch)
		}
		if idx.dim == 0 {
			idx.dim = len(e.Vector)
		}
		if len(e.Vector) != idx.dim {
			return nil, fmt.Errorf("entry %d (%s): dimension %d, index has %d: %w",
				i, e.Chunk.SourceID, len(e.Vector), idx.dim, domain.ErrVectorDimMismatch)
		}
		idx.entries = append(idx.entries, indexedEntry{
			vector: e.Vector,
			norm:   norm(e.Vector),
			chunk:  e.Chunk,
		})
	}
	return idx, nil
}

// Search returns up to k chunks ranked by cosine similarity to the query
// vector, score-descending, ties broken by insertion order. An empty index
// yields an empty result, never an error.
func (idx *Index) Search(vector []float32, k int) ([]domain.ScoredChunk, error) {
	if len(idx.entries) == 0 {
		return nil, nil
	}
	if len(vector) != idx.dim {
		return nil, fmt.Errorf("query dimension %d, index has %d: %w",
			len(vector), idx.dim, domain.ErrVectorDimMismatch)
	}
	if k <= 0 {
		return nil, nil
	}

	queryNorm := norm(vector)

	scored := make([]domain.ScoredChunk, len(idx.entries))
	for i, e := range idx.entries {
		scored[i] = domain.ScoredChunk{
			Chunk: e.chunk,
			Score: cosine(vector, queryNorm, e.vector, e.norm),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if k < len(scored) {
		scored = scored[:k]
	}
	return scored, nil
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Dimension returns the vector dimension shared by all entries (0 when empty).
func (idx *Index) Dimension() int {
	return idx.dim
}

func cosine(a []float32, normA float32, b []float32, normB float32) float32 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float32
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (normA * normB)
}

func norm(v []float32) float32 {
	var sum float32
	for _, f := range v {
		sum += f * f
	}
	return float32(math.Sqrt(float64(sum)))
}
