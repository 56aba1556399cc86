package rag

import (
	"fmt"
	"math"
	"sort"
)

const DefaultTopK = 4

// Index is an in-memory exact-search vector index over chunks.
type Index struct {
	dim     int
	chunks  []Chunk
	vectors [][]float32
	norms   []float64
}

// ScoredChunk is a search hit.
type ScoredChunk struct {
	Chunk
	Score float32 // cosine similarity
}

func NewIndex() *Index {
	return &Index{}
}

func (ix *Index) Len() int {
	return len(ix.chunks)
}

// Dimension is zero until the first vector is added.
func (ix *Index) Dimension() int {
	return ix.dim
}

// Add appends chunks with their vectors. Every vector must share the
// dimension of the first one ever added.
func (ix *Index) Add(chunks []Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("vector %d is empty", i)
		}
		dim := ix.dim
		if dim == 0 {
			dim = len(vectors[0])
		}
		if len(v) != dim {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", dim, len(v))
		}
	}
	if len(vectors) == 0 {
		return nil
	}
	if ix.dim == 0 {
		ix.dim = len(vectors[0])
	}

	for i, v := range vectors {
		ix.chunks = append(ix.chunks, chunks[i])
		ix.vectors = append(ix.vectors, v)
		ix.norms = append(ix.norms, norm(v))
	}
	return nil
}

// Search returns up to k chunks ordered by descending cosine similarity.
// Ties keep insertion order.
func (ix *Index) Search(query []float32, k int) ([]ScoredChunk, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("query vector is empty")
	}
	if ix.Len() == 0 {
		return nil, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", ix.dim, len(query))
	}
	if k <= 0 {
		k = DefaultTopK
	}

	qn := norm(query)
	results := make([]ScoredChunk, len(ix.chunks))
	for i, v := range ix.vectors {
		results[i] = ScoredChunk{
			Chunk: ix.chunks[i],
			Score: cosine(query, v, qn, ix.norms[i]),
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func cosine(a, b []float32, na, nb float64) float32 {
	if na == 0 || nb == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return float32(dot / (na * nb))
}
