// Package retrieval holds the fixed passage index and the retriever that
// queries it. The index is built once at startup and never mutated.
package retrieval

import (
	"errors"
	"fmt"
	"sort"
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Passage is one indexed corpus entry. ID is its position in the corpus.
type Passage struct {
	ID      int
	Content string
	Vector  []float32
}

// Hit is a search result with its squared L2 distance to the query.
type Hit struct {
	ID       int
	Content  string
	Distance float32
}

// Index is an exhaustive L2 index, equivalent to a flat FAISS index.
type Index struct {
	dim      int
	passages []Passage
}

// NewIndex copies passages into an immutable index. All vectors must share one
// dimension; passage ids are reassigned to their position.
func NewIndex(passages []Passage) (*Index, error) {
	idx := &Index{passages: make([]Passage, len(passages))}
	for i, p := range passages {
		if i == 0 {
			idx.dim = len(p.Vector)
		}
		if len(p.Vector) == 0 || len(p.Vector) != idx.dim {
			return nil, fmt.Errorf("%w: passage %d has %d dims, want %d", ErrDimensionMismatch, i, len(p.Vector), idx.dim)
		}
		idx.passages[i] = Passage{
			ID:      i,
			Content: p.Content,
			Vector:  append([]float32(nil), p.Vector...),
		}
	}
	return idx, nil
}

// Len returns the number of indexed passages.
func (x *Index) Len() int { return len(x.passages) }

// Dim returns the vector dimension, 0 for an empty index.
func (x *Index) Dim() int { return x.dim }

// Search returns the min(k, Len()) passages closest to vector, nearest first.
// Equal distances keep corpus order.
func (x *Index) Search(vector []float32, k int) ([]Hit, error) {
	if k <= 0 || len(x.passages) == 0 {
		return []Hit{}, nil
	}
	if len(vector) != x.dim {
		return nil, fmt.Errorf("%w: query has %d dims, index has %d", ErrDimensionMismatch, len(vector), x.dim)
	}

	hits := make([]Hit, len(x.passages))
	for i, p := range x.passages {
		hits[i] = Hit{ID: p.ID, Content: p.Content, Distance: squaredL2(vector, p.Vector)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
