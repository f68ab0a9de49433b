package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
)

// DefaultTopK is the number of passages returned when no TopK option is given.
const DefaultTopK = 5

// Retriever embeds a query and returns the nearest passages from a fixed Index.
type Retriever struct {
	embedder embedding.Embedder
	index    *Index
	topK     int
}

var _ retriever.Retriever = (*Retriever)(nil)

// NewRetriever binds an embedder to an index.
func NewRetriever(embedder embedding.Embedder, index *Index, topK int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, index: index, topK: topK}
}

// Retrieve returns documents in rank order; each carries its distance as score.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts ...retriever.Option) ([]*schema.Document, error) {
	topK := r.topK
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &topK, Embedding: r.embedder}, opts...)

	if options.Embedding == nil {
		return nil, errors.New("retriever has no embedder")
	}
	vectors, err := options.Embedding.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedding query: expected 1 vector, got %d", len(vectors))
	}

	hits, err := r.index.Search(toFloat32(vectors[0]), *options.TopK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	docs := make([]*schema.Document, len(hits))
	for i, hit := range hits {
		doc := &schema.Document{
			ID:       strconv.Itoa(hit.ID),
			Content:  hit.Content,
			MetaData: map[string]any{},
		}
		docs[i] = doc.WithScore(float64(hit.Distance))
	}
	return docs, nil
}

// Contents extracts document texts, preserving order.
func Contents(docs []*schema.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		out = append(out, d.Content)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
