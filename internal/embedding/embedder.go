package embedding

import (
	"context"
)

//go:generate mockgen -source=embedder.go -destination=mocks/embedder_mock.go -package=mocks

// Embedder turns text into vectors. Document and query embeddings are produced
// by separate calls because providers embed them asymmetrically. Vectors are
// returned in input order; empty input returns an empty result without a
// network call. Implementations do not retry.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	ModelID() string
}

func batches(texts []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		out = append(out, texts[start:end])
	}
	return out
}
