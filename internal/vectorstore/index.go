package vectorstore

import (
	"context"

	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
)

//go:generate mockgen -source=index.go -destination=mocks/index_mock.go -package=mocks

// Index stores chunk vectors and answers cosine similarity queries. Search
// returns at most k results in descending score order and an empty slice when
// nothing matches.
type Index interface {
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []models.Chunk) error
	DeleteBySource(ctx context.Context, sourcePath string) error
	Search(ctx context.Context, vector []float32, k int) ([]models.RetrievalResult, error)
}

// DistanceToScore converts a cosine distance into a similarity in [0, 1].
func DistanceToScore(distance float64) float64 {
	score := 1 - distance
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
