package retrieval

import (
	"context"
	"fmt"

	"github.com/povarna/generative-ai-agents/book-agent/internal/embedding"
	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/povarna/generative-ai-agents/book-agent/internal/vectorstore"
	"github.com/rs/zerolog"
)

const (
	MinK     = 1
	MaxK     = 10
	DefaultK = 5
)

type Retriever struct {
	embedder embedding.Embedder
	index    vectorstore.Index
	logger   *zerolog.Logger
}

func NewRetriever(embedder embedding.Embedder, index vectorstore.Index, logger *zerolog.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		index:    index,
		logger:   logger,
	}
}

// ClampK keeps k inside [MinK, MaxK].
func ClampK(k int) int {
	if k < MinK {
		return MinK
	}
	if k > MaxK {
		return MaxK
	}
	return k
}

// Search returns the top k chunks for a query vector, highest score first.
// No match is an empty result, not an error.
func (r *Retriever) Search(ctx context.Context, vector []float32, k int) ([]models.RetrievalResult, error) {
	k = ClampK(k)
	results, err := r.index.Search(ctx, vector, k)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("vector search failed: %w", err))
	}
	if results == nil {
		results = []models.RetrievalResult{}
	}
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, error) {
	vector, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := r.Search(ctx, vector, k)
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Int("k", ClampK(k)).
		Int("results", len(results)).
		Msg("Retrieved chunks")

	return results, nil
}
