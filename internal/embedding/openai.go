package embedding

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/povarna/generative-ai-agents/book-agent/internal/llm/gpt"
)

const openAIMaxBatch = 512

// OpenAIEmbedder calls the OpenAI embeddings endpoint. OpenAI models embed
// documents and queries the same way, so both paths share one request shape.
type OpenAIEmbedder struct {
	client    openai.Client
	modelID   string
	dimension int
}

func NewOpenAIEmbedder(client openai.Client, modelID string, dimension int) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		client:    client,
		modelID:   modelID,
		dimension: dimension,
	}
}

func (e *OpenAIEmbedder) ModelID() string {
	return e.modelID
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, batch := range batches(texts, openAIMaxBatch) {
		embeddings, err := e.embed(ctx, batch)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, embeddings...)
	}
	return vectors, nil
}

func (e *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (e *OpenAIEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(e.modelID),
	}
	if e.dimension > 0 {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	response, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", gpt.WrapError(err))
	}

	if len(response.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(response.Data))
	}

	// the API may return items out of order; place them by index
	vectors := make([][]float32, len(texts))
	for _, item := range response.Data {
		if item.Index < 0 || int(item.Index) >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", item.Index)
		}
		vector := make([]float32, len(item.Embedding))
		for i, v := range item.Embedding {
			vector[i] = float32(v)
		}
		vectors[item.Index] = vector
	}

	return vectors, nil
}
