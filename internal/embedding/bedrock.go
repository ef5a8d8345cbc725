package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/povarna/generative-ai-agents/book-agent/internal/bedrock"
)

const (
	DefaultCohereModelID = "cohere.embed-english-v3"
	CohereDimension      = 1024
	cohereMaxBatch       = 96

	inputTypeDocument = "search_document"
	inputTypeQuery    = "search_query"
)

type cohereRequest struct {
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
	Truncate  string   `json:"truncate"`
}

type cohereResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// BedrockEmbedder calls Cohere embed models hosted on Bedrock.
type BedrockEmbedder struct {
	client  bedrock.Invoker
	modelID string
}

func NewBedrockEmbedder(client bedrock.Invoker, modelID string) *BedrockEmbedder {
	if modelID == "" {
		modelID = DefaultCohereModelID
	}
	return &BedrockEmbedder{
		client:  client,
		modelID: modelID,
	}
}

func (e *BedrockEmbedder) ModelID() string {
	return e.modelID
}

func (e *BedrockEmbedder) Dimension() int {
	return CohereDimension
}

func (e *BedrockEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, batch := range batches(texts, cohereMaxBatch) {
		embeddings, err := e.embed(ctx, batch, inputTypeDocument)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, embeddings...)
	}
	return vectors, nil
}

func (e *BedrockEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.embed(ctx, []string{text}, inputTypeQuery)
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (e *BedrockEmbedder) embed(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	body, err := json.Marshal(cohereRequest{
		Texts:     texts,
		InputType: inputType,
		Truncate:  "END",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	output, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", bedrock.WrapError(err))
	}

	var response cohereResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding response: %w", err)
	}

	if len(response.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(response.Embeddings))
	}

	return response.Embeddings, nil
}
