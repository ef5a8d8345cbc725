package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/povarna/generative-ai-agents/book-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/povarna/generative-ai-agents/book-agent/internal/retrieval"
)

const RetrieveToolName = "retrieve_context"

type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, error)
}

type RetrieveInput struct {
	SearchQuery string `json:"search_query" jsonschema:"Query to search for in the book. Be specific and focused."`
	NumChunks   *int   `json:"num_chunks,omitempty" jsonschema:"Number of chunks to retrieve (1-10). Default is 5."`
}

type retrievedChunk struct {
	Text           string  `json:"text"`
	Chapter        string  `json:"chapter"`
	Section        string  `json:"section,omitempty"`
	RelevanceScore float64 `json:"relevance_score"`
	Source         string  `json:"source"`
}

type retrieveOutput struct {
	Chunks         []retrievedChunk `json:"chunks"`
	TotalRetrieved int              `json:"total_retrieved"`
	SearchQuery    string           `json:"search_query"`
}

// RetrieveTool searches the book for passages relevant to a query.
type RetrieveTool struct {
	retriever Retriever
}

func NewRetrieveTool(retriever Retriever) *RetrieveTool {
	return &RetrieveTool{retriever: retriever}
}

func (t *RetrieveTool) Name() string {
	return RetrieveToolName
}

func (t *RetrieveTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name: RetrieveToolName,
		Description: "Retrieve relevant context from the book using semantic search. " +
			"Use this tool to find information before answering user questions. " +
			"You can call it multiple times with different queries to gather comprehensive information.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"search_query": map[string]any{
					"type":        "string",
					"description": "Query to search for in the book. Be specific and focused.",
				},
				"num_chunks": map[string]any{
					"type":        "integer",
					"description": "Number of chunks to retrieve (1-10). Use more chunks for complex topics. Default is 5.",
					"minimum":     retrieval.MinK,
					"maximum":     retrieval.MaxK,
				},
			},
			"required": []string{"search_query"},
		},
	}
}

// ParseRetrieveInput decodes tool arguments and applies the default and
// clamp to num_chunks.
func ParseRetrieveInput(args json.RawMessage) (string, int, error) {
	var in RetrieveInput
	if err := json.Unmarshal(args, &in); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidToolInput, err)
	}

	query := strings.TrimSpace(in.SearchQuery)
	if query == "" {
		return "", 0, fmt.Errorf("%w: search_query must not be empty", ErrInvalidToolInput)
	}

	k := retrieval.DefaultK
	if in.NumChunks != nil {
		k = *in.NumChunks
	}

	return query, retrieval.ClampK(k), nil
}

func (t *RetrieveTool) Call(ctx context.Context, args json.RawMessage) (*ToolResult, error) {
	query, k, err := ParseRetrieveInput(args)
	if err != nil {
		return nil, err
	}

	results, err := t.retriever.Retrieve(ctx, query, k)
	if err != nil {
		return nil, err
	}

	output := retrieveOutput{
		Chunks:         make([]retrievedChunk, 0, len(results)),
		TotalRetrieved: len(results),
		SearchQuery:    query,
	}
	citations := make([]models.SourceCitation, 0, len(results))
	for _, r := range results {
		citation := models.CitationFromResult(r)
		citations = append(citations, citation)
		output.Chunks = append(output.Chunks, retrievedChunk{
			Text:           citation.Text,
			Chapter:        citation.Chapter,
			Section:        citation.Section,
			RelevanceScore: citation.RelevanceScore,
			Source:         citation.Source,
		})
	}

	content, err := json.Marshal(output)
	if err != nil {
		return nil, fmt.Errorf("failed to encode retrieval result: %w", err)
	}

	return &ToolResult{
		Content:   string(content),
		Query:     query,
		NumChunks: k,
		Citations: citations,
	}, nil
}
