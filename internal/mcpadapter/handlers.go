package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/povarna/generative-ai-agents/book-agent/internal/agent"
	"github.com/povarna/generative-ai-agents/book-agent/internal/chat"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
)

type ToolCaller interface {
	Call(ctx context.Context, args json.RawMessage) (*agent.ToolResult, error)
}

type Asker interface {
	Answer(ctx context.Context, req chat.ChatRequest) (*chat.ChatResponse, error)
	AnswerWithAgent(ctx context.Context, req chat.ChatRequest) (*chat.AgentChatResponse, error)
}

// RetrieveOutput lists the passages found for a search query.
type RetrieveOutput struct {
	SearchQuery    string                  `json:"search_query" jsonschema:"query that was searched"`
	TotalRetrieved int                     `json:"total_retrieved" jsonschema:"number of passages returned"`
	Chunks         []models.SourceCitation `json:"chunks" jsonschema:"passages in descending relevance"`
}

// AskInput is the MCP tool input schema (matches HTTP API field names).
type AskInput struct {
	Query        string `json:"query" jsonschema:"question about the book"`
	SelectedText string `json:"selected_text,omitempty" jsonschema:"optional passage to answer from instead of searching the book"`
	UseAgent     bool   `json:"use_agent,omitempty" jsonschema:"let the retrieval agent plan its own searches"`
}

type AskOutput struct {
	Answer     string             `json:"answer" jsonschema:"generated answer"`
	Mode       models.Mode        `json:"mode" jsonschema:"rag, selected_text or agent"`
	Sources    []chat.SourceChunk `json:"sources" jsonschema:"citations"`
	Confidence models.Confidence  `json:"confidence,omitempty" jsonschema:"agent confidence: low, medium or high"`
}

// NewRetrieveHandler exposes the agent's retrieval tool. Pass the returned
// function to mcp.AddTool.
func NewRetrieveHandler(tool ToolCaller) func(context.Context, *mcp.CallToolRequest, agent.RetrieveInput) (*mcp.CallToolResult, RetrieveOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input agent.RetrieveInput) (*mcp.CallToolResult, RetrieveOutput, error) {
		args, err := json.Marshal(input)
		if err != nil {
			return nil, RetrieveOutput{}, fmt.Errorf("failed to encode tool input: %w", err)
		}

		result, err := tool.Call(ctx, args)
		if err != nil {
			return nil, RetrieveOutput{}, err
		}

		return nil, RetrieveOutput{
			SearchQuery:    result.Query,
			TotalRetrieved: len(result.Citations),
			Chunks:         result.Citations,
		}, nil
	}
}

// NewAskHandler answers through the chat pipeline or the agent.
func NewAskHandler(asker Asker) func(context.Context, *mcp.CallToolRequest, AskInput) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
		return Ask(ctx, asker, input)
	}
}

func Ask(ctx context.Context, asker Asker, input AskInput) (*mcp.CallToolResult, AskOutput, error) {
	chatRequest := chat.ChatRequest{Query: input.Query, SelectedText: input.SelectedText}

	if input.UseAgent {
		response, err := asker.AnswerWithAgent(ctx, chatRequest)
		if err != nil {
			return nil, AskOutput{}, err
		}
		return nil, AskOutput{
			Answer:     response.Response,
			Mode:       response.Mode,
			Sources:    response.SourceChunks,
			Confidence: response.Confidence,
		}, nil
	}

	response, err := asker.Answer(ctx, chatRequest)
	if err != nil {
		return nil, AskOutput{}, err
	}
	return nil, AskOutput{
		Answer:  response.Response,
		Mode:    response.Mode,
		Sources: response.SourceChunks,
	}, nil
}
