package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/povarna/generative-ai-agents/book-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
)

// ErrInvalidToolInput marks failures caused by the model's arguments. They are
// reported back to the model as an error result instead of failing the run.
var ErrInvalidToolInput = errors.New("invalid tool input")

type ToolResult struct {
	// Content is the JSON payload returned to the model.
	Content   string
	Query     string
	NumChunks int
	Citations []models.SourceCitation
}

type Tool interface {
	Name() string
	Spec() llm.ToolSpec
	Call(ctx context.Context, args json.RawMessage) (*ToolResult, error)
}

// ToolCallRecord is the structured trace of one tool invocation.
type ToolCallRecord struct {
	Sequence  int
	Name      string
	Query     string
	NumChunks int
	Citations []models.SourceCitation
	Err       error
}

func (r ToolCallRecord) Step() models.ReasoningStep {
	step := models.ReasoningStep{
		Sequence:  r.Sequence,
		Action:    r.Name,
		Query:     r.Query,
		NumChunks: len(r.Citations),
	}
	if r.Err != nil {
		step.Details = fmt.Sprintf("Tool call failed: %v", r.Err)
	} else {
		step.Details = fmt.Sprintf("Retrieved %d chunks", len(r.Citations))
	}
	return step
}
