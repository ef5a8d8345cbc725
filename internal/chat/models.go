package chat

import (
	"time"
	"unicode/utf8"

	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/povarna/generative-ai-agents/book-agent/internal/prompt"
)

const snippetLength = 200

type ChatRequest struct {
	Query               string                       `json:"query" description:"User question"`
	SelectedText        string                       `json:"selected_text,omitempty" description:"User-selected text; switches to selected_text mode"`
	ConversationHistory []models.ConversationMessage `json:"conversation_history,omitempty" description:"Previous messages (max 10)"`
}

type SourceChunk struct {
	Chapter        string  `json:"chapter" description:"Chapter title"`
	Section        string  `json:"section,omitempty" description:"Section heading"`
	Snippet        string  `json:"snippet" description:"First 200 characters of the chunk"`
	Source         string  `json:"source,omitempty" description:"Source file path"`
	RelevanceScore float64 `json:"relevance_score" description:"Similarity score (0-1)"`
}

type ChatResponse struct {
	Response     string        `json:"response" description:"Generated answer"`
	SourceChunks []SourceChunk `json:"source_chunks" description:"Citations, empty in selected_text mode"`
	Mode         models.Mode   `json:"mode" description:"rag, selected_text or agent"`
	Timestamp    time.Time     `json:"timestamp" description:"Response time (RFC 3339)"`
}

type AgentChatResponse struct {
	ChatResponse
	Confidence         models.Confidence      `json:"confidence" description:"low, medium or high"`
	ReasoningStepCount int                    `json:"reasoning_step_count" description:"Number of reasoning steps"`
	ToolCallCount      int                    `json:"tool_call_count" description:"Number of tool calls"`
	TotalTokens        int                    `json:"total_tokens" description:"Tokens used across all model turns"`
	ReasoningSteps     []models.ReasoningStep `json:"reasoning_steps" description:"Structured reasoning trace"`
}

func (r *ChatRequest) toPrompt() prompt.Request {
	return prompt.Request{
		Query:        r.Query,
		SelectedText: r.SelectedText,
		History:      r.ConversationHistory,
	}
}

// Snippet returns the first 200 characters of text, marking truncation with "...".
func Snippet(text string) string {
	if utf8.RuneCountInString(text) <= snippetLength {
		return text
	}
	return string([]rune(text)[:snippetLength]) + "..."
}

func sourceChunk(c models.SourceCitation) SourceChunk {
	return SourceChunk{
		Chapter:        c.Chapter,
		Section:        c.Section,
		Snippet:        Snippet(c.Text),
		Source:         c.Source,
		RelevanceScore: c.RelevanceScore,
	}
}
