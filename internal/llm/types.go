package llm

import "encoding/json"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolSpec describes a callable tool. Parameters is a JSON schema object.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is a model request to run a tool with JSON encoded arguments.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// Message is a provider independent conversation turn. Assistant messages may
// carry ToolCalls; tool messages answer exactly one call via ToolCallID.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	IsError    bool
}

// LLMRequest is one model turn. When ToolsDisabled is set the tools stay
// declared, so earlier tool turns remain valid, but the model may not call them.
type LLMRequest struct {
	System        string
	Messages      []Message
	Tools         []ToolSpec
	ToolsDisabled bool
	MaxTokens     int
	Temperature   float64
}

// Prompt builds a single user turn request.
func Prompt(prompt string, maxTokens int, temperature float64) LLMRequest {
	return LLMRequest{
		Messages:    []Message{{Role: RoleUser, Content: prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}

type LLMResponse struct {
	Content    string
	ToolCalls  []ToolCall
	StopReason string
	Usage      Usage
}

type StreamCallback func(chunk string) error
