package bedrock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	brt "github.com/povarna/generative-ai-agents/book-agent/internal/bedrock"
	"github.com/povarna/generative-ai-agents/book-agent/internal/llm"
)

type streamInvoker interface {
	InvokeModelWithResponseStream(ctx context.Context, params *bedrockruntime.InvokeModelWithResponseStreamInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelWithResponseStreamOutput, error)
}

// Client talks to Anthropic Claude models through the Bedrock Messages API.
type Client struct {
	invoker  brt.Invoker
	streamer streamInvoker
	modelID  string
}

func NewClient(runtime *bedrockruntime.Client, modelID string) (*Client, error) {
	if modelID == "" {
		return nil, fmt.Errorf("claude model ID is required")
	}

	return &Client{
		invoker:  runtime,
		streamer: runtime,
		modelID:  modelID,
	}, nil
}

func (c *Client) ModelID() string {
	return c.modelID
}

// Claude API request format (what Bedrock expects)
type claudeMessageRequest struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	System           string          `json:"system,omitempty"`
	Messages         []claudeMessage `json:"messages"`
	Tools            []claudeTool    `json:"tools,omitempty"`
	ToolChoice       *toolChoice     `json:"tool_choice,omitempty"`
}

type toolChoice struct {
	Type string `json:"type"`
}

type claudeMessage struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type claudeTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Claude API response format (what Bedrock returns)
type claudeMessageResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

var anthropicVersion = "bedrock-2023-05-31"

func (c *Client) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	body, err := json.Marshal(buildPayload(request))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claude request: %w", err)
	}

	output, err := c.invoker.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to invoke claude model: %w", brt.WrapError(err))
	}

	var response claudeMessageResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal bedrock response: %w", err)
	}

	result := &llm.LLMResponse{
		StopReason: response.StopReason,
		Usage: llm.Usage{
			InputTokens:  response.Usage.InputTokens,
			OutputTokens: response.Usage.OutputTokens,
		},
	}

	var text strings.Builder
	for _, block := range response.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			args := block.Input
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			result.ToolCalls = append(result.ToolCalls, llm.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}
	result.Content = text.String()

	return result, nil
}

func (c *Client) InvokeModelStream(ctx context.Context, request llm.LLMRequest, callback llm.StreamCallback) (*llm.LLMResponse, error) {
	body, err := json.Marshal(buildPayload(request))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal claude request: %w", err)
	}

	output, err := c.streamer.InvokeModelWithResponseStream(ctx, &bedrockruntime.InvokeModelWithResponseStreamInput{
		ModelId:     &c.modelID,
		Body:        body,
		Accept:      aws.String("application/json"),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to invoke claude model stream: %w", brt.WrapError(err))
	}

	stream := output.GetStream()
	defer stream.Close()

	var fullContent strings.Builder
	result := &llm.LLMResponse{}

	for event := range stream.Events() {
		chunk, ok := event.(*types.ResponseStreamMemberChunk)
		if !ok {
			continue
		}

		var streamEvent struct {
			Type  string `json:"type"`
			Delta struct {
				Type       string `json:"type"`
				Text       string `json:"text"`
				StopReason string `json:"stop_reason"`
			} `json:"delta"`
			Message struct {
				Usage struct {
					InputTokens int `json:"input_tokens"`
				} `json:"usage"`
			} `json:"message"`
			Usage struct {
				OutputTokens int `json:"output_tokens"`
			} `json:"usage"`
		}

		if err := json.Unmarshal(chunk.Value.Bytes, &streamEvent); err != nil {
			// Just skip chunks we can't parse
			continue
		}

		switch streamEvent.Type {
		case "message_start":
			result.Usage.InputTokens = streamEvent.Message.Usage.InputTokens
		case "content_block_delta":
			if streamEvent.Delta.Text == "" {
				continue
			}
			fullContent.WriteString(streamEvent.Delta.Text)
			if callback != nil {
				if err := callback(streamEvent.Delta.Text); err != nil {
					return nil, fmt.Errorf("callback error: %w", err)
				}
			}
		case "message_delta":
			result.StopReason = streamEvent.Delta.StopReason
			result.Usage.OutputTokens = streamEvent.Usage.OutputTokens
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("stream error: %w", brt.WrapError(err))
	}

	result.Content = fullContent.String()
	return result, nil
}

func buildPayload(request llm.LLMRequest) claudeMessageRequest {
	payload := claudeMessageRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        request.MaxTokens,
		Temperature:      request.Temperature,
		System:           request.System,
		Messages:         toClaudeMessages(request.Messages),
	}

	for _, tool := range request.Tools {
		payload.Tools = append(payload.Tools, claudeTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Parameters,
		})
	}
	if request.ToolsDisabled && len(payload.Tools) > 0 {
		payload.ToolChoice = &toolChoice{Type: "none"}
	}

	return payload
}

// toClaudeMessages maps conversation turns to Claude content blocks. Consecutive
// tool results are folded into a single user turn.
func toClaudeMessages(messages []llm.Message) []claudeMessage {
	var out []claudeMessage

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleTool:
			block := contentBlock{
				Type:      "tool_result",
				ToolUseID: msg.ToolCallID,
				Content:   msg.Content,
				IsError:   msg.IsError,
			}
			if n := len(out); n > 0 && out[n-1].Role == "user" && isToolResultTurn(out[n-1]) {
				out[n-1].Content = append(out[n-1].Content, block)
				continue
			}
			out = append(out, claudeMessage{Role: "user", Content: []contentBlock{block}})

		case llm.RoleAssistant:
			var blocks []contentBlock
			if msg.Content != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				input := call.Arguments
				if len(input) == 0 {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, contentBlock{Type: "tool_use", ID: call.ID, Name: call.Name, Input: input})
			}
			out = append(out, claudeMessage{Role: "assistant", Content: blocks})

		default:
			out = append(out, claudeMessage{
				Role:    "user",
				Content: []contentBlock{{Type: "text", Text: msg.Content}},
			})
		}
	}

	return out
}

func isToolResultTurn(msg claudeMessage) bool {
	for _, block := range msg.Content {
		if block.Type != "tool_result" {
			return false
		}
	}
	return len(msg.Content) > 0
}
