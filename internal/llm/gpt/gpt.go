package gpt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/povarna/generative-ai-agents/book-agent/internal/llm"
)

func (c *Client) InvokeModel(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	output, err := c.Client.Chat.Completions.New(ctx, c.buildParams(request))
	if err != nil {
		return nil, fmt.Errorf("unable to invoke gpt model: %w", WrapError(err))
	}

	if len(output.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := output.Choices[0]
	response := &llm.LLMResponse{
		Content:    choice.Message.Content,
		StopReason: string(choice.FinishReason),
		Usage: llm.Usage{
			InputTokens:  int(output.Usage.PromptTokens),
			OutputTokens: int(output.Usage.CompletionTokens),
		},
	}

	for _, call := range choice.Message.ToolCalls {
		args := json.RawMessage(call.Function.Arguments)
		if len(args) == 0 {
			args = json.RawMessage("{}")
		}
		response.ToolCalls = append(response.ToolCalls, llm.ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: args,
		})
	}

	return response, nil
}

func (c *Client) InvokeModelStream(ctx context.Context, request llm.LLMRequest, callback llm.StreamCallback) (*llm.LLMResponse, error) {
	params := c.buildParams(request)
	params.StreamOptions = openai.ChatCompletionStreamOptionsParam{IncludeUsage: openai.Bool(true)}

	stream := c.Client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	var fullContent strings.Builder
	response := &llm.LLMResponse{}

	for stream.Next() {
		event := stream.Current()
		if event.Usage.TotalTokens > 0 {
			response.Usage = llm.Usage{
				InputTokens:  int(event.Usage.PromptTokens),
				OutputTokens: int(event.Usage.CompletionTokens),
			}
		}
		if len(event.Choices) == 0 {
			continue
		}

		choice := event.Choices[0]
		if choice.FinishReason != "" {
			response.StopReason = string(choice.FinishReason)
		}
		if choice.Delta.Content == "" {
			continue
		}

		fullContent.WriteString(choice.Delta.Content)
		if callback != nil {
			if err := callback(choice.Delta.Content); err != nil {
				return nil, fmt.Errorf("callback error: %w", err)
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("stream error: %w", WrapError(err))
	}

	response.Content = fullContent.String()
	return response, nil
}

func (c *Client) buildParams(request llm.LLMRequest) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            toOpenAIMessages(request),
		MaxCompletionTokens: openai.Int(int64(request.MaxTokens)),
		Temperature:         openai.Float(request.Temperature),
		Model:               openai.ChatModel(c.modelID),
	}

	for _, tool := range request.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openai.String(tool.Description),
				Parameters:  openai.FunctionParameters(tool.Parameters),
			},
		})
	}
	if request.ToolsDisabled && len(params.Tools) > 0 {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String("none"),
		}
	}

	return params
}

func toOpenAIMessages(request llm.LLMRequest) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if request.System != "" {
		messages = append(messages, openai.SystemMessage(request.System))
	}

	for _, msg := range request.Messages {
		switch msg.Role {
		case llm.RoleTool:
			messages = append(messages, openai.ToolMessage(msg.Content, msg.ToolCallID))

		case llm.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(msg.Content))
				continue
			}

			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			for _, call := range msg.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      call.Name,
						Arguments: string(call.Arguments),
					},
				})
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})

		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}

	return messages
}
