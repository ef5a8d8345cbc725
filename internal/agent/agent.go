package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
	"github.com/povarna/generative-ai-agents/book-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/povarna/generative-ai-agents/book-agent/internal/sources"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxIterations = 6
	DefaultMaxToolCalls  = 8
	DefaultMaxTokens     = 1024
	DefaultTemperature   = 0.3
)

const budgetExhaustedMessage = "Tool call budget exhausted. Answer using the context already retrieved."

type Config struct {
	MaxIterations int
	MaxToolCalls  int
	MaxTokens     int
	Temperature   float64
	// Timeout bounds each model turn.
	Timeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxIterations: DefaultMaxIterations,
		MaxToolCalls:  DefaultMaxToolCalls,
		MaxTokens:     DefaultMaxTokens,
		Temperature:   DefaultTemperature,
		Timeout:       30 * time.Second,
	}
}

// Agent answers a question by letting the model decide when to call tools.
type Agent struct {
	client       llm.LLMClient
	systemPrompt string
	tools        map[string]Tool
	specs        []llm.ToolSpec
	cfg          Config
	logger       *zerolog.Logger
}

func New(client llm.LLMClient, systemPrompt string, cfg Config, logger *zerolog.Logger, tools ...Tool) *Agent {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.MaxToolCalls < 0 {
		cfg.MaxToolCalls = DefaultMaxToolCalls
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}

	a := &Agent{
		client:       client,
		systemPrompt: systemPrompt,
		tools:        make(map[string]Tool, len(tools)),
		cfg:          cfg,
		logger:       logger,
	}
	for _, tool := range tools {
		a.tools[tool.Name()] = tool
		a.specs = append(a.specs, tool.Spec())
	}
	return a
}

type run struct {
	messages  []llm.Message
	records   []ToolCallRecord
	usage     llm.Usage
	toolCalls int
}

// Run drives the model until it answers without requesting tools. History is
// copied and never modified.
func (a *Agent) Run(ctx context.Context, query string, history []models.ConversationMessage) (*models.AgentResponse, error) {
	state := &run{messages: buildMessages(query, history)}

	for iteration := 1; iteration <= a.cfg.MaxIterations; iteration++ {
		remaining := a.cfg.MaxToolCalls - state.toolCalls

		request := llm.LLMRequest{
			System:        a.systemPrompt,
			Messages:      state.messages,
			Tools:         a.specs,
			ToolsDisabled: remaining <= 0,
			MaxTokens:     a.cfg.MaxTokens,
			Temperature:   a.cfg.Temperature,
		}

		resp, err := a.invoke(ctx, request)
		if err != nil {
			a.logger.Error().Err(err).Int("iteration", iteration).Msg("Agent turn failed")
			return nil, errs.Upstream(fmt.Errorf("agent turn %d failed: %w", iteration, err))
		}
		state.usage.InputTokens += resp.Usage.InputTokens
		state.usage.OutputTokens += resp.Usage.OutputTokens

		if len(resp.ToolCalls) == 0 || request.ToolsDisabled {
			if strings.TrimSpace(resp.Content) == "" {
				a.logger.Warn().
					Int("iteration", iteration).
					Bool("tools_disabled", request.ToolsDisabled).
					Int("ignored_tool_calls", len(resp.ToolCalls)).
					Msg("Model ended without an answer")
				return nil, fmt.Errorf("%w: empty answer on turn %d", errs.ErrAgentLoopExhausted, iteration)
			}
			return a.finish(state, resp, iteration), nil
		}

		state.messages = append(state.messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		allowed := resp.ToolCalls
		if len(allowed) > remaining {
			allowed = allowed[:remaining]
		}

		records, err := a.executeTools(ctx, allowed, len(state.records)+1)
		if err != nil {
			return nil, err
		}

		for i, call := range resp.ToolCalls {
			if i >= len(records) {
				state.messages = append(state.messages, toolMessage(call.ID, budgetExhaustedMessage, true))
				continue
			}
			record := records[i]
			state.records = append(state.records, record.ToolCallRecord)
			if record.Err != nil {
				state.messages = append(state.messages, toolMessage(call.ID, "Error: "+record.Err.Error(), true))
				continue
			}
			state.messages = append(state.messages, toolMessage(call.ID, record.content, false))
		}
		state.toolCalls += len(records)

		a.logger.Debug().
			Int("iteration", iteration).
			Int("tool_calls", state.toolCalls).
			Msg("Agent tool turn complete")
	}

	a.logger.Warn().
		Int("max_iterations", a.cfg.MaxIterations).
		Int("tool_calls", state.toolCalls).
		Msg("Agent loop exhausted")
	return nil, fmt.Errorf("%w: no answer after %d iterations", errs.ErrAgentLoopExhausted, a.cfg.MaxIterations)
}

func (a *Agent) invoke(ctx context.Context, request llm.LLMRequest) (*llm.LLMResponse, error) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}
	return a.client.InvokeModel(ctx, request)
}

type executedCall struct {
	ToolCallRecord
	content string
	fatal   error
}

// executeTools runs the calls of one turn concurrently. Results keep the
// order in which the model issued the calls.
func (a *Agent) executeTools(ctx context.Context, calls []llm.ToolCall, firstSequence int) ([]executedCall, error) {
	results := make([]executedCall, len(calls))
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			results[i] = a.executeTool(ctx, call, firstSequence+i)
		}(i, call)
	}

	wg.Wait()

	for _, result := range results {
		if result.fatal != nil {
			return nil, result.fatal
		}
	}
	return results, nil
}

func (a *Agent) executeTool(ctx context.Context, call llm.ToolCall, sequence int) executedCall {
	record := ToolCallRecord{
		Sequence: sequence,
		Name:     call.Name,
		Query:    queryHint(call.Arguments),
	}

	tool, ok := a.tools[call.Name]
	if !ok {
		record.Err = fmt.Errorf("%w: unknown tool %q", ErrInvalidToolInput, call.Name)
		return executedCall{ToolCallRecord: record}
	}

	result, err := tool.Call(ctx, call.Arguments)
	if err != nil {
		if errors.Is(err, ErrInvalidToolInput) {
			a.logger.Warn().Err(err).Str("tool", call.Name).Msg("Tool rejected input")
			record.Err = err
			return executedCall{ToolCallRecord: record}
		}
		return executedCall{fatal: errs.Upstream(fmt.Errorf("tool %s failed: %w", call.Name, err))}
	}

	record.Query = result.Query
	record.NumChunks = result.NumChunks
	record.Citations = result.Citations

	a.logger.Info().
		Int("sequence", sequence).
		Str("tool", call.Name).
		Str("query", result.Query).
		Int("chunks", len(result.Citations)).
		Msg("Tool call executed")

	return executedCall{ToolCallRecord: record, content: result.Content}
}

func (a *Agent) finish(state *run, resp *llm.LLMResponse, iterations int) *models.AgentResponse {
	var citations []models.SourceCitation
	steps := make([]models.ReasoningStep, 0, len(state.records))
	for _, record := range state.records {
		citations = append(citations, record.Citations...)
		steps = append(steps, record.Step())
	}

	unique, confidence := sources.Reconcile(citations)

	finishReason := resp.StopReason
	if finishReason == "" {
		finishReason = "completed"
	}

	a.logger.Info().
		Int("iterations", iterations).
		Int("tool_calls", state.toolCalls).
		Int("sources", len(unique)).
		Str("confidence", string(confidence)).
		Msg("Agent run complete")

	return &models.AgentResponse{
		Answer:         resp.Content,
		Sources:        unique,
		ReasoningSteps: steps,
		Confidence:     confidence,
		Metadata: models.ResponseMetadata{
			TotalTokens:      state.usage.Total(),
			PromptTokens:     state.usage.InputTokens,
			CompletionTokens: state.usage.OutputTokens,
			ToolCallsCount:   state.toolCalls,
			Iterations:       iterations,
			FinishReason:     finishReason,
		},
	}
}

func buildMessages(query string, history []models.ConversationMessage) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+1)
	for _, msg := range history {
		role := llm.RoleUser
		if strings.EqualFold(msg.Role, string(llm.RoleAssistant)) {
			role = llm.RoleAssistant
		}
		messages = append(messages, llm.Message{Role: role, Content: msg.Content})
	}
	return append(messages, llm.Message{Role: llm.RoleUser, Content: query})
}

func toolMessage(callID, content string, isError bool) llm.Message {
	return llm.Message{
		Role:       llm.RoleTool,
		Content:    content,
		ToolCallID: callID,
		IsError:    isError,
	}
}

// queryHint pulls search_query out of raw arguments so rejected calls still
// show what the model asked for.
func queryHint(args json.RawMessage) string {
	var in struct {
		SearchQuery string `json:"search_query"`
	}
	_ = json.Unmarshal(args, &in)
	return in.SearchQuery
}
