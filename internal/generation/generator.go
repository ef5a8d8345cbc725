package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
	"github.com/povarna/generative-ai-agents/book-agent/internal/llm"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxTokens   = 800
	DefaultTemperature = 0.7
)

type Config struct {
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxTokens:   DefaultMaxTokens,
		Temperature: DefaultTemperature,
		Timeout:     30 * time.Second,
	}
}

type Answer struct {
	Text       string
	StopReason string
	Usage      llm.Usage
}

// Generator sends a composed prompt as a single user turn.
type Generator struct {
	client llm.LLMClient
	cfg    Config
	logger *zerolog.Logger
}

func NewGenerator(client llm.LLMClient, cfg Config, logger *zerolog.Logger) *Generator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Generator{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

func (g *Generator) Generate(ctx context.Context, prompt string) (*Answer, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	resp, err := g.client.InvokeModel(ctx, llm.Prompt(prompt, g.cfg.MaxTokens, g.cfg.Temperature))
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("generation failed: %w", err))
	}

	g.logger.Debug().
		Str("model", g.client.ModelID()).
		Int("input_tokens", resp.Usage.InputTokens).
		Int("output_tokens", resp.Usage.OutputTokens).
		Dur("duration", time.Since(start)).
		Msg("Answer generated")

	return &Answer{
		Text:       resp.Content,
		StopReason: resp.StopReason,
		Usage:      resp.Usage,
	}, nil
}

// Stream forwards text deltas to callback as they arrive and returns the full answer.
func (g *Generator) Stream(ctx context.Context, prompt string, callback llm.StreamCallback) (*Answer, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	resp, err := g.client.InvokeModelStream(ctx, llm.Prompt(prompt, g.cfg.MaxTokens, g.cfg.Temperature), callback)
	if err != nil {
		return nil, errs.Upstream(fmt.Errorf("streaming generation failed: %w", err))
	}

	return &Answer{
		Text:       resp.Content,
		StopReason: resp.StopReason,
		Usage:      resp.Usage,
	}, nil
}

func (g *Generator) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.cfg.Timeout)
}
