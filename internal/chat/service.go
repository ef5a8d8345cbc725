package chat

import (
	"context"
	"time"

	"github.com/povarna/generative-ai-agents/book-agent/internal/generation"
	"github.com/povarna/generative-ai-agents/book-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/povarna/generative-ai-agents/book-agent/internal/prompt"
	"github.com/rs/zerolog"
)

type Validator interface {
	Validate(req prompt.Request) (models.Mode, error)
	CorpusPrompt(query string, chunks []string, history []models.ConversationMessage) (string, error)
	SelectedTextPrompt(query, selectedText string, history []models.ConversationMessage) (string, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]models.RetrievalResult, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (*generation.Answer, error)
	Stream(ctx context.Context, prompt string, callback llm.StreamCallback) (*generation.Answer, error)
}

type AgentRunner interface {
	Run(ctx context.Context, query string, history []models.ConversationMessage) (*models.AgentResponse, error)
}

type Config struct {
	TopK            int
	NoResultsAnswer string
}

// Service runs the non-agentic and agentic answer paths.
type Service struct {
	composer  Validator
	retriever Retriever
	generator Generator
	agent     AgentRunner
	cfg       Config
	now       func() time.Time
	logger    *zerolog.Logger
}

func NewService(
	composer Validator,
	retriever Retriever,
	generator Generator,
	agent AgentRunner,
	cfg Config,
	logger *zerolog.Logger,
) *Service {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Service{
		composer:  composer,
		retriever: retriever,
		generator: generator,
		agent:     agent,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// StreamEvents receives the stages of a streamed answer.
type StreamEvents struct {
	OnStart func(mode models.Mode, sources []SourceChunk) error
	OnChunk llm.StreamCallback
}

type prepared struct {
	mode    models.Mode
	prompt  string
	sources []SourceChunk
	// empty is set when corpus retrieval found nothing.
	empty bool
}

func (s *Service) Answer(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	p, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}
	if p.empty {
		return s.response(s.cfg.NoResultsAnswer, p), nil
	}

	answer, err := s.generator.Generate(ctx, p.prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("mode", string(p.mode)).
		Int("sources", len(p.sources)).
		Int("tokens", answer.Usage.Total()).
		Msg("Chat answered")

	return s.response(answer.Text, p), nil
}

// Stream is Answer with the generated text delivered incrementally.
func (s *Service) Stream(ctx context.Context, req ChatRequest, events StreamEvents) (*ChatResponse, error) {
	p, err := s.prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	if events.OnStart != nil {
		if err := events.OnStart(p.mode, p.sources); err != nil {
			return nil, err
		}
	}

	if p.empty {
		if events.OnChunk != nil {
			if err := events.OnChunk(s.cfg.NoResultsAnswer); err != nil {
				return nil, err
			}
		}
		return s.response(s.cfg.NoResultsAnswer, p), nil
	}

	callback := events.OnChunk
	if callback == nil {
		callback = func(string) error { return nil }
	}

	answer, err := s.generator.Stream(ctx, p.prompt, callback)
	if err != nil {
		return nil, err
	}

	return s.response(answer.Text, p), nil
}

func (s *Service) AnswerWithAgent(ctx context.Context, req ChatRequest) (*AgentChatResponse, error) {
	// The agent always retrieves from the corpus; selected text does not apply.
	if _, err := s.composer.Validate(prompt.Request{Query: req.Query, History: req.ConversationHistory}); err != nil {
		return nil, err
	}

	result, err := s.agent.Run(ctx, req.Query, req.ConversationHistory)
	if err != nil {
		return nil, err
	}

	chunks := make([]SourceChunk, 0, len(result.Sources))
	for _, source := range result.Sources {
		chunks = append(chunks, sourceChunk(source))
	}

	return &AgentChatResponse{
		ChatResponse: ChatResponse{
			Response:     result.Answer,
			SourceChunks: chunks,
			Mode:         models.ModeAgent,
			Timestamp:    s.now(),
		},
		Confidence:         result.Confidence,
		ReasoningStepCount: len(result.ReasoningSteps),
		ToolCallCount:      result.Metadata.ToolCallsCount,
		TotalTokens:        result.Metadata.TotalTokens,
		ReasoningSteps:     result.ReasoningSteps,
	}, nil
}

func (s *Service) prepare(ctx context.Context, req ChatRequest) (*prepared, error) {
	mode, err := s.composer.Validate(req.toPrompt())
	if err != nil {
		return nil, err
	}

	if mode == models.ModeSelectedText {
		text, err := s.composer.SelectedTextPrompt(req.Query, req.SelectedText, req.ConversationHistory)
		if err != nil {
			return nil, err
		}
		return &prepared{mode: mode, prompt: text, sources: []SourceChunk{}}, nil
	}

	results, err := s.retriever.Retrieve(ctx, req.Query, s.cfg.TopK)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		s.logger.Info().Str("query", req.Query).Msg("No relevant chunks found")
		return &prepared{mode: mode, sources: []SourceChunk{}, empty: true}, nil
	}

	texts := make([]string, 0, len(results))
	sources := make([]SourceChunk, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Chunk.Text)
		sources = append(sources, sourceChunk(models.CitationFromResult(r)))
	}

	text, err := s.composer.CorpusPrompt(req.Query, texts, req.ConversationHistory)
	if err != nil {
		return nil, err
	}

	return &prepared{mode: mode, prompt: text, sources: sources}, nil
}

func (s *Service) response(text string, p *prepared) *ChatResponse {
	return &ChatResponse{
		Response:     text,
		SourceChunks: p.sources,
		Mode:         p.mode,
		Timestamp:    s.now(),
	}
}
