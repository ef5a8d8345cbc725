package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/povarna/generative-ai-agents/book-agent/internal/config"
	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
	"github.com/povarna/generative-ai-agents/book-agent/internal/generation"
	"github.com/povarna/generative-ai-agents/book-agent/internal/llm"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/povarna/generative-ai-agents/book-agent/internal/prompt"
	"github.com/rs/zerolog"
)

type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

type fakeRetriever struct {
	results []models.RetrievalResult
	err     error
	calls   int
	lastK   int
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, k int) ([]models.RetrievalResult, error) {
	f.calls++
	f.lastK = k
	return f.results, f.err
}

type fakeGenerator struct {
	answer  string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, p string) (*generation.Answer, error) {
	f.calls++
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return nil, f.err
	}
	return &generation.Answer{Text: f.answer, Usage: llm.Usage{InputTokens: 10, OutputTokens: 5}}, nil
}

func (f *fakeGenerator) Stream(_ context.Context, p string, cb llm.StreamCallback) (*generation.Answer, error) {
	f.calls++
	f.prompts = append(f.prompts, p)
	for _, word := range strings.SplitAfter(f.answer, " ") {
		if err := cb(word); err != nil {
			return nil, err
		}
	}
	return &generation.Answer{Text: f.answer}, nil
}

type fakeAgent struct {
	response *models.AgentResponse
	err      error
	calls    int
}

func (f *fakeAgent) Run(context.Context, string, []models.ConversationMessage) (*models.AgentResponse, error) {
	f.calls++
	return f.response, f.err
}

func newTestService(t *testing.T, retriever *fakeRetriever, generator *fakeGenerator, agent *fakeAgent) *Service {
	t.Helper()

	prompts := config.DefaultPromptsConfig()
	composer, err := prompt.NewComposer(prompts, wordCounter{}, prompt.DefaultLimits())
	if err != nil {
		t.Fatalf("NewComposer() failed: %v", err)
	}

	logger := zerolog.Nop()
	svc := NewService(composer, retriever, generator, agent, Config{TopK: 5, NoResultsAnswer: prompts.NoResultsAnswer}, &logger)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

func chunkResult(text, chapter, section string, score float64) models.RetrievalResult {
	return models.RetrievalResult{
		Chunk: models.Chunk{
			Text:    text,
			Source:  models.SourceDocument{Title: chapter, Path: "docs/intro.md"},
			Section: section,
		},
		Score: score,
	}
}

func TestService_Answer_CorpusMode(t *testing.T) {
	retriever := &fakeRetriever{results: []models.RetrievalResult{
		chunkResult("Physical AI combines perception and actuation.", "Chapter 1: Intro", "What is Physical AI", 0.71),
		chunkResult(strings.Repeat("long passage ", 30), "Chapter 1: Intro", "", 0.52),
	}}
	generator := &fakeGenerator{answer: "According to Chapter 1: Intro, Physical AI..."}

	svc := newTestService(t, retriever, generator, &fakeAgent{})
	resp, err := svc.Answer(context.Background(), ChatRequest{Query: "What is Physical AI?"})
	if err != nil {
		t.Fatalf("Answer() failed: %v", err)
	}

	if resp.Mode != models.ModeRAG {
		t.Errorf("Expected rag mode, got %s", resp.Mode)
	}
	if retriever.lastK != 5 {
		t.Errorf("Expected top 5 retrieval, got %d", retriever.lastK)
	}
	if len(resp.SourceChunks) != 2 || resp.SourceChunks[0].Chapter != "Chapter 1: Intro" {
		t.Fatalf("Unexpected sources %+v", resp.SourceChunks)
	}
	if resp.SourceChunks[0].Section != "What is Physical AI" || resp.SourceChunks[0].RelevanceScore != 0.71 {
		t.Errorf("Unexpected first source %+v", resp.SourceChunks[0])
	}
	if !strings.HasSuffix(resp.SourceChunks[1].Snippet, "...") || len([]rune(resp.SourceChunks[1].Snippet)) != 203 {
		t.Errorf("Expected 200 character snippet, got %q", resp.SourceChunks[1].Snippet)
	}
	if !strings.Contains(generator.prompts[0], prompt.ChunkSeparator) {
		t.Error("Expected corpus prompt with chunk separator")
	}
	if resp.Timestamp.IsZero() {
		t.Error("Expected timestamp")
	}
}

// An absent topic yields the canned answer without calling the generator.
func TestService_Answer_NoResults(t *testing.T) {
	retriever := &fakeRetriever{}
	generator := &fakeGenerator{answer: "should not be used"}

	svc := newTestService(t, retriever, generator, &fakeAgent{})
	resp, err := svc.Answer(context.Background(), ChatRequest{Query: "How do I bake sourdough bread?"})
	if err != nil {
		t.Fatalf("Expected no error for empty retrieval, got %v", err)
	}

	if !strings.HasPrefix(resp.Response, "I couldn't find information about that in the book.") {
		t.Errorf("Expected canned answer, got %q", resp.Response)
	}
	if resp.SourceChunks == nil || len(resp.SourceChunks) != 0 {
		t.Errorf("Expected empty citation list, got %v", resp.SourceChunks)
	}
	if resp.Mode != models.ModeRAG {
		t.Errorf("Expected rag mode, got %s", resp.Mode)
	}
	if generator.calls != 0 {
		t.Errorf("Expected no generation call, got %d", generator.calls)
	}
}

// Oversized selected text is rejected before any outbound call.
func TestService_Answer_SelectedTextTooLong(t *testing.T) {
	retriever := &fakeRetriever{}
	generator := &fakeGenerator{}

	svc := newTestService(t, retriever, generator, &fakeAgent{})
	_, err := svc.Answer(context.Background(), ChatRequest{
		Query:        "Summarize this",
		SelectedText: strings.Repeat("x", 6000),
	})

	if !errors.Is(err, errs.ErrSelectedTextTooLong) {
		t.Fatalf("Expected ErrSelectedTextTooLong, got %v", err)
	}
	if retriever.calls != 0 || generator.calls != 0 {
		t.Errorf("Expected no outbound calls, got retrieval=%d generation=%d", retriever.calls, generator.calls)
	}
}

func TestService_Answer_SelectedTextMode(t *testing.T) {
	retriever := &fakeRetriever{}
	generator := &fakeGenerator{answer: "It describes the sim-to-real gap."}

	svc := newTestService(t, retriever, generator, &fakeAgent{})
	resp, err := svc.Answer(context.Background(), ChatRequest{
		Query:        "Explain this",
		SelectedText: "Policies trained in simulation degrade on hardware.",
	})
	if err != nil {
		t.Fatalf("Answer() failed: %v", err)
	}

	if resp.Mode != models.ModeSelectedText {
		t.Errorf("Expected selected_text mode, got %s", resp.Mode)
	}
	if retriever.calls != 0 {
		t.Error("Expected retrieval to be skipped")
	}
	if len(resp.SourceChunks) != 0 {
		t.Errorf("Expected no citations, got %d", len(resp.SourceChunks))
	}
	if !strings.Contains(generator.prompts[0], "Policies trained in simulation degrade on hardware.") {
		t.Error("Expected selected text in prompt")
	}
}

func TestService_Answer_UpstreamErrorPropagates(t *testing.T) {
	retriever := &fakeRetriever{err: errs.Upstream(errors.New("index down"))}

	svc := newTestService(t, retriever, &fakeGenerator{}, &fakeAgent{})
	_, err := svc.Answer(context.Background(), ChatRequest{Query: "What is ROS 2?"})
	if !errors.Is(err, errs.ErrUpstreamUnavailable) {
		t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestService_Stream(t *testing.T) {
	retriever := &fakeRetriever{results: []models.RetrievalResult{
		chunkResult("Gazebo simulates rigid bodies.", "Chapter 3: Simulation", "Gazebo", 0.6),
	}}
	generator := &fakeGenerator{answer: "Gazebo simulates physics."}

	svc := newTestService(t, retriever, generator, &fakeAgent{})

	var startMode models.Mode
	var startSources int
	var text strings.Builder
	resp, err := svc.Stream(context.Background(), ChatRequest{Query: "What does Gazebo do?"}, StreamEvents{
		OnStart: func(mode models.Mode, sources []SourceChunk) error {
			startMode = mode
			startSources = len(sources)
			return nil
		},
		OnChunk: func(chunk string) error {
			text.WriteString(chunk)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}

	if startMode != models.ModeRAG || startSources != 1 {
		t.Errorf("Unexpected start event mode=%s sources=%d", startMode, startSources)
	}
	if text.String() != "Gazebo simulates physics." || resp.Response != text.String() {
		t.Errorf("Expected streamed answer, got %q", text.String())
	}
}

func TestService_Stream_NoResults(t *testing.T) {
	generator := &fakeGenerator{}
	svc := newTestService(t, &fakeRetriever{}, generator, &fakeAgent{})

	var chunks []string
	_, err := svc.Stream(context.Background(), ChatRequest{Query: "Unrelated topic"}, StreamEvents{
		OnChunk: func(chunk string) error {
			chunks = append(chunks, chunk)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Stream() failed: %v", err)
	}
	if len(chunks) != 1 || generator.calls != 0 {
		t.Errorf("Expected single canned chunk and no generation, got %v", chunks)
	}
}

func TestService_AnswerWithAgent(t *testing.T) {
	agent := &fakeAgent{response: &models.AgentResponse{
		Answer: "ROS 2 uses DDS.",
		Sources: []models.SourceCitation{
			{Text: "DDS is the transport.", Chapter: "Module 1", Section: "Middleware", RelevanceScore: 0.7},
		},
		ReasoningSteps: []models.ReasoningStep{{Sequence: 1, Action: "retrieve_context", Query: "ROS 2 transport", NumChunks: 1}},
		Confidence:     models.ConfidenceMedium,
		Metadata:       models.ResponseMetadata{TotalTokens: 420, ToolCallsCount: 1, Iterations: 2},
	}}

	svc := newTestService(t, &fakeRetriever{}, &fakeGenerator{}, agent)
	resp, err := svc.AnswerWithAgent(context.Background(), ChatRequest{Query: "What transport does ROS 2 use?"})
	if err != nil {
		t.Fatalf("AnswerWithAgent() failed: %v", err)
	}

	if resp.Mode != models.ModeAgent || resp.Confidence != models.ConfidenceMedium {
		t.Errorf("Unexpected response %+v", resp)
	}
	if resp.ReasoningStepCount != 1 || resp.ToolCallCount != 1 || resp.TotalTokens != 420 {
		t.Errorf("Unexpected counters %+v", resp)
	}
	if len(resp.SourceChunks) != 1 || resp.SourceChunks[0].Snippet != "DDS is the transport." {
		t.Errorf("Unexpected sources %+v", resp.SourceChunks)
	}
}

func TestService_AnswerWithAgent_ValidatesFirst(t *testing.T) {
	agent := &fakeAgent{}
	svc := newTestService(t, &fakeRetriever{}, &fakeGenerator{}, agent)

	_, err := svc.AnswerWithAgent(context.Background(), ChatRequest{Query: strings.Repeat("token ", 1001)})
	if !errors.Is(err, errs.ErrQueryTooLong) {
		t.Errorf("Expected ErrQueryTooLong, got %v", err)
	}
	if agent.calls != 0 {
		t.Error("Expected agent not to run")
	}
}

func TestSnippet(t *testing.T) {
	if got := Snippet("short"); got != "short" {
		t.Errorf("Expected short text unchanged, got %q", got)
	}
	long := strings.Repeat("ä", 250)
	if got := Snippet(long); got != strings.Repeat("ä", 200)+"..." {
		t.Errorf("Expected rune-safe truncation, got %q", got)
	}
}
