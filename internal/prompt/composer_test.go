package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/povarna/generative-ai-agents/book-agent/internal/config"
	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
)

// wordCounter counts whitespace separated words as tokens.
type wordCounter struct{}

func (wordCounter) Count(text string) int {
	return len(strings.Fields(text))
}

func newTestComposer(t *testing.T) *Composer {
	t.Helper()
	c, err := NewComposer(config.DefaultPromptsConfig(), wordCounter{}, DefaultLimits())
	if err != nil {
		t.Fatalf("NewComposer() failed: %v", err)
	}
	return c
}

func TestComposer_Validate(t *testing.T) {
	c := newTestComposer(t)

	history := make([]models.ConversationMessage, 11)
	for i := range history {
		history[i] = models.ConversationMessage{Role: "user", Content: "hi"}
	}

	tests := []struct {
		name     string
		req      Request
		wantMode models.Mode
		wantErr  error
	}{
		{name: "corpus", req: Request{Query: "What is ROS 2?"}, wantMode: models.ModeRAG},
		{name: "selected text", req: Request{Query: "Explain", SelectedText: "Gazebo simulates physics."}, wantMode: models.ModeSelectedText},
		{name: "empty query", req: Request{Query: "   "}, wantErr: errs.ErrEmptyQuery},
		{name: "query too long", req: Request{Query: strings.Repeat("word ", 1001)}, wantErr: errs.ErrQueryTooLong},
		{name: "query at limit", req: Request{Query: strings.Repeat("word ", 1000)}, wantMode: models.ModeRAG},
		{name: "blank selected text", req: Request{Query: "Explain", SelectedText: " \n\t "}, wantErr: errs.ErrEmptySelectedText},
		{name: "selected text too long", req: Request{Query: "Explain", SelectedText: strings.Repeat("a", 6000)}, wantErr: errs.ErrSelectedTextTooLong},
		{name: "selected text at limit", req: Request{Query: "Explain", SelectedText: strings.Repeat("é", 5000)}, wantMode: models.ModeSelectedText},
		{name: "history too long", req: Request{Query: "Next?", History: history}, wantErr: errs.ErrHistoryTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mode, err := c.Validate(tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected %v, got %v", tt.wantErr, err)
				}
				if !errs.IsValidation(err) {
					t.Errorf("Expected a validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if mode != tt.wantMode {
				t.Errorf("Expected mode %s, got %s", tt.wantMode, mode)
			}
		})
	}
}

func TestComposer_CorpusPrompt(t *testing.T) {
	c := newTestComposer(t)

	prompt, err := c.CorpusPrompt("What is URDF?", []string{"first chunk", "second chunk"}, nil)
	if err != nil {
		t.Fatalf("CorpusPrompt() failed: %v", err)
	}

	if !strings.Contains(prompt, "first chunk\n\n---\n\nsecond chunk") {
		t.Error("Expected chunks joined by separator")
	}
	if !strings.Contains(prompt, NoHistory) {
		t.Error("Expected empty history placeholder")
	}
	if !strings.Contains(prompt, "User question: What is URDF?") {
		t.Error("Expected raw query in prompt")
	}
	if !strings.Contains(prompt, "ONLY") {
		t.Error("Expected grounding instructions")
	}
}

func TestComposer_SelectedTextPrompt(t *testing.T) {
	c := newTestComposer(t)

	history := []models.ConversationMessage{
		{Role: "user", Content: "What is Isaac Sim?"},
		{Role: "assistant", Content: "A simulator."},
	}
	prompt, err := c.SelectedTextPrompt("Summarize", "Isaac Sim runs on Omniverse.", history)
	if err != nil {
		t.Fatalf("SelectedTextPrompt() failed: %v", err)
	}

	if !strings.Contains(prompt, "Isaac Sim runs on Omniverse.") {
		t.Error("Expected selected text block")
	}
	if !strings.Contains(prompt, "User: What is Isaac Sim?\nAssistant: A simulator.") {
		t.Errorf("Expected formatted history, got %s", prompt)
	}
	if strings.Contains(prompt, ChunkSeparator) {
		t.Error("Selected text prompt must not contain chunk separators")
	}
}

func TestFormatHistory(t *testing.T) {
	if got := FormatHistory(nil); got != NoHistory {
		t.Errorf("Expected %q, got %q", NoHistory, got)
	}

	got := FormatHistory([]models.ConversationMessage{{Role: "USER", Content: "hello"}, {Role: "", Content: "?"}})
	want := "User: hello\nUnknown: ?"
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}
