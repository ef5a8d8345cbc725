package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"unicode"
	"unicode/utf8"

	"github.com/povarna/generative-ai-agents/book-agent/internal/config"
	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
)

const (
	ChunkSeparator = "\n\n---\n\n"
	NoHistory      = "(No previous conversation)"
)

const (
	DefaultMaxQueryTokens       = 1000
	DefaultMaxSelectedTextChars = 5000
	DefaultMaxHistoryMessages   = 10
)

type TokenCounter interface {
	Count(text string) int
}

type Limits struct {
	MaxQueryTokens       int
	MaxSelectedTextChars int
	MaxHistoryMessages   int
}

func DefaultLimits() Limits {
	return Limits{
		MaxQueryTokens:       DefaultMaxQueryTokens,
		MaxSelectedTextChars: DefaultMaxSelectedTextChars,
		MaxHistoryMessages:   DefaultMaxHistoryMessages,
	}
}

// Request is the user input shared by every answer path.
type Request struct {
	Query        string
	SelectedText string
	History      []models.ConversationMessage
}

type Composer struct {
	corpus    *template.Template
	selected  *template.Template
	bookTitle string
	counter   TokenCounter
	limits    Limits
}

type templateData struct {
	BookTitle    string
	Context      string
	SelectedText string
	History      string
	Query        string
}

func NewComposer(prompts *config.PromptsConfig, counter TokenCounter, limits Limits) (*Composer, error) {
	corpus, err := template.New("corpus").Parse(prompts.CorpusTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse corpus template: %w", err)
	}

	selected, err := template.New("selected_text").Parse(prompts.SelectedTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse selected text template: %w", err)
	}

	return &Composer{
		corpus:    corpus,
		selected:  selected,
		bookTitle: prompts.BookTitle,
		counter:   counter,
		limits:    limits,
	}, nil
}

// Validate checks the request against the size limits and returns the mode it
// selects. A non-blank selected text switches to selected-text mode.
func (c *Composer) Validate(req Request) (models.Mode, error) {
	if strings.TrimSpace(req.Query) == "" {
		return "", errs.ErrEmptyQuery
	}
	if tokens := c.counter.Count(req.Query); tokens > c.limits.MaxQueryTokens {
		return "", fmt.Errorf("%w: %d tokens, limit %d", errs.ErrQueryTooLong, tokens, c.limits.MaxQueryTokens)
	}
	if len(req.History) > c.limits.MaxHistoryMessages {
		return "", fmt.Errorf("%w: %d messages, limit %d", errs.ErrHistoryTooLong, len(req.History), c.limits.MaxHistoryMessages)
	}

	if req.SelectedText == "" {
		return models.ModeRAG, nil
	}
	if strings.TrimSpace(req.SelectedText) == "" {
		return "", errs.ErrEmptySelectedText
	}
	if chars := utf8.RuneCountInString(req.SelectedText); chars > c.limits.MaxSelectedTextChars {
		return "", fmt.Errorf("%w: %d characters, limit %d", errs.ErrSelectedTextTooLong, chars, c.limits.MaxSelectedTextChars)
	}

	return models.ModeSelectedText, nil
}

func (c *Composer) CorpusPrompt(query string, chunks []string, history []models.ConversationMessage) (string, error) {
	return c.render(c.corpus, templateData{
		BookTitle: c.bookTitle,
		Context:   strings.Join(chunks, ChunkSeparator),
		History:   FormatHistory(history),
		Query:     query,
	})
}

func (c *Composer) SelectedTextPrompt(query, selectedText string, history []models.ConversationMessage) (string, error) {
	return c.render(c.selected, templateData{
		BookTitle:    c.bookTitle,
		SelectedText: selectedText,
		History:      FormatHistory(history),
		Query:        query,
	})
}

func (c *Composer) render(tmpl *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// FormatHistory renders one "Role: content" line per message.
func FormatHistory(history []models.ConversationMessage) string {
	if len(history) == 0 {
		return NoHistory
	}

	lines := make([]string, 0, len(history))
	for _, msg := range history {
		lines = append(lines, fmt.Sprintf("%s: %s", capitalize(msg.Role), msg.Content))
	}
	return strings.Join(lines, "\n")
}

func capitalize(role string) string {
	if role == "" {
		return "Unknown"
	}
	r, size := utf8.DecodeRuneInString(role)
	return string(unicode.ToUpper(r)) + strings.ToLower(role[size:])
}
