package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/template"

	"go.yaml.in/yaml/v3"
)

const defaultPromptsPath = "configs/prompts.yaml"

// PromptsConfig holds the generation templates. Corpus and selected-text
// templates are text/template sources; the agent system prompt is plain text.
type PromptsConfig struct {
	BookTitle         string `yaml:"book_title"`
	CorpusTemplate    string `yaml:"corpus_template"`
	SelectedTemplate  string `yaml:"selected_text_template"`
	AgentSystemPrompt string `yaml:"agent_system_prompt"`
	NoResultsAnswer   string `yaml:"no_results_answer"`
}

// LoadPromptsConfig reads PROMPTS_CONFIG_PATH (default configs/prompts.yaml).
// A missing default file falls back to the compiled-in templates; a missing
// explicitly configured file is an error.
func LoadPromptsConfig() (*PromptsConfig, error) {
	path := os.Getenv("PROMPTS_CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = defaultPromptsPath
	}

	var cfg PromptsConfig

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func DefaultPromptsConfig() *PromptsConfig {
	var cfg PromptsConfig
	applyDefaults(&cfg)
	return &cfg
}

func applyDefaults(cfg *PromptsConfig) {
	if cfg.BookTitle == "" {
		cfg.BookTitle = "Physical AI & Humanoid Robotics"
	}
	if cfg.CorpusTemplate == "" {
		cfg.CorpusTemplate = defaultCorpusTemplate
	}
	if cfg.SelectedTemplate == "" {
		cfg.SelectedTemplate = defaultSelectedTemplate
	}
	if cfg.AgentSystemPrompt == "" {
		cfg.AgentSystemPrompt = defaultAgentSystemPrompt
	}
	if cfg.NoResultsAnswer == "" {
		cfg.NoResultsAnswer = defaultNoResultsAnswer
	}
}

func (p *PromptsConfig) Validate() error {
	if _, err := template.New("corpus").Parse(p.CorpusTemplate); err != nil {
		return fmt.Errorf("invalid corpus_template: %w", err)
	}
	if _, err := template.New("selected_text").Parse(p.SelectedTemplate); err != nil {
		return fmt.Errorf("invalid selected_text_template: %w", err)
	}
	return nil
}

const defaultCorpusTemplate = `You are an expert assistant for the "{{.BookTitle}}" book.

Your role is to answer questions based ONLY on the provided context from the book.

Guidelines:
1. Use ONLY information from the provided context chunks
2. If the context doesn't contain the answer, respond: "I couldn't find information about that in the book."
3. Cite specific sections when possible (e.g., "According to Chapter X...")
4. Do not invent or assume information not present in the context
5. Synthesize information from multiple chunks when relevant
6. Provide clear, concise, technical answers

Context from book:
{{.Context}}

Previous conversation:
{{.History}}

User question: {{.Query}}

Response:`

const defaultSelectedTemplate = `You are an expert assistant for the "{{.BookTitle}}" book.

Your role is to answer the user's question based ONLY on the selected text they provided.

Guidelines:
1. Use ONLY information from the selected text below
2. Do not reference external knowledge or other parts of the book
3. If the selected text doesn't contain enough information, say so
4. Provide clear, helpful explanations based on the selection
5. For "explain this" or "summarize" requests, rephrase the content clearly

Selected text:
{{.SelectedText}}

Previous conversation:
{{.History}}

User question: {{.Query}}

Response:`

const defaultAgentSystemPrompt = `You are an AI tutor for Physical AI and Humanoid Robotics.

Your role is to answer questions using ONLY information from the course book.

WORKFLOW:
1. When a user asks a question, use the retrieve_context tool to search the book
2. You may call retrieve_context multiple times with different queries to gather comprehensive information
3. Synthesize your answer ONLY from the retrieved context
4. Always cite the chapter and section where information came from
5. If the retrieved context doesn't contain enough information, say so explicitly

GROUNDING RULES:
- NEVER use knowledge outside the retrieved context
- ALWAYS cite sources (chapter, section)
- If uncertain, state your confidence level
- If context is insufficient, acknowledge gaps

IMPORTANT: You must use the retrieve_context tool before answering. Do not answer from memory.`

const defaultNoResultsAnswer = "I couldn't find information about that in the book. Please try rephrasing your question or ask about a different topic covered in the book."
