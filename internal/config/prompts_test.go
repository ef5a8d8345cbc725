package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadPromptsConfig_Override(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "prompts.yaml")

	configContent := `book_title: "Robotics Primer"
corpus_template: |
  Context: {{.Context}}
  Question: {{.Query}}
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	t.Setenv("PROMPTS_CONFIG_PATH", configPath)

	cfg, err := LoadPromptsConfig()
	if err != nil {
		t.Fatalf("LoadPromptsConfig() failed: %v", err)
	}

	if cfg.BookTitle != "Robotics Primer" {
		t.Errorf("Expected book title override, got %s", cfg.BookTitle)
	}
	if !strings.HasPrefix(cfg.CorpusTemplate, "Context: {{.Context}}") {
		t.Errorf("Expected corpus template override, got %q", cfg.CorpusTemplate)
	}
	if cfg.SelectedTemplate != defaultSelectedTemplate {
		t.Error("Expected selected text template to fall back to the default")
	}
	if cfg.NoResultsAnswer == "" {
		t.Error("Expected default no results answer")
	}
}

func TestLoadPromptsConfig_MissingExplicitFile(t *testing.T) {
	t.Setenv("PROMPTS_CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	if _, err := LoadPromptsConfig(); err == nil {
		t.Error("Expected error for missing configured file")
	}
}

func TestLoadPromptsConfig_InvalidTemplate(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "prompts.yaml")
	if err := os.WriteFile(configPath, []byte("corpus_template: \"{{.Context\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	t.Setenv("PROMPTS_CONFIG_PATH", configPath)

	if _, err := LoadPromptsConfig(); err == nil {
		t.Error("Expected template parse error")
	}
}

func TestDefaultPromptsConfig(t *testing.T) {
	cfg := DefaultPromptsConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default templates to be valid, got %v", err)
	}
	if !strings.Contains(cfg.AgentSystemPrompt, "retrieve_context") {
		t.Error("Expected agent system prompt to mention the retrieval tool")
	}
}
