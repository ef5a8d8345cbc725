package gpt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
	"github.com/povarna/generative-ai-agents/book-agent/internal/llm"
)

func newTestServer(t *testing.T, status int, response string, captured *map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, captured)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClient_InvokeModel_ToolCalls(t *testing.T) {
	var captured map[string]any
	server := newTestServer(t, http.StatusOK, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-test",
		"choices": [{
			"index": 0,
			"finish_reason": "tool_calls",
			"message": {
				"role": "assistant",
				"content": "",
				"tool_calls": [{
					"id": "call_1",
					"type": "function",
					"function": {"name": "retrieve_context", "arguments": "{\"search_query\":\"digital twin\"}"}
				}]
			}
		}],
		"usage": {"prompt_tokens": 50, "completion_tokens": 10, "total_tokens": 60}
	}`, &captured)

	client, err := NewClient("test-key", "gpt-test", server.URL)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}

	resp, err := client.InvokeModel(context.Background(), llm.LLMRequest{
		System:    "rules",
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: "What is a digital twin?"}},
		Tools:     []llm.ToolSpec{{Name: "retrieve_context", Description: "search", Parameters: map[string]any{"type": "object"}}},
		MaxTokens: 800,
	})
	if err != nil {
		t.Fatalf("InvokeModel() failed: %v", err)
	}

	if resp.StopReason != "tool_calls" {
		t.Errorf("Expected stop reason tool_calls, got %s", resp.StopReason)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].ID != "call_1" {
		t.Fatalf("Expected one tool call, got %+v", resp.ToolCalls)
	}
	if string(resp.ToolCalls[0].Arguments) != `{"search_query":"digital twin"}` {
		t.Errorf("Unexpected arguments %s", resp.ToolCalls[0].Arguments)
	}
	if resp.Usage.Total() != 60 {
		t.Errorf("Expected 60 tokens, got %d", resp.Usage.Total())
	}

	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Errorf("Expected system and user messages, got %d", len(messages))
	}
	if tools, _ := captured["tools"].([]any); len(tools) != 1 {
		t.Errorf("Expected 1 tool in request, got %d", len(tools))
	}
}

func TestClient_InvokeModel_RateLimited(t *testing.T) {
	server := newTestServer(t, http.StatusTooManyRequests, `{"error": {"message": "slow down", "type": "rate_limit"}}`, nil)

	client, err := NewClient("test-key", "gpt-test", server.URL)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}

	_, err = client.InvokeModel(context.Background(), llm.Prompt("hello", 10, 0))
	if !errors.Is(err, errs.ErrRateLimited) {
		t.Errorf("Expected ErrRateLimited, got %v", err)
	}
}

func TestClient_InvokeModel_ServerError(t *testing.T) {
	server := newTestServer(t, http.StatusInternalServerError, `{"error": {"message": "boom"}}`, nil)

	client, err := NewClient("test-key", "gpt-test", server.URL)
	if err != nil {
		t.Fatalf("NewClient() failed: %v", err)
	}

	_, err = client.InvokeModel(context.Background(), llm.Prompt("hello", 10, 0))
	if !errors.Is(err, errs.ErrUpstreamUnavailable) {
		t.Errorf("Expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestNewClient_RequiresKeyAndModel(t *testing.T) {
	if _, err := NewClient("", "model", ""); err == nil {
		t.Error("Expected error for missing API key")
	}
	if _, err := NewClient("key", "", ""); err == nil {
		t.Error("Expected error for missing model")
	}
}
