package gpt

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
)

// Client talks to any OpenAI compatible chat completions API (OpenAI, OpenRouter).
type Client struct {
	Client  openai.Client
	modelID string
}

func NewClient(apiKey string, model string, baseURL string) (*Client, error) {
	if model == "" {
		return nil, fmt.Errorf("OpenAI model ID is required")
	}

	openaiClient, err := NewOpenAIClient(apiKey, baseURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		Client:  openaiClient,
		modelID: model,
	}, nil
}

// NewOpenAIClient builds the SDK client shared by chat and embeddings. Retries
// are disabled: upstream failures surface to the caller unchanged.
func NewOpenAIClient(apiKey string, baseURL string) (openai.Client, error) {
	if apiKey == "" {
		return openai.Client{}, fmt.Errorf("OpenAI API key is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return openai.NewClient(opts...), nil
}

func (c *Client) ModelID() string {
	return c.modelID
}

// WrapError classifies an OpenAI API error into the upstream error taxonomy.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return errs.RateLimited(err)
	}

	return errs.Upstream(err)
}
