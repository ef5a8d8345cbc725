package llm

import (
	"context"
)

//go:generate mockgen -source=client.go -destination=mocks/client_mock.go -package=mocks

// LLMClient is an interface for invoking LLM models
// This allows mocking in tests without making real API calls
type LLMClient interface {
	InvokeModel(ctx context.Context, request LLMRequest) (*LLMResponse, error)
	InvokeModelStream(ctx context.Context, request LLMRequest, callback StreamCallback) (*LLMResponse, error)
	ModelID() string
}
