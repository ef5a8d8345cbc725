package bedrock

import (
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
)

func TestWrapError(t *testing.T) {
	throttled := fmt.Errorf("operation error: %w", &types.ThrottlingException{Message: aws.String("Rate exceeded")})
	if !errors.Is(WrapError(throttled), errs.ErrRateLimited) {
		t.Error("Expected throttling to map to ErrRateLimited")
	}

	unavailable := &types.ServiceUnavailableException{Message: aws.String("down")}
	if !errors.Is(WrapError(unavailable), errs.ErrUpstreamUnavailable) {
		t.Error("Expected service unavailable to map to ErrUpstreamUnavailable")
	}

	if WrapError(nil) != nil {
		t.Error("Expected nil for nil error")
	}
}
