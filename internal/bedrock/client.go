package bedrock

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
)

// Invoker is the subset of the Bedrock runtime used by the generation and
// embedding clients.
type Invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type Client struct {
	Runtime *bedrockruntime.Client
	Region  string
}

func NewClient(ctx context.Context, region string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	return &Client{
		Runtime: bedrockruntime.NewFromConfig(cfg),
		Region:  region,
	}, nil
}

// WrapError classifies a Bedrock runtime error into the upstream error taxonomy.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var throttling *types.ThrottlingException
	var quota *types.ServiceQuotaExceededException
	if errors.As(err, &throttling) || errors.As(err, &quota) {
		return errs.RateLimited(err)
	}

	return errs.Upstream(err)
}
