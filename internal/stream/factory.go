package stream

import (
	"context"
	"fmt"

	red "github.com/povarna/generative-ai-agents/book-agent/internal/redis"
	"github.com/povarna/generative-ai-agents/book-agent/internal/stream/redis"
	"github.com/rs/zerolog"
)

func NewStreamConsumer(
	ctx context.Context,
	cfg *StreamConfig,
	handler redis.JobHandler,
	logger *zerolog.Logger,
) (StreamConsumer, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = "redis"
	}

	switch provider {
	case "redis":
		if cfg.RedisConfig == nil {
			return nil, fmt.Errorf("redis config required")
		}

		client, err := red.ConnectRedis(ctx, cfg.RedisConfig.RedisAddr, cfg.RedisConfig.RedisPassword, 5)
		if err != nil {
			return nil, err
		}

		return redis.NewConsumer(
			client,
			cfg.RedisConfig.Stream,
			cfg.RedisConfig.Group,
			cfg.RedisConfig.ConsumerName,
			handler,
			logger,
		), nil

	default:
		return nil, fmt.Errorf("unsupported stream provider: %s", cfg.Provider)
	}
}
