package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/redis/go-redis/v9"
)

type Producer struct {
	client streamClient
	stream string
}

func NewProducer(client streamClient, stream string) *Producer {
	return &Producer{
		client: client,
		stream: stream,
	}
}

// Publish appends job to the stream and returns the message ID.
func (p *Producer) Publish(ctx context.Context, job models.IngestJob) (string, error) {
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to encode ingest job: %w", err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{payloadField: string(data)},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("failed to publish ingest job: %w", err)
	}

	return id, nil
}
