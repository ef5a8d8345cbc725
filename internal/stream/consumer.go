package stream

import (
	"context"

	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
)

type StreamConsumer interface {
	Setup(ctx context.Context) error
	Start(ctx context.Context) error
	Stop() error
}

// JobPublisher enqueues ingest jobs for the worker.
type JobPublisher interface {
	Publish(ctx context.Context, job models.IngestJob) (string, error)
}
