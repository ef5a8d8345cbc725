package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// JobHandler processes one ingest job.
type JobHandler interface {
	HandleJob(ctx context.Context, job models.IngestJob) error
}

type Consumer struct {
	client       streamClient
	stream       string
	groupID      string
	consumerName string
	handler      JobHandler
	block        time.Duration
	logger       *zerolog.Logger
}

func NewConsumer(client streamClient, stream string, groupID string, consumerName string, handler JobHandler, logger *zerolog.Logger) *Consumer {
	return &Consumer{
		client:       client,
		stream:       stream,
		groupID:      groupID,
		consumerName: consumerName,
		handler:      handler,
		block:        2 * time.Second,
		logger:       logger,
	}
}

func (c *Consumer) Setup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.groupID, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info().
		Str("stream", c.stream).
		Str("group", c.groupID).
		Str("consumer", c.consumerName).
		Msg("Consumer started")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupID,
			Consumer: c.consumerName,
			Streams:  []string{c.stream, ">"},
			Count:    1,
			Block:    c.block,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}

			if ctx.Err() != nil {
				return ctx.Err()
			}

			c.logger.Error().Err(err).Msg("Failed to read from stream")
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				c.process(ctx, msg)
			}
		}
	}
}

func (c *Consumer) Stop() error {
	return nil
}

// process runs the job and acknowledges the message whatever the outcome.
func (c *Consumer) process(ctx context.Context, msg redis.XMessage) {
	c.logger.Info().Str("id", msg.ID).Msg("Message received")

	payload, ok := msg.Values[payloadField].(string)
	if !ok {
		c.logger.Error().Str("id", msg.ID).Msg("Missing payload field")
		c.ack(ctx, msg.ID)
		return
	}

	var job models.IngestJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Msg("Failed to decode message")
		c.ack(ctx, msg.ID)
		return
	}

	if err := c.handler.HandleJob(ctx, job); err != nil {
		c.logger.Error().Err(err).Str("id", msg.ID).Str("job_id", job.ID).Msg("Ingest job failed")
	} else {
		c.logger.Info().Str("id", msg.ID).Str("job_id", job.ID).Msg("Ingest job complete")
	}

	c.ack(ctx, msg.ID)
}

func (c *Consumer) ack(ctx context.Context, msgID string) {
	if err := c.client.XAck(ctx, c.stream, c.groupID, msgID).Err(); err != nil {
		c.logger.Error().Err(err).Str("id", msgID).Msg("Failed to ACK message")
	}
}
