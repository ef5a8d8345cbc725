package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/povarna/generative-ai-agents/book-agent/internal/setup"
	"github.com/povarna/generative-ai-agents/book-agent/internal/setup/logger"
	"github.com/povarna/generative-ai-agents/book-agent/internal/stream"
	"github.com/povarna/generative-ai-agents/book-agent/internal/stream/redis"
)

func main() {
	// Load env
	_ = godotenv.Load()

	cfg := setup.LoadConfig()
	log := logger.New(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	storage, err := setup.WireStorage(ctx, cfg, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to load dependencies")
	}
	defer storage.Close()

	streamCfg := &stream.StreamConfig{
		Provider: os.Getenv("STREAM_PROVIDER"),
		RedisConfig: redis.NewRedisStreamConfig(
			cfg.RedisAddr,
			cfg.RedisPassword,
			cfg.IngestStream,
			cfg.IngestGroup,
			cfg.ConsumerName,
		),
	}

	consumer, err := stream.NewStreamConsumer(ctx, streamCfg, storage.Pipeline, &log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stream consumer")
	}

	if err := consumer.Setup(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup consumer")
	}

	go func() {
		if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("Consumer stopped with error")
		}
	}()

	log.Info().
		Str("stream", cfg.IngestStream).
		Str("group", cfg.IngestGroup).
		Str("consumer", cfg.ConsumerName).
		Msg("Ingest worker started")

	<-ctx.Done()
	log.Info().Msg("Shutting down...")

	if err := consumer.Stop(); err != nil {
		log.Error().Err(err).Msg("Failed to stop consumer")
	}
	log.Info().Msg("Ingest worker stopped")
}
