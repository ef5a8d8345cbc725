package stream

import "github.com/povarna/generative-ai-agents/book-agent/internal/stream/redis"

const (
	DefaultIngestStream = "ingest-jobs"
	DefaultIngestGroup  = "ingest-workers"
)

type StreamConfig struct {
	Provider    string // only redis for now
	RedisConfig *redis.RedisStreamConfig
}
