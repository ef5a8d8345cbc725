package setup

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/book-agent/internal/agent"
	"github.com/povarna/generative-ai-agents/book-agent/internal/chunking"
	"github.com/povarna/generative-ai-agents/book-agent/internal/database"
	"github.com/povarna/generative-ai-agents/book-agent/internal/embedding"
	"github.com/povarna/generative-ai-agents/book-agent/internal/prompt"
	"github.com/povarna/generative-ai-agents/book-agent/internal/retrieval"
	"github.com/povarna/generative-ai-agents/book-agent/internal/stream"
	"github.com/povarna/generative-ai-agents/book-agent/internal/vectorstore"
)

const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"

	BackendPgVector = "pgvector"
	BackendQdrant   = "qdrant"
)

type Config struct {
	AWSRegion        string
	ClaudeModelID    string
	EmbeddingModelID string

	LLMProvider            string
	EmbeddingProvider      string
	OpenAIKey              string
	OpenAIBaseURL          string
	OpenAIModelID          string
	OpenAIEmbeddingModelID string
	OpenAIEmbeddingDim     int

	VectorBackend    string
	DB               database.Config
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	RedisAddr     string
	RedisPassword string
	QueryCacheTTL time.Duration
	IngestStream  string
	IngestGroup   string
	ConsumerName  string

	ChunkSize     int
	ChunkOverlap  int
	TopK          int
	MinSimilarity float64

	MaxQueryTokens       int
	MaxSelectedTextChars int
	MaxHistoryMessages   int

	AgentMaxIterations int
	AgentMaxToolCalls  int
	UpstreamTimeout    time.Duration

	APIPort     string
	CORSOrigins []string
	LogLevel    string
}

func LoadConfig() *Config {
	hostname, _ := os.Hostname()

	return &Config{
		AWSRegion:        getEnv("AWS_REGION", "us-east-1"),
		ClaudeModelID:    getEnv("CLAUDE_MODEL_ID", ""),
		EmbeddingModelID: getEnv("EMBEDDING_MODEL_ID", embedding.DefaultCohereModelID),

		LLMProvider:            getEnv("LLM_PROVIDER", ProviderBedrock),
		EmbeddingProvider:      getEnv("EMBEDDING_PROVIDER", ProviderBedrock),
		OpenAIKey:              getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:          getEnv("OPENAI_BASE_URL", ""),
		OpenAIModelID:          getEnv("OPENAI_MODEL_ID", ""),
		OpenAIEmbeddingModelID: getEnv("OPENAI_EMBEDDING_MODEL_ID", "text-embedding-3-small"),
		OpenAIEmbeddingDim:     getEnvInt("OPENAI_EMBEDDING_DIMENSION", 1536),

		VectorBackend: getEnv("VECTOR_BACKEND", BackendPgVector),
		DB: database.Config{
			Host:     getEnv("BOOK_AGENT_DB_HOST", "localhost"),
			Port:     getEnv("BOOK_AGENT_DB_PORT", "5432"),
			User:     getEnv("BOOK_AGENT_DB_USER", "postgres"),
			Password: getEnv("BOOK_AGENT_DB_PASSWORD", ""),
			Database: getEnv("BOOK_AGENT_DB_DATABASE", "book_agent"),
			SSLMode:  getEnv("BOOK_AGENT_DB_SSLMODE", "disable"),
		},
		QdrantURL:        getEnv("QDRANT_URL", ""),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", vectorstore.DefaultCollection),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		QueryCacheTTL: getEnvDuration("QUERY_CACHE_TTL", time.Hour),
		IngestStream:  getEnv("INGEST_STREAM", stream.DefaultIngestStream),
		IngestGroup:   getEnv("INGEST_GROUP", stream.DefaultIngestGroup),
		ConsumerName:  getEnv("HOSTNAME", hostname),

		ChunkSize:     getEnvInt("CHUNK_SIZE", chunking.DefaultChunkSize),
		ChunkOverlap:  getEnvInt("CHUNK_OVERLAP", chunking.DefaultChunkOverlap),
		TopK:          getEnvInt("TOP_K_CHUNKS", retrieval.DefaultK),
		MinSimilarity: getEnvFloat("MIN_SIMILARITY", 0.3),

		MaxQueryTokens:       getEnvInt("MAX_QUERY_TOKENS", prompt.DefaultMaxQueryTokens),
		MaxSelectedTextChars: getEnvInt("MAX_SELECTED_TEXT_CHARS", prompt.DefaultMaxSelectedTextChars),
		MaxHistoryMessages:   getEnvInt("MAX_CONVERSATION_HISTORY", prompt.DefaultMaxHistoryMessages),

		AgentMaxIterations: getEnvInt("AGENT_MAX_ITERATIONS", agent.DefaultMaxIterations),
		AgentMaxToolCalls:  getEnvInt("AGENT_MAX_TOOL_CALLS", agent.DefaultMaxToolCalls),
		UpstreamTimeout:    getEnvDuration("UPSTREAM_TIMEOUT", 30*time.Second),

		APIPort:     getEnv("BOOK_AGENT_API_PORT", "8000"),
		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"*"}),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}

	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		value = defaultValue
	}

	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		value = defaultValue
	}

	return value
}

// getEnvDuration accepts Go durations ("45s") or plain seconds ("45").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
