package setup

import (
	"context"
	"fmt"

	"github.com/povarna/generative-ai-agents/book-agent/internal/agent"
	"github.com/povarna/generative-ai-agents/book-agent/internal/api"
	"github.com/povarna/generative-ai-agents/book-agent/internal/bedrock"
	"github.com/povarna/generative-ai-agents/book-agent/internal/chat"
	"github.com/povarna/generative-ai-agents/book-agent/internal/chunking"
	"github.com/povarna/generative-ai-agents/book-agent/internal/config"
	"github.com/povarna/generative-ai-agents/book-agent/internal/database"
	"github.com/povarna/generative-ai-agents/book-agent/internal/embedding"
	"github.com/povarna/generative-ai-agents/book-agent/internal/generation"
	"github.com/povarna/generative-ai-agents/book-agent/internal/ingestion"
	"github.com/povarna/generative-ai-agents/book-agent/internal/llm"
	llmbedrock "github.com/povarna/generative-ai-agents/book-agent/internal/llm/bedrock"
	"github.com/povarna/generative-ai-agents/book-agent/internal/llm/gpt"
	"github.com/povarna/generative-ai-agents/book-agent/internal/prompt"
	"github.com/povarna/generative-ai-agents/book-agent/internal/redis"
	"github.com/povarna/generative-ai-agents/book-agent/internal/retrieval"
	"github.com/povarna/generative-ai-agents/book-agent/internal/stream"
	streamredis "github.com/povarna/generative-ai-agents/book-agent/internal/stream/redis"
	"github.com/povarna/generative-ai-agents/book-agent/internal/vectorstore"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const queryCachePrefix = "query_embedding:"

// Storage holds what ingestion needs: the metadata store, the vector index
// and the embedder.
type Storage struct {
	DB        *database.DB
	Redis     *goredis.Client
	Embedder  embedding.Embedder
	Index     vectorstore.Index
	Tokenizer *chunking.Tokenizer
	Pipeline  *ingestion.Pipeline
	Checks    []api.HealthCheck

	bedrock *bedrock.Client
}

// Dependencies adds the answer pipelines on top of Storage.
type Dependencies struct {
	*Storage
	LLM          llm.LLMClient
	Retriever    *retrieval.Retriever
	RetrieveTool *agent.RetrieveTool
	Agent        *agent.Agent
	Chat         *chat.Service
	Publisher    stream.JobPublisher
	Logger       *zerolog.Logger
}

func (s *Storage) Close() {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}

// WireStorage connects Postgres, Redis (optional) and the vector index and
// builds the ingestion pipeline.
func WireStorage(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Storage, error) {
	storage := &Storage{}

	if cfg.LLMProvider == ProviderBedrock || cfg.EmbeddingProvider == ProviderBedrock {
		client, err := bedrock.NewClient(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to create Bedrock client: %w", err)
		}
		storage.bedrock = client
	}

	db, err := database.NewWithBackoff(ctx, cfg.DB, 3)
	if err != nil {
		return nil, err
	}
	storage.DB = db
	storage.Checks = append(storage.Checks, api.HealthCheck{Name: "database", Check: db.Ping})

	if err := db.EnsureMetadataSchema(ctx); err != nil {
		storage.Close()
		return nil, err
	}

	if cfg.RedisAddr != "" {
		client, err := redis.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, 3)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, query cache and ingest queue disabled")
		} else {
			storage.Redis = client
			storage.Checks = append(storage.Checks, api.HealthCheck{
				Name:  "redis",
				Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
			})
		}
	}

	embedder, err := createEmbedder(storage, cfg, logger)
	if err != nil {
		storage.Close()
		return nil, err
	}
	storage.Embedder = embedder

	index, err := createIndex(storage, cfg)
	if err != nil {
		storage.Close()
		return nil, err
	}
	storage.Index = index

	if err := index.EnsureCollection(ctx, embedder.Dimension()); err != nil {
		logger.Warn().Err(err).Str("backend", cfg.VectorBackend).Msg("Unable to prepare vector collection")
	}

	tokenizer, err := chunking.NewTokenizer()
	if err != nil {
		storage.Close()
		return nil, err
	}
	storage.Tokenizer = tokenizer

	chunker, err := chunking.NewChunker(tokenizer, cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		storage.Close()
		return nil, err
	}

	storage.Pipeline = ingestion.NewPipeline(ingestion.NewParser(), chunker, embedder, index, db, logger)
	return storage, nil
}

func Wire(ctx context.Context, cfg *Config, logger *zerolog.Logger) (*Dependencies, error) {
	storage, err := WireStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	llmClient, err := createLLMClient(storage, cfg)
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	storage.Checks = append(storage.Checks, api.HealthCheck{Name: "llm"})

	prompts, err := config.LoadPromptsConfig()
	if err != nil {
		storage.Close()
		return nil, fmt.Errorf("failed to load prompts config: %w", err)
	}

	composer, err := prompt.NewComposer(prompts, storage.Tokenizer, prompt.Limits{
		MaxQueryTokens:       cfg.MaxQueryTokens,
		MaxSelectedTextChars: cfg.MaxSelectedTextChars,
		MaxHistoryMessages:   cfg.MaxHistoryMessages,
	})
	if err != nil {
		storage.Close()
		return nil, err
	}

	retriever := retrieval.NewRetriever(storage.Embedder, storage.Index, logger)
	retrieveTool := agent.NewRetrieveTool(retriever)

	generator := generation.NewGenerator(llmClient, generation.Config{
		MaxTokens:   generation.DefaultMaxTokens,
		Temperature: generation.DefaultTemperature,
		Timeout:     cfg.UpstreamTimeout,
	}, logger)

	agentCfg := agent.DefaultConfig()
	agentCfg.MaxIterations = cfg.AgentMaxIterations
	agentCfg.MaxToolCalls = cfg.AgentMaxToolCalls
	agentCfg.Timeout = cfg.UpstreamTimeout
	bookAgent := agent.New(llmClient, prompts.AgentSystemPrompt, agentCfg, logger, retrieveTool)

	service := chat.NewService(composer, retriever, generator, bookAgent, chat.Config{
		TopK:            cfg.TopK,
		NoResultsAnswer: prompts.NoResultsAnswer,
	}, logger)

	deps := &Dependencies{
		Storage:      storage,
		LLM:          llmClient,
		Retriever:    retriever,
		RetrieveTool: retrieveTool,
		Agent:        bookAgent,
		Chat:         service,
		Logger:       logger,
	}
	if storage.Redis != nil {
		deps.Publisher = streamredis.NewProducer(storage.Redis, cfg.IngestStream)
	}

	return deps, nil
}

func createLLMClient(storage *Storage, cfg *Config) (llm.LLMClient, error) {
	switch cfg.LLMProvider {
	case ProviderOpenAI:
		return gpt.NewClient(cfg.OpenAIKey, cfg.OpenAIModelID, cfg.OpenAIBaseURL)
	case ProviderBedrock:
		return llmbedrock.NewClient(storage.bedrock.Runtime, cfg.ClaudeModelID)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

func createEmbedder(storage *Storage, cfg *Config, logger *zerolog.Logger) (embedding.Embedder, error) {
	var embedder embedding.Embedder
	switch cfg.EmbeddingProvider {
	case ProviderOpenAI:
		client, err := gpt.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, err
		}
		embedder = embedding.NewOpenAIEmbedder(client, cfg.OpenAIEmbeddingModelID, cfg.OpenAIEmbeddingDim)
	case ProviderBedrock:
		embedder = embedding.NewBedrockEmbedder(storage.bedrock.Runtime, cfg.EmbeddingModelID)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbeddingProvider)
	}

	if storage.Redis != nil && cfg.QueryCacheTTL > 0 {
		cache := embedding.NewRedisVectorCache(storage.Redis, queryCachePrefix)
		embedder = embedding.NewCachedEmbedder(embedder, cache, cfg.QueryCacheTTL, logger)
	}

	return embedder, nil
}

func createIndex(storage *Storage, cfg *Config) (vectorstore.Index, error) {
	switch cfg.VectorBackend {
	case BackendQdrant:
		index, err := vectorstore.NewQdrantIndex(vectorstore.QdrantConfig{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
			Timeout:    cfg.UpstreamTimeout,
			MinScore:   cfg.MinSimilarity,
		})
		if err != nil {
			return nil, err
		}
		storage.Checks = append(storage.Checks, api.HealthCheck{Name: "vector_index", Check: index.Ping})
		return index, nil
	case BackendPgVector:
		return vectorstore.NewPgVectorIndex(storage.DB, cfg.MinSimilarity), nil
	default:
		return nil, fmt.Errorf("unsupported vector backend: %s", cfg.VectorBackend)
	}
}
