package setup

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"LLM_PROVIDER", "VECTOR_BACKEND", "TOP_K_CHUNKS", "AGENT_MAX_TOOL_CALLS", "UPSTREAM_TIMEOUT", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()

	if cfg.LLMProvider != ProviderBedrock || cfg.VectorBackend != BackendPgVector {
		t.Errorf("Expected bedrock and pgvector defaults, got %s and %s", cfg.LLMProvider, cfg.VectorBackend)
	}
	if cfg.TopK != 5 || cfg.ChunkSize != 512 || cfg.ChunkOverlap != 50 {
		t.Errorf("Unexpected retrieval defaults %d/%d/%d", cfg.TopK, cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.AgentMaxIterations != 6 || cfg.AgentMaxToolCalls != 8 {
		t.Errorf("Unexpected agent bounds %d/%d", cfg.AgentMaxIterations, cfg.AgentMaxToolCalls)
	}
	if cfg.UpstreamTimeout != 30*time.Second {
		t.Errorf("Expected 30s upstream timeout, got %s", cfg.UpstreamTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Errorf("Expected wildcard CORS origin, got %v", cfg.CORSOrigins)
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("VECTOR_BACKEND", "qdrant")
	t.Setenv("TOP_K_CHUNKS", "7")
	t.Setenv("MIN_SIMILARITY", "0.45")
	t.Setenv("UPSTREAM_TIMEOUT", "12")
	t.Setenv("QUERY_CACHE_TTL", "10m")
	t.Setenv("CORS_ORIGINS", "https://book.example.com, http://localhost:3000,")
	t.Setenv("AGENT_MAX_ITERATIONS", "not-a-number")

	cfg := LoadConfig()

	if cfg.VectorBackend != BackendQdrant || cfg.TopK != 7 || cfg.MinSimilarity != 0.45 {
		t.Errorf("Unexpected overrides %+v", cfg)
	}
	if cfg.UpstreamTimeout != 12*time.Second || cfg.QueryCacheTTL != 10*time.Minute {
		t.Errorf("Expected 12s timeout and 10m TTL, got %s and %s", cfg.UpstreamTimeout, cfg.QueryCacheTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://localhost:3000" {
		t.Errorf("Unexpected CORS origins %v", cfg.CORSOrigins)
	}
	if cfg.AgentMaxIterations != 6 {
		t.Errorf("Expected invalid value to fall back to 6, got %d", cfg.AgentMaxIterations)
	}
}

func TestCreateIndex_UnknownBackend(t *testing.T) {
	if _, err := createIndex(&Storage{}, &Config{VectorBackend: "faiss"}); err == nil {
		t.Error("Expected error for unsupported backend")
	}
}

func TestCreateIndex_QdrantRegistersHealthCheck(t *testing.T) {
	storage := &Storage{}
	index, err := createIndex(storage, &Config{VectorBackend: BackendQdrant, QdrantURL: "http://localhost:6333"})
	if err != nil {
		t.Fatalf("createIndex() failed: %v", err)
	}
	if index == nil || len(storage.Checks) != 1 || storage.Checks[0].Name != "vector_index" {
		t.Errorf("Expected qdrant index with a health check, got %v", storage.Checks)
	}
}
