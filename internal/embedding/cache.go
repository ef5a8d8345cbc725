package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrCacheMiss = errors.New("cache miss")

// VectorCache stores query vectors by key.
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, error)
	Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error
}

type RedisVectorCache struct {
	client *redis.Client
	prefix string
}

func NewRedisVectorCache(client *redis.Client, prefix string) *RedisVectorCache {
	return &RedisVectorCache{
		client: client,
		prefix: prefix,
	}
}

func (c *RedisVectorCache) Get(ctx context.Context, key string) ([]float32, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		return nil, err
	}
	return vector, nil
}

func (c *RedisVectorCache) Set(ctx context.Context, key string, vector []float32, ttl time.Duration) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

// CachedEmbedder caches query vectors. Document embeddings always go to the
// provider. Cache failures are logged and bypassed.
type CachedEmbedder struct {
	Embedder
	cache  VectorCache
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewCachedEmbedder(inner Embedder, cache VectorCache, ttl time.Duration, logger *zerolog.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		Embedder: inner,
		cache:    cache,
		ttl:      ttl,
		logger:   logger,
	}
}

func (e *CachedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := queryKey(e.ModelID(), text)

	vector, err := e.cache.Get(ctx, key)
	if err == nil {
		e.logger.Debug().Str("key", key).Msg("Query embedding cache hit")
		return vector, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		e.logger.Warn().Err(err).Msg("Query embedding cache read failed")
	}

	vector, err = e.Embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := e.cache.Set(ctx, key, vector, e.ttl); err != nil {
		e.logger.Warn().Err(err).Msg("Query embedding cache write failed")
	}

	return vector, nil
}

func queryKey(modelID, text string) string {
	sum := sha256.Sum256([]byte(text))
	return modelID + ":" + hex.EncodeToString(sum[:])
}
