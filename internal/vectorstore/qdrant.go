package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/tidwall/gjson"
)

const DefaultCollection = "physical_ai_book"

var errCollectionNotFound = errors.New("qdrant collection not found")

type QdrantConfig struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
	MinScore   float64
}

// QdrantIndex talks to the Qdrant REST API.
type QdrantIndex struct {
	baseURL    string
	apiKey     string
	collection string
	minScore   float64
	httpClient *http.Client
}

type qdrantPoint struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

func NewQdrantIndex(cfg QdrantConfig) (*QdrantIndex, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &QdrantIndex{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		minScore:   cfg.MinScore,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (q *QdrantIndex) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dimension)
	}

	data, err := q.doRequest(ctx, http.MethodGet, "/collections/"+q.collection, nil)
	if errors.Is(err, errCollectionNotFound) {
		return q.createCollection(ctx, dimension)
	}
	if err != nil {
		return err
	}

	if size := int(gjson.GetBytes(data, "result.config.params.vectors.size").Int()); size != dimension {
		return fmt.Errorf("collection %s has dimension %d, embedder produces %d", q.collection, size, dimension)
	}

	return nil
}

// Ping checks that the collection is reachable.
func (q *QdrantIndex) Ping(ctx context.Context) error {
	_, err := q.doRequest(ctx, http.MethodGet, "/collections/"+q.collection, nil)
	return err
}

func (q *QdrantIndex) createCollection(ctx context.Context, dimension int) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	if _, err := q.doRequest(ctx, http.MethodPut, "/collections/"+q.collection, body); err != nil {
		return err
	}

	index := map[string]any{
		"field_name":   "source_file_path",
		"field_schema": "keyword",
	}
	_, err := q.doRequest(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/index", q.collection), index)
	return err
}

func (q *QdrantIndex) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	points := make([]qdrantPoint, 0, len(chunks))
	for _, chunk := range chunks {
		points = append(points, qdrantPoint{
			ID:     chunk.ID,
			Vector: chunk.Embedding,
			Payload: map[string]any{
				"text":             chunk.Text,
				"chapter_title":    chunk.Source.Title,
				"section_heading":  chunk.Section,
				"chunk_index":      chunk.Position,
				"source_file_path": chunk.Source.Path,
			},
		})
	}

	body := map[string]any{"points": points}
	_, err := q.doRequest(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", q.collection), body)
	return err
}

func (q *QdrantIndex) DeleteBySource(ctx context.Context, sourcePath string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "source_file_path",
					"match": map[string]any{"value": sourcePath},
				},
			},
		},
	}
	_, err := q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", q.collection), body)
	return err
}

func (q *QdrantIndex) Search(ctx context.Context, vector []float32, k int) ([]models.RetrievalResult, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
	}
	if q.minScore > 0 {
		body["score_threshold"] = q.minScore
	}

	data, err := q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", q.collection), body)
	if err != nil {
		return nil, err
	}

	hits := gjson.GetBytes(data, "result").Array()
	results := make([]models.RetrievalResult, 0, len(hits))
	for _, hit := range hits {
		payload := hit.Get("payload")
		results = append(results, models.RetrievalResult{
			Chunk: models.Chunk{
				ID:   hit.Get("id").String(),
				Text: payload.Get("text").String(),
				Source: models.SourceDocument{
					Title: payload.Get("chapter_title").String(),
					Path:  payload.Get("source_file_path").String(),
				},
				Section:  payload.Get("section_heading").String(),
				Position: int(payload.Get("chunk_index").Int()),
			},
			Score: hit.Get("score").Float(),
		})
	}

	return results, nil
}

// doRequest sends a JSON request and returns the raw response body.
func (q *QdrantIndex) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal qdrant request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read qdrant response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, errCollectionNotFound
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errs.RateLimited(fmt.Errorf("qdrant %s %s returned %d", method, path, resp.StatusCode))
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	return data, nil
}
