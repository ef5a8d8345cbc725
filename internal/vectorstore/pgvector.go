package vectorstore

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/povarna/generative-ai-agents/book-agent/internal/database"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/rs/zerolog/log"
)

// PgVectorIndex keeps chunks in a Postgres table with a pgvector column.
type PgVectorIndex struct {
	db       *database.DB
	minScore float64
}

func NewPgVectorIndex(db *database.DB, minScore float64) *PgVectorIndex {
	return &PgVectorIndex{
		db:       db,
		minScore: minScore,
	}
}

func (p *PgVectorIndex) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dimension)
	}

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS book_chunks (
			id              UUID PRIMARY KEY,
			source_path     TEXT NOT NULL,
			chapter_title   TEXT NOT NULL,
			section_heading TEXT NOT NULL DEFAULT '',
			chunk_index     INTEGER NOT NULL,
			content         TEXT NOT NULL,
			embedding       vector(%d) NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, dimension),
		`CREATE INDEX IF NOT EXISTS book_chunks_source_idx ON book_chunks (source_path)`,
		`CREATE INDEX IF NOT EXISTS book_chunks_embedding_idx ON book_chunks USING hnsw (embedding vector_cosine_ops)`,
	}

	for _, statement := range statements {
		if _, err := p.db.Pool.Exec(ctx, statement); err != nil {
			return fmt.Errorf("failed to prepare book_chunks: %w", err)
		}
	}

	return nil
}

// Upsert writes all chunks in a single transaction.
func (p *PgVectorIndex) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := p.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // Rollback if we don't commit

	query := `
	INSERT INTO book_chunks (id, source_path, chapter_title, section_heading, chunk_index, content, embedding)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO UPDATE SET
		content = EXCLUDED.content,
		embedding = EXCLUDED.embedding`

	for i, chunk := range chunks {
		_, err := tx.Exec(ctx, query,
			chunk.ID,
			chunk.Source.Path,
			chunk.Source.Title,
			chunk.Section,
			chunk.Position,
			chunk.Text,
			pgvector.NewVector(chunk.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Debug().Int("chunks", len(chunks)).Msg("Chunks upserted")
	return nil
}

func (p *PgVectorIndex) DeleteBySource(ctx context.Context, sourcePath string) error {
	result, err := p.db.Pool.Exec(ctx, `DELETE FROM book_chunks WHERE source_path = $1`, sourcePath)
	if err != nil {
		return fmt.Errorf("failed to delete chunks for %s: %w", sourcePath, err)
	}

	log.Debug().Str("source_path", sourcePath).Int64("deleted", result.RowsAffected()).Msg("Chunks deleted")
	return nil
}

func (p *PgVectorIndex) Search(ctx context.Context, vector []float32, k int) ([]models.RetrievalResult, error) {
	query := `
	SELECT
	  id::text,
	  source_path,
	  chapter_title,
	  section_heading,
	  chunk_index,
	  content,
	  embedding <=> $1 AS distance
	FROM book_chunks
	ORDER BY distance ASC
	LIMIT $2`

	rows, err := p.db.Pool.Query(ctx, query, pgvector.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("unable to query the database: %w", err)
	}
	defer rows.Close()

	results := []models.RetrievalResult{}
	for rows.Next() {
		var chunk models.Chunk
		var distance float64

		if err := rows.Scan(
			&chunk.ID,
			&chunk.Source.Path,
			&chunk.Source.Title,
			&chunk.Section,
			&chunk.Position,
			&chunk.Text,
			&distance,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}

		score := DistanceToScore(distance)
		if score < p.minScore {
			continue
		}
		results = append(results, models.RetrievalResult{Chunk: chunk, Score: score})
	}

	// Rows errors catch
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return results, nil
}
