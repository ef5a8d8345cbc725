package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/rs/zerolog/log"
)

//go:generate mockgen -source=repository.go -destination=mocks/repository_mock.go -package=mocks

// MetadataStore records which source files have been indexed and with which content hash.
type MetadataStore interface {
	GetDocumentRecord(ctx context.Context, path string) (*models.DocumentRecord, error)
	UpsertDocumentRecord(ctx context.Context, record models.DocumentRecord) error
	ListDocumentRecords(ctx context.Context) ([]models.DocumentRecord, error)
}

const metadataSchema = `
CREATE TABLE IF NOT EXISTS document_metadata (
	id              SERIAL PRIMARY KEY,
	file_path       TEXT NOT NULL UNIQUE,
	title           TEXT NOT NULL DEFAULT '',
	content_hash    TEXT NOT NULL,
	chunk_count     INTEGER NOT NULL DEFAULT 0,
	last_indexed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

func (db *DB) EnsureMetadataSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, metadataSchema); err != nil {
		return fmt.Errorf("failed to create document_metadata table: %w", err)
	}
	return nil
}

// GetDocumentRecord returns nil without error when the path was never indexed.
func (db *DB) GetDocumentRecord(ctx context.Context, path string) (*models.DocumentRecord, error) {
	query := `
	SELECT file_path, title, content_hash, chunk_count, last_indexed_at
	FROM document_metadata
	WHERE file_path = $1`

	var record models.DocumentRecord
	err := db.Pool.QueryRow(ctx, query, path).Scan(
		&record.Path,
		&record.Title,
		&record.ContentHash,
		&record.ChunkCount,
		&record.LastIndexedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document record %s: %w", path, err)
	}

	return &record, nil
}

// UpsertDocumentRecord inserts or replaces the record for a path. Concurrent
// writers resolve last-writer-wins.
func (db *DB) UpsertDocumentRecord(ctx context.Context, record models.DocumentRecord) error {
	query := `
	INSERT INTO document_metadata (file_path, title, content_hash, chunk_count, last_indexed_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (file_path) DO UPDATE SET
		title = EXCLUDED.title,
		content_hash = EXCLUDED.content_hash,
		chunk_count = EXCLUDED.chunk_count,
		last_indexed_at = NOW()`

	_, err := db.Pool.Exec(ctx, query, record.Path, record.Title, record.ContentHash, record.ChunkCount)
	if err != nil {
		return fmt.Errorf("failed to upsert document record %s: %w", record.Path, err)
	}

	log.Debug().Str("file_path", record.Path).Int("chunks", record.ChunkCount).Msg("Document record saved")
	return nil
}

// TODO: Add pagination
func (db *DB) ListDocumentRecords(ctx context.Context) ([]models.DocumentRecord, error) {
	query := `
	SELECT file_path, title, content_hash, chunk_count, last_indexed_at
	FROM document_metadata
	ORDER BY file_path`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("unable to fetch document records: %w", err)
	}
	defer rows.Close()

	var records []models.DocumentRecord
	for rows.Next() {
		var record models.DocumentRecord
		if err := rows.Scan(&record.Path, &record.Title, &record.ContentHash, &record.ChunkCount, &record.LastIndexedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document record: %w", err)
		}
		records = append(records, record)
	}

	// Rows errors catch
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}
