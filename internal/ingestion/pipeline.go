package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/povarna/generative-ai-agents/book-agent/internal/chunking"
	"github.com/povarna/generative-ai-agents/book-agent/internal/database"
	"github.com/povarna/generative-ai-agents/book-agent/internal/embedding"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/povarna/generative-ai-agents/book-agent/internal/vectorstore"
	"github.com/rs/zerolog"
)

type FailedFile struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// IngestReport summarises a batch. A failed file never aborts the batch.
type IngestReport struct {
	Indexed     []string      `json:"indexed"`
	Skipped     []string      `json:"skipped"`
	Failed      []FailedFile  `json:"failed"`
	TotalChunks int           `json:"total_chunks"`
	Duration    time.Duration `json:"duration"`
}

// FileResult is the outcome of a single IngestFile call.
type FileResult struct {
	Path    string
	Chunks  int
	Skipped bool
}

type Pipeline struct {
	parser   *Parser
	chunker  *chunking.Chunker
	embedder embedding.Embedder
	index    vectorstore.Index
	store    database.MetadataStore
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewPipeline(
	parser *Parser,
	chunker *chunking.Chunker,
	embedder embedding.Embedder,
	index vectorstore.Index,
	store database.MetadataStore,
	logger *zerolog.Logger,
) *Pipeline {
	return &Pipeline{
		parser:   parser,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		store:    store,
		now:      time.Now,
		logger:   logger,
	}
}

// IngestFile indexes one file. Files whose content hash matches the stored
// record are skipped; otherwise the path's previous chunks are replaced.
func (p *Pipeline) IngestFile(ctx context.Context, path string) (*FileResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	hash := ContentHash(data)

	record, err := p.store.GetDocumentRecord(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load document record: %w", err)
	}
	if record != nil && record.ContentHash == hash {
		p.logger.Debug().Str("file", path).Msg("Content unchanged, skipping")
		return &FileResult{Path: path, Skipped: true}, nil
	}

	doc, err := p.parser.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("file %s has no text after parsing", path)
	}
	p.logger.Info().Str("file", path).Str("title", doc.Title).Msg("Document parsed")

	windows, err := p.chunker.ChunkText(doc.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk document: %w", err)
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("file %s produced no chunks", path)
	}

	texts := make([]string, len(windows))
	for i, window := range windows {
		texts[i] = window.Content
	}

	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(windows) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(windows))
	}

	chunks := make([]models.Chunk, len(windows))
	for i, window := range windows {
		chunks[i] = models.Chunk{
			ID:        uuid.New().String(),
			Text:      window.Content,
			Embedding: vectors[i],
			Source:    models.SourceDocument{Title: doc.Title, Path: path},
			Section:   SectionHeading(doc.Text, headingOffset(window), doc.Headings),
			Position:  window.Index,
		}
	}

	if err := p.index.DeleteBySource(ctx, path); err != nil {
		return nil, fmt.Errorf("failed to delete previous chunks: %w", err)
	}
	if err := p.index.Upsert(ctx, chunks); err != nil {
		return nil, fmt.Errorf("failed to store chunks: %w", err)
	}

	err = p.store.UpsertDocumentRecord(ctx, models.DocumentRecord{
		Path:          path,
		Title:         doc.Title,
		ContentHash:   hash,
		ChunkCount:    len(chunks),
		LastIndexedAt: p.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store document record: %w", err)
	}

	p.logger.Info().Str("file", path).Int("chunks", len(chunks)).Msg("Ingestion complete")
	return &FileResult{Path: path, Chunks: len(chunks)}, nil
}

// IngestPaths prepares the collection once and ingests every path in order.
func (p *Pipeline) IngestPaths(ctx context.Context, paths []string) (*IngestReport, error) {
	start := p.now()

	if err := p.index.EnsureCollection(ctx, p.embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("failed to prepare vector collection: %w", err)
	}

	report := &IngestReport{
		Indexed: []string{},
		Skipped: []string{},
		Failed:  []FailedFile{},
	}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := p.IngestFile(ctx, path)
		if err != nil {
			p.logger.Error().Err(err).Str("file", path).Msg("Ingestion failed")
			report.Failed = append(report.Failed, FailedFile{Path: path, Error: err.Error()})
			continue
		}
		if result.Skipped {
			report.Skipped = append(report.Skipped, path)
			continue
		}
		report.Indexed = append(report.Indexed, path)
		report.TotalChunks += result.Chunks
	}

	report.Duration = p.now().Sub(start)
	p.logger.Info().
		Int("indexed", len(report.Indexed)).
		Int("skipped", len(report.Skipped)).
		Int("failed", len(report.Failed)).
		Int("chunks", report.TotalChunks).
		Msg("Batch ingestion finished")

	return report, nil
}

// IngestDirectory ingests every supported file under dir.
func (p *Pipeline) IngestDirectory(ctx context.Context, dir string) (*IngestReport, error) {
	paths, err := CollectFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no supported files found in %s", dir)
	}
	return p.IngestPaths(ctx, paths)
}

// CollectFiles walks dir and returns supported files in lexical order.
func CollectFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsSupported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return paths, nil
}

// headingOffset extends the chunk start past its first line so a heading that
// opens the chunk is attributed to it.
func headingOffset(chunk chunking.Chunk) int {
	firstLine, _, _ := strings.Cut(chunk.Content, "\n")
	return chunk.Start + len(firstLine)
}
