package ingestion

import (
	"context"
	"fmt"

	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
)

// HandleJob ingests the directory and the explicit paths of a queued job.
func (p *Pipeline) HandleJob(ctx context.Context, job models.IngestJob) error {
	paths := append([]string{}, job.Paths...)
	if job.Directory != "" {
		found, err := CollectFiles(job.Directory)
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return fmt.Errorf("ingest job %s has no files", job.ID)
	}

	report, err := p.IngestPaths(ctx, paths)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("job_id", job.ID).
		Int("indexed", len(report.Indexed)).
		Int("failed", len(report.Failed)).
		Dur("duration", report.Duration).
		Msg("Ingest job processed")
	return nil
}
