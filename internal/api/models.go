package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/povarna/generative-ai-agents/book-agent/internal/chat"
	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
)

const Version = "1.0.0"

var ErrEmptyIngestRequest = fmt.Errorf("%w: paths or directory is required", errs.ErrValidation)

type IngestRequest struct {
	Paths     []string `json:"paths,omitempty" description:"Files to index"`
	Directory string   `json:"directory,omitempty" description:"Directory to scan for .md, .mdx, .txt and .pdf files"`
}

func (r *IngestRequest) Validate() error {
	if len(r.Paths) == 0 && r.Directory == "" {
		return ErrEmptyIngestRequest
	}
	return nil
}

type IngestAccepted struct {
	JobID     string `json:"job_id" description:"Ingest job identifier"`
	MessageID string `json:"message_id" description:"Stream message identifier"`
	Status    string `json:"status" description:"Always queued"`
}

type DocumentsResponse struct {
	Documents []models.DocumentRecord `json:"documents" description:"Indexed source files"`
	Total     int                     `json:"total" description:"Number of indexed files"`
}

type HealthResponse struct {
	Status   string            `json:"status" description:"healthy or degraded"`
	Version  string            `json:"version" description:"API version"`
	Services map[string]string `json:"services" description:"Per dependency status"`
}

type SSEEvent struct {
	Event string `json:"-"`
	Data  any    `json:"-"`
}

// SSE event payloads
type StreamStartEvent struct {
	Mode         models.Mode        `json:"mode"`
	SourceChunks []chat.SourceChunk `json:"source_chunks"`
}

type StreamChunkEvent struct {
	Text string `json:"text"`
}

type StreamDoneEvent struct {
	Mode      models.Mode `json:"mode"`
	Timestamp time.Time   `json:"timestamp"`
}

type StreamErrorEvent struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (e SSEEvent) Format() (string, error) {
	jsonData, err := json.Marshal(e.Data)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("event: %s\ndata: %s\n\n", e.Event, string(jsonData)), nil
}
