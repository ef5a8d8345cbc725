package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/emicklei/go-restful/v3"
	"github.com/google/uuid"
	"github.com/povarna/generative-ai-agents/book-agent/internal/chat"
	"github.com/povarna/generative-ai-agents/book-agent/internal/middleware"
	"github.com/povarna/generative-ai-agents/book-agent/internal/models"
	"github.com/povarna/generative-ai-agents/book-agent/internal/stream"
	"github.com/rs/zerolog"
)

const healthCheckTimeout = 2 * time.Second

type ChatService interface {
	Answer(ctx context.Context, req chat.ChatRequest) (*chat.ChatResponse, error)
	Stream(ctx context.Context, req chat.ChatRequest, events chat.StreamEvents) (*chat.ChatResponse, error)
	AnswerWithAgent(ctx context.Context, req chat.ChatRequest) (*chat.AgentChatResponse, error)
}

type DocumentLister interface {
	ListDocumentRecords(ctx context.Context) ([]models.DocumentRecord, error)
}

// HealthCheck probes one dependency. A nil Check reports the service as healthy.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Handler struct {
	chat      ChatService
	publisher stream.JobPublisher
	documents DocumentLister
	checks    []HealthCheck
	logger    *zerolog.Logger
}

func NewHandler(
	chat ChatService,
	publisher stream.JobPublisher,
	documents DocumentLister,
	checks []HealthCheck,
	logger *zerolog.Logger,
) *Handler {
	return &Handler{
		chat:      chat,
		publisher: publisher,
		documents: documents,
		checks:    checks,
		logger:    logger,
	}
}

// POST /api/v1/chat
func (h *Handler) Chat(req *restful.Request, resp *restful.Response) {
	var chatRequest chat.ChatRequest
	if err := req.ReadEntity(&chatRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	h.logger.Info().
		Int("query_length", len(chatRequest.Query)).
		Bool("selected_text", chatRequest.SelectedText != "").
		Int("history", len(chatRequest.ConversationHistory)).
		Msg("Process chat")

	response, err := h.chat.Answer(req.Request.Context(), chatRequest)
	if err != nil {
		h.logger.Error().Err(err).Msg("Chat failed")
		middleware.WriteError(resp, err)
		return
	}

	resp.WriteHeaderAndEntity(http.StatusOK, response)
}

// POST /api/v1/chat/stream
// Validation and retrieval errors are returned as JSON; once the stream has
// started, failures are sent as an error event.
func (h *Handler) ChatStream(req *restful.Request, resp *restful.Response) {
	var chatRequest chat.ChatRequest
	if err := req.ReadEntity(&chatRequest); err != nil {
		h.logger.Error().Err(err).Msg("Unable to parse chat request")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	writer := resp.ResponseWriter
	flusher, ok := writer.(http.Flusher)
	if !ok {
		middleware.HandleError(resp, middleware.ErrStreamingUnsupported, http.StatusInternalServerError)
		return
	}

	send := func(event SSEEvent) error {
		formatted, err := event.Format()
		if err != nil {
			return err
		}
		if _, err := fmt.Fprint(writer, formatted); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	started := false
	events := chat.StreamEvents{
		OnStart: func(mode models.Mode, sources []chat.SourceChunk) error {
			resp.AddHeader("Content-Type", "text/event-stream")
			resp.AddHeader("Cache-Control", "no-cache")
			resp.AddHeader("Connection", "keep-alive")
			resp.AddHeader("X-Accel-Buffering", "no")
			resp.WriteHeader(http.StatusOK)
			started = true

			return send(SSEEvent{Event: "start", Data: StreamStartEvent{Mode: mode, SourceChunks: sources}})
		},
		OnChunk: func(text string) error {
			return send(SSEEvent{Event: "chunk", Data: StreamChunkEvent{Text: text}})
		},
	}

	response, err := h.chat.Stream(req.Request.Context(), chatRequest, events)
	if err != nil {
		h.logger.Error().Err(err).Bool("started", started).Msg("Chat stream failed")
		if !started {
			middleware.WriteError(resp, err)
			return
		}
		_ = send(SSEEvent{Event: "error", Data: StreamErrorEvent{Error: err.Error(), Code: middleware.StatusFor(err)}})
		return
	}

	_ = send(SSEEvent{Event: "done", Data: StreamDoneEvent{Mode: response.Mode, Timestamp: response.Timestamp}})
}

// POST /api/v1/chat-agent
func (h *Handler) ChatAgent(req *restful.Request, resp *restful.Response) {
	var chatRequest chat.ChatRequest
	if err := req.ReadEntity(&chatRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	response, err := h.chat.AnswerWithAgent(req.Request.Context(), chatRequest)
	if err != nil {
		h.logger.Error().Err(err).Msg("Agent chat failed")
		middleware.WriteError(resp, err)
		return
	}

	h.logger.Info().
		Str("confidence", string(response.Confidence)).
		Int("tool_calls", response.ToolCallCount).
		Int("tokens", response.TotalTokens).
		Msg("Agent chat complete")

	resp.WriteHeaderAndEntity(http.StatusOK, response)
}

// POST /api/v1/ingest
func (h *Handler) Ingest(req *restful.Request, resp *restful.Response) {
	var ingestRequest IngestRequest
	if err := req.ReadEntity(&ingestRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	if err := ingestRequest.Validate(); err != nil {
		middleware.WriteError(resp, err)
		return
	}

	if h.publisher == nil {
		middleware.HandleError(resp, fmt.Errorf("ingest queue is not configured"), http.StatusServiceUnavailable)
		return
	}

	job := models.IngestJob{
		ID:          uuid.New().String(),
		Paths:       ingestRequest.Paths,
		Directory:   ingestRequest.Directory,
		RequestedAt: time.Now().UTC(),
	}

	messageID, err := h.publisher.Publish(req.Request.Context(), job)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to enqueue ingest job")
		middleware.HandleError(resp, err, http.StatusServiceUnavailable)
		return
	}

	h.logger.Info().Str("job_id", job.ID).Str("message_id", messageID).Msg("Ingest job queued")
	resp.WriteHeaderAndEntity(http.StatusAccepted, IngestAccepted{
		JobID:     job.ID,
		MessageID: messageID,
		Status:    "queued",
	})
}

// GET /api/v1/documents
func (h *Handler) Documents(req *restful.Request, resp *restful.Response) {
	records, err := h.documents.ListDocumentRecords(req.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list documents")
		middleware.HandleError(resp, err, http.StatusServiceUnavailable)
		return
	}
	if records == nil {
		records = []models.DocumentRecord{}
	}

	resp.WriteHeaderAndEntity(http.StatusOK, DocumentsResponse{Documents: records, Total: len(records)})
}

// GET /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	healthResponse := HealthResponse{
		Status:   "healthy",
		Version:  Version,
		Services: make(map[string]string, len(h.checks)),
	}

	for _, check := range h.checks {
		status := "healthy"
		if check.Check != nil {
			ctx, cancel := context.WithTimeout(req.Request.Context(), healthCheckTimeout)
			if err := check.Check(ctx); err != nil {
				h.logger.Warn().Err(err).Str("service", check.Name).Msg("Health check failed")
				status = "unhealthy"
				healthResponse.Status = "degraded"
			}
			cancel()
		}
		healthResponse.Services[check.Name] = status
	}

	resp.WriteHeaderAndEntity(http.StatusOK, healthResponse)
}
