package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/go-openapi/spec"
	"github.com/povarna/generative-ai-agents/book-agent/internal/chat"
	"github.com/povarna/generative-ai-agents/book-agent/internal/middleware"
)

const OpenAPIPath = "/api/v1/openapi.json"

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.POST("/chat").
			To(handler.Chat).
			Doc("Answer a question from the book or from selected text").
			Metadata(restfulspec.KeyOpenAPITags, []string{"chat"}).
			Reads(chat.ChatRequest{}).
			Writes(chat.ChatResponse{}).
			Returns(200, "OK", chat.ChatResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(429, "Too Many Requests", middleware.ErrorResponse{}).
			Returns(503, "Service Unavailable", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/chat/stream").
			To(handler.ChatStream).
			Doc("Stream an answer as server-sent events (start, chunk, done, error)").
			Metadata(restfulspec.KeyOpenAPITags, []string{"chat"}).
			Reads(chat.ChatRequest{}).
			Produces("text/event-stream", restful.MIME_JSON).
			Returns(200, "OK", nil).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(503, "Service Unavailable", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/chat-agent").
			To(handler.ChatAgent).
			Doc("Answer a question with the retrieval agent").
			Metadata(restfulspec.KeyOpenAPITags, []string{"chat"}).
			Reads(chat.ChatRequest{}).
			Writes(chat.AgentChatResponse{}).
			Returns(200, "OK", chat.AgentChatResponse{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(429, "Too Many Requests", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}).
			Returns(503, "Service Unavailable", middleware.ErrorResponse{}))

	ws.
		Route(ws.POST("/ingest").
			To(handler.Ingest).
			Doc("Queue files for indexing").
			Metadata(restfulspec.KeyOpenAPITags, []string{"ingestion"}).
			Reads(IngestRequest{}).
			Writes(IngestAccepted{}).
			Returns(202, "Accepted", IngestAccepted{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(503, "Service Unavailable", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/documents").
			To(handler.Documents).
			Doc("List indexed documents").
			Metadata(restfulspec.KeyOpenAPITags, []string{"ingestion"}).
			Writes(DocumentsResponse{}).
			Returns(200, "OK", DocumentsResponse{}).
			Returns(503, "Service Unavailable", middleware.ErrorResponse{}))

	container.Add(ws)
}

// RegisterOpenAPI serves the OpenAPI document for every web service registered so far.
func RegisterOpenAPI(container *restful.Container) {
	config := restfulspec.Config{
		WebServices:                   container.RegisteredWebServices(),
		APIPath:                       OpenAPIPath,
		PostBuildSwaggerObjectHandler: enrichSwaggerObject,
	}

	container.Add(restfulspec.NewOpenAPIService(config))
}

func enrichSwaggerObject(swo *spec.Swagger) {
	swo.Info = &spec.Info{
		InfoProps: spec.InfoProps{
			Title:       "Book Agent API",
			Description: "Question answering over the book with retrieval and a tool-calling agent",
			Version:     Version,
		},
	}
	swo.Tags = []spec.Tag{
		{TagProps: spec.TagProps{Name: "health", Description: "Health checks"}},
		{TagProps: spec.TagProps{Name: "chat", Description: "Question answering"}},
		{TagProps: spec.TagProps{Name: "ingestion", Description: "Indexing the book"}},
	}
}
