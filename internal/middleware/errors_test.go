package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", errs.ErrSelectedTextTooLong, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("compose: %w", errs.ErrEmptyQuery), http.StatusBadRequest},
		{"rate limited", errs.RateLimited(errors.New("throttled")), http.StatusTooManyRequests},
		{"unavailable", errs.Upstream(errors.New("connection refused")), http.StatusServiceUnavailable},
		{"loop exhausted", errs.ErrAgentLoopExhausted, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFor(tt.err); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
		})
	}
}

func newContainer(handler restful.RouteFunction) *restful.Container {
	container := restful.NewContainer()
	container.Filter(RecoverPanic)
	container.Filter(Logger)

	ws := new(restful.WebService)
	ws.Path("/test").Produces(restful.MIME_JSON)
	ws.Route(ws.GET("").To(handler))
	container.Add(ws)
	return container
}

func TestWriteError(t *testing.T) {
	container := newContainer(func(req *restful.Request, resp *restful.Response) {
		WriteError(resp, errs.RateLimited(errors.New("slow down")))
	})

	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/test", nil))

	if recorder.Code != http.StatusTooManyRequests {
		t.Fatalf("Expected status 429, got %d", recorder.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body.Code != http.StatusTooManyRequests || body.Details == "" {
		t.Errorf("Unexpected error body %+v", body)
	}
}

func TestRecoverPanic(t *testing.T) {
	container := newContainer(func(req *restful.Request, resp *restful.Response) {
		panic("handler exploded")
	})

	recorder := httptest.NewRecorder()
	container.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/test", nil))

	if recorder.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", recorder.Code)
	}
}
