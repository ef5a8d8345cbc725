package middleware

import (
	"errors"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
	"github.com/rs/zerolog/log"
)

var ErrStreamingUnsupported = errors.New("streaming not supported")

type ErrorResponse struct {
	Error   string `json:"error" description:"Error message"`
	Code    int    `json:"code" description:"HTTP status code"`
	Details string `json:"details,omitempty" description:"Additional error details"`
}

// StatusFor maps a domain error onto an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errs.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, errs.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err with the status StatusFor picks for it.
func WriteError(resp *restful.Response, err error) {
	HandleError(resp, err, StatusFor(err))
}

func HandleError(resp *restful.Response, err error, status int) {
	errorResponse := ErrorResponse{
		Error: http.StatusText(status),
		Code:  status,
	}
	if err != nil {
		errorResponse.Details = err.Error()
	}

	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", status).Msg("Request failed")
	}

	if writeErr := resp.WriteHeaderAndEntity(status, errorResponse); writeErr != nil {
		log.Error().Err(writeErr).Msg("Failed to write error response")
	}
}
