package errs

import (
	"context"
	"errors"
	"fmt"
)

// Request validation. Every error below wraps ErrValidation and is raised
// before any outbound call is made.
var (
	ErrValidation          = errors.New("validation failed")
	ErrEmptyQuery          = fmt.Errorf("%w: query must not be empty", ErrValidation)
	ErrQueryTooLong        = fmt.Errorf("%w: query exceeds the token limit", ErrValidation)
	ErrEmptySelectedText   = fmt.Errorf("%w: selected text must not be blank", ErrValidation)
	ErrSelectedTextTooLong = fmt.Errorf("%w: selected text exceeds the character limit", ErrValidation)
	ErrHistoryTooLong      = fmt.Errorf("%w: conversation history has too many messages", ErrValidation)
	ErrInvalidChunkParams  = fmt.Errorf("%w: chunk overlap must be smaller than chunk size", ErrValidation)
)

// Upstream and agent failures.
var (
	ErrRateLimited         = errors.New("upstream rate limited")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrAgentLoopExhausted  = errors.New("agent loop exhausted without a final answer")
)

// Upstream marks err as an upstream failure unless it is already classified.
// Deadline and cancellation errors are treated as the upstream being unavailable.
func Upstream(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timed out: %w", ErrUpstreamUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
}

// RateLimited wraps err as a rate limit failure.
func RateLimited(err error) error {
	return fmt.Errorf("%w: %w", ErrRateLimited, err)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
