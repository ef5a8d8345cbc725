package errs

import (
	"context"
	"errors"
	"testing"
)

func TestValidationErrorsWrapValidation(t *testing.T) {
	for _, err := range []error{
		ErrEmptyQuery,
		ErrQueryTooLong,
		ErrEmptySelectedText,
		ErrSelectedTextTooLong,
		ErrHistoryTooLong,
		ErrInvalidChunkParams,
	} {
		if !IsValidation(err) {
			t.Errorf("Expected %q to be a validation error", err)
		}
	}
}

func TestUpstream(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantIs  error
		wantNot error
	}{
		{"plain error", errors.New("connection refused"), ErrUpstreamUnavailable, ErrRateLimited},
		{"rate limited kept", RateLimited(errors.New("429")), ErrRateLimited, ErrUpstreamUnavailable},
		{"deadline", context.DeadlineExceeded, ErrUpstreamUnavailable, ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Upstream(tt.err)
			if !errors.Is(got, tt.wantIs) {
				t.Errorf("Expected %v to wrap %v", got, tt.wantIs)
			}
			if errors.Is(got, tt.wantNot) {
				t.Errorf("Expected %v not to wrap %v", got, tt.wantNot)
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("Expected original error to be preserved")
			}
		})
	}

	if Upstream(nil) != nil {
		t.Error("Expected nil for nil error")
	}
}
