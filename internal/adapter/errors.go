package adapter

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
)

// ErrNoChoices is returned when a completion carries no choices.
var ErrNoChoices = errors.New("chat completion returned no choices")

// IsRetryableError determines if an error should trigger another attempt.
// Retryable: transport failures, attempt timeouts, 408, 409, 429 and 5xx.
// Non-retryable: other 4xx, empty completions and caller cancellation.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNoChoices) {
		return false
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusRequestTimeout,
			apiErr.StatusCode == http.StatusConflict,
			apiErr.StatusCode == http.StatusTooManyRequests:
			return true
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return true
		default:
			return false
		}
	}

	return true
}

// StatusCode returns the HTTP status carried by an API error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
