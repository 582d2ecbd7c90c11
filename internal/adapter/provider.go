// Package adapter provides implementations for external AI provider integrations.
// It uses the Adapter pattern to keep the remote client behind a small interface
// so the UDF can be exercised against fakes.
package adapter

import (
	"context"
)

// AIProvider defines the interface for chat-completion providers.
type AIProvider interface {
	// ChatCompletion performs one chat completion request. Implementations must
	// not retry internally; the caller owns the retry policy.
	ChatCompletion(ctx context.Context, req OpenAIRequest) (OpenAIResponse, error)

	// Name returns the provider's identifier string.
	Name() string
}

// ProviderFactory builds a provider bound to an API key. The UDF resolves the
// key on every Forward call and builds a fresh provider with it.
type ProviderFactory func(apiKey string) AIProvider
