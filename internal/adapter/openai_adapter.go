// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	// DefaultOpenAIBaseURL is the default OpenAI API endpoint.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout bounds a single attempt.
	DefaultTimeout = 60 * time.Second
)

// OpenAIAdapter implements AIProvider with the official OpenAI Go SDK.
// SDK-level retries are disabled.
type OpenAIAdapter struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	client     openai.Client
}

// OpenAIAdapterOption is a functional option for configuring OpenAIAdapter.
type OpenAIAdapterOption func(*OpenAIAdapter)

// WithBaseURL sets a custom base URL for the OpenAI API. Empty values are ignored.
func WithBaseURL(url string) OpenAIAdapterOption {
	return func(a *OpenAIAdapter) {
		if url != "" {
			a.baseURL = strings.TrimSuffix(url, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) OpenAIAdapterOption {
	return func(a *OpenAIAdapter) {
		if client != nil {
			a.httpClient = client
		}
	}
}

// WithTimeout sets the per-attempt request timeout.
func WithTimeout(timeout time.Duration) OpenAIAdapterOption {
	return func(a *OpenAIAdapter) {
		if timeout > 0 {
			a.timeout = timeout
		}
	}
}

// NewOpenAIAdapter creates a new OpenAIAdapter bound to apiKey.
func NewOpenAIAdapter(apiKey string, opts ...OpenAIAdapterOption) *OpenAIAdapter {
	a := &OpenAIAdapter{
		apiKey:     apiKey,
		baseURL:    DefaultOpenAIBaseURL,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(a)
	}

	a.client = openai.NewClient(
		option.WithAPIKey(a.apiKey),
		option.WithBaseURL(a.baseURL+"/"),
		option.WithHTTPClient(a.httpClient),
		option.WithRequestTimeout(a.timeout),
		option.WithMaxRetries(0),
	)

	return a
}

// NewOpenAIFactory returns a ProviderFactory that builds OpenAIAdapters with opts.
func NewOpenAIFactory(opts ...OpenAIAdapterOption) ProviderFactory {
	return func(apiKey string) AIProvider {
		return NewOpenAIAdapter(apiKey, opts...)
	}
}

// Name returns the provider identifier.
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// ChatCompletion sends req through the SDK and maps the completion back.
func (a *OpenAIAdapter) ChatCompletion(ctx context.Context, req OpenAIRequest) (OpenAIResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: openai.Float(req.Temperature),
	}

	// The SDK error is returned as is; its text becomes the failed row's response.
	completion, err := a.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return OpenAIResponse{}, err
	}

	return fromOpenAICompletion(completion), nil
}

// toOpenAIMessages converts role-tagged messages to SDK message params.
// Unknown roles are sent as user messages.
func toOpenAIMessages(messages []OpenAIMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// fromOpenAICompletion maps an SDK completion to OpenAIResponse.
func fromOpenAICompletion(c *openai.ChatCompletion) OpenAIResponse {
	if c == nil {
		return OpenAIResponse{}
	}

	resp := OpenAIResponse{
		ID:      c.ID,
		Model:   c.Model,
		Choices: make([]OpenAIChoice, 0, len(c.Choices)),
		Usage: OpenAIUsage{
			PromptTokens:     c.Usage.PromptTokens,
			CompletionTokens: c.Usage.CompletionTokens,
			TotalTokens:      c.Usage.TotalTokens,
		},
	}

	for _, choice := range c.Choices {
		resp.Choices = append(resp.Choices, OpenAIChoice{
			Index: choice.Index,
			Message: OpenAIMessage{
				Role:    RoleAssistant,
				Content: choice.Message.Content,
			},
			FinishReason: string(choice.FinishReason),
		})
	}

	return resp
}
