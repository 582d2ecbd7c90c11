// Package udf implements the ChatGPT user-defined function: a batch operator
// that turns each (query, content, prompt) row into one chat completion.
package udf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hpn/hpn-chatgpt-udf/internal/adapter"
	"github.com/hpn/hpn-chatgpt-udf/internal/domain"
)

const (
	// Name is the registered function name.
	Name = "ChatGPT"

	// Category groups the function in descriptor listings.
	Category = "chat-completion"

	// DefaultSystemPrompt is sent when the batch has no prompt column.
	DefaultSystemPrompt = "You are a helpful assistant that accomplishes user tasks."

	contextTemplate = "Here is some context : %s"
	taskTemplate    = "Complete the following task: %s"
)

// ChatGPT is the chat-completion UDF. Configure it once with Setup, then call
// Forward per batch. Configuration is read-only during Forward, so concurrent
// Forward calls are safe as long as Setup is not called concurrently.
type ChatGPT struct {
	model       domain.ChatModel
	temperature float64

	credentials domain.CredentialChain
	factory     adapter.ProviderFactory
	retry       RetryPolicy
	sleep       SleepFunc
	spend       *domain.SpendTracker
	logger      *slog.Logger
}

// Option is a functional option for configuring ChatGPT.
type Option func(*ChatGPT)

// WithRetryPolicy replaces the default six attempts, twenty seconds apart.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(u *ChatGPT) {
		u.retry = p
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *ChatGPT) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithSleep replaces the delay function used between attempts.
func WithSleep(sleep SleepFunc) Option {
	return func(u *ChatGPT) {
		if sleep != nil {
			u.sleep = sleep
		}
	}
}

// WithSpendTracker shares a spend tally across instances.
func WithSpendTracker(s *domain.SpendTracker) Option {
	return func(u *ChatGPT) {
		if s != nil {
			u.spend = s
		}
	}
}

// New creates a ChatGPT UDF configured with the default model and temperature.
// credentials is consulted on every Forward; factory builds the remote client
// for the resolved key.
func New(credentials domain.CredentialChain, factory adapter.ProviderFactory, opts ...Option) *ChatGPT {
	u := &ChatGPT{
		model:       domain.DefaultModel,
		temperature: 0,
		credentials: credentials,
		factory:     factory,
		retry:       DefaultRetryPolicy(),
		sleep:       sleepContext,
		spend:       &domain.SpendTracker{},
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// Setup validates and stores the model and temperature. On error the previous
// configuration is kept.
func (u *ChatGPT) Setup(model string, temperature float64) error {
	if err := domain.ValidateModel(model); err != nil {
		return err
	}
	u.model = domain.ChatModel(model)
	u.temperature = temperature
	return nil
}

// WithSetup returns a copy configured with model and temperature, leaving u
// untouched. The copy shares credentials, retry policy and spend tally.
func (u *ChatGPT) WithSetup(model string, temperature float64) (*ChatGPT, error) {
	clone := *u
	if err := clone.Setup(model, temperature); err != nil {
		return nil, err
	}
	return &clone, nil
}

// Model returns the configured model.
func (u *ChatGPT) Model() domain.ChatModel {
	return u.model
}

// Temperature returns the configured sampling temperature.
func (u *ChatGPT) Temperature() float64 {
	return u.temperature
}

// RetryPolicy returns the configured retry policy.
func (u *ChatGPT) RetryPolicy() RetryPolicy {
	return u.retry
}

// TotalSpend returns the estimated spend of every batch forwarded so far.
func (u *ChatGPT) TotalSpend() float64 {
	return u.spend.Total()
}

// CredentialSource reports which provider currently yields a key, without
// exposing the key itself.
func (u *ChatGPT) CredentialSource() (string, bool) {
	_, source, err := u.credentials.Resolve()
	if err != nil {
		return "", false
	}
	return source, true
}

// Descriptor returns the static registration record of the function.
func (u *ChatGPT) Descriptor() domain.Descriptor {
	return domain.Descriptor{
		Name:      Name,
		Category:  Category,
		Cacheable: false,
		Batchable: true,
		Inputs:    []domain.Signature{domain.ChatCompletionInputSignature()},
		Outputs:   []domain.Signature{domain.ChatCompletionOutputSignature()},
	}
}

// Forward resolves the API key, then sends one chat completion per row in
// order. A row that still fails after retries becomes a Failure whose text is
// the last error; it never aborts the batch. Forward returns an error only for
// a missing credential, a malformed batch, or a cancelled ctx.
func (u *ChatGPT) Forward(ctx context.Context, batch domain.Batch) (domain.OutputBatch, error) {
	key, source, err := u.credentials.Resolve()
	if err != nil {
		return domain.OutputBatch{}, err
	}
	u.logger.Debug("resolved OpenAI credential", slog.String("source", source))

	if err := batch.Validate(); err != nil {
		return domain.OutputBatch{}, err
	}

	provider := u.factory(key)
	queries := batch.Queries()
	contents := batch.Contents()
	prompt, hasPrompt := batch.Prompt()

	out := domain.OutputBatch{Results: make([]domain.RowResult, 0, len(queries))}

	for i := range queries {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.OutputBatch{}, fmt.Errorf("forward aborted at row %d: %w", i, ctxErr)
		}

		req := BuildRequest(u.model, u.temperature, queries[i], contents[i], prompt, hasPrompt)

		row := i
		onRetry := func(attempt int, err error) {
			u.logger.Warn("chat completion failed, retrying",
				slog.Int("row", row),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", u.retry.Attempts),
				slog.Duration("delay", u.retry.Delay),
				slog.Int("status", adapter.StatusCode(err)),
				slog.String("error", err.Error()),
			)
		}

		answer, attempts, err := retryCall(ctx, u.retry, u.sleep, onRetry,
			func(ctx context.Context) (completion, error) {
				return complete(ctx, provider, req)
			})

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return domain.OutputBatch{}, fmt.Errorf("forward aborted at row %d: %w", row, ctxErr)
			}
			u.logger.Warn("row failed",
				slog.Int("row", row),
				slog.Int("attempts", attempts),
				slog.String("error", err.Error()),
			)
			out.Results = append(out.Results, domain.Failure(err, attempts))
			continue
		}

		out.Usage.Add(answer.usage)
		out.Results = append(out.Results, domain.Success(answer.text, attempts))
	}

	cost := out.Usage.Cost(u.model)
	total := u.spend.Add(cost)

	u.logger.Info("batch forwarded",
		slog.String("model", string(u.model)),
		slog.Int("rows", out.NumRows()),
		slog.Int("failed_rows", out.FailedRows()),
		slog.Int("attempts", out.Attempts()),
		slog.Int64("prompt_tokens", out.Usage.PromptTokens),
		slog.Int64("completion_tokens", out.Usage.CompletionTokens),
		slog.Int64("total_tokens", out.Usage.TotalTokens),
		slog.String("estimated_cost", domain.FormatCost(cost)),
		slog.String("total_spend", domain.FormatCost(total)),
	)

	return out, nil
}

// BuildRequest assembles the chat messages for one row: the system prompt
// (prompt when hasPrompt, else DefaultSystemPrompt), the context message and
// the task message.
func BuildRequest(model domain.ChatModel, temperature float64, query, content, prompt string, hasPrompt bool) adapter.OpenAIRequest {
	system := DefaultSystemPrompt
	if hasPrompt {
		system = prompt
	}

	return adapter.OpenAIRequest{
		Model:       string(model),
		Temperature: temperature,
		Messages: []adapter.OpenAIMessage{
			{Role: adapter.RoleSystem, Content: system},
			{Role: adapter.RoleUser, Content: fmt.Sprintf(contextTemplate, content)},
			{Role: adapter.RoleUser, Content: fmt.Sprintf(taskTemplate, query)},
		},
	}
}

type completion struct {
	text  string
	usage domain.Usage
}

// complete performs one remote call and extracts the first choice.
func complete(ctx context.Context, provider adapter.AIProvider, req adapter.OpenAIRequest) (completion, error) {
	resp, err := provider.ChatCompletion(ctx, req)
	if err != nil {
		return completion{}, err
	}

	text, err := resp.Answer()
	if err != nil {
		return completion{}, err
	}

	usage := domain.Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	if usage.TotalTokens == 0 {
		usage = estimateUsage(req, text)
	}

	return completion{text: text, usage: usage}, nil
}

func estimateUsage(req adapter.OpenAIRequest, answer string) domain.Usage {
	var prompt int64
	for _, m := range req.Messages {
		prompt += domain.EstimateTokens(m.Content)
	}
	completionTokens := domain.EstimateTokens(answer)
	return domain.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completionTokens,
		TotalTokens:      prompt + completionTokens,
	}
}
