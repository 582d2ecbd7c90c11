// Package adapter provides implementations for external AI provider integrations.
package adapter

// OpenAI-compatible request/response types.
// These mirror the subset of the chat-completion API the UDF needs.

// Message roles used by the UDF.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// OpenAIRequest represents one chat completion request (one per input row).
type OpenAIRequest struct {
	// Model specifies which model to use (e.g., "gpt-4").
	Model string `json:"model"`

	// Temperature controls randomness. Zero is sent explicitly.
	Temperature float64 `json:"temperature"`

	// Messages contains the ordered, role-tagged conversation turns.
	Messages []OpenAIMessage `json:"messages"`
}

// OpenAIMessage represents a single message in the conversation.
type OpenAIMessage struct {
	// Role is one of: "system", "user", "assistant".
	Role string `json:"role"`

	// Content is the message text content.
	Content string `json:"content"`
}

// OpenAIResponse represents a chat completion response.
type OpenAIResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

// OpenAIChoice represents a single completion choice.
type OpenAIChoice struct {
	Index        int64         `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

// OpenAIUsage contains token usage statistics.
type OpenAIUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// Answer returns the content of the first choice.
func (r OpenAIResponse) Answer() (string, error) {
	if len(r.Choices) == 0 {
		return "", ErrNoChoices
	}
	return r.Choices[0].Message.Content, nil
}
