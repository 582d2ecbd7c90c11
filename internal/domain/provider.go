// Package domain contains the core business entities and value objects.
// These structs are framework-agnostic and represent the heart of the UDF.
package domain

// ChatModel identifies a chat-completion model accepted by the ChatGPT UDF.
type ChatModel string

const (
	ModelGPT4           ChatModel = "gpt-4"
	ModelGPT40314       ChatModel = "gpt-4-0314"
	ModelGPT432K        ChatModel = "gpt-4-32k"
	ModelGPT432K0314    ChatModel = "gpt-4-32k-0314"
	ModelGPT35Turbo     ChatModel = "gpt-3.5-turbo"
	ModelGPT35Turbo0301 ChatModel = "gpt-3.5-turbo-0301"
)

// DefaultModel is used when the host does not pass a model to Setup.
const DefaultModel = ModelGPT35Turbo

// supportedModels is the fixed, ordered set of models Setup accepts.
var supportedModels = []ChatModel{
	ModelGPT4,
	ModelGPT40314,
	ModelGPT432K,
	ModelGPT432K0314,
	ModelGPT35Turbo,
	ModelGPT35Turbo0301,
}

// SupportedModels returns a copy of the supported model set in declaration order.
func SupportedModels() []ChatModel {
	out := make([]ChatModel, len(supportedModels))
	copy(out, supportedModels)
	return out
}

// SupportedModelNames returns the supported models as plain strings.
func SupportedModelNames() []string {
	out := make([]string, len(supportedModels))
	for i, m := range supportedModels {
		out[i] = string(m)
	}
	return out
}

// IsValid reports whether the model belongs to the supported set.
func (m ChatModel) IsValid() bool {
	for _, s := range supportedModels {
		if s == m {
			return true
		}
	}
	return false
}

// ValidateModel returns an *UnsupportedModelError when model is not supported.
func ValidateModel(model string) error {
	if !ChatModel(model).IsValid() {
		return &UnsupportedModelError{Model: model}
	}
	return nil
}
