package domain

import (
	"fmt"
	"strings"
	"sync"
)

// TokensPerWord approximates tokenizer output (1 word ≈ 1.3 tokens).
const TokensPerWord = 1.3

// Pricing is the list price of a model in USD per million tokens.
type Pricing struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

var modelPricing = map[ChatModel]Pricing{
	ModelGPT4:           {InputPerMillion: 30, OutputPerMillion: 60},
	ModelGPT40314:       {InputPerMillion: 30, OutputPerMillion: 60},
	ModelGPT432K:        {InputPerMillion: 60, OutputPerMillion: 120},
	ModelGPT432K0314:    {InputPerMillion: 60, OutputPerMillion: 120},
	ModelGPT35Turbo:     {InputPerMillion: 0.50, OutputPerMillion: 1.50},
	ModelGPT35Turbo0301: {InputPerMillion: 1.50, OutputPerMillion: 2.00},
}

// PricingFor returns the list price of m, or zero pricing for unknown models.
func PricingFor(m ChatModel) Pricing {
	return modelPricing[m]
}

// Cost returns the estimated USD cost of u when billed at m's list price.
func (u Usage) Cost(m ChatModel) float64 {
	p := PricingFor(m)
	return float64(u.PromptTokens)/1_000_000*p.InputPerMillion +
		float64(u.CompletionTokens)/1_000_000*p.OutputPerMillion
}

// EstimateTokens approximates the token count of text from its
// whitespace-separated words. Used when an OpenAI-compatible endpoint omits
// usage from its response.
func EstimateTokens(text string) int64 {
	words := len(strings.Fields(text))

	tokens := int64(float64(words) * TokensPerWord)
	if tokens == 0 && words > 0 {
		tokens = 1
	}
	return tokens
}

// SpendTracker accumulates estimated spend across batches. Safe for concurrent use.
type SpendTracker struct {
	mu    sync.RWMutex
	total float64
}

// Add records amount and returns the new total.
func (s *SpendTracker) Add(amount float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.total += amount
	return s.total
}

// Total returns the accumulated spend.
func (s *SpendTracker) Total() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// FormatCost renders a USD amount with precision suited to its magnitude.
func FormatCost(amount float64) string {
	switch {
	case amount < 0.0001:
		return fmt.Sprintf("$%.6f", amount)
	case amount < 0.01:
		return fmt.Sprintf("$%.4f", amount)
	default:
		return fmt.Sprintf("$%.2f", amount)
	}
}
