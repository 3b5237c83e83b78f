// Package utils provides small utility helpers shared across Minion's
// packages that don't warrant their own package.
package utils

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/kadirpekel/minion/schema"
)

// TokenCounter counts tokens for one model's encoding, caching the
// tiktoken encoding across instances so repeated construction (one per
// agent step) doesn't re-pay initialization.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken // nil when no encoding could be resolved
	model    string
	mu       sync.RWMutex
}

var (
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// NewTokenCounter builds a counter for model. If tiktoken has no
// encoding for model (an unknown or non-OpenAI model name), the counter
// uses the cl100k_base encoding; only if that cannot be loaded either
// does Count fall back to a byte/4 estimate (spec.md §4.9's
// fallback-estimator rule) rather than failing construction.
func NewTokenCounter(model string) *TokenCounter {
	cacheMu.RLock()
	cached, exists := encodingCache[model]
	cacheMu.RUnlock()
	if exists {
		return &TokenCounter{encoding: cached, model: model}
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return &TokenCounter{model: model}
		}
	}

	cacheMu.Lock()
	encodingCache[model] = encoding
	cacheMu.Unlock()

	return &TokenCounter{encoding: encoding, model: model}
}

// Count returns the token count for text, or the byte/4 fallback
// estimate if no encoding was resolved.
func (tc *TokenCounter) Count(text string) int {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	if tc.encoding == nil {
		return EstimateTokens(text)
	}
	return len(tc.encoding.Encode(text, nil, nil))
}

// CountMessages counts tokens across a message list, including the
// per-message role/framing overhead OpenAI's cookbook documents.
func (tc *TokenCounter) CountMessages(messages []schema.Message) int {
	const tokensPerMessage = 3 // <|start|>role|message<|end|>
	total := 3                 // reply is primed with <|start|>assistant<|message|>
	for _, msg := range messages {
		total += tokensPerMessage
		total += tc.Count(string(msg.Role))
		total += tc.Count(msg.Text)
	}
	return total
}

// GetModel returns the model name this counter was built for.
func (tc *TokenCounter) GetModel() string { return tc.model }

// EstimateTokens is the byte/4 fallback estimator used when no tiktoken
// encoding is available for a model, per spec.md §4.9.
func EstimateTokens(text string) int {
	return len(text) / 4
}
