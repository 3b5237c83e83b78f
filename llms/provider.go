// Package llms implements the provider abstraction (C2): a uniform
// generate / stream / stream-with-tools contract over heterogeneous LLM
// backends, plus cost accounting.
package llms

import (
	"context"
	"errors"

	"github.com/kadirpekel/minion/schema"
)

// Sentinel errors a Provider may return. Callers use errors.Is to test
// which recovery policy applies (§7).
var (
	ErrProviderUnavailable = errors.New("llms: provider unavailable")
	ErrAuthError           = errors.New("llms: authentication failed")
	ErrRateLimited         = errors.New("llms: rate limited")
	ErrBadRequest          = errors.New("llms: bad request")
	ErrContextOverflow     = errors.New("llms: context window exceeded")
)

// ToolChoice selects how a provider should treat tool use for one call.
type ToolChoice struct {
	Mode  string // "auto", "none", "function"
	Force string // tool name, when Mode == "function"
}

var (
	ToolChoiceAuto = ToolChoice{Mode: "auto"}
	ToolChoiceNone = ToolChoice{Mode: "none"}
)

// ForceTool builds a ToolChoice that pins the next call to a single named
// tool.
func ForceTool(name string) ToolChoice {
	return ToolChoice{Mode: "function", Force: name}
}

// GenerateOptions configures one provider call.
type GenerateOptions struct {
	Temperature float64
	Tools       []schema.ToolDescriptor
	ToolChoice  ToolChoice
}

// Response is the full result of a non-streaming (or post-stream)
// generation: assistant text, any tool calls, and usage.
type Response struct {
	Text             string
	ToolCalls        []schema.ToolCallWire
	PromptTokens     int
	CompletionTokens int
}

// Provider is the contract every LLM backend satisfies.
type Provider interface {
	// Generate performs one non-streaming call.
	Generate(ctx context.Context, messages []schema.Message, opts GenerateOptions) (Response, error)

	// GenerateStream performs a streaming call; the returned channel is
	// finite and not restartable. Cancelling ctx ends the stream without
	// side effects beyond cost accounting for tokens already consumed.
	GenerateStream(ctx context.Context, messages []schema.Message, opts GenerateOptions) (<-chan string, error)

	// GenerateStreamResponse streams the call and also returns the full
	// response object once streaming completes.
	GenerateStreamResponse(ctx context.Context, messages []schema.Message, opts GenerateOptions, out chan<- string) (Response, error)

	// GetCost returns this provider's cumulative cost record.
	GetCost() schema.CostRecord

	// ModelName identifies the backing model, for pricing lookups and
	// diagnostics.
	ModelName() string

	// Close releases any held resources (connections, client handles).
	Close() error
}
