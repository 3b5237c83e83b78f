package llms

import (
	"context"
	"sync"

	"github.com/kadirpekel/minion/schema"
)

// ScriptedCall is one canned response a MockProvider returns in sequence.
type ScriptedCall struct {
	Text      string
	ToolCalls []schema.ToolCallWire
	Err       error
}

// MockProvider is a deterministic in-memory Provider for tests: it
// returns ScriptedCall entries in order, cycling the last entry once the
// script is exhausted.
type MockProvider struct {
	mu      sync.Mutex
	script  []ScriptedCall
	calls   int
	model   string
	tracker schema.CostTracker
}

// NewMockProvider builds a MockProvider that plays back script in order.
func NewMockProvider(model string, script ...ScriptedCall) *MockProvider {
	return &MockProvider{script: script, model: model}
}

// CallCount returns how many generations have been served.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockProvider) next() ScriptedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.calls
	if idx >= len(m.script) {
		idx = len(m.script) - 1
	}
	m.calls++
	if idx < 0 {
		return ScriptedCall{}
	}
	return m.script[idx]
}

func (m *MockProvider) Generate(ctx context.Context, messages []schema.Message, opts GenerateOptions) (Response, error) {
	call := m.next()
	if call.Err != nil {
		return Response{}, call.Err
	}
	promptTokens := estimatePromptTokens(messages)
	completionTokens := len(call.Text) / 4
	m.tracker.Add(promptTokens, completionTokens, 0)
	return Response{Text: call.Text, ToolCalls: call.ToolCalls, PromptTokens: promptTokens, CompletionTokens: completionTokens}, nil
}

func (m *MockProvider) GenerateStream(ctx context.Context, messages []schema.Message, opts GenerateOptions) (<-chan string, error) {
	call := m.next()
	out := make(chan string, len(call.Text))
	go func() {
		defer close(out)
		for _, r := range call.Text {
			select {
			case <-ctx.Done():
				return
			case out <- string(r):
			}
		}
	}()
	return out, nil
}

func (m *MockProvider) GenerateStreamResponse(ctx context.Context, messages []schema.Message, opts GenerateOptions, outCh chan<- string) (Response, error) {
	call := m.next()
	if call.Err != nil {
		return Response{}, call.Err
	}
	for _, r := range call.Text {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case outCh <- string(r):
		}
	}
	promptTokens := estimatePromptTokens(messages)
	completionTokens := len(call.Text) / 4
	m.tracker.Add(promptTokens, completionTokens, 0)
	return Response{Text: call.Text, ToolCalls: call.ToolCalls, PromptTokens: promptTokens, CompletionTokens: completionTokens}, nil
}

func (m *MockProvider) GetCost() schema.CostRecord { return m.tracker.Snapshot() }
func (m *MockProvider) ModelName() string          { return m.model }
func (m *MockProvider) Close() error                { return nil }

func estimatePromptTokens(messages []schema.Message) int {
	total := 0
	for _, m := range messages {
		total += len(m.Text) / 4
		for _, p := range m.Parts {
			total += len(p.Text) / 4
		}
	}
	return total
}
