package llms

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kadirpekel/minion/schema"
)

// OpenAIProvider talks to the OpenAI chat completions API with native
// function calling, over net/http.
type OpenAIProvider struct {
	apiKey      string
	model       string
	host        string
	temperature float64
	client      *http.Client

	mu      sync.Mutex
	tracker schema.CostTracker
}

// NewOpenAIProvider builds a Provider backed by the OpenAI API.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:      apiKey,
		model:       model,
		host:        "https://api.openai.com/v1",
		temperature: 0.7,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
}

// WithHost overrides the API host, e.g. to point at an OpenAI-compatible
// gateway (Ollama, vLLM, etc.) instead of api.openai.com.
func (p *OpenAIProvider) WithHost(host string) *OpenAIProvider {
	if host != "" {
		p.host = host
	}
	return p
}

// WithTemperature overrides the default sampling temperature.
func (p *OpenAIProvider) WithTemperature(t float64) *OpenAIProvider {
	p.temperature = t
	return p
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAITool struct {
	Type     string             `json:"type"`
	Function openAIToolFunction `json:"function"`
}

type openAIToolFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	Stream      bool            `json:"stream"`
	Tools       []openAITool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type openAIChoice struct {
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
	Error   *openAIError   `json:"error,omitempty"`
}

type openAIStreamDelta struct {
	Content   string           `json:"content,omitempty"`
	ToolCalls []openAIToolCall `json:"tool_calls,omitempty"`
}

type openAIStreamChoice struct {
	Delta        openAIStreamDelta `json:"delta"`
	FinishReason string            `json:"finish_reason"`
}

type openAIStreamResponse struct {
	Choices []openAIStreamChoice `json:"choices"`
	Usage   *openAIUsage         `json:"usage,omitempty"`
	Error   *openAIError         `json:"error,omitempty"`
}

func (p *OpenAIProvider) buildRequest(messages []schema.Message, opts GenerateOptions, stream bool) openAIRequest {
	out := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case schema.RoleTool:
			out = append(out, openAIMessage{Role: "tool", Content: msg.Text, ToolCallID: msg.ToolCallID})
		case schema.RoleAssistant:
			m := openAIMessage{Role: "assistant", Content: msg.Text}
			for _, tc := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, openAIToolCall{ID: tc.ID, Type: "function", Function: openAIFunctionCall{Name: tc.Name, Arguments: tc.Arguments}})
			}
			out = append(out, m)
		case schema.RoleSystem:
			out = append(out, openAIMessage{Role: "system", Content: msg.Text})
		default:
			out = append(out, openAIMessage{Role: "user", Content: msg.Text})
		}
	}

	temp := opts.Temperature
	if temp == 0 {
		temp = p.temperature
	}
	req := openAIRequest{Model: p.model, Messages: out, Temperature: temp, Stream: stream}
	if len(opts.Tools) > 0 {
		tools := make([]openAITool, len(opts.Tools))
		for i, t := range opts.Tools {
			tools[i] = openAITool{Type: "function", Function: openAIToolFunction{Name: t.Name, Description: t.Description, Parameters: paramsToJSONSchema(t.Inputs)}}
		}
		req.Tools = tools
	}
	switch opts.ToolChoice.Mode {
	case "none":
		req.ToolChoice = "none"
	case "function":
		req.ToolChoice = "required"
	}
	return req
}

func (p *OpenAIProvider) do(ctx context.Context, req openAIRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("llms/openai: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llms/openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	return p.client.Do(httpReq)
}

func (p *OpenAIProvider) Generate(ctx context.Context, messages []schema.Message, opts GenerateOptions) (Response, error) {
	req := p.buildRequest(messages, opts, false)
	resp, err := p.do(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Response{}, classifyStatus(resp.StatusCode, body)
	}

	var or openAIResponse
	if err := json.Unmarshal(body, &or); err != nil {
		return Response{}, fmt.Errorf("llms/openai: decode response: %w", err)
	}
	if or.Error != nil {
		return Response{}, fmt.Errorf("llms/openai: %s", or.Error.Message)
	}
	if len(or.Choices) == 0 {
		return Response{}, fmt.Errorf("llms/openai: no choices returned")
	}

	msg := or.Choices[0].Message
	var toolCalls []schema.ToolCallWire
	for _, tc := range msg.ToolCalls {
		toolCalls = append(toolCalls, schema.ToolCallWire{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}

	p.mu.Lock()
	p.tracker.Add(or.Usage.PromptTokens, or.Usage.CompletionTokens, CostOf(p.model, or.Usage.PromptTokens, or.Usage.CompletionTokens))
	p.mu.Unlock()

	return Response{Text: msg.Content, ToolCalls: toolCalls, PromptTokens: or.Usage.PromptTokens, CompletionTokens: or.Usage.CompletionTokens}, nil
}

func (p *OpenAIProvider) GenerateStream(ctx context.Context, messages []schema.Message, opts GenerateOptions) (<-chan string, error) {
	out := make(chan string, 64)
	go func() {
		defer close(out)
		_, _ = p.GenerateStreamResponse(ctx, messages, opts, out)
	}()
	return out, nil
}

func (p *OpenAIProvider) GenerateStreamResponse(ctx context.Context, messages []schema.Message, opts GenerateOptions, outCh chan<- string) (Response, error) {
	req := p.buildRequest(messages, opts, true)
	resp, err := p.do(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Response{}, classifyStatus(resp.StatusCode, body)
	}

	var text strings.Builder
	toolCalls := map[int]*schema.ToolCallWire{}
	var order []int
	var usage openAIUsage

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		default:
		}
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			break
		}
		var sr openAIStreamResponse
		if err := json.Unmarshal([]byte(payload), &sr); err != nil {
			continue
		}
		if sr.Usage != nil {
			usage = *sr.Usage
		}
		if len(sr.Choices) == 0 {
			continue
		}
		delta := sr.Choices[0].Delta
		if delta.Content != "" {
			text.WriteString(delta.Content)
			select {
			case outCh <- delta.Content:
			case <-ctx.Done():
				return Response{}, ctx.Err()
			}
		}
		for i, tc := range delta.ToolCalls {
			existing, ok := toolCalls[i]
			if !ok {
				existing = &schema.ToolCallWire{ID: tc.ID, Name: tc.Function.Name}
				toolCalls[i] = existing
				order = append(order, i)
			}
			existing.Arguments += tc.Function.Arguments
		}
	}
	if err := scanner.Err(); err != nil {
		return Response{}, fmt.Errorf("llms/openai: read stream: %w", err)
	}

	var calls []schema.ToolCallWire
	for _, i := range order {
		calls = append(calls, *toolCalls[i])
	}

	promptTokens := usage.PromptTokens
	if promptTokens == 0 {
		promptTokens = estimatePromptTokens(messages)
	}
	p.mu.Lock()
	p.tracker.Add(promptTokens, usage.CompletionTokens, CostOf(p.model, promptTokens, usage.CompletionTokens))
	p.mu.Unlock()

	return Response{Text: text.String(), ToolCalls: calls, PromptTokens: promptTokens, CompletionTokens: usage.CompletionTokens}, nil
}

func (p *OpenAIProvider) GetCost() schema.CostRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tracker.Snapshot()
}

func (p *OpenAIProvider) ModelName() string { return p.model }
func (p *OpenAIProvider) Close() error      { return nil }
